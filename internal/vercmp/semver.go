package vercmp

import "github.com/Masterminds/semver/v3"

// Semver orders versions by semantic versioning rules.
// Versions that do not parse as semver are ordered by Fallback; when Fallback
// is nil they are compared as plain strings.
type Semver struct {
	Fallback Comparer
}

// Compare implements Comparer.
func (s Semver) Compare(a, b string) int {
	if a == b {
		return 0
	}
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	if s.Fallback != nil {
		return s.Fallback.Compare(a, b)
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
