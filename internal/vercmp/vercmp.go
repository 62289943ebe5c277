// Package vercmp compares package version strings.
//
// The classifier never compares versions itself; it receives a Comparer so the
// retention policy stays independent of any one package ecosystem.
package vercmp

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Comparer orders two version strings.
// Compare returns a negative number when a is older than b, zero when they are
// equivalent and a positive number when a is newer.
type Comparer interface {
	Compare(a, b string) int
}

// ComparerFunc adapts a plain function into a Comparer.
type ComparerFunc func(a, b string) int

// Compare calls f(a, b).
func (f ComparerFunc) Compare(a, b string) int {
	return f(a, b)
}

// Scheme names accepted in configuration.
const (
	SchemePacman = "pacman"
	SchemeSemver = "semver"
)

// ForScheme returns the comparer registered for a configured version scheme.
// An empty scheme selects pacman ordering.
func ForScheme(scheme string) (Comparer, error) {
	switch strings.ToLower(strings.TrimSpace(scheme)) {
	case "", SchemePacman:
		return Pacman{}, nil
	case SchemeSemver:
		return Semver{Fallback: Pacman{}}, nil
	default:
		return nil, fmt.Errorf(messages.VercmpUnknownSchemeFmt, scheme)
	}
}

// StripPkgrel removes the trailing "-<pkgrel>" component of a version.
// ok is false when the version carries no '-' separator.
func StripPkgrel(version string) (string, bool) {
	idx := strings.LastIndexByte(version, '-')
	if idx < 0 {
		return version, false
	}
	return version[:idx], true
}
