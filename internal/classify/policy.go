package classify

import "github.com/conn-castle/pkgtrim/internal/inventory"

// Policy is the retention policy applied by the Classifier.
type Policy struct {
	// Recommendations maps each reason to keep or remove. Missing entries
	// fall back to DefaultRecommendations.
	Recommendations map[inventory.Reason]inventory.Recommendation
	// OlderVersions is the number of versions older than the installed one to keep.
	OlderVersions int
	// AsInstalledOlderVersions is the quota used when the baseline comes from
	// the as-installed override set.
	AsInstalledOlderVersions int
	// PkgrelException classifies versions that only differ from the baseline
	// by pkgrel as older_pkgrel, outside the quota.
	PkgrelException bool
}

// DefaultRecommendations returns the built-in recommendation per reason.
func DefaultRecommendations() map[inventory.Reason]inventory.Recommendation {
	return map[inventory.Reason]inventory.Recommendation{
		inventory.ReasonAsInstalled:         inventory.Keep,
		inventory.ReasonNewerThanInstalled:  inventory.Keep,
		inventory.ReasonInstalled:           inventory.Keep,
		inventory.ReasonOlderVersion:        inventory.Keep,
		inventory.ReasonAlreadyOlderVersion: inventory.Remove,
		inventory.ReasonOlderPkgrel:         inventory.Remove,
		inventory.ReasonPkgNotInstalled:     inventory.Remove,
	}
}

// DefaultPolicy keeps one older version, no older as-installed versions, and
// enables the pkgrel exception.
func DefaultPolicy() Policy {
	return Policy{
		Recommendations:          DefaultRecommendations(),
		OlderVersions:            1,
		AsInstalledOlderVersions: 0,
		PkgrelException:          true,
	}
}

// RecommendationFor returns the recommendation configured for reason.
func (p Policy) RecommendationFor(reason inventory.Reason) inventory.Recommendation {
	if rec, ok := p.Recommendations[reason]; ok {
		return rec
	}
	if rec, ok := DefaultRecommendations()[reason]; ok {
		return rec
	}
	return inventory.Keep
}

// AsInstalled describes one as-installed override.
type AsInstalled struct {
	// Version substitutes for the installed version. Empty means the newest
	// cached version of the package.
	Version string
}

// InstalledIndex is the read-only view of what is installed.
type InstalledIndex struct {
	Installed   map[string]string
	AsInstalled map[string]AsInstalled
}

// Lookup reports whether name is known to the index.
func (idx InstalledIndex) Lookup(name string) (version string, asInstalled bool, ok bool) {
	if v, found := idx.Installed[name]; found {
		return v, false, true
	}
	if o, found := idx.AsInstalled[name]; found {
		return o.Version, true, true
	}
	return "", false, false
}
