// Package classify assigns every cached artifact a reason and a keep/remove
// recommendation by comparing it with the installed version of its package.
package classify

import (
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// Result summarizes one classification pass.
type Result struct {
	Counts map[inventory.Reason]int
	Totals inventory.Totals
}

// Classifier applies a Policy to an Inventory. It performs no I/O.
type Classifier struct {
	Compare vercmp.Comparer
}

// New returns a Classifier using cmp, or pacman ordering when cmp is nil.
func New(cmp vercmp.Comparer) Classifier {
	if cmp == nil {
		cmp = vercmp.Pacman{}
	}
	return Classifier{Compare: cmp}
}

// Classify sets reason, recommendation and mark on every artifact of inv and
// recomputes its totals. Marks chosen by the user are reset to the
// recommendations.
func (c Classifier) Classify(inv *inventory.Inventory, index InstalledIndex, policy Policy) Result {
	cmp := c.Compare
	if cmp == nil {
		cmp = vercmp.Pacman{}
	}

	artifacts := inv.Artifacts()
	verdicts := make([]inventory.Verdict, len(artifacts))
	counts := make(map[inventory.Reason]int, len(inventory.Reasons()))

	for start := 0; start < len(artifacts); {
		end := start + 1
		for end < len(artifacts) && artifacts[end].Name == artifacts[start].Name {
			end++
		}
		reasons := classifyGroup(cmp, artifacts[start:end], index, policy)
		for i, reason := range reasons {
			rec := policy.RecommendationFor(reason)
			verdicts[start+i] = inventory.Verdict{
				Reason:         reason,
				Recommendation: rec,
				Marked:         rec == inventory.Remove,
			}
			counts[reason]++
		}
		start = end
	}

	mustAssign(inv, verdicts)
	return Result{Counts: counts, Totals: inv.Totals()}
}

// mustAssign stores verdicts built from inv.Artifacts(), one per artifact.
func mustAssign(inv *inventory.Inventory, verdicts []inventory.Verdict) {
	if err := inv.Assign(verdicts); err != nil {
		panic("classify: " + err.Error())
	}
}

// classifyGroup classifies one name group ordered newest first.
func classifyGroup(cmp vercmp.Comparer, group []inventory.Artifact, index InstalledIndex, policy Policy) []inventory.Reason {
	reasons := make([]inventory.Reason, len(group))

	baseline, asInstalled, known := index.Lookup(group[0].Name)
	if !known {
		for i := range reasons {
			reasons[i] = inventory.ReasonPkgNotInstalled
		}
		return reasons
	}

	quota := policy.OlderVersions
	equalReason := inventory.ReasonInstalled
	if asInstalled {
		quota = policy.AsInstalledOlderVersions
		equalReason = inventory.ReasonAsInstalled
		if baseline == "" {
			baseline = group[0].Version
		}
	}

	older := 0
	for i, artifact := range group {
		ret := cmp.Compare(artifact.Version, baseline)
		switch {
		case ret == 0:
			reasons[i] = equalReason
		case ret > 0:
			reasons[i] = inventory.ReasonNewerThanInstalled
		default:
			older++
			if older > quota {
				reasons[i] = inventory.ReasonAlreadyOlderVersion
				continue
			}
			reasons[i] = inventory.ReasonOlderVersion
			if policy.PkgrelException && samePkgver(cmp, artifact.Version, baseline) {
				reasons[i] = inventory.ReasonOlderPkgrel
				older--
			}
		}
	}
	return reasons
}

// samePkgver reports whether version equals baseline once pkgrel is stripped.
// A version without pkgrel never qualifies.
func samePkgver(cmp vercmp.Comparer, version, baseline string) bool {
	stripped, ok := vercmp.StripPkgrel(version)
	if !ok {
		return false
	}
	base, _ := vercmp.StripPkgrel(baseline)
	return cmp.Compare(stripped, base) == 0
}
