// Package inventory holds the live set of cached package artifacts and the
// aggregate counters derived from it.
package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// Artifact is one cached package file.
type Artifact struct {
	Path    string `json:"path" yaml:"path"`
	Size    int64  `json:"size" yaml:"size"`
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	// Signature is the companion .sig file found next to Path, if any.
	// It is informational only: it is never classified, marked or removed.
	Signature      string         `json:"signature,omitempty" yaml:"signature,omitempty"`
	Reason         Reason         `json:"reason" yaml:"reason"`
	Recommendation Recommendation `json:"recommendation" yaml:"recommendation"`
	Marked         bool           `json:"marked" yaml:"marked"`
}

// Totals are the aggregate counters over an inventory.
type Totals struct {
	TotalCount  int   `json:"total_count" yaml:"total_count"`
	TotalSize   int64 `json:"total_size" yaml:"total_size"`
	MarkedCount int   `json:"marked_count" yaml:"marked_count"`
	MarkedSize  int64 `json:"marked_size" yaml:"marked_size"`
}

// Verdict is the classification assigned to one artifact.
type Verdict struct {
	Reason         Reason
	Recommendation Recommendation
	Marked         bool
}

// Inventory is the ordered artifact collection: by name, then by descending
// version, then by path. Totals are recomputed after every mutation.
// An Inventory is not safe for concurrent use; callers serialize access.
type Inventory struct {
	cmp    vercmp.Comparer
	items  []Artifact
	totals Totals
}

// New builds an inventory ordered with cmp.
func New(cmp vercmp.Comparer, artifacts ...Artifact) *Inventory {
	if cmp == nil {
		cmp = vercmp.Pacman{}
	}
	inv := &Inventory{cmp: cmp, items: append([]Artifact(nil), artifacts...)}
	sort.SliceStable(inv.items, func(i, j int) bool {
		return inv.less(inv.items[i], inv.items[j])
	})
	inv.recompute()
	return inv
}

// Comparer returns the version comparer that orders the inventory.
func (inv *Inventory) Comparer() vercmp.Comparer {
	return inv.cmp
}

// Add inserts a at its ordered position.
func (inv *Inventory) Add(a Artifact) {
	idx := sort.Search(len(inv.items), func(i int) bool {
		return inv.less(a, inv.items[i])
	})
	inv.items = append(inv.items, Artifact{})
	copy(inv.items[idx+1:], inv.items[idx:])
	inv.items[idx] = a
	inv.recompute()
}

// less orders by name ascending, version descending, then path.
func (inv *Inventory) less(a, b Artifact) bool {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c < 0
	}
	if c := inv.cmp.Compare(a.Version, b.Version); c != 0 {
		return c > 0
	}
	return a.Path < b.Path
}

// Len returns the number of artifacts.
func (inv *Inventory) Len() int {
	return len(inv.items)
}

// Artifacts returns a copy of the artifacts in inventory order.
func (inv *Inventory) Artifacts() []Artifact {
	return append([]Artifact(nil), inv.items...)
}

// Find returns the artifact stored at path.
func (inv *Inventory) Find(path string) (Artifact, bool) {
	if idx := inv.indexOf(path); idx >= 0 {
		return inv.items[idx], true
	}
	return Artifact{}, false
}

// Totals returns the current aggregate counters.
func (inv *Inventory) Totals() Totals {
	return inv.totals
}

// Assign replaces the classification of every artifact, in inventory order.
func (inv *Inventory) Assign(verdicts []Verdict) error {
	if len(verdicts) != len(inv.items) {
		return fmt.Errorf(messages.InventoryVerdictCountFmt, len(verdicts), len(inv.items))
	}
	for i, v := range verdicts {
		inv.items[i].Reason = v.Reason
		inv.items[i].Recommendation = v.Recommendation
		inv.items[i].Marked = v.Marked
	}
	inv.recompute()
	return nil
}

// Remove deletes the artifact stored at path and returns it.
func (inv *Inventory) Remove(path string) (Artifact, bool) {
	idx := inv.indexOf(path)
	if idx < 0 {
		return Artifact{}, false
	}
	removed := inv.items[idx]
	inv.items = append(inv.items[:idx], inv.items[idx+1:]...)
	inv.recompute()
	return removed, true
}

// MarkPaths sets the mark of every listed artifact and returns how many changed.
// Unknown paths are ignored.
func (inv *Inventory) MarkPaths(paths []string, marked bool) int {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		want[p] = struct{}{}
	}
	return inv.mark(func(a Artifact) (bool, bool) {
		_, ok := want[a.Path]
		return marked, ok
	})
}

// MarkReason sets the mark of every artifact classified with reason.
func (inv *Inventory) MarkReason(reason Reason, marked bool) int {
	return inv.mark(func(a Artifact) (bool, bool) {
		return marked, a.Reason == reason
	})
}

// RestoreRecommendations resets every mark to its recommendation.
func (inv *Inventory) RestoreRecommendations() int {
	return inv.mark(func(a Artifact) (bool, bool) {
		return a.Recommendation == Remove, true
	})
}

// MarkedPaths returns the paths of marked artifacts in inventory order.
func (inv *Inventory) MarkedPaths() []string {
	paths := make([]string, 0, inv.totals.MarkedCount)
	for _, a := range inv.items {
		if a.Marked {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// mark applies fn to each artifact; fn returns the wanted mark and whether it applies.
func (inv *Inventory) mark(fn func(Artifact) (bool, bool)) int {
	changed := 0
	for i := range inv.items {
		want, applies := fn(inv.items[i])
		if !applies || inv.items[i].Marked == want {
			continue
		}
		inv.items[i].Marked = want
		changed++
	}
	if changed > 0 {
		inv.recompute()
	}
	return changed
}

func (inv *Inventory) indexOf(path string) int {
	for i := range inv.items {
		if inv.items[i].Path == path {
			return i
		}
	}
	return -1
}

func (inv *Inventory) recompute() {
	var t Totals
	for _, a := range inv.items {
		t.TotalCount++
		t.TotalSize += a.Size
		if a.Marked {
			t.MarkedCount++
			t.MarkedSize += a.Size
		}
	}
	inv.totals = t
}
