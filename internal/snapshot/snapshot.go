// Package snapshot builds a classified view of the package cache from the
// pkgtrim config, pacman.conf, the local database and the cache directories.
package snapshot

import (
	"context"

	"github.com/conn-castle/pkgtrim/internal/classify"
	"github.com/conn-castle/pkgtrim/internal/config"
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/pacman"
	"github.com/conn-castle/pkgtrim/internal/reconcile"
	"github.com/conn-castle/pkgtrim/internal/scan"
	"github.com/conn-castle/pkgtrim/internal/warnings"
)

var (
	loadPacmanConfFn = pacman.LoadConf
	readInstalledFn  = pacman.ReadInstalled
	scanFn           = scan.Scan
)

// Options configures Load.
type Options struct {
	Progress func(scan.Progress)
}

// Snapshot is a classified inventory plus everything needed to reclassify it.
type Snapshot struct {
	Config     *config.Config
	Pacman     pacman.Conf
	Installed  map[string]string
	Inventory  *inventory.Inventory
	Classifier classify.Classifier
	Index      classify.InstalledIndex
	Policy     classify.Policy
	Result     classify.Result
	Warnings   []warnings.Warning
}

// Load reads pacman's configuration and local database, scans the cache
// directories and classifies the result. Unreadable cache directories become
// warnings; every other failure is returned.
func Load(ctx context.Context, cfg *config.Config, opts Options) (*Snapshot, error) {
	cmp, err := cfg.Comparer()
	if err != nil {
		return nil, err
	}
	conf, err := loadPacmanConfFn(cfg.PacmanConf)
	if err != nil {
		return nil, err
	}
	conf = cfg.ResolvePacman(conf)

	installed, err := readInstalledFn(conf.DBPath)
	if err != nil {
		return nil, err
	}

	res, err := scanFn(ctx, scan.Options{Dirs: conf.CacheDirs, Comparer: cmp, Progress: opts.Progress})
	if err != nil {
		return nil, err
	}

	s := &Snapshot{
		Config:     cfg,
		Pacman:     conf,
		Installed:  installed,
		Inventory:  res.Inventory,
		Classifier: classify.New(cmp),
		Index:      cfg.Index(installed),
		Policy:     cfg.Policy(),
	}
	s.Result = s.Classifier.Classify(s.Inventory, s.Index, s.Policy)

	s.Warnings = append(s.Warnings, warnings.CheckScan(&res)...)
	s.Warnings = append(s.Warnings, warnings.CheckPacman(conf, installed)...)
	s.Warnings = append(s.Warnings, warnings.CheckAsInstalled(cfg.AsInstalled.Packages, s.Inventory)...)
	return s, nil
}

// Reconciler returns a reconciler that reclassifies with this snapshot's
// index and policy.
func (s *Snapshot) Reconciler() reconcile.Reconciler {
	return reconcile.Reconciler{Classifier: s.Classifier, Index: s.Index, Policy: s.Policy}
}

// Filter returns the artifacts matching reasons (all when empty), restricted
// to marked ones when markedOnly is set.
func (s *Snapshot) Filter(reasons []inventory.Reason, markedOnly bool) []inventory.Artifact {
	want := make(map[inventory.Reason]bool, len(reasons))
	for _, r := range reasons {
		want[r] = true
	}
	var out []inventory.Artifact
	for _, a := range s.Inventory.Artifacts() {
		if len(want) > 0 && !want[a.Reason] {
			continue
		}
		if markedOnly && !a.Marked {
			continue
		}
		out = append(out, a)
	}
	return out
}
