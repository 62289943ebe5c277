// Package scan builds an inventory from package cache directories.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/pkginfo"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// DefaultProgressEvery is how many loaded artifacts separate progress reports.
const DefaultProgressEvery = 10

// Progress is reported while scanning.
type Progress struct {
	Dir    string
	Loaded int
}

// Options configures a scan.
type Options struct {
	Dirs     []string
	Comparer vercmp.Comparer
	// ProgressEvery defaults to DefaultProgressEvery.
	ProgressEvery int
	Progress      func(Progress)
}

// DirError records a cache directory that could not be read.
type DirError struct {
	Dir string
	Err error
}

func (e *DirError) Error() string {
	return fmt.Sprintf(messages.ScanDirErrorFmt, e.Dir, e.Err)
}

func (e *DirError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a completed scan.
type Result struct {
	Inventory *inventory.Inventory
	DirErrors []*DirError
}

var readDirFn = os.ReadDir
var readInfoFn = pkginfo.ReadFile

// Scan reads every package archive in opts.Dirs. Unreadable directories are
// collected in DirErrors and skipped; files that are not package archives are
// skipped silently. Cancellation is checked at every progress boundary and
// discards everything loaded so far.
func Scan(ctx context.Context, opts Options) (Result, error) {
	every := opts.ProgressEvery
	if every <= 0 {
		every = DefaultProgressEvery
	}

	var artifacts []inventory.Artifact
	var dirErrors []*DirError
	loaded := 0

	for _, dir := range uniqueDirs(opts.Dirs) {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		entries, err := readDirFn(dir)
		if err != nil {
			dirErrors = append(dirErrors, &DirError{Dir: dir, Err: err})
			continue
		}

		signatures := make(map[string]struct{})
		for _, entry := range entries {
			if name := entry.Name(); strings.HasSuffix(name, ".sig") && !entry.IsDir() {
				signatures[name] = struct{}{}
			}
		}

		for _, entry := range entries {
			if entry.IsDir() || !pkginfo.IsCandidate(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			meta, err := readInfoFn(path)
			if err != nil {
				continue
			}
			stat, err := entry.Info()
			if err != nil {
				continue
			}
			artifact := inventory.Artifact{
				Path:    path,
				Size:    stat.Size(),
				Name:    meta.Name,
				Version: meta.Version,
			}
			if _, ok := signatures[entry.Name()+".sig"]; ok {
				artifact.Signature = path + ".sig"
			}
			artifacts = append(artifacts, artifact)

			loaded++
			if loaded%every == 0 {
				if err := ctx.Err(); err != nil {
					return Result{}, err
				}
				if opts.Progress != nil {
					opts.Progress(Progress{Dir: dir, Loaded: loaded})
				}
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	return Result{
		Inventory: inventory.New(opts.Comparer, artifacts...),
		DirErrors: dirErrors,
	}, nil
}

func uniqueDirs(dirs []string) []string {
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		clean := filepath.Clean(dir)
		if _, ok := seen[clean]; ok {
			continue
		}
		seen[clean] = struct{}{}
		out = append(out, clean)
	}
	return out
}
