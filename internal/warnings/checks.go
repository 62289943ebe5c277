package warnings

import (
	"fmt"
	"sort"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/pacman"
	"github.com/conn-castle/pkgtrim/internal/scan"
)

// CheckScan reports every cache directory the scan could not read.
func CheckScan(res *scan.Result) []Warning {
	if res == nil {
		return nil
	}
	var out []Warning
	for _, dirErr := range res.DirErrors {
		out = append(out, Warning{
			Code:     CodeCacheDirUnreadable,
			Subject:  dirErr.Dir,
			Message:  fmt.Sprintf(messages.WarningsCacheDirUnreadableFmt, dirErr.Dir),
			Fix:      messages.WarningsCacheDirUnreadableFix,
			Details:  []string{dirErr.Err.Error()},
			Source:   SourceCache,
			Severity: SeverityWarning,
		})
	}
	return out
}

// CheckPacman reports pacman.conf includes that were skipped and an empty
// local database, which would classify every artifact as not installed.
func CheckPacman(conf pacman.Conf, installed map[string]string) []Warning {
	var out []Warning
	for _, include := range conf.SkippedIncludes {
		out = append(out, Warning{
			Code:              CodePacmanIncludeSkipped,
			Subject:           include,
			Message:           fmt.Sprintf(messages.WarningsIncludeSkippedFmt, include),
			Fix:               messages.WarningsIncludeSkippedFix,
			Source:            SourcePacman,
			Severity:          SeverityWarning,
			NoiseSuppressible: true,
		})
	}
	if len(installed) == 0 {
		out = append(out, Warning{
			Code:     CodeLocalDBEmpty,
			Subject:  conf.DBPath,
			Message:  fmt.Sprintf(messages.WarningsLocalDBEmptyFmt, conf.DBPath),
			Fix:      messages.WarningsLocalDBEmptyFix,
			Source:   SourcePacman,
			Severity: SeverityCritical,
		})
	}
	return out
}

// CheckAsInstalled reports as-installed packages with no cached artifact.
func CheckAsInstalled(packages []string, inv *inventory.Inventory) []Warning {
	if len(packages) == 0 || inv == nil {
		return nil
	}
	cached := make(map[string]struct{})
	for _, a := range inv.Artifacts() {
		cached[a.Name] = struct{}{}
	}
	var missing []string
	for _, name := range packages {
		if _, ok := cached[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return []Warning{{
		Code:              CodeAsInstalledMissing,
		Subject:           "as_installed.packages",
		Message:           fmt.Sprintf(messages.WarningsAsInstalledMissingFmt, len(missing)),
		Fix:               messages.WarningsAsInstalledMissingFix,
		Details:           missing,
		Source:            SourceInternal,
		Severity:          SeverityWarning,
		NoiseSuppressible: true,
	}}
}
