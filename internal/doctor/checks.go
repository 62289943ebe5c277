package doctor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/config"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/pacman"
	"github.com/conn-castle/pkgtrim/internal/pkginfo"
)

var (
	loadConfigFunc     = config.Load
	loadPacmanConfFunc = pacman.LoadConf
	readInstalledFunc  = pacman.ReadInstalled
	readDirFunc        = os.ReadDir
)

// CheckConfig loads the pkgtrim config at path. A missing file is fine since
// defaults apply. Unknown keys get a recommendation naming each of them.
func CheckConfig(path string) ([]Result, *config.Config) {
	cfg, err := loadConfigFunc(path)
	if err != nil {
		recommendation := messages.DoctorConfigLoadRecommend
		if errors.Is(err, config.ErrConfigValidation) {
			if details, detailErr := configUnknownKeys(path); detailErr == nil && len(details) > 0 {
				recommendation = formatUnknownKeyRecommendation(path, details)
			}
		}
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameConfig,
			Message:        fmt.Sprintf(messages.DoctorConfigLoadFailedFmt, err),
			Recommendation: recommendation,
		}}, nil
	}

	msg := fmt.Sprintf(messages.DoctorConfigLoadedFmt, path)
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		msg = fmt.Sprintf(messages.DoctorConfigDefaultsFmt, path)
	}
	return []Result{{Status: StatusOK, CheckName: messages.DoctorCheckNameConfig, Message: msg}}, cfg
}

// CheckPacmanConf parses pacman.conf at path, following its includes.
func CheckPacmanConf(path string) ([]Result, *pacman.Conf) {
	conf, err := loadPacmanConfFunc(path)
	if err != nil {
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNamePacman,
			Message:        fmt.Sprintf(messages.DoctorPacmanConfFailedFmt, err),
			Recommendation: messages.DoctorPacmanConfRecommend,
		}}, nil
	}
	results := []Result{{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNamePacman,
		Message:   fmt.Sprintf(messages.DoctorPacmanConfLoadedFmt, path, conf.DBPath, strings.Join(conf.CacheDirs, ", ")),
	}}
	for _, include := range conf.SkippedIncludes {
		results = append(results, Result{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNamePacman,
			Message:        fmt.Sprintf(messages.WarningsIncludeSkippedFmt, include),
			Recommendation: messages.WarningsIncludeSkippedFix,
		})
	}
	return results, &conf
}

// CheckLocalDB reads the installed package versions from dbPath.
func CheckLocalDB(dbPath string) ([]Result, map[string]string) {
	installed, err := readInstalledFunc(dbPath)
	if err != nil {
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameLocalDB,
			Message:        fmt.Sprintf(messages.DoctorLocalDBFailedFmt, err),
			Recommendation: messages.WarningsLocalDBEmptyFix,
		}}, nil
	}
	if len(installed) == 0 {
		return []Result{{
			Status:         StatusWarn,
			CheckName:      messages.DoctorCheckNameLocalDB,
			Message:        fmt.Sprintf(messages.WarningsLocalDBEmptyFmt, dbPath),
			Recommendation: messages.WarningsLocalDBEmptyFix,
		}}, installed
	}
	return []Result{{
		Status:    StatusOK,
		CheckName: messages.DoctorCheckNameLocalDB,
		Message:   fmt.Sprintf(messages.DoctorLocalDBLoadedFmt, len(installed), dbPath),
	}}, installed
}

// CheckCacheDirs verifies every cache directory can be listed and counts
// the package archives in it.
func CheckCacheDirs(dirs []string) []Result {
	if len(dirs) == 0 {
		return []Result{{
			Status:         StatusFail,
			CheckName:      messages.DoctorCheckNameCache,
			Message:        messages.DoctorNoCacheDirs,
			Recommendation: messages.DoctorNoCacheDirsRecommend,
		}}
	}
	results := make([]Result, 0, len(dirs))
	for _, dir := range dirs {
		entries, err := readDirFunc(dir)
		if err != nil {
			results = append(results, Result{
				Status:         StatusWarn,
				CheckName:      messages.DoctorCheckNameCache,
				Message:        fmt.Sprintf(messages.WarningsCacheDirUnreadableFmt, dir),
				Recommendation: messages.WarningsCacheDirUnreadableFix,
			})
			continue
		}
		count := 0
		for _, entry := range entries {
			if entry.Type().IsRegular() && pkginfo.IsCandidate(entry.Name()) {
				count++
			}
		}
		results = append(results, Result{
			Status:    StatusOK,
			CheckName: messages.DoctorCheckNameCache,
			Message:   fmt.Sprintf(messages.DoctorCacheDirFmt, dir, count),
		})
	}
	return results
}

// CheckHelper reports whether the removal helper can be reached on the bus.
// probe is nil when no bus connection could be opened; connErr says why.
func CheckHelper(ctx context.Context, probe func(context.Context) (bool, error), connErr error) Result {
	result := Result{CheckName: messages.DoctorCheckNameHelper}
	if probe == nil {
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorHelperUnreachableFmt, connErr)
		result.Recommendation = messages.DoctorHelperRecommend
		return result
	}
	ok, err := probe(ctx)
	switch {
	case err != nil:
		result.Status = StatusWarn
		result.Message = fmt.Sprintf(messages.DoctorHelperUnreachableFmt, err)
		result.Recommendation = messages.DoctorHelperRecommend
	case !ok:
		result.Status = StatusWarn
		result.Message = messages.DoctorHelperMissing
		result.Recommendation = messages.DoctorHelperRecommend
	default:
		result.Status = StatusOK
		result.Message = messages.DoctorHelperAvailable
	}
	return result
}
