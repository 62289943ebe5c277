package messages

// Doctor messages for the doctor command.
const (
	// DoctorUse is the doctor command name.
	DoctorUse   = "doctor"
	DoctorShort = "Check the config, pacman setup, cache directories and removal helper"

	DoctorHeader = "Checking pkgtrim setup..."

	DoctorCheckNameConfig  = "Config"
	DoctorCheckNamePacman  = "Pacman"
	DoctorCheckNameLocalDB = "LocalDB"
	DoctorCheckNameCache   = "Cache"
	DoctorCheckNameHelper  = "Helper"

	DoctorConfigLoadFailedFmt = "Failed to load configuration: %v"
	DoctorConfigLoadRecommend = "Fix the config file, or run `pkgtrim config path` to see which file is read."
	DoctorConfigLoadedFmt     = "Configuration loaded from %s"
	DoctorConfigDefaultsFmt   = "No config file at %s; using defaults"

	DoctorUnknownKeysHeaderFmt = "Edit %s to remove or rename these keys:"
	DoctorUnknownKeyAllowedFmt = " (allowed keys: %s)"
	DoctorUnknownKeyNoNested   = " (no nested keys are allowed here)"
	DoctorUnknownKeySuggestFmt = " (did you mean %s?)"

	DoctorPacmanConfFailedFmt = "Failed to read pacman.conf: %v"
	DoctorPacmanConfRecommend = "Set pacman_conf in the pkgtrim config to a readable pacman.conf."
	DoctorPacmanConfLoadedFmt = "Read %s (DBPath %s, CacheDir %s)"

	DoctorLocalDBFailedFmt = "Failed to read the local package database: %v"
	DoctorLocalDBLoadedFmt = "%d installed packages in %s"

	DoctorNoCacheDirs          = "No cache directories configured"
	DoctorNoCacheDirsRecommend = "Set CacheDir in pacman.conf or cache_dirs in the pkgtrim config."
	DoctorCacheDirFmt          = "%s holds %d package archives"

	DoctorHelperAvailable      = "Removal helper is available on the system bus"
	DoctorHelperMissing        = "Removal helper is not installed on the system bus"
	DoctorHelperUnreachableFmt = "Could not query the system bus: %v"
	DoctorHelperRecommend      = "Install the D-Bus service and polkit policy, or run `sudo pkgtrim remove --local`."

	DoctorStatusOKLabel        = "[OK]  "
	DoctorStatusWarnLabel      = "[WARN]"
	DoctorStatusFailLabel      = "[FAIL]"
	DoctorResultLineFmt        = "%s %-8s %s\n"
	DoctorRecommendationPrefix = "       💡 "
	DoctorRecommendationIndent = "          "
	DoctorFailureSummary       = "Some checks failed."
	DoctorFailureError         = "doctor checks failed"
	DoctorSuccessSummary       = "All checks passed."
)
