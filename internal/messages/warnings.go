package messages

// Warnings messages for non-fatal findings.
const (
	WarningsCacheDirUnreadableFmt = "cache directory %s could not be read"
	WarningsCacheDirUnreadableFix = "Check that the directory exists and is readable, or adjust CacheDir in pacman.conf or cache_dirs in the pkgtrim config."
	WarningsIncludeSkippedFmt     = "pacman.conf include %s was skipped"
	WarningsIncludeSkippedFix     = "Make the included file readable or remove the Include line."
	WarningsLocalDBEmptyFmt       = "no installed packages found in %s"
	WarningsLocalDBEmptyFix       = "Check DBPath in pacman.conf or db_path in the pkgtrim config; every cached package will be reported as not installed."
	WarningsAsInstalledMissingFmt = "%d as-installed package(s) have no cached artifact"
	WarningsAsInstalledMissingFix = "Remove stale names with `pkgtrim config as-installed remove`."
)
