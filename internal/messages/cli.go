package messages

// CLI messages for the root command and shared flags.
const (
	// RootUse is the CLI command name.
	RootUse = "pkgtrim"
	// RootShort is the short description for the root command.
	RootShort       = "Trim the pacman package cache"
	RootVersionFlag = "Print version and exit"
	RootFlagConfig  = "Path to the pkgtrim config file"
	RootFlagQuiet   = "Suppress warnings"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "{{.Version}}\n"

	// PromptYesDefaultFmt formats yes/no prompts with yes as default.
	PromptYesDefaultFmt   = "%s [Y/n]: "
	PromptNoDefaultFmt    = "%s [y/N]: "
	PromptInvalidResponse = "invalid response %q"
	PromptRetryYesNo      = "Please enter y or n."

	ProgressScanFmt = "\rScanning cache: %d packages"
	ProgressDone    = "\r\033[K"
)

// List messages.
const (
	ListUse              = "list"
	ListShort            = "List cached packages with their classification"
	ListFlagReason       = "Only show packages with this reason (repeatable)"
	ListFlagMarked       = "Only show packages marked for removal"
	ListFlagFormat       = "Output format: table, json or yaml"
	ListUnknownFormatFmt = "unknown format %q (valid formats: table, json, yaml)"

	ListHeader     = "PACKAGE\tVERSION\tSIZE\tREASON\tACTION"
	ListRowFmt     = "%s\t%s\t%s\t%s\t%s\n"
	ListMarkRemove = "remove"
	ListMarkKeep   = "keep"
	ListTotalsFmt  = "%d packages (%s), %d marked for removal (%s)\n"
	ListEmpty      = "No cached packages match."
)

// Remove messages.
const (
	RemoveUse               = "remove"
	RemoveShort             = "Remove the cached packages marked for removal"
	RemoveFlagYes           = "Do not ask for confirmation"
	RemoveFlagInteractive   = "Choose the packages to remove interactively"
	RemoveFlagMarkReason    = "Mark every package with this reason (repeatable)"
	RemoveFlagUnmarkReason  = "Unmark every package with this reason (repeatable)"
	RemoveFlagMark          = "Mark this package file for removal (repeatable)"
	RemoveFlagKeep          = "Keep this package file (repeatable)"
	RemoveFlagLocal         = "Remove in-process instead of through the system helper (requires root)"
	RemoveNothingMarked     = "Nothing is marked for removal."
	RemoveUnknownPathFmt    = "%s is not a cached package"
	RemoveSelectTitle       = "Packages to remove"
	RemoveItemLabelFmt      = "%s %s (%s, %s)"
	RemoveConfirmTitleFmt   = "Remove %d packages (%s)?"
	RemoveConfirmDesc       = "Esc returns to the package list."
	RemoveAborted           = "Aborted; nothing was removed."
	RemoveNeedsConfirmation = "refusing to remove without confirmation; pass --yes when not running in a terminal"
	RemoveRemovedFmt        = "removed %s\n"
	RemoveFailedFmt         = "failed  %s: %s\n"
	RemoveSummaryFmt        = "Removed %d packages (%s); %d failed (%s).\n"
	RemoveFailuresHeader    = "Failed to remove:"
	RemoveFailureLineFmt    = "  %s: %s\n"
	RemoveNothingRemovedFmt = "%w; nothing was removed"
	RemoveHelperFmt         = "%w; is pkgtrim-helper installed? (run `pkgtrim doctor`)"
	RemoveLocalCallerID     = "local"
)

// Config command messages.
const (
	ConfigCmdUse            = "config"
	ConfigCmdShort          = "Show or change the pkgtrim configuration"
	ConfigShowUse           = "show"
	ConfigShowShort         = "Print the effective configuration"
	ConfigPathUse           = "path"
	ConfigPathShort         = "Print the config file path"
	ConfigGetUse            = "get <key>"
	ConfigGetShort          = "Print one configuration value"
	ConfigSetUse            = "set <key> <value>"
	ConfigSetShort          = "Change one configuration value"
	ConfigAsInstalledUse    = "as-installed"
	ConfigAsInstalledShort  = "Manage packages treated as installed"
	ConfigAsInstalledAdd    = "add <name[=version]>..."
	ConfigAsInstalledAddSh  = "Treat packages as installed, optionally at a pinned version"
	ConfigAsInstalledRm     = "remove <name>..."
	ConfigAsInstalledRmSh   = "Stop treating packages as installed"
	ConfigFlagDryRun        = "Print the change as a diff without writing it"
	ConfigNoChanges         = "No changes."
	ConfigSavedFmt          = "Saved %s\n"
	ConfigAsInstalledUnused = "none of the given packages are in the as-installed list"
)

// Helper binary messages.
const (
	HelperUse             = "pkgtrim-helper"
	HelperShort           = "Privileged pacman cache removal service"
	HelperFlagIdleTimeout = "Exit after this long without a request"
	HelperFlagPersist     = "Keep serving requests instead of exiting after the first"
	HelperFlagLogLevel    = "Log level: debug, info, warn or error"
	HelperInvalidLevelFmt = "invalid log level %q"
	HelperStarting        = "helper starting"
	HelperStopped         = "helper stopped"
)
