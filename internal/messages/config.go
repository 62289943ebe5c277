package messages

// Config messages for configuration loading, validation and persistence.
const (
	// ConfigInvalidConfigFmt formats TOML syntax errors.
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigReadFileFmt         = "read config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized config keys: %v"
	ConfigEncodeFmt           = "encode config: %w"
	ConfigPersistFmt          = "save config %s: %v"
	ConfigResolveHomeFmt      = "resolve home dir: %w"
	ConfigDiffTruncatedFmt    = "... diff truncated after %d lines"

	ConfigVersionSchemeInvalidFmt       = "%s: version_scheme %q must be pacman or semver"
	ConfigRetentionNegativeFmt          = "%s: %s must be zero or positive (got %d)"
	ConfigRecommendationInvalidFmt      = "%s: recommendations.%s must be keep or remove (got %q)"
	ConfigAsInstalledEmptyFmt           = "%s: as_installed.packages[%d] is empty"
	ConfigAsInstalledDuplicateFmt       = "%s: as_installed.packages lists %q more than once"
	ConfigAsInstalledVersionUnlistedFmt = "%s: as_installed.versions pins %q which is not in as_installed.packages"
	ConfigAsInstalledInvalidEntryFmt    = "invalid as-installed entry %q (expected name or name=version)"

	ConfigUnknownKeyFmt       = "unknown config key %q"
	ConfigSetInvalidBoolFmt   = "%s: %q is not a boolean"
	ConfigSetInvalidIntFmt    = "%s: %q is not a non-negative integer"
	ConfigSetInvalidOptionFmt = "%s: %q is not one of %s"

	ConfigSchemePacmanDescription = "alpm vercmp ordering (epoch:pkgver-pkgrel)"
	ConfigSchemeSemverDescription = "semantic versions, falling back to vercmp for non-semver strings"
)
