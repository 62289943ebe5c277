package messages

// Inventory messages for classification and version comparison.
const (
	// VercmpUnknownSchemeFmt formats unsupported version scheme errors.
	VercmpUnknownSchemeFmt = "unknown version scheme %q (expected pacman or semver)"

	InventoryUnknownReasonFmt         = "unknown reason %q"
	InventoryUnknownRecommendationFmt = "unknown recommendation %q (expected keep or remove)"
	InventoryVerdictCountFmt          = "got %d verdicts for %d artifacts"

	// Reason labels shown in reports.
	ReasonAsInstalled         = "As installed"
	ReasonNewerThanInstalled  = "Newer than installed"
	ReasonInstalled           = "Installed"
	ReasonOlderVersion        = "Older version"
	ReasonAlreadyOlderVersion = "Already have older version"
	ReasonOlderPkgrel         = "Older pkgrel"
	ReasonPkgNotInstalled     = "Package not installed"
)
