package messages

// Scan messages for cache directory scanning and pacman metadata.
const (
	PkginfoNotPackage     = "not a package archive"
	PkginfoMissingFmt     = "%w: .PKGINFO not found"
	PkginfoReadArchiveFmt = "%w: %v"
	PkginfoIncompleteFmt  = "%w: .PKGINFO lacks pkgname or pkgver"

	// ScanDirErrorFmt formats unreadable cache directory errors.
	ScanDirErrorFmt = "cache dir %s: %v"

	PacmanReadConfFmt       = "read pacman config %s: %w"
	PacmanInvalidSectionFmt = "%s line %d: invalid section header %q"
	PacmanReadLocalDBFmt    = "read local database %s: %w"
)
