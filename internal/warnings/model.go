package warnings

import "fmt"

// Warning codes.
const (
	CodeCacheDirUnreadable   = "CACHE_DIR_UNREADABLE"
	CodePacmanIncludeSkipped = "PACMAN_INCLUDE_SKIPPED"
	CodeLocalDBEmpty         = "LOCAL_DB_EMPTY"
	CodeAsInstalledMissing   = "AS_INSTALLED_NOT_CACHED"
)

// Source labels where a warning originates.
const (
	SourceInternal = "internal"
	SourceCache    = "cache"
	SourcePacman   = "pacman"
)

// Severity labels whether a warning should be considered critical.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Warning represents a warning message.
type Warning struct {
	Code     string
	Subject  string
	Message  string
	Fix      string
	Details  []string
	Source   string
	Severity string
	// NoiseSuppressible marks warnings that --quiet hides.
	// Critical warnings are never suppressed even if this flag is true.
	NoiseSuppressible bool
}

func (w Warning) String() string {
	s := "WARNING " + w.Code + ": " + w.Message + "\n"
	s += fmt.Sprintf("  source: %s\n", w.sourceOrDefault())
	s += fmt.Sprintf("  severity: %s\n", w.severityOrDefault())
	s += "  subject: " + w.Subject + "\n"
	s += "  fix: " + w.Fix
	for _, d := range w.Details {
		s += "\n  details: " + d
	}
	return s
}

func (w Warning) sourceOrDefault() string {
	if w.Source == "" {
		return SourceInternal
	}
	return w.Source
}

func (w Warning) severityOrDefault() string {
	if w.Severity == "" {
		return SeverityWarning
	}
	return w.Severity
}
