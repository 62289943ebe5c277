package config

import (
	"fmt"
	"strings"

	"github.com/aymanbagabas/go-udiff"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// DefaultDiffMaxLines is the default maximum number of diff lines shown.
const DefaultDiffMaxLines = 40

// Diff renders a unified diff between the current and proposed config files,
// truncated to maxLines. It returns "" when nothing changes.
func Diff(path string, current, proposed []byte, maxLines int) (string, bool) {
	if maxLines <= 0 {
		maxLines = DefaultDiffMaxLines
	}
	diff := udiff.Unified(path, path+" (proposed)", string(current), string(proposed))
	lines := splitDiffLines(diff)
	if len(lines) <= maxLines {
		return ensureTrailingNewline(strings.Join(lines, "\n")), false
	}
	truncated := append(lines[:maxLines:maxLines], fmt.Sprintf(messages.ConfigDiffTruncatedFmt, maxLines))
	return ensureTrailingNewline(strings.Join(truncated, "\n")), true
}

// Preview renders the diff that saving cfg to path would produce.
func Preview(path string, current []byte, cfg *Config, maxLines int) (string, bool, error) {
	proposed, err := Marshal(cfg)
	if err != nil {
		return "", false, err
	}
	diff, truncated := Diff(path, current, proposed, maxLines)
	return diff, truncated, nil
}

func splitDiffLines(content string) []string {
	trimmed := strings.TrimRight(content, "\n")
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}

func ensureTrailingNewline(content string) string {
	if content == "" {
		return ""
	}
	if strings.HasSuffix(content, "\n") {
		return content
	}
	return content + "\n"
}
