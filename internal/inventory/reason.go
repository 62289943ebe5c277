package inventory

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Reason explains why an artifact received its recommendation.
type Reason string

// Classification reasons. The zero value means "not classified yet".
const (
	ReasonAsInstalled         Reason = "as_installed"
	ReasonNewerThanInstalled  Reason = "newer_than_installed"
	ReasonInstalled           Reason = "installed"
	ReasonOlderVersion        Reason = "older_version"
	ReasonAlreadyOlderVersion Reason = "already_older_version"
	ReasonOlderPkgrel         Reason = "older_pkgrel"
	ReasonPkgNotInstalled     Reason = "pkg_not_installed"
)

var reasonLabels = map[Reason]string{
	ReasonAsInstalled:         messages.ReasonAsInstalled,
	ReasonNewerThanInstalled:  messages.ReasonNewerThanInstalled,
	ReasonInstalled:           messages.ReasonInstalled,
	ReasonOlderVersion:        messages.ReasonOlderVersion,
	ReasonAlreadyOlderVersion: messages.ReasonAlreadyOlderVersion,
	ReasonOlderPkgrel:         messages.ReasonOlderPkgrel,
	ReasonPkgNotInstalled:     messages.ReasonPkgNotInstalled,
}

// Reasons returns every reason in display order.
func Reasons() []Reason {
	return []Reason{
		ReasonAsInstalled,
		ReasonNewerThanInstalled,
		ReasonInstalled,
		ReasonOlderVersion,
		ReasonAlreadyOlderVersion,
		ReasonOlderPkgrel,
		ReasonPkgNotInstalled,
	}
}

// ParseReason accepts a reason identifier, case-insensitively and with '-' or '_'.
func ParseReason(value string) (Reason, error) {
	normalized := Reason(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), "-", "_"))
	if _, ok := reasonLabels[normalized]; ok {
		return normalized, nil
	}
	return "", fmt.Errorf(messages.InventoryUnknownReasonFmt, value)
}

// Label returns the human-readable description of r.
func (r Reason) Label() string {
	if label, ok := reasonLabels[r]; ok {
		return label
	}
	return string(r)
}

// Recommendation is the keep/remove verdict derived from a Reason.
type Recommendation string

// Recommendation values.
const (
	Keep   Recommendation = "keep"
	Remove Recommendation = "remove"
)

// ParseRecommendation accepts "keep" or "remove", case-insensitively.
func ParseRecommendation(value string) (Recommendation, error) {
	switch Recommendation(strings.ToLower(strings.TrimSpace(value))) {
	case Keep:
		return Keep, nil
	case Remove:
		return Remove, nil
	default:
		return "", fmt.Errorf(messages.InventoryUnknownRecommendationFmt, value)
	}
}
