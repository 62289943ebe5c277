package config

import (
	"fmt"

	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(path string) error {
	if _, err := vercmp.ForScheme(c.VersionScheme); err != nil {
		return fmt.Errorf(messages.ConfigVersionSchemeInvalidFmt, path, c.VersionScheme)
	}
	if c.Retention.OlderVersions < 0 {
		return fmt.Errorf(messages.ConfigRetentionNegativeFmt, path, "retention.older_versions", c.Retention.OlderVersions)
	}
	if c.Retention.AsInstalledOlderVersions < 0 {
		return fmt.Errorf(messages.ConfigRetentionNegativeFmt, path, "retention.as_installed_older_versions", c.Retention.AsInstalledOlderVersions)
	}

	for _, reason := range inventory.Reasons() {
		value := *c.Recommendations.recommendationFields()[reason]
		if value == "" && reason == inventory.ReasonAsInstalled {
			continue
		}
		if _, err := inventory.ParseRecommendation(value); err != nil {
			return fmt.Errorf(messages.ConfigRecommendationInvalidFmt, path, reason, value)
		}
	}

	seen := make(map[string]struct{}, len(c.AsInstalled.Packages))
	for i, name := range c.AsInstalled.Packages {
		if name == "" {
			return fmt.Errorf(messages.ConfigAsInstalledEmptyFmt, path, i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf(messages.ConfigAsInstalledDuplicateFmt, path, name)
		}
		seen[name] = struct{}{}
	}
	for name := range c.AsInstalled.Versions {
		if _, ok := seen[name]; !ok {
			return fmt.Errorf(messages.ConfigAsInstalledVersionUnlistedFmt, path, name)
		}
	}
	return nil
}
