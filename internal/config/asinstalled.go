package config

import (
	"fmt"
	"strings"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// AddAsInstalled adds package names to the as-installed set. An entry of the
// form name=version also pins the substitute version. It returns the names
// that were added or changed.
func (c *Config) AddAsInstalled(entries ...string) ([]string, error) {
	var changed []string
	for _, entry := range entries {
		name, version, pinned := strings.Cut(strings.TrimSpace(entry), "=")
		name = strings.TrimSpace(name)
		version = strings.TrimSpace(version)
		if name == "" {
			return nil, fmt.Errorf(messages.ConfigAsInstalledInvalidEntryFmt, entry)
		}

		touched := false
		if !c.hasAsInstalled(name) {
			c.AsInstalled.Packages = append(c.AsInstalled.Packages, name)
			touched = true
		}
		if pinned && c.AsInstalled.Versions[name] != version {
			if version == "" {
				delete(c.AsInstalled.Versions, name)
			} else {
				if c.AsInstalled.Versions == nil {
					c.AsInstalled.Versions = make(map[string]string)
				}
				c.AsInstalled.Versions[name] = version
			}
			touched = true
		}
		if touched {
			changed = append(changed, name)
		}
	}
	return changed, nil
}

// RemoveAsInstalled drops package names from the as-installed set, with any
// pinned version. It returns the names that were removed.
func (c *Config) RemoveAsInstalled(names ...string) []string {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[strings.TrimSpace(name)] = struct{}{}
	}
	var removed []string
	kept := c.AsInstalled.Packages[:0]
	for _, name := range c.AsInstalled.Packages {
		if _, ok := drop[name]; ok {
			removed = append(removed, name)
			delete(c.AsInstalled.Versions, name)
			continue
		}
		kept = append(kept, name)
	}
	c.AsInstalled.Packages = kept
	if len(c.AsInstalled.Versions) == 0 {
		c.AsInstalled.Versions = nil
	}
	return removed
}

func (c *Config) hasAsInstalled(name string) bool {
	for _, existing := range c.AsInstalled.Packages {
		if existing == name {
			return true
		}
	}
	return false
}
