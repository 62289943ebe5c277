// Package config loads, validates and persists the pkgtrim configuration.
package config

import (
	"github.com/conn-castle/pkgtrim/internal/classify"
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/pacman"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

// Config is the on-disk configuration.
type Config struct {
	PacmanConf      string                `toml:"pacman_conf"`
	CacheDirs       []string              `toml:"cache_dirs,omitempty"`
	DBPath          string                `toml:"db_path,omitempty"`
	VersionScheme   string                `toml:"version_scheme"`
	Retention       RetentionConfig       `toml:"retention"`
	Recommendations RecommendationsConfig `toml:"recommendations"`
	AsInstalled     AsInstalledConfig     `toml:"as_installed"`
}

// RetentionConfig holds the retention quotas.
type RetentionConfig struct {
	OlderVersions            int  `toml:"older_versions"`
	AsInstalledOlderVersions int  `toml:"as_installed_older_versions"`
	PkgrelException          bool `toml:"pkgrel_exception"`
}

// RecommendationsConfig holds keep/remove per reason.
type RecommendationsConfig struct {
	NewerThanInstalled string `toml:"newer_than_installed"`
	Installed          string `toml:"installed"`
	// AsInstalled follows Installed when empty.
	AsInstalled         string `toml:"as_installed,omitempty"`
	OlderVersion        string `toml:"older_version"`
	AlreadyOlderVersion string `toml:"already_older_version"`
	OlderPkgrel         string `toml:"older_pkgrel"`
	PkgNotInstalled     string `toml:"pkg_not_installed"`
}

// AsInstalledConfig lists packages treated as installed.
type AsInstalledConfig struct {
	Packages []string `toml:"packages"`
	// Versions pins the substitute version of listed packages.
	Versions map[string]string `toml:"versions,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	policy := classify.DefaultPolicy()
	rec := func(r inventory.Reason) string { return string(policy.RecommendationFor(r)) }
	return Config{
		PacmanConf:    pacman.DefaultConfPath,
		VersionScheme: vercmp.SchemePacman,
		Retention: RetentionConfig{
			OlderVersions:            policy.OlderVersions,
			AsInstalledOlderVersions: policy.AsInstalledOlderVersions,
			PkgrelException:          policy.PkgrelException,
		},
		Recommendations: RecommendationsConfig{
			NewerThanInstalled:  rec(inventory.ReasonNewerThanInstalled),
			Installed:           rec(inventory.ReasonInstalled),
			OlderVersion:        rec(inventory.ReasonOlderVersion),
			AlreadyOlderVersion: rec(inventory.ReasonAlreadyOlderVersion),
			OlderPkgrel:         rec(inventory.ReasonOlderPkgrel),
			PkgNotInstalled:     rec(inventory.ReasonPkgNotInstalled),
		},
		AsInstalled: AsInstalledConfig{Packages: []string{}},
	}
}

// recommendationFields maps every reason to its config field.
func (r *RecommendationsConfig) recommendationFields() map[inventory.Reason]*string {
	return map[inventory.Reason]*string{
		inventory.ReasonNewerThanInstalled:  &r.NewerThanInstalled,
		inventory.ReasonInstalled:           &r.Installed,
		inventory.ReasonAsInstalled:         &r.AsInstalled,
		inventory.ReasonOlderVersion:        &r.OlderVersion,
		inventory.ReasonAlreadyOlderVersion: &r.AlreadyOlderVersion,
		inventory.ReasonOlderPkgrel:         &r.OlderPkgrel,
		inventory.ReasonPkgNotInstalled:     &r.PkgNotInstalled,
	}
}

// Policy converts the configuration to a classification policy.
// The config must have passed Validate.
func (c *Config) Policy() classify.Policy {
	recs := make(map[inventory.Reason]inventory.Recommendation, len(inventory.Reasons()))
	for reason, value := range c.Recommendations.recommendationFields() {
		if *value == "" {
			continue
		}
		if rec, err := inventory.ParseRecommendation(*value); err == nil {
			recs[reason] = rec
		}
	}
	if _, ok := recs[inventory.ReasonAsInstalled]; !ok {
		if rec, ok := recs[inventory.ReasonInstalled]; ok {
			recs[inventory.ReasonAsInstalled] = rec
		}
	}
	return classify.Policy{
		Recommendations:          recs,
		OlderVersions:            c.Retention.OlderVersions,
		AsInstalledOlderVersions: c.Retention.AsInstalledOlderVersions,
		PkgrelException:          c.Retention.PkgrelException,
	}
}

// Index combines installed versions with the configured as-installed set.
func (c *Config) Index(installed map[string]string) classify.InstalledIndex {
	overrides := make(map[string]classify.AsInstalled, len(c.AsInstalled.Packages))
	for _, name := range c.AsInstalled.Packages {
		overrides[name] = classify.AsInstalled{Version: c.AsInstalled.Versions[name]}
	}
	return classify.InstalledIndex{Installed: installed, AsInstalled: overrides}
}

// Comparer returns the version comparer selected by version_scheme.
func (c *Config) Comparer() (vercmp.Comparer, error) {
	return vercmp.ForScheme(c.VersionScheme)
}

// ResolvePacman applies config overrides on top of pacman.conf values.
func (c *Config) ResolvePacman(conf pacman.Conf) pacman.Conf {
	if len(c.CacheDirs) > 0 {
		conf.CacheDirs = append([]string(nil), c.CacheDirs...)
	}
	if c.DBPath != "" {
		conf.DBPath = c.DBPath
	}
	return conf
}
