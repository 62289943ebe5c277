package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/pkgtrim/internal/classify"
	"github.com/conn-castle/pkgtrim/internal/inventory"
	"github.com/conn-castle/pkgtrim/internal/pacman"
	"github.com/conn-castle/pkgtrim/internal/vercmp"
)

const sampleConfig = `
pacman_conf = "/etc/pacman.conf"
version_scheme = "pacman"

[retention]
older_versions = 2

[recommendations]
older_version = "remove"

[as_installed]
packages = ["linux-custom", "firmware"]
versions = { "linux-custom" = "6.1.0-1" }
`

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, classify.DefaultPolicy(), cfg.Policy())
}

func TestParseConfig_PartialKeysKeepDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig), "config.toml")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Retention.OlderVersions)
	assert.Equal(t, 0, cfg.Retention.AsInstalledOlderVersions)
	assert.True(t, cfg.Retention.PkgrelException)
	assert.Equal(t, "remove", cfg.Recommendations.OlderVersion)
	assert.Equal(t, "keep", cfg.Recommendations.Installed)

	policy := cfg.Policy()
	assert.Equal(t, inventory.Remove, policy.RecommendationFor(inventory.ReasonOlderVersion))
	assert.Equal(t, inventory.Keep, policy.RecommendationFor(inventory.ReasonAsInstalled))
	assert.Equal(t, 2, policy.OlderVersions)

	index := cfg.Index(map[string]string{"foo": "1.0-1"})
	assert.Equal(t, "1.0-1", index.Installed["foo"])
	assert.Equal(t, classify.AsInstalled{Version: "6.1.0-1"}, index.AsInstalled["linux-custom"])
	assert.Equal(t, classify.AsInstalled{}, index.AsInstalled["firmware"])
}

func TestPolicy_AsInstalledFollowsInstalled(t *testing.T) {
	cfg := Default()
	cfg.Recommendations.Installed = "remove"
	assert.Equal(t, inventory.Remove, cfg.Policy().RecommendationFor(inventory.ReasonAsInstalled))

	cfg.Recommendations.AsInstalled = "keep"
	assert.Equal(t, inventory.Keep, cfg.Policy().RecommendationFor(inventory.ReasonAsInstalled))
}

func TestParseConfig_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown key":        "colour = \"blue\"\n",
		"unknown nested key": "[retention]\nkeep_forever = true\n",
		"negative quota":     "[retention]\nolder_versions = -1\n",
		"bad recommendation": "[recommendations]\ninstalled = \"maybe\"\n",
		"bad scheme":         "version_scheme = \"rpm\"\n",
		"unlisted version":   "[as_installed]\npackages = []\nversions = { \"x\" = \"1\" }\n",
		"duplicate package":  "[as_installed]\npackages = [\"a\", \"a\"]\n",
		"empty package":      "[as_installed]\npackages = [\"\"]\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(data), "config.toml")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfigValidation)
			assert.Contains(t, err.Error(), "config.toml")
		})
	}

	_, err := ParseConfig([]byte("not = [valid"), "config.toml")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConfigValidation)
}

func TestComparer(t *testing.T) {
	cfg := Default()
	cmp, err := cfg.Comparer()
	require.NoError(t, err)
	assert.IsType(t, vercmp.Pacman{}, cmp)
}

func TestResolvePacman(t *testing.T) {
	conf := pacman.Conf{DBPath: "/var/lib/pacman/", CacheDirs: []string{"/var/cache/pacman/pkg/"}}
	cfg := Default()
	assert.Equal(t, conf, cfg.ResolvePacman(conf))

	cfg.CacheDirs = []string{"/srv/cache"}
	cfg.DBPath = "/srv/db"
	got := cfg.ResolvePacman(conf)
	assert.Equal(t, []string{"/srv/cache"}, got.CacheDirs)
	assert.Equal(t, "/srv/db", got.DBPath)
}

func TestSaveAndReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkgtrim", "config.toml")
	cfg, err := ParseConfig([]byte(sampleConfig), "sample")
	require.NoError(t, err)
	cfg.CacheDirs = []string{"/srv/cache"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSave_RenameFailureLeavesOldFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("# original\n"), 0o644))

	orig := renameFn
	t.Cleanup(func() { renameFn = orig })
	renameFn = func(string, string) error { return errors.New("disk full") }

	cfg := Default()
	err := Save(path, &cfg)

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, path, persistErr.Path)
	assert.Contains(t, err.Error(), "disk full")

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "# original\n", string(data))

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestSave_RejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Retention.OlderVersions = -3
	err := Save(filepath.Join(t.TempDir(), "config.toml"), &cfg)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestSave_CreateTempFailure(t *testing.T) {
	orig := createTempFn
	t.Cleanup(func() { createTempFn = orig })
	createTempFn = func(string, string) (*os.File, error) { return nil, errors.New("read-only") }

	cfg := Default()
	err := Save(filepath.Join(t.TempDir(), "config.toml"), &cfg)
	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
}

func TestSetAndGet(t *testing.T) {
	cfg := Default()

	require.NoError(t, Set(&cfg, "retention.older_versions", "3"))
	require.NoError(t, Set(&cfg, "retention.pkgrel_exception", "false"))
	require.NoError(t, Set(&cfg, "recommendations.older_version", "REMOVE"))
	require.NoError(t, Set(&cfg, "version_scheme", "semver"))
	require.NoError(t, Set(&cfg, "cache_dirs", "/a, /b,,"))
	require.NoError(t, Set(&cfg, "db_path", "/srv/db"))

	assert.Equal(t, 3, cfg.Retention.OlderVersions)
	assert.False(t, cfg.Retention.PkgrelException)
	assert.Equal(t, "remove", cfg.Recommendations.OlderVersion)
	assert.Equal(t, []string{"/a", "/b"}, cfg.CacheDirs)

	v, err := Get(&cfg, "retention.older_versions")
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = Get(&cfg, "version_scheme")
	require.NoError(t, err)
	assert.Equal(t, "semver", v)

	v, err = Get(&cfg, "cache_dirs")
	require.NoError(t, err)
	assert.Equal(t, "/a, /b", v)

	v, err = Get(&cfg, "recommendations.as_installed")
	require.NoError(t, err)
	assert.Empty(t, v)

	v, err = Get(&cfg, "retention")
	require.NoError(t, err)
	assert.Contains(t, v, "older_versions = 3")

	_, err = Get(&cfg, "nope.key")
	assert.Error(t, err)
}

func TestSet_Errors(t *testing.T) {
	cfg := Default()
	assert.Error(t, Set(&cfg, "unknown", "x"))
	assert.Error(t, Set(&cfg, "retention.older_versions", "-1"))
	assert.Error(t, Set(&cfg, "retention.older_versions", "many"))
	assert.Error(t, Set(&cfg, "retention.pkgrel_exception", "sometimes"))

	err := Set(&cfg, "recommendations.installed", "maybe")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keep, remove")
}

func TestFieldsRegistry(t *testing.T) {
	all := Fields()
	require.NotEmpty(t, all)
	all[3].Options[0].Value = "mutated"
	assert.Equal(t, []string{"pacman", "semver"}, FieldOptionValues("version_scheme"))
	assert.Nil(t, FieldOptionValues("pacman_conf"))
	assert.Nil(t, FieldOptionValues("missing"))

	for _, reason := range inventory.Reasons() {
		_, ok := LookupField("recommendations." + string(reason))
		assert.True(t, ok, reason)
	}
}

func TestAsInstalledAddRemove(t *testing.T) {
	cfg := Default()

	changed, err := cfg.AddAsInstalled("linux-custom=6.1-1", "firmware", "firmware")
	require.NoError(t, err)
	assert.Equal(t, []string{"linux-custom", "firmware"}, changed)
	assert.Equal(t, []string{"linux-custom", "firmware"}, cfg.AsInstalled.Packages)
	assert.Equal(t, map[string]string{"linux-custom": "6.1-1"}, cfg.AsInstalled.Versions)
	require.NoError(t, cfg.Validate("test"))

	changed, err = cfg.AddAsInstalled("linux-custom=")
	require.NoError(t, err)
	assert.Equal(t, []string{"linux-custom"}, changed)
	assert.Empty(t, cfg.AsInstalled.Versions)

	_, err = cfg.AddAsInstalled("=1.0")
	assert.Error(t, err)

	cfg.AsInstalled.Versions = map[string]string{"firmware": "1"}
	removed := cfg.RemoveAsInstalled("firmware", "absent")
	assert.Equal(t, []string{"firmware"}, removed)
	assert.Equal(t, []string{"linux-custom"}, cfg.AsInstalled.Packages)
	assert.Nil(t, cfg.AsInstalled.Versions)
}

func TestDiff(t *testing.T) {
	diff, truncated := Diff("config.toml", []byte("a = 1\n"), []byte("a = 2\n"), 0)
	assert.False(t, truncated)
	assert.Contains(t, diff, "-a = 1")
	assert.Contains(t, diff, "+a = 2")

	same, _ := Diff("config.toml", []byte("a = 1\n"), []byte("a = 1\n"), 0)
	assert.Empty(t, same)

	var before, after strings.Builder
	for i := 0; i < 50; i++ {
		before.WriteString("x\n")
		after.WriteString("y\n")
	}
	long, truncated := Diff("config.toml", []byte(before.String()), []byte(after.String()), 10)
	assert.True(t, truncated)
	assert.Len(t, strings.Split(strings.TrimRight(long, "\n"), "\n"), 11)
}

func TestPreview(t *testing.T) {
	cfg := Default()
	current, err := Marshal(&cfg)
	require.NoError(t, err)
	require.NoError(t, Set(&cfg, "retention.older_versions", "4"))

	diff, _, err := Preview("config.toml", current, &cfg, 0)
	require.NoError(t, err)
	assert.Contains(t, diff, "+older_versions = 4")
}

func TestDefaultPath(t *testing.T) {
	origEnv, origHome := getenvFn, homeDirFn
	t.Cleanup(func() { getenvFn, homeDirFn = origEnv, origHome })

	getenvFn = func(string) string { return "/xdg" }
	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/xdg/pkgtrim/config.toml", path)

	getenvFn = func(string) string { return "" }
	homeDirFn = func() (string, error) { return "/home/u", nil }
	path, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/home/u/.config/pkgtrim/config.toml", path)

	homeDirFn = func() (string, error) { return "", errors.New("no home") }
	_, err = DefaultPath()
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	p, err := ExpandPath("/etc/pacman.conf")
	require.NoError(t, err)
	assert.Equal(t, "/etc/pacman.conf", p)

	p, err = ExpandPath("")
	require.NoError(t, err)
	assert.Empty(t, p)
}
