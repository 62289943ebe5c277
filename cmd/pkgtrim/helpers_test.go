package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conn-castle/pkgtrim/internal/testutil"
)

// testSystem is a fake pacman installation plus a pkgtrim config pointing at it.
type testSystem struct {
	configPath string
	pacmanConf string
	cache      string
	// paths maps "name-version" to the cached archive path.
	paths map[string]string
}

// newTestSystem installs foo 2.0-1 and caches four foo versions plus one
// package that is not installed. With the default policy foo-1.0-1 and
// orphan-1.0-1 are marked for removal.
func newTestSystem(t *testing.T) testSystem {
	t.Helper()
	root := t.TempDir()
	dbPath := filepath.Join(root, "db")
	cache := filepath.Join(root, "cache")
	if err := os.MkdirAll(cache, 0o755); err != nil {
		t.Fatalf("mkdir cache: %v", err)
	}
	testutil.WriteLocalDB(t, dbPath, map[string]string{"foo": "2.0-1"})

	sys := testSystem{cache: cache, paths: map[string]string{}}
	for _, v := range []string{"1.0-1", "1.5-1", "2.0-1", "2.1-1"} {
		sys.paths["foo-"+v] = testutil.WritePackage(t, cache, testutil.Package{Name: "foo", Version: v, Payload: []byte("payload")})
	}
	sys.paths["orphan-1.0-1"] = testutil.WritePackage(t, cache, testutil.Package{Name: "orphan", Version: "1.0-1"})

	sys.pacmanConf = testutil.WriteFile(t, root, "pacman.conf", "[options]\nDBPath = "+dbPath+"\nCacheDir = "+cache+"\n")
	sys.configPath = testutil.WriteFile(t, root, "pkgtrim/config.toml", "pacman_conf = \""+sys.pacmanConf+"\"\n")
	return sys
}

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, "", args...)
}

func runCLIWithInput(t *testing.T, input string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return false
}

func writeConfig(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
