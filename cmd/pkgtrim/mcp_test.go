package main

import (
	"context"
	"errors"
	"testing"

	"github.com/conn-castle/pkgtrim/internal/mcp"
)

func TestMcpCommandServesFreshSnapshots(t *testing.T) {
	sys := newTestSystem(t)
	orig := runReportServerFunc
	t.Cleanup(func() { runReportServerFunc = orig })

	var gotVersion string
	runReportServerFunc = func(ctx context.Context, version string, load mcp.Loader) error {
		gotVersion = version
		snap, err := load(ctx)
		if err != nil {
			return err
		}
		if snap.Inventory.Len() != 5 {
			t.Fatalf("expected 5 artifacts, got %d", snap.Inventory.Len())
		}
		writeConfig(t, sys.configPath, "pacman_conf = \""+sys.pacmanConf+"\"\n[retention]\nolder_versions = 0\n")
		snap, err = load(ctx)
		if err != nil {
			return err
		}
		if snap.Inventory.Totals().MarkedCount != 3 {
			t.Fatalf("expected reloaded config to mark 3, got %d", snap.Inventory.Totals().MarkedCount)
		}
		return nil
	}

	if _, _, err := runCLI(t, "--config", sys.configPath, "mcp"); err != nil {
		t.Fatalf("mcp error: %v", err)
	}
	if gotVersion != versionString() {
		t.Fatalf("unexpected version %q", gotVersion)
	}
}

func TestMcpCommandPropagatesErrors(t *testing.T) {
	orig := runReportServerFunc
	t.Cleanup(func() { runReportServerFunc = orig })
	runReportServerFunc = func(context.Context, string, mcp.Loader) error { return errors.New("stdio closed") }

	if _, _, err := runCLI(t, "mcp"); err == nil || err.Error() != "stdio closed" {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestReportLoaderConfigError(t *testing.T) {
	sys := newTestSystem(t)
	writeConfig(t, sys.configPath, "version_scheme = \"calver\"\n")
	opts := &rootOptions{configPath: sys.configPath}
	if _, err := reportLoader(opts)(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}
