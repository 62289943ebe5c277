package terminal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/creack/pty"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminal_PTY(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = tty.Close()
		_ = ptmx.Close()
	})
	require.NoError(t, pty.Setsize(tty, &pty.Winsize{Rows: 40, Cols: 132}))

	assert.True(t, IsTerminal(tty))
	assert.Equal(t, 132, Width(tty, 80))
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	assert.False(t, IsTerminal(f))
	assert.False(t, IsTerminal(nil))
	assert.Equal(t, 80, Width(f, 80))
}

func TestWidth_SizeError(t *testing.T) {
	origTerm, origSize := isTerminalFn, getSizeFn
	t.Cleanup(func() { isTerminalFn, getSizeFn = origTerm, origSize })
	isTerminalFn = func(int) bool { return true }
	getSizeFn = func(int) (int, int, error) { return 0, 0, os.ErrInvalid }

	assert.Equal(t, 100, Width(os.Stdout, 100))
}

func TestIsInteractive(t *testing.T) {
	orig := isTerminalFn
	t.Cleanup(func() { isTerminalFn = orig })

	isTerminalFn = func(int) bool { return true }
	assert.True(t, IsInteractive())
	isTerminalFn = func(int) bool { return false }
	assert.False(t, IsInteractive())
}
