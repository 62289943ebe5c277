package removal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Guard refuses a second session while one is unresolved within a process.
type Guard struct {
	mu     sync.Mutex
	active bool
}

// Acquire starts a session or returns ErrSessionBusy.
func (g *Guard) Acquire() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active {
		return nil, ErrSessionBusy
	}
	g.active = true
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.active = false
			g.mu.Unlock()
		})
	}, nil
}

// Active reports whether a session is in flight.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.active
}

var (
	getenvFn       = os.Getenv
	userCacheDirFn = os.UserCacheDir
	geteuidFn      = unix.Geteuid
)

// RootAuthorizer allows any caller when the current process runs as root.
// It serves in-process removals, where no policy daemon is involved.
func RootAuthorizer() Authorizer {
	return AuthorizerFunc(func(context.Context, Caller, string) (bool, error) {
		return geteuidFn() == 0, nil
	})
}

// DefaultLockPath returns $XDG_RUNTIME_DIR/pkgtrim/remove.lock, falling back
// to the user cache directory.
func DefaultLockPath() (string, error) {
	if dir := getenvFn("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "pkgtrim", "remove.lock"), nil
	}
	dir, err := userCacheDirFn()
	if err != nil {
		return "", fmt.Errorf(messages.RemovalResolveLockDirFmt, err)
	}
	return filepath.Join(dir, "pkgtrim", "remove.lock"), nil
}

// SessionLock is a cross-process advisory lock held for one removal session.
type SessionLock struct {
	file *os.File
}

var lockFileFn = lockFile
var unlockFileFn = unlockFile
var flockFn = unix.Flock
var lockSleep = time.Sleep

var (
	lockWaitTimeout = 2 * time.Second
	lockPollEvery   = 100 * time.Millisecond
)

// AcquireSessionLock opens or creates path and takes an exclusive lock on it.
// A lock still held by another process after a short wait yields ErrSessionBusy.
func AcquireSessionLock(path string) (*SessionLock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf(messages.RemovalOpenLockFmt, path, err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf(messages.RemovalOpenLockFmt, path, err)
	}
	if err := lockFileFn(file); err != nil {
		_ = file.Close()
		if errors.Is(err, ErrSessionBusy) {
			return nil, err
		}
		return nil, fmt.Errorf(messages.RemovalLockFmt, path, err)
	}
	return &SessionLock{file: file}, nil
}

// Release unlocks and closes the session lock.
func (l *SessionLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil
	if err := unlockFileFn(file); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

// lockFile acquires an exclusive advisory lock on the file.
func lockFile(file *os.File) error {
	deadline := time.Now().Add(lockWaitTimeout)
	for {
		err := flockFn(int(file.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		if time.Now().After(deadline) {
			return fmt.Errorf(messages.RemovalLockBusyFmt, lockWaitTimeout, ErrSessionBusy)
		}
		lockSleep(lockPollEvery)
	}
}

// unlockFile releases the advisory lock on the file.
func unlockFile(file *os.File) error {
	return flockFn(int(file.Fd()), unix.LOCK_UN)
}
