package removal

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Remover deletes exactly one path.
type Remover func(path string) error

// Unlink removes path with unlink(2). Directories are never removed.
func Unlink(path string) error {
	return unix.Unlink(path)
}

// Executor runs removal requests. It serves one request at a time.
type Executor struct {
	Authorizer Authorizer
	// Remove deletes one path; nil means Unlink.
	Remove Remover

	busy atomic.Bool
}

// NewExecutor returns an Executor that authorizes with auth and unlinks files.
func NewExecutor(auth Authorizer) *Executor {
	return &Executor{Authorizer: auth, Remove: Unlink}
}

// Run authorizes caller, then attempts every path of req in order, calling
// emit with each outcome as soon as it is known. It returns the number of
// attempted paths. A failed path never stops the batch.
//
// Authorization failures return *AuthorizationError and emit nothing. ctx is
// only consulted before execution starts: an authorized request always runs
// to completion.
func (e *Executor) Run(ctx context.Context, caller Caller, req Request, emit func(Event)) (int, error) {
	if !e.busy.CompareAndSwap(false, true) {
		return 0, ErrSessionBusy
	}
	defer e.busy.Store(false)

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if e.Authorizer == nil {
		return 0, &AuthorizationError{Err: errors.New(messages.RemovalAuthorizerRequired)}
	}
	allowed, err := e.Authorizer.Authorize(ctx, caller, ActionRemove)
	if err != nil {
		return 0, &AuthorizationError{Err: err}
	}
	if !allowed {
		return 0, &AuthorizationError{Denied: true}
	}

	remove := e.Remove
	if remove == nil {
		remove = Unlink
	}
	if emit == nil {
		emit = func(Event) {}
	}

	processed := 0
	for _, path := range req.Paths {
		if err := remove(path); err != nil {
			emit(Event{Kind: Failed, Path: path, Message: errorMessage(err)})
		} else {
			emit(Event{Kind: Succeeded, Path: path})
		}
		processed++
	}
	return processed, nil
}
