// Package removal implements the authorization-gated removal protocol: a
// single authorization check followed by a per-path deletion loop that
// streams one event per attempted path.
package removal

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// ActionRemove is the authorization action checked before any removal.
const ActionRemove = "org.conncastle.pkgtrim.remove"

// ErrSessionBusy is returned when a removal session is already in flight.
var ErrSessionBusy = errors.New(messages.RemovalSessionBusy)

// Request is the ordered list of artifact paths to remove.
type Request struct {
	Paths []string
}

// EventKind tags an Event.
type EventKind string

// Event kinds.
const (
	Succeeded EventKind = "succeeded"
	Failed    EventKind = "failed"
)

// Event is the outcome of one attempted path.
type Event struct {
	Kind EventKind `json:"kind"`
	Path string    `json:"path"`
	// Message holds the OS error text for failed attempts.
	Message string `json:"message,omitempty"`
}

// Caller identifies who issued a request, e.g. a D-Bus unique bus name.
type Caller struct {
	ID string
}

// Authorizer decides whether caller may perform action.
// A non-nil error means the check itself could not be completed.
type Authorizer interface {
	Authorize(ctx context.Context, caller Caller, action string) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, caller Caller, action string) (bool, error)

// Authorize implements Authorizer.
func (f AuthorizerFunc) Authorize(ctx context.Context, caller Caller, action string) (bool, error) {
	return f(ctx, caller, action)
}

// AuthorizationError reports that nothing was removed because the caller was
// denied (Denied) or the authorization check failed (Err).
type AuthorizationError struct {
	Denied bool
	Err    error
}

func (e *AuthorizationError) Error() string {
	if e.Denied {
		return messages.RemovalAuthDenied
	}
	return fmt.Sprintf(messages.RemovalAuthFailedFmt, e.Err)
}

func (e *AuthorizationError) Unwrap() error {
	return e.Err
}

// IsAuthorizationError reports whether err carries an AuthorizationError.
func IsAuthorizationError(err error) bool {
	var authErr *AuthorizationError
	return errors.As(err, &authErr)
}

// errorMessage renders a removal failure the way the OS reports it.
func errorMessage(err error) string {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}
