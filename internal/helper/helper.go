// Package helper exposes the removal executor on the D-Bus system bus and
// provides the matching client transport.
package helper

import (
	"errors"

	"github.com/godbus/dbus/v5"

	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/removal"
)

// Bus names of the removal helper.
const (
	BusName    = "org.conncastle.PkgTrim"
	ObjectPath = dbus.ObjectPath("/org/conncastle/PkgTrim/Trimmer")
	Interface  = "org.conncastle.PkgTrim.Trimmer"

	MethodRemovePackages = Interface + ".RemovePackages"
	SignalRemoveSuccess  = Interface + "." + memberRemoveSuccess
	SignalRemoveFailure  = Interface + "." + memberRemoveFailure

	ErrorAuth   = "org.conncastle.PkgTrim.AuthError"
	ErrorBusy   = "org.conncastle.PkgTrim.Busy"
	ErrorFailed = "org.conncastle.PkgTrim.Failed"
)

const (
	memberRemoveSuccess = "RemoveSuccess"
	memberRemoveFailure = "RemoveFailure"
)

// toDBusError maps an executor error to the error reply sent to the caller.
func toDBusError(err error) *dbus.Error {
	var authErr *removal.AuthorizationError
	switch {
	case errors.As(err, &authErr):
		return dbus.NewError(ErrorAuth, []interface{}{authErr.Error()})
	case errors.Is(err, removal.ErrSessionBusy):
		return dbus.NewError(ErrorBusy, []interface{}{err.Error()})
	default:
		return dbus.NewError(ErrorFailed, []interface{}{err.Error()})
	}
}

// fromDBusError maps an error reply back to the removal error it encodes.
func fromDBusError(err error) error {
	var name, text string
	var value dbus.Error
	var ptr *dbus.Error
	switch {
	case errors.As(err, &ptr):
		name, text = ptr.Name, ptr.Error()
	case errors.As(err, &value):
		name, text = value.Name, value.Error()
	default:
		return err
	}
	switch name {
	case ErrorAuth:
		if text == messages.RemovalAuthDenied {
			return &removal.AuthorizationError{Denied: true}
		}
		return &removal.AuthorizationError{Err: errors.New(text)}
	case ErrorBusy:
		return removal.ErrSessionBusy
	default:
		return err
	}
}

// eventFromSignal decodes a RemoveSuccess or RemoveFailure signal.
func eventFromSignal(sig *dbus.Signal) (removal.Event, bool) {
	if sig == nil || sig.Path != ObjectPath {
		return removal.Event{}, false
	}
	switch sig.Name {
	case SignalRemoveSuccess:
		if len(sig.Body) < 1 {
			return removal.Event{}, false
		}
		path, ok := sig.Body[0].(string)
		return removal.Event{Kind: removal.Succeeded, Path: path}, ok
	case SignalRemoveFailure:
		if len(sig.Body) < 2 {
			return removal.Event{}, false
		}
		path, ok := sig.Body[0].(string)
		msg, msgOK := sig.Body[1].(string)
		return removal.Event{Kind: removal.Failed, Path: path, Message: msg}, ok && msgOK
	default:
		return removal.Event{}, false
	}
}
