package helper

import (
	"context"

	"github.com/godbus/dbus/v5"

	"github.com/conn-castle/pkgtrim/internal/removal"
)

const (
	polkitBusName   = "org.freedesktop.PolicyKit1"
	polkitPath      = dbus.ObjectPath("/org/freedesktop/PolicyKit1/Authority")
	polkitCheckAuth = "org.freedesktop.PolicyKit1.Authority.CheckAuthorization"

	// polkitAllowUserInteraction lets polkit prompt the caller for credentials.
	polkitAllowUserInteraction uint32 = 1
)

// PolkitSubject is the (sa{sv}) subject of a CheckAuthorization call.
type PolkitSubject struct {
	Kind    string
	Details map[string]dbus.Variant
}

// PolkitResult is the (bba{ss}) result of a CheckAuthorization call.
type PolkitResult struct {
	IsAuthorized bool
	IsChallenge  bool
	Details      map[string]string
}

// CheckFunc performs one CheckAuthorization call.
type CheckFunc func(ctx context.Context, subject PolkitSubject, action string) (PolkitResult, error)

// PolkitAuthorizer authorizes bus callers through polkit.
type PolkitAuthorizer struct {
	Check CheckFunc
}

// NewPolkitAuthorizer returns an authorizer asking the polkit authority on conn.
func NewPolkitAuthorizer(conn *dbus.Conn) *PolkitAuthorizer {
	authority := conn.Object(polkitBusName, polkitPath)
	return &PolkitAuthorizer{
		Check: func(ctx context.Context, subject PolkitSubject, action string) (PolkitResult, error) {
			var result PolkitResult
			err := authority.CallWithContext(ctx, polkitCheckAuth, 0,
				subject, action, map[string]string{}, polkitAllowUserInteraction, "").Store(&result)
			return result, err
		},
	}
}

// Authorize implements removal.Authorizer. The caller ID is the unique bus
// name of the requesting connection.
func (a *PolkitAuthorizer) Authorize(ctx context.Context, caller removal.Caller, action string) (bool, error) {
	subject := PolkitSubject{
		Kind:    "system-bus-name",
		Details: map[string]dbus.Variant{"name": dbus.MakeVariant(caller.ID)},
	}
	result, err := a.Check(ctx, subject, action)
	if err != nil {
		return false, err
	}
	return result.IsAuthorized, nil
}
