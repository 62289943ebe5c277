package helper

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/removal"
)

// busConn is the part of *dbus.Conn used by Client.
type busConn interface {
	Object(dest string, path dbus.ObjectPath) dbus.BusObject
	AddMatchSignal(options ...dbus.MatchOption) error
	RemoveMatchSignal(options ...dbus.MatchOption) error
	Signal(ch chan<- *dbus.Signal)
	RemoveSignal(ch chan<- *dbus.Signal)
	Close() error
}

var connectSystemBusFn = func() (busConn, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Client submits removal requests to the helper over the system bus.
type Client struct {
	conn busConn
}

// Connect opens a private system bus connection for a Client.
func Connect() (*Client, error) {
	conn, err := connectSystemBusFn()
	if err != nil {
		return nil, fmt.Errorf(messages.HelperConnectFmt, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the bus connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Available reports whether the helper is running or can be bus-activated.
func (c *Client) Available(ctx context.Context) (bool, error) {
	bus := c.conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
	var owned bool
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned); err != nil {
		return false, fmt.Errorf(messages.HelperCallFmt, "NameHasOwner", err)
	}
	if owned {
		return true, nil
	}
	var activatable []string
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.ListActivatableNames", 0).Store(&activatable); err != nil {
		return false, fmt.Errorf(messages.HelperCallFmt, "ListActivatableNames", err)
	}
	for _, name := range activatable {
		if name == BusName {
			return true, nil
		}
	}
	return false, nil
}

// owner activates the helper if needed and returns the unique name that
// currently owns BusName.
func (c *Client) owner(ctx context.Context) (string, error) {
	bus := c.conn.Object("org.freedesktop.DBus", "/org/freedesktop/DBus")
	var started uint32
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.StartServiceByName", 0, BusName, uint32(0)).Store(&started); err != nil {
		return "", fmt.Errorf(messages.HelperCallFmt, "StartServiceByName", err)
	}
	var owner string
	if err := bus.CallWithContext(ctx, "org.freedesktop.DBus.GetNameOwner", 0, BusName).Store(&owner); err != nil {
		return "", fmt.Errorf(messages.HelperCallFmt, "GetNameOwner", err)
	}
	return owner, nil
}

// Start implements removal.Transport. Signals are subscribed before the
// method call so no event of the request is missed, and only signals sent
// by the helper instance that serves the call are reported.
func (c *Client) Start(ctx context.Context, req removal.Request) (*removal.Stream, error) {
	owner, err := c.owner(ctx)
	if err != nil {
		return nil, err
	}
	match := []dbus.MatchOption{
		dbus.WithMatchSender(owner),
		dbus.WithMatchObjectPath(ObjectPath),
		dbus.WithMatchInterface(Interface),
	}
	if err := c.conn.AddMatchSignal(match...); err != nil {
		return nil, fmt.Errorf(messages.HelperCallFmt, "AddMatch", err)
	}
	signals := make(chan *dbus.Signal, len(req.Paths)+1)
	c.conn.Signal(signals)

	calls := make(chan *dbus.Call, 1)
	obj := c.conn.Object(owner, ObjectPath)
	// Polkit may prompt for credentials, so the call carries no timeout of its own.
	obj.GoWithContext(ctx, MethodRemovePackages, 0, calls, req.Paths)

	stream, w := removal.NewStream(len(req.Paths))
	go func() {
		defer func() {
			c.conn.RemoveSignal(signals)
			_ = c.conn.RemoveMatchSignal(match...)
		}()
		pump(ctx, owner, len(req.Paths), signals, calls, w)
	}()
	return stream, nil
}

// pump forwards decoded signals to w until every processed path has been
// reported, then publishes the outcome carried by the method reply. Signals
// not sent by owner are ignored.
func pump(ctx context.Context, owner string, limit int, signals <-chan *dbus.Signal, calls <-chan *dbus.Call, w *removal.StreamWriter) {
	delivered := 0
	expected := -1
	for expected < 0 || delivered < expected {
		select {
		case sig := <-signals:
			if sig == nil || sig.Sender != owner {
				continue
			}
			ev, ok := eventFromSignal(sig)
			if !ok || delivered >= limit {
				continue
			}
			w.Emit(ev)
			delivered++
		case call := <-calls:
			calls = nil
			if call.Err != nil {
				w.Finish(removal.Outcome{Processed: delivered, Err: fromDBusError(call.Err)})
				return
			}
			var processed int32
			if err := call.Store(&processed); err != nil || int(processed) > limit || processed < 0 {
				w.Finish(removal.Outcome{Processed: delivered, Err: errors.New(messages.HelperUnexpectedReply)})
				return
			}
			expected = int(processed)
		case <-ctx.Done():
			err := ctx.Err()
			if expected >= 0 {
				err = fmt.Errorf("%s: %w", messages.HelperStreamIncomplete, err)
			}
			w.Finish(removal.Outcome{Processed: delivered, Err: err})
			return
		}
	}
	w.Finish(removal.Outcome{Processed: expected})
}
