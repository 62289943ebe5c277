package helper

import (
	"context"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// DefaultIdleTimeout is how long the helper waits for a request before exiting.
const DefaultIdleTimeout = 30 * time.Second

// ServeOptions controls the helper lifecycle.
type ServeOptions struct {
	// IdleTimeout ends the helper when no request arrives in time; zero means DefaultIdleTimeout.
	IdleTimeout time.Duration
	// Persist keeps serving sequential requests instead of exiting after the first.
	Persist bool
}

// replyGrace lets the bus deliver the last method reply before the helper exits.
var replyGrace = 250 * time.Millisecond

// BusOwner is the part of *dbus.Conn used to publish the server.
type BusOwner interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
	ReleaseName(name string) (dbus.ReleaseNameReply, error)
}

// Serve exports srv on conn, claims BusName and serves until ctx ends, the
// idle timeout elapses, or, unless opts.Persist is set, one session is done.
// Running calls always finish before the name is released.
func Serve(ctx context.Context, conn BusOwner, srv *Server, opts ServeOptions) error {
	if err := conn.Export(srv, ObjectPath, Interface); err != nil {
		return fmt.Errorf(messages.HelperExportFmt, ObjectPath, err)
	}
	if err := conn.Export(introspect.NewIntrospectable(introspection), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf(messages.HelperExportFmt, ObjectPath, err)
	}
	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf(messages.HelperRequestNameFmt, BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf(messages.HelperNameTakenFmt, BusName)
	}
	defer func() { _, _ = conn.ReleaseName(BusName) }()

	wait(ctx, srv, opts)
	srv.drain()
	if _, served := srv.state(); served > 0 {
		time.Sleep(replyGrace)
	}
	return nil
}

// wait blocks until the helper should stop accepting work. The idle timer
// is paused while a call is running.
func wait(ctx context.Context, srv *Server, opts ServeOptions) {
	idle := opts.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	timer := time.NewTimer(idle)
	defer timer.Stop()

	_, seen := srv.state()
	if seen > 0 && !opts.Persist {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if active, _ := srv.state(); active == 0 {
				return
			}
		case <-srv.changed:
			active, served := srv.state()
			if active > 0 {
				timer.Stop()
				continue
			}
			if served > seen {
				if !opts.Persist {
					return
				}
				seen = served
			}
			timer.Reset(idle)
		}
	}
}
