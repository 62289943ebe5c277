package helper

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/conn-castle/pkgtrim/internal/removal"
)

// Emitter sends bus messages. *dbus.Conn satisfies it.
type Emitter interface {
	Send(msg *dbus.Message, ch chan *dbus.Call) *dbus.Call
}

// Server is the object exported at ObjectPath.
type Server struct {
	executor *removal.Executor
	emitter  Emitter
	logger   *slog.Logger

	mu      sync.Mutex
	active  int
	served  int
	changed chan struct{}
}

// NewServer returns a Server running requests on executor and reporting
// per-path outcomes through emitter.
func NewServer(executor *removal.Executor, emitter Emitter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		executor: executor,
		emitter:  emitter,
		logger:   logger,
		changed:  make(chan struct{}, 1),
	}
}

// RemovePackages authorizes sender and removes paths in order, sending
// RemoveSuccess or RemoveFailure per path to sender only. It returns the
// number of attempted paths.
func (s *Server) RemovePackages(sender dbus.Sender, paths []string) (int32, *dbus.Error) {
	s.begin()
	counted := true
	defer func() { s.end(counted) }()

	log := s.logger.With("caller", string(sender))
	log.Info("removal requested", "paths", len(paths))

	processed, err := s.executor.Run(context.Background(), removal.Caller{ID: string(sender)}, removal.Request{Paths: paths}, func(ev removal.Event) {
		s.emit(log, string(sender), ev)
	})
	if err != nil {
		// Busy refusals are not sessions.
		counted = !errors.Is(err, removal.ErrSessionBusy)
		log.Warn("removal refused", "err", err)
		return 0, toDBusError(err)
	}
	log.Info("removal finished", "processed", processed)
	return int32(processed), nil
}

func (s *Server) emit(log *slog.Logger, dest string, ev removal.Event) {
	var err error
	switch ev.Kind {
	case removal.Succeeded:
		log.Debug("removed", "path", ev.Path)
		err = s.signal(dest, memberRemoveSuccess, ev.Path)
	default:
		log.Warn("remove failed", "path", ev.Path, "err", ev.Message)
		err = s.signal(dest, memberRemoveFailure, ev.Path, ev.Message)
	}
	if err != nil {
		log.Error("emit signal", "path", ev.Path, "err", err)
	}
}

// signal sends member as a unicast signal addressed to dest.
func (s *Server) signal(dest, member string, values ...interface{}) error {
	msg := &dbus.Message{
		Type: dbus.TypeSignal,
		Headers: map[dbus.HeaderField]dbus.Variant{
			dbus.FieldPath:        dbus.MakeVariant(ObjectPath),
			dbus.FieldInterface:   dbus.MakeVariant(Interface),
			dbus.FieldMember:      dbus.MakeVariant(member),
			dbus.FieldDestination: dbus.MakeVariant(dest),
			dbus.FieldSignature:   dbus.MakeVariant(dbus.SignatureOf(values...)),
		},
		Body: values,
	}
	return s.emitter.Send(msg, nil).Err
}

func (s *Server) begin() {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()
	s.notify()
}

func (s *Server) end(counted bool) {
	s.mu.Lock()
	s.active--
	if counted {
		s.served++
	}
	s.mu.Unlock()
	s.notify()
}

// state returns the number of running calls and of completed sessions.
func (s *Server) state() (active, served int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.served
}

func (s *Server) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// drain blocks until no call is running.
func (s *Server) drain() {
	for {
		if active, _ := s.state(); active == 0 {
			return
		}
		<-s.changed
	}
}

// introspection describes the exported interface.
var introspection = &introspect.Node{
	Name: string(ObjectPath),
	Interfaces: []introspect.Interface{
		introspect.IntrospectData,
		{
			Name: Interface,
			Methods: []introspect.Method{{
				Name: "RemovePackages",
				Args: []introspect.Arg{
					{Name: "paths", Type: "as", Direction: "in"},
					{Name: "processed", Type: "i", Direction: "out"},
				},
			}},
			Signals: []introspect.Signal{
				{Name: "RemoveSuccess", Args: []introspect.Arg{{Name: "path", Type: "s"}}},
				{Name: "RemoveFailure", Args: []introspect.Arg{{Name: "path", Type: "s"}, {Name: "error", Type: "s"}}},
			},
		},
	},
}
