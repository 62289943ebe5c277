package removal

import (
	"context"
	"errors"

	"github.com/conn-castle/pkgtrim/internal/messages"
)

// Outcome is the terminal result of a removal request.
type Outcome struct {
	Processed int
	Err       error
}

// Stream delivers the events of one request followed by its Outcome.
// Events is closed before Outcome becomes available on Done.
type Stream struct {
	Events <-chan Event
	Done   <-chan Outcome
}

// Transport submits a request to an executor, local or remote.
type Transport interface {
	Start(ctx context.Context, req Request) (*Stream, error)
}

// StreamWriter is the producing side of a Stream.
type StreamWriter struct {
	events chan Event
	done   chan Outcome
}

// NewStream returns a stream sized for capacity events and its writer.
func NewStream(capacity int) (*Stream, *StreamWriter) {
	if capacity < 0 {
		capacity = 0
	}
	w := &StreamWriter{
		events: make(chan Event, capacity),
		done:   make(chan Outcome, 1),
	}
	return &Stream{Events: w.events, Done: w.done}, w
}

// Emit publishes one event.
func (w *StreamWriter) Emit(ev Event) {
	w.events <- ev
}

// Finish closes the event channel, then publishes the outcome.
func (w *StreamWriter) Finish(out Outcome) {
	close(w.events)
	w.done <- out
	close(w.done)
}

// LocalTransport runs requests on an in-process Executor.
type LocalTransport struct {
	Executor *Executor
	Caller   Caller
}

// Start implements Transport.
func (t LocalTransport) Start(ctx context.Context, req Request) (*Stream, error) {
	if t.Executor == nil {
		return nil, errors.New(messages.RemovalExecutorRequired)
	}
	stream, w := NewStream(len(req.Paths))
	go func() {
		processed, err := t.Executor.Run(ctx, t.Caller, req, w.Emit)
		w.Finish(Outcome{Processed: processed, Err: err})
	}()
	return stream, nil
}
