package helper

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/pkgtrim/internal/messages"
	"github.com/conn-castle/pkgtrim/internal/removal"
)

type emitted struct {
	name   string
	dest   string
	values []interface{}
}

type fakeEmitter struct {
	mu      sync.Mutex
	signals []emitted
}

func (f *fakeEmitter) Send(msg *dbus.Message, _ chan *dbus.Call) *dbus.Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	if msg.Type != dbus.TypeSignal || msg.Headers[dbus.FieldPath].Value() != ObjectPath {
		return &dbus.Call{Err: errors.New("not a signal on the trimmer path")}
	}
	iface, _ := msg.Headers[dbus.FieldInterface].Value().(string)
	member, _ := msg.Headers[dbus.FieldMember].Value().(string)
	dest, _ := msg.Headers[dbus.FieldDestination].Value().(string)
	f.signals = append(f.signals, emitted{name: iface + "." + member, dest: dest, values: msg.Body})
	return &dbus.Call{}
}

func allow(context.Context, removal.Caller, string) (bool, error) { return true, nil }

func TestServer_RemovePackagesEmitsPerPath(t *testing.T) {
	var gotCaller removal.Caller
	exec := &removal.Executor{
		Authorizer: removal.AuthorizerFunc(func(_ context.Context, c removal.Caller, action string) (bool, error) {
			gotCaller = c
			assert.Equal(t, removal.ActionRemove, action)
			return true, nil
		}),
		Remove: func(path string) error {
			if path == "/c/b.pkg.tar.zst" {
				return &removeErr{syscall.EACCES}
			}
			return nil
		},
	}
	em := &fakeEmitter{}
	srv := NewServer(exec, em, nil)

	n, dbusErr := srv.RemovePackages(dbus.Sender(":1.42"), []string{"/c/a.pkg.tar.zst", "/c/b.pkg.tar.zst"})
	require.Nil(t, dbusErr)
	assert.Equal(t, int32(2), n)
	assert.Equal(t, ":1.42", gotCaller.ID)

	require.Len(t, em.signals, 2)
	assert.Equal(t, SignalRemoveSuccess, em.signals[0].name)
	assert.Equal(t, []interface{}{"/c/a.pkg.tar.zst"}, em.signals[0].values)
	assert.Equal(t, SignalRemoveFailure, em.signals[1].name)
	assert.Equal(t, []interface{}{"/c/b.pkg.tar.zst", "permission denied"}, em.signals[1].values)
	for _, sig := range em.signals {
		assert.Equal(t, ":1.42", sig.dest)
	}

	active, served := srv.state()
	assert.Zero(t, active)
	assert.Equal(t, 1, served)
}

func TestServer_BusyRefusalIsNotASession(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	exec := &removal.Executor{
		Authorizer: removal.AuthorizerFunc(func(context.Context, removal.Caller, string) (bool, error) {
			close(entered)
			<-release
			return true, nil
		}),
		Remove: func(string) error { return nil },
	}
	em := &fakeEmitter{}
	srv := NewServer(exec, em, nil)

	first := make(chan *dbus.Error, 1)
	go func() {
		_, dbusErr := srv.RemovePackages(dbus.Sender(":1.1"), []string{"/c/a.pkg.tar.zst"})
		first <- dbusErr
	}()
	<-entered

	_, dbusErr := srv.RemovePackages(dbus.Sender(":1.2"), []string{"/c/b.pkg.tar.zst"})
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrorBusy, dbusErr.Name)
	active, served := srv.state()
	assert.Equal(t, 1, active)
	assert.Zero(t, served)

	close(release)
	require.Nil(t, <-first)
	active, served = srv.state()
	assert.Zero(t, active)
	assert.Equal(t, 1, served)

	em.mu.Lock()
	defer em.mu.Unlock()
	require.Len(t, em.signals, 1)
	assert.Equal(t, ":1.1", em.signals[0].dest)
}

type removeErr struct{ errno syscall.Errno }

func (e *removeErr) Error() string { return "unlink: " + e.errno.Error() }
func (e *removeErr) Unwrap() error { return e.errno }

func TestServer_DeniedReturnsAuthError(t *testing.T) {
	removed := false
	exec := &removal.Executor{
		Authorizer: removal.AuthorizerFunc(func(context.Context, removal.Caller, string) (bool, error) { return false, nil }),
		Remove:     func(string) error { removed = true; return nil },
	}
	em := &fakeEmitter{}
	srv := NewServer(exec, em, nil)

	n, dbusErr := srv.RemovePackages(dbus.Sender(":1.9"), []string{"/c/a.pkg.tar.zst"})
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrorAuth, dbusErr.Name)
	assert.Zero(t, n)
	assert.False(t, removed)
	assert.Empty(t, em.signals)

	var authErr *removal.AuthorizationError
	require.ErrorAs(t, fromDBusError(dbusErr), &authErr)
	assert.True(t, authErr.Denied)
}

func TestErrorMapping(t *testing.T) {
	busy := toDBusError(removal.ErrSessionBusy)
	assert.Equal(t, ErrorBusy, busy.Name)
	assert.ErrorIs(t, fromDBusError(*busy), removal.ErrSessionBusy)

	failed := toDBusError(&removal.AuthorizationError{Err: errors.New("polkit unreachable")})
	assert.Equal(t, ErrorAuth, failed.Name)
	var authErr *removal.AuthorizationError
	require.ErrorAs(t, fromDBusError(failed), &authErr)
	assert.False(t, authErr.Denied)
	assert.Contains(t, authErr.Error(), "polkit unreachable")

	other := toDBusError(errors.New("boom"))
	assert.Equal(t, ErrorFailed, other.Name)
	assert.Equal(t, other, fromDBusError(other))

	plain := errors.New("plain")
	assert.Equal(t, plain, fromDBusError(plain))
}

func TestEventFromSignal(t *testing.T) {
	ev, ok := eventFromSignal(&dbus.Signal{Path: ObjectPath, Name: SignalRemoveFailure, Body: []interface{}{"/p", "no such file or directory"}})
	require.True(t, ok)
	assert.Equal(t, removal.Event{Kind: removal.Failed, Path: "/p", Message: "no such file or directory"}, ev)

	_, ok = eventFromSignal(&dbus.Signal{Path: "/elsewhere", Name: SignalRemoveSuccess, Body: []interface{}{"/p"}})
	assert.False(t, ok)
	_, ok = eventFromSignal(&dbus.Signal{Path: ObjectPath, Name: SignalRemoveSuccess})
	assert.False(t, ok)
	_, ok = eventFromSignal(&dbus.Signal{Path: ObjectPath, Name: Interface + ".Other", Body: []interface{}{"/p"}})
	assert.False(t, ok)
	_, ok = eventFromSignal(nil)
	assert.False(t, ok)
}

func TestPolkitAuthorizer(t *testing.T) {
	var gotSubject PolkitSubject
	var gotAction string
	auth := &PolkitAuthorizer{Check: func(_ context.Context, subject PolkitSubject, action string) (PolkitResult, error) {
		gotSubject, gotAction = subject, action
		return PolkitResult{IsAuthorized: true}, nil
	}}

	ok, err := auth.Authorize(context.Background(), removal.Caller{ID: ":1.77"}, removal.ActionRemove)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "system-bus-name", gotSubject.Kind)
	assert.Equal(t, ":1.77", gotSubject.Details["name"].Value())
	assert.Equal(t, removal.ActionRemove, gotAction)

	auth.Check = func(context.Context, PolkitSubject, string) (PolkitResult, error) {
		return PolkitResult{IsChallenge: true}, nil
	}
	ok, err = auth.Authorize(context.Background(), removal.Caller{ID: ":1.77"}, removal.ActionRemove)
	require.NoError(t, err)
	assert.False(t, ok)

	auth.Check = func(context.Context, PolkitSubject, string) (PolkitResult, error) {
		return PolkitResult{}, errors.New("no authority")
	}
	_, err = auth.Authorize(context.Background(), removal.Caller{ID: ":1.77"}, removal.ActionRemove)
	assert.EqualError(t, err, "no authority")
}

func TestWait(t *testing.T) {
	srv := NewServer(removal.NewExecutor(removal.AuthorizerFunc(allow)), &fakeEmitter{}, nil)

	srv.begin()
	srv.end(true)
	returned := make(chan struct{})
	go func() {
		wait(context.Background(), srv, ServeOptions{IdleTimeout: time.Minute})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("one-shot wait did not return after a session")
	}

	srv.begin()
	srv.end(true)
	start := time.Now()
	wait(context.Background(), srv, ServeOptions{IdleTimeout: 20 * time.Millisecond, Persist: true})
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	wait(ctx, srv, ServeOptions{})
}

func TestWait_IdleTimerPausedWhileActive(t *testing.T) {
	srv := NewServer(removal.NewExecutor(removal.AuthorizerFunc(allow)), &fakeEmitter{}, nil)
	srv.begin()

	returned := make(chan struct{})
	go func() {
		wait(context.Background(), srv, ServeOptions{IdleTimeout: 20 * time.Millisecond, Persist: true})
		close(returned)
	}()
	select {
	case <-returned:
		t.Fatal("wait returned while a call was running")
	case <-time.After(150 * time.Millisecond):
	}

	srv.end(false)
	select {
	case <-returned:
	case <-time.After(5 * time.Second):
		t.Fatal("idle timer did not restart after the call ended")
	}
}

type fakeOwner struct {
	exported []string
	reply    dbus.RequestNameReply
	released bool
}

func (f *fakeOwner) Export(_ interface{}, _ dbus.ObjectPath, iface string) error {
	f.exported = append(f.exported, iface)
	return nil
}

func (f *fakeOwner) RequestName(string, dbus.RequestNameFlags) (dbus.RequestNameReply, error) {
	return f.reply, nil
}

func (f *fakeOwner) ReleaseName(string) (dbus.ReleaseNameReply, error) {
	f.released = true
	return dbus.ReleaseNameReplyReleased, nil
}

func TestServe(t *testing.T) {
	orig := replyGrace
	t.Cleanup(func() { replyGrace = orig })
	replyGrace = 0

	srv := NewServer(removal.NewExecutor(removal.AuthorizerFunc(allow)), &fakeEmitter{}, nil)
	srv.begin()
	srv.end(true)

	owner := &fakeOwner{reply: dbus.RequestNameReplyPrimaryOwner}
	require.NoError(t, Serve(context.Background(), owner, srv, ServeOptions{}))
	assert.Equal(t, []string{Interface, "org.freedesktop.DBus.Introspectable"}, owner.exported)
	assert.True(t, owner.released)

	taken := &fakeOwner{reply: dbus.RequestNameReplyExists}
	err := Serve(context.Background(), taken, srv, ServeOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), BusName)
	assert.False(t, taken.released)
}

func TestServe_OutlivesIdleTimeoutWhileRemoving(t *testing.T) {
	orig := replyGrace
	t.Cleanup(func() { replyGrace = orig })
	replyGrace = 0

	var finished atomic.Bool
	exec := &removal.Executor{
		Authorizer: removal.AuthorizerFunc(func(context.Context, removal.Caller, string) (bool, error) {
			time.Sleep(300 * time.Millisecond)
			return true, nil
		}),
		Remove: func(string) error { finished.Store(true); return nil },
	}
	srv := NewServer(exec, &fakeEmitter{}, nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_, _ = srv.RemovePackages(dbus.Sender(":1.5"), []string{"/c/a.pkg.tar.zst"})
	}()

	owner := &fakeOwner{reply: dbus.RequestNameReplyPrimaryOwner}
	require.NoError(t, Serve(context.Background(), owner, srv, ServeOptions{IdleTimeout: 100 * time.Millisecond}))
	assert.True(t, finished.Load(), "name released while a removal was running")
	assert.True(t, owner.released)
}

func TestServe_BusyRefusalKeepsServingActiveSession(t *testing.T) {
	orig := replyGrace
	t.Cleanup(func() { replyGrace = orig })
	replyGrace = 0

	entered := make(chan struct{})
	release := make(chan struct{})
	var finished atomic.Bool
	exec := &removal.Executor{
		Authorizer: removal.AuthorizerFunc(func(context.Context, removal.Caller, string) (bool, error) {
			close(entered)
			<-release
			return true, nil
		}),
		Remove: func(string) error { finished.Store(true); return nil },
	}
	srv := NewServer(exec, &fakeEmitter{}, nil)

	served := make(chan error, 1)
	go func() {
		served <- Serve(context.Background(), &fakeOwner{reply: dbus.RequestNameReplyPrimaryOwner}, srv, ServeOptions{IdleTimeout: time.Minute})
	}()
	go func() {
		_, _ = srv.RemovePackages(dbus.Sender(":1.1"), []string{"/c/a.pkg.tar.zst"})
	}()
	<-entered

	_, dbusErr := srv.RemovePackages(dbus.Sender(":1.2"), []string{"/c/b.pkg.tar.zst"})
	require.NotNil(t, dbusErr)
	assert.Equal(t, ErrorBusy, dbusErr.Name)

	select {
	case <-served:
		t.Fatal("helper stopped after refusing a second caller")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)
	select {
	case err := <-served:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("helper did not stop after the session finished")
	}
	assert.True(t, finished.Load())
}

// fakeObject answers RemovePackages by replaying signals and a reply.
type fakeObject struct {
	dbus.BusObject
	conn    *fakeConn
	signals []*dbus.Signal
	reply   *dbus.Call
	gotArgs []interface{}
	calls   map[string]*dbus.Call
}

func (o *fakeObject) GoWithContext(_ context.Context, method string, _ dbus.Flags, ch chan *dbus.Call, args ...interface{}) *dbus.Call {
	o.gotArgs = args
	sigCh := o.conn.signalCh
	go func() {
		for _, sig := range o.signals {
			sigCh <- sig
		}
		ch <- o.reply
	}()
	return &dbus.Call{Method: method, Done: ch}
}

func (o *fakeObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, _ ...interface{}) *dbus.Call {
	if call, ok := o.calls[method]; ok {
		return call
	}
	return &dbus.Call{Err: errors.New("unexpected method " + method)}
}

type fakeConn struct {
	obj      *fakeObject
	signalCh chan<- *dbus.Signal
	matched  int
	removed  chan struct{}
	dests    []string
}

func (c *fakeConn) Object(dest string, _ dbus.ObjectPath) dbus.BusObject {
	c.dests = append(c.dests, dest)
	return c.obj
}
func (c *fakeConn) AddMatchSignal(...dbus.MatchOption) error      { c.matched++; return nil }
func (c *fakeConn) RemoveMatchSignal(...dbus.MatchOption) error {
	c.matched--
	close(c.removed)
	return nil
}
func (c *fakeConn) Signal(ch chan<- *dbus.Signal)     { c.signalCh = ch }
func (c *fakeConn) RemoveSignal(chan<- *dbus.Signal) {}
func (c *fakeConn) Close() error                     { return nil }

const helperOwner = ":1.99"

func newFakeClient(obj *fakeObject) (*Client, *fakeConn) {
	if obj.calls == nil {
		obj.calls = map[string]*dbus.Call{}
	}
	if _, ok := obj.calls["org.freedesktop.DBus.StartServiceByName"]; !ok {
		obj.calls["org.freedesktop.DBus.StartServiceByName"] = &dbus.Call{Body: []interface{}{uint32(2)}}
	}
	if _, ok := obj.calls["org.freedesktop.DBus.GetNameOwner"]; !ok {
		obj.calls["org.freedesktop.DBus.GetNameOwner"] = &dbus.Call{Body: []interface{}{helperOwner}}
	}
	conn := &fakeConn{obj: obj, removed: make(chan struct{})}
	obj.conn = conn
	return &Client{conn: conn}, conn
}

func collect(t *testing.T, stream *removal.Stream) ([]removal.Event, removal.Outcome) {
	t.Helper()
	var events []removal.Event
	for ev := range stream.Events {
		events = append(events, ev)
	}
	select {
	case out := <-stream.Done:
		return events, out
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not finish")
		return nil, removal.Outcome{}
	}
}

func TestClient_StartStreamsEvents(t *testing.T) {
	obj := &fakeObject{
		signals: []*dbus.Signal{
			{Sender: helperOwner, Path: ObjectPath, Name: SignalRemoveSuccess, Body: []interface{}{"/c/a"}},
			{Sender: helperOwner, Path: "/unrelated", Name: "x.y.Z"},
			{Sender: helperOwner, Path: ObjectPath, Name: SignalRemoveFailure, Body: []interface{}{"/c/b", "permission denied"}},
		},
		reply: &dbus.Call{Body: []interface{}{int32(2)}},
	}
	client, conn := newFakeClient(obj)

	stream, err := client.Start(context.Background(), removal.Request{Paths: []string{"/c/a", "/c/b"}})
	require.NoError(t, err)
	events, out := collect(t, stream)

	require.Len(t, events, 2)
	assert.Equal(t, removal.Event{Kind: removal.Succeeded, Path: "/c/a"}, events[0])
	assert.Equal(t, removal.Event{Kind: removal.Failed, Path: "/c/b", Message: "permission denied"}, events[1])
	assert.Equal(t, removal.Outcome{Processed: 2}, out)
	assert.Equal(t, []interface{}{[]string{"/c/a", "/c/b"}}, obj.gotArgs)
	assert.Contains(t, conn.dests, helperOwner)

	<-conn.removed
	assert.Zero(t, conn.matched)
}

func TestClient_StartIgnoresSignalsFromOtherSenders(t *testing.T) {
	obj := &fakeObject{
		signals: []*dbus.Signal{
			{Sender: ":1.7", Path: ObjectPath, Name: SignalRemoveSuccess, Body: []interface{}{"/var/cache/pacman/pkg/other-1.0-1.pkg.tar.zst"}},
		},
		reply: &dbus.Call{Err: dbus.Error{Name: ErrorBusy, Body: []interface{}{"another removal session is in progress"}}},
	}
	client, _ := newFakeClient(obj)

	stream, err := client.Start(context.Background(), removal.Request{Paths: []string{"/var/cache/pacman/pkg/mine-1.0-1.pkg.tar.zst"}})
	require.NoError(t, err)
	events, out := collect(t, stream)

	assert.Empty(t, events)
	assert.ErrorIs(t, out.Err, removal.ErrSessionBusy)
	assert.Zero(t, out.Processed)
}

func TestClient_StartHelperUnavailable(t *testing.T) {
	obj := &fakeObject{calls: map[string]*dbus.Call{
		"org.freedesktop.DBus.StartServiceByName": {Err: errors.New("service not found")},
	}}
	client, conn := newFakeClient(obj)

	_, err := client.Start(context.Background(), removal.Request{Paths: []string{"/c/a"}})
	assert.ErrorContains(t, err, "service not found")
	assert.Zero(t, conn.matched)
}

func TestClient_StartAuthDenied(t *testing.T) {
	obj := &fakeObject{reply: &dbus.Call{Err: dbus.Error{Name: ErrorAuth, Body: []interface{}{messages.RemovalAuthDenied}}}}
	client, _ := newFakeClient(obj)

	stream, err := client.Start(context.Background(), removal.Request{Paths: []string{"/c/a"}})
	require.NoError(t, err)
	events, out := collect(t, stream)

	assert.Empty(t, events)
	assert.True(t, removal.IsAuthorizationError(out.Err))
}

func TestClient_StartBadReply(t *testing.T) {
	obj := &fakeObject{reply: &dbus.Call{Body: []interface{}{int32(5)}}}
	client, _ := newFakeClient(obj)

	stream, err := client.Start(context.Background(), removal.Request{Paths: []string{"/c/a"}})
	require.NoError(t, err)
	_, out := collect(t, stream)
	assert.EqualError(t, out.Err, messages.HelperUnexpectedReply)
}

func TestPump_ContextCanceledWhileWaitingForSignals(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stream, w := removal.NewStream(2)
	calls := make(chan *dbus.Call, 1)
	calls <- &dbus.Call{Body: []interface{}{int32(2)}}
	signals := make(chan *dbus.Signal, 1)
	signals <- &dbus.Signal{Sender: helperOwner, Path: ObjectPath, Name: SignalRemoveSuccess, Body: []interface{}{"/c/a"}}

	done := make(chan struct{})
	go func() {
		pump(ctx, helperOwner, 2, signals, calls, w)
		close(done)
	}()

	ev := <-stream.Events
	assert.Equal(t, "/c/a", ev.Path)
	cancel()
	<-done

	out := <-stream.Done
	assert.Equal(t, 1, out.Processed)
	assert.ErrorIs(t, out.Err, context.Canceled)
}

func TestClient_Available(t *testing.T) {
	obj := &fakeObject{calls: map[string]*dbus.Call{
		"org.freedesktop.DBus.NameHasOwner":         {Body: []interface{}{false}},
		"org.freedesktop.DBus.ListActivatableNames": {Body: []interface{}{[]string{"org.other", BusName}}},
	}}
	client, _ := newFakeClient(obj)
	ok, err := client.Available(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	obj.calls["org.freedesktop.DBus.ListActivatableNames"] = &dbus.Call{Body: []interface{}{[]string{}}}
	ok, err = client.Available(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	obj.calls["org.freedesktop.DBus.NameHasOwner"] = &dbus.Call{Err: errors.New("bus down")}
	_, err = client.Available(context.Background())
	assert.ErrorContains(t, err, "bus down")
}

func TestConnect(t *testing.T) {
	orig := connectSystemBusFn
	t.Cleanup(func() { connectSystemBusFn = orig })

	connectSystemBusFn = func() (busConn, error) { return nil, errors.New("no bus") }
	_, err := Connect()
	assert.ErrorContains(t, err, "no bus")

	connectSystemBusFn = func() (busConn, error) { return &fakeConn{}, nil }
	client, err := Connect()
	require.NoError(t, err)
	assert.NoError(t, client.Close())
}
