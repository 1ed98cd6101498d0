package displaywatch

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestObserver(t *testing.T, p *fakeProvider, h *fakeHook) *Observer {
	t.Helper()
	o, err := New(Options{Provider: p, Hook: h})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func onMainThreadForTest(t *testing.T, main bool) *int {
	t.Helper()
	prevMain, prevExit := isMainThread, exit
	t.Cleanup(func() {
		isMainThread, exit = prevMain, prevExit
	})

	code := -1
	isMainThread = func() bool { return main }
	exit = func(c int) { code = c }
	return &code
}

func TestNew_InitialSnapshotFailure(t *testing.T) {
	p := &fakeProvider{}
	p.fail(errProviderDown)
	h := &fakeHook{}

	_, err := New(Options{Provider: p, Hook: h})
	var ierr *InitError
	if !errors.As(err, &ierr) {
		t.Fatalf("New() error = %v, want *InitError", err)
	}
	if ierr.Op != "initial snapshot" {
		t.Fatalf("InitError.Op = %q, want %q", ierr.Op, "initial snapshot")
	}
	if !errors.Is(err, errProviderDown) {
		t.Fatalf("New() error does not wrap the provider error: %v", err)
	}
	if h.installs != 0 {
		t.Fatalf("hook installed after failed snapshot")
	}
}

func TestNew_HookInstallFailure(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	installErr := errors.New("no randr")

	_, err := New(Options{Provider: p, Hook: &fakeHook{installErr: installErr}})
	var ierr *InitError
	if !errors.As(err, &ierr) || ierr.Op != "install hook" {
		t.Fatalf("New() error = %v, want install hook InitError", err)
	}
	if !errors.Is(err, installErr) {
		t.Fatalf("New() error does not wrap the install error: %v", err)
	}
}

func TestNew_DuplicateIDInInitialSnapshot(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100), rec("A", 0, 0, 100, 100))

	_, err := New(Options{Provider: p, Hook: &fakeHook{}})
	if !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("New() error = %v, want ErrDuplicateID", err)
	}
}

func TestObserver_HookInstalledWithoutCallback(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := &fakeHook{}
	o := newTestObserver(t, p, h)

	if h.installs != 1 {
		t.Fatalf("installs = %d, want 1", h.installs)
	}

	p.set(rec("A", 0, 0, 100, 100), rec("B", 100, 0, 100, 100))
	h.fire(Hint{Kind: HintAdded, ID: NewDisplayID("B")})
	if !o.Snapshot().Has(NewDisplayID("B")) {
		t.Fatalf("snapshot not updated without a callback")
	}

	var got []Event
	o.SetCallback(func(ev Event) { got = append(got, ev) })
	h.fire(Hint{Kind: HintReconfigured})
	if len(got) != 0 {
		t.Fatalf("callback received %v for a change that happened before it was set", got)
	}
}

func TestObserver_CallbackReceivesEvents(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("D1", 0, 0, 1920, 1080))
	h := &fakeHook{}
	o := newTestObserver(t, p, h)

	var got []Event
	o.SetCallback(func(ev Event) { got = append(got, ev) })

	p.set(rec("D1", 0, 0, 1920, 1080), rec("D2", 1920, 0, 1920, 1080))
	h.fire(Hint{Kind: HintAdded, ID: NewDisplayID("D2")})

	want := []Event{Added{ID: NewDisplayID("D2")}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}

func TestObserver_ChangeCallbackSharesSlot(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := &fakeHook{}
	o := newTestObserver(t, p, h)

	var plain []Event
	var r eventRecorder
	o.SetCallback(func(ev Event) { plain = append(plain, ev) })
	o.SetChangeCallback(r.record)

	p.set()
	h.fire(Hint{Kind: HintRemoved, ID: NewDisplayID("A")})

	if len(plain) != 0 {
		t.Fatalf("replaced callback received %v", plain)
	}
	if len(r.changes) != 1 || r.changes[0].Available() {
		t.Fatalf("changes = %+v, want one unavailable Removed", r.changes)
	}

	o.SetChangeCallback(nil)
	p.set(rec("A", 0, 0, 100, 100))
	h.fire(Hint{Kind: HintAdded})
	if len(r.changes) != 1 {
		t.Fatalf("callback still called after SetChangeCallback(nil)")
	}
}

func TestObserver_CloseIsIdempotent(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := &fakeHook{}
	o := newTestObserver(t, p, h)

	if err := o.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := o.Close(); err != nil {
		t.Fatalf("second Close() error: %v", err)
	}
	if h.uninstalls != 1 {
		t.Fatalf("uninstalls = %d, want 1", h.uninstalls)
	}
}

func TestObserver_NoEventsAfterClose(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := &fakeHook{}
	o := newTestObserver(t, p, h)

	var got []Event
	o.SetCallback(func(ev Event) { got = append(got, ev) })
	o.Close()

	p.set(rec("A", 0, 0, 100, 100), rec("B", 100, 0, 100, 100))
	h.fire(Hint{Kind: HintAdded})
	if len(got) != 0 {
		t.Fatalf("events after Close: %v", got)
	}
}

func TestObserver_UninstallFailureDoesNotFailClose(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{uninstallErr: errors.New("gone")})

	if err := o.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}

func TestObserver_RunAfterClose(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{})
	o.Close()

	if err := o.Run(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Run() error = %v, want ErrClosed", err)
	}
}

func TestObserver_RunReturnsOnClose(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{})

	done := make(chan error, 1)
	go func() { done <- o.Run() }()

	o.Close()
	select {
	case err := <-done:
		// ErrClosed when Close won the race with Run's start.
		if err != nil && !errors.Is(err, ErrClosed) {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Close")
	}
}

func TestObserver_RunOffMainThreadExits(t *testing.T) {
	code := onMainThreadForTest(t, false)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{})

	o.Run()
	if *code != 2 {
		t.Fatalf("exit code = %d, want 2", *code)
	}
}

type fakeLoopHook struct {
	fakeHook
	quit chan struct{}
	once sync.Once
}

func (h *fakeLoopHook) Loop() { <-h.quit }
func (h *fakeLoopHook) Quit() error {
	h.once.Do(func() { close(h.quit) })
	return nil
}

// xeventLoopHook behaves like the X11 event loop: Quit only raises a flag
// and queues a wake-up event, the loop notices the flag only after the
// next event arrives, and reading from a closed connection is fatal.
type xeventLoopHook struct {
	fakeHook

	events chan struct{}
	conn   chan struct{}

	mu       sync.Mutex
	quitting bool
	readDead bool
	quitErr  error
}

func newXeventLoopHook() *xeventLoopHook {
	return &xeventLoopHook{
		events: make(chan struct{}, 1),
		conn:   make(chan struct{}),
	}
}

func (h *xeventLoopHook) Loop() {
	for {
		h.mu.Lock()
		quitting := h.quitting
		h.mu.Unlock()
		if quitting {
			return
		}

		select {
		case <-h.events:
		case <-h.conn:
			h.mu.Lock()
			h.readDead = true
			h.mu.Unlock()
			return
		}
	}
}

func (h *xeventLoopHook) Quit() error {
	h.mu.Lock()
	h.quitting = true
	err := h.quitErr
	h.mu.Unlock()
	if err != nil {
		return err
	}

	// The wake-up travels through the server before the loop sees it.
	go func() {
		time.Sleep(20 * time.Millisecond)
		select {
		case h.events <- struct{}{}:
		default:
		}
	}()
	return nil
}

func (h *xeventLoopHook) disconnect() { close(h.conn) }

func (h *xeventLoopHook) readAfterDisconnect() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readDead
}

func TestObserver_RunDrivesLooper(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := &fakeLoopHook{quit: make(chan struct{})}
	o, err := New(Options{Provider: p, Hook: h})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	done := make(chan struct{})
	go func() {
		o.Run()
		close(done)
	}()

	o.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Close quit the loop")
	}
}

func TestObserver_DisplaysDoesNotTouchSnapshot(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{})

	p.set(rec("A", 0, 0, 100, 100), rec("B", 100, 0, 100, 100))
	records, err := o.Displays()
	if err != nil {
		t.Fatalf("Displays() error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("Displays() returned %d records, want 2", len(records))
	}
	if o.Snapshot().Len() != 1 {
		t.Fatalf("Displays() replaced the snapshot")
	}

	p.fail(errProviderDown)
	_, err = o.Displays()
	var perr *PlatformError
	if !errors.As(err, &perr) {
		t.Fatalf("Displays() error = %v, want *PlatformError", err)
	}
}

func TestObserver_PollingHook(t *testing.T) {
	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o, err := New(Options{Provider: p, PollInterval: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer o.Close()

	got := make(chan Event, 8)
	o.SetCallback(func(ev Event) {
		select {
		case got <- ev:
		default:
		}
	})
	p.set(rec("A", 0, 0, 100, 100), rec("B", 100, 0, 100, 100))

	select {
	case ev := <-got:
		if want := (Added{ID: NewDisplayID("B")}); !reflect.DeepEqual(ev, Event(want)) {
			t.Fatalf("event = %v, want %v", ev, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("polling hook produced no event")
	}
}

func TestObserver_CloseDisconnectsAfterLoopReturns(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := newXeventLoopHook()
	o, err := New(Options{Provider: p, Hook: h})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	o.disconnect = h.disconnect

	done := make(chan error, 1)
	go func() { done <- o.Run() }()
	waitRunning(t, o)

	o.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after Close")
	}
	if h.readAfterDisconnect() {
		t.Fatalf("event loop was still reading when the connection closed")
	}
}

func TestObserver_CloseDoesNotWaitWhenQuitFails(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	h := newXeventLoopHook()
	h.quitErr = errors.New("connection lost")
	o, err := New(Options{Provider: p, Hook: h})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	o.disconnect = h.disconnect

	go o.Run()
	waitRunning(t, o)

	closed := make(chan struct{})
	go func() {
		o.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatalf("Close hung waiting for a loop nothing could wake")
	}
}

func TestObserver_SecondRunIsRejected(t *testing.T) {
	onMainThreadForTest(t, true)

	p := &fakeProvider{}
	p.set(rec("A", 0, 0, 100, 100))
	o := newTestObserver(t, p, &fakeHook{})

	go o.Run()
	waitRunning(t, o)

	if err := o.Run(); !errors.Is(err, ErrRunning) {
		t.Fatalf("second Run() error = %v, want ErrRunning", err)
	}
}

// waitRunning blocks until Run has started its loop.
func waitRunning(t *testing.T, o *Observer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		o.mu.Lock()
		running := o.loopDone != nil
		o.mu.Unlock()
		if running {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("Run did not start")
}

func TestEventLoop(t *testing.T) {
	looping := &fakeLoopHook{quit: make(chan struct{})}
	plain := &fakeHook{}

	tests := []struct {
		name         string
		hook         Hook
		platformHook Hook
		want         Looper
	}{
		{"hook loop", looping, nil, looping},
		{"hook loop wins over platform", looping, &fakeLoopHook{quit: make(chan struct{})}, looping},
		{"polling over platform connection", plain, looping, looping},
		{"no loop", plain, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eventLoop(tt.hook, tt.platformHook); got != tt.want {
				t.Fatalf("eventLoop() = %v, want %v", got, tt.want)
			}
		})
	}
}
