package displaywatch

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Options configures an Observer. The zero value watches the default
// display server of the platform.
type Options struct {
	// Provider enumerates displays. Nil selects the platform default.
	Provider Provider
	// Hook delivers change notifications. Nil selects the platform default,
	// or polling when PollInterval is set.
	Hook Hook
	// PollInterval, when positive and Hook is nil, replaces native
	// notifications with a rescan on this interval.
	PollInterval time.Duration
	// Display names the X display to connect to; empty means $DISPLAY.
	Display string
	Logger  *slog.Logger
}

// Observer watches the active displays and reports changes to a callback.
//
// Callbacks run synchronously on the goroutine that delivered the platform
// notification, while the Observer's internal lock is held. A callback must
// not call SetCallback, SetChangeCallback, RemoveCallback, Refresh, Snapshot
// or Close on the same Observer; doing so deadlocks.
type Observer struct {
	dispatcher *Dispatcher
	hook       Hook
	handle     HookHandle
	provider   Provider
	logger     *slog.Logger

	loop       Looper
	disconnect func()

	mu        sync.Mutex
	loopDone  chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

// New takes the initial snapshot and installs the change hook. The hook
// stays installed until Close, whether or not a callback is set.
func New(opts Options) (*Observer, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	provider, hook := opts.Provider, opts.Hook
	if hook == nil && opts.PollInterval > 0 {
		hook = NewPollingHook(opts.PollInterval, logger)
	}

	var (
		disconnect   func()
		platformHook Hook
	)
	if provider == nil || hook == nil {
		defProvider, defHook, closeFn, err := newDefaultBackend(opts.Display)
		if err != nil {
			return nil, &InitError{Op: "connect", Err: err}
		}
		disconnect = closeFn
		platformHook = defHook
		if provider == nil {
			provider = defProvider
		}
		if hook == nil {
			hook = defHook
		}
	}

	fail := func(op string, err error) (*Observer, error) {
		if disconnect != nil {
			disconnect()
		}
		return nil, &InitError{Op: op, Err: err}
	}

	records, err := provider.Records()
	if err != nil {
		return fail("initial snapshot", err)
	}
	initial, err := NewSnapshot(records)
	if err != nil {
		return fail("initial snapshot", err)
	}

	o := &Observer{
		dispatcher: NewDispatcher(DispatcherConfig{
			Provider: provider,
			Initial:  initial,
			Logger:   logger,
		}),
		hook:       hook,
		provider:   provider,
		logger:     logger,
		loop:       eventLoop(hook, platformHook),
		disconnect: disconnect,
		closed:     make(chan struct{}),
	}

	// The dispatcher exists before the hook can call it, and Close
	// uninstalls the hook before anything is torn down.
	handle, err := hook.Install(o.dispatcher.Notify)
	if err != nil {
		return fail("install hook", err)
	}
	o.handle = handle

	logger.Debug("display observer started", "displays", initial.Len())
	return o, nil
}

// eventLoop picks the loop Run drives: the hook's own, or else the loop of
// the platform connection, which keeps the connection's event queue drained
// when polling replaces native notifications.
func eventLoop(hook, platformHook Hook) Looper {
	if l, ok := hook.(Looper); ok {
		return l
	}
	if l, ok := platformHook.(Looper); ok {
		return l
	}
	return nil
}

// SetCallback registers cb for every event, replacing any previous
// callback.
func (o *Observer) SetCallback(cb func(Event)) {
	if cb == nil {
		o.dispatcher.RemoveCallback()
		return
	}
	o.dispatcher.SetCallback(func(ch Change) { cb(ch.Event) })
}

// SetChangeCallback registers cb for every event together with its
// availability, replacing any previous callback. SetCallback and
// SetChangeCallback share one slot.
func (o *Observer) SetChangeCallback(cb func(Change)) {
	if cb == nil {
		o.dispatcher.RemoveCallback()
		return
	}
	o.dispatcher.SetCallback(cb)
}

// RemoveCallback stops dispatching. The hook stays installed and the
// snapshot stays current.
func (o *Observer) RemoveCallback() {
	o.dispatcher.RemoveCallback()
}

// Run processes platform events until Close. It must be called from the
// main goroutine of the program; anywhere else it terminates the process.
func (o *Observer) Run() error {
	o.mu.Lock()
	if o.isClosed() {
		o.mu.Unlock()
		return ErrClosed
	}
	if !isMainThread() {
		o.mu.Unlock()
		o.logger.Error("display observer Run called off the main thread")
		exit(2)
		return nil
	}
	if o.loopDone != nil {
		o.mu.Unlock()
		return ErrRunning
	}
	done := make(chan struct{})
	o.loopDone = done
	o.mu.Unlock()
	defer close(done)

	if o.loop != nil {
		o.loop.Loop()
		return nil
	}
	<-o.closed
	return nil
}

// Close uninstalls the hook and makes Run return. The platform connection
// is closed only after a running Run has returned. It is safe to call more
// than once, but not from inside a callback.
func (o *Observer) Close() error {
	o.closeOnce.Do(func() {
		if err := o.hook.Uninstall(o.handle); err != nil {
			o.logger.Warn("failed to uninstall display hook", "error", err)
		}

		o.mu.Lock()
		close(o.closed)
		done := o.loopDone
		o.mu.Unlock()

		if o.loop != nil {
			if err := o.loop.Quit(); err != nil {
				// Nothing will wake the loop; waiting would hang Close.
				o.logger.Warn("failed to stop display event loop", "error", err)
				done = nil
			}
		}
		if done != nil {
			<-done
		}
		if o.disconnect != nil {
			o.disconnect()
		}
	})
	return nil
}

// Displays enumerates the active displays now, outside the notification
// path. It does not touch the retained snapshot.
func (o *Observer) Displays() ([]Record, error) {
	records, err := o.provider.Records()
	if err != nil {
		return nil, &PlatformError{Op: "enumerate displays", Err: err}
	}
	return records, nil
}

// Snapshot returns the snapshot the next change will be diffed against.
func (o *Observer) Snapshot() Snapshot {
	return o.dispatcher.Snapshot()
}

// Refresh rescans immediately and dispatches any resulting events.
func (o *Observer) Refresh() ([]Event, error) {
	return o.dispatcher.Refresh()
}

// Stats returns dispatch counters.
func (o *Observer) Stats() Stats {
	return o.dispatcher.Stats()
}

func (o *Observer) isClosed() bool {
	select {
	case <-o.closed:
		return true
	default:
		return false
	}
}
