package displaywatch

import (
	"io"
	"log/slog"
	"sync"
)

// Stats counts the work a Dispatcher has done since it was created.
type Stats struct {
	Hints    uint64 `json:"hints"`
	Rescans  uint64 `json:"rescans"`
	Failures uint64 `json:"failures"`
	Events   uint64 `json:"events"`
}

// DispatcherConfig holds configuration for a Dispatcher.
type DispatcherConfig struct {
	Provider Provider
	Initial  Snapshot
	Logger   *slog.Logger
}

// Dispatcher owns the last known snapshot and the registered callback.
// Both live behind a single mutex that is held while the provider is
// queried and while the callback runs, so every diff is computed against a
// snapshot nothing else can touch and callbacks never overlap.
//
// The mutex is not reentrant. A callback must not call SetCallback,
// RemoveCallback, Notify, Refresh, Snapshot or Stats on the Dispatcher that
// invoked it; doing so deadlocks.
type Dispatcher struct {
	mu       sync.Mutex
	snapshot Snapshot
	callback func(Change)
	stats    Stats

	provider Provider
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher that starts from cfg.Initial.
func NewDispatcher(cfg DispatcherConfig) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{
		snapshot: cfg.Initial,
		provider: cfg.Provider,
		logger:   logger,
	}
}

// SetCallback registers cb, replacing any previous callback. See the
// Dispatcher documentation for what cb must not do.
func (d *Dispatcher) SetCallback(cb func(Change)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = cb
}

// RemoveCallback clears the callback. Notifications keep the snapshot up
// to date but dispatch nothing.
func (d *Dispatcher) RemoveCallback() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callback = nil
}

// Notify handles one raw hint from a Hook. Whatever the hint says, the
// provider is asked for a fresh snapshot and the events come from diffing
// it against the retained one. When the provider fails the retained
// snapshot is kept and nothing is dispatched: there is nobody on the
// notification path to report the error to.
func (d *Dispatcher) Notify(h Hint) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stats.Hints++
	d.logger.Debug("display hint received", "hint", h.String())

	changes, err := d.rescanLocked()
	if err != nil {
		d.stats.Failures++
		d.logger.Debug("display rescan failed, keeping previous snapshot",
			"hint", h.String(),
			"error", err)
		return
	}
	d.dispatchLocked(changes)
}

// Refresh rescans on behalf of the caller. The events are dispatched to the
// callback, if any, and also returned. Unlike Notify, a provider failure is
// returned as a *PlatformError.
func (d *Dispatcher) Refresh() ([]Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	changes, err := d.rescanLocked()
	if err != nil {
		d.stats.Failures++
		return nil, &PlatformError{Op: "enumerate displays", Err: err}
	}
	d.dispatchLocked(changes)

	events := make([]Event, 0, len(changes))
	for _, ch := range changes {
		events = append(events, ch.Event)
	}
	return events, nil
}

// Snapshot returns the retained snapshot.
func (d *Dispatcher) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshot
}

// Stats returns a copy of the dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

func (d *Dispatcher) rescanLocked() ([]Change, error) {
	d.stats.Rescans++

	records, err := d.provider.Records()
	if err != nil {
		return nil, err
	}
	next, err := NewSnapshot(records)
	if err != nil {
		return nil, err
	}

	events := Diff(d.snapshot, next)
	d.snapshot = next
	if len(events) > 0 {
		d.logger.Debug("display snapshot changed", "events", len(events), "displays", next.Len())
	}
	return wrap(events, next), nil
}

func (d *Dispatcher) dispatchLocked(changes []Change) {
	if d.callback == nil {
		return
	}
	for _, ch := range changes {
		d.callback(ch)
		d.stats.Events++
	}
}
