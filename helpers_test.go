package displaywatch

import (
	"errors"
	"sync"
	"testing"
)

func rec(id string, x, y, w, h int) Record {
	return Record{
		ID:     NewDisplayID(id),
		Origin: Point{X: x, Y: y},
		Size:   Size{Width: w, Height: h},
	}
}

func mustSnapshot(t *testing.T, records ...Record) Snapshot {
	t.Helper()
	s, err := NewSnapshot(records)
	if err != nil {
		t.Fatalf("NewSnapshot() error: %v", err)
	}
	return s
}

var errProviderDown = errors.New("provider down")

type fakeProvider struct {
	mu      sync.Mutex
	records []Record
	err     error
	calls   int
}

func (p *fakeProvider) Records() ([]Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	out := make([]Record, len(p.records))
	copy(out, p.records)
	return out, nil
}

func (p *fakeProvider) set(records ...Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = records
	p.err = nil
}

func (p *fakeProvider) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type fakeHook struct {
	mu           sync.Mutex
	onHint       func(Hint)
	installErr   error
	uninstallErr error
	installs     int
	uninstalls   int
}

func (h *fakeHook) Install(onHint func(Hint)) (HookHandle, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.installErr != nil {
		return nil, h.installErr
	}
	h.installs++
	h.onHint = onHint
	return "fake-handle", nil
}

func (h *fakeHook) Uninstall(handle HookHandle) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uninstalls++
	h.onHint = nil
	return h.uninstallErr
}

// fire delivers a hint the way a platform hook would. It is a no-op once
// the hook is uninstalled.
func (h *fakeHook) fire(hint Hint) {
	h.mu.Lock()
	onHint := h.onHint
	h.mu.Unlock()
	if onHint != nil {
		onHint(hint)
	}
}

type eventRecorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *eventRecorder) record(ch Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, ch)
}

func (r *eventRecorder) events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, 0, len(r.changes))
	for _, ch := range r.changes {
		out = append(out, ch.Event)
	}
	return out
}
