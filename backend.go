package displaywatch

import (
	"github.com/1broseidon/displaywatch/internal/platform"
)

// backendProvider adapts a platform.Backend to Provider.
type backendProvider struct {
	backend platform.Backend
}

func (p backendProvider) Records() ([]Record, error) {
	displays, err := p.backend.Displays()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(displays))
	for _, d := range displays {
		records = append(records, recordFromDisplay(d))
	}
	return records, nil
}

// backendHook adapts a platform.Backend to Hook and Looper.
type backendHook struct {
	backend platform.Backend
}

var (
	_ Hook   = (*backendHook)(nil)
	_ Looper = (*backendHook)(nil)
)

func (h *backendHook) Install(onHint func(Hint)) (HookHandle, error) {
	if err := h.backend.Watch(func(c platform.Change) {
		onHint(hintFromChange(c))
	}); err != nil {
		return nil, err
	}
	return h.backend, nil
}

func (h *backendHook) Uninstall(HookHandle) error {
	return h.backend.Unwatch()
}

func (h *backendHook) Loop()       { h.backend.EventLoop() }
func (h *backendHook) Quit() error { return h.backend.Quit() }

func recordFromDisplay(d platform.Display) Record {
	r := Record{
		ID:      NewDisplayID(d.ID),
		Origin:  Point{X: d.Bounds.X, Y: d.Bounds.Y},
		Size:    Size{Width: d.Bounds.Width, Height: d.Bounds.Height},
		Primary: d.Primary,
	}
	if d.MirrorOf != "" {
		source := NewDisplayID(d.MirrorOf)
		r.MirrorOf = &source
	}
	return r
}

func hintFromChange(c platform.Change) Hint {
	switch c.Kind {
	case platform.ChangeConnected:
		return Hint{Kind: HintAdded, ID: NewDisplayID(c.Display)}
	case platform.ChangeDisconnected:
		return Hint{Kind: HintRemoved, ID: NewDisplayID(c.Display)}
	default:
		return Hint{Kind: HintReconfigured}
	}
}
