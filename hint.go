package displaywatch

import "fmt"

// HintKind classifies a raw platform notification.
type HintKind int

const (
	// HintReconfigured means something about the display layout changed and
	// only a full enumeration can tell what.
	HintReconfigured HintKind = iota
	// HintAdded names a display the platform reports as connected.
	HintAdded
	// HintRemoved names a display the platform reports as disconnected.
	HintRemoved
	// HintMirrorToggled means a mirror relationship was set up or torn down.
	// It is reserved for platforms that flag mirroring separately. RandR
	// reports clone changes as CRTC changes, so the X11 hook forwards them
	// as HintReconfigured.
	HintMirrorToggled
)

func (k HintKind) String() string {
	switch k {
	case HintReconfigured:
		return "reconfigured"
	case HintAdded:
		return "added"
	case HintRemoved:
		return "removed"
	case HintMirrorToggled:
		return "mirror_toggled"
	default:
		return fmt.Sprintf("hint(%d)", int(k))
	}
}

// Hint is the minimal signal a Hook forwards to the Dispatcher. ID is only
// set for HintAdded and HintRemoved, and only when the platform names the
// display.
type Hint struct {
	Kind HintKind
	ID   DisplayID
}

func (h Hint) String() string {
	if h.ID.IsZero() {
		return h.Kind.String()
	}
	return fmt.Sprintf("%s(%s)", h.Kind, h.ID)
}
