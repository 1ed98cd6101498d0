package platform

// Rect describes a rectangular region in screen coordinates.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Display describes an active physical display.
type Display struct {
	// ID is the platform's identity key for the display (an output name
	// on X11).
	ID       string
	Bounds   Rect
	Primary  bool
	MirrorOf string // ID of the display this one clones, empty if none
}

// ChangeKind classifies a display change reported by a Backend.
type ChangeKind int

const (
	ChangeLayout ChangeKind = iota
	ChangeConnected
	ChangeDisconnected
)

// Change is a display notification from the window system. Display is only
// set for ChangeConnected and ChangeDisconnected, and may be empty when the
// backend could not resolve it.
type Change struct {
	Kind    ChangeKind
	Display string
}

// Backend abstracts display enumeration and change notification across
// window systems.
type Backend interface {
	Displays() ([]Display, error)
	// Watch starts delivering changes to onChange. Deliveries never
	// overlap.
	Watch(onChange func(Change)) error
	// Unwatch stops deliveries; none happen after it returns.
	Unwatch() error
	// EventLoop blocks processing window-system events until Quit. The
	// backend must not be disconnected while it runs.
	EventLoop()
	Quit() error
	Disconnect()
}
