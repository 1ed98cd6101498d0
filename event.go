package displaywatch

import "fmt"

// EventKind names the variant of an Event.
type EventKind string

const (
	KindAdded         EventKind = "added"
	KindRemoved       EventKind = "removed"
	KindSizeChanged   EventKind = "size_changed"
	KindOriginChanged EventKind = "origin_changed"
	KindMirrored      EventKind = "mirrored"
	KindUnMirrored    EventKind = "unmirrored"
)

// Event is a single semantic change to one display. The concrete types are
// Added, Removed, SizeChanged, OriginChanged, Mirrored and UnMirrored; use a
// type switch to inspect them.
type Event interface {
	Display() DisplayID
	Kind() EventKind
	String() string

	isEvent()
}

// Added reports a display that appeared.
type Added struct {
	ID DisplayID
}

// Removed reports a display that disappeared.
type Removed struct {
	ID DisplayID
}

// SizeChanged reports a new pixel extent.
type SizeChanged struct {
	ID     DisplayID
	Before Size
	After  Size
}

// OriginChanged reports a new position in desktop space.
type OriginChanged struct {
	ID     DisplayID
	Before Point
	After  Point
}

// Mirrored reports a display that started mirroring another.
type Mirrored struct {
	ID DisplayID
}

// UnMirrored reports a display that stopped mirroring.
type UnMirrored struct {
	ID DisplayID
}

func (e Added) Display() DisplayID         { return e.ID }
func (e Removed) Display() DisplayID       { return e.ID }
func (e SizeChanged) Display() DisplayID   { return e.ID }
func (e OriginChanged) Display() DisplayID { return e.ID }
func (e Mirrored) Display() DisplayID      { return e.ID }
func (e UnMirrored) Display() DisplayID    { return e.ID }

func (Added) Kind() EventKind         { return KindAdded }
func (Removed) Kind() EventKind       { return KindRemoved }
func (SizeChanged) Kind() EventKind   { return KindSizeChanged }
func (OriginChanged) Kind() EventKind { return KindOriginChanged }
func (Mirrored) Kind() EventKind      { return KindMirrored }
func (UnMirrored) Kind() EventKind    { return KindUnMirrored }

func (e Added) String() string   { return fmt.Sprintf("Added(%s)", e.ID) }
func (e Removed) String() string { return fmt.Sprintf("Removed(%s)", e.ID) }
func (e SizeChanged) String() string {
	return fmt.Sprintf("SizeChanged(%s, %s -> %s)", e.ID, e.Before, e.After)
}
func (e OriginChanged) String() string {
	return fmt.Sprintf("OriginChanged(%s, %s -> %s)", e.ID, e.Before, e.After)
}
func (e Mirrored) String() string   { return fmt.Sprintf("Mirrored(%s)", e.ID) }
func (e UnMirrored) String() string { return fmt.Sprintf("UnMirrored(%s)", e.ID) }

func (Added) isEvent()         {}
func (Removed) isEvent()       {}
func (SizeChanged) isEvent()   {}
func (OriginChanged) isEvent() {}
func (Mirrored) isEvent()      {}
func (UnMirrored) isEvent()    {}

// Display is a read-only handle on a display that still exists. The values
// are those of the snapshot the event batch was computed against.
type Display struct {
	id    DisplayID
	state DisplayState
}

func (d *Display) ID() DisplayID       { return d.id }
func (d *Display) Origin() Point       { return d.state.Origin }
func (d *Display) Size() Size          { return d.state.Size }
func (d *Display) Scale() *float64     { return copyScale(d.state.Scale) }
func (d *Display) IsPrimary() bool     { return d.state.Primary }
func (d *Display) IsMirrored() bool    { return d.state.Mirrored }
func (d *Display) State() DisplayState { return d.state.clone() }

// Change pairs an Event with a handle on its display. Display is nil when
// the display can no longer be queried, which is always the case for
// Removed.
type Change struct {
	Event   Event
	Display *Display
}

// Available reports whether the display of the event still exists.
func (c Change) Available() bool {
	return c.Display != nil
}

// wrap attaches availability information from the snapshot the events were
// diffed into.
func wrap(events []Event, current Snapshot) []Change {
	out := make([]Change, 0, len(events))
	for _, ev := range events {
		ch := Change{Event: ev}
		if st, ok := current.Get(ev.Display()); ok {
			ch.Display = &Display{id: ev.Display(), state: st}
		}
		out = append(out, ch)
	}
	return out
}
