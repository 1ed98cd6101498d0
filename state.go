package displaywatch

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateID is returned when a provider reports the same display twice.
var ErrDuplicateID = errors.New("duplicate display id")

// Point is a position in the global desktop coordinate space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Size is a display extent in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// DisplayState holds the attributes of one display at one instant.
type DisplayState struct {
	Origin   Point
	Size     Size
	Scale    *float64 // nil when the platform does not report a scale factor
	Primary  bool
	Mirrored bool
}

// clone returns s with its own copy of the scale factor, so the copy
// shares no memory with s.
func (s DisplayState) clone() DisplayState {
	s.Scale = copyScale(s.Scale)
	return s
}

func copyScale(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Equal compares two states field by field. Scale factors are compared by
// value.
func (s DisplayState) Equal(o DisplayState) bool {
	if s.Origin != o.Origin || s.Size != o.Size {
		return false
	}
	if s.Primary != o.Primary || s.Mirrored != o.Mirrored {
		return false
	}
	switch {
	case s.Scale == nil && o.Scale == nil:
		return true
	case s.Scale == nil || o.Scale == nil:
		return false
	default:
		return *s.Scale == *o.Scale
	}
}

// Record is one raw display entry as returned by a Provider.
type Record struct {
	ID       DisplayID  `json:"id"`
	Origin   Point      `json:"origin"`
	Size     Size       `json:"size"`
	Scale    *float64   `json:"scale,omitempty"`
	Primary  bool       `json:"primary"`
	Mirrored bool       `json:"mirrored"`
	MirrorOf *DisplayID `json:"mirror_of,omitempty"`
}

// State converts the record into the attributes compared by Diff.
func (r Record) State() DisplayState {
	return DisplayState{
		Origin:   r.Origin,
		Size:     r.Size,
		Scale:    copyScale(r.Scale),
		Primary:  r.Primary,
		Mirrored: r.Mirrored || (r.MirrorOf != nil && *r.MirrorOf != r.ID),
	}
}

// Snapshot is the set of displays known at one instant. The zero value is
// an empty snapshot. Snapshots are immutable once built: every state going
// in or out is copied.
type Snapshot struct {
	states map[DisplayID]DisplayState
}

// NewSnapshot builds a snapshot from provider records. Record order does not
// matter. A repeated id is an error.
func NewSnapshot(records []Record) (Snapshot, error) {
	states := make(map[DisplayID]DisplayState, len(records))
	for _, r := range records {
		if _, ok := states[r.ID]; ok {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrDuplicateID, r.ID)
		}
		states[r.ID] = r.State()
	}
	return Snapshot{states: states}, nil
}

// Len returns the number of displays in the snapshot.
func (s Snapshot) Len() int {
	return len(s.states)
}

// Get returns the state recorded for id.
func (s Snapshot) Get(id DisplayID) (DisplayState, bool) {
	st, ok := s.states[id]
	return st.clone(), ok
}

// Has reports whether id is present.
func (s Snapshot) Has(id DisplayID) bool {
	_, ok := s.states[id]
	return ok
}

// IDs returns the display ids sorted by key.
func (s Snapshot) IDs() []DisplayID {
	ids := make([]DisplayID, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// Equal reports whether both snapshots hold the same displays with equal
// states.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.states) != len(o.states) {
		return false
	}
	for id, st := range s.states {
		other, ok := o.states[id]
		if !ok || !st.Equal(other) {
			return false
		}
	}
	return true
}

// Records returns the snapshot contents as records, sorted by id.
func (s Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.states))
	for _, id := range s.IDs() {
		st := s.states[id]
		out = append(out, Record{
			ID:       id,
			Origin:   st.Origin,
			Size:     st.Size,
			Scale:    copyScale(st.Scale),
			Primary:  st.Primary,
			Mirrored: st.Mirrored,
		})
	}
	return out
}

func sortIDs(ids []DisplayID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].key < ids[j].key
	})
}
