package displaywatch

// DisplayID identifies a connected display. It is opaque: two ids are either
// equal or not, and the value may be used as a map key. Platforms build ids
// from whatever they consider stable for a connected display (an output name
// on X11). An id may be handed out again after the display it named is
// disconnected.
type DisplayID struct {
	key string
}

// NewDisplayID wraps a platform-specific identity key.
func NewDisplayID(key string) DisplayID {
	return DisplayID{key: key}
}

// String returns the platform key the id was built from.
func (id DisplayID) String() string {
	return id.key
}

// IsZero reports whether id was never assigned.
func (id DisplayID) IsZero() bool {
	return id.key == ""
}

// MarshalText implements encoding.TextMarshaler so ids encode as plain strings.
func (id DisplayID) MarshalText() ([]byte, error) {
	return []byte(id.key), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *DisplayID) UnmarshalText(text []byte) error {
	id.key = string(text)
	return nil
}
