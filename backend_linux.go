//go:build linux

package displaywatch

import (
	"github.com/1broseidon/displaywatch/internal/platform"
)

// newDefaultBackend connects to the X server and exposes RandR as a
// Provider and a Hook sharing one connection.
func newDefaultBackend(display string) (Provider, Hook, func(), error) {
	b, err := platform.NewLinuxBackendFromDisplay(display)
	if err != nil {
		return nil, nil, nil, err
	}
	return backendProvider{backend: b}, &backendHook{backend: b}, b.Disconnect, nil
}
