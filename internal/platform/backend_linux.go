//go:build linux

package platform

import (
	"fmt"
	"sync"

	"github.com/1broseidon/displaywatch/internal/x11"
)

// LinuxBackend wraps an X11 connection behind the platform Backend interface.
type LinuxBackend struct {
	conn *x11.Connection

	mu    sync.Mutex
	watch *x11.RandRWatch
}

var _ Backend = (*LinuxBackend)(nil)

// NewLinuxBackend creates a Linux platform backend from an existing X11 connection.
func NewLinuxBackend(conn *x11.Connection) *LinuxBackend {
	return &LinuxBackend{conn: conn}
}

// NewLinuxBackendFromDisplay opens a fresh X11 connection to display
// (empty means $DISPLAY).
func NewLinuxBackendFromDisplay(display string) (*LinuxBackend, error) {
	conn, err := x11.NewConnectionDisplay(display)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &LinuxBackend{conn: conn}, nil
}

// Disconnect closes the underlying X11 connection.
func (b *LinuxBackend) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}

// EventLoop starts the X11 event loop (blocking).
func (b *LinuxBackend) EventLoop() {
	if b != nil && b.conn != nil {
		b.conn.EventLoop()
	}
}

// Quit stops a running EventLoop.
func (b *LinuxBackend) Quit() error {
	conn, err := b.connection()
	if err != nil {
		return err
	}
	return conn.Quit()
}

// Displays returns all active displays.
func (b *LinuxBackend) Displays() ([]Display, error) {
	conn, err := b.connection()
	if err != nil {
		return nil, err
	}

	outputs, err := conn.GetOutputs()
	if err != nil {
		return nil, err
	}

	displays := make([]Display, 0, len(outputs))
	for _, o := range outputs {
		displays = append(displays, displayFromOutput(o))
	}
	return displays, nil
}

// Watch subscribes to RandR notifications. Changes are delivered from the
// goroutine running EventLoop.
func (b *LinuxBackend) Watch(onChange func(Change)) error {
	conn, err := b.connection()
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.watch != nil {
		return fmt.Errorf("x11 backend is already watching")
	}

	watch, err := conn.Watch(func(n x11.Notification) {
		onChange(b.changeFromNotification(n))
	})
	if err != nil {
		return err
	}
	b.watch = watch
	return nil
}

// Unwatch stops RandR notifications.
func (b *LinuxBackend) Unwatch() error {
	b.mu.Lock()
	watch := b.watch
	b.watch = nil
	b.mu.Unlock()

	if watch == nil {
		return nil
	}
	return watch.Stop()
}

func (b *LinuxBackend) changeFromNotification(n x11.Notification) Change {
	var kind ChangeKind
	switch n.Kind {
	case x11.NotifyConnected:
		kind = ChangeConnected
	case x11.NotifyDisconnected:
		kind = ChangeDisconnected
	default:
		return Change{Kind: ChangeLayout}
	}

	// A failed lookup still leaves a useful hint: the dispatcher rescans
	// regardless of which display was named.
	name, err := b.conn.OutputName(n.Output)
	if err != nil {
		name = ""
	}
	return Change{Kind: kind, Display: name}
}

func (b *LinuxBackend) connection() (*x11.Connection, error) {
	if b == nil || b.conn == nil {
		return nil, fmt.Errorf("x11 backend connection is nil")
	}
	return b.conn, nil
}

func displayFromOutput(o x11.Output) Display {
	return Display{
		ID: o.Name,
		Bounds: Rect{
			X:      o.X,
			Y:      o.Y,
			Width:  o.Width,
			Height: o.Height,
		},
		Primary:  o.Primary,
		MirrorOf: o.MirrorOf,
	}
}
