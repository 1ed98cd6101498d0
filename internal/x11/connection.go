package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
)

// wakeAtomName types the client message Quit sends to itself.
const wakeAtomName = "_DISPLAYWATCH_WAKE"

// Connection manages the X11 connection and core X resources
type Connection struct {
	XUtil *xgbutil.XUtil
	Root  xproto.Window

	// wake is an unmapped InputOnly window. Quit sends it a client message
	// so an EventLoop blocked waiting for an event gets one.
	wake     xproto.Window
	wakeAtom xproto.Atom
}

// NewConnection connects to the display named by $DISPLAY.
func NewConnection() (*Connection, error) {
	return NewConnectionDisplay("")
}

// NewConnectionDisplay connects to the given X display (empty means $DISPLAY)
// and initializes the RandR extension.
func NewConnectionDisplay(display string) (*Connection, error) {
	var (
		xu  *xgbutil.XUtil
		err error
	)
	if display == "" {
		xu, err = xgbutil.NewConn()
	} else {
		xu, err = xgbutil.NewConnDisplay(display)
	}
	if err != nil {
		return nil, err
	}

	if err := randr.Init(xu.Conn()); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	c := &Connection{
		XUtil: xu,
		Root:  xu.RootWin(),
	}
	if err := c.createWakeWindow(); err != nil {
		xu.Conn().Close()
		return nil, err
	}
	return c, nil
}

func (c *Connection) createWakeWindow() error {
	conn := c.XUtil.Conn()

	wid, err := xproto.NewWindowId(conn)
	if err != nil {
		return fmt.Errorf("failed to allocate wake window id: %w", err)
	}
	// InputOnly windows take depth 0, no border and the parent's visual.
	err = xproto.CreateWindowChecked(conn, 0, wid, c.Root,
		-1, -1, 1, 1, 0,
		xproto.WindowClassInputOnly, 0, 0, nil).Check()
	if err != nil {
		return fmt.Errorf("failed to create wake window: %w", err)
	}

	atom, err := xprop.Atm(c.XUtil, wakeAtomName)
	if err != nil {
		return fmt.Errorf("failed to intern %s: %w", wakeAtomName, err)
	}

	c.wake = wid
	c.wakeAtom = atom
	return nil
}

// EventLoop starts the main X11 event loop (blocking)
func (c *Connection) EventLoop() {
	xevent.Main(c.XUtil)
}

// Quit makes a running EventLoop return. The loop only checks for quitting
// between events, so Quit also delivers one. The connection must stay open
// until EventLoop has returned.
func (c *Connection) Quit() error {
	xevent.Quit(c.XUtil)

	ev := wakeEvent(c.wake, c.wakeAtom)
	// With an empty event mask the server delivers to the client that
	// created the destination window, which is this one.
	err := xproto.SendEventChecked(c.XUtil.Conn(), false, c.wake,
		xproto.EventMaskNoEvent, string(ev.Bytes())).Check()
	if err != nil {
		return fmt.Errorf("failed to wake event loop: %w", err)
	}
	return nil
}

func wakeEvent(window xproto.Window, atom xproto.Atom) xproto.ClientMessageEvent {
	return xproto.ClientMessageEvent{
		Format: 32,
		Window: window,
		Type:   atom,
		Data:   xproto.ClientMessageDataUnionData32New(make([]uint32, 5)),
	}
}

// Close cleanly disconnects from the X11 server
func (c *Connection) Close() {
	c.XUtil.Conn().Close()
}
