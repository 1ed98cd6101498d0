package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
)

// NotificationKind classifies a RandR notification.
type NotificationKind int

const (
	// NotifyLayout covers screen and CRTC changes: geometry, mode, rotation
	// or clone setup moved somewhere.
	NotifyLayout NotificationKind = iota
	NotifyConnected
	NotifyDisconnected
)

// Notification is a settled RandR change. Output is only set for
// NotifyConnected and NotifyDisconnected.
type Notification struct {
	Kind   NotificationKind
	Output randr.Output
}

const randrEventMask = randr.NotifyMaskScreenChange |
	randr.NotifyMaskCrtcChange |
	randr.NotifyMaskOutputChange

// RandRWatch forwards RandR notifications from the X event loop.
type RandRWatch struct {
	conn *Connection

	mu     sync.Mutex
	armed  bool
	notify func(Notification)
}

// Watch selects RandR change notifications on the root window and calls
// notify for each settled change. notify runs on the goroutine executing
// EventLoop, one notification at a time.
func (c *Connection) Watch(notify func(Notification)) (*RandRWatch, error) {
	w := &RandRWatch{conn: c, armed: true, notify: notify}

	// Hooks cannot be detached from xgbutil; Stop disarms this one instead.
	xevent.HookFun(w.hook).Connect(c.XUtil)

	if err := randr.SelectInputChecked(c.XUtil.Conn(), c.Root, randrEventMask).Check(); err != nil {
		w.disarm()
		return nil, fmt.Errorf("randr select input failed: %w", err)
	}
	return w, nil
}

// Stop deselects RandR notifications. Once Stop returns notify is not
// called again.
func (w *RandRWatch) Stop() error {
	w.disarm()
	if err := randr.SelectInputChecked(w.conn.XUtil.Conn(), w.conn.Root, 0).Check(); err != nil {
		return fmt.Errorf("randr deselect input failed: %w", err)
	}
	return nil
}

func (w *RandRWatch) disarm() {
	w.mu.Lock()
	w.armed = false
	w.mu.Unlock()
}

// hook runs for every event the loop dequeues. Returning false stops
// xgbutil from processing the event further, which it would otherwise log
// as unsupported.
func (w *RandRWatch) hook(xu *xgbutil.XUtil, ev interface{}) bool {
	n, isRandR, ok := classify(ev)
	if !isRandR {
		return true
	}
	if !ok {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.armed {
		w.notify(n)
	}
	return false
}

// classify maps a raw X event to a notification. isRandR reports whether
// the event belongs to RandR at all; ok is false for RandR events that
// do not describe a settled change.
func classify(ev interface{}) (n Notification, isRandR bool, ok bool) {
	switch e := ev.(type) {
	case randr.ScreenChangeNotifyEvent:
		return Notification{Kind: NotifyLayout}, true, true
	case randr.NotifyEvent:
		switch e.SubCode {
		case randr.NotifyCrtcChange:
			return Notification{Kind: NotifyLayout}, true, true
		case randr.NotifyOutputChange:
			oc := e.U.Oc
			switch oc.Connection {
			case randr.ConnectionConnected:
				return Notification{Kind: NotifyConnected, Output: oc.Output}, true, true
			case randr.ConnectionDisconnected:
				return Notification{Kind: NotifyDisconnected, Output: oc.Output}, true, true
			default:
				return Notification{Kind: NotifyLayout}, true, true
			}
		default:
			// Output properties (EDID and friends) churn while a change is
			// still being negotiated; the CRTC/output notifications that
			// follow carry the settled result.
			return Notification{}, true, false
		}
	default:
		return Notification{}, false, false
	}
}
