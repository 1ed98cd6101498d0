package displaywatch

// Provider enumerates the displays that are active right now.
type Provider interface {
	Records() ([]Record, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func() ([]Record, error)

// Records calls f.
func (f ProviderFunc) Records() ([]Record, error) {
	return f()
}

// HookHandle identifies an installed hook. Its meaning is private to the
// Hook that returned it.
type HookHandle any

// Hook delivers platform display notifications.
//
// Install arranges for onHint to be called for every settled display
// change until Uninstall returns. Calls to onHint are never concurrent with
// each other but may come from any goroutine. Notifications that only
// announce a change in progress are dropped by the hook.
type Hook interface {
	Install(onHint func(Hint)) (HookHandle, error)
	Uninstall(HookHandle) error
}

// Looper is implemented by hooks whose notifications are delivered from a
// blocking platform event loop. Observer.Run drives the loop on the calling
// thread and Observer.Close stops it. Quit must make Loop return even while
// it is blocked waiting for an event, and the platform connection must stay
// open until Loop has returned.
type Looper interface {
	Loop()
	Quit() error
}
