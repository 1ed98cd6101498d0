package displaywatch

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedPlatform is returned by New when no default provider or
	// hook exists for the running platform.
	ErrUnsupportedPlatform = errors.New("no default display backend for this platform")

	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("observer closed")

	// ErrRunning is returned by a second concurrent Run.
	ErrRunning = errors.New("observer already running")
)

// InitError reports a failure while constructing an Observer: the first
// snapshot could not be taken or the hook could not be installed.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("display observer init: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// PlatformError reports a platform call made on behalf of the caller that
// failed, such as an explicit enumeration.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return fmt.Sprintf("display platform: %s: %v", e.Op, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }
