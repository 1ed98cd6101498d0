package displaywatch

import (
	"os"
	"runtime"
)

// Run must execute on the process's main thread. Locking here, during
// package initialization, pins the main goroutine to that thread.
func init() {
	runtime.LockOSThread()
}

// Overridden in tests, which never run on the main goroutine.
var (
	isMainThread = onMainThread
	exit         = os.Exit
)
