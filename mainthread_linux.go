//go:build linux

package displaywatch

import "golang.org/x/sys/unix"

// onMainThread reports whether the calling goroutine runs on the thread
// the process started with. On Linux that thread's id equals the pid.
func onMainThread() bool {
	return unix.Gettid() == unix.Getpid()
}
