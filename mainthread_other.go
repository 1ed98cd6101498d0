//go:build !linux

package displaywatch

// onMainThread cannot be determined portably outside Linux. The init lock
// still keeps a Run called from main on the main thread.
func onMainThread() bool {
	return true
}
