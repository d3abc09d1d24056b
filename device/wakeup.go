package device

import (
	"sync"
	"sync/atomic"

	"github.com/ardnew/usbdcore/pkg"
)

// remoteWakeup reference-counts remote wakeup capability across class
// instances and tracks a pending wakeup through an atomic flag.
//
// The counter is the number of registered classes that can generate a
// wakeup; the configuration descriptor advertises the capability while it
// is nonzero. The pending flag is set with compare-and-swap so concurrent
// wakeup requests collapse into a single resume drive, and cleared the
// same way when resume signaling is observed on the bus.
type remoteWakeup struct {
	counter uint8
	mutex   sync.Mutex
	pending atomic.Bool
}

// register adds one wakeup-capable user. Counter overflow is a caller
// bug; it asserts in debug builds and wraps silently otherwise.
func (w *remoteWakeup) register() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.counter++
	pkg.Assert(w.counter != 0, "remote wakeup counter overflow")
	pkg.LogDebug(pkg.ComponentWakeup, "remote wakeup registered", "count", w.counter)
}

// unregister removes one wakeup-capable user. Underflow is a caller bug;
// it asserts in debug builds and wraps silently otherwise.
func (w *remoteWakeup) unregister() {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	pkg.Assert(w.counter != 0, "remote wakeup counter underflow")
	w.counter--
	pkg.LogDebug(pkg.ComponentWakeup, "remote wakeup unregistered", "count", w.counter)
}

// active reports whether any registered class can generate a wakeup.
func (w *remoteWakeup) active() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.counter != 0
}

// pend requests a wakeup. It returns true exactly once per suspend
// cycle, when the capability is registered, the host has enabled the
// feature, and no wakeup is already pending; the caller then starts
// resume signaling.
func (w *remoteWakeup) pend(featureEnabled bool) bool {
	if !featureEnabled || !w.active() {
		return false
	}
	return w.pending.CompareAndSwap(false, true)
}

// resumed consumes a pending wakeup when resume signaling is observed.
// It returns true if a wakeup was pending, telling the caller to stop
// driving resume.
func (w *remoteWakeup) resumed() bool {
	return w.pending.CompareAndSwap(true, false)
}
