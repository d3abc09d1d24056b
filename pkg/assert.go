//go:build usbdassert

package pkg

// AssertionsEnabled reports whether Assert is active in this build.
const AssertionsEnabled = true

// Assert panics with the given message when cond is false.
func Assert(cond bool, msg string) {
	if !cond {
		panic("assertion failed: " + msg)
	}
}
