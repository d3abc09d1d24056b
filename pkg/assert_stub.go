//go:build !usbdassert

package pkg

// AssertionsEnabled reports whether Assert is active in this build.
const AssertionsEnabled = false

// Assert is a no-op unless built with the usbdassert tag.
func Assert(cond bool, msg string) {}
