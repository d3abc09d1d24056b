// Package pkg provides shared utilities for the usbdcore device stack.
//
// This package contains common functionality used across the device core
// and its peripheral abstraction layer, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error types for protocol and usage errors
//   - Component identifiers for log filtering
//   - Debug assertions gated behind the "usbdassert" build tag
//
// # Logging
//
// The logging subsystem wraps [log/slog] with USB-specific context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentCore, "device configured", "config", 1)
//
// # Errors
//
// Common errors are defined as sentinel values:
//
//	if errors.Is(err, pkg.ErrNotSupported) {
//	    // Request is not handled by any registered class
//	}
//
// # Assertions
//
// Assert validates caller-misuse invariants such as reference counter
// underflow. Assertions panic only in builds with the "usbdassert" tag
// and compile to nothing otherwise.
package pkg
