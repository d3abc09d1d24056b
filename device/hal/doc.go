// Package hal defines the peripheral abstraction for the USB device core.
//
// The HAL provides a platform-agnostic interface between the device core and
// the underlying USB device controller. Platform vendors implement this
// interface to run the core on their specific hardware.
//
// # Design Principles
//
// The HAL is designed to be:
//
//   - Minimal: Only expose operations essential for control transfers
//   - Generic: No platform-specific assumptions or details
//   - Non-blocking: Completion is reported through bus events
//
// The device core implements all USB protocol logic, leaving the HAL to
// handle only low-level controller interactions.
//
// # Interface Overview
//
// The [Peripheral] interface defines the contract for device-side USB
// operations:
//
//   - Arming endpoint transfers, in single chunks or fed lazily through a
//     [NextTransferFunc]
//   - SETUP packet retrieval and control-stage acknowledgement or stall
//   - Bus power detection and remote wakeup signaling
//
// Bus activity flows the other way as [Event] values which the controller
// driver delivers to the core's event handler. The core performs no locking
// between events; the driver must deliver them one at a time.
//
// # Implementing a Peripheral
//
// To implement a HAL for a new platform:
//
//  1. Create a type that implements all [Peripheral] methods
//  2. Translate controller interrupts into [Event] values
//  3. Split armed IN transfers into max-packet-size bus packets, invoking
//     the transfer's [NextTransferFunc] as each chunk is consumed
//  4. Track the data direction of the most recent SETUP
//
// An in-memory peripheral for tests and examples is available in
// [github.com/ardnew/usbdcore/device/hal/sim].
package hal
