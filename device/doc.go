// Package device implements the device-side core of a USB 2.0
// control-transfer engine: the enumeration state machine, standard SETUP
// dispatch, and multi-packet descriptor streaming over endpoint zero.
//
// It is platform-agnostic and interacts with hardware via the
// [hal.Peripheral] interface defined in
// [github.com/ardnew/usbdcore/device/hal]. A controller driver arms
// endpoint transfers on behalf of the core and delivers bus activity back
// as [hal.Event] values, one at a time, to [Core.HandleEvent].
//
// # Architecture
//
//   - [Core] owns all mutable state for one device: the state machine,
//     the EP0 completion handler slot, the descriptor feed cursor, and
//     the remote wakeup coordinator
//   - [StateMachine] tracks the USB 2.0 device states with a suspended
//     modifier bit layered over the base enumeration stage
//   - [Registry] holds the attached [Class] instances whose descriptor
//     blocks are aggregated into the configuration descriptor and whose
//     interfaces and endpoints receive routed requests
//   - [Endpoint] carries per-endpoint halt and data toggle state
//
// # Control Transfers
//
// SETUP dispatch routes by recipient: device requests are handled by the
// core's standard request tables, interface and endpoint requests go to
// the owning class, and requests to recipient Other are offered to every
// class in registration order. After dispatch, the control stage is
// acknowledged on success or answered with a protocol stall on any error.
//
// Responses larger than the EP0 staging buffer are streamed lazily: the
// configuration descriptor feeder walks the class registry and copies
// descriptor blocks chunk by chunk as the peripheral consumes them,
// appending a zero-length packet when the response ends on a packet
// boundary with the host still expecting data.
//
// # Zero-Allocation Design
//
// The core follows zero-allocation patterns throughout:
//
//   - Serialization via MarshalTo(buf) instead of allocating Bytes()
//   - Fixed-size arrays instead of maps for classes and endpoints
//   - A single shared EP0 staging buffer exposed through
//     [Core.SetupTransferBuffer]
//
// # Example
//
//	core := device.New(peripheral, registry, strings, device.Config{
//	    VendorID:      0xCAFE,
//	    ProductID:     0xBABE,
//	    DeviceVersion: device.VersionBCD(1, 0),
//	})
//	core.Attach()
//	core.Start()
//
// An in-memory peripheral for testing is available in
// [github.com/ardnew/usbdcore/device/hal/sim].
package device
