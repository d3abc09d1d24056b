package device

import "fmt"

// Maximum limits for fixed-size arrays (zero-allocation support).
const (
	// MaxEndpointsPerInterface is the maximum number of endpoints per interface.
	// USB 2.0 allows up to 16 IN + 16 OUT endpoints, but typically far fewer are used.
	MaxEndpointsPerInterface = 16

	// MaxClasses is the maximum number of class instances per registry.
	MaxClasses = 8

	// MaxInterfacesPerClass is the maximum number of interfaces per class instance.
	MaxInterfacesPerClass = 8
)

// EP0MaxPacketSize is the control endpoint packet size at full speed.
const EP0MaxPacketSize = 64

// SetupTransferBufferSize is the size of the shared EP0 staging buffer.
const SetupTransferBufferSize = EP0MaxPacketSize

// Device status bits returned by GET_STATUS (USB 2.0 Spec Table 9-4).
const (
	DeviceStatusSelfPowered  = 1 << 0 // Device is self-powered
	DeviceStatusRemoteWakeup = 1 << 1 // Remote wakeup enabled by host
)

// Endpoint status bits returned by GET_STATUS.
const (
	EndpointStatusHalt = 1 << 0 // Endpoint is halted
)

// Base device states as defined in USB 2.0 specification section 9.1.
// A suspended device keeps its base state and sets StateSuspendedMask.
const (
	StateDisabled   State = 0x00 // Core not started
	StateUnattached State = 0x01 // Started, not attached to a bus
	StatePowered    State = 0x02 // Bus power present
	StateDefault    State = 0x03 // Reset received, default address
	StateAddressed  State = 0x04 // Unique address assigned
	StateConfigured State = 0x05 // Configuration selected, operational

	// StateSuspendedMask marks a suspended device; the base state is
	// preserved underneath.
	StateSuspendedMask State = 0x10

	// StateSuspendedPowered is a suspended device with only bus power
	// state retained.
	StateSuspendedPowered State = StatePowered | StateSuspendedMask
)

// State represents USB device state: a base enumeration stage plus an
// optional suspended modifier bit.
type State uint8

// Base returns the state with the suspended modifier removed.
func (s State) Base() State {
	return s &^ StateSuspendedMask
}

// IsSuspended returns true if the suspended modifier bit is set.
func (s State) IsSuspended() bool {
	return s&StateSuspendedMask != 0
}

// String returns a human-readable state description.
func (s State) String() string {
	name := ""
	switch s.Base() {
	case StateDisabled:
		name = "Disabled"
	case StateUnattached:
		name = "Unattached"
	case StatePowered:
		name = "Powered"
	case StateDefault:
		name = "Default"
	case StateAddressed:
		name = "Addressed"
	case StateConfigured:
		name = "Configured"
	default:
		return fmt.Sprintf("Unknown State (%d)", uint8(s))
	}
	if s.IsSuspended() {
		return name + " (Suspended)"
	}
	return name
}
