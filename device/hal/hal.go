package hal

import (
	"strconv"

	"github.com/ardnew/usbdcore/pkg"
)

// Endpoint identifies a USB endpoint by its address byte: bit 7 is the
// direction (set for IN) and bits 0-3 are the endpoint number.
type Endpoint uint8

// Control endpoint addresses.
const (
	EPOut0 Endpoint = 0x00 // EP0 OUT (host to device)
	EPIn0  Endpoint = 0x80 // EP0 IN (device to host)
)

// Number returns the endpoint number (0-15).
func (e Endpoint) Number() uint8 {
	return uint8(e) & 0x0F
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e Endpoint) IsIn() bool {
	return uint8(e)&0x80 != 0
}

// String returns a human-readable endpoint name.
func (e Endpoint) String() string {
	dir := "OUT"
	if e.IsIn() {
		dir = "IN"
	}
	return "EP" + strconv.Itoa(int(e.Number())) + " " + dir
}

// SetupPacket represents a USB SETUP packet in the HAL layer.
// This is a fixed-size, zero-allocation structure for SETUP transactions.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// MarshalTo writes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	buf[2] = byte(s.Value)
	buf[3] = byte(s.Value >> 8)
	buf[4] = byte(s.Index)
	buf[5] = byte(s.Index >> 8)
	buf[6] = byte(s.Length)
	buf[7] = byte(s.Length >> 8)
	return SetupPacketSize
}

// DataDirection returns the endpoint on which the data stage of a control
// transfer described by this SETUP moves: EPIn0 when the direction bit is
// set, EPOut0 otherwise.
func (s *SetupPacket) DataDirection() Endpoint {
	if s.RequestType&0x80 != 0 {
		return EPIn0
	}
	return EPOut0
}

// Transfer describes one chunk of data to move on an endpoint.
// A nil or empty Data slice arms a zero-length packet.
type Transfer struct {
	Data []byte
}

// NextTransferFunc produces the next chunk of a multi-part transfer.
// The peripheral calls it each time the previously armed chunk has been
// consumed. Returning false ends the transfer; returning true with an
// empty Data slice emits a zero-length packet.
type NextTransferFunc func(next *Transfer) bool

// EventType identifies a bus event reported by the peripheral.
type EventType uint8

// Bus event types.
const (
	EventReset            EventType = iota // Bus reset detected
	EventSuspend                           // Bus idle, device suspended
	EventResume                            // Resume signaling, device woken
	EventSetup                             // SETUP packet received on EP0
	EventTransferComplete                  // Armed endpoint transfer finished
)

// String returns a human-readable event type name.
func (t EventType) String() string {
	switch t {
	case EventReset:
		return "reset"
	case EventSuspend:
		return "suspend"
	case EventResume:
		return "resume"
	case EventSetup:
		return "setup"
	case EventTransferComplete:
		return "transfer complete"
	default:
		return "unknown"
	}
}

// Event is a bus event delivered by the peripheral to the device core.
// Endpoint and Status are meaningful only for EventTransferComplete.
type Event struct {
	Type     EventType
	Endpoint Endpoint
	Status   pkg.TransferStatus
}

// Peripheral defines the contract between the device core and a USB
// device controller driver.
//
// The peripheral delivers bus events to the core one at a time; the core
// performs no locking between events and relies on the peripheral to
// serialize their delivery. None of the methods block.
type Peripheral interface {
	// ArmTransfer queues data to move on the given endpoint. For IN
	// endpoints the peripheral transmits t.Data split into max-packet-size
	// packets; for OUT endpoints t.Data is the receive buffer. When next
	// is non-nil the peripheral invokes it after t is consumed to continue
	// the transfer chunk by chunk.
	ArmTransfer(ep Endpoint, t *Transfer, next NextTransferFunc) error

	// MaxPacketSize returns the maximum packet size of the endpoint.
	MaxPacketSize(ep Endpoint) int

	// Setup copies the most recently received SETUP packet into out.
	// Valid only while processing an EventSetup.
	Setup(out *SetupPacket)

	// LastSetupDirection returns the endpoint carrying the data stage of
	// the most recent SETUP (EPIn0 or EPOut0).
	LastSetupDirection() Endpoint

	// ClearSetup acknowledges a SETUP with no data stage, allowing the
	// status stage to complete.
	ClearSetup()

	// ClearSetupData acknowledges the SETUP token while a data stage is
	// still in progress on EP0.
	ClearSetupData()

	// StallSetup answers the current control transfer with a protocol
	// stall.
	StallSetup()

	// PowerDetected reports whether bus power (VBUS) is present.
	PowerDetected() bool

	// DriveResume starts remote wakeup signaling on the bus.
	DriveResume()

	// StopResume stops remote wakeup signaling.
	StopResume()
}
