package sim

import (
	"sync"

	"github.com/ardnew/usbdcore/device/hal"
	"github.com/ardnew/usbdcore/pkg"
)

// HAL is an in-memory hal.Peripheral implementation for tests and
// examples. It records armed transfers and control-stage outcomes, and
// plays the host side of the bus: DrainIn consumes an armed IN transfer
// the way a host controller would, splitting it into max-packet-size
// packets and pulling follow-up chunks through the transfer's feeder.
type HAL struct {
	mutex sync.Mutex

	maxPacket     int
	powerDetected bool

	setup    hal.SetupPacket
	setupDir hal.Endpoint

	armed []armedTransfer

	setupCleared     int
	setupDataCleared int
	stallCount       int
	stalled          bool
	resumeDriving    bool
}

type armedTransfer struct {
	ep   hal.Endpoint
	data []byte
	next hal.NextTransferFunc
}

// Compile-time interface check.
var _ hal.Peripheral = (*HAL)(nil)

// New creates a simulated peripheral with a 64-byte control endpoint.
func New() *HAL {
	return &HAL{maxPacket: 64}
}

// SetMaxPacketSize overrides the control endpoint packet size. Call it
// before any traffic is simulated.
func (h *HAL) SetMaxPacketSize(n int) {
	h.maxPacket = n
}

// SetPowerDetected sets the simulated VBUS state.
func (h *HAL) SetPowerDetected(present bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.powerDetected = present
}

// ArmTransfer records a transfer for the endpoint. It fails with
// pkg.ErrBusy while a previous transfer on the same endpoint has not
// been drained.
func (h *HAL) ArmTransfer(ep hal.Endpoint, t *hal.Transfer, next hal.NextTransferFunc) error {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for _, a := range h.armed {
		if a.ep == ep {
			return pkg.ErrBusy
		}
	}
	h.armed = append(h.armed, armedTransfer{ep: ep, data: t.Data, next: next})
	pkg.LogDebug(pkg.ComponentHAL, "transfer armed",
		"endpoint", ep.String(), "bytes", len(t.Data))
	return nil
}

// MaxPacketSize returns the endpoint packet size.
func (h *HAL) MaxPacketSize(ep hal.Endpoint) int {
	return h.maxPacket
}

// Setup copies the current SETUP packet into out.
func (h *HAL) Setup(out *hal.SetupPacket) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	*out = h.setup
}

// LastSetupDirection returns the data stage endpoint of the current
// SETUP.
func (h *HAL) LastSetupDirection() hal.Endpoint {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.setupDir
}

// ClearSetup acknowledges a SETUP with no data stage.
func (h *HAL) ClearSetup() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.setupCleared++
}

// ClearSetupData acknowledges the SETUP token with a data stage armed.
func (h *HAL) ClearSetupData() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.setupDataCleared++
}

// StallSetup answers the control transfer with a protocol stall and
// discards anything armed on EP0.
func (h *HAL) StallSetup() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.stallCount++
	h.stalled = true
	kept := h.armed[:0]
	for _, a := range h.armed {
		if a.ep.Number() != 0 {
			kept = append(kept, a)
		}
	}
	h.armed = kept
}

// PowerDetected reports the simulated VBUS state.
func (h *HAL) PowerDetected() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.powerDetected
}

// DriveResume starts simulated resume signaling.
func (h *HAL) DriveResume() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.resumeDriving = true
}

// StopResume stops simulated resume signaling.
func (h *HAL) StopResume() {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.resumeDriving = false
}

// Host-side hooks for tests and examples.

// BeginSetup latches a SETUP packet and clears the stall condition, as
// receiving a SETUP token does on hardware. The caller delivers the
// matching hal.EventSetup to the core.
func (h *HAL) BeginSetup(sp hal.SetupPacket) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.setup = sp
	h.setupDir = sp.DataDirection()
	h.stalled = false
}

// Armed reports whether a transfer is pending on the endpoint.
func (h *HAL) Armed(ep hal.Endpoint) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for _, a := range h.armed {
		if a.ep == ep {
			return true
		}
	}
	return false
}

// take removes and returns the armed transfer for the endpoint.
func (h *HAL) take(ep hal.Endpoint) (armedTransfer, bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for i, a := range h.armed {
		if a.ep == ep {
			h.armed = append(h.armed[:i], h.armed[i+1:]...)
			return a, true
		}
	}
	return armedTransfer{}, false
}

// DrainIn consumes the armed IN transfer on the endpoint as a host
// requesting limit bytes would: packets are read while they arrive
// full-sized and the requested count has not been reached, pulling
// continuation chunks through the transfer's feeder. It returns the
// received bytes and whether the stream was terminated by a
// zero-length packet.
func (h *HAL) DrainIn(ep hal.Endpoint, limit int) ([]byte, bool, error) {
	a, ok := h.take(ep)
	if !ok {
		return nil, false, pkg.ErrInternal
	}

	var out []byte
	zlp := false
	received := 0
	cur := a.data
	for {
		take := cur
		if received+len(take) > limit {
			take = take[:limit-received]
		}
		out = append(out, take...)
		received += len(take)
		if received >= limit {
			break
		}
		if len(cur) == 0 || len(cur)%h.maxPacket != 0 {
			// A short packet ends the data stage.
			break
		}
		if a.next == nil {
			break
		}
		var nt hal.Transfer
		if !a.next(&nt) {
			break
		}
		if len(nt.Data) == 0 {
			zlp = true
			break
		}
		cur = nt.Data
	}
	return out, zlp, nil
}

// SetupCleared returns how many control transfers were acknowledged
// without a data stage handler.
func (h *HAL) SetupCleared() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.setupCleared
}

// SetupDataCleared returns how many control transfers were acknowledged
// with a data stage armed.
func (h *HAL) SetupDataCleared() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.setupDataCleared
}

// Stalled reports whether the current control transfer was answered
// with a protocol stall.
func (h *HAL) Stalled() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.stalled
}

// StallCount returns the total number of protocol stalls issued.
func (h *HAL) StallCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.stallCount
}

// ResumeDriving reports whether resume signaling is being driven.
func (h *HAL) ResumeDriving() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.resumeDriving
}

// EventSink receives bus events; device.Core.HandleEvent satisfies it.
type EventSink func(hal.Event) error

// ControlIn runs a complete IN control transfer against sink: it latches
// the SETUP, delivers the setup event, drains the armed data stage, and
// delivers the completion event. It returns the data stage bytes and
// whether a zero-length packet terminated them. A dispatch error is
// returned as-is with the device already stalled.
func (h *HAL) ControlIn(sink EventSink, sp hal.SetupPacket) ([]byte, bool, error) {
	h.BeginSetup(sp)
	if err := sink(hal.Event{Type: hal.EventSetup}); err != nil {
		return nil, false, err
	}
	data, zlp, err := h.DrainIn(hal.EPIn0, int(sp.Length))
	if err != nil {
		return nil, false, err
	}
	err = sink(hal.Event{
		Type:     hal.EventTransferComplete,
		Endpoint: hal.EPIn0,
		Status:   pkg.TransferStatusSuccess,
	})
	return data, zlp, err
}

// ControlNoData runs a control transfer without a data stage against
// sink.
func (h *HAL) ControlNoData(sink EventSink, sp hal.SetupPacket) error {
	h.BeginSetup(sp)
	return sink(hal.Event{Type: hal.EventSetup})
}
