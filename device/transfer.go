package device

import (
	"github.com/ardnew/usbdcore/device/hal"
	"github.com/ardnew/usbdcore/pkg"
)

// SetupDataHandler is invoked from the event-dispatch context when the
// EP0 data stage armed alongside it completes. The slot holding the
// handler is cleared before invocation, so a handler may register a
// successor for a follow-up data stage.
type SetupDataHandler func(status pkg.TransferStatus) error

// emptySetupDataHandler finishes a data stage that needs no further
// processing, propagating a failed or aborted completion so the control
// transfer is stalled instead of acknowledged.
func emptySetupDataHandler(status pkg.TransferStatus) error {
	return status.Error()
}

// SetupTransferBuffer returns the shared EP0 staging buffer. Its
// contents are valid only until the next SETUP is processed.
func (c *Core) SetupTransferBuffer() []byte {
	return c.setupBuf[:]
}

// setupDataTransferLocked arms an EP0 data stage. Caller holds c.guard.
func (c *Core) setupDataTransferLocked(ep hal.Endpoint, t *hal.Transfer, next hal.NextTransferFunc) error {
	switch c.sm.State().Base() {
	case StateDefault, StateAddressed, StateConfigured:
	default:
		return pkg.ErrInvalidState
	}
	return c.hal.ArmTransfer(ep, t, next)
}

// setupDataHandlerSetLocked registers the EP0 completion handler.
// Caller holds c.guard.
func (c *Core) setupDataHandlerSetLocked(ep hal.Endpoint, h SetupDataHandler) error {
	if c.hal.LastSetupDirection() != ep {
		return pkg.ErrInvalidAddress
	}
	c.ep0Handler = h
	return nil
}

// SetupDataTransfer arms the data stage of the current control transfer
// on EP0. Valid only while the device is in Default, Addressed, or
// Configured.
func (c *Core) SetupDataTransfer(ep hal.Endpoint, t *hal.Transfer, next hal.NextTransferFunc) error {
	c.guard.Lock()
	defer c.guard.Unlock()
	return c.setupDataTransferLocked(ep, t, next)
}

// SetupDataHandlerSet registers h to be called when the armed EP0 data
// stage completes. The endpoint must match the data direction of the
// current SETUP or registration fails with pkg.ErrInvalidAddress.
// Registration is only meaningful immediately after arming the stage;
// use SetupDataTransferWithHandler to do both as one atomic step.
func (c *Core) SetupDataHandlerSet(ep hal.Endpoint, h SetupDataHandler) error {
	c.guard.Lock()
	defer c.guard.Unlock()
	return c.setupDataHandlerSetLocked(ep, h)
}

// SetupDataTransferWithHandler arms an EP0 data stage and registers its
// completion handler without letting the completion event run between
// the two steps.
func (c *Core) SetupDataTransferWithHandler(ep hal.Endpoint, t *hal.Transfer, next hal.NextTransferFunc, h SetupDataHandler) error {
	c.guard.Lock()
	defer c.guard.Unlock()
	if err := c.setupDataTransferLocked(ep, t, next); err != nil {
		return err
	}
	return c.setupDataHandlerSetLocked(ep, h)
}

// EndpointTransfer arms a transfer on a data endpoint. Valid only while
// the device is Configured.
func (c *Core) EndpointTransfer(ep hal.Endpoint, t *hal.Transfer, next hal.NextTransferFunc) error {
	if c.sm.State().Base() != StateConfigured {
		return pkg.ErrInvalidState
	}
	return c.hal.ArmTransfer(ep, t, next)
}

// SetupResponse answers the data stage of an IN control request,
// truncating data to the host's requested length and terminating with a
// zero-length packet when the truncated response ends on a packet
// boundary.
func (c *Core) SetupResponse(setup *SetupPacket, data []byte) error {
	if !setup.IsDeviceToHost() {
		return pkg.ErrInvalidParameter
	}

	txSize := len(data)
	if int(setup.Length) < txSize {
		txSize = int(setup.Length)
	}

	t := hal.Transfer{Data: data[:txSize]}
	var next hal.NextTransferFunc
	if zlpRequired(txSize, int(setup.Length), c.hal.MaxPacketSize(hal.EPIn0)) {
		next = OneZLP()
	}
	return c.SetupDataTransferWithHandler(hal.EPIn0, &t, next, emptySetupDataHandler)
}

// handlerArmed reports whether an EP0 completion handler is registered.
func (c *Core) handlerArmed() bool {
	c.guard.Lock()
	defer c.guard.Unlock()
	return c.ep0Handler != nil
}

// clearSetupDataHandler empties the EP0 handler slot.
func (c *Core) clearSetupDataHandler() {
	c.guard.Lock()
	c.ep0Handler = nil
	c.guard.Unlock()
}

// handleTransferComplete consumes the EP0 handler slot and finishes the
// control transfer: acknowledge the status stage on success, stall on
// error or when no handler was registered.
func (c *Core) handleTransferComplete(ev hal.Event) error {
	pkg.Assert(ev.Endpoint.Number() == 0, "transfer event on non-control endpoint")

	c.guard.Lock()
	h := c.ep0Handler
	c.ep0Handler = nil
	c.guard.Unlock()

	err := pkg.ErrInternal
	if h != nil {
		err = h(ev.Status)
	}
	if err != nil {
		pkg.LogWarn(pkg.ComponentTransfer, "setup data stage rejected",
			"status", ev.Status.String(), "error", err)
		c.hal.StallSetup()
		return err
	}
	if c.handlerArmed() {
		c.hal.ClearSetupData()
	} else {
		c.hal.ClearSetup()
	}
	return nil
}
