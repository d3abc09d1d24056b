package device

import (
	"github.com/ardnew/usbdcore/device/hal"
	"github.com/ardnew/usbdcore/pkg"
)

// handleSetup decodes the SETUP packet held by the peripheral, routes
// it, and finishes the control stage: acknowledge on success (deferring
// to the data stage when a completion handler was armed), stall on any
// error.
func (c *Core) handleSetup() error {
	var raw hal.SetupPacket
	c.hal.Setup(&raw)
	setup := SetupPacket{
		RequestType: raw.RequestType,
		Request:     raw.Request,
		Value:       raw.Value,
		Index:       raw.Index,
		Length:      raw.Length,
	}

	pkg.LogDebug(pkg.ComponentDispatch, "setup received", "packet", setup.String())

	// A handler left over from an interrupted control transfer is
	// superseded by the new SETUP.
	if c.handlerArmed() {
		pkg.LogDebug(pkg.ComponentDispatch, "discarding stale setup data handler")
		c.clearSetupDataHandler()
	}

	if err := c.dispatchSetup(&setup); err != nil {
		pkg.LogWarn(pkg.ComponentDispatch, "setup request rejected",
			"packet", setup.String(), "error", err)
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

// dispatchSetup routes a SETUP by recipient. Interface and endpoint
// requests go to the owning class; requests to recipient Other are
// offered to every class in registration order.
func (c *Core) dispatchSetup(setup *SetupPacket) error {
	switch setup.Recipient() {
	case RequestRecipientDevice:
		return c.handleDeviceRequest(setup)
	case RequestRecipientInterface:
		cls := c.registry.ByInterface(setup.InterfaceNumber())
		if cls == nil {
			return pkg.ErrNotSupported
		}
		return cls.HandleControl(setup)
	case RequestRecipientEndpoint:
		// The high byte of wIndex is reserved for endpoint requests.
		if setup.Index>>8 != 0 {
			return pkg.ErrNotSupported
		}
		if hal.Endpoint(setup.Index) == hal.EPOut0 {
			return c.handleControlEndpointRequest(setup)
		}
		cls := c.registry.ByEndpoint(setup.EndpointAddress())
		if cls == nil {
			return pkg.ErrNotSupported
		}
		return cls.HandleControl(setup)
	case RequestRecipientOther:
		return c.registry.OfferControl(setup)
	default:
		return pkg.ErrInternal
	}
}

// handleDeviceRequest handles standard requests addressed to the device.
func (c *Core) handleDeviceRequest(setup *SetupPacket) error {
	if !setup.IsStandard() {
		return pkg.ErrNotSupported
	}
	if setup.IsDeviceToHost() {
		return c.handleDeviceInRequest(setup)
	}
	return c.handleDeviceOutRequest(setup)
}

func (c *Core) handleDeviceInRequest(setup *SetupPacket) error {
	switch setup.Request {
	case RequestGetStatus:
		return c.respondDeviceStatus(setup)
	case RequestGetDescriptor:
		return c.respondDescriptor(setup)
	case RequestGetConfiguration:
		return c.respondConfigurationValue(setup)
	default:
		return pkg.ErrNotSupported
	}
}

func (c *Core) handleDeviceOutRequest(setup *SetupPacket) error {
	switch setup.Request {
	case RequestSetAddress:
		// The peripheral latches the address in hardware; only the
		// state change is tracked here.
		return c.sm.SetAddressed()
	case RequestSetFeature:
		return c.setDeviceFeature(setup)
	case RequestClearFeature:
		return c.clearDeviceFeature(setup)
	case RequestSetConfiguration:
		return c.setConfiguration(setup)
	default:
		return pkg.ErrNotSupported
	}
}

// respondDeviceStatus answers GET_STATUS with the self-powered and
// remote-wakeup-enabled bits.
func (c *Core) respondDeviceStatus(setup *SetupPacket) error {
	buf := c.setupBuf[:2]
	buf[0], buf[1] = 0, 0
	if c.configDesc.Attributes&ConfigAttrSelfPowered != 0 {
		buf[0] |= DeviceStatusSelfPowered
	}
	if c.remoteWakeupEnabled() {
		buf[0] |= DeviceStatusRemoteWakeup
	}
	return c.SetupResponse(setup, buf)
}

// respondDescriptor answers GET_DESCRIPTOR for the descriptor types the
// device itself owns.
func (c *Core) respondDescriptor(setup *SetupPacket) error {
	switch setup.DescriptorType() {
	case DescriptorTypeDevice:
		n := c.deviceDesc.MarshalTo(c.setupBuf[:])
		if n == 0 {
			return pkg.ErrBufferTooSmall
		}
		return c.SetupResponse(setup, c.setupBuf[:n])
	case DescriptorTypeConfiguration:
		if setup.DescriptorIndex() != 0 {
			return pkg.ErrNotSupported
		}
		return c.respondConfigurationDescriptor(setup)
	case DescriptorTypeString:
		if c.strings == nil {
			return pkg.ErrNotSupported
		}
		data := c.strings.Lookup(setup.DescriptorIndex(), setup.Index)
		if data == nil {
			return pkg.ErrNotSupported
		}
		return c.SetupResponse(setup, data)
	default:
		return pkg.ErrNotSupported
	}
}

// respondConfigurationValue answers GET_CONFIGURATION: 1 when
// configured, 0 when addressed.
func (c *Core) respondConfigurationValue(setup *SetupPacket) error {
	buf := c.setupBuf[:1]
	switch c.sm.State().Base() {
	case StateConfigured:
		buf[0] = 1
	case StateAddressed:
		buf[0] = 0
	default:
		return pkg.ErrInvalidState
	}
	return c.SetupResponse(setup, buf)
}

func (c *Core) setDeviceFeature(setup *SetupPacket) error {
	if setup.Value != FeatureDeviceRemoteWakeup {
		return pkg.ErrNotSupported
	}
	if !c.wakeup.active() {
		// The capability is not advertised without a registered user.
		return pkg.ErrNotSupported
	}
	c.setFeature(FeatureDeviceRemoteWakeup, true)
	return nil
}

func (c *Core) clearDeviceFeature(setup *SetupPacket) error {
	if setup.Value != FeatureDeviceRemoteWakeup {
		return pkg.ErrNotSupported
	}
	c.setFeature(FeatureDeviceRemoteWakeup, false)
	return nil
}

// setConfiguration handles SET_CONFIGURATION. Selecting the single
// supported configuration resynchronizes class endpoints; value 0
// returns the device to Addressed. Classes implementing
// ConfigurationObserver are notified after the state change.
func (c *Core) setConfiguration(setup *SetupPacket) error {
	switch c.sm.State().Base() {
	case StateAddressed, StateConfigured:
	default:
		return pkg.ErrInvalidState
	}

	value := uint8(setup.Value)
	switch value {
	case 0:
		if err := c.sm.SetConfigured(false); err != nil {
			return err
		}
	case 1:
		c.resyncEndpoints()
		if err := c.sm.SetConfigured(true); err != nil {
			return err
		}
	default:
		// Only one configuration exists.
		return pkg.ErrInvalidParameter
	}

	c.notifyConfiguration(value)
	return nil
}

// resyncEndpoints restores every non-isochronous class endpoint to its
// initial transfer state: data toggle DATA0, stall cleared.
func (c *Core) resyncEndpoints() {
	for i := 0; i < c.registry.Len(); i++ {
		cls := c.registry.Class(i)
		for j := 0; j < cls.InterfaceCount(); j++ {
			iface := cls.Interface(j)
			if iface == nil {
				continue
			}
			for _, ep := range iface.Endpoints() {
				if ep.IsIsochronous() {
					continue
				}
				if ep.DataToggle() {
					ep.SetDataToggle(false)
				}
				ep.SetStall(false)
			}
		}
	}
}

// notifyConfiguration tells interested classes the new configuration.
func (c *Core) notifyConfiguration(value uint8) {
	for i := 0; i < c.registry.Len(); i++ {
		if o, ok := c.registry.Class(i).(ConfigurationObserver); ok {
			o.ConfigurationChanged(value)
		}
	}
}

// handleControlEndpointRequest handles standard requests addressed to
// the control endpoint itself: halt status, set, and clear.
func (c *Core) handleControlEndpointRequest(setup *SetupPacket) error {
	if !setup.IsStandard() {
		return pkg.ErrNotSupported
	}

	if setup.IsDeviceToHost() {
		if setup.Request != RequestGetStatus {
			return pkg.ErrNotSupported
		}
		buf := c.setupBuf[:2]
		buf[0], buf[1] = 0, 0
		if c.ep0.IsStalled() {
			buf[0] |= EndpointStatusHalt
		}
		return c.SetupResponse(setup, buf)
	}

	switch setup.Request {
	case RequestSetFeature:
		if setup.Value != FeatureEndpointHalt {
			return pkg.ErrNotSupported
		}
		c.ep0.SetStall(true)
		return nil
	case RequestClearFeature:
		if setup.Value != FeatureEndpointHalt {
			return pkg.ErrNotSupported
		}
		c.ep0.SetStall(false)
		c.ep0.SetDataToggle(false)
		return nil
	default:
		return pkg.ErrNotSupported
	}
}
