package device

import (
	"sync"

	"github.com/ardnew/usbdcore/device/hal"
	"github.com/ardnew/usbdcore/pkg"
)

// Config carries the enumeration identity of the device, stamped into
// the device and configuration descriptors.
type Config struct {
	VendorID          uint16
	ProductID         uint16
	DeviceVersion     uint16 // BCD release number, see VersionBCD
	MaxPowerMilliAmps uint16
	SelfPowered       bool
	ManufacturerIndex uint8 // String descriptor indices, 0 = none
	ProductIndex      uint8
	SerialNumberIndex uint8
}

// Core drives USB enumeration and control transfers over EP0 for one
// device. It owns the device state machine, the standard request
// dispatcher, the configuration descriptor feeder, and the remote
// wakeup coordinator; classes and the peripheral driver plug in through
// the Registry and hal.Peripheral interfaces.
//
// The peripheral delivers bus events to HandleEvent one at a time. All
// other methods may be called from application context; the arm-then-
// register sequences they perform are serialized against event dispatch
// by an internal guard.
type Core struct {
	hal      hal.Peripheral
	registry *Registry
	strings  StringTable

	sm     StateMachine
	wakeup remoteWakeup

	// guard serializes arm-then-register sequences against the
	// completion events they race with. It stands in for the interrupt
	// masking a controller driver would use.
	guard      sync.Mutex
	ep0Handler SetupDataHandler

	featMutex sync.Mutex
	features  uint8 // feature selector bitmask set by SET_FEATURE

	deviceDesc DeviceDescriptor
	configDesc ConfigurationDescriptor

	feed     descriptorFeedCursor
	setupBuf [SetupTransferBufferSize]byte
	ep0      Endpoint // control endpoint halt bookkeeping
}

// New creates a device core bound to a peripheral driver, a class
// registry, and a string table. registry and strings may be nil for a
// device without classes or string descriptors.
func New(p hal.Peripheral, registry *Registry, strings StringTable, cfg Config) *Core {
	c := &Core{
		hal:      p,
		registry: registry,
		strings:  strings,
	}
	if c.registry == nil {
		c.registry = &Registry{}
	}
	c.feed.classIndex = -1

	ep0Size := uint16(p.MaxPacketSize(hal.EPOut0))
	c.deviceDesc = DeviceDescriptor{
		Length:            DeviceDescriptorSize,
		DescriptorType:    DescriptorTypeDevice,
		USBVersion:        VersionBCD(2, 0),
		MaxPacketSize0:    uint8(ep0Size),
		VendorID:          cfg.VendorID,
		ProductID:         cfg.ProductID,
		DeviceVersion:     cfg.DeviceVersion,
		ManufacturerIndex: cfg.ManufacturerIndex,
		ProductIndex:      cfg.ProductIndex,
		SerialNumberIndex: cfg.SerialNumberIndex,
		NumConfigurations: 1,
	}

	attrs := uint8(ConfigAttrBusPowered)
	if cfg.SelfPowered {
		attrs |= ConfigAttrSelfPowered
	}
	c.configDesc = ConfigurationDescriptor{
		Length:             ConfigurationDescriptorSize,
		DescriptorType:     DescriptorTypeConfiguration,
		ConfigurationValue: 1,
		Attributes:         attrs,
		MaxPower:           MaxPowerUnits(cfg.MaxPowerMilliAmps),
	}

	c.ep0 = Endpoint{
		Address:       0,
		Attributes:    EndpointTypeControl,
		MaxPacketSize: ep0Size,
	}
	return c
}

// Registry returns the class registry the core dispatches into.
func (c *Core) Registry() *Registry {
	return c.registry
}

// State returns the current device state.
func (c *Core) State() State {
	return c.sm.State()
}

// Attach makes the core operational: Disabled becomes Unattached.
func (c *Core) Attach() error {
	if err := c.sm.Attach(); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentCore, "device attached")
	return nil
}

// Detach shuts the core down: Unattached becomes Disabled. The device
// must be stopped first.
func (c *Core) Detach() error {
	if err := c.sm.Detach(); err != nil {
		return err
	}
	pkg.LogInfo(pkg.ComponentCore, "device detached")
	return nil
}

// Start connects to the bus. The device becomes Powered, or Default
// immediately when the peripheral already detects bus power.
func (c *Core) Start() error {
	return c.sm.Start(c.hal.PowerDetected())
}

// Stop disconnects from the bus, dropping the device back to Powered.
func (c *Core) Stop() error {
	return c.sm.Stop()
}

// HandleEvent processes one bus event from the peripheral. Events must
// be delivered serially; the core performs no locking between them.
func (c *Core) HandleEvent(ev hal.Event) error {
	switch ev.Type {
	case hal.EventReset:
		// A reset aborts any control transfer in flight.
		c.clearSetupDataHandler()
		return c.sm.Reset()
	case hal.EventSuspend:
		return c.sm.Suspend()
	case hal.EventResume:
		if c.wakeup.resumed() {
			c.hal.StopResume()
		}
		return c.sm.Resume()
	case hal.EventSetup:
		return c.handleSetup()
	case hal.EventTransferComplete:
		return c.handleTransferComplete(ev)
	default:
		return pkg.ErrNotSupported
	}
}

// RemoteWakeupRegister records that cls can generate a remote wakeup.
// While at least one class is registered the configuration descriptor
// advertises the capability.
func (c *Core) RemoteWakeupRegister(cls Class) {
	pkg.Assert(cls != nil, "nil class instance")
	c.wakeup.register()
}

// RemoteWakeupUnregister removes a previous registration by cls.
func (c *Core) RemoteWakeupUnregister(cls Class) {
	pkg.Assert(cls != nil, "nil class instance")
	c.wakeup.unregister()
}

// RemoteWakeupPend requests waking the host. It starts resume signaling
// and returns true at most once per suspend cycle, and only when the
// capability is registered and the host has enabled the feature.
func (c *Core) RemoteWakeupPend() bool {
	if !c.wakeup.pend(c.remoteWakeupEnabled()) {
		return false
	}
	pkg.LogInfo(pkg.ComponentWakeup, "driving resume signaling")
	c.hal.DriveResume()
	return true
}

// remoteWakeupEnabled reports whether the host enabled the remote
// wakeup feature.
func (c *Core) remoteWakeupEnabled() bool {
	c.featMutex.Lock()
	defer c.featMutex.Unlock()
	return c.features&(1<<FeatureDeviceRemoteWakeup) != 0
}

// setFeature records a SET_FEATURE or CLEAR_FEATURE state change.
func (c *Core) setFeature(selector uint8, on bool) {
	c.featMutex.Lock()
	defer c.featMutex.Unlock()
	if on {
		c.features |= 1 << selector
	} else {
		c.features &^= 1 << selector
	}
}
