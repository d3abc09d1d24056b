package device

import (
	"errors"
	"sync"

	"github.com/ardnew/usbdcore/pkg"
)

// Class is implemented by each function class attached to the device.
//
// A class contributes a block of descriptors (interface, endpoint, and any
// class-specific records) to the configuration descriptor, owns one or
// more interfaces, and handles control requests addressed to them.
type Class interface {
	// DescriptorBlock returns the class's contribution to the
	// configuration descriptor, already serialized in bus order. The
	// returned slice must remain valid and unchanged while the class is
	// registered.
	DescriptorBlock() []byte

	// InterfaceCount returns the number of interfaces the class owns.
	InterfaceCount() int

	// Interface returns the interface at the given index (0-based).
	Interface(index int) *Interface

	// HandleControl processes a control request addressed to the class.
	// Returning pkg.ErrNotSupported declines the request; any other
	// non-nil error stalls it.
	HandleControl(setup *SetupPacket) error
}

// ConfigurationObserver is implemented by classes that want to be told
// when the host selects or deselects the configuration.
type ConfigurationObserver interface {
	ConfigurationChanged(value uint8)
}

// StringTable resolves string descriptors by index and language ID.
// A nil return means the descriptor does not exist.
type StringTable interface {
	Lookup(index uint8, langID uint16) []byte
}

// Interface groups the endpoints of one USB interface owned by a class.
type Interface struct {
	// Descriptor data
	Number           uint8 // Interface number
	AlternateSetting uint8 // Current alternate setting
	Class            uint8 // Interface class
	SubClass         uint8 // Interface subclass
	Protocol         uint8 // Interface protocol
	StringIndex      uint8 // String descriptor index

	// Endpoints (excluding EP0) - fixed-size array for zero allocation
	endpoints     [MaxEndpointsPerInterface]*Endpoint
	endpointCount int
	mutex         sync.RWMutex
}

// NewInterface creates a new interface from a descriptor.
func NewInterface(desc *InterfaceDescriptor) *Interface {
	return &Interface{
		Number:           desc.InterfaceNumber,
		AlternateSetting: desc.AlternateSetting,
		Class:            desc.InterfaceClass,
		SubClass:         desc.InterfaceSubClass,
		Protocol:         desc.InterfaceProtocol,
		StringIndex:      desc.InterfaceIndex,
	}
}

// AddEndpoint adds an endpoint to the interface.
func (i *Interface) AddEndpoint(ep *Endpoint) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.endpointCount >= MaxEndpointsPerInterface {
		return pkg.ErrBufferTooSmall
	}

	// Check for duplicate address
	addr := ep.Address
	for idx := 0; idx < i.endpointCount; idx++ {
		if i.endpoints[idx].Address == addr {
			return pkg.ErrBusy
		}
	}

	i.endpoints[i.endpointCount] = ep
	i.endpointCount++

	pkg.LogDebug(pkg.ComponentCore, "endpoint added to interface",
		"interface", i.Number,
		"endpoint", addr,
		"type", TransferTypeName(ep.TransferType()))

	return nil
}

// GetEndpoint returns the endpoint with the given address.
func (i *Interface) GetEndpoint(address uint8) *Endpoint {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	for idx := 0; idx < i.endpointCount; idx++ {
		if i.endpoints[idx].Address == address {
			return i.endpoints[idx]
		}
	}
	return nil
}

// Endpoints returns all endpoints in the interface.
// The returned slice references internal storage; do not modify.
func (i *Interface) Endpoints() []*Endpoint {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.endpoints[:i.endpointCount]
}

// NumEndpoints returns the number of endpoints in the interface.
func (i *Interface) NumEndpoints() int {
	i.mutex.RLock()
	defer i.mutex.RUnlock()
	return i.endpointCount
}

// Descriptor returns the interface descriptor.
func (i *Interface) Descriptor() *InterfaceDescriptor {
	i.mutex.RLock()
	defer i.mutex.RUnlock()

	return &InterfaceDescriptor{
		Length:            InterfaceDescriptorSize,
		DescriptorType:    DescriptorTypeInterface,
		InterfaceNumber:   i.Number,
		AlternateSetting:  i.AlternateSetting,
		NumEndpoints:      uint8(i.endpointCount),
		InterfaceClass:    i.Class,
		InterfaceSubClass: i.SubClass,
		InterfaceProtocol: i.Protocol,
		InterfaceIndex:    i.StringIndex,
	}
}

// Registry holds the attached class instances in registration order.
// The order determines how class descriptor blocks are concatenated into
// the configuration descriptor and how unrouted requests are offered.
type Registry struct {
	classes [MaxClasses]Class
	count   int
	mutex   sync.RWMutex
}

// Register appends a class to the registry.
func (r *Registry) Register(c Class) error {
	if c == nil {
		return pkg.ErrInvalidParameter
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.count >= MaxClasses {
		return pkg.ErrBufferTooSmall
	}
	for idx := 0; idx < r.count; idx++ {
		if r.classes[idx] == c {
			return pkg.ErrBusy
		}
	}

	r.classes[r.count] = c
	r.count++

	pkg.LogDebug(pkg.ComponentCore, "class registered",
		"index", r.count-1,
		"interfaces", c.InterfaceCount())

	return nil
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.count
}

// Class returns the class at the given registration index, or nil if the
// index is out of range.
func (r *Registry) Class(index int) Class {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	if index < 0 || index >= r.count {
		return nil
	}
	return r.classes[index]
}

// ByInterface returns the class owning the interface with the given
// number, or nil if no class claims it.
func (r *Registry) ByInterface(number uint8) Class {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for idx := 0; idx < r.count; idx++ {
		c := r.classes[idx]
		for i := 0; i < c.InterfaceCount(); i++ {
			if iface := c.Interface(i); iface != nil && iface.Number == number {
				return c
			}
		}
	}
	return nil
}

// ByEndpoint returns the class owning the endpoint with the given
// address, or nil if no class claims it.
func (r *Registry) ByEndpoint(address uint8) Class {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for idx := 0; idx < r.count; idx++ {
		c := r.classes[idx]
		for i := 0; i < c.InterfaceCount(); i++ {
			iface := c.Interface(i)
			if iface == nil {
				continue
			}
			if iface.GetEndpoint(address) != nil {
				return c
			}
		}
	}
	return nil
}

// OfferControl offers a control request to every class in registration
// order until one accepts it. A class declines by returning
// pkg.ErrNotSupported; the first other result, nil or error, is final.
func (r *Registry) OfferControl(setup *SetupPacket) error {
	r.mutex.RLock()
	count := r.count
	var classes [MaxClasses]Class
	copy(classes[:], r.classes[:count])
	r.mutex.RUnlock()

	for idx := 0; idx < count; idx++ {
		err := classes[idx].HandleControl(setup)
		if !errors.Is(err, pkg.ErrNotSupported) {
			return err
		}
	}
	return pkg.ErrNotSupported
}
