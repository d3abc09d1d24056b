package device

import (
	"sync"

	"github.com/ardnew/usbdcore/pkg"
)

// StateMachine tracks the USB device state through enumeration and bus
// power events.
//
// Every transition method validates the current state first and returns
// pkg.ErrInvalidState, leaving the state untouched, when the event is not
// defined for it.
type StateMachine struct {
	state State
	mutex sync.Mutex
}

// State returns the current device state.
func (m *StateMachine) State() State {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.state
}

func (m *StateMachine) set(next State) {
	if m.state == next {
		return
	}
	pkg.LogDebug(pkg.ComponentState, "device state changed",
		"from", m.state.String(),
		"to", next.String())
	m.state = next
}

// Attach transitions Disabled to Unattached.
func (m *StateMachine) Attach() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state != StateDisabled {
		return pkg.ErrInvalidState
	}
	m.set(StateUnattached)
	return nil
}

// Detach transitions Unattached back to Disabled.
func (m *StateMachine) Detach() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state != StateUnattached {
		return pkg.ErrInvalidState
	}
	m.set(StateDisabled)
	return nil
}

// Start transitions Unattached to Powered, or directly to Default when
// bus power is already present.
func (m *StateMachine) Start(powerDetected bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state != StateUnattached {
		return pkg.ErrInvalidState
	}
	if powerDetected {
		m.set(StateDefault)
	} else {
		m.set(StatePowered)
	}
	return nil
}

// Stop drops an enumerating or operational device back to Powered,
// preserving the suspended modifier bit.
func (m *StateMachine) Stop() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	pkg.Assert(m.state.Base() > StatePowered, "stop in state at or below powered")
	if m.state.Base() <= StatePowered {
		return pkg.ErrInvalidState
	}
	m.set(StatePowered | (m.state & StateSuspendedMask))
	return nil
}

// Reset handles a bus reset: any state at or above Powered becomes
// Default, clearing the suspended modifier.
func (m *StateMachine) Reset() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state.Base() < StatePowered {
		return pkg.ErrInvalidState
	}
	m.set(StateDefault)
	return nil
}

// Suspend sets the suspended modifier bit. Valid for any state at or
// above Powered that is not already suspended.
func (m *StateMachine) Suspend() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.state.Base() < StatePowered || m.state.IsSuspended() {
		return pkg.ErrInvalidState
	}
	m.set(m.state | StateSuspendedMask)
	return nil
}

// Resume clears the suspended modifier bit, restoring the base state.
func (m *StateMachine) Resume() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if !m.state.IsSuspended() {
		return pkg.ErrInvalidState
	}
	m.set(m.state.Base())
	return nil
}

// SetAddressed records a SET_ADDRESS from the host. Valid in Default,
// Addressed, and Configured.
func (m *StateMachine) SetAddressed() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch m.state.Base() {
	case StateDefault, StateAddressed, StateConfigured:
		m.set(StateAddressed)
		return nil
	}
	return pkg.ErrInvalidState
}

// SetConfigured moves between Addressed and Configured in response to
// SET_CONFIGURATION. Valid only in Addressed or Configured.
func (m *StateMachine) SetConfigured(configured bool) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	switch m.state.Base() {
	case StateAddressed, StateConfigured:
	default:
		return pkg.ErrInvalidState
	}
	if configured {
		m.set(StateConfigured)
	} else {
		m.set(StateAddressed)
	}
	return nil
}
