package device

import (
	"errors"
	"testing"

	"github.com/ardnew/usbdcore/pkg"
)

func TestStateMachineEnumerationPath(t *testing.T) {
	var m StateMachine

	if got := m.State(); got != StateDisabled {
		t.Fatalf("initial State() = %v, want %v", got, StateDisabled)
	}
	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Start(false); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if got := m.State(); got != StatePowered {
		t.Fatalf("State() = %v, want %v", got, StatePowered)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if err := m.SetAddressed(); err != nil {
		t.Fatalf("SetAddressed() error = %v", err)
	}
	if err := m.SetConfigured(true); err != nil {
		t.Fatalf("SetConfigured(true) error = %v", err)
	}
	if got := m.State(); got != StateConfigured {
		t.Fatalf("State() = %v, want %v", got, StateConfigured)
	}
	if err := m.SetConfigured(false); err != nil {
		t.Fatalf("SetConfigured(false) error = %v", err)
	}
	if got := m.State(); got != StateAddressed {
		t.Fatalf("State() = %v, want %v", got, StateAddressed)
	}
}

func TestStateMachineStartPowerDetected(t *testing.T) {
	var m StateMachine
	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Start(true); err != nil {
		t.Fatalf("Start(true) error = %v", err)
	}
	if got := m.State(); got != StateDefault {
		t.Fatalf("State() = %v, want %v", got, StateDefault)
	}
}

func TestStateMachineSuspendResume(t *testing.T) {
	var m StateMachine
	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Start(true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.SetAddressed(); err != nil {
		t.Fatalf("SetAddressed() error = %v", err)
	}
	if err := m.SetConfigured(true); err != nil {
		t.Fatalf("SetConfigured() error = %v", err)
	}

	if err := m.Suspend(); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	got := m.State()
	if !got.IsSuspended() || got.Base() != StateConfigured {
		t.Fatalf("suspended State() = %v, want suspended configured", got)
	}
	if err := m.Suspend(); !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("double Suspend() error = %v, want %v", err, pkg.ErrInvalidState)
	}

	if err := m.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	if got := m.State(); got != StateConfigured {
		t.Fatalf("resumed State() = %v, want %v", got, StateConfigured)
	}
	if err := m.Resume(); !errors.Is(err, pkg.ErrInvalidState) {
		t.Fatalf("Resume() when not suspended error = %v, want %v", err, pkg.ErrInvalidState)
	}
}

func TestStateMachineResetClearsSuspend(t *testing.T) {
	var m StateMachine
	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Start(true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Suspend(); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if got := m.State(); got != StateDefault {
		t.Fatalf("State() = %v, want %v", got, StateDefault)
	}
}

func TestStateMachineStopPreservesSuspend(t *testing.T) {
	var m StateMachine
	if err := m.Attach(); err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if err := m.Start(true); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := m.Suspend(); err != nil {
		t.Fatalf("Suspend() error = %v", err)
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if got := m.State(); got != StatePowered|StateSuspendedMask {
		t.Fatalf("State() = %v, want suspended powered", got)
	}
}

func TestStateMachineInvalidTransitions(t *testing.T) {
	tests := []struct {
		name  string
		state State
		event func(*StateMachine) error
	}{
		{"attach when attached", StateUnattached, (*StateMachine).Attach},
		{"detach when disabled", StateDisabled, (*StateMachine).Detach},
		{"start when disabled", StateDisabled, func(m *StateMachine) error { return m.Start(true) }},
		{"start when default", StateDefault, func(m *StateMachine) error { return m.Start(true) }},
		{"reset when unattached", StateUnattached, (*StateMachine).Reset},
		{"suspend when unattached", StateUnattached, (*StateMachine).Suspend},
		{"resume when not suspended", StateDefault, (*StateMachine).Resume},
		{"address when powered", StatePowered, (*StateMachine).SetAddressed},
		{"configure when default", StateDefault, func(m *StateMachine) error { return m.SetConfigured(true) }},
		{"configure when powered", StatePowered, func(m *StateMachine) error { return m.SetConfigured(true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := StateMachine{state: tt.state}
			if err := tt.event(&m); !errors.Is(err, pkg.ErrInvalidState) {
				t.Fatalf("error = %v, want %v", err, pkg.ErrInvalidState)
			}
			if got := m.State(); got != tt.state {
				t.Fatalf("State() = %v after failed event, want %v unchanged", got, tt.state)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisabled, "Disabled"},
		{StateDefault, "Default"},
		{StateConfigured, "Configured"},
		{StateConfigured | StateSuspendedMask, "Configured (Suspended)"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%#02x).String() = %q, want %q", uint8(tt.state), got, tt.want)
		}
	}
}
