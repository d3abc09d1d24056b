package pkg

import (
	"errors"
	"testing"
)

func TestTransferStatus_String(t *testing.T) {
	tests := []struct {
		status TransferStatus
		want   string
	}{
		{TransferStatusSuccess, "success"},
		{TransferStatusError, "error"},
		{TransferStatusAborted, "aborted"},
		{TransferStatus(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("TransferStatus.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferStatus_Error(t *testing.T) {
	tests := []struct {
		status  TransferStatus
		wantErr error
	}{
		{TransferStatusSuccess, nil},
		{TransferStatusError, ErrTransferFailed},
		{TransferStatusAborted, ErrTransferAborted},
		{TransferStatus(99), ErrTransferFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			err := tt.status.Error()
			if tt.wantErr == nil && err != nil {
				t.Errorf("TransferStatus.Error() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("TransferStatus.Error() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	errs := []error{
		ErrNotSupported,
		ErrInvalidState,
		ErrInvalidParameter,
		ErrInvalidAddress,
		ErrInternal,
		ErrBusy,
		ErrBufferTooSmall,
		ErrSetupPacketTooShort,
		ErrTransferAborted,
		ErrTransferFailed,
	}

	for i, err1 := range errs {
		if err1 == nil {
			t.Errorf("error %d is nil", i)
			continue
		}
		for j, err2 := range errs {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("error %d and %d are equal", i, j)
			}
		}
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err     error
		wantMsg string
	}{
		{ErrNotSupported, "not supported"},
		{ErrInvalidState, "invalid device state"},
		{ErrInvalidAddress, "endpoint does not match setup direction"},
		{ErrSetupPacketTooShort, "setup packet too short"},
	}

	for _, tt := range tests {
		t.Run(tt.wantMsg, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("error.Error() = %v, want %v", got, tt.wantMsg)
			}
		})
	}
}

func TestAssertDisabledByDefault(t *testing.T) {
	if AssertionsEnabled {
		t.Skip("built with usbdassert")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Assert panicked in a release build: %v", r)
		}
	}()
	Assert(false, "must not fire without the usbdassert tag")
}
