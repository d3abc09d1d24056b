package pkg

import "errors"

// Device core errors.
var (
	// ErrNotSupported indicates an unsupported request or feature. The
	// request dispatcher answers it with a protocol stall.
	ErrNotSupported = errors.New("not supported")

	// ErrInvalidState indicates the device state does not permit the
	// operation.
	ErrInvalidState = errors.New("invalid device state")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidAddress indicates a handler registration whose endpoint
	// does not match the data direction of the current SETUP.
	ErrInvalidAddress = errors.New("endpoint does not match setup direction")

	// ErrInternal indicates a request that reached no handler at all.
	ErrInternal = errors.New("internal error")

	// ErrBusy indicates the resource is busy.
	ErrBusy = errors.New("resource busy")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrTransferAborted indicates a transfer terminated before completion.
	ErrTransferAborted = errors.New("transfer aborted")

	// ErrTransferFailed indicates a transfer completed with a bus error.
	ErrTransferFailed = errors.New("transfer failed")
)

// TransferStatus represents the completion status of an endpoint transfer.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusSuccess TransferStatus = iota // Transfer completed successfully
	TransferStatusError                         // Transfer failed with a bus error
	TransferStatusAborted                       // Transfer aborted before completion
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSuccess:
		return "success"
	case TransferStatusError:
		return "error"
	case TransferStatusAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the transfer status.
func (s TransferStatus) Error() error {
	switch s {
	case TransferStatusSuccess:
		return nil
	case TransferStatusAborted:
		return ErrTransferAborted
	default:
		return ErrTransferFailed
	}
}
