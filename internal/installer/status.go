package installer

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of one install/uninstall operation.
type Status int32

const (
	// StatusIdle indicates an operation that has not started.
	StatusIdle Status = iota

	// StatusAwaitingTarget indicates an install suspended until the caller
	// picks a target section or cancels. Install only.
	StatusAwaitingTarget

	// StatusSubmitting indicates the upload/write-back pipeline is running.
	StatusSubmitting

	// StatusAwaitingConfirmation indicates the transaction was submitted and
	// the optimistic update applied; the receipt is being awaited.
	StatusAwaitingConfirmation

	// StatusConfirmed indicates the transaction receipt reported success.
	StatusConfirmed

	// StatusFailed indicates a synchronous failure, a reverted transaction,
	// or a receipt that never arrived.
	StatusFailed

	// StatusCanceled indicates the caller abandoned the operation at the
	// target-selection point. No side effects were performed.
	StatusCanceled

	// StatusAlreadyInstalled indicates an install request for an app the
	// grid already contains. A reported no-op, not an error.
	StatusAlreadyInstalled

	// StatusNotInstalled indicates an uninstall request for an app the grid
	// does not contain. A reported no-op, not an error.
	StatusNotInstalled
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusAwaitingTarget:
		return "awaiting-target"
	case StatusSubmitting:
		return "submitting"
	case StatusAwaitingConfirmation:
		return "awaiting-confirmation"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	case StatusAlreadyInstalled:
		return "already-installed"
	case StatusNotInstalled:
		return "not-installed"
	default:
		return fmt.Sprintf("status(%d)", s)
	}
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// IsTerminal reports whether the operation has settled.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusConfirmed, StatusFailed, StatusCanceled, StatusAlreadyInstalled, StatusNotInstalled:
		return true
	}
	return false
}
