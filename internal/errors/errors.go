package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for idempotent and lookup failures.
var (
	// ErrInvalidAmount is returned when a deposit amount is not positive
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAlreadyHandled signals that a deposit request has already been
	// resolved. It is an idempotent no-op marker, not a true failure.
	ErrAlreadyHandled = errors.New("deposit request already handled")

	// ErrNotFound is returned when an account or deposit request does not exist
	ErrNotFound = errors.New("not found")
)

// InsufficientBalanceError represents an activation blocked by balance
type InsufficientBalanceError struct {
	Required  float64
	Available float64
}

// Error returns the error message
func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, available %.2f", e.Required, e.Available)
}

// ProvisioningError represents a failed operation against the VPN panel.
// Err is set only for transport-level faults; a nil Err means the panel
// answered but declared the operation unsuccessful.
type ProvisioningError struct {
	Op     string
	Reason string
	Err    error
}

// Error returns the error message
func (e *ProvisioningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provisioning failed during %s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("provisioning failed during %s: %s", e.Op, e.Reason)
}

// Unwrap exposes the underlying transport fault, if any
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error when input validation fails
type ValidationError struct {
	Field   string
	Message string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}
