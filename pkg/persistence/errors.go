// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrStepNotFound indicates a step was not found by the given identifier.
	ErrStepNotFound = errors.New("step not found")

	// ErrUseCaseNotFound indicates a use case was not found by the given identifier.
	ErrUseCaseNotFound = errors.New("use case not found")

	// ErrAddonNotFound indicates an addon was not found by the given identifier.
	ErrAddonNotFound = errors.New("addon not found")

	// ErrSelfReferencingAddon indicates an addon whose base and target are the same use case.
	ErrSelfReferencingAddon = errors.New("use case cannot be an addon of itself")

	// ErrCircularAddon indicates the addon would close a cycle in the addon graph.
	ErrCircularAddon = errors.New("addon would create a circular dependency")

	// ErrAddonAlreadyExists indicates the target is already attached to the base use case.
	ErrAddonAlreadyExists = errors.New("addon already exists")

	// ErrInvalidAddonStep indicates an addon step is neither a step pointer nor custom content.
	ErrInvalidAddonStep = errors.New("invalid addon step")

	// ErrInvalidStatusTransition indicates a status change the lifecycle does not allow.
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrTransactionFailed indicates a transaction could not be started or committed.
	ErrTransactionFailed = errors.New("transaction failed")
)

// EntityError wraps repository errors with the operation and entity they concern.
type EntityError struct {
	Op     string // Operation being performed (e.g., "Update", "Approve", "Create")
	Entity string // "step", "use case", "addon"
	ID     string // Entity ID if applicable
	Err    error  // Underlying error
}

func (e *EntityError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s operation failed for %s: %v", e.Op, e.Entity, e.Err)
	}

	return fmt.Sprintf("%s operation failed for %s %s: %v", e.Op, e.Entity, e.ID, e.Err)
}

func (e *EntityError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for entity errors.
func (e *EntityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStepError creates a step error with context.
func NewStepError(op, stepID string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "step", ID: stepID, Err: err}
}

// NewUseCaseError creates a use case error with context.
func NewUseCaseError(op, useCaseID string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "use case", ID: useCaseID, Err: err}
}

// NewAddonError creates an addon error with context.
func NewAddonError(op, addonID string, err error) *EntityError {
	return &EntityError{Op: op, Entity: "addon", ID: addonID, Err: err}
}

// IsStepNotFound checks if an error indicates a step was not found.
func IsStepNotFound(err error) bool {
	return errors.Is(err, ErrStepNotFound)
}

// IsUseCaseNotFound checks if an error indicates a use case was not found.
func IsUseCaseNotFound(err error) bool {
	return errors.Is(err, ErrUseCaseNotFound)
}

// IsAddonNotFound checks if an error indicates an addon was not found.
func IsAddonNotFound(err error) bool {
	return errors.Is(err, ErrAddonNotFound)
}

// IsNotFound checks if an error indicates any entity was not found.
func IsNotFound(err error) bool {
	return IsStepNotFound(err) || IsUseCaseNotFound(err) || IsAddonNotFound(err)
}
