// Package services provides the business operations for steps, use cases and addons.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/stepwise/pkg/models"
	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/go-playground/validator/v10"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// Validation Errors (400 Bad Request).
	ErrInvalidRequest          = errors.New("invalid request")
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	ErrInvalidStatus           = errors.New("invalid status")
	ErrInvalidContent          = models.ErrInvalidContent
	ErrInvalidAddonStep        = persistence.ErrInvalidAddonStep
	ErrSelfReferencingAddon    = persistence.ErrSelfReferencingAddon
	ErrCircularAddon           = persistence.ErrCircularAddon
	ErrInvalidStatusTransition = persistence.ErrInvalidStatusTransition

	// Business Logic Conflicts (409 Conflict).
	ErrAddonAlreadyExists = persistence.ErrAddonAlreadyExists
)

var (
	// ErrStepNotFound is returned when a step is not found.
	ErrStepNotFound = persistence.ErrStepNotFound

	// ErrUseCaseNotFound is returned when a use case is not found.
	ErrUseCaseNotFound = persistence.ErrUseCaseNotFound

	// ErrAddonNotFound is returned when an addon is not found.
	ErrAddonNotFound = persistence.ErrAddonNotFound
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrRejectionReasonRequired) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidContent) ||
		errors.Is(err, ErrInvalidAddonStep) ||
		errors.Is(err, ErrSelfReferencingAddon) ||
		errors.Is(err, ErrCircularAddon) ||
		errors.Is(err, ErrInvalidStatusTransition)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrAddonAlreadyExists)
}

// IsNotFoundError checks if an error means the addressed entity does not exist (HTTP 404).
func IsNotFoundError(err error) bool {
	return persistence.IsNotFound(err)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// fromValidator turns a validator failure into an ErrInvalidRequest service error
// listing the offending fields.
func fromValidator(op string, err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return NewValidationError(op, "INVALID_REQUEST", err.Error(), ErrInvalidRequest)
	}

	fields := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		fields = append(fields, fmt.Sprintf("%s failed on '%s'", fieldErr.Namespace(), fieldErr.Tag()))
	}

	return NewValidationError(op, "VALIDATION_FAILED", strings.Join(fields, "; "), ErrInvalidRequest)
}
