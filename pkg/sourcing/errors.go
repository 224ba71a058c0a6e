package sourcing

import (
	"errors"
	"fmt"
)

// DomainError is an error raised by the sourcing engine with a machine readable code
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeConflict            = "CONFLICT"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUnsupportedPlatform = "UNSUPPORTED_PLATFORM"
	ErrCodeTransientRemote     = "TRANSIENT_REMOTE"
)

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{Code: ErrCodeConflict, Message: msg}
}

// NewNotFoundError creates a new not found error for the named resource
func NewNotFoundError(resource string) error {
	return &DomainError{Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{Code: ErrCodeValidation, Message: msg}
}

// NewUnsupportedPlatformError is returned when no adapter is registered for a platform
func NewUnsupportedPlatformError(platform Platform) error {
	return &DomainError{
		Code:    ErrCodeUnsupportedPlatform,
		Message: fmt.Sprintf("platform '%s' has no registered adapter", platform),
	}
}

// NewTransientRemoteError wraps a failed remote platform call. Adapters absorb these.
func NewTransientRemoteError(platform Platform, err error) error {
	return &DomainError{
		Code:    ErrCodeTransientRemote,
		Message: fmt.Sprintf("remote call to '%s' failed", platform),
		Err:     err,
	}
}

// ErrorCode returns the domain code of err, or an empty string for infrastructure errors
func ErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return ErrorCode(err) == ErrCodeConflict
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return ErrorCode(err) == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	return ErrorCode(err) == ErrCodeValidation
}

// IsUnsupportedPlatform checks if the error is an unsupported platform error
func IsUnsupportedPlatform(err error) bool {
	return ErrorCode(err) == ErrCodeUnsupportedPlatform
}

// IsTransientRemote checks if the error is a transient remote error
func IsTransientRemote(err error) bool {
	return ErrorCode(err) == ErrCodeTransientRemote
}
