package application

import "errors"

var (
	// ErrNotFound is returned when an operation references an unknown session,
	// participant or notification id.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidTransition is returned when an operation violates the session
	// lifecycle rules; the session is left untouched.
	ErrInvalidTransition = errors.New("application: invalid transition")
	// ErrInvalidCredentials is returned when operator authentication fails.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when an operator token has passed its TTL.
	ErrSessionExpired = errors.New("application: session expired")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
