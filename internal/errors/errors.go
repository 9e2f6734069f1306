package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the authentication core. Handlers map these to HTTP
// statuses; everything else is treated as an internal failure.
var (
	// Input errors
	ErrValidation       = errors.New("validation failed")
	ErrDuplicateAccount = errors.New("account already exists")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrTooManyAttempts    = errors.New("too many attempts")

	// OTP errors
	ErrNoChallenge = errors.New("no otp requested")
	ErrOTPExpired  = errors.New("otp expired")
	ErrOTPMismatch = errors.New("invalid otp")

	// Session and token errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrRevoked         = errors.New("refresh token revoked")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token expired")

	// Storage errors
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("concurrent modification")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
