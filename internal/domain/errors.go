package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation groups every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrDuplicateEmail is returned by signup when the email is already registered.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials is returned when email/password do not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUnauthenticated is returned by cart operations without an owner.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrStorageCorrupt marks a stored record that could not be decoded.
	// It is logged by the kv layer and never returned from services.
	ErrStorageCorrupt = errors.New("storage corrupt")
	// ErrEmptyCart is returned by checkout when nothing is in the cart.
	ErrEmptyCart = errors.New("cart is empty")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// Is reports ErrValidation so callers can match any validation failure.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
