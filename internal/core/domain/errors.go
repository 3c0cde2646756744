package domain

import (
	"errors"
	"fmt"
)

// --- DOMAIN ERRORS ---
var (
	// ErrValidation blocks a submission before any network call.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is returned by mutations attempted without a signed-in user.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrNetwork wraps transport failures (request never completed).
	ErrNetwork = errors.New("network error")

	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrMutationInFlight    = errors.New("a previous request for this item is still in flight")
	ErrProviderUnavailable = errors.New("identity provider does not support this sign-in method")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// Invalid builds a validation error carrying a human readable reason.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
