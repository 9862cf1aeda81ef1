package api

import "errors"

// Sentinel errors for the expected failure modes of the credential/session
// lifecycle. Handlers translate them to 4xx responses; anything else is a 500.
var (
	// ErrConflict signals a registration against an already-used email.
	ErrConflict = errors.New("account with this email already exists")

	// ErrUnauthenticated covers both unknown email and wrong password so the
	// two cases are indistinguishable to callers.
	ErrUnauthenticated = errors.New("invalid credentials")

	// ErrAccountDisabled signals a login against a deactivated account.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrNotFound signals a lookup for a user that does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrInvalidToken covers malformed, tampered and expired session tokens
	// uniformly. The distinction is logged, never surfaced.
	ErrInvalidToken = errors.New("invalid or expired token")
)
