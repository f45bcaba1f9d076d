package domain

import "errors"

// Sentinel errors returned by the service layer. The HTTP layer maps these to
// status codes; anything not in this list is treated as an internal failure
// and never surfaced verbatim to clients.
var (
	// ErrInvalidInput covers malformed requests and password policy violations.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is an account lookup miss.
	ErrNotFound = errors.New("account not found")
	// ErrEmailTaken is returned when registering or updating to an email that
	// already belongs to another account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned for both unknown emails and wrong
	// passwords so login failures don't reveal which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrResetCodeInvalid uniformly covers unknown account, no pending code,
	// code mismatch and already-consumed code.
	ErrResetCodeInvalid = errors.New("invalid or expired reset code")
	// ErrResetCodeExpired is returned when the reset window has elapsed.
	ErrResetCodeExpired = errors.New("reset code expired")
	// ErrDeliveryFailed reports a failed reset mail send. The issued code
	// remains persisted and valid.
	ErrDeliveryFailed = errors.New("could not send reset email")
)
