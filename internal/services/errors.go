package services

import "errors"

// Sentinel errors for the service layer. Handlers map these onto HTTP
// statuses with errors.Is.
var (
	// ErrValidation reports a missing or malformed input field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for any failed login attempt.
	// Unknown usernames and wrong passwords deliberately produce the same
	// error so responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrForbidden is returned when a user attempts to mutate a post they
	// do not own.
	ErrForbidden = errors.New("forbidden")
)
