package repositories

import "errors"

// Sentinel errors returned by repository implementations. Services and
// handlers branch on these with errors.Is instead of matching message text.
var (
	// ErrNotFound is returned when a row with the requested id or key
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateUsername is returned when creating a user whose
	// username is already taken.
	ErrDuplicateUsername = errors.New("username already taken")
)
