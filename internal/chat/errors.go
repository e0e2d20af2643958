package chat

import "errors"

// Error taxonomy shared by every component. Callers classify failures with
// errors.Is; the HTTP layer maps each class to a distinct status code so
// clients can tell "fix your input" from "you may not do this" from
// "this no longer exists".
var (
	// ErrValidation marks missing or invalid input: empty message, missing
	// title or chat type, disallowed upload type or size.
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized marks an actor who is neither an active participant
	// of the session nor holds the manage-all capability.
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound marks a session or message id that does not exist.
	ErrNotFound = errors.New("not found")
)
