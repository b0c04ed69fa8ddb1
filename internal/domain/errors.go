package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound         = errors.New("notification not found")
	ErrAlreadyExists    = errors.New("notification id already exists")
	ErrInvalidRecipient = errors.New("to_email must not be empty")
	ErrInvalidSubject   = errors.New("subject must not be empty")
	ErrInvalidMessage   = errors.New("message must not be empty")
	ErrMalformedEvent   = errors.New("malformed event")
)
