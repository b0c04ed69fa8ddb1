package mailer

import (
	"context"
	"errors"
)

// Mailer abstracts the delivery transport for outgoing email.
// Mocking this interface in tests gives full control over transport
// behaviour without touching a real SMTP server.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// PermanentError marks a transport failure that will not succeed on retry
// (bad recipient address, authentication rejection). The dispatcher retries
// transient errors but gives up immediately on permanent ones.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err (or anything it wraps) is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}
