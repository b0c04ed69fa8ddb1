package mailer

import (
	"context"
	"fmt"
	"time"

	mail "github.com/wneessen/go-mail"
)

// SMTPMailer delivers email through a real SMTP server.
// Every send dials, authenticates, and delivers within the configured
// timeout so a slow or hung server cannot stall the caller indefinitely.
type SMTPMailer struct {
	client *mail.Client
	from   string
}

func NewSMTPMailer(host string, port int, username, password, from string, timeout time.Duration) (*SMTPMailer, error) {
	client, err := mail.NewClient(host,
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(username),
		mail.WithPassword(password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPMailer{client: client, from: from}, nil
}

// Send builds and delivers one HTML message.
// Address construction failures are permanent: retrying an unparseable
// recipient can never succeed. Dial and delivery failures are left
// unclassified and treated as transient by the caller.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return &PermanentError{Err: fmt.Errorf("invalid sender %q: %w", m.from, err)}
	}
	if err := msg.To(to); err != nil {
		return &PermanentError{Err: fmt.Errorf("invalid recipient %q: %w", to, err)}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

var _ Mailer = (*SMTPMailer)(nil)
