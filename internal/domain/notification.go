package domain

import "time"

// NotificationType identifies what produced a notification.
type NotificationType string

const (
	TypeOrderConfirmation NotificationType = "order_confirmation"
	TypeOrderStatus       NotificationType = "order_status"
	TypeManualEmail       NotificationType = "manual_email"
)

// Status tracks the lifecycle of a notification.
// A record starts in processing and moves exactly once to sent or failed;
// both are terminal.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusSent || s == StatusFailed
}

// Notification is the durable unit of work tracking one delivery attempt.
// SentAt is set iff status=sent; ErrorMessage is set iff status=failed.
// Records are never deleted; they accumulate for statistics.
type Notification struct {
	ID           string           `json:"id"`
	Type         NotificationType `json:"type"`
	ToEmail      string           `json:"to_email"`
	Subject      string           `json:"subject"`
	Status       Status           `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
	SentAt       *time.Time       `json:"sent_at,omitempty"`
	ErrorMessage *string          `json:"error_message,omitempty"`
}

// Stats is a point-in-time aggregate over all stored notifications.
// Invariant: Sent + Failed + Processing == Total.
type Stats struct {
	Total      int `json:"total"`
	Sent       int `json:"sent"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
}

// SendEmailRequest is the inbound payload for a manually triggered email.
type SendEmailRequest struct {
	ToEmail      string `json:"to_email"`
	Subject      string `json:"subject"`
	Message      string `json:"message"`
	TemplateType string `json:"template_type"`
}

func (r *SendEmailRequest) Validate() error {
	if r.ToEmail == "" {
		return ErrInvalidRecipient
	}
	if r.Subject == "" {
		return ErrInvalidSubject
	}
	if r.Message == "" {
		return ErrInvalidMessage
	}
	if r.TemplateType == "" {
		r.TemplateType = "default"
	}
	return nil
}
