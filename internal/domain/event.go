package domain

import (
	"encoding/json"
	"fmt"
)

// EventType discriminates the inbound order lifecycle events.
type EventType string

const (
	EventOrderConfirmation  EventType = "ORDER_CONFIRMATION"
	EventOrderStatusUpdated EventType = "ORDER_STATUS_UPDATED"
)

func (t EventType) Recognized() bool {
	switch t {
	case EventOrderConfirmation, EventOrderStatusUpdated:
		return true
	}
	return false
}

// OrderEvent is the decoded broker envelope. It is transient: it exists for
// one consume cycle and is never persisted verbatim.
//
// OrderID is a json.Number because upstream producers emit it as a bare
// numeric literal. Timestamp is kept as the raw string the producer sent;
// it is only ever echoed into message bodies, never compared or ordered.
type OrderEvent struct {
	Type        EventType   `json:"type"`
	OrderID     json.Number `json:"orderId"`
	UserEmail   string      `json:"userEmail"`
	TotalAmount float64     `json:"totalAmount,omitempty"`
	NewStatus   string      `json:"newStatus,omitempty"`
	Timestamp   string      `json:"timestamp"`
}

// DecodeOrderEvent unmarshals and validates a broker message body.
//
// Validation happens here, at decode time, so downstream handlers work with
// a checked value instead of probing fields one by one. An unrecognized type
// is NOT an error: the consumer acknowledges and ignores such events, so the
// decoded value is returned for the caller to inspect.
func DecodeOrderEvent(body []byte) (*OrderEvent, error) {
	var ev OrderEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if !ev.Type.Recognized() {
		return &ev, nil
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (e *OrderEvent) validate() error {
	if e.OrderID.String() == "" {
		return fmt.Errorf("%w: missing orderId", ErrMalformedEvent)
	}
	if e.UserEmail == "" {
		return fmt.Errorf("%w: missing userEmail", ErrMalformedEvent)
	}
	if e.Type == EventOrderStatusUpdated && e.NewStatus == "" {
		return fmt.Errorf("%w: missing newStatus", ErrMalformedEvent)
	}
	return nil
}
