package domain_test

import (
	"errors"
	"testing"

	"github.com/orderpulse/notification-service/internal/domain"
)

func TestDecodeOrderEvent_Confirmation(t *testing.T) {
	body := []byte(`{"type":"ORDER_CONFIRMATION","orderId":123,"userEmail":"a@b.com","totalAmount":49.99,"timestamp":"2024-01-01T00:00:00"}`)

	ev, err := domain.DecodeOrderEvent(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type != domain.EventOrderConfirmation {
		t.Fatalf("expected ORDER_CONFIRMATION, got %s", ev.Type)
	}
	if ev.OrderID.String() != "123" {
		t.Fatalf("expected orderId 123, got %s", ev.OrderID)
	}
	if ev.UserEmail != "a@b.com" {
		t.Fatalf("expected userEmail a@b.com, got %s", ev.UserEmail)
	}
	if ev.TotalAmount != 49.99 {
		t.Fatalf("expected totalAmount 49.99, got %f", ev.TotalAmount)
	}
}

func TestDecodeOrderEvent_StatusUpdate(t *testing.T) {
	body := []byte(`{"type":"ORDER_STATUS_UPDATED","orderId":7,"userEmail":"a@b.com","newStatus":"shipped","timestamp":"2024-01-02T00:00:00"}`)

	ev, err := domain.DecodeOrderEvent(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.NewStatus != "shipped" {
		t.Fatalf("expected newStatus shipped, got %s", ev.NewStatus)
	}
}

func TestDecodeOrderEvent_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"missing orderId", `{"type":"ORDER_CONFIRMATION","userEmail":"a@b.com"}`},
		{"missing userEmail", `{"type":"ORDER_CONFIRMATION","orderId":1}`},
		{"status update without newStatus", `{"type":"ORDER_STATUS_UPDATED","orderId":1,"userEmail":"a@b.com"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := domain.DecodeOrderEvent([]byte(tc.body))
			if !errors.Is(err, domain.ErrMalformedEvent) {
				t.Fatalf("expected ErrMalformedEvent, got %v", err)
			}
		})
	}
}

func TestDecodeOrderEvent_UnrecognizedTypeIsNotAnError(t *testing.T) {
	// Unknown event types are expected on the shared queue; they must
	// decode cleanly so the consumer can acknowledge and ignore them.
	ev, err := domain.DecodeOrderEvent([]byte(`{"type":"FOO"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Type.Recognized() {
		t.Fatalf("expected FOO to be unrecognized")
	}
}
