package consumer

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/orderpulse/notification-service/internal/domain"
)

type fakeDispatch struct {
	created int
	status  int
	err     error
}

func (f *fakeDispatch) HandleOrderCreated(_ context.Context, _ *domain.OrderEvent) error {
	f.created++
	return f.err
}

func (f *fakeDispatch) HandleOrderStatus(_ context.Context, _ *domain.OrderEvent) error {
	f.status++
	return f.err
}

// fakeAcknowledger satisfies amqp.Acknowledger so deliveries can be built
// in tests without a live channel.
type fakeAcknowledger struct {
	acks  int
	nacks int
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error          { f.acks++; return nil }
func (f *fakeAcknowledger) Nack(_ uint64, _ bool, _ bool) error { f.nacks++; return nil }
func (f *fakeAcknowledger) Reject(_ uint64, _ bool) error       { f.nacks++; return nil }

type fakePublisher struct {
	keys   []string
	bodies [][]byte
	err    error
}

func (f *fakePublisher) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.bodies = append(f.bodies, msg.Body)
	return nil
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name        string
		eventType   domain.EventType
		wantCreated int
		wantStatus  int
	}{
		{"order confirmation", domain.EventOrderConfirmation, 1, 0},
		{"order status updated", domain.EventOrderStatusUpdated, 0, 1},
		{"unknown type is ignored", domain.EventType("FOO"), 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fd := &fakeDispatch{}
			c := New("amqp://unused", fd, time.Second, zap.NewNop(), MetricHooks{})

			c.route(context.Background(), &domain.OrderEvent{Type: tc.eventType})

			if fd.created != tc.wantCreated {
				t.Fatalf("HandleOrderCreated calls: want %d, got %d", tc.wantCreated, fd.created)
			}
			if fd.status != tc.wantStatus {
				t.Fatalf("HandleOrderStatus calls: want %d, got %d", tc.wantStatus, fd.status)
			}
		})
	}
}

func TestHandle_RecognizedEventDispatchedAndAcked(t *testing.T) {
	fd := &fakeDispatch{}
	pub := &fakePublisher{}
	var consumed []string
	hooks := MetricHooks{OnConsumed: func(eventType string) { consumed = append(consumed, eventType) }}
	c := New("amqp://unused", fd, time.Second, zap.NewNop(), hooks)

	ack := &fakeAcknowledger{}
	body := []byte(`{"type":"ORDER_CONFIRMATION","orderId":42,"userEmail":"ana@example.com","totalAmount":19.99}`)
	c.handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: body})

	if fd.created != 1 {
		t.Fatalf("HandleOrderCreated calls: want 1, got %d", fd.created)
	}
	if ack.acks != 1 {
		t.Fatalf("acks: want 1, got %d", ack.acks)
	}
	if len(pub.keys) != 0 {
		t.Fatalf("expected no dead-letter publish, got %v", pub.keys)
	}
	if len(consumed) != 1 || consumed[0] != string(domain.EventOrderConfirmation) {
		t.Fatalf("consumed labels: want [%s], got %v", domain.EventOrderConfirmation, consumed)
	}
}

// A delivery whose handler fails must still be acknowledged: the failure is
// already recorded in the status store, and redelivery would either
// double-send the email or fail identically.
func TestHandle_AcksWhenHandlerFails(t *testing.T) {
	fd := &fakeDispatch{err: errors.New("store down")}
	pub := &fakePublisher{}
	c := New("amqp://unused", fd, time.Second, zap.NewNop(), MetricHooks{})

	ack := &fakeAcknowledger{}
	body := []byte(`{"type":"ORDER_STATUS_UPDATED","orderId":7,"userEmail":"ana@example.com","newStatus":"shipped"}`)
	c.handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: body})

	if fd.status != 1 {
		t.Fatalf("HandleOrderStatus calls: want 1, got %d", fd.status)
	}
	if ack.acks != 1 {
		t.Fatalf("acks: want 1, got %d", ack.acks)
	}
	if ack.nacks != 0 {
		t.Fatalf("nacks: want 0, got %d", ack.nacks)
	}
	if len(pub.keys) != 0 {
		t.Fatalf("expected no dead-letter publish, got %v", pub.keys)
	}
}

// Malformed bodies are parked on the dead-letter queue verbatim, counted,
// and acknowledged so they never clog the main queue.
func TestHandle_MalformedBodyDeadLetteredAndAcked(t *testing.T) {
	fd := &fakeDispatch{}
	pub := &fakePublisher{}
	var malformed int
	hooks := MetricHooks{
		OnConsumed:  func(string) { t.Fatal("OnConsumed must not fire for a malformed body") },
		OnMalformed: func() { malformed++ },
	}
	c := New("amqp://unused", fd, time.Second, zap.NewNop(), hooks)

	ack := &fakeAcknowledger{}
	body := []byte(`{"type":"ORDER_CONFIRMATION"`)
	c.handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: body})

	if fd.created != 0 || fd.status != 0 {
		t.Fatalf("dispatcher must not be called for malformed bodies, got created=%d status=%d", fd.created, fd.status)
	}
	if len(pub.keys) != 1 || pub.keys[0] != DeadLetterQueue {
		t.Fatalf("dead-letter publishes: want [%s], got %v", DeadLetterQueue, pub.keys)
	}
	if !bytes.Equal(pub.bodies[0], body) {
		t.Fatalf("dead-lettered body differs from the original: %q", pub.bodies[0])
	}
	if malformed != 1 {
		t.Fatalf("OnMalformed calls: want 1, got %d", malformed)
	}
	if ack.acks != 1 {
		t.Fatalf("acks: want 1, got %d", ack.acks)
	}
}

// A well-formed event of a type the service does not handle is dropped but
// acknowledged, and counted under a single collapsed metric label.
func TestHandle_UnrecognizedTypeAckedAndCollapsed(t *testing.T) {
	fd := &fakeDispatch{}
	pub := &fakePublisher{}
	var consumed []string
	hooks := MetricHooks{OnConsumed: func(eventType string) { consumed = append(consumed, eventType) }}
	c := New("amqp://unused", fd, time.Second, zap.NewNop(), hooks)

	ack := &fakeAcknowledger{}
	body := []byte(`{"type":"INVENTORY_RESERVED","orderId":9,"userEmail":"ana@example.com"}`)
	c.handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: body})

	if fd.created != 0 || fd.status != 0 {
		t.Fatalf("dispatcher must not be called for unrecognized types, got created=%d status=%d", fd.created, fd.status)
	}
	if len(pub.keys) != 0 {
		t.Fatalf("expected no dead-letter publish, got %v", pub.keys)
	}
	if ack.acks != 1 {
		t.Fatalf("acks: want 1, got %d", ack.acks)
	}
	if len(consumed) != 1 || consumed[0] != "unknown" {
		t.Fatalf(`consumed labels: want ["unknown"], got %v`, consumed)
	}
}

// A dead-letter publish failure must not prevent the ack; the body is lost
// to the parking queue but logged, and the main queue keeps draining.
func TestHandle_AcksEvenWhenDeadLetterFails(t *testing.T) {
	pub := &fakePublisher{err: errors.New("channel closed")}
	c := New("amqp://unused", &fakeDispatch{}, time.Second, zap.NewNop(), MetricHooks{})

	ack := &fakeAcknowledger{}
	c.handle(context.Background(), pub, amqp.Delivery{Acknowledger: ack, Body: []byte(`not json`)})

	if ack.acks != 1 {
		t.Fatalf("acks: want 1, got %d", ack.acks)
	}
}

// The supervised loop must keep retrying on connection failure without
// crashing or growing the stack, and must stop promptly on cancellation.
func TestRun_RetriesAndStopsOnCancel(t *testing.T) {
	var reconnects atomic.Int64
	hooks := MetricHooks{OnReconnect: func() { reconnects.Add(1) }}

	// Nothing listens on this port, so every dial fails immediately.
	c := New("amqp://127.0.0.1:1", &fakeDispatch{}, 5*time.Millisecond, zap.NewNop(), hooks)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}

	if reconnects.Load() == 0 {
		t.Fatal("expected at least one reconnect attempt while the broker was unreachable")
	}
}
