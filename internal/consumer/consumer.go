// Package consumer maintains the durable subscription to the order event
// queue and routes decoded events into the dispatcher.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/orderpulse/notification-service/internal/domain"
)

const (
	// QueueName is the durable queue carrying order lifecycle events.
	QueueName = "notification_events"
	// DeadLetterQueue receives message bodies that could not be decoded.
	// Poison messages are parked there for inspection instead of being
	// silently dropped.
	DeadLetterQueue = "notification_events.dlq"
)

// Dispatch is the subset of the dispatcher the consumer needs.
type Dispatch interface {
	HandleOrderCreated(ctx context.Context, ev *domain.OrderEvent) error
	HandleOrderStatus(ctx context.Context, ev *domain.OrderEvent) error
}

// publisher is the subset of *amqp.Channel used to park poison messages.
// Narrowing it to an interface lets tests drive the dead-letter path
// without a live channel.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// MetricHooks carries the metric callbacks injected by main.
type MetricHooks struct {
	OnConsumed  func(eventType string)
	OnMalformed func()
	OnReconnect func()
}

// Consumer owns one AMQP connection at a time. When the connection drops it
// waits a backoff interval (with jitter) and reconnects, indefinitely. The
// retry is a plain loop: call depth never grows no matter how long the
// broker stays down.
type Consumer struct {
	url        string
	dispatcher Dispatch
	backoff    time.Duration
	logger     *zap.Logger
	hooks      MetricHooks
}

func New(url string, dispatcher Dispatch, backoff time.Duration, logger *zap.Logger, hooks MetricHooks) *Consumer {
	if hooks.OnConsumed == nil {
		hooks.OnConsumed = func(string) {}
	}
	if hooks.OnMalformed == nil {
		hooks.OnMalformed = func() {}
	}
	if hooks.OnReconnect == nil {
		hooks.OnReconnect = func() {}
	}
	return &Consumer{
		url:        url,
		dispatcher: dispatcher,
		backoff:    backoff,
		logger:     logger,
		hooks:      hooks,
	}
}

// Run blocks until ctx is cancelled. Each iteration establishes a connection
// and consumes until it fails; connection faults are never fatal.
func (c *Consumer) Run(ctx context.Context) {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.logger.Info("consumer stopping")
			return
		}

		c.hooks.OnReconnect()
		wait := c.backoff + time.Duration(rand.Int63n(int64(c.backoff)/2+1))
		c.logger.Warn("broker connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("backoff", wait),
		)

		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			return
		case <-time.After(wait):
		}
	}
}

// consume dials the broker, declares the queues, and processes deliveries
// sequentially until the context is cancelled or the connection drops.
func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueName, err)
	}
	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", DeadLetterQueue, err)
	}

	deliveries, err := ch.Consume(QueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	c.logger.Info("started consuming notification events", zap.String("queue", QueueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handle(ctx, ch, d)
		}
	}
}

// handle decodes one delivery, routes it, and acknowledges it.
//
// The message is acknowledged in every outcome. Handler-level failures are
// recorded in the status store, not surfaced to the broker as a nack:
// redelivering an event whose email already went out would double-send, and
// redelivering one that failed because the store is down would fail the same
// way. Malformed bodies are parked on the dead-letter queue before the ack.
func (c *Consumer) handle(ctx context.Context, pub publisher, d amqp.Delivery) {
	ev, err := domain.DecodeOrderEvent(d.Body)
	if err != nil {
		c.logger.Warn("dropping malformed event", zap.Error(err))
		c.deadLetter(ctx, pub, d.Body)
		c.hooks.OnMalformed()
		c.ack(d)
		return
	}

	c.route(ctx, ev)
	c.hooks.OnConsumed(consumedLabel(ev.Type))
	c.ack(d)
}

// consumedLabel collapses unrecognized event types into a single metric
// label so arbitrary queue traffic cannot grow the label set.
func consumedLabel(t domain.EventType) string {
	if t.Recognized() {
		return string(t)
	}
	return "unknown"
}

// route maps the event type to a dispatcher call. Unrecognized types are
// expected (other services share the queue's vocabulary) and ignored.
func (c *Consumer) route(ctx context.Context, ev *domain.OrderEvent) {
	c.logger.Info("processing notification event", zap.String("event_type", string(ev.Type)))

	var err error
	switch ev.Type {
	case domain.EventOrderConfirmation:
		err = c.dispatcher.HandleOrderCreated(ctx, ev)
	case domain.EventOrderStatusUpdated:
		err = c.dispatcher.HandleOrderStatus(ctx, ev)
	default:
		c.logger.Warn("unknown event type", zap.String("event_type", string(ev.Type)))
		return
	}
	if err != nil {
		c.logger.Error("event handling failed",
			zap.String("event_type", string(ev.Type)),
			zap.String("order_id", ev.OrderID.String()),
			zap.Error(err),
		)
	}
}

func (c *Consumer) deadLetter(ctx context.Context, pub publisher, body []byte) {
	err := pub.PublishWithContext(ctx, "", DeadLetterQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		c.logger.Error("failed to dead-letter message", zap.Error(err))
	}
}

func (c *Consumer) ack(d amqp.Delivery) {
	if err := d.Ack(false); err != nil {
		c.logger.Error("failed to ack message", zap.Error(err))
	}
}
