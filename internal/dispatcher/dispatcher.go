package dispatcher

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderpulse/notification-service/internal/domain"
	"github.com/orderpulse/notification-service/internal/mailer"
	"github.com/orderpulse/notification-service/internal/ratelimiter"
	"github.com/orderpulse/notification-service/internal/store"
	"github.com/orderpulse/notification-service/internal/template"
)

// failedMessage is the error_message written when delivery gives up.
const failedMessage = "Failed to send email"

// Human-readable status lines for order status update emails.
var statusMessages = map[string]string{
	"confirmed":  "Tu pedido ha sido confirmado y está siendo preparado.",
	"processing": "Tu pedido está siendo procesado.",
	"shipped":    "Tu pedido ha sido enviado.",
	"delivered":  "Tu pedido ha sido entregado.",
	"cancelled":  "Tu pedido ha sido cancelado.",
}

const statusMessageFallback = "Tu pedido ha sido actualizado."

// MetricHooks carries the metric callback functions injected by main.
// Using a struct keeps the constructor signature clean; nil fields become
// no-ops so the dispatcher stays metrics-agnostic.
type MetricHooks struct {
	OnSent   func(t domain.NotificationType, latency time.Duration)
	OnFailed func(t domain.NotificationType)
}

// Dispatcher orchestrates one notification delivery: allocate an id, write
// the initial processing record, render the template, invoke the transport,
// and merge the terminal status back into the record.
//
// Every record moves processing → {sent, failed} exactly once; the initial
// write and the terminal write are independent field merges so neither can
// clobber the other.
type Dispatcher struct {
	store   store.NotificationStore
	mailer  mailer.Mailer
	limiter *ratelimiter.SendLimiter
	backoff []time.Duration
	logger  *zap.Logger
	hooks   MetricHooks
	clock   idClock

	// sem bounds concurrent transport calls so a slow SMTP server cannot
	// stall unrelated HTTP requests or queue messages.
	sem chan struct{}
	// wg tracks fire-and-forget manual deliveries for shutdown.
	wg sync.WaitGroup
}

func New(
	st store.NotificationStore,
	m mailer.Mailer,
	limiter *ratelimiter.SendLimiter,
	maxConcurrentSends int,
	retryBackoff []time.Duration,
	logger *zap.Logger,
	hooks MetricHooks,
) *Dispatcher {
	if hooks.OnSent == nil {
		hooks.OnSent = func(domain.NotificationType, time.Duration) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(domain.NotificationType) {}
	}
	if maxConcurrentSends < 1 {
		maxConcurrentSends = 1
	}
	return &Dispatcher{
		store:   st,
		mailer:  m,
		limiter: limiter,
		backoff: retryBackoff,
		logger:  logger,
		hooks:   hooks,
		sem:     make(chan struct{}, maxConcurrentSends),
	}
}

// HandleOrderCreated sends the order confirmation email for a new order.
// The returned error covers only the initial record write; delivery faults
// are terminal and land in the record, not in the return value.
func (d *Dispatcher) HandleOrderCreated(ctx context.Context, ev *domain.OrderEvent) error {
	id := fmt.Sprintf("order_conf_%s_%d", ev.OrderID, d.clock.next())
	subject := fmt.Sprintf("Confirmación de Pedido #%s", ev.OrderID)
	message := fmt.Sprintf(
		"Tu pedido #%s ha sido creado exitosamente.<br><br>Total: $%.2f<br>Fecha: %s<br><br>Te enviaremos actualizaciones sobre el estado de tu pedido.",
		ev.OrderID, ev.TotalAmount, ev.Timestamp,
	)

	n, err := d.createRecord(ctx, id, domain.TypeOrderConfirmation, ev.UserEmail, subject)
	if err != nil {
		return err
	}

	d.deliver(ctx, n, message, template.KindOrderConfirmation)
	d.logger.Info("processed order created event", zap.String("order_id", ev.OrderID.String()))
	return nil
}

// HandleOrderStatus sends the status update email for an existing order.
func (d *Dispatcher) HandleOrderStatus(ctx context.Context, ev *domain.OrderEvent) error {
	statusText, ok := statusMessages[ev.NewStatus]
	if !ok {
		statusText = statusMessageFallback
	}

	id := fmt.Sprintf("order_status_%s_%d", ev.OrderID, d.clock.next())
	subject := fmt.Sprintf("Actualización de Pedido #%s", ev.OrderID)
	message := fmt.Sprintf(
		"Estado actualizado: %s<br><br>%s<br><br>Pedido: #%s<br>Fecha de actualización: %s",
		strings.ToUpper(ev.NewStatus), statusText, ev.OrderID, ev.Timestamp,
	)

	n, err := d.createRecord(ctx, id, domain.TypeOrderStatus, ev.UserEmail, subject)
	if err != nil {
		return err
	}

	d.deliver(ctx, n, message, template.KindOrderStatus)
	d.logger.Info("processed order status event",
		zap.String("order_id", ev.OrderID.String()),
		zap.String("new_status", ev.NewStatus),
	)
	return nil
}

// SendManual creates the processing record synchronously and performs the
// delivery in the background, so the HTTP caller gets the id immediately and
// can poll for the outcome.
func (d *Dispatcher) SendManual(ctx context.Context, req domain.SendEmailRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	id := fmt.Sprintf("manual_%d", d.clock.next())
	n, err := d.createRecord(ctx, id, domain.TypeManualEmail, req.ToEmail, req.Subject)
	if err != nil {
		return "", err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		// Detached from the request context: the delivery outlives the
		// HTTP response. The mailer's own timeout bounds each attempt.
		d.deliver(context.Background(), n, req.Message, template.Kind(req.TemplateType))
	}()

	return id, nil
}

// Wait blocks until all in-flight background deliveries have finished.
// Called during shutdown after the HTTP server has stopped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) createRecord(ctx context.Context, id string, t domain.NotificationType, toEmail, subject string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:        id,
		Type:      t,
		ToEmail:   toEmail,
		Subject:   subject,
		Status:    domain.StatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification record: %w", err)
	}
	return n, nil
}

// deliver renders the message, sends it with bounded retries, and merges the
// terminal status into the record.
func (d *Dispatcher) deliver(ctx context.Context, n *domain.Notification, message string, kind template.Kind) {
	start := time.Now()
	log := d.logger.With(
		zap.String("notification_id", n.ID),
		zap.String("type", string(n.Type)),
	)

	body := template.Render(kind, message)

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-ctx.Done():
		d.markFailed(ctx, n, log)
		d.hooks.OnFailed(n.Type)
		return
	}

	err := d.sendWithRetry(ctx, n, body, log)
	if err != nil {
		log.Warn("email delivery failed", zap.Error(err))
		d.markFailed(ctx, n, log)
		d.hooks.OnFailed(n.Type)
		return
	}

	now := time.Now().UTC()
	if err := d.store.MarkSent(ctx, n.ID, now); err != nil {
		log.Error("failed to mark notification as sent", zap.Error(err))
		return
	}

	elapsed := time.Since(start)
	d.hooks.OnSent(n.Type, elapsed)
	log.Info("email sent",
		zap.String("to", n.ToEmail),
		zap.Duration("latency", elapsed),
	)
}

// sendWithRetry attempts the transport call, retrying transient failures
// after each configured backoff interval. Permanent failures and context
// cancellation stop the attempts immediately.
func (d *Dispatcher) sendWithRetry(ctx context.Context, n *domain.Notification, body string, log *zap.Logger) error {
	var err error
	for attempt := 0; ; attempt++ {
		if waitErr := d.limiter.Wait(ctx); waitErr != nil {
			return waitErr
		}

		err = d.mailer.Send(ctx, n.ToEmail, n.Subject, body)
		if err == nil {
			return nil
		}
		if mailer.IsPermanent(err) || attempt >= len(d.backoff) {
			return err
		}

		log.Warn("transient send failure, will retry",
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", d.backoff[attempt]),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.backoff[attempt]):
		}
	}
}

func (d *Dispatcher) markFailed(ctx context.Context, n *domain.Notification, log *zap.Logger) {
	// Use a fresh context so a cancelled delivery still records its outcome.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := d.store.MarkFailed(ctx, n.ID, failedMessage); err != nil {
		log.Error("failed to mark notification as failed", zap.Error(err))
	}
}
