package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/orderpulse/notification-service/internal/domain"
	"github.com/orderpulse/notification-service/internal/store"
)

// ManualSender is what the service needs from the dispatcher.
type ManualSender interface {
	SendManual(ctx context.Context, req domain.SendEmailRequest) (string, error)
}

// NotificationService is the thin layer the HTTP handlers depend on.
// Manual sends go to the dispatcher; status and stats queries go straight
// to the status store.
type NotificationService struct {
	store  store.NotificationStore
	sender ManualSender
	logger *zap.Logger
}

func NewNotificationService(st store.NotificationStore, sender ManualSender, logger *zap.Logger) *NotificationService {
	return &NotificationService{store: st, sender: sender, logger: logger}
}

// SendManual queues a manually triggered email and returns its id.
func (s *NotificationService) SendManual(ctx context.Context, req domain.SendEmailRequest) (string, error) {
	return s.sender.SendManual(ctx, req)
}

// Status returns the current record for one notification id.
func (s *NotificationService) Status(ctx context.Context, id string) (*domain.Notification, error) {
	return s.store.Get(ctx, id)
}

// Stats aggregates every stored record into status counts.
func (s *NotificationService) Stats(ctx context.Context) (*domain.Stats, error) {
	records, err := s.store.ScanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}

	stats := &domain.Stats{Total: len(records)}
	for _, n := range records {
		switch n.Status {
		case domain.StatusSent:
			stats.Sent++
		case domain.StatusFailed:
			stats.Failed++
		case domain.StatusProcessing:
			stats.Processing++
		}
	}
	return stats, nil
}

// StoreHealthy reports whether the status store answers a ping.
func (s *NotificationService) StoreHealthy(ctx context.Context) bool {
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("status store ping failed", zap.Error(err))
		return false
	}
	return true
}
