package store

import (
	"context"
	"time"

	"github.com/orderpulse/notification-service/internal/domain"
)

// NotificationStore defines all persistence operations for notification
// records. The Redis implementation is in redis_store.go. Tests use a
// hand-written mock (mock_store.go).
//
// MarkSent and MarkFailed are field-level merges into an existing record,
// never full overwrites: they must not clobber fields written by Create.
type NotificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Get(ctx context.Context, id string) (*domain.Notification, error)
	ScanAll(ctx context.Context) ([]*domain.Notification, error)
	Ping(ctx context.Context) error
}
