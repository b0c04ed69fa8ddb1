package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/orderpulse/notification-service/internal/domain"
)

// keyPrefix namespaces every notification record in Redis.
// The full key for a record is "notification:<id>".
const keyPrefix = "notification:"

// Hash field names within a record.
const (
	fieldID           = "id"
	fieldType         = "type"
	fieldToEmail      = "to_email"
	fieldSubject      = "subject"
	fieldStatus       = "status"
	fieldCreatedAt    = "created_at"
	fieldSentAt       = "sent_at"
	fieldErrorMessage = "error_message"
)

// RedisStore persists notification records as Redis hashes, one hash per
// record. Point reads use HGETALL, which returns the whole hash atomically,
// so concurrent writers never expose a torn record.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// createScript claims the key and writes every field in one server-side
// step, so a record is never observable with only part of its fields and a
// crash between claim and write cannot leave a phantom id behind.
var createScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
	return 0
end
redis.call("HSET", KEYS[1], unpack(ARGV))
return 1
`)

// Create writes the full record atomically. A second Create for the same id
// gets ErrAlreadyExists and leaves the first record untouched.
func (s *RedisStore) Create(ctx context.Context, n *domain.Notification) error {
	created, err := createScript.Run(ctx, s.client, []string{keyPrefix + n.ID},
		fieldID, n.ID,
		fieldType, string(n.Type),
		fieldToEmail, n.ToEmail,
		fieldSubject, n.Subject,
		fieldStatus, string(n.Status),
		fieldCreatedAt, n.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Int()
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	if created == 0 {
		return domain.ErrAlreadyExists
	}
	return nil
}

// MarkSent merges the terminal sent status into an existing record.
func (s *RedisStore) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	return s.merge(ctx, id,
		fieldStatus, string(domain.StatusSent),
		fieldSentAt, sentAt.UTC().Format(time.RFC3339Nano),
	)
}

// MarkFailed merges the terminal failed status into an existing record.
func (s *RedisStore) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return s.merge(ctx, id,
		fieldStatus, string(domain.StatusFailed),
		fieldErrorMessage, errMsg,
	)
}

func (s *RedisStore) merge(ctx context.Context, id string, fieldValues ...string) error {
	key := keyPrefix + id

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check notification exists: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	args := make([]interface{}, len(fieldValues))
	for i, v := range fieldValues {
		args[i] = v
	}
	if err := s.client.HSet(ctx, key, args...).Err(); err != nil {
		return fmt.Errorf("merge notification fields: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*domain.Notification, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("read notification: %w", err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return recordFromHash(fields)
}

// ScanAll walks the notification keyspace with SCAN and fetches each record
// with HGETALL. Each record is read whole; records created mid-scan may or
// may not be included, which is acceptable for aggregation.
func (s *RedisStore) ScanAll(ctx context.Context) ([]*domain.Notification, error) {
	var out []*domain.Notification

	iter := s.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		fields, err := s.client.HGetAll(ctx, iter.Val()).Result()
		if err != nil {
			return nil, fmt.Errorf("read notification %s: %w", iter.Val(), err)
		}
		if len(fields) == 0 {
			continue // expired or deleted between SCAN and HGETALL
		}
		n, err := recordFromHash(fields)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func recordFromHash(fields map[string]string) (*domain.Notification, error) {
	n := &domain.Notification{
		ID:      fields[fieldID],
		Type:    domain.NotificationType(fields[fieldType]),
		ToEmail: fields[fieldToEmail],
		Subject: fields[fieldSubject],
		Status:  domain.Status(fields[fieldStatus]),
	}

	if v := fields[fieldCreatedAt]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", n.ID, err)
		}
		n.CreatedAt = t
	}
	if v := fields[fieldSentAt]; v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("parse sent_at for %s: %w", n.ID, err)
		}
		n.SentAt = &t
	}
	if v := fields[fieldErrorMessage]; v != "" {
		n.ErrorMessage = &v
	}
	return n, nil
}

// compile-time check that RedisStore implements NotificationStore
var _ NotificationStore = (*RedisStore)(nil)
