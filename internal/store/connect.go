package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses the Redis URL, establishes a client, and verifies
// connectivity with a ping before returning. Connection attempts are retried
// so the service tolerates Redis starting up alongside it.
func Connect(ctx context.Context, url string, attempts int, retryInterval, timeout time.Duration) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		client := redis.NewClient(opt)
		pingErr := client.Ping(ctx).Err()
		if pingErr == nil {
			return client, nil
		}
		lastErr = pingErr
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("redis not ready: %w", ctx.Err())
		case <-time.After(retryInterval):
		}
	}
	return nil, fmt.Errorf("redis not ready after %d attempts: %w", attempts, lastErr)
}
