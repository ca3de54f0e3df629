package memory

import (
	"context"
	"strings"
)

// NewStore picks a backend from configuration: Redis when a Redis URL is
// set, then Postgres, otherwise an in-process store.
func NewStore(ctx context.Context, redisURL, databaseURL string, opts Options) (Store, error) {
	if strings.TrimSpace(redisURL) != "" {
		return NewRedisStore(redisURL, opts)
	}
	if strings.TrimSpace(databaseURL) != "" {
		return NewPostgresStore(ctx, databaseURL, opts)
	}
	return NewInMemoryStore(opts), nil
}
