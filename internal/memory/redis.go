package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps conversation history in Redis lists: one list per session
// key, trimmed on every append and expiring as a whole bucket.
type RedisStore struct {
	client   *redis.Client
	ttl      time.Duration
	maxTurns int
	prefix   string
}

func NewRedisStore(url string, opts Options) (*RedisStore, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts = opts.withDefaults()
	return &RedisStore{
		client:   redis.NewClient(redisOpts),
		ttl:      opts.TTL,
		maxTurns: opts.MaxTurns,
		prefix:   opts.Prefix,
	}, nil
}

func (s *RedisStore) key(sessionKey string) string {
	return s.prefix + ":" + sessionKey
}

func (s *RedisStore) AppendMessage(ctx context.Context, sessionKey, role, content string) error {
	payload, err := json.Marshal(newEntry(role, content))
	if err != nil {
		return fmt.Errorf("marshal memory entry: %w", err)
	}

	key := s.key(sessionKey)
	pipe := s.client.Pipeline()
	pipe.RPush(ctx, key, payload)
	pipe.LTrim(ctx, key, int64(-(s.maxTurns * 2)), -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append memory entry: %w", err)
	}
	return nil
}

func (s *RedisStore) RecentMessages(ctx context.Context, sessionKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxTurns
	}

	raw, err := s.client.LRange(ctx, s.key(sessionKey), int64(-(limit * 2)), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read memory entries: %w", err)
	}
	return decodeEntries(raw), nil
}

func (s *RedisStore) Clear(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, s.key(sessionKey)).Err(); err != nil {
		return fmt.Errorf("clear memory: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
