package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// InMemoryStore is a simple in-process memory store for local/dev use. It
// mirrors the list-of-JSON layout of the Redis store, including bucket
// expiry, so behavior matches across backends.
type InMemoryStore struct {
	mu       sync.RWMutex
	buckets  map[string]*bucket
	ttl      time.Duration
	maxTurns int
}

type bucket struct {
	entries   []string
	expiresAt time.Time
}

func NewInMemoryStore(opts Options) *InMemoryStore {
	opts = opts.withDefaults()
	return &InMemoryStore{
		buckets:  make(map[string]*bucket),
		ttl:      opts.TTL,
		maxTurns: opts.MaxTurns,
	}
}

func (s *InMemoryStore) AppendMessage(_ context.Context, sessionKey, role, content string) error {
	payload, err := json.Marshal(newEntry(role, content))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[sessionKey]
	if b == nil || time.Now().After(b.expiresAt) {
		b = &bucket{}
		s.buckets[sessionKey] = b
	}
	b.entries = append(b.entries, string(payload))
	if max := s.maxTurns * 2; len(b.entries) > max {
		b.entries = b.entries[len(b.entries)-max:]
	}
	b.expiresAt = time.Now().Add(s.ttl)
	return nil
}

func (s *InMemoryStore) RecentMessages(_ context.Context, sessionKey string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = s.maxTurns
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.buckets[sessionKey]
	if b == nil || time.Now().After(b.expiresAt) {
		return nil, nil
	}

	raw := b.entries
	if max := limit * 2; len(raw) > max {
		raw = raw[len(raw)-max:]
	}
	return decodeEntries(raw), nil
}

func (s *InMemoryStore) Clear(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, sessionKey)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }

// decodeEntries parses stored JSON entries, skipping malformed ones so bad
// data degrades to missing context rather than a failed read.
func decodeEntries(raw []string) []Entry {
	entries := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}
