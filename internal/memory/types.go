package memory

import (
	"context"
	"time"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Entry is a single stored conversational message.
type Entry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Store keeps a bounded, expiring message history per session key.
//
// A bucket never holds more than 2*MaxTurns entries (one user plus one
// assistant message per turn); AppendMessage trims from the oldest end and
// renews the whole-bucket TTL. RecentMessages returns entries oldest first
// and skips entries that fail to decode instead of failing the read.
type Store interface {
	AppendMessage(ctx context.Context, sessionKey, role, content string) error
	RecentMessages(ctx context.Context, sessionKey string, limit int) ([]Entry, error)
	Clear(ctx context.Context, sessionKey string) error
	Close() error
}

// Options tunes a memory store.
type Options struct {
	TTL      time.Duration
	MaxTurns int
	Prefix   string
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 24 * time.Hour
	}
	if o.MaxTurns <= 0 {
		o.MaxTurns = 10
	}
	if o.Prefix == "" {
		o.Prefix = "support:memory"
	}
	return o
}

func newEntry(role, content string) Entry {
	return Entry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
