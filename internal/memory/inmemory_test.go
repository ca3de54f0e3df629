package memory

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestAppendTrimsToTurnBound(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 3})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if err := s.AppendMessage(ctx, "sess", RoleUser, fmt.Sprintf("question %d", i)); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
		if err := s.AppendMessage(ctx, "sess", RoleAssistant, fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("AppendMessage() error = %v", err)
		}
	}

	entries, err := s.RecentMessages(ctx, "sess", 0)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 6 {
		t.Fatalf("len(entries) = %d, want 2*MaxTurns = 6", len(entries))
	}

	// Oldest first, and only the most recent turns survive.
	if entries[0].Content != "question 7" {
		t.Fatalf("entries[0].Content = %q, want %q", entries[0].Content, "question 7")
	}
	if last := entries[len(entries)-1]; last.Content != "answer 9" || last.Role != RoleAssistant {
		t.Fatalf("last entry = %+v, want latest assistant answer", last)
	}
}

func TestRecentMessagesHonorsLimit(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 10})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.AppendMessage(ctx, "sess", RoleUser, fmt.Sprintf("q%d", i))
		_ = s.AppendMessage(ctx, "sess", RoleAssistant, fmt.Sprintf("a%d", i))
	}

	entries, err := s.RecentMessages(ctx, "sess", 2)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4 (two turns)", len(entries))
	}
	if entries[0].Content != "q3" {
		t.Fatalf("entries[0].Content = %q, want %q", entries[0].Content, "q3")
	}
}

func TestRecentMessagesSkipsMalformedEntries(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 5})
	ctx := context.Background()

	_ = s.AppendMessage(ctx, "sess", RoleUser, "hello")
	s.mu.Lock()
	s.buckets["sess"].entries = append(s.buckets["sess"].entries, "{not valid json")
	s.mu.Unlock()
	_ = s.AppendMessage(ctx, "sess", RoleAssistant, "hi there")

	entries, err := s.RecentMessages(ctx, "sess", 0)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2 valid entries", len(entries))
	}
	if entries[0].Content != "hello" || entries[1].Content != "hi there" {
		t.Fatalf("entries = %+v, want malformed entry skipped", entries)
	}
}

func TestBucketExpires(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 5, TTL: 20 * time.Millisecond})
	ctx := context.Background()

	_ = s.AppendMessage(ctx, "sess", RoleUser, "hello")
	time.Sleep(40 * time.Millisecond)

	entries, err := s.RecentMessages(ctx, "sess", 0)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0 after TTL", len(entries))
	}
}

func TestClearRemovesBucket(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 5})
	ctx := context.Background()

	_ = s.AppendMessage(ctx, "sess", RoleUser, "hello")
	if err := s.Clear(ctx, "sess"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	entries, err := s.RecentMessages(ctx, "sess", 0)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("len(entries) = %d, want 0 after clear", len(entries))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 5})
	ctx := context.Background()

	_ = s.AppendMessage(ctx, "a", RoleUser, "from a")
	_ = s.AppendMessage(ctx, "b", RoleUser, "from b")

	entries, _ := s.RecentMessages(ctx, "a", 0)
	if len(entries) != 1 || entries[0].Content != "from a" {
		t.Fatalf("entries = %+v, want only session a's entry", entries)
	}
}

func TestEntryTimestampIsRFC3339(t *testing.T) {
	s := NewInMemoryStore(Options{MaxTurns: 5})
	ctx := context.Background()

	_ = s.AppendMessage(ctx, "sess", RoleUser, "hello")
	entries, _ := s.RecentMessages(ctx, "sess", 0)
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if _, err := time.Parse(time.RFC3339, entries[0].Timestamp); err != nil {
		t.Fatalf("Timestamp = %q, want RFC3339: %v", entries[0].Timestamp, err)
	}
}
