package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/imohq/supportdesk/internal/llm"
	"github.com/imohq/supportdesk/internal/memory"
	"github.com/imohq/supportdesk/internal/observability"
	"github.com/imohq/supportdesk/internal/toolbox"
)

func newTestMetrics(t *testing.T) *observability.Metrics {
	t.Helper()
	return observability.NewMetrics(fmt.Sprintf("test_agent_%d", time.Now().UnixNano()))
}

// fakeCache mimics the fallback provider's cache contract: sets always
// succeed, gets report success with nil data on a miss.
type fakeCache struct {
	store   map[string]string
	failGet bool
	sets    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{store: make(map[string]string)}
}

func (c *fakeCache) CacheGet(_ context.Context, key string) toolbox.Result {
	if c.failGet {
		return toolbox.Result{Success: false, Error: "connection refused"}
	}
	if v, ok := c.store[key]; ok {
		return toolbox.Result{Success: true, Data: v}
	}
	return toolbox.Result{Success: true, Data: nil}
}

func (c *fakeCache) CacheSet(_ context.Context, key, value string, _ time.Duration) toolbox.Result {
	c.sets++
	c.store[key] = value
	return toolbox.Result{Success: true}
}

type failingStore struct{}

func (failingStore) AppendMessage(context.Context, string, string, string) error {
	return errors.New("store down")
}
func (failingStore) RecentMessages(context.Context, string, int) ([]memory.Entry, error) {
	return nil, errors.New("store down")
}
func (failingStore) Clear(context.Context, string) error { return errors.New("store down") }
func (failingStore) Close() error                        { return nil }

func newTestAgent(t *testing.T, cache Cache, store memory.Store, gen llm.Generator) *Agent {
	t.Helper()
	if store == nil {
		store = memory.NewInMemoryStore(memory.Options{MaxTurns: 5})
	}
	return New(cache, store, gen, newTestMetrics(t), Config{MaxTurns: 5})
}

func TestCacheHitSkipsGeneration(t *testing.T) {
	cache := newFakeCache()
	cache.store[cacheKeyFor("1", "What are my recent orders?")] = "cached answer"
	gen := &llm.Mock{Reply: "fresh answer"}
	store := memory.NewInMemoryStore(memory.Options{MaxTurns: 5})
	a := newTestAgent(t, cache, store, gen)

	reply := a.HandleQuery(context.Background(), Query{Text: "What are my recent orders?", CustomerID: "1"})

	if reply.Source != "cache" || !reply.Cached {
		t.Fatalf("reply = %+v, want cache hit", reply)
	}
	if reply.Response != "cached answer" {
		t.Fatalf("Response = %q, want cached value", reply.Response)
	}
	if reply.UserQuery != "What are my recent orders?" {
		t.Fatalf("UserQuery = %q, want original query", reply.UserQuery)
	}
	if len(gen.Prompts()) != 0 {
		t.Fatalf("generator invoked %d times on a cache hit, want 0", len(gen.Prompts()))
	}

	// The turn is still recorded in memory.
	entries, err := store.RecentMessages(context.Background(), "1", 0)
	if err != nil {
		t.Fatalf("RecentMessages() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want user+assistant turn", len(entries))
	}
}

func TestCacheMissGeneratesAndCaches(t *testing.T) {
	cache := newFakeCache()
	gen := &llm.Mock{Reply: "generated answer"}
	a := newTestAgent(t, cache, nil, gen)
	q := Query{Text: "How do I reset my password?", CustomerID: "2"}

	first := a.HandleQuery(context.Background(), q)
	if first.Source != "agent" || first.Cached {
		t.Fatalf("first reply = %+v, want agent miss", first)
	}
	if first.Response != "generated answer" {
		t.Fatalf("Response = %q, want generated text", first.Response)
	}

	second := a.HandleQuery(context.Background(), q)
	if second.Source != "cache" || !second.Cached {
		t.Fatalf("second reply = %+v, want cache hit after write", second)
	}
	if second.Response != first.Response {
		t.Fatalf("second Response = %q, want %q", second.Response, first.Response)
	}
	if got := len(gen.Prompts()); got != 1 {
		t.Fatalf("generator invoked %d times, want 1", got)
	}
}

func TestNoCredentialShortCircuit(t *testing.T) {
	cache := newFakeCache()
	a := newTestAgent(t, cache, nil, nil)
	q := Query{Text: "What are my recent orders?", CustomerID: "1"}

	first := a.HandleQuery(context.Background(), q)
	if first.Source != "agent" || first.Cached {
		t.Fatalf("first reply = %+v, want uncached agent reply", first)
	}
	if first.Response != noCredentialReply {
		t.Fatalf("Response = %q, want fixed no-credential reply", first.Response)
	}

	second := a.HandleQuery(context.Background(), q)
	if second.Source != "cache" || !second.Cached || second.Response != first.Response {
		t.Fatalf("second reply = %+v, want cached repeat of %q", second, first.Response)
	}
}

func TestGenerationFailureUsesAgentFallback(t *testing.T) {
	cache := newFakeCache()
	gen := &llm.Mock{Err: errors.New("model timeout")}
	a := newTestAgent(t, cache, nil, gen)

	reply := a.HandleQuery(context.Background(), Query{Text: "anything"})
	if reply.Response != fallbackReplies["agent"] {
		t.Fatalf("Response = %q, want agent fallback string", reply.Response)
	}
	if reply.Source != "agent" || reply.Cached {
		t.Fatalf("reply = %+v, want uncached agent reply", reply)
	}
}

func TestEmptyGenerationUsesFriendlyDefault(t *testing.T) {
	cache := newFakeCache()
	gen := &llm.Mock{Reply: "   "}
	a := newTestAgent(t, cache, nil, gen)

	reply := a.HandleQuery(context.Background(), Query{Text: "anything"})
	if reply.Response != emptyReply {
		t.Fatalf("Response = %q, want %q", reply.Response, emptyReply)
	}
}

func TestPromptIncludesContextAndIdentity(t *testing.T) {
	cache := newFakeCache()
	store := memory.NewInMemoryStore(memory.Options{MaxTurns: 5})
	_ = store.AppendMessage(context.Background(), "sess-9", memory.RoleUser, "earlier question")
	_ = store.AppendMessage(context.Background(), "sess-9", memory.RoleAssistant, "earlier answer")

	gen := &llm.Mock{Reply: "ok"}
	a := newTestAgent(t, cache, store, gen)

	a.HandleQuery(context.Background(), Query{Text: "follow-up", CustomerID: "3", SessionID: "sess-9"})

	prompts := gen.Prompts()
	if len(prompts) != 1 {
		t.Fatalf("generator invoked %d times, want 1", len(prompts))
	}
	prompt := prompts[0]
	for _, want := range []string{
		"Customer ID: 3",
		"Customer asked: follow-up",
		"Recent context:",
		"User: earlier question",
		"Assistant: earlier answer",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestMemoryOutageDoesNotBlockResponse(t *testing.T) {
	cache := newFakeCache()
	gen := &llm.Mock{Reply: "still works"}
	a := newTestAgent(t, cache, failingStore{}, gen)

	reply := a.HandleQuery(context.Background(), Query{Text: "hello", CustomerID: "1"})
	if reply.Response != "still works" {
		t.Fatalf("Response = %q, want generation despite memory outage", reply.Response)
	}
}

func TestCacheGetFailureFallsThroughToGeneration(t *testing.T) {
	cache := newFakeCache()
	cache.failGet = true
	gen := &llm.Mock{Reply: "generated"}
	a := newTestAgent(t, cache, nil, gen)

	reply := a.HandleQuery(context.Background(), Query{Text: "hello"})
	if reply.Source != "agent" || reply.Response != "generated" {
		t.Fatalf("reply = %+v, want generation on cache failure", reply)
	}
}

func TestSessionKeyDerivation(t *testing.T) {
	cases := []struct {
		customerID string
		sessionID  string
		want       string
	}{
		{customerID: "1", sessionID: "s1", want: "s1"},
		{customerID: "1", sessionID: "", want: "1"},
		{customerID: "", sessionID: "", want: anonymousSession},
	}
	for _, tc := range cases {
		if got := sessionKeyFor(tc.customerID, tc.sessionID); got != tc.want {
			t.Fatalf("sessionKeyFor(%q, %q) = %q, want %q", tc.customerID, tc.sessionID, got, tc.want)
		}
	}
}

func TestCacheKeyDerivation(t *testing.T) {
	withCustomer := cacheKeyFor("1", "hello")
	if !strings.HasPrefix(withCustomer, "support:1:") {
		t.Fatalf("cacheKeyFor with customer = %q, want support:1: prefix", withCustomer)
	}

	anonymous := cacheKeyFor("", "hello")
	if !strings.HasPrefix(anonymous, "support:") || strings.HasPrefix(anonymous, "support:1:") {
		t.Fatalf("cacheKeyFor anonymous = %q, want customer-free key", anonymous)
	}

	if cacheKeyFor("1", "hello") != withCustomer {
		t.Fatalf("cacheKeyFor is not deterministic")
	}
	if cacheKeyFor("1", "hello") == cacheKeyFor("1", "hello!") {
		t.Fatalf("different surface text produced the same key")
	}
}
