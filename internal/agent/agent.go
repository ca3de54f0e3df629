// Package agent implements the cache-first response orchestration policy:
// check the answer cache, generate on a miss, cache the result, and record
// the turn in conversation memory.
package agent

import (
	"context"
	"strings"
	"time"

	"github.com/imohq/supportdesk/internal/llm"
	"github.com/imohq/supportdesk/internal/memory"
	"github.com/imohq/supportdesk/internal/observability"
	"github.com/imohq/supportdesk/internal/toolbox"
)

// noCredentialReply is returned without attempting generation when no API
// key is configured, avoiding a guaranteed-failing network round trip.
const noCredentialReply = "I've gathered some information for you. How else can I help?"

const emptyReply = "I'm here to help! What else can I assist you with?"

// fallbackReplies maps a failure source to a fixed friendly reply. Only the
// "agent" and "cache" sources are produced by the current flow; the other
// two are kept for finer-grained error classification.
var fallbackReplies = map[string]string{
	"database":   "I found your order information. How can I help you with your orders?",
	"web_search": "I've looked up information about your query. What specific aspect would you like to know more about?",
	"cache":      "Based on our previous discussions, here's what I can tell you.",
	"agent":      "I'll help you with that. Let me know if you need more specific information.",
}

func fallbackReply(source string) string {
	if reply, ok := fallbackReplies[source]; ok {
		return reply
	}
	return emptyReply
}

// Cache is the slice of the fallback provider the orchestrator needs.
type Cache interface {
	CacheGet(ctx context.Context, key string) toolbox.Result
	CacheSet(ctx context.Context, key, value string, ttl time.Duration) toolbox.Result
}

// Query is one caller question.
type Query struct {
	Text       string `json:"query"`
	CustomerID string `json:"customer_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
}

// Reply is the caller-facing envelope.
type Reply struct {
	Source    string `json:"source"`
	Response  string `json:"response"`
	Cached    bool   `json:"cached"`
	UserQuery string `json:"user_query"`
}

// Config tunes the orchestrator.
type Config struct {
	CacheTTL time.Duration
	MaxTurns int
}

// Agent is the top-level query orchestrator.
type Agent struct {
	cache     Cache
	memory    memory.Store
	generator llm.Generator
	metrics   *observability.Metrics
	cacheTTL  time.Duration
	maxTurns  int
}

// New builds an Agent. A nil generator means no generation credential is
// configured; misses then answer with a fixed friendly reply.
func New(cache Cache, store memory.Store, generator llm.Generator, metrics *observability.Metrics, cfg Config) *Agent {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &Agent{
		cache:     cache,
		memory:    store,
		generator: generator,
		metrics:   metrics,
		cacheTTL:  ttl,
		maxTurns:  maxTurns,
	}
}

// HandleQuery answers a support question. It never fails: every remote
// problem degrades to a cached, mocked, or fixed fallback reply.
func (a *Agent) HandleQuery(ctx context.Context, q Query) Reply {
	sessionKey := sessionKeyFor(q.CustomerID, q.SessionID)
	cacheKey := cacheKeyFor(q.CustomerID, q.Text)

	cached := a.cache.CacheGet(ctx, cacheKey)
	if text, ok := cachedText(cached); ok {
		a.metrics.CacheLookups.WithLabelValues("hit").Inc()
		a.recordTurn(ctx, sessionKey, q.Text, text)
		return Reply{Source: "cache", Response: text, Cached: true, UserQuery: q.Text}
	}
	a.metrics.CacheLookups.WithLabelValues("miss").Inc()

	response := a.generate(ctx, q, sessionKey)

	a.cache.CacheSet(ctx, cacheKey, response, a.cacheTTL)
	a.recordTurn(ctx, sessionKey, q.Text, response)

	return Reply{Source: "agent", Response: response, Cached: false, UserQuery: q.Text}
}

// ClearSession drops all stored context for a session key.
func (a *Agent) ClearSession(ctx context.Context, sessionKey string) error {
	return a.memory.Clear(ctx, sessionKey)
}

func (a *Agent) generate(ctx context.Context, q Query, sessionKey string) string {
	if a.generator == nil {
		return noCredentialReply
	}

	// Memory is best effort: an outage must never block generation.
	entries, err := a.memory.RecentMessages(ctx, sessionKey, a.maxTurns)
	if err != nil {
		entries = nil
	}

	prompt := buildPrompt(q.Text, q.CustomerID, entries)

	start := time.Now()
	text, err := a.generator.Generate(ctx, prompt)
	a.metrics.ObserveGenerationLatency(time.Since(start))
	if err != nil {
		return fallbackReply("agent")
	}
	if strings.TrimSpace(text) == "" {
		return emptyReply
	}
	return text
}

// recordTurn appends the user/assistant exchange to memory. Failures are
// swallowed; memory must never break the primary response path.
func (a *Agent) recordTurn(ctx context.Context, sessionKey, userQuery, response string) {
	if err := a.memory.AppendMessage(ctx, sessionKey, memory.RoleUser, userQuery); err != nil {
		return
	}
	_ = a.memory.AppendMessage(ctx, sessionKey, memory.RoleAssistant, response)
}

func cachedText(result toolbox.Result) (string, bool) {
	if !result.Ok() {
		return "", false
	}
	text, ok := result.Data.(string)
	if !ok || text == "" {
		return "", false
	}
	return text, true
}
