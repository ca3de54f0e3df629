// Package tools guarantees that every support operation returns a usable
// result. Each method first tries the remote path and, on any failure,
// substitutes a deterministic local result, so callers never observe
// transport errors.
package tools

import (
	"context"
	"fmt"
	"time"

	"github.com/imohq/supportdesk/internal/observability"
	"github.com/imohq/supportdesk/internal/toolbox"
)

// Invoker is satisfied by toolbox.Client.
type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) toolbox.Result
}

// Config controls fallback behavior.
type Config struct {
	// CacheTTL is applied when CacheSet is called without an explicit TTL.
	CacheTTL time.Duration
	// LocalCacheMaxEntries bounds the in-process cache used during outages.
	LocalCacheMaxEntries int
}

// Provider wraps the tool gateway with mandatory fallbacks for the five
// support operations.
type Provider struct {
	gateway  Invoker
	search   WebSearcher
	local    *localCache
	cacheTTL time.Duration
	metrics  *observability.Metrics
}

// NewProvider builds a Provider. A nil search client means no search
// credential is configured; WebSearch then always answers with mock data.
func NewProvider(gateway Invoker, search WebSearcher, metrics *observability.Metrics, cfg Config) *Provider {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Provider{
		gateway:  gateway,
		search:   search,
		local:    newLocalCache(cfg.LocalCacheMaxEntries),
		cacheTTL: ttl,
		metrics:  metrics,
	}
}

// RecentOrders fetches the customer's recent orders, substituting a single
// synthetic order when the toolbox is unavailable.
func (p *Provider) RecentOrders(ctx context.Context, customerID string) toolbox.Result {
	result := p.invoke(ctx, toolbox.OpRecentOrders, map[string]any{"customer_id": customerID})
	if result.Success {
		return result
	}

	p.countFallback(toolbox.OpRecentOrders.String())
	return toolbox.Result{
		Success: true,
		Data: []any{
			map[string]any{
				"id":          1,
				"customer_id": customerID,
				"note":        "Mock orders (toolbox unavailable)",
			},
		},
		Source: "mock",
	}
}

// CustomerProfile fetches a customer profile. A list response is normalized
// to its first element; an empty list becomes an empty profile.
func (p *Provider) CustomerProfile(ctx context.Context, customerID string) toolbox.Result {
	result := p.invoke(ctx, toolbox.OpCustomerProfile, map[string]any{"customer_id": customerID})
	if result.Success {
		if list, ok := result.Data.([]any); ok {
			if len(list) > 0 {
				result.Data = list[0]
			} else {
				result.Data = map[string]any{}
			}
		}
		return result
	}

	p.countFallback(toolbox.OpCustomerProfile.String())
	return toolbox.Result{
		Success: true,
		Data: map[string]any{
			"id":   customerID,
			"note": "Mock profile (toolbox unavailable)",
		},
		Source: "mock",
	}
}

// WebSearch queries the configured search provider directly. It never fails:
// without a credential, or on any transport error, it answers with a
// deterministic payload embedding the query text.
func (p *Provider) WebSearch(ctx context.Context, query string, opts SearchOptions) toolbox.Result {
	if p.search == nil {
		p.countFallback("web_search")
		return mockSearchResult(query)
	}

	data, err := p.search.Search(ctx, query, opts)
	if err != nil {
		p.countFallback("web_search")
		return mockSearchResult(query)
	}
	return toolbox.Result{Success: true, Data: data, Source: "tavily"}
}

// CacheSet stores a key/value pair through the remote cache tool, falling
// back to the in-process cache. The local fallback ignores the TTL.
func (p *Provider) CacheSet(ctx context.Context, key, value string, ttl time.Duration) toolbox.Result {
	if ttl <= 0 {
		ttl = p.cacheTTL
	}
	result := p.invoke(ctx, toolbox.OpCacheSet, map[string]any{
		"key":   key,
		"value": value,
		"ttl":   int(ttl.Seconds()),
	})
	if result.Success {
		return result
	}

	p.countFallback(toolbox.OpCacheSet.String())
	p.local.Set(key, value)
	return toolbox.Result{Success: true, Message: "Cached locally", Storage: "local"}
}

// CacheGet looks a key up remotely, treating a successful-but-empty reply as
// a miss, then consults the in-process cache before propagating the remote
// envelope unchanged.
func (p *Provider) CacheGet(ctx context.Context, key string) toolbox.Result {
	result := p.invoke(ctx, toolbox.OpCacheGet, map[string]any{"key": key})
	if result.Ok() {
		return result
	}

	if value, ok := p.local.Get(key); ok {
		return toolbox.Result{Success: true, Data: value, Storage: "local"}
	}
	return result
}

func (p *Provider) invoke(ctx context.Context, op toolbox.Op, args map[string]any) toolbox.Result {
	result := p.gateway.Invoke(ctx, op.ToolName(), args)
	outcome := "ok"
	if !result.Success {
		outcome = "error"
	}
	p.metrics.ToolInvocations.WithLabelValues(op.String(), outcome).Inc()
	return result
}

func (p *Provider) countFallback(op string) {
	p.metrics.FallbackResults.WithLabelValues(op).Inc()
}

func mockSearchResult(query string) toolbox.Result {
	return toolbox.Result{
		Success: true,
		Data: map[string]any{
			"query": query,
			"results": []any{
				map[string]any{
					"title":   fmt.Sprintf("Mock information about %s", query),
					"snippet": fmt.Sprintf("This is placeholder data for '%s'.", query),
					"url":     "https://example.com",
				},
			},
		},
		Source: "mock",
	}
}
