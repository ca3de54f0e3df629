package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTavilyEndpoint = "https://api.tavily.com/search"

// SearchOptions narrows a web search. Zero values are omitted from the
// request payload.
type SearchOptions struct {
	MaxResults     int      `json:"max_results,omitempty"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
	IncludeAnswer  bool     `json:"include_answer,omitempty"`
}

// WebSearcher performs a direct (non-toolbox) web search.
type WebSearcher interface {
	Search(ctx context.Context, query string, opts SearchOptions) (any, error)
}

// TavilyConfig controls the Tavily search client.
type TavilyConfig struct {
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

// TavilyClient queries the Tavily search API. The short client timeout keeps
// a slow search provider from stalling the whole request.
type TavilyClient struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

func NewTavilyClient(cfg TavilyConfig) *TavilyClient {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultTavilyEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &TavilyClient{
		apiKey:   cfg.APIKey,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (t *TavilyClient) Search(ctx context.Context, query string, opts SearchOptions) (any, error) {
	payload := map[string]any{
		"query":   query,
		"api_key": t.apiKey,
	}
	if opts.MaxResults > 0 {
		payload["max_results"] = opts.MaxResults
	}
	if opts.SearchDepth != "" {
		payload["search_depth"] = opts.SearchDepth
	}
	if len(opts.IncludeDomains) > 0 {
		payload["include_domains"] = opts.IncludeDomains
	}
	if len(opts.ExcludeDomains) > 0 {
		payload["exclude_domains"] = opts.ExcludeDomains
	}
	if opts.IncludeAnswer {
		payload["include_answer"] = true
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("search status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}

	var data any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return data, nil
}
