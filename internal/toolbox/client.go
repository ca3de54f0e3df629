package toolbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client invokes named tools on a genai-toolbox style server.
//
// The toolset manifest is fetched per invocation, which keeps the client
// stateless and means a toolbox restart with a changed toolset is picked up
// immediately. Invoke never returns a Go error; every failure, including an
// unreachable server, surfaces as a Result envelope so callers have a single
// code path.
type Client struct {
	baseURL string
	toolset string
	client  *http.Client
}

func NewClient(baseURL, toolset string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		toolset: toolset,
		client:  &http.Client{Timeout: timeout},
	}
}

type toolsetManifest struct {
	ServerVersion string                  `json:"serverVersion"`
	Tools         map[string]toolManifest `json:"tools"`
}

type toolManifest struct {
	Description string `json:"description"`
}

// Invoke calls the named tool with the given arguments. The tool name is
// matched against the loaded toolset after normalization, so callers may use
// either underscore or dash separators.
func (c *Client) Invoke(ctx context.Context, tool string, args map[string]any) Result {
	names, err := c.loadToolNames(ctx)
	if err != nil {
		return failure(err.Error())
	}

	normalized := NormalizeToolName(tool)
	remote, ok := names[normalized]
	if !ok {
		return failure(fmt.Sprintf("Tool '%s' not found", tool))
	}

	data, err := c.invokeTool(ctx, remote, args)
	if err != nil {
		return failure(err.Error())
	}
	return Result{Success: true, Data: data, Source: "toolbox"}
}

// loadToolNames fetches the toolset manifest and returns a mapping from
// normalized tool names to the server's own names.
func (c *Client) loadToolNames(ctx context.Context) (map[string]string, error) {
	endpoint := fmt.Sprintf("%s/api/toolset/%s", c.baseURL, url.PathEscape(c.toolset))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create toolset request: %w", err)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load toolset %q: %w", c.toolset, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("load toolset %q: status %d: %s", c.toolset, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var manifest toolsetManifest
	if err := json.NewDecoder(res.Body).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode toolset manifest: %w", err)
	}

	names := make(map[string]string, len(manifest.Tools))
	for name := range manifest.Tools {
		names[NormalizeToolName(name)] = name
	}
	return names, nil
}

func (c *Client) invokeTool(ctx context.Context, tool string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal tool args: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/tool/%s/invoke", c.baseURL, url.PathEscape(tool))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("invoke tool %q: %w", tool, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return nil, fmt.Errorf("invoke tool %q: status %d: %s", tool, res.StatusCode, strings.TrimSpace(string(body)))
	}

	var envelope struct {
		Result any    `json:"result"`
		Error  string `json:"error"`
	}
	if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode tool response: %w", err)
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("tool %q: %s", tool, envelope.Error)
	}
	return envelope.Result, nil
}

// NormalizeToolName canonicalizes a tool identifier to lower-case dash
// separators, so "recent_orders" and "recent-orders" address the same tool.
func NormalizeToolName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}
