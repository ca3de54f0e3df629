// Package toolsim is a development stand-in for the remote toolbox server.
// It serves the support toolset manifest and the four tools the agent uses,
// answering from canonical seed data (or Postgres/Redis when configured) so
// the agent can run end to end without production services.
package toolsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/imohq/supportdesk/internal/toolbox"
)

// Config controls the simulator backends. With an empty DatabaseURL orders
// and profiles come from built-in seed data; with an empty RedisURL the
// cache tools use an in-process map.
type Config struct {
	ToolsetName string
	DatabaseURL string
	RedisURL    string
}

type cacheEntry struct {
	value     string
	expiresAt time.Time
}

type Server struct {
	toolset string
	pool    *pgxpool.Pool
	redis   *redis.Client

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	s := &Server{
		toolset: cfg.ToolsetName,
		cache:   make(map[string]cacheEntry),
	}
	if s.toolset == "" {
		s.toolset = "support-toolset"
	}

	if strings.TrimSpace(cfg.DatabaseURL) != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := seed(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		s.pool = pool
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		s.redis = redis.NewClient(opts)
	}

	return s, nil
}

func (s *Server) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "service": "toolsim"})
	})
	r.Get("/api/toolset/{name}", s.handleToolset)
	r.Post("/api/tool/{tool}/invoke", s.handleInvoke)
	return r
}

var toolDescriptions = map[string]string{
	"recent-orders":    "Fetch the most recent orders for a customer.",
	"customer-profile": "Fetch a customer's profile record.",
	"redis-set-cache":  "Store a value in the support cache with a TTL.",
	"redis-get-cache":  "Read a value from the support cache.",
}

func (s *Server) handleToolset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name != s.toolset {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": fmt.Sprintf("toolset %q not found", name)})
		return
	}

	tools := make(map[string]any, len(toolDescriptions))
	for tool, desc := range toolDescriptions {
		tools[tool] = map[string]any{"description": desc}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"serverVersion": "toolsim/1",
		"tools":         tools,
	})
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	tool := toolbox.NormalizeToolName(chi.URLParam(r, "tool"))

	var args map[string]any
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid arguments payload"})
		return
	}

	var (
		result any
		err    error
	)
	switch tool {
	case "recent-orders":
		result, err = s.recentOrders(r.Context(), stringArg(args, "customer_id"))
	case "customer-profile":
		result, err = s.customerProfile(r.Context(), stringArg(args, "customer_id"))
	case "redis-set-cache":
		err = s.cacheSet(r.Context(), stringArg(args, "key"), stringArg(args, "value"), intArg(args, "ttl"))
		result = "OK"
	case "redis-get-cache":
		result, err = s.cacheGet(r.Context(), stringArg(args, "key"))
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"error": fmt.Sprintf("tool %q not found", tool)})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) recentOrders(ctx context.Context, customerID string) (any, error) {
	if s.pool != nil {
		return s.recentOrdersFromDB(ctx, customerID)
	}

	orders := make([]Order, 0, 4)
	for _, o := range seedOrders {
		if o.CustomerID == customerID {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt > orders[j].CreatedAt })
	if len(orders) > 10 {
		orders = orders[:10]
	}
	return orders, nil
}

func (s *Server) recentOrdersFromDB(ctx context.Context, customerID string) (any, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, customer_id, status, total, created_at, eta, items, tracking_number
		 FROM orders WHERE customer_id = $1
		 ORDER BY created_at DESC LIMIT 10`,
		customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]map[string]any, 0, 10)
	for rows.Next() {
		var (
			o        Order
			created  time.Time
			eta      time.Time
			rawItems []byte
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.Total, &created, &eta, &rawItems, &o.TrackingNumber); err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		var items any
		_ = json.Unmarshal(rawItems, &items)
		orders = append(orders, map[string]any{
			"id":              o.ID,
			"customer_id":     o.CustomerID,
			"status":          o.Status,
			"total":           o.Total,
			"created_at":      created.UTC().Format(time.RFC3339),
			"eta":             eta.Format("2006-01-02"),
			"items":           items,
			"tracking_number": o.TrackingNumber,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}
	return orders, nil
}

// customerProfile returns a list, matching the toolbox convention the agent
// normalizes on its side.
func (s *Server) customerProfile(ctx context.Context, customerID string) (any, error) {
	if s.pool != nil {
		var c Customer
		err := s.pool.QueryRow(ctx,
			`SELECT id, name, email, tier, status FROM customers WHERE id = $1`,
			customerID,
		).Scan(&c.ID, &c.Name, &c.Email, &c.Tier, &c.Status)
		if err != nil {
			return []any{}, nil
		}
		return []Customer{c}, nil
	}

	for _, c := range seedCustomers {
		if c.ID == customerID {
			return []Customer{c}, nil
		}
	}
	return []any{}, nil
}

func (s *Server) cacheSet(ctx context.Context, key, value string, ttl int) error {
	if ttl <= 0 {
		ttl = 3600
	}
	if s.redis != nil {
		return s.redis.SetEx(ctx, key, value, time.Duration(ttl)*time.Second).Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[key] = cacheEntry{value: value, expiresAt: time.Now().Add(time.Duration(ttl) * time.Second)}
	return nil
}

func (s *Server) cacheGet(ctx context.Context, key string) (any, error) {
	if s.redis != nil {
		value, err := s.redis.Get(ctx, key).Result()
		if err == redis.Nil {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return value, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.cache, key)
		return nil, nil
	}
	return entry.value, nil
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
