package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/imohq/supportdesk/internal/agent"
	"github.com/imohq/supportdesk/internal/config"
	"github.com/imohq/supportdesk/internal/observability"
)

// QueryHandler is the agent surface the HTTP layer needs.
type QueryHandler interface {
	HandleQuery(ctx context.Context, q agent.Query) agent.Reply
	ClearSession(ctx context.Context, sessionKey string) error
}

type Server struct {
	cfg      config.Config
	agent    QueryHandler
	metrics  *observability.Metrics
	upgrader websocket.Upgrader
}

func New(cfg config.Config, handler QueryHandler, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		agent:   handler,
		metrics: metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// often omit Origin; allow them.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/support", s.handleSupport)
	r.Get("/v1/support/ws", s.handleSupportWS)
	r.Delete("/v1/support/session/{id}/memory", s.handleClearMemory)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "customer-support-agent",
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (s *Server) handleSupport(w http.ResponseWriter, r *http.Request) {
	var req agent.Query
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "empty_query", "query must not be empty")
		return
	}

	reply := s.agent.HandleQuery(r.Context(), req)
	respondJSON(w, http.StatusOK, reply)
}

func (s *Server) handleClearMemory(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_session_id", "missing session id")
		return
	}

	if err := s.agent.ClearSession(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "clear_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "cleared", "session_id": id})
}

type wsQuery struct {
	Query      string `json:"query"`
	CustomerID string `json:"customer_id,omitempty"`
}

// handleSupportWS answers queries over a websocket, one reply frame per
// inbound query frame. All frames on a connection share one session key, so
// the conversation accumulates memory across turns.
func (s *Server) handleSupportWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	s.metrics.ActiveChats.Inc()
	defer s.metrics.ActiveChats.Dec()

	conn.SetReadLimit(1 << 20)

	for {
		var q wsQuery
		if err := conn.ReadJSON(&q); err != nil {
			return
		}
		if strings.TrimSpace(q.Query) == "" {
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(errorResponse{Error: "query must not be empty", Code: "empty_query"}); err != nil {
				return
			}
			continue
		}

		reply := s.agent.HandleQuery(r.Context(), agent.Query{
			Text:       q.Query,
			CustomerID: q.CustomerID,
			SessionID:  sessionID,
		})

		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
