package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/theanh9911/agno-console/internal/logging"
	"github.com/theanh9911/agno-console/internal/socket"
	"github.com/theanh9911/agno-console/internal/store"
)

// ServerConfig holds the relay server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	EnableCORS      bool
}

// DefaultServerConfig returns the default relay configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "localhost",
		Port:            7788,
		ReadTimeout:     15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"http://localhost:5173"},
		EnableCORS:      true,
	}
}

// Server re-serves the store's merged per-session views over HTTP and
// streams change notices to dashboard clients via SSE. It is strictly
// read-only: all mutation flows through the engine.
type Server struct {
	config     ServerConfig
	router     chi.Router
	httpServer *http.Server
	store      *store.Store
	mgr        *socket.Manager
	logger     *logging.Logger
}

// NewServer creates a relay over the given store. mgr may be nil when no
// socket is configured; the status endpoint then reports disconnected.
func NewServer(cfg ServerConfig, s *store.Store, mgr *socket.Manager, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	srv := &Server{
		config: cfg,
		store:  s,
		mgr:    mgr,
		logger: logger,
	}
	srv.router = srv.setupRouter()
	srv.httpServer = &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:     srv.router,
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
		// No WriteTimeout: SSE connections are long-lived.
	}
	return srv
}

func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if s.config.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins: s.config.CORSOrigins,
			AllowedMethods: []string{http.MethodGet},
			MaxAge:         300,
		})
		r.Use(c.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/sessions", s.handleSessions)
		r.Get("/sessions/{sessionID}/runs", s.handleSessionRuns)
		r.Get("/events", s.handleSSE)
	})
	return r
}

// Start runs the server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("relay listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("relay server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

// Handler exposes the router for httptest-based tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{"status": string(socket.StatusDisconnected)}
	if s.mgr != nil {
		status = map[string]any{
			"status":             string(s.mgr.Status()),
			"endpoint":           s.mgr.Endpoint(),
			"reconnect_attempts": s.mgr.ReconnectAttempts(),
			"last_error":         s.mgr.LastError(),
		}
	}
	s.respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleSessions(w http.ResponseWriter, _ *http.Request) {
	type sessionView struct {
		SessionID   string `json:"session_id"`
		Name        string `json:"name,omitempty"`
		UpdatedAt   int64  `json:"updated_at,omitempty"`
		IsStreaming bool   `json:"is_streaming"`
	}
	sessions := s.store.Sessions()
	out := make([]sessionView, 0, len(sessions))
	for _, meta := range sessions {
		out = append(out, sessionView{
			SessionID:   meta.SessionID,
			Name:        meta.Name,
			UpdatedAt:   meta.UpdatedAt,
			IsStreaming: s.store.IsStreaming(meta.SessionID),
		})
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) handleSessionRuns(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		s.respondError(w, http.StatusBadRequest, "session id required")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{
		"data":         s.store.Merged(sessionID),
		"is_streaming": s.store.IsStreaming(sessionID),
	})
}

// handleSSE streams store change notices until the client disconnects.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	ctx := r.Context()
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)

	clientID := uuid.NewString()
	s.logger.Info("sse client connected", "client_id", clientID, "remote_addr", r.RemoteAddr)

	s.sendSSE(w, flusher, "connected", map[string]string{"client_id": clientID})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sse client disconnected", "client_id", clientID)
			return
		case change, open := <-ch:
			if !open {
				return
			}
			s.sendSSE(w, flusher, "change", map[string]string{
				"session_id": change.SessionID,
				"reason":     string(change.Reason),
			})
		}
	}
}

func (s *Server) sendSSE(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("marshaling sse payload", "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}
