package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"lectern/internal/api"
	"lectern/internal/config"
	"lectern/internal/logging"
	"lectern/internal/recording"
	"lectern/internal/services"
	"lectern/internal/session"
	"lectern/internal/transcript"
)

// StatusFunc reports daemon runtime state for the status endpoint.
type StatusFunc func(ctx context.Context) api.DaemonStatus

// Server exposes the session, recording, transcript, and webhook endpoints.
type Server struct {
	bind       string
	token      string
	logger     *slog.Logger
	resolver   *session.Resolver
	manager    *recording.Manager
	reconciler *recording.Reconciler
	capture    *transcript.Capture
	status     StatusFunc

	listener net.Listener
	server   *http.Server
}

// New assembles the HTTP server. A nil status func disables the status
// endpoint's runtime details but the endpoint still responds.
func New(cfg *config.Config, resolver *session.Resolver, manager *recording.Manager, reconciler *recording.Reconciler, capture *transcript.Capture, status StatusFunc, logger *slog.Logger) *Server {
	srv := &Server{
		bind:       strings.TrimSpace(cfg.Paths.APIBind),
		token:      cfg.Paths.APIToken,
		logger:     logging.NewComponentLogger(logger, "api-server"),
		resolver:   resolver,
		manager:    manager,
		reconciler: reconciler,
		capture:    capture,
		status:     status,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(srv.token, srv.handleStatus))
	mux.HandleFunc("/api/sessions/init", authMiddleware(srv.token, srv.handleSessionInit))
	mux.HandleFunc("/api/sessions/end", authMiddleware(srv.token, srv.handleSessionEnd))
	mux.HandleFunc("/api/sessions", authMiddleware(srv.token, srv.handleSessionList))
	mux.HandleFunc("/api/recordings/start", authMiddleware(srv.token, srv.handleRecordingStart))
	mux.HandleFunc("/api/recordings/stop", authMiddleware(srv.token, srv.handleRecordingStop))
	mux.HandleFunc("/api/recordings", authMiddleware(srv.token, srv.handleRecordingList))
	mux.HandleFunc("/api/transcripts", authMiddleware(srv.token, srv.handleTranscripts))
	// The backend cannot present our bearer token; the webhook stays open
	// and relies on the reconciler's idempotency.
	mux.HandleFunc("/webhooks/egress", srv.handleWebhook)

	srv.server = &http.Server{
		Handler:           requestContext(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// requestContext tags every request with a correlation identifier, honoring
// one supplied by the caller.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start begins serving until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address, useful when binding to port 0.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
