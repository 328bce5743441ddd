// Package api exposes the assistant over HTTP: a streaming chat
// endpoint plus upload, ingestion, and status endpoints for managing
// the local document set.
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (recovery, logging, rate limit)
//   - sessions.go: per-session agent registry
//   - chat.go: POST /api/chat (SSE streaming)
//   - documents.go: upload / ingest / status endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"net/http"
	"time"

	"saturday/internal/log"
)

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8081"

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout guards against slow-header clients.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// IdleTimeout is the keep-alive idle limit.
	IdleTimeout = 120 * time.Second
)

// Ingester runs one ingestion pass over the data directory.
type Ingester interface {
	Run(ctx context.Context, folder string) (string, error)
}

// Server is the HTTP front-end.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger

	chat      *ChatHandler
	documents *DocumentHandler
}

// NewServer registers all routes. newAgent produces one routing agent
// per chat session.
func NewServer(newAgent AgentFactory, ingester Ingester, dataDir string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mux:       http.NewServeMux(),
		logger:    logger,
		chat:      NewChatHandler(NewSessionRegistry(newAgent), logger),
		documents: NewDocumentHandler(ingester, dataDir, logger),
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.chat.RegisterRoutes(s.mux)
	s.documents.RegisterRoutes(s.mux)

	return s
}

// Handler returns the mux with the middleware chain applied.
// Order: recovery → logging → rate limit → handler.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		rateLimitMiddleware(),
	)
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully. WriteTimeout stays unset so SSE responses can stream
// for as long as generation takes.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
