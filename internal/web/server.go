// Package web provides the HTTP server for the plant care chat interface.
//
// Endpoints:
//
//	GET  /            →  chat page
//	GET  /static/     →  embedded css/js assets
//	GET  /api/history →  transcript of the visitor's session
//	POST /api/chat    →  one conversation turn (multipart: prompt + optional photo)
//	GET  /healthz     →  liveness probe
//
// Visitors are keyed by a "sid" cookie holding a session UUID. The first
// request sets it; every later request lands in the same conversation.
package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/happytree/happytree/internal/log"
	"github.com/happytree/happytree/internal/session"
	"github.com/happytree/happytree/internal/web/static"
)

const (
	// DefaultAddr is the default listen address for the HTTP server.
	DefaultAddr = ":8080"

	// DefaultMaxUploadBytes caps the multipart body of a chat request.
	DefaultMaxUploadBytes = 8 << 20

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation happens inside this window, so it is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Config contains all required parameters for the web server.
type Config struct {
	Sessions   *session.Manager
	Credential string // API key handed to every turn
	Logger     log.Logger

	// MaxUploadBytes caps the chat request body. Zero means the default.
	MaxUploadBytes int64
}

// validate checks if all required parameters are present.
func (cfg Config) validate() error {
	if cfg.Sessions == nil {
		return errors.New("session manager is required")
	}
	if cfg.Credential == "" {
		return errors.New("credential is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Server is the chat web server.
type Server struct {
	mux    *http.ServeMux
	logger log.Logger
}

// NewServer creates a new web server with all routes configured.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	ch := &chatHandler{
		sessions:   cfg.Sessions,
		credential: cfg.Credential,
		maxUpload:  maxUpload,
		logger:     cfg.Logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", ch.index)
	mux.HandleFunc("GET /api/history", ch.history)
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("GET /healthz", health(cfg.Logger))
	mux.Handle("GET /static/", http.StripPrefix("/static/", static.Handler()))

	return &Server{mux: mux, logger: cfg.Logger}, nil
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → security headers → routes.
func (s *Server) Handler() http.Handler {
	return chain(s.mux,
		recoveryMiddleware(s.logger),
		loggingMiddleware(s.logger),
		securityHeaders,
	)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("HTTP server: %w", err)
	}
}

// health is a liveness probe for container orchestrators.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, logger)
	}
}
