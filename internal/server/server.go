// Package server exposes the SMS parser over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ArionMiles/smsexpensor/internal/server/middleware"
	"github.com/ArionMiles/smsexpensor/pkg/api"
	"github.com/ArionMiles/smsexpensor/pkg/catalog"
	"github.com/ArionMiles/smsexpensor/pkg/parser"
)

// ParsePath is the route of the parse endpoint.
const ParsePath = "/api/v1/sms/parse"

const shutdownTimeout = 30 * time.Second

// Server serves the parse endpoint.
type Server struct {
	parser  *parser.Parser
	catalog catalog.Provider
	saver   api.Saver
	tokens  map[string]string
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Server. saver may be nil, in which case parsed expenses are returned but not stored.
func New(p *parser.Parser, provider catalog.Provider, saver api.Saver, tokens map[string]string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		parser:  p,
		catalog: provider,
		saver:   saver,
		tokens:  tokens,
		logger:  logger.With("component", "server"),
		now:     time.Now,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	parse := middleware.Auth(s.tokens)(http.HandlerFunc(s.handleParse))
	mux.Handle(ParsePath, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		parse.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   s.now().Format(time.RFC3339),
		})
	})

	return middleware.Chain(mux,
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
		middleware.CORS,
	)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving HTTP: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}
	return nil
}
