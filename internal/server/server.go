// Package server assembles the HTTP front door: request identity,
// recovery, tracing, rate limiting and the admission chain, in front of
// the backend routing table.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bmsedge/edge-gateway/internal/admission"
)

type Server struct {
	Router *chi.Mux
	Port   int

	logger *slog.Logger
	httpd  *http.Server
}

// Options carries the pipeline pieces the server mounts.
type Options struct {
	Port      int
	Chain     *admission.Chain
	Observer  *admission.PipelineLogger
	RateLimit *RateLimitOptions
	// Backend handles everything the pipeline admits, usually the proxy table.
	Backend http.Handler
}

func New(opts Options, logger *slog.Logger) *Server {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "edge-gateway")
	})

	if opts.RateLimit != nil {
		r.Use(RateLimitMiddleware(*opts.RateLimit))
	}
	r.Use(admission.Middleware(opts.Chain, opts.Observer))

	r.Handle("/*", opts.Backend)

	return &Server{
		Router: r,
		Port:   opts.Port,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.httpd = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Port),
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       90 * time.Second,
	}
	s.logger.Info("starting server", slog.Int("port", s.Port))
	return s.httpd.ListenAndServe()
}

// Shutdown drains in-flight requests until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpd == nil {
		return nil
	}
	return s.httpd.Shutdown(ctx)
}
