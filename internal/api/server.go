// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires the chi router, the middleware chain and every domain
handler into a runnable [http.Server].

Only this package and cmd/api construct net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taibuivan/dashi/internal/platform/constants"
	"github.com/taibuivan/dashi/internal/platform/metrics"
	"github.com/taibuivan/dashi/internal/platform/middleware"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// RouteRegistrar is implemented by every domain handler.
type RouteRegistrar interface {
	RegisterRoutes(api chi.Router)
}

// # Handler Registry

// Handlers groups the probes and the domain handler sets mounted under /api/v1.
type Handlers struct {
	// Liveness always answers 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness answers 200 only when every backing store responds.
	Readiness http.HandlerFunc

	// Domains register their routes on the versioned API router in order.
	Domains []RouteRegistrar
}

// Options carries the listener settings and CORS policy.
type Options struct {
	Port string
	CORS middleware.AppConfig
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(context context.Context, options Options, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *Server {
	r := NewRouter(context, options.CORS, log, verifier, h)

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + options.Port,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// NewRouter builds the handler tree without binding a listener.
func NewRouter(context context.Context, cors middleware.AppConfig, log *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// # Middleware Chain
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(metrics.Instrument)
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(context))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cors))
	r.Use(middleware.Authenticate(verifier))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	if h.Liveness != nil {
		r.Get("/health", h.Liveness)
	}
	if h.Readiness != nil {
		r.Get("/ready", h.Readiness)
	}
	r.Handle("/metrics", promhttp.Handler())

	// # Application API
	r.Route("/api/v1", func(api chi.Router) {
		for _, domain := range h.Domains {
			domain.RegisterRoutes(api)
		}
	})

	return r
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
