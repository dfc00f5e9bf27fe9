// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics registers the Prometheus collectors exposed on GET /metrics.

Collectors are package-level and registered with the default registry through
promauto, so any package may record into them without wiring.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dashi"

// # Collectors

var (
	// HTTPRequestsTotal counts served requests by route pattern.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// EntitlementDecisions counts reader access decisions by path (free, priced,
	// advance) and outcome ("allow" or the error code).
	EntitlementDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Total number of chapter access decisions",
		},
		[]string{"path", "outcome"},
	)

	// UnlocksTotal counts unlock attempts: charged, already_owned or insufficient_funds.
	UnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "unlock",
			Name:      "attempts_total",
			Help:      "Total number of chapter unlock attempts",
		},
		[]string{"outcome"},
	)

	// ContentCacheLookups counts version content cache hits and misses.
	ContentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "content_cache",
			Name:      "lookups_total",
			Help:      "Total number of version content cache lookups",
		},
		[]string{"result"},
	)

	ChaptersPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chapter",
			Name:      "published_total",
			Help:      "Total number of chapter publications",
		},
	)
)

// # HTTP Instrumentation

// Instrument records request count and latency labelled by the matched chi route
// pattern, keeping label cardinality bounded by the route table.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		start := time.Now()
		wrapped := chimiddleware.NewWrapResponseWriter(writer, request.ProtoMajor)

		next.ServeHTTP(wrapped, request)

		route := "unmatched"
		if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
			if pattern := routeContext.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := wrapped.Status()
		if status == 0 {
			status = http.StatusOK
		}

		HTTPRequestsTotal.WithLabelValues(request.Method, route, strconv.Itoa(status)).Inc()
		HTTPRequestDuration.WithLabelValues(request.Method, route).Observe(time.Since(start).Seconds())
	})
}
