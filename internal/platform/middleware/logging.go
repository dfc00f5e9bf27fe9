// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/dashi/internal/platform/ctxutil"
)

// # Access Logging

/*
StructuredLogger attaches a request-scoped logger to the context and writes
one http_request_finished entry per request.

Description: 5xx responses log at error level, 4xx at warn, the rest at info.
The route field is the matched chi pattern so ids do not explode cardinality.
*/
func StructuredLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			startTime := time.Now()

			requestLogger := logger.With(
				slog.String("request_id", ctxutil.GetRequestID(request.Context())),
				slog.String("method", request.Method),
				slog.String("path", request.URL.Path),
				slog.String("ip", RealIP(request)),
			)

			ctx := ctxutil.WithLogger(request.Context(), requestLogger)
			wrapped := chimw.NewWrapResponseWriter(writer, request.ProtoMajor)

			next.ServeHTTP(wrapped, request.WithContext(ctx))

			status := wrapped.Status()
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}

			route := ""
			if routeContext := chi.RouteContext(request.Context()); routeContext != nil {
				route = routeContext.RoutePattern()
			}

			requestLogger.Log(ctx, level, "http_request_finished",
				slog.Int("status", status),
				slog.String("route", route),
				slog.Int("bytes", wrapped.BytesWritten()),
				slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
				slog.String("user_agent", request.UserAgent()),
			)
		})
	}
}
