// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/taibuivan/dashi/internal/platform/constants"
)

// # Cross-Origin Resource Sharing

// AppConfig is the slice of configuration the CORS policy reads.
type AppConfig interface {
	IsDevelopment() bool
	AllowedOrigins() []string
}

// originAllowed accepts any origin in development, the production domain, and EXTRA_ORIGINS.
func originAllowed(cfg AppConfig, origin string) bool {
	if cfg.IsDevelopment() || strings.HasSuffix(origin, constants.AllowedOriginSuffix) {
		return true
	}
	return slices.Contains(cfg.AllowedOrigins(), origin)
}

// CORS answers preflight requests and decorates responses for allowed origins.
func CORS(cfg AppConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			origin := request.Header.Get(constants.HeaderOrigin)
			if origin == "" {
				next.ServeHTTP(writer, request)
				return
			}

			if originAllowed(cfg, origin) {
				header := writer.Header()
				header.Set("Access-Control-Allow-Origin", origin)
				header.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				header.Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization, X-Request-ID")
				header.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
				header.Set("Access-Control-Allow-Credentials", "true")
				header.Set("Access-Control-Max-Age", "300")
				header.Add("Vary", "Origin")
			}

			if request.Method == http.MethodOptions {
				writer.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
