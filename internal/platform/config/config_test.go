// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/platform/config"
)

/*
TestLoad_Defaults verifies that optional settings fall back to their defaults.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
	t.Setenv("STORAGE_DRIVER", "memory")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 20, cfg.AutoSaveRetention)
	assert.Equal(t, time.Hour, cfg.ImageURLTTL)
	assert.Equal(t, 24*time.Hour, cfg.ContentCacheTTL)
	assert.Equal(t, int32(25), cfg.DBMaxConns)
	assert.Empty(t, cfg.AllowedOrigins())
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.UsesPostgres())
}

/*
TestLoad_Validation covers the cross-field rules applied after parsing.
*/
func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name   string
		driver string
		dsn    string
		keep   string
		ok     bool
	}{
		{"postgres_with_dsn", "postgres", "postgres://localhost/dashi", "20", true},
		{"postgres_without_dsn", "postgres", "", "20", false},
		{"unknown_driver", "sqlite", "", "20", false},
		{"zero_retention", "memory", "", "0", false},
	}

	t.Setenv("EXTRA_ORIGINS", " https://studio.example.com , ,https://b.example.com")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("JWT_PRIVATE_KEY_PATH", "/keys/private.pem")
			t.Setenv("JWT_PUBLIC_KEY_PATH", "/keys/public.pem")
			t.Setenv("STORAGE_DRIVER", tt.driver)
			t.Setenv("DATABASE_URL", tt.dsn)
			t.Setenv("AUTOSAVE_RETENTION", tt.keep)

			cfg, err := config.Load()
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, []string{"https://studio.example.com", "https://b.example.com"}, cfg.AllowedOrigins())
			} else {
				assert.Error(t, err)
			}
		})
	}
}
