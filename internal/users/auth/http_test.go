// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/platform/memdb"
	"github.com/taibuivan/dashi/internal/platform/middleware"
	"github.com/taibuivan/dashi/internal/platform/sec"
	"github.com/taibuivan/dashi/internal/users/auth"
)

// newTokenService writes a throwaway RSA key pair and loads it.
func newTokenService(t *testing.T) *sec.TokenService {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "private.pem")
	publicPath := filepath.Join(dir, "public.pem")

	require.NoError(t, os.WriteFile(privatePath, pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}), 0o600))
	require.NoError(t, os.WriteFile(publicPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER}), 0o600))

	tokens, err := sec.NewTokenService(privatePath, publicPath, "dashi-test")
	require.NoError(t, err)
	return tokens
}

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	tokens := newTokenService(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := auth.NewService(auth.NewMemoryUserRepository(memdb.New()), tokens, logger, time.Minute)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokens))
	auth.NewHandler(service).RegisterRoutes(router)
	return router
}

func post(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload)))
	return recorder
}

/*
TestRegisterLoginMe registers an account, logs in by email, and reads /me with the issued token.
*/
func TestRegisterLoginMe(t *testing.T) {
	router := newRouter(t)

	recorder := post(t, router, "/auth/register", map[string]string{
		"username": "mira", "email": "mira@dashi.app", "password": "lantern-keep",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "lantern-keep")

	recorder = post(t, router, "/auth/register", map[string]string{
		"username": "mira", "email": "other@dashi.app", "password": "lantern-keep",
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)

	recorder = post(t, router, "/auth/login", map[string]string{"login": "mira@dashi.app", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = post(t, router, "/auth/login", map[string]string{"login": "mira@dashi.app", "password": "lantern-keep"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var envelope struct {
		Data auth.LoginResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	require.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, sec.RoleMember, envelope.Data.User.Role)

	request := httptest.NewRequest(http.MethodGet, "/me", nil)
	request.Header.Set("Authorization", "Bearer "+envelope.Data.AccessToken)
	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"username":"mira"`)

	recorder = httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

/*
TestRegister_Validation rejects short passwords and malformed emails.
*/
func TestRegister_Validation(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "short_password", body: map[string]string{"username": "mira", "email": "mira@dashi.app", "password": "short"}},
		{name: "bad_email", body: map[string]string{"username": "mira", "email": "not-an-email", "password": "lantern-keep"}},
		{name: "short_username", body: map[string]string{"username": "mi", "email": "mira@dashi.app", "password": "lantern-keep"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := post(t, router, "/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}
