// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil extracts route parameters, JSON bodies and the caller's
identity from HTTP requests.
*/
package requestutil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/ctxutil"
	"github.com/taibuivan/dashi/internal/platform/validate"
)

// MaxBodyBytes bounds a JSON request body. Novel chapters are the largest payloads.
const MaxBodyBytes = 4 << 20

/*
DecodeJSON decodes the request body into target.

Returns:
  - error: validate.ErrInvalidJSON for malformed or oversized bodies
*/
func DecodeJSON(request *http.Request, target any) error {
	if err := decode(request, target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
DecodeOptionalJSON is [DecodeJSON] for endpoints whose body may be omitted.

Description: an empty body leaves target untouched whatever the declared
length, so chunked requests without content are accepted.

Returns:
  - error: validate.ErrInvalidJSON for malformed or oversized bodies
*/
func DecodeOptionalJSON(request *http.Request, target any) error {
	if err := decode(request, target); err != nil && !errors.Is(err, io.EOF) {
		return validate.ErrInvalidJSON
	}
	return nil
}

func decode(request *http.Request, target any) error {
	body := http.MaxBytesReader(nil, request.Body, MaxBodyBytes)
	return json.NewDecoder(body).Decode(target)
}

// ID returns the named chi URL parameter.
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

// ViewerID returns the caller's id, or "" for anonymous readers.
func ViewerID(request *http.Request) string {
	return ctxutil.UserID(request.Context())
}

/*
RequiredUserID returns the caller's id.

Returns:
  - string: User UUID
  - error: apperr.Unauthorized for anonymous requests
*/
func RequiredUserID(request *http.Request) (string, error) {
	userID := ctxutil.UserID(request.Context())
	if userID == "" {
		return "", apperr.Unauthorized("Authentication required")
	}
	return userID, nil
}
