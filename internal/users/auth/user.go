// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth registers accounts and issues RS256 access tokens.

Tokens carry the account ID, username and role; every other package reads the
caller from the claims placed on the request context by middleware.Authenticate.
*/
package auth

import (
	"time"

	"github.com/taibuivan/dashi/internal/platform/sec"
)

// # Domain Entities

// User is a registered account. Authors and readers share the same account type.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	Role         sec.UserRole `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldDisplayName = "display_name"
	FieldLogin       = "login"
)
