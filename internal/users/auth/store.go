// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "context"

// # Repository Contract

// UserRepository persists accounts.
type UserRepository interface {

	/*
		Create inserts a new account.

		Returns:
		  - error: apperr.Conflict when the username or email is taken
	*/
	Create(context context.Context, user *User) error

	// FindByID returns apperr.NotFound when no account matches.
	FindByID(context context.Context, id string) (*User, error)

	// FindByLogin matches either the email or the username.
	FindByLogin(context context.Context, login string) (*User, error)
}
