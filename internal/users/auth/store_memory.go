// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"strings"
	"time"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

type memoryUserRepository struct {
	db    *memdb.DB
	users *memdb.Table[string, User]
}

// NewMemoryUserRepository constructs an in-process account store sharing db's lock.
func NewMemoryUserRepository(db *memdb.DB) UserRepository {
	return &memoryUserRepository{db: db, users: memdb.NewTable[string, User](db)}
}

func (repository *memoryUserRepository) Create(context context.Context, user *User) error {
	return repository.db.Write(context, func() error {
		taken := repository.users.Filter(func(u User) bool {
			return u.Username == user.Username || strings.EqualFold(u.Email, user.Email)
		})
		if len(taken) > 0 {
			return apperr.Conflict("Username or email is already registered")
		}

		now := time.Now().UTC()
		user.CreatedAt, user.UpdatedAt = now, now
		repository.users.Put(user.ID, *user)
		return nil
	})
}

func (repository *memoryUserRepository) FindByID(context context.Context, id string) (*User, error) {
	var found User
	err := repository.db.Read(context, func() error {
		row, ok := repository.users.Get(id)
		if !ok {
			return apperr.NotFound("User")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	var found *User
	err := repository.db.Read(context, func() error {
		for _, row := range repository.users.Filter(func(u User) bool {
			return strings.EqualFold(u.Email, login) || u.Username == login
		}) {
			found = &row
		}
		if found == nil {
			return apperr.NotFound("User")
		}
		return nil
	})
	return found, err
}
