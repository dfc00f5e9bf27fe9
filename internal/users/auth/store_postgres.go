// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresUserRepository constructs a PostgreSQL backed account store.
func NewPostgresUserRepository(pool *pgxpool.Pool) UserRepository {
	return &postgresUserRepository{pool: pool}
}

func (repository *postgresUserRepository) Create(context context.Context, user *User) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s
	`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
		schema.UserAccount.Password, schema.UserAccount.DisplayName, schema.UserAccount.Role,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query, user.ID, user.Username, user.Email, user.PasswordHash, user.DisplayName, user.Role).
		Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Username or email is already registered")
		}
		return dberr.Wrap(err, "insert_account")
	}

	return nil
}

func (repository *postgresUserRepository) find(context context.Context, where string, argument string) (*User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIMIT 1`,
		schema.Select("", []string{
			schema.UserAccount.ID, schema.UserAccount.Username, schema.UserAccount.Email,
			schema.UserAccount.Password, schema.UserAccount.DisplayName, schema.UserAccount.Role,
			schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
		}),
		schema.UserAccount.Table, where)

	var user User
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, argument).Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.DisplayName, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, dberr.Wrap(err, "find_account")
	}

	return &user, nil
}

func (repository *postgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	return repository.find(context, schema.UserAccount.ID+" = $1", id)
}

func (repository *postgresUserRepository) FindByLogin(context context.Context, login string) (*User, error) {
	return repository.find(context,
		fmt.Sprintf("LOWER(%s) = LOWER($1) OR %s = $1", schema.UserAccount.Email, schema.UserAccount.Username),
		login)
}
