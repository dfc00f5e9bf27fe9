// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed unlock store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (repository *postgresRepository) HasUnlocked(context context.Context, userID, chapterID string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s = $2)`,
		schema.CommerceUnlock.Table, schema.CommerceUnlock.UserID, schema.CommerceUnlock.ChapterID)

	var exists bool
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, userID, chapterID).Scan(&exists)
	if err != nil {
		return false, dberr.Wrap(err, "has_unlocked")
	}

	return exists, nil
}

// InsertRecord relies on the primary key: a concurrent duplicate blocks until the
// first transaction ends, then inserts nothing.
func (repository *postgresRepository) InsertRecord(context context.Context, record *Record) (bool, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s) VALUES ($1, $2, $3)
		ON CONFLICT (%s, %s) DO NOTHING
		RETURNING %s
	`,
		schema.CommerceUnlock.Table,
		schema.CommerceUnlock.UserID, schema.CommerceUnlock.ChapterID, schema.CommerceUnlock.Price,
		schema.CommerceUnlock.UserID, schema.CommerceUnlock.ChapterID,
		schema.CommerceUnlock.CreatedAt,
	)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, record.UserID, record.ChapterID, record.Price)
	if err != nil {
		return false, dberr.Wrap(err, "insert_unlock")
	}
	defer rows.Close()

	inserted := false
	if rows.Next() {
		if err := rows.Scan(&record.CreatedAt); err != nil {
			return false, fmt.Errorf("postgres: failed to scan unlock: %w", err)
		}
		inserted = true
	}

	return inserted, dberr.Wrap(rows.Err(), "insert_unlock")
}

func (repository *postgresRepository) ListByUser(context context.Context, userID string) ([]*Record, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.CommerceUnlock.UserID, schema.CommerceUnlock.ChapterID, schema.CommerceUnlock.Price,
		schema.CommerceUnlock.CreatedAt, schema.CommerceUnlock.Table, schema.CommerceUnlock.UserID,
		schema.CommerceUnlock.CreatedAt)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_unlocks")
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var record Record
		if err := rows.Scan(&record.UserID, &record.ChapterID, &record.Price, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan unlock: %w", err)
		}
		records = append(records, &record)
	}

	return records, dberr.Wrap(rows.Err(), "list_unlocks")
}
