// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
//
// The balance CHECK (balance >= 0) backs the conditional debit.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed wallet store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// FindWallet loads the balance row or reports an empty wallet.
func (repository *postgresRepository) FindWallet(context context.Context, userID string) (*Wallet, error) {
	query := fmt.Sprintf(`SELECT %s, %s FROM %s WHERE %s = $1`,
		schema.CommerceWallet.Balance, schema.CommerceWallet.UpdatedAt,
		schema.CommerceWallet.Table, schema.CommerceWallet.UserID)

	wallet := &Wallet{UserID: userID}
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, userID).Scan(&wallet.Balance, &wallet.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wallet, nil
		}
		return nil, dberr.Wrap(err, "find_wallet")
	}

	return wallet, nil
}

// AddBalance upserts the wallet row.
func (repository *postgresRepository) AddBalance(context context.Context, userID string, amount int64) (int64, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s AS w (%s, %s) VALUES ($1, $2)
		ON CONFLICT (%s) DO UPDATE SET %s = w.%s + EXCLUDED.%s, %s = NOW()
		RETURNING %s
	`,
		schema.CommerceWallet.Table, schema.CommerceWallet.UserID, schema.CommerceWallet.Balance,
		schema.CommerceWallet.UserID,
		schema.CommerceWallet.Balance, schema.CommerceWallet.Balance, schema.CommerceWallet.Balance,
		schema.CommerceWallet.UpdatedAt,
		schema.CommerceWallet.Balance,
	)

	var balance int64
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, userID, amount).Scan(&balance)
	if err != nil {
		return 0, dberr.Wrap(err, "add_balance")
	}

	return balance, nil
}

// TryDebit is a single conditional UPDATE; zero affected rows means insufficient funds.
func (repository *postgresRepository) TryDebit(context context.Context, userID string, amount int64) (bool, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s - $2, %s = NOW() WHERE %s = $1 AND %s >= $2`,
		schema.CommerceWallet.Table,
		schema.CommerceWallet.Balance, schema.CommerceWallet.Balance, schema.CommerceWallet.UpdatedAt,
		schema.CommerceWallet.UserID, schema.CommerceWallet.Balance)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, userID, amount)
	if err != nil {
		return false, dberr.Wrap(err, "debit_wallet")
	}

	return result.RowsAffected() == 1, nil
}

// InsertEntry appends a movement row.
func (repository *postgresRepository) InsertEntry(context context.Context, entry *Entry) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s) VALUES ($1, $2, $3, $4)
		RETURNING %s
	`,
		schema.CommerceWalletEntry.Table,
		schema.CommerceWalletEntry.ID, schema.CommerceWalletEntry.UserID,
		schema.CommerceWalletEntry.Amount, schema.CommerceWalletEntry.Reference,
		schema.CommerceWalletEntry.CreatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query, entry.ID, entry.UserID, entry.Amount, entry.Reference).
		Scan(&entry.CreatedAt)

	return dberr.Wrap(err, "insert_wallet_entry")
}

// ListEntries pages through movements with a window count, avoiding a second COUNT query.
func (repository *postgresRepository) ListEntries(context context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, COUNT(*) OVER() AS total_count
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC, %s DESC
		LIMIT $2 OFFSET $3
	`,
		schema.CommerceWalletEntry.ID, schema.CommerceWalletEntry.UserID, schema.CommerceWalletEntry.Amount,
		schema.CommerceWalletEntry.Reference, schema.CommerceWalletEntry.CreatedAt,
		schema.CommerceWalletEntry.Table,
		schema.CommerceWalletEntry.UserID,
		schema.CommerceWalletEntry.CreatedAt, schema.CommerceWalletEntry.ID,
	)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, userID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "list_wallet_entries")
	}
	defer rows.Close()

	var entries []*Entry
	var total int
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Reference, &entry.CreatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("postgres: failed to scan wallet entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	return entries, total, dberr.Wrap(rows.Err(), "list_wallet_entries")
}
