// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// # Transaction Propagation

// Querier is the subset of pgx shared by [pgxpool.Pool] and [pgx.Tx].
//
// Repositories run every statement through a Querier obtained from [Conn] so that
// the same code participates in an ambient transaction when one is open.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txKey stores the open [pgx.Tx] in a context.
type txKey struct{}

// Conn returns the transaction carried by ctx, or the pool when none is open.
func Conn(ctx context.Context, pool *pgxpool.Pool) Querier {
	if transaction, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return transaction
	}
	return pool
}

// InTransaction reports whether ctx already carries an open transaction.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}

// TxManager opens request-scoped transactions and hands them to repositories via context.
type TxManager struct {
	pool *pgxpool.Pool
}

// NewTxManager constructs a [TxManager] over the shared pool.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return &TxManager{pool: pool}
}

/*
WithTransaction runs fn inside a read-write transaction.

Description: Commits when fn returns nil and rolls back otherwise. A nested call
reuses the outer transaction so that composed service operations stay atomic.
Cancelling ctx aborts the transaction with no partial effects.

Parameters:
  - ctx: context.Context
  - fn: func(ctx context.Context) error (Unit of work receiving the tx-bound context)

Returns:
  - error: The error returned by fn, or begin/commit failures
*/
func (manager *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return manager.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

/*
WithSnapshot runs fn inside a REPEATABLE READ, READ ONLY transaction.

Description: Every query issued by fn observes the same database snapshot, so
decisions composed from several reads cannot disagree with one another.
*/
func (manager *TxManager) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	return manager.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

// run owns the begin/commit/rollback sequence shared by both transaction kinds.
func (manager *TxManager) run(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context) error) error {

	// Join the ambient transaction
	if InTransaction(ctx) {
		return fn(ctx)
	}

	transaction, err := manager.pool.BeginTx(ctx, options)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}

	// Rollback is a no-op once Commit has succeeded
	defer transaction.Rollback(ctx)

	if err := fn(context.WithValue(ctx, txKey{}, transaction)); err != nil {
		return err
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}

	return nil
}
