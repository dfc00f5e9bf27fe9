// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package memdb provides the in-process storage backend used by STORAGE_DRIVER=memory
and by service tests.

It mirrors the transactional contract of the PostgreSQL backend:

  - WithTransaction serialises writers and restores every registered table when
    the unit of work fails, so bulk operations are all-or-nothing.
  - WithSnapshot holds a read lock for the whole callback, giving composed reads
    a consistent view.

Domain stores allocate their tables with [NewTable] and wrap each access in
[DB.Read] or [DB.Write]; both become no-ops when the context already holds the lock.
*/
package memdb

import (
	"context"
	"maps"
	"sync"
)

// snapshotter is implemented by every [Table] so a transaction can roll it back.
type snapshotter interface {
	snapshot() func()
}

// DB is a set of tables guarded by one lock.
type DB struct {
	mu     sync.RWMutex
	tables []snapshotter
}

// New constructs an empty [DB].
func New() *DB {
	return &DB{}
}

// heldKey marks a context whose goroutine already holds the DB lock.
type heldKey struct{ db *DB }

func (db *DB) held(ctx context.Context) bool {
	return ctx.Value(heldKey{db: db}) != nil
}

func (db *DB) mark(ctx context.Context) context.Context {
	return context.WithValue(ctx, heldKey{db: db}, true)
}

// # Units of Work

// WithTransaction runs fn with exclusive access and rolls every table back on error.
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.held(ctx) {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	restores := make([]func(), 0, len(db.tables))
	for _, table := range db.tables {
		restores = append(restores, table.snapshot())
	}

	if err := fn(db.mark(ctx)); err != nil {
		for _, restore := range restores {
			restore()
		}
		return err
	}

	return nil
}

// WithSnapshot runs fn while no writer can commit.
func (db *DB) WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.held(ctx) {
		return fn(ctx)
	}

	db.mu.RLock()
	defer db.mu.RUnlock()

	return fn(db.mark(ctx))
}

// Read runs a single read access, joining an enclosing unit of work when present.
func (db *DB) Read(ctx context.Context, fn func() error) error {
	if db.held(ctx) {
		return fn()
	}

	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn()
}

// Write runs a single write access, joining an enclosing unit of work when present.
func (db *DB) Write(ctx context.Context, fn func() error) error {
	if db.held(ctx) {
		return fn()
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	return fn()
}

// # Tables

// Table is a keyed row set. Rows are stored by value so a shallow copy is a
// complete snapshot.
type Table[K comparable, V any] struct {
	rows map[K]V
}

// NewTable allocates a table and registers it with db for rollback.
func NewTable[K comparable, V any](db *DB) *Table[K, V] {
	table := &Table[K, V]{rows: make(map[K]V)}
	db.tables = append(db.tables, table)
	return table
}

func (table *Table[K, V]) snapshot() func() {
	saved := maps.Clone(table.rows)
	return func() { table.rows = saved }
}

// Get returns the row stored under key.
func (table *Table[K, V]) Get(key K) (V, bool) {
	row, ok := table.rows[key]
	return row, ok
}

// Put inserts or replaces the row stored under key.
func (table *Table[K, V]) Put(key K, row V) {
	table.rows[key] = row
}

// Insert stores row only when key is absent and reports whether it did.
func (table *Table[K, V]) Insert(key K, row V) bool {
	if _, exists := table.rows[key]; exists {
		return false
	}
	table.rows[key] = row
	return true
}

// Delete removes key and reports whether a row existed.
func (table *Table[K, V]) Delete(key K) bool {
	if _, exists := table.rows[key]; !exists {
		return false
	}
	delete(table.rows, key)
	return true
}

// Filter returns every row accepted by keep, in unspecified order.
func (table *Table[K, V]) Filter(keep func(V) bool) []V {
	var result []V
	for _, row := range table.rows {
		if keep(row) {
			result = append(result, row)
		}
	}
	return result
}

// Len returns the number of stored rows.
func (table *Table[K, V]) Len() int {
	return len(table.rows)
}
