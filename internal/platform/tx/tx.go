// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package tx declares the unit-of-work contracts shared by every storage backend.
//
// Both [postgres.TxManager] and [memdb.DB] satisfy [Manager]; services depend on
// these interfaces only, never on a concrete backend.
package tx

import "context"

// Transactor runs fn atomically: every write commits together or none does.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SnapshotReader runs fn against one consistent, read-only view of the data.
type SnapshotReader interface {
	WithSnapshot(ctx context.Context, fn func(ctx context.Context) error) error
}

// Manager is implemented by storage backends that offer both kinds of unit of work.
type Manager interface {
	Transactor
	SnapshotReader
}
