// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package memdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/platform/memdb"
)

/*
TestWithTransaction_RollsBackOnError verifies that a failed unit of work leaves
every registered table as it was.
*/
func TestWithTransaction_RollsBackOnError(t *testing.T) {
	db := memdb.New()
	accounts := memdb.NewTable[string, int](db)
	ledger := memdb.NewTable[int, string](db)

	ctx := context.Background()
	require.NoError(t, db.Write(ctx, func() error {
		accounts.Put("alice", 10)
		return nil
	}))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		accounts.Put("alice", 0)
		accounts.Put("bob", 5)
		ledger.Put(1, "debit")
		return boom
	})
	require.ErrorIs(t, err, boom)

	balance, ok := accounts.Get("alice")
	assert.True(t, ok)
	assert.Equal(t, 10, balance)

	_, ok = accounts.Get("bob")
	assert.False(t, ok)
	assert.Equal(t, 0, ledger.Len())
}

/*
TestWithTransaction_Nested verifies that nested units of work join the outer one
instead of deadlocking.
*/
func TestWithTransaction_Nested(t *testing.T) {
	db := memdb.New()
	rows := memdb.NewTable[string, int](db)

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		return db.WithTransaction(ctx, func(ctx context.Context) error {
			return db.Write(ctx, func() error {
				rows.Put("k", 1)
				return nil
			})
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rows.Len())
}

/*
TestInsert_OnlyOnce exercises the conditional insert under concurrent callers.
*/
func TestInsert_OnlyOnce(t *testing.T) {
	db := memdb.New()
	rows := memdb.NewTable[string, int](db)

	var wg sync.WaitGroup
	var mu sync.Mutex
	inserted := 0

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = db.Write(context.Background(), func() error {
				if rows.Insert("same", 1) {
					mu.Lock()
					inserted++
					mu.Unlock()
				}
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, inserted)
}
