// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package wallet

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

// memoryRepository implements [Repository] on top of [memdb.DB].
type memoryRepository struct {
	db      *memdb.DB
	wallets *memdb.Table[string, Wallet]
	entries *memdb.Table[string, Entry]
}

// NewMemoryRepository constructs an in-process wallet store sharing db's lock.
func NewMemoryRepository(db *memdb.DB) Repository {
	return &memoryRepository{
		db:      db,
		wallets: memdb.NewTable[string, Wallet](db),
		entries: memdb.NewTable[string, Entry](db),
	}
}

func (repository *memoryRepository) FindWallet(context context.Context, userID string) (*Wallet, error) {
	wallet := Wallet{UserID: userID}
	err := repository.db.Read(context, func() error {
		if row, ok := repository.wallets.Get(userID); ok {
			wallet = row
		}
		return nil
	})
	return &wallet, err
}

func (repository *memoryRepository) AddBalance(context context.Context, userID string, amount int64) (int64, error) {
	var balance int64
	err := repository.db.Write(context, func() error {
		row, _ := repository.wallets.Get(userID)
		row.UserID = userID
		row.Balance += amount
		row.UpdatedAt = time.Now().UTC()
		repository.wallets.Put(userID, row)
		balance = row.Balance
		return nil
	})
	return balance, err
}

func (repository *memoryRepository) TryDebit(context context.Context, userID string, amount int64) (bool, error) {
	var debited bool
	err := repository.db.Write(context, func() error {
		row, ok := repository.wallets.Get(userID)
		if !ok || row.Balance < amount {
			return nil
		}
		row.Balance -= amount
		row.UpdatedAt = time.Now().UTC()
		repository.wallets.Put(userID, row)
		debited = true
		return nil
	})
	return debited, err
}

func (repository *memoryRepository) InsertEntry(context context.Context, entry *Entry) error {
	return repository.db.Write(context, func() error {
		entry.CreatedAt = time.Now().UTC()
		repository.entries.Put(entry.ID, *entry)
		return nil
	})
}

func (repository *memoryRepository) ListEntries(context context.Context, userID string, limit, offset int) ([]*Entry, int, error) {
	var entries []*Entry
	err := repository.db.Read(context, func() error {
		for _, row := range repository.entries.Filter(func(e Entry) bool { return e.UserID == userID }) {
			entries = append(entries, &row)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	slices.SortFunc(entries, func(a, b *Entry) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})

	total := len(entries)
	start := min(offset, total)
	end := min(start+limit, total)
	return entries[start:end], total, nil
}
