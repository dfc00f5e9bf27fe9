// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock

import (
	"context"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

type recordKey struct {
	userID    string
	chapterID string
}

type memoryRepository struct {
	db      *memdb.DB
	records *memdb.Table[recordKey, Record]
}

// NewMemoryRepository constructs an in-process unlock store sharing db's lock.
func NewMemoryRepository(db *memdb.DB) Repository {
	return &memoryRepository{
		db:      db,
		records: memdb.NewTable[recordKey, Record](db),
	}
}

func (repository *memoryRepository) HasUnlocked(context context.Context, userID, chapterID string) (bool, error) {
	var exists bool
	err := repository.db.Read(context, func() error {
		_, exists = repository.records.Get(recordKey{userID: userID, chapterID: chapterID})
		return nil
	})
	return exists, err
}

func (repository *memoryRepository) InsertRecord(context context.Context, record *Record) (bool, error) {
	var inserted bool
	err := repository.db.Write(context, func() error {
		record.CreatedAt = time.Now().UTC()
		inserted = repository.records.Insert(recordKey{userID: record.UserID, chapterID: record.ChapterID}, *record)
		return nil
	})
	return inserted, err
}

func (repository *memoryRepository) ListByUser(context context.Context, userID string) ([]*Record, error) {
	var records []*Record
	err := repository.db.Read(context, func() error {
		for _, row := range repository.records.Filter(func(r Record) bool { return r.UserID == userID }) {
			records = append(records, &row)
		}
		return nil
	})

	slices.SortFunc(records, func(a, b *Record) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return records, err
}
