// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock

import "context"

// # Repository Contract

// Repository persists unlock records.
type Repository interface {

	// HasUnlocked reports whether a record exists for the pair.
	HasUnlocked(context context.Context, userID, chapterID string) (bool, error)

	/*
		InsertRecord creates the record unless one already exists.

		Returns:
		  - bool: true when this call created the row
		  - error: Storage failures
	*/
	InsertRecord(context context.Context, record *Record) (bool, error)

	// ListByUser returns the user's unlocks, newest first.
	ListByUser(context context.Context, userID string) ([]*Record, error)
}
