// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package unlock records one-time chapter purchases.

An unlock is a single unit of work: a conditional insert guarded by the
(user, chapter) primary key, followed by a wallet debit only when the insert
created a row. Concurrent duplicate requests therefore charge once, and a failed
debit leaves no record behind.
*/
package unlock

import "time"

// Record is the append-only fact that a user bought permanent access to a chapter.
type Record struct {
	UserID    string    `json:"user_id"`
	ChapterID string    `json:"chapter_id"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome reports what an unlock request did.
type Outcome struct {
	ChapterID string `json:"chapter_id"`
	Price     int64  `json:"price"`
	// Charged is false when the chapter was already unlocked.
	Charged bool `json:"charged"`
}

const FieldPrice = "price"
