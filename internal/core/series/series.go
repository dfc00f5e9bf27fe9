// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package series manages the publication containers that chapters live in.

A [Series] is owned by one author and is either a novel or a comic; its
[Volume] list orders chapters into books. The package also acts as the
authorisation gate for every authoring command: a series must exist, must not
be trashed, and the caller must be its author.

# Core Responsibility

  - Ownership: [Service.RequireAuthor] is consulted before any chapter mutation.
  - Ordering: Volumes carry a dense volume number used by advance ranking.
  - Counters: chapterCount is maintained by chapter commands via [Repository.AdjustChapterCount].
*/
package series

import "time"

// # Series Kind

// Kind distinguishes the two content shapes a series can publish.
type Kind string

const (
	// KindNovel series publish rich-text chapters.
	KindNovel Kind = "novel"

	// KindComic series publish ordered image pages.
	KindComic Kind = "comic"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindNovel || k == KindComic
}

// # Aggregates

// Series is a serialized work published in chapters.
type Series struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	IsTrashed bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Volume groups chapters of a series in reading order.
type Volume struct {
	ID           string    `json:"id"`
	SeriesID     string    `json:"series_id"`
	VolumeNumber int       `json:"volume_number"`
	Title        string    `json:"title"`
	ChapterCount int       `json:"chapter_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// # Field Identifiers

const (
	FieldTitle = "title"
	FieldKind  = "kind"
)
