// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement

import (
	"time"

	"github.com/taibuivan/dashi/internal/core/series"
)

// ChapterView is the reader-facing chapter. Version internals (version name,
// auto-save flag, draft IDs) are never exposed.
type ChapterView struct {
	ID            string      `json:"id"`
	SeriesID      string      `json:"series_id"`
	VolumeID      string      `json:"volume_id"`
	ChapterNumber int         `json:"chapter_number"`
	Title         string      `json:"title"`
	Thumbnail     string      `json:"thumbnail,omitempty"`
	Note          string      `json:"note,omitempty"`
	Content       ViewContent `json:"content"`
	PublishedDate time.Time   `json:"published_date"`
	Price         int64       `json:"price"`
	Unlocked      bool        `json:"unlocked"`
	IsAdvance     bool        `json:"is_advance"`
	AdvanceRank   int         `json:"advance_rank,omitempty"`
}

// ViewContent carries the novel body or the signed comic page URLs.
type ViewContent struct {
	Kind  series.Kind `json:"kind"`
	Body  string      `json:"body,omitempty"`
	Pages []string    `json:"pages,omitempty"`
}
