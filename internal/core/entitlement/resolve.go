// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package entitlement decides whether a viewer may read a chapter.

[Resolve] is a pure function over a [Snapshot] loaded in one read-only unit of
work, so every fact it consults (publication, unlock, subscription, advance
ranks) comes from the same instant. [Service.GetChapter] is the reader path
that loads the snapshot, resolves it, and renders the [ChapterView].
*/
package entitlement

import (
	"cmp"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/platform/apperr"
)

// Path names the rule that governed a decision.
type Path string

const (
	PathFree    Path = "free"
	PathPriced  Path = "priced"
	PathAdvance Path = "advance"
)

// Snapshot is the consistent set of facts a decision is made from.
type Snapshot struct {
	// Chapter is the requested chapter; nil when it does not exist.
	Chapter *chapter.Chapter

	// Scheduled holds the series' chapters published after the read instant.
	// Loaded only for advance chapters.
	Scheduled []*chapter.Chapter

	// VolumeNumbers maps volume IDs of the series to their volume number.
	VolumeNumbers map[string]int

	// Unlocked reports an unlock record for (viewer, chapter).
	Unlocked bool

	// Tier is the viewer's active, unexpired tier on the series, if any.
	Tier *subscription.Tier
}

// Decision is a granted read.
type Decision struct {
	Path        Path
	IsAdvance   bool
	AdvanceRank int
	Price       int64
	Unlocked    bool
}

/*
Resolve applies the access rules to a snapshot.

Parameters:
  - snapshot: *Snapshot
  - viewerID: string (Empty for anonymous readers)
  - now: time.Time (The instant the snapshot was read at)

Returns:
  - *Decision: When access is granted
  - error: apperr.NotFound (unpublished), apperr.Unauthorized (anonymous on a
    priced chapter), apperr.Forbidden (not unlocked, not subscribed, beyond perks)
*/
func Resolve(snapshot *Snapshot, viewerID string, now time.Time) (*Decision, error) {
	target := snapshot.Chapter
	if target == nil || !target.IsPublished() {
		return nil, apperr.NotFound("Chapter")
	}

	price := target.PriceValue()

	if !target.IsAdvance(now) {
		if price == 0 {
			return &Decision{Path: PathFree}, nil
		}

		if viewerID == "" {
			return nil, apperr.Unauthorized("Sign in to read this chapter")
		}
		if !snapshot.Unlocked {
			return nil, apperr.Forbidden("Unlock this chapter to read it")
		}
		return &Decision{Path: PathPriced, Price: price, Unlocked: true}, nil
	}

	if viewerID == "" || snapshot.Tier == nil {
		return nil, apperr.Forbidden("An active subscription is required for advance chapters")
	}

	rank := AdvanceRank(snapshot, now)
	if rank == 0 || rank > snapshot.Tier.Perks {
		return nil, apperr.Forbidden("Your tier does not reach this advance chapter")
	}

	return &Decision{
		Path:        PathAdvance,
		IsAdvance:   true,
		AdvanceRank: rank,
		Price:       price,
		Unlocked:    snapshot.Unlocked,
	}, nil
}

/*
AdvanceRank returns the 1-based position of the snapshot's chapter among the
series' advance chapters ordered by (volume number, chapter number), or 0 when
the chapter is not in advance at now.
*/
func AdvanceRank(snapshot *Snapshot, now time.Time) int {
	advance := make([]*chapter.Chapter, 0, len(snapshot.Scheduled))
	for _, scheduled := range snapshot.Scheduled {
		if scheduled.IsAdvance(now) {
			advance = append(advance, scheduled)
		}
	}

	slices.SortFunc(advance, func(a, b *chapter.Chapter) int {
		return cmp.Or(
			cmp.Compare(snapshot.VolumeNumbers[a.VolumeID], snapshot.VolumeNumbers[b.VolumeID]),
			cmp.Compare(a.ChapterNumber, b.ChapterNumber),
		)
	})

	for index, scheduled := range advance {
		if scheduled.ID == snapshot.Chapter.ID {
			return index + 1
		}
	}
	return 0
}
