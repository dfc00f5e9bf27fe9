// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"time"
)

// # Chapter & Version Data Access

// Repository defines the data access contract for chapters and their version arena.
//
// Mutating methods join the transaction carried by the context, so a service
// composes them into one atomic unit of work.
type Repository interface {

	// CreateChapter persists a new chapter row.
	CreateChapter(context context.Context, chapter *Chapter) error

	/*
		FindChapter returns the chapter with the given ID.

		Returns:
		  - *Chapter: Hydrated chapter
		  - error: apperr.NotFound if missing
	*/
	FindChapter(context context.Context, id string) (*Chapter, error)

	// LockChapter returns the chapter and holds it against concurrent writers until the transaction ends.
	LockChapter(context context.Context, id string) (*Chapter, error)

	// FindChapters returns the chapters whose IDs are listed; missing IDs are simply absent.
	FindChapters(context context.Context, ids []string) ([]*Chapter, error)

	// ListByVolume returns the chapters of a volume ordered by chapter number.
	ListByVolume(context context.Context, volumeID string) ([]*Chapter, error)

	// ListScheduled returns the chapters of a series whose publish date is after the given instant.
	ListScheduled(context context.Context, seriesID string, after time.Time) ([]*Chapter, error)

	// SaveChapter persists pointers, price and publication fields of an existing chapter.
	SaveChapter(context context.Context, chapter *Chapter) error

	// SetChapterNumber moves a chapter to a new position within its volume.
	SetChapterNumber(context context.Context, chapterID string, number int) error

	// ShiftChapterNumbers adds delta to every chapter of the volume numbered from onwards.
	ShiftChapterNumbers(context context.Context, volumeID string, from, delta int) error

	// DeleteChapter removes a chapter together with its versions.
	DeleteChapter(context context.Context, id string) error

	// # Version Arena

	// CreateVersion appends an immutable version.
	CreateVersion(context context.Context, version *Version) error

	/*
		FindVersion returns the version with the given ID.

		Returns:
		  - *Version: Hydrated version including content
		  - error: apperr.NotFound if missing
	*/
	FindVersion(context context.Context, id string) (*Version, error)

	// ListVersions returns a chapter's versions, newest first.
	ListVersions(context context.Context, chapterID string) ([]*Version, error)

	// SetVersionStatus flips the publication status of a version.
	SetVersionStatus(context context.Context, versionID string, status Status) error

	// DeleteVersions removes the listed versions.
	DeleteVersions(context context.Context, ids []string) error
}
