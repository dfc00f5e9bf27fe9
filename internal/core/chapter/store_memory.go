// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

// memoryRepository implements [Repository] on top of [memdb.DB].
type memoryRepository struct {
	db       *memdb.DB
	chapters *memdb.Table[string, Chapter]
	versions *memdb.Table[string, Version]
}

// NewMemoryRepository constructs an in-process chapter store sharing db's lock.
func NewMemoryRepository(db *memdb.DB) Repository {
	return &memoryRepository{
		db:       db,
		chapters: memdb.NewTable[string, Chapter](db),
		versions: memdb.NewTable[string, Version](db),
	}
}

func (repository *memoryRepository) CreateChapter(context context.Context, chapter *Chapter) error {
	return repository.db.Write(context, func() error {
		now := time.Now().UTC()
		chapter.CreatedAt, chapter.UpdatedAt = now, now
		if !repository.chapters.Insert(chapter.ID, *chapter) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

func (repository *memoryRepository) FindChapter(context context.Context, id string) (*Chapter, error) {
	var found Chapter
	err := repository.db.Read(context, func() error {
		row, ok := repository.chapters.Get(id)
		if !ok {
			return apperr.NotFound("Chapter")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// LockChapter is FindChapter: writers already hold the exclusive lock.
func (repository *memoryRepository) LockChapter(context context.Context, id string) (*Chapter, error) {
	return repository.FindChapter(context, id)
}

func (repository *memoryRepository) FindChapters(context context.Context, ids []string) ([]*Chapter, error) {
	var chapters []*Chapter
	err := repository.db.Read(context, func() error {
		for _, id := range ids {
			if row, ok := repository.chapters.Get(id); ok {
				chapters = append(chapters, &row)
			}
		}
		return nil
	})
	return chapters, err
}

func (repository *memoryRepository) ListByVolume(context context.Context, volumeID string) ([]*Chapter, error) {
	return repository.filterChapters(context, func(c Chapter) bool { return c.VolumeID == volumeID })
}

func (repository *memoryRepository) ListScheduled(context context.Context, seriesID string, after time.Time) ([]*Chapter, error) {
	return repository.filterChapters(context, func(c Chapter) bool {
		return c.SeriesID == seriesID && c.PublishedDate != nil && c.PublishedDate.After(after)
	})
}

func (repository *memoryRepository) filterChapters(context context.Context, keep func(Chapter) bool) ([]*Chapter, error) {
	var chapters []*Chapter
	err := repository.db.Read(context, func() error {
		for _, row := range repository.chapters.Filter(keep) {
			chapters = append(chapters, &row)
		}
		return nil
	})

	slices.SortFunc(chapters, func(a, b *Chapter) int {
		return cmp.Or(cmp.Compare(a.VolumeID, b.VolumeID), cmp.Compare(a.ChapterNumber, b.ChapterNumber))
	})
	return chapters, err
}

func (repository *memoryRepository) SaveChapter(context context.Context, chapter *Chapter) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.chapters.Get(chapter.ID)
		if !ok {
			return apperr.NotFound("Chapter")
		}

		row.CurrentVersionID = chapter.CurrentVersionID
		row.PublishedVersionID = chapter.PublishedVersionID
		row.PublishedDate = chapter.PublishedDate
		row.Price = chapter.Price
		row.UpdatedAt = time.Now().UTC()

		chapter.UpdatedAt = row.UpdatedAt
		repository.chapters.Put(chapter.ID, row)
		return nil
	})
}

func (repository *memoryRepository) SetChapterNumber(context context.Context, chapterID string, number int) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.chapters.Get(chapterID)
		if !ok {
			return apperr.NotFound("Chapter")
		}
		row.ChapterNumber = number
		row.UpdatedAt = time.Now().UTC()
		repository.chapters.Put(chapterID, row)
		return nil
	})
}

func (repository *memoryRepository) ShiftChapterNumbers(context context.Context, volumeID string, from, delta int) error {
	return repository.db.Write(context, func() error {
		for _, row := range repository.chapters.Filter(func(c Chapter) bool {
			return c.VolumeID == volumeID && c.ChapterNumber >= from
		}) {
			row.ChapterNumber += delta
			repository.chapters.Put(row.ID, row)
		}
		return nil
	})
}

func (repository *memoryRepository) DeleteChapter(context context.Context, id string) error {
	return repository.db.Write(context, func() error {
		if !repository.chapters.Delete(id) {
			return apperr.NotFound("Chapter")
		}
		for _, version := range repository.versions.Filter(func(v Version) bool { return v.ChapterID == id }) {
			repository.versions.Delete(version.ID)
		}
		return nil
	})
}

// # Version Arena

func (repository *memoryRepository) CreateVersion(context context.Context, version *Version) error {
	return repository.db.Write(context, func() error {
		if _, ok := repository.chapters.Get(version.ChapterID); !ok {
			return apperr.NotFound("Chapter")
		}

		version.CreatedAt = time.Now().UTC()
		if !repository.versions.Insert(version.ID, *version) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

func (repository *memoryRepository) FindVersion(context context.Context, id string) (*Version, error) {
	var found Version
	err := repository.db.Read(context, func() error {
		row, ok := repository.versions.Get(id)
		if !ok {
			return apperr.NotFound("Version")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) ListVersions(context context.Context, chapterID string) ([]*Version, error) {
	var versions []*Version
	err := repository.db.Read(context, func() error {
		for _, row := range repository.versions.Filter(func(v Version) bool { return v.ChapterID == chapterID }) {
			versions = append(versions, &row)
		}
		return nil
	})

	// UUIDv7 ids break ties between versions created within the same clock tick
	slices.SortFunc(versions, func(a, b *Version) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return versions, err
}

func (repository *memoryRepository) SetVersionStatus(context context.Context, versionID string, status Status) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.versions.Get(versionID)
		if !ok {
			return apperr.NotFound("Version")
		}
		row.Status = status
		repository.versions.Put(versionID, row)
		return nil
	})
}

func (repository *memoryRepository) DeleteVersions(context context.Context, ids []string) error {
	return repository.db.Write(context, func() error {
		for _, id := range ids {
			repository.versions.Delete(id)
		}
		return nil
	})
}
