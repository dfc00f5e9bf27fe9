// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/metrics"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/pointer"
	"github.com/taibuivan/dashi/pkg/uuid"
)

// DefaultAutoSaveRetention is the number of auto-save versions kept per chapter.
const DefaultAutoSaveRetention = 20

var errArenaViolation = errors.New("chapter: version arena invariant violated")

// SeriesGate is the authorisation and counter collaborator provided by package series.
type SeriesGate interface {
	RequireAuthor(ctx context.Context, seriesID, userID string) (*series.Series, error)
	RequireVolume(ctx context.Context, seriesID, volumeID string) (*series.Volume, error)
	AdjustChapterCount(ctx context.Context, volumeID string, delta int) error
}

// # Service Layer

// Service orchestrates the Version Store and the Publication State Machine.
type Service struct {
	repository Repository
	series     SeriesGate
	transactor tx.Transactor
	logger     *slog.Logger
	now        func() time.Time
	retention  int
}

// Option configures a [Service].
type Option func(*Service)

// WithClock overrides the time source used for publish dates.
func WithClock(now func() time.Time) Option {
	return func(service *Service) {
		service.now = now
	}
}

// WithAutoSaveRetention caps how many auto-save versions a chapter keeps.
func WithAutoSaveRetention(limit int) Option {
	return func(service *Service) {
		if limit > 0 {
			service.retention = limit
		}
	}
}

// NewService constructs a new [Service].
func NewService(repository Repository, gate SeriesGate, transactor tx.Transactor, logger *slog.Logger, options ...Option) *Service {
	service := &Service{
		repository: repository,
		series:     gate,
		transactor: transactor,
		logger:     logger,
		now:        time.Now,
		retention:  DefaultAutoSaveRetention,
	}

	for _, option := range options {
		option(service)
	}

	return service
}

// # Authoring Gate

// authorize resolves a chapter and checks that userID authors its series.
func (service *Service) authorize(ctx context.Context, chapterID, userID string) (*Chapter, *series.Series, error) {
	chapter, err := service.repository.FindChapter(ctx, chapterID)
	if err != nil {
		return nil, nil, err
	}

	owner, err := service.series.RequireAuthor(ctx, chapter.SeriesID, userID)
	if err != nil {
		return nil, nil, err
	}

	return chapter, owner, nil
}

// # Chapter Creation

// CreateChapterInput holds the data required to add a chapter to a volume.
type CreateChapterInput struct {
	SeriesID string
	VolumeID string
	Fields   Fields
	Price    *int64

	// Position inserts the chapter at a 1-based slot; nil appends.
	Position *int
}

/*
CreateChapter adds a chapter with its first Draft version.

Description: The volume counter is incremented first so that concurrent
creations on the same volume serialise on its row. The chapter takes the next
number, or the requested position with later chapters shifted up by one.

Returns:
  - *Chapter: The new chapter
  - error: NotFound, Forbidden or Validation before any mutation
*/
func (service *Service) CreateChapter(ctx context.Context, userID string, input CreateChapterInput) (*Chapter, error) {
	owner, err := service.series.RequireAuthor(ctx, input.SeriesID, userID)
	if err != nil {
		return nil, err
	}

	if _, err := service.series.RequireVolume(ctx, input.SeriesID, input.VolumeID); err != nil {
		return nil, err
	}

	if err := validateFields(owner.Kind, input.Fields, input.Price); err != nil {
		return nil, err
	}

	if input.Position != nil && *input.Position < 1 {
		return nil, validate.Fail(FieldPosition, "Position must be at least 1")
	}

	chapter := &Chapter{
		ID:       uuid.New(),
		SeriesID: input.SeriesID,
		VolumeID: input.VolumeID,
		Price:    normalizePrice(input.Price),
	}
	version := newVersion(chapter.ID, input.Fields, false)
	chapter.CurrentVersionID = version.ID

	err = service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		if err := service.series.AdjustChapterCount(ctx, input.VolumeID, 1); err != nil {
			return err
		}

		volume, err := service.series.RequireVolume(ctx, input.SeriesID, input.VolumeID)
		if err != nil {
			return err
		}

		chapter.ChapterNumber = volume.ChapterCount
		if input.Position != nil {
			if *input.Position > volume.ChapterCount {
				return validate.Fail(FieldPosition, fmt.Sprintf("Position must be between 1 and %d", volume.ChapterCount))
			}
			if err := service.repository.ShiftChapterNumbers(ctx, input.VolumeID, *input.Position, 1); err != nil {
				return err
			}
			chapter.ChapterNumber = *input.Position
		}

		if err := service.repository.CreateChapter(ctx, chapter); err != nil {
			return err
		}
		if err := service.repository.CreateVersion(ctx, version); err != nil {
			return err
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("chapter_created",
		slog.String("chapter_id", chapter.ID),
		slog.String("volume_id", chapter.VolumeID),
		slog.Int("chapter_number", chapter.ChapterNumber),
	)

	return chapter, nil
}

// # Version Store

// UpdateChapterInput holds one save of the chapter editor.
type UpdateChapterInput struct {
	Fields     Fields
	IsAutoSave bool

	// BaseVersionID is the current version the editor started from; empty skips the check.
	BaseVersionID string

	// Price replaces the unlock cost when non-nil.
	Price *int64
}

/*
UpdateChapter appends a new version and makes it current.

Description: A save never rewrites history. When BaseVersionID is given and no
longer matches the current version, a concurrent writer got there first and the
save is rejected with a DomainConflict. Auto-saves trigger retention pruning in
the same transaction.

Returns:
  - *Version: The appended version
  - error: NotFound, Forbidden, Validation or DomainConflict
*/
func (service *Service) UpdateChapter(ctx context.Context, userID, chapterID string, input UpdateChapterInput) (*Version, error) {
	_, owner, err := service.authorize(ctx, chapterID, userID)
	if err != nil {
		return nil, err
	}

	if err := validateFields(owner.Kind, input.Fields, input.Price); err != nil {
		return nil, err
	}

	version := newVersion(chapterID, input.Fields, input.IsAutoSave)
	var pruned int

	err = service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		chapter, err := service.repository.LockChapter(ctx, chapterID)
		if err != nil {
			return err
		}

		if input.BaseVersionID != "" && input.BaseVersionID != chapter.CurrentVersionID {
			return apperr.DomainConflict("Chapter was saved by another editor; reload before saving")
		}

		if err := service.repository.CreateVersion(ctx, version); err != nil {
			return err
		}

		chapter.CurrentVersionID = version.ID
		if input.Price != nil {
			chapter.Price = normalizePrice(input.Price)
		}

		if err := service.repository.SaveChapter(ctx, chapter); err != nil {
			return err
		}

		if input.IsAutoSave {
			if pruned, err = service.pruneAutoSaves(ctx, chapter); err != nil {
				return err
			}
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("chapter_saved",
		slog.String("chapter_id", chapterID),
		slog.String("version_id", version.ID),
		slog.Bool("auto_save", input.IsAutoSave),
		slog.Int("pruned", pruned),
	)

	return version, nil
}

// pruneAutoSaves deletes the oldest auto-saves beyond the retention limit.
// The current and published versions are never candidates.
func (service *Service) pruneAutoSaves(ctx context.Context, chapter *Chapter) (int, error) {
	versions, err := service.repository.ListVersions(ctx, chapter.ID)
	if err != nil {
		return 0, err
	}

	var kept int
	var stale []string
	for _, version := range versions {
		if !version.IsAutoSave || chapter.references(version.ID) {
			continue
		}

		kept++
		if kept > service.retention {
			stale = append(stale, version.ID)
		}
	}

	if err := service.repository.DeleteVersions(ctx, stale); err != nil {
		return 0, err
	}

	return len(stale), nil
}

/*
RestoreVersion repoints the chapter's current version to an existing one.

Description: No version is created or deleted, so the history length is unchanged.
*/
func (service *Service) RestoreVersion(ctx context.Context, userID, chapterID, versionID string) (*Chapter, error) {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return nil, err
	}

	var chapter *Chapter
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if chapter, err = service.repository.LockChapter(ctx, chapterID); err != nil {
			return err
		}

		if _, err := service.ownedVersion(ctx, chapterID, versionID); err != nil {
			return err
		}

		chapter.CurrentVersionID = versionID
		if err := service.repository.SaveChapter(ctx, chapter); err != nil {
			return err
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("chapter_version_restored",
		slog.String("chapter_id", chapterID),
		slog.String("version_id", versionID),
	)

	return chapter, nil
}

/*
DeleteVersion removes a version from the chapter's history.

Returns:
  - error: DomainConflict when the version is current or published, NotFound when
    it does not belong to the chapter
*/
func (service *Service) DeleteVersion(ctx context.Context, userID, chapterID, versionID string) error {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return err
	}

	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		chapter, err := service.repository.LockChapter(ctx, chapterID)
		if err != nil {
			return err
		}

		if _, err := service.ownedVersion(ctx, chapterID, versionID); err != nil {
			return err
		}

		if chapter.CurrentVersionID == versionID {
			return apperr.DomainConflict("The current version cannot be deleted")
		}
		if chapter.references(versionID) {
			return apperr.DomainConflict("The published version cannot be deleted")
		}

		if err := service.repository.DeleteVersions(ctx, []string{versionID}); err != nil {
			return err
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return err
	}

	service.logger.Info("chapter_version_deleted",
		slog.String("chapter_id", chapterID),
		slog.String("version_id", versionID),
	)

	return nil
}

// ListVersions returns the chapter's history, newest first, to its author.
func (service *Service) ListVersions(ctx context.Context, userID, chapterID string) ([]*Version, error) {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return nil, err
	}
	return service.repository.ListVersions(ctx, chapterID)
}

// GetVersion returns one version of the chapter to its author.
func (service *Service) GetVersion(ctx context.Context, userID, chapterID, versionID string) (*Version, error) {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return nil, err
	}
	return service.ownedVersion(ctx, chapterID, versionID)
}

// # Publication State Machine

/*
Publish releases the current version.

Description: The current version must be Draft. It becomes Published and the
previously published version of the chapter, if any, returns to Draft. A nil
publishDate means now; a future date produces an advance chapter.

Returns:
  - *Chapter: The published chapter
  - error: DomainConflict when the current version is already published
*/
func (service *Service) Publish(ctx context.Context, userID, chapterID string, publishDate *time.Time) (*Chapter, error) {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return nil, err
	}

	date := service.now().UTC()
	if publishDate != nil {
		date = publishDate.UTC()
	}

	var chapter *Chapter
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if chapter, err = service.repository.LockChapter(ctx, chapterID); err != nil {
			return err
		}

		if err := service.publish(ctx, chapter, date); err != nil {
			return err
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return nil, err
	}

	metrics.ChaptersPublished.Inc()
	service.logger.Info("chapter_published",
		slog.String("chapter_id", chapterID),
		slog.Time("published_date", date),
		slog.Bool("advance", chapter.IsAdvance(service.now())),
	)

	return chapter, nil
}

// publish applies the Draft to Published transition to a locked chapter.
func (service *Service) publish(ctx context.Context, chapter *Chapter, date time.Time) error {
	current, err := service.repository.FindVersion(ctx, chapter.CurrentVersionID)
	if err != nil {
		return err
	}

	if current.Status == StatusPublished {
		return apperr.DomainConflict("The current version is already published")
	}

	if chapter.PublishedVersionID != nil {
		if err := service.repository.SetVersionStatus(ctx, *chapter.PublishedVersionID, StatusDraft); err != nil {
			return err
		}
	}

	if err := service.repository.SetVersionStatus(ctx, current.ID, StatusPublished); err != nil {
		return err
	}

	chapter.PublishedVersionID = &current.ID
	chapter.PublishedDate = &date

	return service.repository.SaveChapter(ctx, chapter)
}

/*
Unpublish withdraws the published version back to Draft.

Description: The guard is the chapter's published version, not its current
one. A chapter that was published and then edited still has a live release,
and Unpublish takes that release down while the newer draft stays current.

Returns:
  - error: DomainConflict when the chapter has no published version
*/
func (service *Service) Unpublish(ctx context.Context, userID, chapterID string) (*Chapter, error) {
	if _, _, err := service.authorize(ctx, chapterID, userID); err != nil {
		return nil, err
	}

	var chapter *Chapter
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if chapter, err = service.repository.LockChapter(ctx, chapterID); err != nil {
			return err
		}

		if !chapter.IsPublished() {
			return apperr.DomainConflict("Chapter is not published")
		}

		if err := service.repository.SetVersionStatus(ctx, *chapter.PublishedVersionID, StatusDraft); err != nil {
			return err
		}

		chapter.PublishedVersionID = nil
		chapter.PublishedDate = nil
		if err := service.repository.SaveChapter(ctx, chapter); err != nil {
			return err
		}

		return service.checkArena(ctx, chapter)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("chapter_unpublished", slog.String("chapter_id", chapterID))
	return chapter, nil
}

/*
Reorder swaps the chapter numbers of two chapters of the same volume.

Description: Both numbers change in one transaction, so the operation is its
own inverse and no intermediate duplicate is ever committed. Rows are locked
in ID order whatever the argument order.
*/
func (service *Service) Reorder(ctx context.Context, userID, chapterA, chapterB string) error {
	first, _, err := service.authorize(ctx, chapterA, userID)
	if err != nil {
		return err
	}

	second, err := service.repository.FindChapter(ctx, chapterB)
	if err != nil {
		return err
	}

	if first.VolumeID != second.VolumeID {
		return validate.Fail(FieldChapterIDs, "Chapters must belong to the same volume")
	}

	if first.ID == second.ID {
		return nil
	}

	err = service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		locked := make(map[string]*Chapter, 2)
		for _, id := range []string{min(chapterA, chapterB), max(chapterA, chapterB)} {
			chapter, err := service.repository.LockChapter(ctx, id)
			if err != nil {
				return err
			}
			locked[id] = chapter
		}

		a, b := locked[chapterA], locked[chapterB]
		if err := service.repository.SetChapterNumber(ctx, a.ID, b.ChapterNumber); err != nil {
			return err
		}
		return service.repository.SetChapterNumber(ctx, b.ID, a.ChapterNumber)
	})
	if err != nil {
		return err
	}

	service.logger.Info("chapters_reordered",
		slog.String("chapter_a", chapterA),
		slog.String("chapter_b", chapterB),
	)

	return nil
}

// DeleteChapter removes one chapter, decrements its volume counter and closes the number gap.
func (service *Service) DeleteChapter(ctx context.Context, userID, chapterID string) error {
	chapter, _, err := service.authorize(ctx, chapterID, userID)
	if err != nil {
		return err
	}

	err = service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		return service.deleteChapters(ctx, []*Chapter{chapter})
	})
	if err != nil {
		return err
	}

	service.logger.Info("chapter_deleted",
		slog.String("chapter_id", chapterID),
		slog.String("volume_id", chapter.VolumeID),
	)

	return nil
}

// # Bulk Operations

/*
BulkPublish publishes every listed chapter of a series as of now.

Description: All IDs are resolved before any mutation; one unknown ID or a
chapter of another series fails the whole batch with NotFound. Chapters whose
current version is already published are skipped.

Returns:
  - []*Chapter: The chapters that changed state
  - error: NotFound, Forbidden or Validation
*/
func (service *Service) BulkPublish(ctx context.Context, userID, seriesID string, chapterIDs []string) ([]*Chapter, error) {
	if _, err := service.series.RequireAuthor(ctx, seriesID, userID); err != nil {
		return nil, err
	}

	date := service.now().UTC()
	var published []*Chapter

	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		batch, err := service.resolveBatch(ctx, seriesID, chapterIDs)
		if err != nil {
			return err
		}

		for _, chapter := range batch {
			current, err := service.repository.FindVersion(ctx, chapter.CurrentVersionID)
			if err != nil {
				return err
			}
			if current.Status == StatusPublished {
				continue
			}

			if err := service.publish(ctx, chapter, date); err != nil {
				return err
			}
			if err := service.checkArena(ctx, chapter); err != nil {
				return err
			}
			published = append(published, chapter)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ChaptersPublished.Add(float64(len(published)))
	service.logger.Info("chapters_bulk_published",
		slog.String("series_id", seriesID),
		slog.Int("requested", len(chapterIDs)),
		slog.Int("published", len(published)),
	)

	return published, nil
}

/*
BulkDelete removes every listed chapter of a series atomically.

Description: Each touched volume's counter drops once per removed chapter and
its remaining chapters are renumbered densely in their existing order.
*/
func (service *Service) BulkDelete(ctx context.Context, userID, seriesID string, chapterIDs []string) error {
	if _, err := service.series.RequireAuthor(ctx, seriesID, userID); err != nil {
		return err
	}

	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		batch, err := service.resolveBatch(ctx, seriesID, chapterIDs)
		if err != nil {
			return err
		}
		return service.deleteChapters(ctx, batch)
	})
	if err != nil {
		return err
	}

	service.logger.Info("chapters_bulk_deleted",
		slog.String("series_id", seriesID),
		slog.Int("deleted", len(chapterIDs)),
	)

	return nil
}

// resolveBatch locks every listed chapter or fails with NotFound before any write.
func (service *Service) resolveBatch(ctx context.Context, seriesID string, chapterIDs []string) ([]*Chapter, error) {
	ids := slices.Compact(slices.Sorted(slices.Values(chapterIDs)))
	if len(ids) == 0 {
		return nil, validate.Fail(FieldChapterIDs, "At least one chapter is required")
	}

	found, err := service.repository.FindChapters(ctx, ids)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]bool, len(found))
	for _, chapter := range found {
		owned[chapter.ID] = chapter.SeriesID == seriesID
	}

	for _, id := range ids {
		if !owned[id] {
			return nil, apperr.NotFound(fmt.Sprintf("Chapter %s", id))
		}
	}

	batch := make([]*Chapter, 0, len(ids))
	for _, id := range ids {
		chapter, err := service.repository.LockChapter(ctx, id)
		if err != nil {
			return nil, err
		}
		batch = append(batch, chapter)
	}

	return batch, nil
}

// deleteChapters removes the chapters, adjusts counters and renumbers each touched volume.
func (service *Service) deleteChapters(ctx context.Context, chapters []*Chapter) error {
	removed := make(map[string]int)
	for _, chapter := range chapters {
		if err := service.repository.DeleteChapter(ctx, chapter.ID); err != nil {
			return err
		}
		removed[chapter.VolumeID]++
	}

	for _, volumeID := range slices.Sorted(maps.Keys(removed)) {
		if err := service.series.AdjustChapterCount(ctx, volumeID, -removed[volumeID]); err != nil {
			return err
		}
		if err := service.renumber(ctx, volumeID); err != nil {
			return err
		}
	}

	return nil
}

// renumber closes gaps so the volume's chapters are numbered 1..N in their current order.
func (service *Service) renumber(ctx context.Context, volumeID string) error {
	chapters, err := service.repository.ListByVolume(ctx, volumeID)
	if err != nil {
		return err
	}

	for index, chapter := range chapters {
		if chapter.ChapterNumber == index+1 {
			continue
		}
		if err := service.repository.SetChapterNumber(ctx, chapter.ID, index+1); err != nil {
			return err
		}
	}

	return nil
}

// # Invariants

// ownedVersion loads a version and hides versions of other chapters behind NotFound.
func (service *Service) ownedVersion(ctx context.Context, chapterID, versionID string) (*Version, error) {
	version, err := service.repository.FindVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	if version.ChapterID != chapterID {
		return nil, apperr.NotFound("Version")
	}

	return version, nil
}

/*
checkArena verifies the chapter's version pointers after a mutation.

Description: The current version and the published version must exist in the
chapter's own arena, the published version must carry the Published status, and
publishedDate must be set exactly when a published version is.
*/
func (service *Service) checkArena(ctx context.Context, chapter *Chapter) error {
	if (chapter.PublishedVersionID == nil) != (chapter.PublishedDate == nil) {
		return apperr.Internal(fmt.Errorf("%w: chapter %s has a half-set publication", errArenaViolation, chapter.ID))
	}

	current, err := service.repository.FindVersion(ctx, chapter.CurrentVersionID)
	if err != nil || current.ChapterID != chapter.ID {
		return apperr.Internal(fmt.Errorf("%w: chapter %s current version %s", errArenaViolation, chapter.ID, chapter.CurrentVersionID))
	}

	if chapter.PublishedVersionID == nil {
		return nil
	}

	published, err := service.repository.FindVersion(ctx, *chapter.PublishedVersionID)
	if err != nil || published.ChapterID != chapter.ID || published.Status != StatusPublished {
		return apperr.Internal(fmt.Errorf("%w: chapter %s published version %s", errArenaViolation, chapter.ID, *chapter.PublishedVersionID))
	}

	return nil
}

// references reports whether versionID is the chapter's current or published version.
func (c *Chapter) references(versionID string) bool {
	return c.CurrentVersionID == versionID || (c.PublishedVersionID != nil && *c.PublishedVersionID == versionID)
}

// # Helpers

func newVersion(chapterID string, fields Fields, isAutoSave bool) *Version {
	return &Version{
		ID:          uuid.New(),
		ChapterID:   chapterID,
		Title:       fields.Title,
		Thumbnail:   fields.Thumbnail,
		Content:     fields.Content,
		Note:        fields.Note,
		VersionName: versionName(isAutoSave),
		IsAutoSave:  isAutoSave,
		Status:      StatusDraft,
	}
}

// normalizePrice stores free chapters as NULL.
func normalizePrice(price *int64) *int64 {
	if pointer.Val(price) == 0 {
		return nil
	}
	return pointer.To(*price)
}
