// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
	"github.com/taibuivan/dashi/pkg/pointer"
	"github.com/taibuivan/dashi/pkg/uuid"
)

const author = "author-1"

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx        context.Context
	series     *series.Service
	chapters   *chapter.Service
	repository chapter.Repository
	db         *memdb.DB
	seriesID   string
	volumeID   string
}

func newFixture(t *testing.T, kind series.Kind, options ...chapter.Option) *fixture {
	t.Helper()

	db := memdb.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seriesService := series.NewService(series.NewMemoryRepository(db), db, logger)

	options = append([]chapter.Option{chapter.WithClock(func() time.Time { return fixedNow })}, options...)
	repository := chapter.NewMemoryRepository(db)
	chapterService := chapter.NewService(repository, seriesService, db, logger, options...)

	ctx := context.Background()
	created, err := seriesService.CreateSeries(ctx, author, series.CreateSeriesInput{Title: "Moonlit Harbor", Kind: kind})
	require.NoError(t, err)

	volume, err := seriesService.CreateVolume(ctx, created.ID, author, "Book One")
	require.NoError(t, err)

	return &fixture{
		ctx:        ctx,
		series:     seriesService,
		chapters:   chapterService,
		repository: repository,
		db:         db,
		seriesID:   created.ID,
		volumeID:   volume.ID,
	}
}

func novel(title string) chapter.Fields {
	return chapter.Fields{Title: title, Content: chapter.NovelContent{Body: "Once upon a time."}}
}

func (f *fixture) create(t *testing.T, title string) *chapter.Chapter {
	t.Helper()
	created, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   novel(title),
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) numbers(t *testing.T, ids ...string) []int {
	t.Helper()
	numbers := make([]int, 0, len(ids))
	for _, id := range ids {
		found, err := f.repository.FindChapter(f.ctx, id)
		require.NoError(t, err)
		numbers = append(numbers, found.ChapterNumber)
	}
	return numbers
}

/*
TestCreateChapter_ContentKind rejects content that does not match the series kind
before touching the volume counter.
*/
func TestCreateChapter_ContentKind(t *testing.T) {
	f := newFixture(t, series.KindNovel)

	_, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   chapter.Fields{Title: "Pages", Content: chapter.ComicContent{Pages: []string{"p1.webp"}}},
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	volume, err := f.series.FindVolume(f.ctx, f.volumeID)
	require.NoError(t, err)
	assert.Equal(t, 0, volume.ChapterCount)
}

/*
TestCreateChapter_Authorisation refuses writes from anyone but the author.
*/
func TestCreateChapter_Authorisation(t *testing.T) {
	f := newFixture(t, series.KindNovel)

	_, err := f.chapters.CreateChapter(f.ctx, "reader-1", chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   novel("Intrusion"),
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	first := f.create(t, "One")
	_, err = f.chapters.Publish(f.ctx, "reader-1", first.ID, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestCreateChapter_Position appends by default and shifts later chapters on insertion.
*/
func TestCreateChapter_Position(t *testing.T) {
	f := newFixture(t, series.KindNovel)

	first := f.create(t, "One")
	second := f.create(t, "Two")
	assert.Equal(t, 1, first.ChapterNumber)
	assert.Equal(t, 2, second.ChapterNumber)

	inserted, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   novel("Interlude"),
		Position: pointer.To(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted.ChapterNumber)
	assert.Equal(t, []int{1, 3}, f.numbers(t, first.ID, second.ID))

	_, err = f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   novel("Too far"),
		Position: pointer.To(9),
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	volume, err := f.series.FindVolume(f.ctx, f.volumeID)
	require.NoError(t, err)
	assert.Equal(t, 3, volume.ChapterCount)
}

/*
TestUpdateChapter_OptimisticConcurrency appends versions and rejects a stale base version.
*/
func TestUpdateChapter_OptimisticConcurrency(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	created := f.create(t, "One")

	saved, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{
		Fields:        novel("One (revised)"),
		BaseVersionID: created.CurrentVersionID,
	})
	require.NoError(t, err)
	assert.Equal(t, chapter.VersionNameDraft, saved.VersionName)
	assert.Equal(t, chapter.StatusDraft, saved.Status)

	_, err = f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{
		Fields:        novel("Lost update"),
		IsAutoSave:    true,
		BaseVersionID: created.CurrentVersionID,
	})
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	versions, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
	assert.Equal(t, saved.ID, versions[0].ID)
}

/*
TestRestoreVersion repoints the current version without changing the history length.
*/
func TestRestoreVersion(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	created := f.create(t, "One")

	_, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{Fields: novel("Two")})
	require.NoError(t, err)

	before, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)

	restored, err := f.chapters.RestoreVersion(f.ctx, author, created.ID, created.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, created.CurrentVersionID, restored.CurrentVersionID)

	after, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Len(t, after, len(before))

	other := f.create(t, "Other")
	_, err = f.chapters.RestoreVersion(f.ctx, author, created.ID, other.CurrentVersionID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestDeleteVersion protects the current and published versions.
*/
func TestDeleteVersion(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	created := f.create(t, "One")

	_, err := f.chapters.Publish(f.ctx, author, created.ID, nil)
	require.NoError(t, err)

	err = f.chapters.DeleteVersion(f.ctx, author, created.ID, created.CurrentVersionID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	saved, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{Fields: novel("Two")})
	require.NoError(t, err)

	// The first version is no longer current but still published
	err = f.chapters.DeleteVersion(f.ctx, author, created.ID, created.CurrentVersionID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	scratch, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{Fields: novel("Three")})
	require.NoError(t, err)
	_, err = f.chapters.RestoreVersion(f.ctx, author, created.ID, saved.ID)
	require.NoError(t, err)

	require.NoError(t, f.chapters.DeleteVersion(f.ctx, author, created.ID, scratch.ID))

	versions, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 2)
}

/*
TestPublicationLifecycle walks Draft -> Published -> Draft and the conflicts around it.
*/
func TestPublicationLifecycle(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	created := f.create(t, "One")

	// Unpublishing a draft is a conflict and changes nothing
	_, err := f.chapters.Unpublish(f.ctx, author, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	versions, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Equal(t, chapter.StatusDraft, versions[0].Status)

	published, err := f.chapters.Publish(f.ctx, author, created.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedDate)
	assert.Equal(t, fixedNow, *published.PublishedDate)
	assert.Equal(t, created.CurrentVersionID, *published.PublishedVersionID)

	_, err = f.chapters.Publish(f.ctx, author, created.ID, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	// A new draft can replace the published version
	revised, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{Fields: novel("One (revised)")})
	require.NoError(t, err)

	future := fixedNow.Add(48 * time.Hour)
	republished, err := f.chapters.Publish(f.ctx, author, created.ID, &future)
	require.NoError(t, err)
	assert.Equal(t, revised.ID, *republished.PublishedVersionID)
	assert.True(t, republished.IsAdvance(fixedNow))

	previous, err := f.chapters.GetVersion(f.ctx, author, created.ID, created.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, chapter.StatusDraft, previous.Status)

	unpublished, err := f.chapters.Unpublish(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Nil(t, unpublished.PublishedDate)
	assert.Nil(t, unpublished.PublishedVersionID)

	current, err := f.chapters.GetVersion(f.ctx, author, created.ID, revised.ID)
	require.NoError(t, err)
	assert.Equal(t, chapter.StatusDraft, current.Status)
}

/*
TestUnpublish_WithdrawsReleaseBehindNewerDraft takes down the live release of a
chapter whose current version is a newer draft, and keeps that draft current.
*/
func TestUnpublish_WithdrawsReleaseBehindNewerDraft(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	created := f.create(t, "One")

	_, err := f.chapters.Publish(f.ctx, author, created.ID, nil)
	require.NoError(t, err)

	draft, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{Fields: novel("One (draft)")})
	require.NoError(t, err)
	assert.Equal(t, chapter.StatusDraft, draft.Status)

	unpublished, err := f.chapters.Unpublish(f.ctx, author, created.ID)
	require.NoError(t, err)
	assert.Nil(t, unpublished.PublishedDate)
	assert.Nil(t, unpublished.PublishedVersionID)
	assert.Equal(t, draft.ID, unpublished.CurrentVersionID)

	release, err := f.chapters.GetVersion(f.ctx, author, created.ID, created.CurrentVersionID)
	require.NoError(t, err)
	assert.Equal(t, chapter.StatusDraft, release.Status)

	_, err = f.chapters.Unpublish(f.ctx, author, created.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))
}

/*
TestReorder_SelfInverse swaps two chapters and leaves the others untouched.
*/
func TestReorder_SelfInverse(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	a := f.create(t, "A")
	b := f.create(t, "B")
	c := f.create(t, "C")

	require.NoError(t, f.chapters.Reorder(f.ctx, author, a.ID, c.ID))
	assert.Equal(t, []int{3, 2, 1}, f.numbers(t, a.ID, b.ID, c.ID))

	require.NoError(t, f.chapters.Reorder(f.ctx, author, a.ID, c.ID))
	assert.Equal(t, []int{1, 2, 3}, f.numbers(t, a.ID, b.ID, c.ID))

	other, err := f.series.CreateVolume(f.ctx, f.seriesID, author, "Book Two")
	require.NoError(t, err)
	stranger, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: other.ID,
		Fields:   novel("Elsewhere"),
	})
	require.NoError(t, err)

	err = f.chapters.Reorder(f.ctx, author, a.ID, stranger.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

// lockRecorder records the order in which chapters are locked.
type lockRecorder struct {
	chapter.Repository
	locked []string
}

func (recorder *lockRecorder) LockChapter(ctx context.Context, id string) (*chapter.Chapter, error) {
	recorder.locked = append(recorder.locked, id)
	return recorder.Repository.LockChapter(ctx, id)
}

/*
TestReorder_LocksInIDOrder locks both chapters in ascending ID order regardless
of argument order, so opposing swaps cannot wait on each other.
*/
func TestReorder_LocksInIDOrder(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	a := f.create(t, "A")
	b := f.create(t, "B")

	recorder := &lockRecorder{Repository: f.repository}
	service := chapter.NewService(recorder, f.series, f.db, slog.New(slog.NewTextHandler(io.Discard, nil)),
		chapter.WithClock(func() time.Time { return fixedNow }))

	ascending := []string{min(a.ID, b.ID), max(a.ID, b.ID)}

	require.NoError(t, service.Reorder(f.ctx, author, a.ID, b.ID))
	assert.Equal(t, ascending, recorder.locked)
	assert.Equal(t, []int{2, 1}, f.numbers(t, a.ID, b.ID))

	recorder.locked = nil
	require.NoError(t, service.Reorder(f.ctx, author, b.ID, a.ID))
	assert.Equal(t, ascending, recorder.locked)
	assert.Equal(t, []int{1, 2}, f.numbers(t, a.ID, b.ID))
}

/*
TestBulkDelete_AllOrNothing fails on an unknown ID without deleting anything, then
removes and renumbers on a valid batch.
*/
func TestBulkDelete_AllOrNothing(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	a := f.create(t, "A")
	b := f.create(t, "B")
	c := f.create(t, "C")

	err := f.chapters.BulkDelete(f.ctx, author, f.seriesID, []string{a.ID, uuid.New()})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.repository.FindChapter(f.ctx, a.ID)
	assert.NoError(t, err, "chapter A must survive a failed batch")

	require.NoError(t, f.chapters.BulkDelete(f.ctx, author, f.seriesID, []string{a.ID, b.ID}))

	_, err = f.repository.FindChapter(f.ctx, a.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Equal(t, []int{1}, f.numbers(t, c.ID))

	volume, err := f.series.FindVolume(f.ctx, f.volumeID)
	require.NoError(t, err)
	assert.Equal(t, 1, volume.ChapterCount)
}

/*
TestDeleteChapter_Renumbers closes the number gap left by a single delete.
*/
func TestDeleteChapter_Renumbers(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	a := f.create(t, "A")
	b := f.create(t, "B")
	c := f.create(t, "C")

	require.NoError(t, f.chapters.DeleteChapter(f.ctx, author, b.ID))
	assert.Equal(t, []int{1, 2}, f.numbers(t, a.ID, c.ID))

	volume, err := f.series.FindVolume(f.ctx, f.volumeID)
	require.NoError(t, err)
	assert.Equal(t, 2, volume.ChapterCount)
}

/*
TestBulkPublish skips chapters whose current version is already published and
rejects chapters of another series.
*/
func TestBulkPublish(t *testing.T) {
	f := newFixture(t, series.KindNovel)
	a := f.create(t, "A")
	b := f.create(t, "B")

	_, err := f.chapters.Publish(f.ctx, author, a.ID, nil)
	require.NoError(t, err)

	published, err := f.chapters.BulkPublish(f.ctx, author, f.seriesID, []string{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, b.ID, published[0].ID)

	otherSeries, err := f.series.CreateSeries(f.ctx, author, series.CreateSeriesInput{Title: "Other", Kind: series.KindNovel})
	require.NoError(t, err)
	otherVolume, err := f.series.CreateVolume(f.ctx, otherSeries.ID, author, "")
	require.NoError(t, err)
	foreign, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: otherSeries.ID,
		VolumeID: otherVolume.ID,
		Fields:   novel("Foreign"),
	})
	require.NoError(t, err)

	_, err = f.chapters.BulkPublish(f.ctx, author, f.seriesID, []string{foreign.ID})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = f.chapters.BulkPublish(f.ctx, author, f.seriesID, nil)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

/*
TestAutoSaveRetention keeps only the newest auto-saves and never prunes manual saves.
*/
func TestAutoSaveRetention(t *testing.T) {
	f := newFixture(t, series.KindNovel, chapter.WithAutoSaveRetention(2))
	created := f.create(t, "One")

	for range 5 {
		_, err := f.chapters.UpdateChapter(f.ctx, author, created.ID, chapter.UpdateChapterInput{
			Fields:     novel("Typing..."),
			IsAutoSave: true,
		})
		require.NoError(t, err)
	}

	versions, err := f.chapters.ListVersions(f.ctx, author, created.ID)
	require.NoError(t, err)

	var autoSaves, manual int
	for _, version := range versions {
		if version.IsAutoSave {
			autoSaves++
		} else {
			manual++
		}
	}

	// The current auto-save plus two retained ones
	assert.Equal(t, 3, autoSaves)
	assert.Equal(t, 1, manual)
	assert.Equal(t, chapter.VersionNameAutoSave, versions[0].VersionName)
}
