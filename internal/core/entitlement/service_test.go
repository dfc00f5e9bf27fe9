// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/entitlement"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/core/unlock"
	"github.com/taibuivan/dashi/internal/core/wallet"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
	"github.com/taibuivan/dashi/internal/platform/redis"
	"github.com/taibuivan/dashi/internal/platform/storage"
	"github.com/taibuivan/dashi/pkg/pointer"
)

const (
	author = "author-1"
	reader = "reader-1"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type world struct {
	ctx           context.Context
	series        *series.Service
	chapters      *chapter.Service
	subscriptions *subscription.Service
	wallets       *wallet.Service
	unlocks       *unlock.Service
	entitlement   *entitlement.Service
}

func newWorld(t *testing.T) *world {
	t.Helper()

	db := memdb.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return fixedNow }

	seriesService := series.NewService(series.NewMemoryRepository(db), db, logger)
	chapterRepository := chapter.NewMemoryRepository(db)
	chapterService := chapter.NewService(chapterRepository, seriesService, db, logger, chapter.WithClock(clock))
	subscriptionService := subscription.NewService(subscription.NewMemoryRepository(db), seriesService, db, logger, subscription.WithClock(clock))
	walletService := wallet.NewService(wallet.NewMemoryRepository(db), db, logger)
	unlockService := unlock.NewService(unlock.NewMemoryRepository(db), chapterRepository, seriesService, walletService, db, logger, unlock.WithClock(clock))

	entitlementService := entitlement.NewService(entitlement.Dependencies{
		Chapters: chapterRepository,
		Series:   seriesService,
		Unlocks:  unlockService,
		Perks:    subscriptionService,
		Reader:   db,
		Cache:    redis.NewCache(nil, time.Hour, logger),
		Images:   storage.NewStaticResolver("https://cdn.dashi.app"),
		Logger:   logger,
	}, entitlement.WithClock(clock))

	return &world{
		ctx:           context.Background(),
		series:        seriesService,
		chapters:      chapterService,
		subscriptions: subscriptionService,
		wallets:       walletService,
		unlocks:       unlockService,
		entitlement:   entitlementService,
	}
}

func (w *world) newSeries(t *testing.T, kind series.Kind) string {
	t.Helper()
	created, err := w.series.CreateSeries(w.ctx, author, series.CreateSeriesInput{Title: "Lantern Keep", Kind: kind})
	require.NoError(t, err)
	return created.ID
}

func (w *world) newVolume(t *testing.T, seriesID string) string {
	t.Helper()
	volume, err := w.series.CreateVolume(w.ctx, seriesID, author, "")
	require.NoError(t, err)
	return volume.ID
}

func (w *world) publish(t *testing.T, seriesID, volumeID string, fields chapter.Fields, price int64, date time.Time) string {
	t.Helper()

	created, err := w.chapters.CreateChapter(w.ctx, author, chapter.CreateChapterInput{
		SeriesID: seriesID,
		VolumeID: volumeID,
		Fields:   fields,
		Price:    pointer.To(price),
	})
	require.NoError(t, err)

	_, err = w.chapters.Publish(w.ctx, author, created.ID, &date)
	require.NoError(t, err)
	return created.ID
}

func comicPages(title string) chapter.Fields {
	return chapter.Fields{Title: title, Thumbnail: "thumbs/" + title + ".webp", Content: chapter.ComicContent{Pages: []string{"p1.webp", "p2.webp"}}}
}

func novelText(title string) chapter.Fields {
	return chapter.Fields{Title: title, Content: chapter.NovelContent{Body: "The lantern flickered."}, Note: "Thanks for reading"}
}

/*
TestGetChapter_AdvanceScenario publishes C1, C2 in volume 1 and C3 in volume 2 a day
ahead; a subscriber whose tier has two perks reads C2 but not C3.
*/
func TestGetChapter_AdvanceScenario(t *testing.T) {
	w := newWorld(t)
	seriesID := w.newSeries(t, series.KindComic)
	v1 := w.newVolume(t, seriesID)
	v2 := w.newVolume(t, seriesID)

	tomorrow := fixedNow.Add(24 * time.Hour)
	c1 := w.publish(t, seriesID, v1, comicPages("c1"), 0, tomorrow)
	c2 := w.publish(t, seriesID, v1, comicPages("c2"), 0, tomorrow)
	c3 := w.publish(t, seriesID, v2, comicPages("c3"), 0, tomorrow)

	tier, err := w.subscriptions.CreateTier(w.ctx, author, seriesID, subscription.CreateTierInput{Name: "DashiFan", Perks: 2, Price: 300})
	require.NoError(t, err)

	_, err = w.entitlement.GetChapter(w.ctx, c1, reader)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	pending, err := w.subscriptions.Subscribe(w.ctx, reader, tier.ID)
	require.NoError(t, err)
	_, err = w.subscriptions.Activate(w.ctx, pending.ID, fixedNow.Add(30*24*time.Hour))
	require.NoError(t, err)

	view, err := w.entitlement.GetChapter(w.ctx, c2, reader)
	require.NoError(t, err)
	assert.True(t, view.IsAdvance)
	assert.Equal(t, 2, view.AdvanceRank)
	assert.Equal(t, series.KindComic, view.Content.Kind)
	assert.Equal(t, []string{"https://cdn.dashi.app/p1.webp", "https://cdn.dashi.app/p2.webp"}, view.Content.Pages)
	assert.Equal(t, "https://cdn.dashi.app/thumbs/c2.webp", view.Thumbnail)

	_, err = w.entitlement.GetChapter(w.ctx, c3, reader)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = w.entitlement.GetChapter(w.ctx, c1, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestGetChapter_PricedUnlock walks a priced chapter from anonymous through locked to unlocked.
*/
func TestGetChapter_PricedUnlock(t *testing.T) {
	w := newWorld(t)
	seriesID := w.newSeries(t, series.KindNovel)
	volumeID := w.newVolume(t, seriesID)
	priced := w.publish(t, seriesID, volumeID, novelText("Toll"), 40, fixedNow.Add(-time.Hour))

	_, err := w.entitlement.GetChapter(w.ctx, priced, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = w.entitlement.GetChapter(w.ctx, priced, reader)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = w.wallets.Credit(w.ctx, reader, 100, "topup")
	require.NoError(t, err)
	_, err = w.unlocks.UnlockChapter(w.ctx, reader, priced, 40)
	require.NoError(t, err)
	_, err = w.unlocks.UnlockChapter(w.ctx, reader, priced, 40)
	require.NoError(t, err)

	view, err := w.entitlement.GetChapter(w.ctx, priced, reader)
	require.NoError(t, err)
	assert.Equal(t, int64(40), view.Price)
	assert.True(t, view.Unlocked)
	assert.Equal(t, "The lantern flickered.", view.Content.Body)
	assert.Equal(t, "Thanks for reading", view.Note)

	balance, err := w.wallets.Balance(w.ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance.Balance)

	// The author is a reader like any other on the read path.
	_, err = w.entitlement.GetChapter(w.ctx, priced, author)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestGetChapter_Visibility hides drafts and chapters of trashed series, and serves
the published version rather than a newer draft.
*/
func TestGetChapter_Visibility(t *testing.T) {
	w := newWorld(t)
	seriesID := w.newSeries(t, series.KindNovel)
	volumeID := w.newVolume(t, seriesID)

	draft, err := w.chapters.CreateChapter(w.ctx, author, chapter.CreateChapterInput{
		SeriesID: seriesID,
		VolumeID: volumeID,
		Fields:   novelText("Unreleased"),
	})
	require.NoError(t, err)

	_, err = w.entitlement.GetChapter(w.ctx, draft.ID, author)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	free := w.publish(t, seriesID, volumeID, novelText("Released"), 0, fixedNow.Add(-time.Hour))

	_, err = w.chapters.UpdateChapter(w.ctx, author, free, chapter.UpdateChapterInput{Fields: novelText("Rewritten")})
	require.NoError(t, err)

	view, err := w.entitlement.GetChapter(w.ctx, free, "")
	require.NoError(t, err)
	assert.Equal(t, "Released", view.Title)
	assert.False(t, view.IsAdvance)
	assert.Equal(t, int64(0), view.Price)

	require.NoError(t, w.series.TrashSeries(w.ctx, seriesID, author))
	_, err = w.entitlement.GetChapter(w.ctx, free, "")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = w.entitlement.GetChapter(w.ctx, "0195f3a2-0000-7000-8000-000000000000", "")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}
