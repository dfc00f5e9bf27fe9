// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/core/unlock"
	"github.com/taibuivan/dashi/internal/core/wallet"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
	"github.com/taibuivan/dashi/pkg/pointer"
)

const (
	author = "author-1"
	reader = "reader-1"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	chapters *chapter.Service
	wallets  *wallet.Service
	unlocks  *unlock.Service
	volumeID string
	seriesID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := memdb.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return fixedNow }

	seriesService := series.NewService(series.NewMemoryRepository(db), db, logger)
	chapterRepository := chapter.NewMemoryRepository(db)
	chapterService := chapter.NewService(chapterRepository, seriesService, db, logger, chapter.WithClock(clock))
	walletService := wallet.NewService(wallet.NewMemoryRepository(db), db, logger)
	unlockService := unlock.NewService(unlock.NewMemoryRepository(db), chapterRepository, seriesService, walletService, db, logger, unlock.WithClock(clock))

	ctx := context.Background()
	created, err := seriesService.CreateSeries(ctx, author, series.CreateSeriesInput{Title: "Salt Roads", Kind: series.KindNovel})
	require.NoError(t, err)
	volume, err := seriesService.CreateVolume(ctx, created.ID, author, "")
	require.NoError(t, err)

	return &fixture{ctx: ctx, chapters: chapterService, wallets: walletService, unlocks: unlockService, volumeID: volume.ID, seriesID: created.ID}
}

// released creates and publishes a chapter at the given date.
func (f *fixture) released(t *testing.T, price int64, date time.Time) *chapter.Chapter {
	t.Helper()

	created, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   chapter.Fields{Title: "Tide", Content: chapter.NovelContent{Body: "Waves."}},
		Price:    pointer.To(price),
	})
	require.NoError(t, err)

	published, err := f.chapters.Publish(f.ctx, author, created.ID, &date)
	require.NoError(t, err)
	return published
}

func (f *fixture) balance(t *testing.T) int64 {
	t.Helper()
	current, err := f.wallets.Balance(f.ctx, reader)
	require.NoError(t, err)
	return current.Balance
}

/*
TestUnlockChapter_ChargesOnce debits the wallet on the first unlock only.
*/
func TestUnlockChapter_ChargesOnce(t *testing.T) {
	f := newFixture(t)
	priced := f.released(t, 30, fixedNow.Add(-time.Hour))

	_, err := f.wallets.Credit(f.ctx, reader, 100, "topup")
	require.NoError(t, err)

	outcome, err := f.unlocks.UnlockChapter(f.ctx, reader, priced.ID, 30)
	require.NoError(t, err)
	assert.True(t, outcome.Charged)

	outcome, err = f.unlocks.UnlockChapter(f.ctx, reader, priced.ID, 30)
	require.NoError(t, err)
	assert.False(t, outcome.Charged)

	assert.Equal(t, int64(70), f.balance(t))

	owned, err := f.unlocks.HasUnlocked(f.ctx, reader, priced.ID)
	require.NoError(t, err)
	assert.True(t, owned)
}

/*
TestUnlockChapter_ConcurrentDuplicates charges exactly once under concurrent requests.
*/
func TestUnlockChapter_ConcurrentDuplicates(t *testing.T) {
	f := newFixture(t)
	priced := f.released(t, 25, fixedNow.Add(-time.Hour))

	_, err := f.wallets.Credit(f.ctx, reader, 100, "topup")
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		charged int
	)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.unlocks.UnlockChapter(f.ctx, reader, priced.ID, 25)
			if !assert.NoError(t, err) {
				return
			}
			if outcome.Charged {
				mu.Lock()
				charged++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, charged)
	assert.Equal(t, int64(75), f.balance(t))
}

/*
TestUnlockChapter_InsufficientFunds leaves no record and no debit behind.
*/
func TestUnlockChapter_InsufficientFunds(t *testing.T) {
	f := newFixture(t)
	priced := f.released(t, 50, fixedNow.Add(-time.Hour))

	_, err := f.wallets.Credit(f.ctx, reader, 20, "topup")
	require.NoError(t, err)

	_, err = f.unlocks.UnlockChapter(f.ctx, reader, priced.ID, 50)
	assert.True(t, apperr.HasCode(err, apperr.CodeInsufficientFunds))

	owned, err := f.unlocks.HasUnlocked(f.ctx, reader, priced.ID)
	require.NoError(t, err)
	assert.False(t, owned)
	assert.Equal(t, int64(20), f.balance(t))

	_, err = f.wallets.Credit(f.ctx, reader, 30, "topup")
	require.NoError(t, err)

	outcome, err := f.unlocks.UnlockChapter(f.ctx, reader, priced.ID, 50)
	require.NoError(t, err)
	assert.True(t, outcome.Charged)
	assert.Equal(t, int64(0), f.balance(t))
}

/*
TestUnlockChapter_Preconditions refuses chapters that cannot be bought.
*/
func TestUnlockChapter_Preconditions(t *testing.T) {
	f := newFixture(t)
	_, err := f.wallets.Credit(f.ctx, reader, 100, "topup")
	require.NoError(t, err)

	free := f.released(t, 0, fixedNow.Add(-time.Hour))
	advance := f.released(t, 10, fixedNow.Add(24*time.Hour))
	priced := f.released(t, 10, fixedNow.Add(-time.Hour))

	draft, err := f.chapters.CreateChapter(f.ctx, author, chapter.CreateChapterInput{
		SeriesID: f.seriesID,
		VolumeID: f.volumeID,
		Fields:   chapter.Fields{Title: "Unfinished", Content: chapter.NovelContent{Body: "..."}},
		Price:    pointer.To(int64(10)),
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		chapterID string
		price     int64
		code      string
	}{
		{name: "draft", chapterID: draft.ID, price: 10, code: apperr.CodeNotFound},
		{name: "free", chapterID: free.ID, price: 0, code: apperr.CodeValidation},
		{name: "price_mismatch", chapterID: priced.ID, price: 5, code: apperr.CodeValidation},
		{name: "advance", chapterID: advance.ID, price: 10, code: apperr.CodeDomainConflict},
		{name: "missing", chapterID: "0195f3a2-0000-7000-8000-000000000000", price: 10, code: apperr.CodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.unlocks.UnlockChapter(f.ctx, reader, tt.chapterID, tt.price)
			assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.Equal(t, int64(100), f.balance(t))
}
