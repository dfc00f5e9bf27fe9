// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

const (
	author = "author-1"
	reader = "reader-1"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	service  *subscription.Service
	seriesID string
	tier     *subscription.Tier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{ctx: context.Background(), now: fixedNow}

	db := memdb.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seriesService := series.NewService(series.NewMemoryRepository(db), db, logger)
	f.service = subscription.NewService(subscription.NewMemoryRepository(db), seriesService, db, logger,
		subscription.WithClock(func() time.Time { return f.now }))

	created, err := seriesService.CreateSeries(f.ctx, author, series.CreateSeriesInput{Title: "Ashfall", Kind: series.KindComic})
	require.NoError(t, err)
	f.seriesID = created.ID

	f.tier, err = f.service.CreateTier(f.ctx, author, created.ID, subscription.CreateTierInput{Name: "DashiFan Gold", Perks: 2, Price: 500})
	require.NoError(t, err)

	return f
}

/*
TestCreateTier_Validation refuses non-authors and negative perks.
*/
func TestCreateTier_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.CreateTier(f.ctx, reader, f.seriesID, subscription.CreateTierInput{Name: "Bronze", Perks: 1})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.CreateTier(f.ctx, author, f.seriesID, subscription.CreateTierInput{Name: "Bronze", Perks: -1})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	_, err = f.service.CreateTier(f.ctx, author, f.seriesID, subscription.CreateTierInput{Perks: 1})
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	tiers, err := f.service.ListTiers(f.ctx, f.seriesID)
	require.NoError(t, err)
	assert.Len(t, tiers, 1)
}

/*
TestLifecycle walks Pending → Active → Suspended → Active → Cancelled and checks
which states grant perks.
*/
func TestLifecycle(t *testing.T) {
	f := newFixture(t)

	pending, err := f.service.Subscribe(f.ctx, reader, f.tier.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusPending, pending.Status)

	active, err := f.service.GetActive(f.ctx, reader, f.seriesID)
	require.NoError(t, err)
	assert.Nil(t, active)

	expiry := fixedNow.Add(30 * 24 * time.Hour)
	activated, err := f.service.Activate(f.ctx, pending.ID, expiry)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, activated.Status)

	active, err = f.service.GetActive(f.ctx, reader, f.seriesID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, 2, active.Perks)

	suspended, err := f.service.Suspend(f.ctx, pending.ID)
	require.NoError(t, err)
	assert.True(t, expiry.Equal(*suspended.ExpiresAt))

	active, err = f.service.GetActive(f.ctx, reader, f.seriesID)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = f.service.Suspend(f.ctx, pending.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))

	_, err = f.service.Activate(f.ctx, pending.ID, expiry)
	require.NoError(t, err)

	_, err = f.service.Cancel(f.ctx, "someone-else", pending.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = f.service.Cancel(f.ctx, reader, pending.ID)
	require.NoError(t, err)

	_, err = f.service.Activate(f.ctx, pending.ID, expiry)
	assert.True(t, apperr.HasCode(err, apperr.CodeDomainConflict))
}

/*
TestActivate_SingleActivePerSeries refuses a second Active subscription for the same reader and series.
*/
func TestActivate_SingleActivePerSeries(t *testing.T) {
	f := newFixture(t)
	expiry := fixedNow.Add(24 * time.Hour)

	first, err := f.service.Subscribe(f.ctx, reader, f.tier.ID)
	require.NoError(t, err)
	second, err := f.service.Subscribe(f.ctx, reader, f.tier.ID)
	require.NoError(t, err)

	_, err = f.service.Activate(f.ctx, first.ID, expiry)
	require.NoError(t, err)

	_, err = f.service.Activate(f.ctx, second.ID, expiry)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	unchanged, err := f.service.ListSubscriptions(f.ctx, reader)
	require.NoError(t, err)
	statuses := map[string]subscription.Status{}
	for _, s := range unchanged {
		statuses[s.ID] = s.Status
	}
	assert.Equal(t, subscription.StatusPending, statuses[second.ID])
}

/*
TestActiveAt_Expiry stops granting perks once the expiry has passed.
*/
func TestActiveAt_Expiry(t *testing.T) {
	f := newFixture(t)

	pending, err := f.service.Subscribe(f.ctx, reader, f.tier.ID)
	require.NoError(t, err)

	_, err = f.service.Activate(f.ctx, pending.ID, fixedNow.Add(-time.Minute))
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))

	expiry := fixedNow.Add(time.Hour)
	_, err = f.service.Activate(f.ctx, pending.ID, expiry)
	require.NoError(t, err)

	tier, err := f.service.ActiveAt(f.ctx, reader, f.seriesID, expiry.Add(-time.Second))
	require.NoError(t, err)
	assert.NotNil(t, tier)

	tier, err = f.service.ActiveAt(f.ctx, reader, f.seriesID, expiry)
	require.NoError(t, err)
	assert.Nil(t, tier)
}

/*
TestActivate_ReplacesLapsedSubscription lets the payment callback activate a new
tier once the previous Active subscription has expired, and cancels the lapsed one.
*/
func TestActivate_ReplacesLapsedSubscription(t *testing.T) {
	f := newFixture(t)

	silver, err := f.service.CreateTier(f.ctx, author, f.seriesID, subscription.CreateTierInput{Name: "DashiFan Silver", Perks: 1, Price: 200})
	require.NoError(t, err)

	first, err := f.service.Subscribe(f.ctx, reader, silver.ID)
	require.NoError(t, err)
	_, err = f.service.Activate(f.ctx, first.ID, f.now.Add(time.Hour))
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)

	tier, err := f.service.GetActive(f.ctx, reader, f.seriesID)
	require.NoError(t, err)
	assert.Nil(t, tier)

	second, err := f.service.Subscribe(f.ctx, reader, f.tier.ID)
	require.NoError(t, err)
	activated, err := f.service.Activate(f.ctx, second.ID, f.now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, activated.Status)

	tier, err = f.service.GetActive(f.ctx, reader, f.seriesID)
	require.NoError(t, err)
	require.NotNil(t, tier)
	assert.Equal(t, f.tier.ID, tier.ID)

	all, err := f.service.ListSubscriptions(f.ctx, reader)
	require.NoError(t, err)
	statuses := map[string]subscription.Status{}
	for _, s := range all {
		statuses[s.ID] = s.Status
	}
	assert.Equal(t, subscription.StatusCancelled, statuses[first.ID])
	assert.Equal(t, subscription.StatusActive, statuses[second.ID])
}
