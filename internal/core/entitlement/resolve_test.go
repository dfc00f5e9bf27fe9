// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/entitlement"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/pkg/pointer"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func published(id, volumeID string, number int, date time.Time, price int64) *chapter.Chapter {
	c := &chapter.Chapter{
		ID:                 id,
		VolumeID:           volumeID,
		ChapterNumber:      number,
		CurrentVersionID:   id + "-v1",
		PublishedVersionID: pointer.To(id + "-v1"),
		PublishedDate:      pointer.To(date),
	}
	if price > 0 {
		c.Price = pointer.To(price)
	}
	return c
}

/*
TestResolve_Released covers free and priced chapters whose release date has passed.
*/
func TestResolve_Released(t *testing.T) {
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		snapshot *entitlement.Snapshot
		viewer   string
		code     string
		price    int64
	}{
		{name: "missing", snapshot: &entitlement.Snapshot{}, code: apperr.CodeNotFound},
		{
			name:     "draft",
			snapshot: &entitlement.Snapshot{Chapter: &chapter.Chapter{ID: "c1", CurrentVersionID: "v1"}},
			viewer:   "reader",
			code:     apperr.CodeNotFound,
		},
		{name: "free_anonymous", snapshot: &entitlement.Snapshot{Chapter: published("c1", "v", 1, past, 0)}},
		{name: "priced_anonymous", snapshot: &entitlement.Snapshot{Chapter: published("c1", "v", 1, past, 30)}, code: apperr.CodeUnauthorized},
		{name: "priced_locked", snapshot: &entitlement.Snapshot{Chapter: published("c1", "v", 1, past, 30)}, viewer: "reader", code: apperr.CodeForbidden},
		{
			name:     "priced_unlocked",
			snapshot: &entitlement.Snapshot{Chapter: published("c1", "v", 1, past, 30), Unlocked: true},
			viewer:   "reader",
			price:    30,
		},
		{
			name:     "release_instant_is_public",
			snapshot: &entitlement.Snapshot{Chapter: published("c1", "v", 1, now, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := entitlement.Resolve(tt.snapshot, tt.viewer, now)
			if tt.code != "" {
				assert.True(t, apperr.HasCode(err, tt.code), "got %v", err)
				assert.Nil(t, decision)
				return
			}

			require.NoError(t, err)
			assert.False(t, decision.IsAdvance)
			assert.Equal(t, tt.price, decision.Price)
			assert.Equal(t, tt.price > 0, decision.Unlocked)
		})
	}
}

/*
TestResolve_AdvanceRank orders advance chapters by volume then chapter number and
caps access at the tier's perks.
*/
func TestResolve_AdvanceRank(t *testing.T) {
	future := now.Add(24 * time.Hour)

	// Volume 2 is listed first to check ordering uses volume numbers, not IDs or input order.
	c3 := published("c3", "vol-b", 1, future.Add(2*time.Hour), 0)
	c1 := published("c1", "vol-a", 1, future, 0)
	c2 := published("c2", "vol-a", 2, future.Add(time.Hour), 0)
	released := published("c0", "vol-a", 3, now.Add(-time.Hour), 0)

	scheduled := []*chapter.Chapter{c3, c2, c1}
	volumes := map[string]int{"vol-a": 1, "vol-b": 2}
	tier := &subscription.Tier{Perks: 2}

	snapshot := func(target *chapter.Chapter, tier *subscription.Tier) *entitlement.Snapshot {
		return &entitlement.Snapshot{Chapter: target, Scheduled: scheduled, VolumeNumbers: volumes, Tier: tier}
	}

	decision, err := entitlement.Resolve(snapshot(c1, tier), "reader", now)
	require.NoError(t, err)
	assert.Equal(t, 1, decision.AdvanceRank)
	assert.True(t, decision.IsAdvance)

	decision, err = entitlement.Resolve(snapshot(c2, tier), "reader", now)
	require.NoError(t, err)
	assert.Equal(t, 2, decision.AdvanceRank)

	_, err = entitlement.Resolve(snapshot(c3, tier), "reader", now)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = entitlement.Resolve(snapshot(c1, nil), "reader", now)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = entitlement.Resolve(snapshot(c1, tier), "", now)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	_, err = entitlement.Resolve(snapshot(c1, &subscription.Tier{Perks: 0}), "reader", now)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	assert.Equal(t, 0, entitlement.AdvanceRank(snapshot(released, tier), now))

	// Once c1 is released, every remaining advance chapter moves up one rank.
	later := future.Add(time.Minute)
	decision, err = entitlement.Resolve(snapshot(c3, tier), "reader", later)
	require.NoError(t, err)
	assert.Equal(t, 2, decision.AdvanceRank)
}
