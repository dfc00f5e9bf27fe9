// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

func newService() *series.Service {
	db := memdb.New()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return series.NewService(series.NewMemoryRepository(db), db, logger)
}

/*
TestCreateSeries_Validation rejects missing titles and unknown kinds.
*/
func TestCreateSeries_Validation(t *testing.T) {
	service := newService()
	ctx := context.Background()

	tests := []struct {
		name  string
		input series.CreateSeriesInput
	}{
		{"missing_title", series.CreateSeriesInput{Kind: series.KindNovel}},
		{"unknown_kind", series.CreateSeriesInput{Title: "Sky", Kind: "audio"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateSeries(ctx, "author-1", tt.input)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

/*
TestRequireAuthor covers the authoring gate: owner passes, others are forbidden,
trashed series disappear.
*/
func TestRequireAuthor(t *testing.T) {
	service := newService()
	ctx := context.Background()

	created, err := service.CreateSeries(ctx, "author-1", series.CreateSeriesInput{Title: "Sky Garden", Kind: series.KindComic})
	require.NoError(t, err)
	assert.Contains(t, created.Slug, "sky-garden-")

	_, err = service.RequireAuthor(ctx, created.ID, "author-1")
	assert.NoError(t, err)

	_, err = service.RequireAuthor(ctx, created.ID, "someone-else")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))

	require.NoError(t, service.TrashSeries(ctx, created.ID, "author-1"))

	_, err = service.RequireAuthor(ctx, created.ID, "author-1")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestCreateVolume_Numbering assigns dense volume numbers and scopes RequireVolume to the series.
*/
func TestCreateVolume_Numbering(t *testing.T) {
	service := newService()
	ctx := context.Background()

	first, err := service.CreateSeries(ctx, "author-1", series.CreateSeriesInput{Title: "A", Kind: series.KindNovel})
	require.NoError(t, err)
	second, err := service.CreateSeries(ctx, "author-1", series.CreateSeriesInput{Title: "B", Kind: series.KindNovel})
	require.NoError(t, err)

	v1, err := service.CreateVolume(ctx, first.ID, "author-1", "Book One")
	require.NoError(t, err)
	v2, err := service.CreateVolume(ctx, first.ID, "author-1", "Book Two")
	require.NoError(t, err)

	assert.Equal(t, 1, v1.VolumeNumber)
	assert.Equal(t, 2, v2.VolumeNumber)

	volumes, err := service.ListVolumes(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, volumes, 2)
	assert.Equal(t, v1.ID, volumes[0].ID)

	_, err = service.RequireVolume(ctx, second.ID, v1.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))

	_, err = service.CreateVolume(ctx, first.ID, "intruder", "Book Three")
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
}

/*
TestAdjustChapterCount refuses to go below zero.
*/
func TestAdjustChapterCount(t *testing.T) {
	service := newService()
	ctx := context.Background()

	created, err := service.CreateSeries(ctx, "author-1", series.CreateSeriesInput{Title: "A", Kind: series.KindNovel})
	require.NoError(t, err)
	volume, err := service.CreateVolume(ctx, created.ID, "author-1", "")
	require.NoError(t, err)

	require.NoError(t, service.AdjustChapterCount(ctx, volume.ID, 2))
	assert.Error(t, service.AdjustChapterCount(ctx, volume.ID, -3))

	found, err := service.FindVolume(ctx, volume.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.ChapterCount)
}
