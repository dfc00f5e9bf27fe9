// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

// memoryRepository implements [Repository] on top of [memdb.DB].
type memoryRepository struct {
	db      *memdb.DB
	series  *memdb.Table[string, Series]
	volumes *memdb.Table[string, Volume]
}

// NewMemoryRepository constructs an in-process series store sharing db's lock.
func NewMemoryRepository(db *memdb.DB) Repository {
	return &memoryRepository{
		db:      db,
		series:  memdb.NewTable[string, Series](db),
		volumes: memdb.NewTable[string, Volume](db),
	}
}

func (repository *memoryRepository) CreateSeries(context context.Context, series *Series) error {
	return repository.db.Write(context, func() error {
		for _, existing := range repository.series.Filter(func(Series) bool { return true }) {
			if existing.Slug == series.Slug {
				return apperr.Conflict("Resource already exists")
			}
		}

		now := time.Now().UTC()
		series.CreatedAt, series.UpdatedAt = now, now
		if !repository.series.Insert(series.ID, *series) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

func (repository *memoryRepository) FindSeries(context context.Context, id string) (*Series, error) {
	var found Series
	err := repository.db.Read(context, func() error {
		row, ok := repository.series.Get(id)
		if !ok {
			return apperr.NotFound("Series")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) TrashSeries(context context.Context, id string) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.series.Get(id)
		if !ok {
			return apperr.NotFound("Series")
		}
		row.IsTrashed = true
		row.UpdatedAt = time.Now().UTC()
		repository.series.Put(id, row)
		return nil
	})
}

func (repository *memoryRepository) CreateVolume(context context.Context, volume *Volume) error {
	return repository.db.Write(context, func() error {
		for _, existing := range repository.volumes.Filter(func(v Volume) bool { return v.SeriesID == volume.SeriesID }) {
			if existing.VolumeNumber == volume.VolumeNumber {
				return apperr.Conflict("Resource already exists")
			}
		}

		volume.CreatedAt = time.Now().UTC()
		if !repository.volumes.Insert(volume.ID, *volume) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

func (repository *memoryRepository) FindVolume(context context.Context, id string) (*Volume, error) {
	var found Volume
	err := repository.db.Read(context, func() error {
		row, ok := repository.volumes.Get(id)
		if !ok {
			return apperr.NotFound("Volume")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) ListVolumes(context context.Context, seriesID string) ([]*Volume, error) {
	var volumes []*Volume
	err := repository.db.Read(context, func() error {
		for _, row := range repository.volumes.Filter(func(v Volume) bool { return v.SeriesID == seriesID }) {
			volumes = append(volumes, &row)
		}
		return nil
	})

	slices.SortFunc(volumes, func(a, b *Volume) int { return a.VolumeNumber - b.VolumeNumber })
	return volumes, err
}

func (repository *memoryRepository) AdjustChapterCount(context context.Context, volumeID string, delta int) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.volumes.Get(volumeID)
		if !ok {
			return apperr.NotFound("Volume")
		}
		if row.ChapterCount+delta < 0 {
			return apperr.Internal(errVolumeCountNegative)
		}
		row.ChapterCount += delta
		repository.volumes.Put(volumeID, row)
		return nil
	})
}
