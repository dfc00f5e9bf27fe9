// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed series store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// CreateSeries inserts the root series row.
func (repository *postgresRepository) CreateSeries(context context.Context, series *Series) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s, %s
	`,
		schema.CoreSeries.Table,
		schema.CoreSeries.ID, schema.CoreSeries.AuthorID, schema.CoreSeries.Kind, schema.CoreSeries.Title, schema.CoreSeries.Slug,
		schema.CoreSeries.CreatedAt, schema.CoreSeries.UpdatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query, series.ID, series.AuthorID, series.Kind, series.Title, series.Slug).
		Scan(&series.CreatedAt, &series.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_series")
	}

	return nil
}

// FindSeries loads a series by primary key.
func (repository *postgresRepository) FindSeries(context context.Context, id string) (*Series, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreSeries.ID, schema.CoreSeries.AuthorID, schema.CoreSeries.Kind, schema.CoreSeries.Title,
		schema.CoreSeries.Slug, schema.CoreSeries.IsTrashed, schema.CoreSeries.CreatedAt, schema.CoreSeries.UpdatedAt,
		schema.CoreSeries.Table,
		schema.CoreSeries.ID,
	)

	var series Series
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, id).Scan(
		&series.ID, &series.AuthorID, &series.Kind, &series.Title,
		&series.Slug, &series.IsTrashed, &series.CreatedAt, &series.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Series")
		}
		return nil, fmt.Errorf("postgres: failed to find series: %w", err)
	}

	return &series, nil
}

// TrashSeries flips the trash flag.
func (repository *postgresRepository) TrashSeries(context context.Context, id string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = TRUE, %s = NOW() WHERE %s = $1`,
		schema.CoreSeries.Table, schema.CoreSeries.IsTrashed, schema.CoreSeries.UpdatedAt, schema.CoreSeries.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to trash series: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Series")
	}

	return nil
}

// # Volume Management

// CreateVolume inserts a volume row.
func (repository *postgresRepository) CreateVolume(context context.Context, volume *Volume) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`,
		schema.CoreVolume.Table,
		schema.CoreVolume.ID, schema.CoreVolume.SeriesID, schema.CoreVolume.VolumeNumber, schema.CoreVolume.Title,
		schema.CoreVolume.CreatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query, volume.ID, volume.SeriesID, volume.VolumeNumber, volume.Title).
		Scan(&volume.CreatedAt)
	if err != nil {
		return dberr.Wrap(err, "insert_volume")
	}

	return nil
}

// FindVolume loads a volume by primary key.
func (repository *postgresRepository) FindVolume(context context.Context, id string) (*Volume, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreVolume.ID, schema.CoreVolume.SeriesID, schema.CoreVolume.VolumeNumber,
		schema.CoreVolume.Title, schema.CoreVolume.ChapterCount, schema.CoreVolume.CreatedAt,
		schema.CoreVolume.Table,
		schema.CoreVolume.ID,
	)

	var volume Volume
	err := postgres.Conn(context, repository.pool).QueryRow(context, query, id).Scan(
		&volume.ID, &volume.SeriesID, &volume.VolumeNumber,
		&volume.Title, &volume.ChapterCount, &volume.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Volume")
		}
		return nil, fmt.Errorf("postgres: failed to find volume: %w", err)
	}

	return &volume, nil
}

// ListVolumes returns all volumes of a series in reading order.
func (repository *postgresRepository) ListVolumes(context context.Context, seriesID string) ([]*Volume, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
		ORDER BY %s ASC
	`,
		schema.CoreVolume.ID, schema.CoreVolume.SeriesID, schema.CoreVolume.VolumeNumber,
		schema.CoreVolume.Title, schema.CoreVolume.ChapterCount, schema.CoreVolume.CreatedAt,
		schema.CoreVolume.Table,
		schema.CoreVolume.SeriesID,
		schema.CoreVolume.VolumeNumber,
	)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, seriesID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list volumes: %w", err)
	}
	defer rows.Close()

	var volumes []*Volume
	for rows.Next() {
		var volume Volume
		if err := rows.Scan(
			&volume.ID, &volume.SeriesID, &volume.VolumeNumber,
			&volume.Title, &volume.ChapterCount, &volume.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan volume: %w", err)
		}
		volumes = append(volumes, &volume)
	}

	return volumes, rows.Err()
}

// AdjustChapterCount applies delta atomically; the CHECK constraint keeps it non-negative.
func (repository *postgresRepository) AdjustChapterCount(context context.Context, volumeID string, delta int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + $1 WHERE %s = $2`,
		schema.CoreVolume.Table, schema.CoreVolume.ChapterCount, schema.CoreVolume.ChapterCount, schema.CoreVolume.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, delta, volumeID)
	if err != nil {
		return fmt.Errorf("postgres: failed to adjust chapter count: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Volume")
	}

	return nil
}
