// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"context"
	"errors"
	"log/slog"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/slug"
	"github.com/taibuivan/dashi/pkg/uuid"
)

var errVolumeCountNegative = errors.New("series: volume chapter count would become negative")

// # Service Layer

// Service orchestrates series and volume management.
type Service struct {
	repository Repository
	transactor tx.Transactor
	logger     *slog.Logger
}

// NewService constructs a new [Service].
func NewService(repository Repository, transactor tx.Transactor, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		transactor: transactor,
		logger:     logger,
	}
}

// # Authorisation Gate

/*
GetSeries returns a readable series.

Returns:
  - *Series: The series
  - error: apperr.NotFound if missing or trashed
*/
func (service *Service) GetSeries(ctx context.Context, seriesID string) (*Series, error) {
	series, err := service.repository.FindSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	if series.IsTrashed {
		return nil, apperr.NotFound("Series")
	}

	return series, nil
}

/*
RequireAuthor resolves a series for a write command.

Description: Every authoring command calls this before touching chapter state,
so authorisation always fails before any mutation is attempted.

Parameters:
  - ctx: context.Context
  - seriesID: string
  - userID: string (Authenticated caller)

Returns:
  - *Series: The series when the caller is its author
  - error: apperr.NotFound (missing/trashed) or apperr.Forbidden (not the author)
*/
func (service *Service) RequireAuthor(ctx context.Context, seriesID, userID string) (*Series, error) {
	series, err := service.GetSeries(ctx, seriesID)
	if err != nil {
		return nil, err
	}

	if series.AuthorID != userID {
		return nil, apperr.Forbidden("Only the series author can modify it")
	}

	return series, nil
}

// # Series Management

// CreateSeriesInput holds the data required to start a new series.
type CreateSeriesInput struct {
	Title string
	Kind  Kind
}

/*
CreateSeries registers a new series owned by authorID.

Description: Generates a UUIDv7 identity and a slug suffixed with the random
tail of that identity so two series may share a title.
*/
func (service *Service) CreateSeries(ctx context.Context, authorID string, input CreateSeriesInput) (*Series, error) {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, input.Title).MaxLen(FieldTitle, input.Title, 500)
	validator.OneOf(FieldKind, string(input.Kind), string(KindNovel), string(KindComic))

	if err := validator.Err(); err != nil {
		return nil, err
	}

	id := uuid.New()
	series := &Series{
		ID:       id,
		AuthorID: authorID,
		Kind:     input.Kind,
		Title:    input.Title,
		Slug:     slug.WithSuffix(input.Title, id),
	}

	if err := service.repository.CreateSeries(ctx, series); err != nil {
		return nil, err
	}

	service.logger.Info("series_created",
		slog.String("series_id", series.ID),
		slog.String("author_id", authorID),
		slog.String("kind", string(series.Kind)),
	)

	return series, nil
}

// TrashSeries hides a series; its chapters become unreadable.
func (service *Service) TrashSeries(ctx context.Context, seriesID, userID string) error {
	if _, err := service.RequireAuthor(ctx, seriesID, userID); err != nil {
		return err
	}

	if err := service.repository.TrashSeries(ctx, seriesID); err != nil {
		return err
	}

	service.logger.Info("series_trashed", slog.String("series_id", seriesID))
	return nil
}

// # Volume Management

/*
CreateVolume appends a volume at the end of the series.

Description: The volume number is derived from the existing volumes inside a
transaction so concurrent creations cannot pick the same number.
*/
func (service *Service) CreateVolume(ctx context.Context, seriesID, userID, title string) (*Volume, error) {
	if _, err := service.RequireAuthor(ctx, seriesID, userID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.MaxLen(FieldTitle, title, 500)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	volume := &Volume{ID: uuid.New(), SeriesID: seriesID, Title: title}

	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		volumes, err := service.repository.ListVolumes(ctx, seriesID)
		if err != nil {
			return err
		}

		volume.VolumeNumber = len(volumes) + 1
		return service.repository.CreateVolume(ctx, volume)
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("volume_created",
		slog.String("volume_id", volume.ID),
		slog.String("series_id", seriesID),
		slog.Int("volume_number", volume.VolumeNumber),
	)

	return volume, nil
}

// ListVolumes returns the volumes of a readable series.
func (service *Service) ListVolumes(ctx context.Context, seriesID string) ([]*Volume, error) {
	if _, err := service.GetSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	return service.repository.ListVolumes(ctx, seriesID)
}

/*
RequireVolume resolves a volume that belongs to seriesID.

Returns:
  - *Volume: The volume
  - error: apperr.NotFound when missing or owned by another series
*/
func (service *Service) RequireVolume(ctx context.Context, seriesID, volumeID string) (*Volume, error) {
	volume, err := service.repository.FindVolume(ctx, volumeID)
	if err != nil {
		return nil, err
	}

	if volume.SeriesID != seriesID {
		return nil, apperr.NotFound("Volume")
	}

	return volume, nil
}

// FindVolume returns a volume by ID.
func (service *Service) FindVolume(ctx context.Context, volumeID string) (*Volume, error) {
	return service.repository.FindVolume(ctx, volumeID)
}

// AdjustChapterCount forwards a counter change to the repository within the caller's transaction.
func (service *Service) AdjustChapterCount(ctx context.Context, volumeID string, delta int) error {
	return service.repository.AdjustChapterCount(ctx, volumeID, delta)
}
