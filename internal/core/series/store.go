// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import "context"

// # Series Data Access

// Repository defines the data access contract for series and volumes.
type Repository interface {

	// CreateSeries persists a new series.
	CreateSeries(context context.Context, series *Series) error

	/*
		FindSeries returns the series with the given ID, trashed or not.

		Returns:
		  - *Series: Hydrated series
		  - error: apperr.NotFound if missing
	*/
	FindSeries(context context.Context, id string) (*Series, error)

	// TrashSeries hides a series from readers and authoring commands.
	TrashSeries(context context.Context, id string) error

	// CreateVolume persists a new volume.
	CreateVolume(context context.Context, volume *Volume) error

	/*
		FindVolume returns the volume with the given ID.

		Returns:
		  - *Volume: Hydrated volume
		  - error: apperr.NotFound if missing
	*/
	FindVolume(context context.Context, id string) (*Volume, error)

	// ListVolumes returns the volumes of a series ordered by volume number.
	ListVolumes(context context.Context, seriesID string) ([]*Volume, error)

	/*
		AdjustChapterCount adds delta to a volume's chapter counter.

		Parameters:
		  - context: context.Context (joins the caller's transaction)
		  - volumeID: string
		  - delta: int (positive on create, negative on delete)

		Returns:
		  - error: apperr.NotFound if the volume is missing
	*/
	AdjustChapterCount(context context.Context, volumeID string, delta int) error
}
