// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package series

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/middleware"
	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for series and volumes.
type Handler struct {
	service *Service
}

// NewHandler constructs a new series [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches series endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/series/{seriesID}", handler.GetSeries)
	api.Get("/series/{seriesID}/volumes", handler.ListVolumes)

	api.Group(func(author chi.Router) {
		author.Use(middleware.RequireAuth)
		author.Post("/series", handler.CreateSeries)
		author.Delete("/series/{seriesID}", handler.TrashSeries)
		author.Post("/series/{seriesID}/volumes", handler.CreateVolume)
	})
}

// createSeriesRequest defines the inbound JSON schema for a new series.
type createSeriesRequest struct {
	Title string `json:"title"`
	Kind  Kind   `json:"kind"`
}

/*
POST /api/v1/series.

Response:
  - 201: Series
  - 400: Validation failed
  - 401: Authentication required
*/
func (handler *Handler) CreateSeries(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createSeriesRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	series, err := handler.service.CreateSeries(request.Context(), userID, CreateSeriesInput(input))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, series)
}

/*
GET /api/v1/series/{seriesID}.

Response:
  - 200: Series
  - 404: Series not found
*/
func (handler *Handler) GetSeries(writer http.ResponseWriter, request *http.Request) {
	series, err := handler.service.GetSeries(request.Context(), requestutil.ID(request, "seriesID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, series)
}

// DELETE /api/v1/series/{seriesID} moves the series to the trash.
func (handler *Handler) TrashSeries(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.TrashSeries(request.Context(), requestutil.ID(request, "seriesID"), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// createVolumeRequest defines the inbound JSON schema for a new volume.
type createVolumeRequest struct {
	Title string `json:"title"`
}

/*
POST /api/v1/series/{seriesID}/volumes.

Response:
  - 201: Volume
  - 403: Caller is not the author
  - 404: Series not found
*/
func (handler *Handler) CreateVolume(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createVolumeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	volume, err := handler.service.CreateVolume(request.Context(), requestutil.ID(request, "seriesID"), userID, input.Title)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, volume)
}

// GET /api/v1/series/{seriesID}/volumes lists volumes in reading order.
func (handler *Handler) ListVolumes(writer http.ResponseWriter, request *http.Request) {
	volumes, err := handler.service.ListVolumes(request.Context(), requestutil.ID(request, "seriesID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, volumes)
}
