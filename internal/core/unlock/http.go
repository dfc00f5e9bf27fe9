// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/middleware"
	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
)

// # Handler Implementation

// Handler exposes chapter purchases.
type Handler struct {
	service *Service
}

// NewHandler constructs a new unlock [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches unlock endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(reader chi.Router) {
		reader.Use(middleware.RequireAuth)

		reader.Post("/chapters/{chapterID}/unlock", handler.UnlockChapter)
		reader.Get("/me/unlocks", handler.ListUnlocks)
	})
}

type unlockRequest struct {
	Price int64 `json:"price"`
}

/*
POST /api/v1/chapters/{chapterID}/unlock.

Request:
  - price: int (Must equal the displayed chapter price)

Response:
  - 200: Outcome (charged=false on a repeated unlock)
  - 400: Free chapter or price mismatch
  - 402: INSUFFICIENT_FUNDS
  - 404: Chapter not released
  - 409: Advance chapter
*/
func (handler *Handler) UnlockChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input unlockRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	outcome, err := handler.service.UnlockChapter(request.Context(), userID, requestutil.ID(request, "chapterID"), input.Price)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, outcome)
}

// GET /api/v1/me/unlocks lists the caller's purchases.
func (handler *Handler) ListUnlocks(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	records, err := handler.service.ListUnlocks(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, records)
}
