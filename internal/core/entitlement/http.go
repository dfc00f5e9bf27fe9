// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
)

// # Handler Implementation

// Handler serves chapter content to readers.
type Handler struct {
	service *Service
}

// NewHandler constructs a new entitlement [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches the reader endpoint. Anonymous access is allowed.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Get("/chapters/{chapterID}", handler.GetChapter)
}

/*
GET /api/v1/chapters/{chapterID}.

Response:
  - 200: ChapterView
  - 401: Anonymous reader on a priced chapter
  - 403: Not unlocked, not subscribed, or beyond the tier's perks
  - 404: Missing, unpublished, or in a trashed series
*/
func (handler *Handler) GetChapter(writer http.ResponseWriter, request *http.Request) {
	view, err := handler.service.GetChapter(request.Context(), requestutil.ID(request, "chapterID"), requestutil.ViewerID(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, view)
}
