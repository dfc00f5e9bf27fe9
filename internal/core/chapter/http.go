// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dashi/internal/platform/middleware"
	requestutil "github.com/taibuivan/dashi/internal/platform/request"
	"github.com/taibuivan/dashi/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the authoring HTTP layer for chapters and versions.
//
// Reader access (GET /chapters/{chapterID}) lives in package entitlement.
type Handler struct {
	service *Service
}

// NewHandler constructs a new chapter [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes attaches authoring endpoints to the root API router.
func (handler *Handler) RegisterRoutes(api chi.Router) {
	api.Group(func(author chi.Router) {
		author.Use(middleware.RequireAuth)

		author.Post("/series/{seriesID}/volumes/{volumeID}/chapters", handler.CreateChapter)
		author.Post("/series/{seriesID}/chapters/bulk-publish", handler.BulkPublish)
		author.Post("/series/{seriesID}/chapters/bulk-delete", handler.BulkDelete)

		author.Post("/chapters/reorder", handler.Reorder)
		author.Patch("/chapters/{chapterID}", handler.UpdateChapter)
		author.Delete("/chapters/{chapterID}", handler.DeleteChapter)
		author.Post("/chapters/{chapterID}/publish", handler.Publish)
		author.Post("/chapters/{chapterID}/unpublish", handler.Unpublish)

		author.Get("/chapters/{chapterID}/versions", handler.ListVersions)
		author.Get("/chapters/{chapterID}/versions/{versionID}", handler.GetVersion)
		author.Post("/chapters/{chapterID}/versions/{versionID}/restore", handler.RestoreVersion)
		author.Delete("/chapters/{chapterID}/versions/{versionID}", handler.DeleteVersion)
	})
}

// saveRequest is the editable payload shared by creation and updates.
type saveRequest struct {
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail"`
	Content   json.RawMessage `json:"content"`
	Note      string          `json:"note"`
	Price     *int64          `json:"price"`
}

// fields decodes the kind-tagged content; a missing content is left to validation.
func (payload saveRequest) fields() (Fields, error) {
	fields := Fields{
		Title:     payload.Title,
		Thumbnail: payload.Thumbnail,
		Note:      payload.Note,
	}

	if len(payload.Content) > 0 && string(payload.Content) != "null" {
		content, err := DecodeContent(payload.Content)
		if err != nil {
			return Fields{}, err
		}
		fields.Content = content
	}

	return fields, nil
}

// # Chapter Commands

type createChapterRequest struct {
	saveRequest
	Position *int `json:"position"`
}

/*
POST /api/v1/series/{seriesID}/volumes/{volumeID}/chapters.

Request:
  - title, thumbnail, note: string
  - content: {"kind": "novel", "body": "..."} | {"kind": "comic", "pages": ["p1.webp"]}
  - price: int (optional, coins)
  - position: int (optional, 1-based insertion slot)

Response:
  - 201: Chapter
  - 400: Validation failed (including content kind mismatch)
  - 403: Caller is not the author
  - 404: Series or volume not found
*/
func (handler *Handler) CreateChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createChapterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	fields, err := input.fields()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.CreateChapter(request.Context(), userID, CreateChapterInput{
		SeriesID: requestutil.ID(request, "seriesID"),
		VolumeID: requestutil.ID(request, "volumeID"),
		Fields:   fields,
		Price:    input.Price,
		Position: input.Position,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, chapter)
}

type updateChapterRequest struct {
	saveRequest
	IsAutoSave    bool   `json:"is_auto_save"`
	BaseVersionID string `json:"base_version_id"`
}

/*
PATCH /api/v1/chapters/{chapterID}.

Description: Appends a version and makes it current.

Response:
  - 200: Version
  - 409: DOMAIN_CONFLICT when base_version_id is stale
*/
func (handler *Handler) UpdateChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateChapterRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	fields, err := input.fields()
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.UpdateChapter(request.Context(), userID, requestutil.ID(request, "chapterID"), UpdateChapterInput{
		Fields:        fields,
		IsAutoSave:    input.IsAutoSave,
		BaseVersionID: input.BaseVersionID,
		Price:         input.Price,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, version)
}

// DELETE /api/v1/chapters/{chapterID} removes the chapter and renumbers its volume.
func (handler *Handler) DeleteChapter(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeleteChapter(request.Context(), userID, requestutil.ID(request, "chapterID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Publication

type publishRequest struct {
	PublishDate *time.Time `json:"publish_date"`
}

/*
POST /api/v1/chapters/{chapterID}/publish.

Request:
  - publish_date: RFC 3339 timestamp (optional; future dates create advance chapters)

Response:
  - 200: Chapter
  - 409: DOMAIN_CONFLICT when the current version is already published
*/
func (handler *Handler) Publish(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input publishRequest
	if err := requestutil.DecodeOptionalJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.Publish(request.Context(), userID, requestutil.ID(request, "chapterID"), input.PublishDate)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapter)
}

/*
POST /api/v1/chapters/{chapterID}/unpublish.

Response:
  - 200: Chapter
  - 409: DOMAIN_CONFLICT when the chapter is not published
*/
func (handler *Handler) Unpublish(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.Unpublish(request.Context(), userID, requestutil.ID(request, "chapterID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapter)
}

type reorderRequest struct {
	A string `json:"a"`
	B string `json:"b"`
}

// POST /api/v1/chapters/reorder swaps the numbers of chapters a and b.
func (handler *Handler) Reorder(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input reorderRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Reorder(request.Context(), userID, input.A, input.B); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Bulk Operations

type bulkRequest struct {
	ChapterIDs []string `json:"chapter_ids"`
}

/*
POST /api/v1/series/{seriesID}/chapters/bulk-publish.

Response:
  - 200: []Chapter (the chapters that changed state)
  - 404: One of the IDs is not a chapter of the series; nothing was published
*/
func (handler *Handler) BulkPublish(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input bulkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapters, err := handler.service.BulkPublish(request.Context(), userID, requestutil.ID(request, "seriesID"), input.ChapterIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapters)
}

// POST /api/v1/series/{seriesID}/chapters/bulk-delete removes all listed chapters or none.
func (handler *Handler) BulkDelete(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input bulkRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.BulkDelete(request.Context(), userID, requestutil.ID(request, "seriesID"), input.ChapterIDs); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// # Version History

// GET /api/v1/chapters/{chapterID}/versions lists the history, newest first.
func (handler *Handler) ListVersions(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	versions, err := handler.service.ListVersions(request.Context(), userID, requestutil.ID(request, "chapterID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, versions)
}

// GET /api/v1/chapters/{chapterID}/versions/{versionID} returns one version for author preview.
func (handler *Handler) GetVersion(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	version, err := handler.service.GetVersion(request.Context(), userID,
		requestutil.ID(request, "chapterID"), requestutil.ID(request, "versionID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, version)
}

// POST /api/v1/chapters/{chapterID}/versions/{versionID}/restore makes the version current.
func (handler *Handler) RestoreVersion(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	chapter, err := handler.service.RestoreVersion(request.Context(), userID,
		requestutil.ID(request, "chapterID"), requestutil.ID(request, "versionID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, chapter)
}

/*
DELETE /api/v1/chapters/{chapterID}/versions/{versionID}.

Response:
  - 204: Deleted
  - 409: DOMAIN_CONFLICT when the version is current or published
*/
func (handler *Handler) DeleteVersion(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.service.DeleteVersion(request.Context(), userID,
		requestutil.ID(request, "chapterID"), requestutil.ID(request, "versionID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
