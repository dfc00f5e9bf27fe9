// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chapter implements the Version Store and the Publication State Machine.

A [Chapter] never holds its content directly. Every save appends an immutable
[Version] to the chapter's arena and the chapter keeps only identifiers:

  - CurrentVersionID: the version the author is editing.
  - PublishedVersionID: the version readers see, set together with PublishedDate.

After every mutation the service checks that both identifiers resolve to versions
owned by the same chapter; a violation aborts the transaction.

# Publication

	Draft --Publish--> Published --Unpublish--> Draft

A publish date in the future produces an advance chapter that only ranked
subscribers may read (see package entitlement).
*/
package chapter

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/pointer"
)

// # Version Status

// Status is the publication state of a single version.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Version names shown in the author's history list.
const (
	VersionNameAutoSave = "Auto-save"
	VersionNameDraft    = "Draft"
)

// versionName derives the display label of a new version.
func versionName(isAutoSave bool) string {
	if isAutoSave {
		return VersionNameAutoSave
	}
	return VersionNameDraft
}

// # Domain Entities

// Chapter is a numbered unit of content inside a volume.
type Chapter struct {
	ID                 string     `json:"id"`
	SeriesID           string     `json:"series_id"`
	VolumeID           string     `json:"volume_id"`
	ChapterNumber      int        `json:"chapter_number"`
	CurrentVersionID   string     `json:"current_version_id"`
	PublishedVersionID *string    `json:"published_version_id,omitempty"`
	PublishedDate      *time.Time `json:"published_date,omitempty"`
	Price              *int64     `json:"price,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsPublished reports whether the chapter has a published version.
func (c *Chapter) IsPublished() bool {
	return c.PublishedVersionID != nil && c.PublishedDate != nil
}

// IsAdvance reports whether the chapter is published with a release date after now.
func (c *Chapter) IsAdvance(now time.Time) bool {
	return c.IsPublished() && c.PublishedDate.After(now)
}

// PriceValue returns the unlock cost; zero means free.
func (c *Chapter) PriceValue() int64 {
	return pointer.Val(c.Price)
}

// Version is an immutable snapshot of a chapter's editable fields. Only Status changes.
type Version struct {
	ID          string    `json:"id"`
	ChapterID   string    `json:"chapter_id"`
	Title       string    `json:"title"`
	Thumbnail   string    `json:"thumbnail"`
	Content     Content   `json:"content"`
	Note        string    `json:"note"`
	VersionName string    `json:"version_name"`
	IsAutoSave  bool      `json:"is_auto_save"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// # Content Variant

// Content is the body of a version: [NovelContent] or [ComicContent].
//
// The variant is closed; the kind tag is persisted with the payload.
type Content interface {
	Kind() series.Kind
	validate(validator *validate.Validator)
}

// NovelContent is the rich-text body of a novel chapter.
type NovelContent struct {
	Body string `json:"body"`
}

// Kind implements [Content].
func (NovelContent) Kind() series.Kind { return series.KindNovel }

func (content NovelContent) validate(validator *validate.Validator) {
	validator.Required(FieldContentBody, content.Body)
}

// MarshalJSON writes the body together with its kind tag.
func (content NovelContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentEnvelope{Kind: series.KindNovel, Body: content.Body})
}

// ComicContent is the ordered list of page image file names of a comic chapter.
type ComicContent struct {
	Pages []string `json:"pages"`
}

// Kind implements [Content].
func (ComicContent) Kind() series.Kind { return series.KindComic }

func (content ComicContent) validate(validator *validate.Validator) {
	validator.Custom(FieldContentPages, len(content.Pages) == 0, "At least one page is required")
	for index, page := range content.Pages {
		validator.Custom(fmt.Sprintf("%s[%d]", FieldContentPages, index), page == "", "Page file name is required")
	}
}

// MarshalJSON writes the pages together with their kind tag.
func (content ComicContent) MarshalJSON() ([]byte, error) {
	return json.Marshal(contentEnvelope{Kind: series.KindComic, Pages: content.Pages})
}

// contentEnvelope is the persisted and wire shape of every [Content].
type contentEnvelope struct {
	Kind  series.Kind `json:"kind"`
	Body  string      `json:"body,omitempty"`
	Pages []string    `json:"pages,omitempty"`
}

/*
DecodeContent parses a kind-tagged JSON payload into a [Content].

Returns:
  - Content: NovelContent or ComicContent
  - error: apperr validation error for malformed payloads or unknown kinds
*/
func DecodeContent(raw []byte) (Content, error) {
	var envelope contentEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, validate.Fail(FieldContent, "Content must be a JSON object")
	}

	switch envelope.Kind {
	case series.KindNovel:
		return NovelContent{Body: envelope.Body}, nil
	case series.KindComic:
		return ComicContent{Pages: envelope.Pages}, nil
	default:
		return nil, validate.Fail(FieldContentKind, "Content kind must be novel or comic")
	}
}

// UnmarshalJSON restores the content variant of a version.
func (v *Version) UnmarshalJSON(data []byte) error {
	type plain Version
	var raw struct {
		plain
		Content json.RawMessage `json:"content"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = Version(raw.plain)
	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}

	content, err := DecodeContent(raw.Content)
	if err != nil {
		return err
	}
	v.Content = content
	return nil
}

// # Validation

// Fields holds the editable values of a chapter save.
type Fields struct {
	Title     string
	Thumbnail string
	Content   Content
	Note      string
}

// Field identifiers used in validation errors.
const (
	FieldTitle        = "title"
	FieldThumbnail    = "thumbnail"
	FieldContent      = "content"
	FieldContentKind  = "content.kind"
	FieldContentBody  = "content.body"
	FieldContentPages = "content.pages"
	FieldNote         = "note"
	FieldPrice        = "price"
	FieldPosition     = "position"
	FieldChapterIDs   = "chapter_ids"
)

/*
validateFields is the single validation entry point for both content shapes.

Description: The content kind must match the series kind so a comic page list
can never be saved into a novel series and vice versa.
*/
func validateFields(kind series.Kind, fields Fields, price *int64) error {
	validator := &validate.Validator{}
	validator.Required(FieldTitle, fields.Title).MaxLen(FieldTitle, fields.Title, 500)
	validator.MaxLen(FieldNote, fields.Note, 5000)

	if price != nil {
		validator.NonNegative(FieldPrice, *price)
	}

	switch {
	case fields.Content == nil:
		validator.Custom(FieldContent, true, "Content is required")
	case fields.Content.Kind() != kind:
		validator.Custom(FieldContentKind, true, fmt.Sprintf("Content kind must be %s for this series", kind))
	default:
		fields.Content.validate(validator)
	}

	return validator.Err()
}
