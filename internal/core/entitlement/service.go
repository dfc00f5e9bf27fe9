// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/core/subscription"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/constants"
	"github.com/taibuivan/dashi/internal/platform/metrics"
	"github.com/taibuivan/dashi/internal/platform/storage"
	"github.com/taibuivan/dashi/internal/platform/tx"
)

// DefaultImageURLTTL bounds how long signed image URLs stay valid.
const DefaultImageURLTTL = time.Hour

// pageResolveLimit caps concurrent URL signing calls per read.
const pageResolveLimit = 8

// # Collaborators

// ChapterReader loads chapters and their published versions.
type ChapterReader interface {
	FindChapter(ctx context.Context, id string) (*chapter.Chapter, error)
	FindVersion(ctx context.Context, id string) (*chapter.Version, error)
	ListScheduled(ctx context.Context, seriesID string, after time.Time) ([]*chapter.Chapter, error)
}

// SeriesReader resolves readable series and their volumes.
type SeriesReader interface {
	GetSeries(ctx context.Context, seriesID string) (*series.Series, error)
	ListVolumes(ctx context.Context, seriesID string) ([]*series.Volume, error)
}

// UnlockLedger answers whether a viewer bought a chapter.
type UnlockLedger interface {
	HasUnlocked(ctx context.Context, userID, chapterID string) (bool, error)
}

// PerkTracker returns a viewer's active tier on a series at an instant.
type PerkTracker interface {
	ActiveAt(ctx context.Context, userID, seriesID string, instant time.Time) (*subscription.Tier, error)
}

// ContentCache memoises immutable version payloads.
type ContentCache interface {
	GetOrLoad(ctx context.Context, key string, load func(context.Context) ([]byte, error)) ([]byte, error)
}

// # Service Layer

// Service is the reader path for chapter content.
type Service struct {
	chapters ChapterReader
	series   SeriesReader
	unlocks  UnlockLedger
	perks    PerkTracker
	reader   tx.SnapshotReader
	cache    ContentCache
	images   storage.ImageResolver
	logger   *slog.Logger
	now      func() time.Time
	imageTTL time.Duration
}

// Option customises a [Service].
type Option func(*Service)

// WithClock overrides the time source of the read instant.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// WithImageURLTTL sets the validity of signed image URLs.
func WithImageURLTTL(ttl time.Duration) Option {
	return func(service *Service) { service.imageTTL = ttl }
}

// Dependencies groups the collaborators of a [Service].
type Dependencies struct {
	Chapters ChapterReader
	Series   SeriesReader
	Unlocks  UnlockLedger
	Perks    PerkTracker
	Reader   tx.SnapshotReader
	Cache    ContentCache
	Images   storage.ImageResolver
	Logger   *slog.Logger
}

// NewService constructs a new entitlement [Service].
func NewService(deps Dependencies, options ...Option) *Service {
	service := &Service{
		chapters: deps.Chapters,
		series:   deps.Series,
		unlocks:  deps.Unlocks,
		perks:    deps.Perks,
		reader:   deps.Reader,
		cache:    deps.Cache,
		images:   deps.Images,
		logger:   deps.Logger,
		now:      time.Now,
		imageTTL: DefaultImageURLTTL,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

/*
GetChapter returns the published content of a chapter when viewerID may read it.

Description: Loads one snapshot at a single instant, resolves it, then renders
the published version with signed image URLs. Authors go through the same rules
as readers.

Parameters:
  - viewerID: string (Empty for anonymous readers)

Returns:
  - *ChapterView: The readable chapter
  - error: NotFound, Unauthorized or Forbidden from [Resolve]
*/
func (service *Service) GetChapter(ctx context.Context, chapterID, viewerID string) (*ChapterView, error) {
	now := service.now().UTC()

	snapshot, err := service.load(ctx, chapterID, viewerID, now)
	if err != nil {
		return nil, err
	}

	decision, err := Resolve(snapshot, viewerID, now)
	service.record(snapshot, now, err)
	if err != nil {
		return nil, err
	}

	version, err := service.publishedVersion(ctx, *snapshot.Chapter.PublishedVersionID)
	if err != nil {
		return nil, err
	}

	return service.render(ctx, snapshot.Chapter, version, decision)
}

// load reads every fact Resolve needs inside one snapshot.
func (service *Service) load(ctx context.Context, chapterID, viewerID string, now time.Time) (*Snapshot, error) {
	snapshot := &Snapshot{}

	err := service.reader.WithSnapshot(ctx, func(ctx context.Context) error {
		found, err := service.chapters.FindChapter(ctx, chapterID)
		if err != nil {
			return err
		}

		if _, err := service.series.GetSeries(ctx, found.SeriesID); err != nil {
			return err
		}

		snapshot.Chapter = found
		if !found.IsPublished() {
			return nil
		}

		if viewerID != "" && found.PriceValue() > 0 {
			if snapshot.Unlocked, err = service.unlocks.HasUnlocked(ctx, viewerID, chapterID); err != nil {
				return err
			}
		}

		if !found.IsAdvance(now) {
			return nil
		}

		if viewerID != "" {
			if snapshot.Tier, err = service.perks.ActiveAt(ctx, viewerID, found.SeriesID, now); err != nil {
				return err
			}
		}

		if snapshot.Scheduled, err = service.chapters.ListScheduled(ctx, found.SeriesID, now); err != nil {
			return err
		}

		volumes, err := service.series.ListVolumes(ctx, found.SeriesID)
		if err != nil {
			return err
		}

		snapshot.VolumeNumbers = make(map[string]int, len(volumes))
		for _, volume := range volumes {
			snapshot.VolumeNumbers[volume.ID] = volume.VolumeNumber
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snapshot, nil
}

// publishedVersion reads a version through the content cache. Versions are immutable.
func (service *Service) publishedVersion(ctx context.Context, versionID string) (*chapter.Version, error) {
	raw, err := service.cache.GetOrLoad(ctx, constants.RedisPrefixVersionContent+versionID, func(ctx context.Context) ([]byte, error) {
		version, err := service.chapters.FindVersion(ctx, versionID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(version)
	})
	if err != nil {
		return nil, err
	}

	var version chapter.Version
	if err := json.Unmarshal(raw, &version); err != nil {
		return nil, apperr.Internal(fmt.Errorf("entitlement: corrupt cached version %s: %w", versionID, err))
	}

	return &version, nil
}

// render builds the reader view and signs every image URL.
func (service *Service) render(ctx context.Context, target *chapter.Chapter, version *chapter.Version, decision *Decision) (*ChapterView, error) {
	view := &ChapterView{
		ID:            target.ID,
		SeriesID:      target.SeriesID,
		VolumeID:      target.VolumeID,
		ChapterNumber: target.ChapterNumber,
		Title:         version.Title,
		Note:          version.Note,
		PublishedDate: *target.PublishedDate,
		Price:         target.PriceValue(),
		Unlocked:      decision.Unlocked,
		IsAdvance:     decision.IsAdvance,
		AdvanceRank:   decision.AdvanceRank,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(pageResolveLimit)

	if version.Thumbnail != "" {
		group.Go(func() (err error) {
			view.Thumbnail, err = service.images.GetURL(groupCtx, version.Thumbnail, service.imageTTL)
			return err
		})
	}

	switch content := version.Content.(type) {
	case chapter.NovelContent:
		view.Content = ViewContent{Kind: content.Kind(), Body: content.Body}
	case chapter.ComicContent:
		view.Content = ViewContent{Kind: content.Kind(), Pages: make([]string, len(content.Pages))}
		for index, page := range content.Pages {
			group.Go(func() (err error) {
				view.Content.Pages[index], err = service.images.GetURL(groupCtx, page, service.imageTTL)
				return err
			})
		}
	}

	if err := group.Wait(); err != nil {
		return nil, apperr.Internal(err)
	}

	return view, nil
}

// record counts the decision and logs denials at debug level.
func (service *Service) record(snapshot *Snapshot, now time.Time, err error) {
	path := PathFree
	if target := snapshot.Chapter; target != nil {
		switch {
		case target.IsAdvance(now):
			path = PathAdvance
		case target.PriceValue() > 0:
			path = PathPriced
		}
	}

	outcome := "allow"
	if appErr := apperr.As(err); appErr != nil {
		outcome = appErr.Code
	}

	metrics.EntitlementDecisions.WithLabelValues(string(path), outcome).Inc()

	if err != nil && snapshot.Chapter != nil {
		service.logger.Debug("chapter_access_denied",
			slog.String("chapter_id", snapshot.Chapter.ID),
			slog.String("path", string(path)),
			slog.String("outcome", outcome),
		)
	}
}
