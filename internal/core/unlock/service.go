// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package unlock

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/dashi/internal/core/chapter"
	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/metrics"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/platform/validate"
)

// # Collaborators

// Ledger removes currency from a reader's balance. It must join the caller's
// transaction and fail with apperr.InsufficientFunds without side effects.
type Ledger interface {
	Debit(ctx context.Context, userID string, amount int64, reference string) error
}

// ChapterReader loads chapter rows.
type ChapterReader interface {
	FindChapter(ctx context.Context, id string) (*chapter.Chapter, error)
}

// SeriesReader resolves a readable (not trashed) series.
type SeriesReader interface {
	GetSeries(ctx context.Context, seriesID string) (*series.Series, error)
}

// # Service Layer

// Service is the unlock ledger gateway.
type Service struct {
	repository Repository
	chapters   ChapterReader
	series     SeriesReader
	ledger     Ledger
	transactor tx.Transactor
	logger     *slog.Logger
	now        func() time.Time
}

// Option customises a [Service].
type Option func(*Service)

// WithClock overrides the time source used to detect advance chapters.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new unlock [Service].
func NewService(repository Repository, chapters ChapterReader, seriesReader SeriesReader, ledger Ledger, transactor tx.Transactor, logger *slog.Logger, options ...Option) *Service {
	service := &Service{
		repository: repository,
		chapters:   chapters,
		series:     seriesReader,
		ledger:     ledger,
		transactor: transactor,
		logger:     logger,
		now:        time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// HasUnlocked reports whether userID owns chapterID.
func (service *Service) HasUnlocked(ctx context.Context, userID, chapterID string) (bool, error) {
	return service.repository.HasUnlocked(ctx, userID, chapterID)
}

/*
Unlock records the purchase and debits the ledger as one unit of work.

Description: The record is inserted first. Only when that insert created the row
is the wallet debited, so a repeated or concurrent duplicate call is a no-op
success. A failed debit rolls the record back.

Returns:
  - bool: true when this call charged the reader
  - error: apperr.InsufficientFunds when the balance does not cover price
*/
func (service *Service) Unlock(ctx context.Context, userID, chapterID string, price int64) (bool, error) {
	var charged bool
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		inserted, err := service.repository.InsertRecord(ctx, &Record{UserID: userID, ChapterID: chapterID, Price: price})
		if err != nil || !inserted {
			return err
		}

		if err := service.ledger.Debit(ctx, userID, price, "unlock:"+chapterID); err != nil {
			return err
		}

		charged = true
		return nil
	})

	switch {
	case apperr.HasCode(err, apperr.CodeInsufficientFunds):
		metrics.UnlocksTotal.WithLabelValues("insufficient_funds").Inc()
	case err != nil:
	case charged:
		metrics.UnlocksTotal.WithLabelValues("charged").Inc()
	default:
		metrics.UnlocksTotal.WithLabelValues("already_owned").Inc()
	}

	return charged, err
}

/*
UnlockChapter buys permanent access to a released, priced chapter.

Description: price is the amount the reader agreed to pay and must equal the
chapter's current price, so a price change between display and purchase is
refused instead of silently charged.

Returns:
  - *Outcome: Whether the reader was charged
  - error: NotFound (unpublished, trashed), Validation (free or price mismatch),
    DomainConflict (advance chapter), InsufficientFunds
*/
func (service *Service) UnlockChapter(ctx context.Context, userID, chapterID string, price int64) (*Outcome, error) {
	found, err := service.chapters.FindChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	if !found.IsPublished() {
		return nil, apperr.NotFound("Chapter")
	}

	if _, err := service.series.GetSeries(ctx, found.SeriesID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Custom(FieldPrice, found.PriceValue() == 0, "chapter is free")
	validator.Custom(FieldPrice, found.PriceValue() != 0 && price != found.PriceValue(), "does not match the chapter price")
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if found.IsAdvance(service.now()) {
		return nil, apperr.DomainConflict("Advance chapters are only available to subscribers")
	}

	charged, err := service.Unlock(ctx, userID, chapterID, price)
	if err != nil {
		return nil, err
	}

	service.logger.Info("chapter_unlocked",
		slog.String("user_id", userID),
		slog.String("chapter_id", chapterID),
		slog.Int64("price", price),
		slog.Bool("charged", charged),
	)

	return &Outcome{ChapterID: chapterID, Price: price, Charged: charged}, nil
}

// ListUnlocks returns the reader's purchases, newest first.
func (service *Service) ListUnlocks(ctx context.Context, userID string) ([]*Record, error) {
	return service.repository.ListByUser(ctx, userID)
}
