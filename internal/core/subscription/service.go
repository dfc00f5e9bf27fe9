// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription

import (
	"context"
	"log/slog"
	"time"

	"github.com/taibuivan/dashi/internal/core/series"
	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/tx"
	"github.com/taibuivan/dashi/internal/platform/validate"
	"github.com/taibuivan/dashi/pkg/uuid"
)

// SeriesGate resolves series for readers and authors.
type SeriesGate interface {
	GetSeries(ctx context.Context, seriesID string) (*series.Series, error)
	RequireAuthor(ctx context.Context, seriesID, userID string) (*series.Series, error)
}

// # Service Layer

// Service manages tiers and the subscription lifecycle, and tracks active perks.
type Service struct {
	repository Repository
	series     SeriesGate
	transactor tx.Transactor
	logger     *slog.Logger
	now        func() time.Time
}

// Option customises a [Service].
type Option func(*Service)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new subscription [Service].
func NewService(repository Repository, gate SeriesGate, transactor tx.Transactor, logger *slog.Logger, options ...Option) *Service {
	service := &Service{
		repository: repository,
		series:     gate,
		transactor: transactor,
		logger:     logger,
		now:        time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// # Tiers

// CreateTierInput holds the fields of a new tier.
type CreateTierInput struct {
	Name  string
	Perks int
	Price int64
}

/*
CreateTier adds a membership level to a series.

Returns:
  - *Tier: The stored tier
  - error: Forbidden for non-authors, Validation for bad fields
*/
func (service *Service) CreateTier(ctx context.Context, userID, seriesID string, input CreateTierInput) (*Tier, error) {
	if _, err := service.series.RequireAuthor(ctx, seriesID, userID); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 128)
	validator.NonNegative(FieldPerks, int64(input.Perks)).NonNegative(FieldPrice, input.Price)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	tier := &Tier{
		ID:       uuid.New(),
		SeriesID: seriesID,
		Name:     input.Name,
		Perks:    input.Perks,
		Price:    input.Price,
	}

	if err := service.repository.CreateTier(ctx, tier); err != nil {
		return nil, err
	}

	service.logger.Info("tier_created",
		slog.String("tier_id", tier.ID),
		slog.String("series_id", seriesID),
		slog.Int("perks", tier.Perks),
	)

	return tier, nil
}

// ListTiers returns the tiers of a readable series, cheapest perks first.
func (service *Service) ListTiers(ctx context.Context, seriesID string) ([]*Tier, error) {
	if _, err := service.series.GetSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	return service.repository.ListTiers(ctx, seriesID)
}

// # Lifecycle

// Subscribe opens a Pending subscription awaiting payment.
func (service *Service) Subscribe(ctx context.Context, userID, tierID string) (*Subscription, error) {
	tier, err := service.repository.FindTier(ctx, tierID)
	if err != nil {
		return nil, err
	}

	if _, err := service.series.GetSeries(ctx, tier.SeriesID); err != nil {
		return nil, err
	}

	subscription := &Subscription{
		ID:       uuid.New(),
		UserID:   userID,
		SeriesID: tier.SeriesID,
		TierID:   tier.ID,
		Status:   StatusPending,
	}

	if err := service.repository.CreateSubscription(ctx, subscription); err != nil {
		return nil, err
	}

	service.logger.Info("subscription_requested",
		slog.String("subscription_id", subscription.ID),
		slog.String("user_id", userID),
		slog.String("tier_id", tierID),
	)

	return subscription, nil
}

/*
Activate marks a subscription paid until expiresAt.

Description: Called by the payment system. Pending and Suspended subscriptions
may be activated; a cancelled one may not. Active subscriptions of the same
reader and series whose expiry has passed are cancelled in the same transaction.

Returns:
  - error: Validation (expiry not in the future), DomainConflict (cancelled),
    Conflict (another unexpired Active subscription on the series)
*/
func (service *Service) Activate(ctx context.Context, subscriptionID string, expiresAt time.Time) (*Subscription, error) {
	if !expiresAt.After(service.now()) {
		return nil, apperr.ValidationError("Invalid expiry", apperr.FieldError{Field: FieldExpiresAt, Message: "must be in the future"})
	}

	expiry := expiresAt.UTC()
	return service.transition(ctx, subscriptionID, StatusActive, &expiry, func(current Status) bool {
		return current == StatusPending || current == StatusSuspended || current == StatusActive
	}, service.cancelLapsed)
}

// cancelLapsed cancels the expired Active rows of the same reader and series.
func (service *Service) cancelLapsed(ctx context.Context, subscription *Subscription) error {
	cancelled, err := service.repository.CancelLapsed(ctx, subscription.UserID, subscription.SeriesID, subscription.ID, service.now())
	if err != nil {
		return err
	}

	if cancelled > 0 {
		service.logger.Info("subscription_lapsed_cancelled",
			slog.String("user_id", subscription.UserID),
			slog.String("series_id", subscription.SeriesID),
			slog.Int("count", cancelled),
		)
	}
	return nil
}

// Suspend pauses an Active subscription; its expiry is kept for reactivation.
func (service *Service) Suspend(ctx context.Context, subscriptionID string) (*Subscription, error) {
	return service.transition(ctx, subscriptionID, StatusSuspended, nil, func(current Status) bool {
		return current == StatusActive
	}, nil)
}

/*
Cancel ends a subscription at the owner's request.

Returns:
  - error: Forbidden for anyone but the subscriber, DomainConflict when already cancelled
*/
func (service *Service) Cancel(ctx context.Context, userID, subscriptionID string) (*Subscription, error) {
	found, err := service.repository.FindSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if found.UserID != userID {
		return nil, apperr.Forbidden("Only the subscriber can cancel this subscription")
	}

	return service.transition(ctx, subscriptionID, StatusCancelled, nil, func(current Status) bool {
		return current != StatusCancelled
	}, nil)
}

// transition applies one lifecycle step under a row lock; prepare, when set, runs after the guard.
func (service *Service) transition(ctx context.Context, subscriptionID string, next Status, expiresAt *time.Time, allowed func(Status) bool, prepare func(context.Context, *Subscription) error) (*Subscription, error) {
	var subscription *Subscription
	err := service.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		if subscription, err = service.repository.LockSubscription(ctx, subscriptionID); err != nil {
			return err
		}

		if !allowed(subscription.Status) {
			return apperr.DomainConflict("Subscription cannot move from " + string(subscription.Status) + " to " + string(next))
		}

		if prepare != nil {
			if err := prepare(ctx, subscription); err != nil {
				return err
			}
		}

		if expiresAt == nil {
			expiresAt = subscription.ExpiresAt
		}

		if err := service.repository.SetStatus(ctx, subscriptionID, next, expiresAt); err != nil {
			return err
		}

		subscription.Status = next
		subscription.ExpiresAt = expiresAt
		return nil
	})
	if err != nil {
		return nil, err
	}

	service.logger.Info("subscription_"+string(next),
		slog.String("subscription_id", subscriptionID),
		slog.String("user_id", subscription.UserID),
		slog.String("series_id", subscription.SeriesID),
	)

	return subscription, nil
}

// ListSubscriptions returns the caller's subscriptions, newest first.
func (service *Service) ListSubscriptions(ctx context.Context, userID string) ([]*Subscription, error) {
	return service.repository.ListByUser(ctx, userID)
}

// # Perk Tracker

// GetActive returns the tier of the reader's usable subscription on a series as of now.
func (service *Service) GetActive(ctx context.Context, userID, seriesID string) (*Tier, error) {
	return service.ActiveAt(ctx, userID, seriesID, service.now())
}

/*
ActiveAt returns the tier of the reader's Active subscription when it has not
expired at instant.

Returns:
  - *Tier: nil when the reader holds no usable subscription
  - error: Storage failures only
*/
func (service *Service) ActiveAt(ctx context.Context, userID, seriesID string, instant time.Time) (*Tier, error) {
	subscription, err := service.repository.FindActive(ctx, userID, seriesID)
	if err != nil || subscription == nil {
		return nil, err
	}

	if !subscription.IsActive(instant) {
		return nil, nil
	}

	return service.repository.FindTier(ctx, subscription.TierID)
}
