// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/memdb"
)

// # In-Memory Repository

// memoryRepository implements [Repository] on top of [memdb.DB].
type memoryRepository struct {
	db            *memdb.DB
	tiers         *memdb.Table[string, Tier]
	subscriptions *memdb.Table[string, Subscription]
}

// NewMemoryRepository constructs an in-process subscription store sharing db's lock.
func NewMemoryRepository(db *memdb.DB) Repository {
	return &memoryRepository{
		db:            db,
		tiers:         memdb.NewTable[string, Tier](db),
		subscriptions: memdb.NewTable[string, Subscription](db),
	}
}

func (repository *memoryRepository) CreateTier(context context.Context, tier *Tier) error {
	return repository.db.Write(context, func() error {
		tier.CreatedAt = time.Now().UTC()
		if !repository.tiers.Insert(tier.ID, *tier) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

func (repository *memoryRepository) FindTier(context context.Context, id string) (*Tier, error) {
	var found Tier
	err := repository.db.Read(context, func() error {
		row, ok := repository.tiers.Get(id)
		if !ok {
			return apperr.NotFound("Tier")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) ListTiers(context context.Context, seriesID string) ([]*Tier, error) {
	var tiers []*Tier
	err := repository.db.Read(context, func() error {
		for _, row := range repository.tiers.Filter(func(t Tier) bool { return t.SeriesID == seriesID }) {
			tiers = append(tiers, &row)
		}
		return nil
	})

	slices.SortFunc(tiers, func(a, b *Tier) int {
		return cmp.Or(cmp.Compare(a.Perks, b.Perks), cmp.Compare(a.Price, b.Price))
	})
	return tiers, err
}

func (repository *memoryRepository) CreateSubscription(context context.Context, subscription *Subscription) error {
	return repository.db.Write(context, func() error {
		now := time.Now().UTC()
		subscription.CreatedAt, subscription.UpdatedAt = now, now
		if subscription.Status == StatusActive && repository.hasOtherActive(subscription) {
			return apperr.Conflict("An active subscription already exists for this series")
		}
		if !repository.subscriptions.Insert(subscription.ID, *subscription) {
			return apperr.Conflict("Resource already exists")
		}
		return nil
	})
}

// hasOtherActive mirrors the partial unique index on (user, series) WHERE active.
func (repository *memoryRepository) hasOtherActive(subscription *Subscription) bool {
	return len(repository.subscriptions.Filter(func(s Subscription) bool {
		return s.ID != subscription.ID && s.UserID == subscription.UserID &&
			s.SeriesID == subscription.SeriesID && s.Status == StatusActive
	})) > 0
}

func (repository *memoryRepository) FindSubscription(context context.Context, id string) (*Subscription, error) {
	var found Subscription
	err := repository.db.Read(context, func() error {
		row, ok := repository.subscriptions.Get(id)
		if !ok {
			return apperr.NotFound("Subscription")
		}
		found = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (repository *memoryRepository) LockSubscription(context context.Context, id string) (*Subscription, error) {
	return repository.FindSubscription(context, id)
}

func (repository *memoryRepository) SetStatus(context context.Context, id string, status Status, expiresAt *time.Time) error {
	return repository.db.Write(context, func() error {
		row, ok := repository.subscriptions.Get(id)
		if !ok {
			return apperr.NotFound("Subscription")
		}

		row.Status = status
		row.ExpiresAt = expiresAt
		if status == StatusActive && repository.hasOtherActive(&row) {
			return apperr.Conflict("An active subscription already exists for this series")
		}

		row.UpdatedAt = time.Now().UTC()
		repository.subscriptions.Put(id, row)
		return nil
	})
}

func (repository *memoryRepository) CancelLapsed(context context.Context, userID, seriesID, exceptID string, now time.Time) (int, error) {
	var cancelled int
	err := repository.db.Write(context, func() error {
		for _, row := range repository.subscriptions.Filter(func(s Subscription) bool {
			return s.ID != exceptID && s.UserID == userID && s.SeriesID == seriesID &&
				s.Status == StatusActive && !s.IsActive(now)
		}) {
			row.Status = StatusCancelled
			row.UpdatedAt = time.Now().UTC()
			repository.subscriptions.Put(row.ID, row)
			cancelled++
		}
		return nil
	})
	return cancelled, err
}

func (repository *memoryRepository) FindActive(context context.Context, userID, seriesID string) (*Subscription, error) {
	var found *Subscription
	err := repository.db.Read(context, func() error {
		for _, row := range repository.subscriptions.Filter(func(s Subscription) bool {
			return s.UserID == userID && s.SeriesID == seriesID && s.Status == StatusActive
		}) {
			found = &row
		}
		return nil
	})
	return found, err
}

func (repository *memoryRepository) ListByUser(context context.Context, userID string) ([]*Subscription, error) {
	var subscriptions []*Subscription
	err := repository.db.Read(context, func() error {
		for _, row := range repository.subscriptions.Filter(func(s Subscription) bool { return s.UserID == userID }) {
			subscriptions = append(subscriptions, &row)
		}
		return nil
	})

	slices.SortFunc(subscriptions, func(a, b *Subscription) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), cmp.Compare(b.ID, a.ID))
	})
	return subscriptions, err
}
