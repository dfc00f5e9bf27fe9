// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription

import (
	"context"
	"time"
)

// # Repository Contract

// Repository persists tiers and subscriptions.
type Repository interface {

	// # Tiers

	CreateTier(context context.Context, tier *Tier) error
	FindTier(context context.Context, id string) (*Tier, error)
	ListTiers(context context.Context, seriesID string) ([]*Tier, error)

	// # Subscriptions

	CreateSubscription(context context.Context, subscription *Subscription) error
	FindSubscription(context context.Context, id string) (*Subscription, error)

	// LockSubscription loads a subscription for update within the current transaction.
	LockSubscription(context context.Context, id string) (*Subscription, error)

	/*
		SetStatus moves a subscription to status with the given expiry.

		Returns:
		  - error: apperr.Conflict when it would create a second Active subscription
		    for the same (user, series)
	*/
	SetStatus(context context.Context, id string, status Status, expiresAt *time.Time) error

	/*
		CancelLapsed moves every other Active subscription of the pair whose expiry
		is at or before now to Cancelled, under a row lock.

		Returns:
		  - int: Number of subscriptions cancelled
	*/
	CancelLapsed(context context.Context, userID, seriesID, exceptID string, now time.Time) (int, error)

	// FindActive returns the Active subscription for the pair, or nil when there is none.
	FindActive(context context.Context, userID, seriesID string) (*Subscription, error)

	// ListByUser returns every subscription of a reader, newest first.
	ListByUser(context context.Context, userID string) ([]*Subscription, error)
}
