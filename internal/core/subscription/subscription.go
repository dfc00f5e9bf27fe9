// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package subscription manages DashiFan tiers and reader subscriptions.

A [Tier] belongs to a series and grants early access to its first Perks advance
chapters. A [Subscription] moves Pending → Active → Suspended | Cancelled; the
payment system drives activation, and a reader holds at most one Active
subscription per series.
*/
package subscription

import "time"

// Status is the lifecycle state of a [Subscription].
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// Tier is a paid membership level of a series.
type Tier struct {
	ID       string `json:"id"`
	SeriesID string `json:"series_id"`
	Name     string `json:"name"`
	// Perks is how many advance chapters, by rank, the tier opens.
	Perks     int       `json:"perks"`
	Price     int64     `json:"price"`
	CreatedAt time.Time `json:"created_at"`
}

// Subscription links a reader to a tier.
type Subscription struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	SeriesID  string     `json:"series_id"`
	TierID    string     `json:"tier_id"`
	Status    Status     `json:"status"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// IsActive reports whether the subscription grants access at now.
func (s *Subscription) IsActive(now time.Time) bool {
	return s.Status == StatusActive && s.ExpiresAt != nil && s.ExpiresAt.After(now)
}

const (
	FieldName      = "name"
	FieldPerks     = "perks"
	FieldPrice     = "price"
	FieldExpiresAt = "expires_at"
)
