// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dashi/internal/platform/apperr"
	"github.com/taibuivan/dashi/internal/platform/database/schema"
	"github.com/taibuivan/dashi/internal/platform/dberr"
	"github.com/taibuivan/dashi/internal/platform/postgres"
)

// # PostgreSQL Repository

// postgresRepository implements [Repository] using pgx.
//
// The partial unique index uq_subscription_active backs the one-Active rule.
type postgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed subscription store.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

// # Tiers

func (repository *postgresRepository) CreateTier(context context.Context, tier *Tier) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`,
		schema.CommerceTier.Table,
		schema.CommerceTier.ID, schema.CommerceTier.SeriesID, schema.CommerceTier.Name,
		schema.CommerceTier.Perks, schema.CommerceTier.Price,
		schema.CommerceTier.CreatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query, tier.ID, tier.SeriesID, tier.Name, tier.Perks, tier.Price).
		Scan(&tier.CreatedAt)

	return dberr.Wrap(err, "insert_tier")
}

func (repository *postgresRepository) tierColumns() string {
	return schema.Select("", []string{
		schema.CommerceTier.ID, schema.CommerceTier.SeriesID, schema.CommerceTier.Name,
		schema.CommerceTier.Perks, schema.CommerceTier.Price, schema.CommerceTier.CreatedAt,
	})
}

func scanTier(row pgx.Row) (*Tier, error) {
	var tier Tier
	err := row.Scan(&tier.ID, &tier.SeriesID, &tier.Name, &tier.Perks, &tier.Price, &tier.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tier, nil
}

func (repository *postgresRepository) FindTier(context context.Context, id string) (*Tier, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		repository.tierColumns(), schema.CommerceTier.Table, schema.CommerceTier.ID)

	tier, err := scanTier(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tier")
		}
		return nil, dberr.Wrap(err, "find_tier")
	}

	return tier, nil
}

func (repository *postgresRepository) ListTiers(context context.Context, seriesID string) ([]*Tier, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC, %s ASC`,
		repository.tierColumns(), schema.CommerceTier.Table, schema.CommerceTier.SeriesID,
		schema.CommerceTier.Perks, schema.CommerceTier.Price)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, seriesID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_tiers")
	}
	defer rows.Close()

	var tiers []*Tier
	for rows.Next() {
		tier, err := scanTier(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan tier: %w", err)
		}
		tiers = append(tiers, tier)
	}

	return tiers, dberr.Wrap(rows.Err(), "list_tiers")
}

// # Subscriptions

func (repository *postgresRepository) CreateSubscription(context context.Context, subscription *Subscription) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s, %s) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s, %s
	`,
		schema.CommerceSubscription.Table,
		schema.CommerceSubscription.ID, schema.CommerceSubscription.UserID, schema.CommerceSubscription.SeriesID,
		schema.CommerceSubscription.TierID, schema.CommerceSubscription.Status, schema.CommerceSubscription.ExpiresAt,
		schema.CommerceSubscription.CreatedAt, schema.CommerceSubscription.UpdatedAt,
	)

	err := postgres.Conn(context, repository.pool).
		QueryRow(context, query,
			subscription.ID, subscription.UserID, subscription.SeriesID,
			subscription.TierID, subscription.Status, subscription.ExpiresAt,
		).
		Scan(&subscription.CreatedAt, &subscription.UpdatedAt)

	return dberr.Wrap(err, "insert_subscription")
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var subscription Subscription
	err := row.Scan(
		&subscription.ID, &subscription.UserID, &subscription.SeriesID, &subscription.TierID,
		&subscription.Status, &subscription.ExpiresAt, &subscription.CreatedAt, &subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}

func (repository *postgresRepository) findSubscription(context context.Context, id, suffix string) (*Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 %s`,
		schema.Select("", schema.CommerceSubscription.Columns()),
		schema.CommerceSubscription.Table, schema.CommerceSubscription.ID, suffix)

	subscription, err := scanSubscription(postgres.Conn(context, repository.pool).QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Subscription")
		}
		return nil, dberr.Wrap(err, "find_subscription")
	}

	return subscription, nil
}

func (repository *postgresRepository) FindSubscription(context context.Context, id string) (*Subscription, error) {
	return repository.findSubscription(context, id, "")
}

func (repository *postgresRepository) LockSubscription(context context.Context, id string) (*Subscription, error) {
	return repository.findSubscription(context, id, "FOR UPDATE")
}

func (repository *postgresRepository) SetStatus(context context.Context, id string, status Status, expiresAt *time.Time) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = NOW() WHERE %s = $1`,
		schema.CommerceSubscription.Table,
		schema.CommerceSubscription.Status, schema.CommerceSubscription.ExpiresAt,
		schema.CommerceSubscription.UpdatedAt, schema.CommerceSubscription.ID)

	result, err := postgres.Conn(context, repository.pool).Exec(context, query, id, status, expiresAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("An active subscription already exists for this series")
		}
		return dberr.Wrap(err, "update_subscription_status")
	}

	if result.RowsAffected() == 0 {
		return apperr.NotFound("Subscription")
	}

	return nil
}

// CancelLapsed takes the row locks through the UPDATE itself.
func (repository *postgresRepository) CancelLapsed(context context.Context, userID, seriesID, exceptID string, now time.Time) (int, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = $5, %s = NOW()
		WHERE %s = $1 AND %s = $2 AND %s <> $3 AND %s = $4
		  AND (%s IS NULL OR %s <= $6)
	`,
		schema.CommerceSubscription.Table,
		schema.CommerceSubscription.Status, schema.CommerceSubscription.UpdatedAt,
		schema.CommerceSubscription.UserID, schema.CommerceSubscription.SeriesID,
		schema.CommerceSubscription.ID, schema.CommerceSubscription.Status,
		schema.CommerceSubscription.ExpiresAt, schema.CommerceSubscription.ExpiresAt,
	)

	result, err := postgres.Conn(context, repository.pool).
		Exec(context, query, userID, seriesID, exceptID, StatusActive, StatusCancelled, now)
	if err != nil {
		return 0, dberr.Wrap(err, "cancel_lapsed_subscriptions")
	}

	return int(result.RowsAffected()), nil
}

func (repository *postgresRepository) FindActive(context context.Context, userID, seriesID string) (*Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 AND %s = $3`,
		schema.Select("", schema.CommerceSubscription.Columns()),
		schema.CommerceSubscription.Table,
		schema.CommerceSubscription.UserID, schema.CommerceSubscription.SeriesID, schema.CommerceSubscription.Status)

	subscription, err := scanSubscription(postgres.Conn(context, repository.pool).QueryRow(context, query, userID, seriesID, StatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, dberr.Wrap(err, "find_active_subscription")
	}

	return subscription, nil
}

func (repository *postgresRepository) ListByUser(context context.Context, userID string) ([]*Subscription, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s DESC`,
		schema.Select("", schema.CommerceSubscription.Columns()),
		schema.CommerceSubscription.Table, schema.CommerceSubscription.UserID,
		schema.CommerceSubscription.CreatedAt)

	rows, err := postgres.Conn(context, repository.pool).Query(context, query, userID)
	if err != nil {
		return nil, dberr.Wrap(err, "list_subscriptions")
	}
	defer rows.Close()

	var subscriptions []*Subscription
	for rows.Next() {
		subscription, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan subscription: %w", err)
		}
		subscriptions = append(subscriptions, subscription)
	}

	return subscriptions, dberr.Wrap(rows.Err(), "list_subscriptions")
}
