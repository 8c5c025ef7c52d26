package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classloop/classloop/pkg/billing"
	"github.com/classloop/classloop/pkg/pg"
)

// Store persists subscription records. Write methods apply absolute state so
// repeated application of the same event is a no-op; the ref-keyed updates
// report how many rows matched so callers can distinguish "nothing to update"
// from a successful write.
type Store interface {
	Upsert(ctx context.Context, sub *Subscription) error
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error)
	GetBySubscriptionRef(ctx context.Context, ref string) (*Subscription, error)
	SetStatusBySubscriptionRef(ctx context.Context, ref string, status billing.Status) (int64, error)
	UpdateBySubscriptionRef(ctx context.Context, ref string, status billing.Status, periodStart, periodEnd *time.Time) (int64, error)
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed Store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Upsert(ctx context.Context, sub *Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, customer_ref, subscription_ref, tier, status, seats_limit,
			period_start, period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (user_id) DO UPDATE SET
			customer_ref     = EXCLUDED.customer_ref,
			subscription_ref = EXCLUDED.subscription_ref,
			tier             = EXCLUDED.tier,
			status           = EXCLUDED.status,
			seats_limit      = EXCLUDED.seats_limit,
			period_start     = EXCLUDED.period_start,
			period_end       = EXCLUDED.period_end,
			updated_at       = now()`

	_, err := s.pool.Exec(ctx, query,
		sub.UserID, sub.CustomerRef, sub.SubscriptionRef, sub.Tier,
		string(sub.Status), sub.SeatsLimit, sub.PeriodStart, sub.PeriodEnd)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *pgStore) GetByUserID(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	return s.get(ctx, "user_id = $1", userID)
}

func (s *pgStore) GetBySubscriptionRef(ctx context.Context, ref string) (*Subscription, error) {
	return s.get(ctx, "subscription_ref = $1", ref)
}

func (s *pgStore) get(ctx context.Context, where string, arg any) (*Subscription, error) {
	query := `
		SELECT user_id, customer_ref, subscription_ref, tier, status, seats_limit,
		       period_start, period_end, created_at, updated_at
		FROM subscriptions
		WHERE ` + where

	var sub Subscription
	var status string
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&sub.UserID, &sub.CustomerRef, &sub.SubscriptionRef, &sub.Tier,
		&status, &sub.SeatsLimit, &sub.PeriodStart, &sub.PeriodEnd,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	sub.Status = billing.Status(status)
	return &sub, nil
}

func (s *pgStore) SetStatusBySubscriptionRef(ctx context.Context, ref string, status billing.Status) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE subscriptions SET status = $2, updated_at = now() WHERE subscription_ref = $1`,
		ref, string(status))
	if err != nil {
		return 0, fmt.Errorf("set subscription status: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *pgStore) UpdateBySubscriptionRef(ctx context.Context, ref string, status billing.Status, periodStart, periodEnd *time.Time) (int64, error) {
	// Period columns keep their previous values when the event carried none.
	tag, err := s.pool.Exec(ctx, `
		UPDATE subscriptions SET
			status       = $2,
			period_start = COALESCE($3, period_start),
			period_end   = COALESCE($4, period_end),
			updated_at   = now()
		WHERE subscription_ref = $1`,
		ref, string(status), periodStart, periodEnd)
	if err != nil {
		return 0, fmt.Errorf("update subscription: %w", err)
	}
	return tag.RowsAffected(), nil
}
