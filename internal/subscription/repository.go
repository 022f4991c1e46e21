package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository persists subscription records.
type Repository interface {
	// Find returns nil, nil when the user has no record.
	Find(ctx context.Context, userID int64) (*Record, error)
	// UpsertSubscribed marks the user subscribed; repeated calls keep one row.
	UpsertSubscribed(ctx context.Context, userID int64, at time.Time) error
	// EnsureAdmin creates or promotes the user to a subscribed admin.
	EnsureAdmin(ctx context.Context, userID int64) error
	CountSubscribed(ctx context.Context) (int, error)
}

type sqlRepository struct {
	db *sqlx.DB
}

// NewRepository returns the Postgres-backed Repository.
func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

func (r *sqlRepository) Find(ctx context.Context, userID int64) (*Record, error) {
	var rec Record
	err := r.db.GetContext(ctx, &rec, `
		SELECT user_id, is_subscribed, is_admin, subscription_date, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *sqlRepository) UpsertSubscribed(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, is_subscribed, subscription_date, updated_at)
		VALUES ($1, TRUE, $2, $2)
		ON CONFLICT (user_id) DO UPDATE SET
			subscription_date = CASE
				WHEN subscriptions.is_subscribed THEN subscriptions.subscription_date
				ELSE EXCLUDED.subscription_date
			END,
			is_subscribed = TRUE,
			updated_at = EXCLUDED.updated_at
	`, userID, at)
	return err
}

func (r *sqlRepository) EnsureAdmin(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO subscriptions (user_id, is_subscribed, is_admin)
		VALUES ($1, TRUE, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET
			is_subscribed = TRUE,
			is_admin = TRUE,
			updated_at = NOW()
	`, userID)
	return err
}

func (r *sqlRepository) CountSubscribed(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM subscriptions WHERE is_subscribed`)
	return n, err
}
