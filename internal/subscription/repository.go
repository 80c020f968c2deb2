package subscription

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/segmentio/ksuid"
)

var (
	ErrNotFound             = errors.New("subscription not found")
	ErrActiveSubscription   = errors.New("an active subscription already exists")
	ErrNotSubscriptionOwner = errors.New("subscription belongs to another user")
)

const subscriptionColumns = `id, user_id, plan_type, status, start_date, end_date, amount, COALESCE(payment_method, ''), COALESCE(kakao_tid, ''), COALESCE(order_id, ''), COALESCE(academy_name, ''), academy_verified, created_at, cancelled_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func scanSubscription(row interface{ Scan(...interface{}) error }) (Subscription, error) {
	var sub Subscription
	var cancelledAt sql.NullTime
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.PlanType,
		&sub.Status,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Amount,
		&sub.PaymentMethod,
		&sub.KakaoTID,
		&sub.OrderID,
		&sub.AcademyName,
		&sub.AcademyVerified,
		&sub.CreatedAt,
		&cancelledAt,
	)
	if err != nil {
		return Subscription{}, err
	}
	if cancelledAt.Valid {
		sub.CancelledAt = &cancelledAt.Time
	}
	return sub, nil
}

// Create inserts a new subscription row guarded against a second active
// subscription for the same user.
func (r *Repository) Create(ctx context.Context, sub Subscription) (Subscription, error) {
	active, err := r.HasActiveSubscription(ctx, sub.UserID)
	if err != nil {
		return Subscription{}, err
	}
	if active {
		return Subscription{}, ErrActiveSubscription
	}
	if sub.ID == "" {
		sub.ID = ksuid.New().String()
	}
	sub.CreatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(
		ctx,
		`INSERT INTO subscription (id, user_id, plan_type, status, start_date, end_date, amount, payment_method, kakao_tid, order_id, academy_name, academy_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sub.ID,
		sub.UserID,
		sub.PlanType,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.Amount,
		sub.PaymentMethod,
		sub.KakaoTID,
		sub.OrderID,
		sub.AcademyName,
		sub.AcademyVerified,
		sub.CreatedAt,
	)
	if err != nil {
		return Subscription{}, err
	}
	return sub, nil
}

func (r *Repository) HasActiveSubscription(ctx context.Context, userID string) (bool, error) {
	var count int
	row := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM subscription WHERE user_id = $1 AND status = $2 AND end_date > NOW()`,
		userID,
		StatusActive,
	)
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// CurrentForUser returns the user's active subscription or ErrNotFound.
func (r *Repository) CurrentForUser(ctx context.Context, userID string) (Subscription, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+subscriptionColumns+` FROM subscription WHERE user_id = $1 AND status = $2 AND end_date > NOW() ORDER BY created_at DESC LIMIT 1`,
		userID,
		StatusActive,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

func (r *Repository) BySubscriptionID(ctx context.Context, id string) (Subscription, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+subscriptionColumns+` FROM subscription WHERE id = $1`,
		id,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

func (r *Repository) ByOrderID(ctx context.Context, orderID string) (Subscription, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+subscriptionColumns+` FROM subscription WHERE order_id = $1`,
		orderID,
	)
	sub, err := scanSubscription(row)
	if err == sql.ErrNoRows {
		return Subscription{}, ErrNotFound
	}
	return sub, err
}

// SetKakaoTID records the provider transaction id issued at payment ready.
func (r *Repository) SetKakaoTID(ctx context.Context, id, tid string) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE subscription SET kakao_tid = $1 WHERE id = $2`,
		tid,
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return ErrNotFound
	}
	return nil
}

// Activate flips a pending subscription to ACTIVE once payment is approved.
func (r *Repository) Activate(ctx context.Context, id string, startDate, endDate time.Time) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE subscription SET status = $1, start_date = $2, end_date = $3 WHERE id = $4`,
		StatusActive,
		startDate,
		endDate,
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected != 1 {
		return ErrNotFound
	}
	return nil
}

// Cancel sets a subscription to CANCELLED after verifying ownership.
func (r *Repository) Cancel(ctx context.Context, id, userID string) error {
	sub, err := r.BySubscriptionID(ctx, id)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return ErrNotSubscriptionOwner
	}
	_, err = r.db.ExecContext(
		ctx,
		`UPDATE subscription SET status = $1, cancelled_at = NOW() WHERE id = $2`,
		StatusCancelled,
		id,
	)
	return err
}

// ExpireOverdue marks active subscriptions past their end date as EXPIRED.
// Run periodically by the maintenance command.
func (r *Repository) ExpireOverdue(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE subscription SET status = $1 WHERE status = $2 AND end_date <= NOW()`,
		StatusExpired,
		StatusActive,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
