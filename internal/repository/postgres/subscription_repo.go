package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

type subscriptionRepo struct {
	db *sqlx.DB
}

// NewSubscriptionRepo creates a new PostgreSQL-backed SubscriptionRepository.
func NewSubscriptionRepo(db *sqlx.DB) port.SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

// GetByUser returns the user's subscription. Users without a row are on
// the free plan.
func (r *subscriptionRepo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.GetContext(ctx, &sub,
		"SELECT * FROM subscriptions WHERE user_id = $1", userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Subscription{
				UserID: userID,
				Plan:   domain.PlanFree,
				Status: "active",
			}, nil
		}
		return nil, fmt.Errorf("subscriptionRepo.GetByUser: %w", err)
	}
	return &sub, nil
}

// MonthlyInvoiceCount counts non-deleted invoices created since from.
// Failed uploads still count toward quota; only deletion frees a slot.
func (r *subscriptionRepo) MonthlyInvoiceCount(ctx context.Context, userID uuid.UUID, from time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM invoices
		 WHERE user_id = $1 AND created_at >= $2 AND deleted_at IS NULL`,
		userID, from)
	if err != nil {
		return 0, fmt.Errorf("subscriptionRepo.MonthlyInvoiceCount: %w", err)
	}
	return count, nil
}
