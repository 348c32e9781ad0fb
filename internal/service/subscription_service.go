package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

// SubscriptionService answers plan and quota questions. Quota windows
// are calendar months in UTC.
type SubscriptionService struct {
	subs port.SubscriptionRepository
}

// NewSubscriptionService creates a subscription service.
func NewSubscriptionService(subs port.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{subs: subs}
}

// Quota returns the user's usage against their plan limit for the
// current calendar month.
func (s *SubscriptionService) Quota(ctx context.Context, userID uuid.UUID) (*domain.QuotaStatus, error) {
	sub, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	limit, limited := domain.PlanMonthlyLimits[sub.Plan]
	if !limited {
		return &domain.QuotaStatus{
			Plan:      sub.Plan,
			Unlimited: true,
			Allowed:   true,
		}, nil
	}

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	used, err := s.subs.MonthlyInvoiceCount(ctx, userID, monthStart)
	if err != nil {
		return nil, err
	}

	return &domain.QuotaStatus{
		Plan:    sub.Plan,
		Used:    used,
		Limit:   limit,
		Allowed: used < limit,
	}, nil
}

// Subscription returns the user's current subscription.
func (s *SubscriptionService) Subscription(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subs.GetByUser(ctx, userID)
}
