package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/domain"
	"invoscan/mocks"
)

func TestSubscriptionService_Quota(t *testing.T) {
	userID := uuid.New()

	t.Run("free_plan_under_limit", func(t *testing.T) {
		repo := new(mocks.MockSubscriptionRepo)
		repo.On("GetByUser", mock.Anything, userID).
			Return(&domain.Subscription{UserID: userID, Plan: domain.PlanFree}, nil)
		repo.On("MonthlyInvoiceCount", mock.Anything, userID, mock.MatchedBy(func(from time.Time) bool {
			return from.Day() == 1 && from.Hour() == 0 && from.Location() == time.UTC
		})).Return(2, nil)

		quota, err := NewSubscriptionService(repo).Quota(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, domain.PlanFree, quota.Plan)
		assert.Equal(t, 2, quota.Used)
		assert.Equal(t, 3, quota.Limit)
		assert.False(t, quota.Unlimited)
		assert.True(t, quota.Allowed)
		assert.Equal(t, 1, quota.Remaining())
	})

	t.Run("free_plan_at_limit", func(t *testing.T) {
		repo := new(mocks.MockSubscriptionRepo)
		repo.On("GetByUser", mock.Anything, userID).
			Return(&domain.Subscription{UserID: userID, Plan: domain.PlanFree}, nil)
		repo.On("MonthlyInvoiceCount", mock.Anything, userID, mock.Anything).Return(3, nil)

		quota, err := NewSubscriptionService(repo).Quota(context.Background(), userID)
		require.NoError(t, err)
		assert.False(t, quota.Allowed)
		assert.Equal(t, 0, quota.Remaining())
	})

	t.Run("pro_plan_unlimited", func(t *testing.T) {
		repo := new(mocks.MockSubscriptionRepo)
		repo.On("GetByUser", mock.Anything, userID).
			Return(&domain.Subscription{UserID: userID, Plan: domain.PlanPro}, nil)

		quota, err := NewSubscriptionService(repo).Quota(context.Background(), userID)
		require.NoError(t, err)
		assert.True(t, quota.Unlimited)
		assert.True(t, quota.Allowed)

		repo.AssertNotCalled(t, "MonthlyInvoiceCount", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("repo_error", func(t *testing.T) {
		repo := new(mocks.MockSubscriptionRepo)
		repo.On("GetByUser", mock.Anything, userID).Return(nil, errors.New("db down"))

		_, err := NewSubscriptionService(repo).Quota(context.Background(), userID)
		assert.Error(t, err)
	})
}
