package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoscan/internal/domain"
)

// MockBuyerRepo is a mock implementation of port.BuyerRepository.
type MockBuyerRepo struct {
	mock.Mock
}

func (m *MockBuyerRepo) Create(ctx context.Context, preset *domain.BuyerPreset) error {
	args := m.Called(ctx, preset)
	return args.Error(0)
}

func (m *MockBuyerRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.BuyerPreset, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BuyerPreset), args.Error(1)
}

func (m *MockBuyerRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockBuyerRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}
