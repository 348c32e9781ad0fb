package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"invoscan/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendProcessingOutcome(ctx context.Context, to string, invoiceID uuid.UUID, result *domain.ProcessingResult) error {
	args := m.Called(ctx, to, invoiceID, result)
	return args.Error(0)
}
