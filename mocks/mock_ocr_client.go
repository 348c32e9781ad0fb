package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoscan/internal/domain"
)

// MockOCRClient is a mock implementation of port.OCRClient.
type MockOCRClient struct {
	mock.Mock
}

func (m *MockOCRClient) ExtractText(ctx context.Context, pdf []byte) (*domain.OCRResult, error) {
	args := m.Called(ctx, pdf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OCRResult), args.Error(1)
}
