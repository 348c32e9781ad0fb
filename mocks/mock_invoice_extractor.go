package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoscan/internal/domain"
)

// MockInvoiceExtractor is a mock implementation of port.InvoiceExtractor.
type MockInvoiceExtractor struct {
	mock.Mock
}

func (m *MockInvoiceExtractor) Extract(ctx context.Context, ocr *domain.OCRResult, buyerGSTINHint string) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, ocr, buyerGSTINHint)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}
