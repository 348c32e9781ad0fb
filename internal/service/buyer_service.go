package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"invoscan/internal/domain"
	"invoscan/internal/gst"
	"invoscan/internal/port"
)

// BuyerService manages the buyer GSTINs a user can pick at upload time.
type BuyerService struct {
	buyers port.BuyerRepository
}

// NewBuyerService creates a buyer preset service.
func NewBuyerService(buyers port.BuyerRepository) *BuyerService {
	return &BuyerService{buyers: buyers}
}

// Create saves a buyer GSTIN after normalizing and validating it.
// Marking the new preset default clears any previous default first.
func (s *BuyerService) Create(ctx context.Context, userID uuid.UUID, gstin, buyerName string, isDefault bool) (*domain.BuyerPreset, error) {
	gstin = domain.NormalizeGSTIN(gstin)
	if !gst.IsValidGSTIN(gstin) {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidGSTIN, gstin)
	}

	if isDefault {
		if err := s.buyers.ClearDefault(ctx, userID); err != nil {
			return nil, err
		}
	}

	preset := &domain.BuyerPreset{
		ID:        uuid.New(),
		UserID:    userID,
		GSTIN:     gstin,
		BuyerName: buyerName,
		IsDefault: isDefault,
	}
	if err := s.buyers.Create(ctx, preset); err != nil {
		return nil, err
	}
	return preset, nil
}

// List returns the user's saved buyers, default first.
func (s *BuyerService) List(ctx context.Context, userID uuid.UUID) ([]domain.BuyerPreset, error) {
	return s.buyers.List(ctx, userID)
}

// Delete removes a saved buyer.
func (s *BuyerService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	return s.buyers.Delete(ctx, userID, id)
}
