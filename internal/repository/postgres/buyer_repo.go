package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

type buyerRepo struct {
	db *sqlx.DB
}

// NewBuyerRepo creates a new PostgreSQL-backed BuyerRepository.
func NewBuyerRepo(db *sqlx.DB) port.BuyerRepository {
	return &buyerRepo{db: db}
}

func (r *buyerRepo) Create(ctx context.Context, preset *domain.BuyerPreset) error {
	preset.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO buyer_presets (id, user_id, gstin, buyer_name, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		preset.ID, preset.UserID, preset.GSTIN, preset.BuyerName, preset.IsDefault, preset.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrDuplicateBuyer
		}
		return fmt.Errorf("buyerRepo.Create: %w", err)
	}
	return nil
}

func (r *buyerRepo) List(ctx context.Context, userID uuid.UUID) ([]domain.BuyerPreset, error) {
	presets := []domain.BuyerPreset{}
	err := r.db.SelectContext(ctx, &presets,
		`SELECT * FROM buyer_presets WHERE user_id = $1
		 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("buyerRepo.List: %w", err)
	}
	return presets, nil
}

func (r *buyerRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM buyer_presets WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return fmt.Errorf("buyerRepo.Delete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("buyerRepo.Delete: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *buyerRepo) ClearDefault(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE buyer_presets SET is_default = FALSE WHERE user_id = $1 AND is_default = TRUE", userID)
	if err != nil {
		return fmt.Errorf("buyerRepo.ClearDefault: %w", err)
	}
	return nil
}
