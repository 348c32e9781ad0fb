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

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Status == "" {
		inv.Status = domain.InvoiceStatusPending
	}

	query := `INSERT INTO invoices (
		id, user_id, original_filename, file_path, file_hash,
		buyer_gstin_hint, status, processing_time_ms, created_at, updated_at
	) VALUES (
		$1, $2, $3, $4, $5,
		$6, $7, $8, $9, $10
	)`

	_, err := r.db.ExecContext(ctx, query,
		inv.ID, inv.UserID, inv.OriginalFilename, inv.FilePath, inv.FileHash,
		inv.BuyerGSTINHint, inv.Status, inv.ProcessingTimeMs, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET status = $1, updated_at = $2
		 WHERE id = $3 AND status = $4 AND deleted_at IS NULL`,
		domain.InvoiceStatusProcessing, time.Now().UTC(), id, domain.InvoiceStatusPending)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkProcessing: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkProcessing: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *invoiceRepo) SaveResult(ctx context.Context, id uuid.UUID, record []byte, processingTimeMs int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET
			status = $1, record = $2, error_code = '', error_message = '',
			error_details = NULL, processing_time_ms = $3, updated_at = $4
		 WHERE id = $5 AND deleted_at IS NULL`,
		domain.InvoiceStatusCompleted, record, processingTimeMs, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SaveResult: %w", err)
	}
	return nil
}

func (r *invoiceRepo) SaveError(ctx context.Context, id uuid.UUID, code, message string, details []byte, processingTimeMs int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET
			status = $1, error_code = $2, error_message = $3,
			error_details = $4, processing_time_ms = $5, updated_at = $6
		 WHERE id = $7 AND deleted_at IS NULL`,
		domain.InvoiceStatusFailed, code, message, details, processingTimeMs, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SaveError: %w", err)
	}
	return nil
}

func (r *invoiceRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT * FROM invoices WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL", id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

func (r *invoiceRepo) List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter) ([]domain.Invoice, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := `SELECT * FROM invoices WHERE user_id = $1 AND deleted_at IS NULL`
	args := []interface{}{userID}
	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, filter.Status)
	}
	if !filter.CreatedFrom.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", len(args)+1)
		args = append(args, filter.CreatedFrom)
	}
	if !filter.CreatedTo.IsZero() {
		query += fmt.Sprintf(" AND created_at < $%d", len(args)+1)
		args = append(args, filter.CreatedTo)
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	invoices := []domain.Invoice{}
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) SoftDelete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET deleted_at = $1, updated_at = $1
		 WHERE id = $2 AND user_id = $3 AND deleted_at IS NULL`,
		time.Now().UTC(), id, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SoftDelete: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("invoiceRepo.SoftDelete: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
