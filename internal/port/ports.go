// Package port declares the interfaces the service layer depends on.
// Implementations live in their own packages; mocks/ carries the test
// doubles.
package port

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"invoscan/internal/domain"
)

// OCRClient extracts text and layout from a PDF document.
type OCRClient interface {
	ExtractText(ctx context.Context, pdf []byte) (*domain.OCRResult, error)
}

// InvoiceExtractor turns OCR output into a structured invoice record.
// buyerGSTINHint, when non-empty, tells the extractor which GSTIN on
// the page belongs to the buyer.
type InvoiceExtractor interface {
	Extract(ctx context.Context, ocr *domain.OCRResult, buyerGSTINHint string) (*domain.InvoiceRecord, error)
}

// ObjectStorage stores and retrieves uploaded invoice files.
type ObjectStorage interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// EmailSender notifies a user of a processing outcome. Implementations
// must be safe to call from background goroutines.
type EmailSender interface {
	SendProcessingOutcome(ctx context.Context, to string, invoiceID uuid.UUID, result *domain.ProcessingResult) error
}

// InvoiceFilter narrows invoice listings. Zero time bounds are ignored;
// CreatedTo is exclusive.
type InvoiceFilter struct {
	Status      domain.InvoiceStatus
	CreatedFrom time.Time
	CreatedTo   time.Time
	Limit       int
	Offset      int
}

// InvoiceRepository persists invoice rows. All reads are scoped to the
// owning user and exclude soft-deleted rows.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	SaveResult(ctx context.Context, id uuid.UUID, record []byte, processingTimeMs int64) error
	SaveError(ctx context.Context, id uuid.UUID, code, message string, details []byte, processingTimeMs int64) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]domain.Invoice, error)
	SoftDelete(ctx context.Context, userID, id uuid.UUID) error
}

// BuyerRepository persists saved buyer GSTINs.
type BuyerRepository interface {
	Create(ctx context.Context, preset *domain.BuyerPreset) error
	List(ctx context.Context, userID uuid.UUID) ([]domain.BuyerPreset, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	ClearDefault(ctx context.Context, userID uuid.UUID) error
}

// UserRepository reads user accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// SubscriptionRepository reads plan and usage data.
type SubscriptionRepository interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error)
	MonthlyInvoiceCount(ctx context.Context, userID uuid.UUID, from time.Time) (int, error)
}
