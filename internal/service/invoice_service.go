package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"invoscan/internal/domain"
	"invoscan/internal/output"
	"invoscan/internal/port"
)

var pdfMagic = []byte("%PDF")

// BatchFile is one file in a batch upload request.
type BatchFile struct {
	Filename string
	Data     []byte
}

// BatchItemResult is the per-file outcome of a batch upload.
type BatchItemResult struct {
	Filename  string `json:"filename"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	InvoiceID string `json:"invoice_id,omitempty"`
}

// BatchResult summarizes a batch upload.
type BatchResult struct {
	Success  bool              `json:"success"`
	Results  []BatchItemResult `json:"results"`
	Total    int               `json:"total"`
	Accepted int               `json:"accepted"`
}

// RenderedOutput is a formatted invoice download.
type RenderedOutput struct {
	Content     string
	ContentType string
	Filename    string
}

// InvoiceService owns the invoice lifecycle: upload, background
// processing, retrieval, rendering, and deletion.
type InvoiceService struct {
	invoices port.InvoiceRepository
	users    port.UserRepository
	storage  port.ObjectStorage
	pipeline *Pipeline
	subs     *SubscriptionService
	email    port.EmailSender

	maxFileSize    int64
	maxBatchSize   int
	presignExpiry  time.Duration
	processTimeout time.Duration
}

// NewInvoiceService creates an invoice service. maxFileSizeMB and
// maxBatchSize fall back to 10 when unset.
func NewInvoiceService(
	invoices port.InvoiceRepository,
	users port.UserRepository,
	storage port.ObjectStorage,
	pipeline *Pipeline,
	subs *SubscriptionService,
	email port.EmailSender,
	maxFileSizeMB int64,
	maxBatchSize int,
	presignExpirySecs int64,
) *InvoiceService {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 10
	}
	if maxBatchSize <= 0 {
		maxBatchSize = 10
	}
	if presignExpirySecs <= 0 {
		presignExpirySecs = 3600
	}
	return &InvoiceService{
		invoices:       invoices,
		users:          users,
		storage:        storage,
		pipeline:       pipeline,
		subs:           subs,
		email:          email,
		maxFileSize:    maxFileSizeMB * 1024 * 1024,
		maxBatchSize:   maxBatchSize,
		presignExpiry:  time.Duration(presignExpirySecs) * time.Second,
		processTimeout: 5 * time.Minute,
	}
}

// Upload validates and stores one PDF, creates the pending invoice row,
// and kicks off background processing.
func (s *InvoiceService) Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte, buyerGSTINHint string) (*domain.Invoice, error) {
	quota, err := s.subs.Quota(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, fmt.Errorf("%w (%d/%d). Upgrade to Pro for unlimited invoices",
			domain.ErrQuotaExceeded, quota.Used, quota.Limit)
	}

	if err := s.validatePDF(filename, data); err != nil {
		return nil, err
	}

	buyerGSTINHint = domain.NormalizeGSTIN(buyerGSTINHint)

	inv, err := s.store(ctx, userID, filename, data, buyerGSTINHint)
	if err != nil {
		return nil, err
	}

	s.processInBackground(inv.ID, userID, data, buyerGSTINHint)
	return inv, nil
}

// UploadBatch uploads up to maxBatchSize PDFs. Per-file validation
// failures are reported inline; the batch is rejected outright only
// when it is empty, oversized, or over quota.
func (s *InvoiceService) UploadBatch(ctx context.Context, userID uuid.UUID, files []BatchFile, buyerGSTINHint string) (*BatchResult, error) {
	if len(files) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if len(files) > s.maxBatchSize {
		return nil, fmt.Errorf("%w: maximum %d files per batch", domain.ErrBatchTooLarge, s.maxBatchSize)
	}

	quota, err := s.subs.Quota(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !quota.Allowed {
		return nil, fmt.Errorf("%w (%d/%d). Upgrade to Pro for unlimited invoices",
			domain.ErrQuotaExceeded, quota.Used, quota.Limit)
	}
	if remaining := quota.Remaining(); len(files) > remaining {
		return nil, fmt.Errorf("%w: %d invoice(s) remaining this month, but %d files uploaded",
			domain.ErrQuotaExceeded, remaining, len(files))
	}

	buyerGSTINHint = domain.NormalizeGSTIN(buyerGSTINHint)

	result := &BatchResult{Total: len(files)}
	for _, f := range files {
		if err := s.validatePDF(f.Filename, f.Data); err != nil {
			result.Results = append(result.Results, BatchItemResult{
				Filename: f.Filename,
				Error:    err.Error(),
			})
			continue
		}

		inv, err := s.store(ctx, userID, f.Filename, f.Data, buyerGSTINHint)
		if err != nil {
			result.Results = append(result.Results, BatchItemResult{
				Filename: f.Filename,
				Error:    err.Error(),
			})
			continue
		}

		s.processInBackground(inv.ID, userID, f.Data, buyerGSTINHint)
		result.Results = append(result.Results, BatchItemResult{
			Filename:  f.Filename,
			Success:   true,
			InvoiceID: inv.ID.String(),
		})
		result.Accepted++
	}
	result.Success = result.Accepted > 0
	return result, nil
}

// Get returns one invoice owned by the user.
func (s *InvoiceService) Get(ctx context.Context, userID, id uuid.UUID) (*domain.Invoice, error) {
	return s.invoices.GetByID(ctx, userID, id)
}

// List returns the user's invoices, optionally filtered by status and
// upload-date range. fromDate and toDate are inclusive YYYY-MM-DD days.
func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, status, fromDate, toDate string, limit, offset int) ([]domain.Invoice, error) {
	filter := port.InvoiceFilter{Limit: limit, Offset: offset}
	if status != "" {
		st := domain.InvoiceStatus(strings.ToLower(status))
		if !domain.ValidInvoiceStatuses[st] {
			return nil, fmt.Errorf("%w: unknown status %s", domain.ErrInvalidFilter, status)
		}
		filter.Status = st
	}
	if fromDate != "" {
		from, err := time.ParseInLocation("2006-01-02", fromDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: from date %s, expected YYYY-MM-DD", domain.ErrInvalidFilter, fromDate)
		}
		filter.CreatedFrom = from
	}
	if toDate != "" {
		to, err := time.ParseInLocation("2006-01-02", toDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: to date %s, expected YYYY-MM-DD", domain.ErrInvalidFilter, toDate)
		}
		filter.CreatedTo = to.AddDate(0, 0, 1)
	}
	return s.invoices.List(ctx, userID, filter)
}

// Delete soft-deletes the invoice row and removes the stored PDF.
// Storage deletion is best-effort.
func (s *InvoiceService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	inv, err := s.invoices.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.invoices.SoftDelete(ctx, userID, id); err != nil {
		return err
	}
	if inv.FilePath != "" {
		if err := s.storage.Delete(ctx, inv.FilePath); err != nil {
			log.Printf("invoiceService: delete stored pdf %s: %v", inv.FilePath, err)
		}
	}
	return nil
}

// PresignPDF returns a temporary URL for the original PDF.
func (s *InvoiceService) PresignPDF(ctx context.Context, userID, id uuid.UUID) (string, error) {
	inv, err := s.invoices.GetByID(ctx, userID, id)
	if err != nil {
		return "", err
	}
	return s.storage.PresignDownload(ctx, inv.FilePath, s.presignExpiry)
}

// Render returns the extracted record in the requested format. Only
// completed invoices can be rendered.
func (s *InvoiceService) Render(ctx context.Context, userID, id uuid.UUID, format string) (*RenderedOutput, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	inv, err := s.invoices.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvoiceStatusCompleted {
		return nil, fmt.Errorf("%w: status %s", domain.ErrInvoiceNotReady, inv.Status)
	}

	var rec domain.InvoiceRecord
	if err := json.Unmarshal(inv.Record, &rec); err != nil {
		return nil, fmt.Errorf("invoiceService.Render: decode record: %w", err)
	}

	content, err := output.Render(&rec, f)
	if err != nil {
		return nil, err
	}
	return &RenderedOutput{
		Content:     content,
		ContentType: domain.ContentTypes[f],
		Filename:    fmt.Sprintf("invoice_%s.%s", id, f),
	}, nil
}

// CompletedRecords decodes the records of all completed invoices,
// newest first. Used by the register export.
func (s *InvoiceService) CompletedRecords(ctx context.Context, userID uuid.UUID) ([]domain.Invoice, []domain.InvoiceRecord, error) {
	invoices, err := s.invoices.List(ctx, userID, port.InvoiceFilter{
		Status: domain.InvoiceStatusCompleted,
		Limit:  100,
	})
	if err != nil {
		return nil, nil, err
	}
	records := make([]domain.InvoiceRecord, 0, len(invoices))
	kept := make([]domain.Invoice, 0, len(invoices))
	for i := range invoices {
		var rec domain.InvoiceRecord
		if err := json.Unmarshal(invoices[i].Record, &rec); err != nil {
			log.Printf("invoiceService: skip undecodable record %s: %v", invoices[i].ID, err)
			continue
		}
		kept = append(kept, invoices[i])
		records = append(records, rec)
	}
	return kept, records, nil
}

func (s *InvoiceService) validatePDF(filename string, data []byte) error {
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return domain.ErrUnsupportedFileType
	}
	if int64(len(data)) > s.maxFileSize {
		return fmt.Errorf("%w: maximum size is %dMB", domain.ErrFileTooLarge, s.maxFileSize/(1024*1024))
	}
	if len(data) < len(pdfMagic) || !bytes.Equal(data[:len(pdfMagic)], pdfMagic) {
		return fmt.Errorf("%w (bad header)", domain.ErrInvalidPDF)
	}
	return nil
}

func (s *InvoiceService) store(ctx context.Context, userID uuid.UUID, filename string, data []byte, buyerGSTINHint string) (*domain.Invoice, error) {
	sum := sha256.Sum256(data)
	key := fmt.Sprintf("users/%s/%s.pdf", userID, uuid.New())

	if _, err := s.storage.Upload(ctx, key, bytes.NewReader(data), "application/pdf"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	inv := &domain.Invoice{
		ID:               uuid.New(),
		UserID:           userID,
		OriginalFilename: filename,
		FilePath:         key,
		FileHash:         hex.EncodeToString(sum[:]),
		BuyerGSTINHint:   buyerGSTINHint,
		Status:           domain.InvoiceStatusPending,
	}
	if err := s.invoices.Create(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// processInBackground runs the pipeline detached from the request
// context and persists the terminal outcome.
func (s *InvoiceService) processInBackground(invoiceID, userID uuid.UUID, data []byte, buyerGSTINHint string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.processTimeout)
		defer cancel()

		if err := s.invoices.MarkProcessing(ctx, invoiceID); err != nil {
			log.Printf("invoiceService: mark processing %s: %v", invoiceID, err)
			return
		}

		result := s.pipeline.Process(ctx, data, buyerGSTINHint, invoiceID.String())

		if result.Status == domain.InvoiceStatusCompleted && result.Record != nil {
			recordJSON, err := json.Marshal(result.Record)
			if err != nil {
				log.Printf("invoiceService: marshal record %s: %v", invoiceID, err)
				return
			}
			if err := s.invoices.SaveResult(ctx, invoiceID, recordJSON, result.ProcessingTimeMs); err != nil {
				log.Printf("invoiceService: save result %s: %v", invoiceID, err)
				return
			}
		} else {
			perr := result.Err
			if perr == nil {
				perr = &domain.PipelineError{
					Code:    domain.ErrCodeProcessing,
					Message: "processing failed without error detail",
				}
			}
			detailsJSON, _ := json.Marshal(perr.Details)
			if err := s.invoices.SaveError(ctx, invoiceID, perr.Code, perr.Message, detailsJSON, result.ProcessingTimeMs); err != nil {
				log.Printf("invoiceService: save error %s: %v", invoiceID, err)
				return
			}
		}

		s.notify(ctx, userID, invoiceID, result)
	}()
}

// notify emails the owner about the outcome. Failures are logged only.
func (s *InvoiceService) notify(ctx context.Context, userID, invoiceID uuid.UUID, result *domain.ProcessingResult) {
	if s.email == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		log.Printf("invoiceService: notify lookup user %s: %v", userID, err)
		return
	}
	if err := s.email.SendProcessingOutcome(ctx, user.Email, invoiceID, result); err != nil {
		log.Printf("invoiceService: notify %s: %v", user.Email, err)
	}
}
