package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/domain"
	"invoscan/internal/port"
	"invoscan/mocks"
)

type invoiceServiceFixture struct {
	invoices *mocks.MockInvoiceRepo
	users    *mocks.MockUserRepo
	storage  *mocks.MockObjectStorage
	subs     *mocks.MockSubscriptionRepo
	ocr      *mocks.MockOCRClient
	ext      *mocks.MockInvoiceExtractor
	email    *mocks.MockEmailSender
	svc      *InvoiceService
}

func newInvoiceServiceFixture() *invoiceServiceFixture {
	f := &invoiceServiceFixture{
		invoices: new(mocks.MockInvoiceRepo),
		users:    new(mocks.MockUserRepo),
		storage:  new(mocks.MockObjectStorage),
		subs:     new(mocks.MockSubscriptionRepo),
		ocr:      new(mocks.MockOCRClient),
		ext:      new(mocks.MockInvoiceExtractor),
		email:    new(mocks.MockEmailSender),
	}
	pipeline := NewPipeline(f.ocr, f.ext, nil)
	subSvc := NewSubscriptionService(f.subs)
	f.svc = NewInvoiceService(f.invoices, f.users, f.storage, pipeline, subSvc, f.email, 10, 10, 3600)
	return f
}

func (f *invoiceServiceFixture) proPlan(userID uuid.UUID) {
	f.subs.On("GetByUser", mock.Anything, userID).
		Return(&domain.Subscription{UserID: userID, Plan: domain.PlanPro, Status: "active"}, nil)
}

func (f *invoiceServiceFixture) freePlan(userID uuid.UUID, used int) {
	f.subs.On("GetByUser", mock.Anything, userID).
		Return(&domain.Subscription{UserID: userID, Plan: domain.PlanFree, Status: "active"}, nil)
	f.subs.On("MonthlyInvoiceCount", mock.Anything, userID, mock.Anything).Return(used, nil)
}

var pdfBody = []byte("%PDF-1.7\nfake invoice content")

func TestInvoiceService_Upload(t *testing.T) {
	userID := uuid.New()

	t.Run("success_processes_in_background", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		f.storage.On("Upload", mock.Anything, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "users/"+userID.String()+"/") && strings.HasSuffix(key, ".pdf")
		}), mock.Anything, "application/pdf").Return("s3://bucket/key", nil)
		f.invoices.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invoice")).Return(nil)
		f.invoices.On("MarkProcessing", mock.Anything, mock.Anything).Return(nil)

		f.ocr.On("ExtractText", mock.Anything, pdfBody).
			Return(&domain.OCRResult{FullText: "invoice text"}, nil)
		f.ext.On("Extract", mock.Anything, mock.Anything, "32ALBPD9642B1ZP").
			Return(validRecord(), nil)
		f.invoices.On("SaveResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.users.On("GetByID", mock.Anything, userID).
			Return(&domain.User{ID: userID, Email: "owner@example.com", IsActive: true}, nil)

		done := make(chan struct{})
		f.email.On("SendProcessingOutcome", mock.Anything, "owner@example.com", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { close(done) }).Return(nil)

		inv, err := f.svc.Upload(context.Background(), userID, "bill.pdf", pdfBody, " 32albpd9642b1zp ")
		require.NoError(t, err)
		require.NotNil(t, inv)
		assert.Equal(t, domain.InvoiceStatusPending, inv.Status)
		assert.Equal(t, "bill.pdf", inv.OriginalFilename)
		assert.Equal(t, "32ALBPD9642B1ZP", inv.BuyerGSTINHint)
		assert.Len(t, inv.FileHash, 64)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("background processing did not finish")
		}

		f.invoices.AssertCalled(t, "SaveResult", mock.Anything, inv.ID, mock.Anything, mock.Anything)
	})

	t.Run("quota_exceeded", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.freePlan(userID, 3)

		_, err := f.svc.Upload(context.Background(), userID, "bill.pdf", pdfBody, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrQuotaExceeded))
		assert.Contains(t, err.Error(), "(3/3)")

		f.storage.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects_non_pdf_extension", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		_, err := f.svc.Upload(context.Background(), userID, "bill.docx", pdfBody, "")
		assert.True(t, errors.Is(err, domain.ErrUnsupportedFileType))
	})

	t.Run("rejects_oversized_file", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		big := append([]byte("%PDF"), make([]byte, 11*1024*1024)...)
		_, err := f.svc.Upload(context.Background(), userID, "bill.pdf", big, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrFileTooLarge))
		assert.Contains(t, err.Error(), "10MB")
	})

	t.Run("rejects_bad_magic", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		_, err := f.svc.Upload(context.Background(), userID, "bill.pdf", []byte("GIF89a..."), "")
		assert.True(t, errors.Is(err, domain.ErrInvalidPDF))
	})

	t.Run("storage_failure", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("connection reset"))

		_, err := f.svc.Upload(context.Background(), userID, "bill.pdf", pdfBody, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUploadFailed))
		f.invoices.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failed_processing_saves_error", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("s3://bucket/key", nil)
		f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.invoices.On("MarkProcessing", mock.Anything, mock.Anything).Return(nil)
		f.ocr.On("ExtractText", mock.Anything, mock.Anything).
			Return(&domain.OCRResult{FullText: "", Confidence: 0.05}, nil)

		done := make(chan struct{})
		f.invoices.On("SaveError", mock.Anything, mock.Anything, domain.ErrCodeOCREmpty,
			"OCR returned empty text. The PDF may be unreadable.", mock.Anything, int64(0)).
			Run(func(args mock.Arguments) { close(done) }).Return(nil)
		f.users.On("GetByID", mock.Anything, userID).
			Return(&domain.User{ID: userID, Email: "owner@example.com"}, nil)
		f.email.On("SendProcessingOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		_, err := f.svc.Upload(context.Background(), userID, "bill.pdf", pdfBody, "")
		require.NoError(t, err)

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("background processing did not record the failure")
		}
	})
}

func TestInvoiceService_UploadBatch(t *testing.T) {
	userID := uuid.New()

	t.Run("empty_batch", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		_, err := f.svc.UploadBatch(context.Background(), userID, nil, "")
		assert.True(t, errors.Is(err, domain.ErrEmptyBatch))
	})

	t.Run("too_many_files", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		files := make([]BatchFile, 11)
		for i := range files {
			files[i] = BatchFile{Filename: "a.pdf", Data: pdfBody}
		}
		_, err := f.svc.UploadBatch(context.Background(), userID, files, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrBatchTooLarge))
		assert.Contains(t, err.Error(), "maximum 10 files")
	})

	t.Run("insufficient_remaining_quota", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.freePlan(userID, 2) // 1 slot left

		files := []BatchFile{
			{Filename: "a.pdf", Data: pdfBody},
			{Filename: "b.pdf", Data: pdfBody},
		}
		_, err := f.svc.UploadBatch(context.Background(), userID, files, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrQuotaExceeded))
		assert.Contains(t, err.Error(), "1 invoice(s) remaining this month, but 2 files uploaded")
	})

	t.Run("per_file_failures_reported_inline", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.proPlan(userID)

		f.storage.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("s3://bucket/key", nil)
		f.invoices.On("Create", mock.Anything, mock.Anything).Return(nil)
		f.invoices.On("MarkProcessing", mock.Anything, mock.Anything).Return(nil)
		f.ocr.On("ExtractText", mock.Anything, mock.Anything).
			Return(&domain.OCRResult{FullText: "text"}, nil)
		f.ext.On("Extract", mock.Anything, mock.Anything, "").Return(validRecord(), nil)
		f.invoices.On("SaveResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
		f.users.On("GetByID", mock.Anything, userID).
			Return(&domain.User{ID: userID, Email: "owner@example.com"}, nil)
		f.email.On("SendProcessingOutcome", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

		files := []BatchFile{
			{Filename: "good.pdf", Data: pdfBody},
			{Filename: "scan.png", Data: pdfBody},
			{Filename: "broken.pdf", Data: []byte("not a pdf")},
		}
		result, err := f.svc.UploadBatch(context.Background(), userID, files, "")
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 3, result.Total)
		assert.Equal(t, 1, result.Accepted)
		require.Len(t, result.Results, 3)

		assert.True(t, result.Results[0].Success)
		assert.NotEmpty(t, result.Results[0].InvoiceID)

		assert.False(t, result.Results[1].Success)
		assert.Equal(t, domain.ErrUnsupportedFileType.Error(), result.Results[1].Error)

		assert.False(t, result.Results[2].Success)
		assert.Contains(t, result.Results[2].Error, "bad header")
	})
}

func TestInvoiceService_List(t *testing.T) {
	userID := uuid.New()

	t.Run("invalid_status_filter", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		_, err := f.svc.List(context.Background(), userID, "archived", "", "", 20, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
		assert.Contains(t, err.Error(), "unknown status archived")
	})

	t.Run("invalid_date_filter", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		_, err := f.svc.List(context.Background(), userID, "", "17/04/2025", "", 20, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidFilter))
	})

	t.Run("status_lowercased_and_dates_parsed", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
		toExclusive := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
		f.invoices.On("List", mock.Anything, userID, mock.MatchedBy(func(filter port.InvoiceFilter) bool {
			return filter.Status == domain.InvoiceStatusCompleted &&
				filter.CreatedFrom.Equal(from) &&
				filter.CreatedTo.Equal(toExclusive) &&
				filter.Limit == 20
		})).Return([]domain.Invoice{}, nil)

		_, err := f.svc.List(context.Background(), userID, "COMPLETED", "2025-04-01", "2025-04-30", 20, 0)
		require.NoError(t, err)
		f.invoices.AssertExpectations(t)
	})
}

func TestInvoiceService_Delete(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	t.Run("removes_row_and_pdf", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, UserID: userID, FilePath: "users/u/x.pdf"}, nil)
		f.invoices.On("SoftDelete", mock.Anything, userID, invID).Return(nil)
		f.storage.On("Delete", mock.Anything, "users/u/x.pdf").Return(nil)

		require.NoError(t, f.svc.Delete(context.Background(), userID, invID))
		f.storage.AssertExpectations(t)
	})

	t.Run("storage_failure_is_best_effort", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, UserID: userID, FilePath: "users/u/x.pdf"}, nil)
		f.invoices.On("SoftDelete", mock.Anything, userID, invID).Return(nil)
		f.storage.On("Delete", mock.Anything, mock.Anything).Return(errors.New("s3 down"))

		assert.NoError(t, f.svc.Delete(context.Background(), userID, invID))
	})

	t.Run("not_found", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).Return(nil, domain.ErrNotFound)

		err := f.svc.Delete(context.Background(), userID, invID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		f.invoices.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestInvoiceService_Render(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	t.Run("unsupported_format_checked_first", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		_, err := f.svc.Render(context.Background(), userID, invID, "xlsx")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrUnsupportedFormat))
		f.invoices.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not_completed", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, Status: domain.InvoiceStatusProcessing}, nil)

		_, err := f.svc.Render(context.Background(), userID, invID, "json")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvoiceNotReady))
		assert.Contains(t, err.Error(), "status processing")
	})

	t.Run("renders_completed_record", func(t *testing.T) {
		f := newInvoiceServiceFixture()
		recordJSON, err := json.Marshal(validRecord())
		require.NoError(t, err)
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, Status: domain.InvoiceStatusCompleted, Record: recordJSON}, nil)

		out, err := f.svc.Render(context.Background(), userID, invID, "json")
		require.NoError(t, err)
		assert.Equal(t, "application/json", out.ContentType)
		assert.Equal(t, "invoice_"+invID.String()+".json", out.Filename)
		assert.Contains(t, out.Content, `"seller_name": "Bharath Traders"`)
	})
}

func TestInvoiceService_PresignPDF(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	f := newInvoiceServiceFixture()
	f.invoices.On("GetByID", mock.Anything, userID, invID).
		Return(&domain.Invoice{ID: invID, FilePath: "users/u/x.pdf"}, nil)
	f.storage.On("PresignDownload", mock.Anything, "users/u/x.pdf", time.Hour).
		Return("https://signed.example/x.pdf", nil)

	url, err := f.svc.PresignPDF(context.Background(), userID, invID)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/x.pdf", url)
}

func TestInvoiceService_CompletedRecords(t *testing.T) {
	userID := uuid.New()
	f := newInvoiceServiceFixture()

	good, err := json.Marshal(validRecord())
	require.NoError(t, err)
	f.invoices.On("List", mock.Anything, userID, mock.Anything).Return([]domain.Invoice{
		{ID: uuid.New(), Status: domain.InvoiceStatusCompleted, Record: good},
		{ID: uuid.New(), Status: domain.InvoiceStatusCompleted, Record: []byte("{broken")},
	}, nil)

	invoices, records, err := f.svc.CompletedRecords(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)
	require.Len(t, records, 1)
	assert.Equal(t, "Bharath Traders", records[0].SellerName)
}
