package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"invoscan/internal/domain"
	"invoscan/internal/handler"
	"invoscan/internal/middleware"
	"invoscan/internal/service"
	"invoscan/mocks"
)

type invoiceHandlerFixture struct {
	invoices *mocks.MockInvoiceRepo
	storage  *mocks.MockObjectStorage
	subs     *mocks.MockSubscriptionRepo
	handler  *handler.InvoiceHandler
}

func newInvoiceHandlerFixture() *invoiceHandlerFixture {
	f := &invoiceHandlerFixture{
		invoices: new(mocks.MockInvoiceRepo),
		storage:  new(mocks.MockObjectStorage),
		subs:     new(mocks.MockSubscriptionRepo),
	}
	pipeline := service.NewPipeline(new(mocks.MockOCRClient), new(mocks.MockInvoiceExtractor), nil)
	svc := service.NewInvoiceService(
		f.invoices, new(mocks.MockUserRepo), f.storage, pipeline,
		service.NewSubscriptionService(f.subs), new(mocks.MockEmailSender),
		10, 10, 3600,
	)
	f.handler = handler.NewInvoiceHandler(svc)
	return f
}

func authedContext(t *testing.T, userID uuid.UUID, method, path string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(method, path, nil)
	c.Set(middleware.ContextKeyUserID, userID)
	return c, w
}

func TestInvoiceHandler_Upload_MissingFile(t *testing.T) {
	f := newInvoiceHandlerFixture()
	userID := uuid.New()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("buyer_gstin", "32ALBPD9642B1ZP"))
	require.NoError(t, mw.Close())

	c, w := authedContext(t, userID, http.MethodPost, "/api/v1/invoices/upload")
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/invoices/upload", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	f.handler.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")
}

func TestInvoiceHandler_Upload_QuotaExceeded(t *testing.T) {
	f := newInvoiceHandlerFixture()
	userID := uuid.New()

	f.subs.On("GetByUser", mock.Anything, userID).
		Return(&domain.Subscription{UserID: userID, Plan: domain.PlanFree}, nil)
	f.subs.On("MonthlyInvoiceCount", mock.Anything, userID, mock.Anything).Return(3, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "bill.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7 content"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c, w := authedContext(t, userID, http.MethodPost, "/api/v1/invoices/upload")
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/invoices/upload", &body)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	f.handler.Upload(c)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "QUOTA_EXCEEDED")
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	t.Run("invalid_id", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/not-a-uuid")
		c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}

		f.handler.GetByID(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_ID")
	})

	t.Run("not_found", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).Return(nil, domain.ErrNotFound)

		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/"+invID.String())
		c.Params = gin.Params{{Key: "id", Value: invID.String()}}

		f.handler.GetByID(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})

	t.Run("found", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, UserID: userID, Status: domain.InvoiceStatusCompleted}, nil)

		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/"+invID.String())
		c.Params = gin.Params{{Key: "id", Value: invID.String()}}

		f.handler.GetByID(c)

		require.Equal(t, http.StatusOK, w.Code)
		var resp handler.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
	})
}

func TestInvoiceHandler_Download(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	t.Run("unsupported_format", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/"+invID.String()+"/download?format=xlsx")
		c.Params = gin.Params{{Key: "id", Value: invID.String()}}

		f.handler.Download(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "UNSUPPORTED_FORMAT")
	})

	t.Run("not_ready", func(t *testing.T) {
		f := newInvoiceHandlerFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, Status: domain.InvoiceStatusPending}, nil)

		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/"+invID.String()+"/download")
		c.Params = gin.Params{{Key: "id", Value: invID.String()}}

		f.handler.Download(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVOICE_NOT_READY")
	})

	t.Run("csv_attachment", func(t *testing.T) {
		record, err := json.Marshal(&domain.InvoiceRecord{
			SellerName:  "Bharath Traders",
			SellerGSTIN: "32AAXFB6381L1ZU",
			BillNo:      "B2B-1042",
			BillDate:    "2025-04-17",
			TotalAmount: 1180,
		})
		require.NoError(t, err)

		f := newInvoiceHandlerFixture()
		f.invoices.On("GetByID", mock.Anything, userID, invID).
			Return(&domain.Invoice{ID: invID, Status: domain.InvoiceStatusCompleted, Record: record}, nil)

		c, w := authedContext(t, userID, http.MethodGet, "/api/v1/invoices/"+invID.String()+"/download?format=csv")
		c.Params = gin.Params{{Key: "id", Value: invID.String()}}

		f.handler.Download(c)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "invoice_"+invID.String()+".csv")
		assert.Contains(t, w.Body.String(), "B2B-1042")
	})
}

func TestInvoiceHandler_Delete(t *testing.T) {
	userID := uuid.New()
	invID := uuid.New()

	f := newInvoiceHandlerFixture()
	f.invoices.On("GetByID", mock.Anything, userID, invID).
		Return(&domain.Invoice{ID: invID, UserID: userID, FilePath: "users/u/x.pdf"}, nil)
	f.invoices.On("SoftDelete", mock.Anything, userID, invID).Return(nil)
	f.storage.On("Delete", mock.Anything, "users/u/x.pdf").Return(nil)

	c, w := authedContext(t, userID, http.MethodDelete, "/api/v1/invoices/"+invID.String())
	c.Params = gin.Params{{Key: "id", Value: invID.String()}}

	f.handler.Delete(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "invoice deleted")
}

func TestInvoiceHandler_Unauthenticated(t *testing.T) {
	f := newInvoiceHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/invoices", nil)

	f.handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
