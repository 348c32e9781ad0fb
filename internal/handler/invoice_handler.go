package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"invoscan/internal/service"
	"invoscan/internal/xlsxexport"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService *service.InvoiceService
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService *service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

// Upload handles POST /api/v1/invoices/upload
// Multipart form: file (PDF), buyer_gstin (optional).
func (h *InvoiceHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "file is required")
		return
	}
	data, err := readMultipartFile(fileHeader)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "could not read uploaded file")
		return
	}

	inv, err := h.invoiceService.Upload(c.Request.Context(), userID, fileHeader.Filename, data, c.PostForm("buyer_gstin"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, gin.H{
		"invoice_id": inv.ID,
		"status":     inv.Status,
	})
}

// UploadBatch handles POST /api/v1/invoices/upload-batch
// Multipart form: files (PDFs), buyer_gstin (optional).
func (h *InvoiceHandler) UploadBatch(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "multipart form is required")
		return
	}

	var files []service.BatchFile
	for _, fh := range form.File["files"] {
		data, err := readMultipartFile(fh)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR",
				fmt.Sprintf("could not read uploaded file %s", fh.Filename))
			return
		}
		files = append(files, service.BatchFile{Filename: fh.Filename, Data: data})
	}

	result, err := h.invoiceService.UploadBatch(c.Request.Context(), userID, files, c.PostForm("buyer_gstin"))
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, result)
}

// List handles GET /api/v1/invoices?status=&from=&to=&limit=&offset=
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	invoices, err := h.invoiceService.List(c.Request.Context(), userID,
		c.Query("status"), c.Query("from"), c.Query("to"), limit, offset)
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    invoices,
		Meta:    &PagMeta{Total: len(invoices), Offset: offset, Limit: limit},
	})
}

// GetByID handles GET /api/v1/invoices/:id
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	inv, err := h.invoiceService.Get(c.Request.Context(), userID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, inv)
}

// Download handles GET /api/v1/invoices/:id/download?format=json|xml|csv
func (h *InvoiceHandler) Download(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	rendered, err := h.invoiceService.Render(c.Request.Context(), userID, id, c.DefaultQuery("format", "json"))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rendered.Filename))
	c.Data(http.StatusOK, rendered.ContentType, []byte(rendered.Content))
}

// PDFLink handles GET /api/v1/invoices/:id/pdf
func (h *InvoiceHandler) PDFLink(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	url, err := h.invoiceService.PresignPDF(c.Request.Context(), userID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url})
}

// Delete handles DELETE /api/v1/invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.invoiceService.Delete(c.Request.Context(), userID, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "invoice deleted"})
}

// ExportRegister handles GET /api/v1/invoices/export/register
// Streams an xlsx purchase register of completed invoices.
func (h *InvoiceHandler) ExportRegister(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	invoices, records, err := h.invoiceService.CompletedRecords(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := xlsxexport.WriteRegister(&buf, invoices, records); err != nil {
		HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", xlsxexport.BuildFilename()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
