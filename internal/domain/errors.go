package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserInactive        = errors.New("user is inactive")
	ErrUnsupportedFileType = errors.New("only PDF files are allowed")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrInvalidPDF          = errors.New("invalid PDF file")
	ErrUnsupportedFormat   = errors.New("unsupported output format")
	ErrInvoiceNotReady     = errors.New("invoice has not completed processing")
	ErrQuotaExceeded       = errors.New("monthly invoice limit reached")
	ErrInvalidGSTIN        = errors.New("invalid GSTIN format")
	ErrDuplicateBuyer      = errors.New("buyer GSTIN already saved")
	ErrInvalidFilter       = errors.New("invalid list filter")
	ErrBatchTooLarge       = errors.New("too many files in batch")
	ErrEmptyBatch          = errors.New("no files provided")
	ErrUploadFailed        = errors.New("file upload to storage failed")
)
