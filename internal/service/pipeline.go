package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"invoscan/internal/domain"
	"invoscan/internal/gst"
	"invoscan/internal/port"
)

// Pipeline runs the OCR, extraction, and validation stages over one
// invoice PDF. Process never returns an error: every failure is folded
// into a failed ProcessingResult so callers persist a single outcome.
type Pipeline struct {
	ocr       port.OCRClient
	extractor port.InvoiceExtractor
	validator *gst.Validator
}

// NewPipeline creates a processing pipeline.
func NewPipeline(ocr port.OCRClient, ext port.InvoiceExtractor, validator *gst.Validator) *Pipeline {
	if validator == nil {
		validator = gst.NewValidator()
	}
	return &Pipeline{ocr: ocr, extractor: ext, validator: validator}
}

// Process runs the full pipeline: OCR, extraction, validation. A record
// that fails validation still completes; only stage faults fail the run.
func (p *Pipeline) Process(ctx context.Context, pdf []byte, buyerGSTINHint, invoiceID string) *domain.ProcessingResult {
	start := time.Now()

	ocrResult, err := p.ocr.ExtractText(ctx, pdf)
	if err != nil {
		return p.failed(invoiceID, domain.ErrCodeProcessing, err, domain.StagePipeline, start)
	}

	if strings.TrimSpace(ocrResult.FullText) == "" {
		return &domain.ProcessingResult{
			InvoiceID: invoiceID,
			Status:    domain.InvoiceStatusFailed,
			Err: &domain.PipelineError{
				Code:    domain.ErrCodeOCREmpty,
				Message: "OCR returned empty text. The PDF may be unreadable.",
				Details: map[string]string{
					"stage":      domain.StageOCR,
					"confidence": fmt.Sprintf("%g", ocrResult.Confidence),
				},
			},
		}
	}

	rec, err := p.extractor.Extract(ctx, ocrResult, buyerGSTINHint)
	if err != nil {
		return p.failed(invoiceID, domain.ErrCodeProcessing, err, domain.StagePipeline, start)
	}

	passed, validationErrs := p.validator.Validate(rec)
	rec.ValidationPassed = passed
	rec.ValidationErrors = validationErrs

	elapsed := time.Since(start).Milliseconds()
	log.Printf("pipeline: invoice processed id=%s seller=%q validation_passed=%t processing_time_ms=%d",
		invoiceID, rec.SellerName, passed, elapsed)

	return &domain.ProcessingResult{
		InvoiceID:        invoiceID,
		Status:           domain.InvoiceStatusCompleted,
		Record:           rec,
		ProcessingTimeMs: elapsed,
	}
}

// ProcessFromOCRText runs extraction and validation over pre-extracted
// text, skipping the OCR stage.
func (p *Pipeline) ProcessFromOCRText(ctx context.Context, ocrText, buyerGSTINHint, invoiceID string) *domain.ProcessingResult {
	start := time.Now()

	ocrResult := &domain.OCRResult{FullText: ocrText}
	rec, err := p.extractor.Extract(ctx, ocrResult, buyerGSTINHint)
	if err != nil {
		return p.failed(invoiceID, domain.ErrCodeExtraction, err, domain.StageExtraction, start)
	}

	passed, validationErrs := p.validator.Validate(rec)
	rec.ValidationPassed = passed
	rec.ValidationErrors = validationErrs

	return &domain.ProcessingResult{
		InvoiceID:        invoiceID,
		Status:           domain.InvoiceStatusCompleted,
		Record:           rec,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}

func (p *Pipeline) failed(invoiceID, code string, err error, stage string, start time.Time) *domain.ProcessingResult {
	elapsed := time.Since(start).Milliseconds()
	log.Printf("pipeline: invoice processing failed id=%s error=%v error_type=%T", invoiceID, err, err)
	return &domain.ProcessingResult{
		InvoiceID: invoiceID,
		Status:    domain.InvoiceStatusFailed,
		Err: &domain.PipelineError{
			Code:    code,
			Message: err.Error(),
			Details: map[string]string{
				"stage": stage,
				"type":  fmt.Sprintf("%T", err),
			},
		},
		ProcessingTimeMs: elapsed,
	}
}
