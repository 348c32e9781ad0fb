package noop

import (
	"context"
	"log"

	"github.com/google/uuid"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

type noopSender struct{}

// NewNoopSender creates a no-op EmailSender that logs outcomes to stdout.
func NewNoopSender() port.EmailSender {
	return &noopSender{}
}

func (s *noopSender) SendProcessingOutcome(_ context.Context, toEmail string, invoiceID uuid.UUID, result *domain.ProcessingResult) error {
	log.Printf("[NOOP EMAIL] Processing outcome for %s: invoice=%s status=%s", toEmail, invoiceID, result.Status)
	return nil
}
