package ses

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/google/uuid"

	"invoscan/internal/domain"
	"invoscan/internal/port"
)

type sesSender struct {
	client      *sesv2.Client
	fromAddress string
	fromName    string
	frontendURL string
}

// NewSESSender creates a new SES-backed EmailSender.
func NewSESSender(region, fromAddress, fromName, frontendURL string) (port.EmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for SES: %w", err)
	}
	client := sesv2.NewFromConfig(cfg)
	return &sesSender{
		client:      client,
		fromAddress: fromAddress,
		fromName:    fromName,
		frontendURL: frontendURL,
	}, nil
}

func (s *sesSender) SendProcessingOutcome(ctx context.Context, toEmail string, invoiceID uuid.UUID, result *domain.ProcessingResult) error {
	invoiceURL := fmt.Sprintf("%s/invoices/%s", s.frontendURL, invoiceID)

	var subject, textBody string
	switch {
	case result.Status == domain.InvoiceStatusCompleted && result.Record != nil:
		subject = fmt.Sprintf("Invoice %s processed", result.Record.BillNo)
		textBody = fmt.Sprintf(
			"Your invoice from %s (bill no. %s) has been processed.\n\nView the extracted data:\n%s\n\nInvoScan",
			result.Record.SellerName, result.Record.BillNo, invoiceURL)
	case result.Err != nil:
		subject = "Invoice processing failed"
		textBody = fmt.Sprintf(
			"We could not process your invoice.\n\nReason: %s\n\nDetails:\n%s\n\nInvoScan",
			result.Err.Message, invoiceURL)
	default:
		subject = "Invoice processing failed"
		textBody = fmt.Sprintf("We could not process your invoice.\n\nDetails:\n%s\n\nInvoScan", invoiceURL)
	}

	htmlBody := buildOutcomeHTML(subject, invoiceURL)
	from := fmt.Sprintf("%s <%s>", s.fromName, s.fromAddress)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: &from,
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: &subject},
				Body: &types.Body{
					Html: &types.Content{Data: &htmlBody},
					Text: &types.Content{Data: &textBody},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("SES SendEmail: %w", err)
	}
	return nil
}

func buildOutcomeHTML(heading, invoiceURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">%s</h2>
  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">View Invoice</a>
  </p>
  <p>Or copy and paste this link into your browser:</p>
  <p style="word-break: break-all; color: #666;">%s</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #999; font-size: 12px;">InvoScan - GST Invoice Extraction</p>
</body>
</html>`, heading, invoiceURL, invoiceURL)
}
