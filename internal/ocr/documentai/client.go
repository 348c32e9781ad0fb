// Package documentai calls the Google Document AI REST API to OCR an
// invoice PDF into text, tables, and form fields.
package documentai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"invoscan/internal/config"
	"invoscan/internal/domain"
)

const apiURLFormat = "https://documentai.googleapis.com/v1/projects/%s/locations/%s/processors/%s:process"

// Client implements port.OCRClient against the Document AI processor
// REST endpoint.
type Client struct {
	endpoint    string
	accessToken string
	client      *http.Client
}

// NewClient creates an OCR client from configuration.
func NewClient(cfg *config.OCRConfig) *Client {
	endpoint := fmt.Sprintf(apiURLFormat, cfg.ProjectID, cfg.Location, cfg.ProcessorID)
	return newClient(cfg, endpoint)
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.OCRConfig, endpoint string) *Client {
	return newClient(cfg, endpoint)
}

func newClient(cfg *config.OCRConfig, endpoint string) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint:    endpoint,
		accessToken: cfg.AccessToken,
		client:      &http.Client{Timeout: timeout},
	}
}

// ExtractText sends the PDF through the processor and flattens the
// returned document into an OCRResult.
func (c *Client) ExtractText(ctx context.Context, pdf []byte) (*domain.OCRResult, error) {
	reqBody := map[string]interface{}{
		"rawDocument": map[string]interface{}{
			"content":  base64.StdEncoding.EncodeToString(pdf),
			"mimeType": "application/pdf",
		},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling document AI API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("document AI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return parseProcessResponse(respBody)
}

// Wire types for the processor response. Only the fields the flattener
// reads are modeled.
type processResponse struct {
	Document struct {
		Text  string `json:"text"`
		Pages []struct {
			Blocks []struct {
				Layout layout `json:"layout"`
			} `json:"blocks"`
			Tables []struct {
				HeaderRows []tableRow `json:"headerRows"`
				BodyRows   []tableRow `json:"bodyRows"`
			} `json:"tables"`
			FormFields []struct {
				FieldName  layout `json:"fieldName"`
				FieldValue layout `json:"fieldValue"`
			} `json:"formFields"`
		} `json:"pages"`
	} `json:"document"`
}

type tableRow struct {
	Cells []struct {
		Layout layout `json:"layout"`
	} `json:"cells"`
}

type layout struct {
	TextAnchor struct {
		TextSegments []struct {
			StartIndex string `json:"startIndex"`
			EndIndex   string `json:"endIndex"`
		} `json:"textSegments"`
	} `json:"textAnchor"`
	Confidence float64 `json:"confidence"`
}

func parseProcessResponse(body []byte) (*domain.OCRResult, error) {
	var resp processResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	doc := resp.Document
	result := &domain.OCRResult{FullText: doc.Text}

	var confidenceSum float64
	var confidenceN int
	for _, page := range doc.Pages {
		for _, block := range page.Blocks {
			result.Blocks = append(result.Blocks, domain.OCRBlock{
				Text:       anchorText(block.Layout, doc.Text),
				Confidence: block.Layout.Confidence,
			})
			if block.Layout.Confidence > 0 {
				confidenceSum += block.Layout.Confidence
				confidenceN++
			}
		}
		for _, table := range page.Tables {
			t := domain.OCRTable{}
			for _, row := range table.HeaderRows {
				t.Headers = append(t.Headers, rowCells(row, doc.Text))
			}
			for _, row := range table.BodyRows {
				t.Rows = append(t.Rows, rowCells(row, doc.Text))
			}
			result.Tables = append(result.Tables, t)
		}
		for _, field := range page.FormFields {
			result.KeyValuePairs = append(result.KeyValuePairs, domain.OCRKeyValue{
				Key:        strings.TrimSpace(anchorText(field.FieldName, doc.Text)),
				Value:      strings.TrimSpace(anchorText(field.FieldValue, doc.Text)),
				Confidence: field.FieldName.Confidence,
			})
		}
	}
	if confidenceN > 0 {
		result.Confidence = confidenceSum / float64(confidenceN)
	}

	return result, nil
}

func rowCells(row tableRow, fullText string) []string {
	cells := make([]string, 0, len(row.Cells))
	for _, cell := range row.Cells {
		cells = append(cells, strings.TrimSpace(anchorText(cell.Layout, fullText)))
	}
	return cells
}

// anchorText resolves a layout's text anchor segments against the
// document's full text. Segment indexes arrive as decimal strings.
func anchorText(l layout, fullText string) string {
	var b strings.Builder
	for _, seg := range l.TextAnchor.TextSegments {
		start := parseIndex(seg.StartIndex)
		end := parseIndex(seg.EndIndex)
		if start < 0 || end > len(fullText) || start >= end {
			continue
		}
		b.WriteString(fullText[start:end])
	}
	return b.String()
}

func parseIndex(s string) int {
	if s == "" {
		return 0
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0
	}
	return n
}
