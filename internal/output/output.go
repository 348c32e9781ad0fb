// Package output renders a completed invoice record into the download
// formats the API offers: structured JSON, Tally purchase-voucher XML,
// and flat CSV.
package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"invoscan/internal/domain"
)

// Render returns the rendering of rec in the given format. Format
// matching is exact; callers lower-case user input via ParseFormat
// first. An unknown format returns domain.ErrUnsupportedFormat.
func Render(rec *domain.InvoiceRecord, format domain.OutputFormat) (string, error) {
	switch format {
	case domain.FormatJSON:
		return renderJSON(rec)
	case domain.FormatXML:
		return renderTallyXML(rec), nil
	case domain.FormatCSV:
		return renderCSV(rec)
	default:
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
}

// ParseFormat maps a user-supplied format string, case-insensitively,
// to an OutputFormat.
func ParseFormat(s string) (domain.OutputFormat, error) {
	f := domain.OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := domain.ContentTypes[f]; !ok {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, s)
	}
	return f, nil
}

type jsonMetadata struct {
	SellerName  string `json:"seller_name"`
	SellerGSTIN string `json:"seller_gstin"`
	BuyerGSTIN  string `json:"buyer_gstin"`
	BillNo      string `json:"bill_no"`
	BillDate    string `json:"bill_date"`
}

type jsonAmounts struct {
	TotalTaxableValue float64 `json:"total_taxable_value"`
	TotalCGST         float64 `json:"total_cgst"`
	TotalSGST         float64 `json:"total_sgst"`
	TotalIGST         float64 `json:"total_igst"`
	TotalQuantity     float64 `json:"total_quantity"`
	TotalAmount       float64 `json:"total_amount"`
}

type jsonValidation struct {
	Passed bool     `json:"passed"`
	Errors []string `json:"errors"`
}

type jsonEnvelope struct {
	InvoiceMetadata jsonMetadata           `json:"invoice_metadata"`
	Amounts         jsonAmounts            `json:"amounts"`
	TaxBreakup      []domain.TaxBreakupRow `json:"tax_breakup"`
	Validation      jsonValidation         `json:"validation"`
}

// renderJSON groups the record into metadata, amounts, breakup, and
// validation sections for API consumers.
func renderJSON(rec *domain.InvoiceRecord) (string, error) {
	env := jsonEnvelope{
		InvoiceMetadata: jsonMetadata{
			SellerName:  rec.SellerName,
			SellerGSTIN: rec.SellerGSTIN,
			BuyerGSTIN:  rec.BuyerGSTIN,
			BillNo:      rec.BillNo,
			BillDate:    rec.BillDate,
		},
		Amounts: jsonAmounts{
			TotalTaxableValue: rec.TotalTaxableValue,
			TotalCGST:         rec.TotalCGST,
			TotalSGST:         rec.TotalSGST,
			TotalIGST:         rec.TotalIGST,
			TotalQuantity:     rec.TotalQuantity,
			TotalAmount:       rec.TotalAmount,
		},
		TaxBreakup: rec.TaxBreakup,
		Validation: jsonValidation{
			Passed: rec.ValidationPassed,
			Errors: rec.ValidationErrors,
		},
	}
	if env.TaxBreakup == nil {
		env.TaxBreakup = []domain.TaxBreakupRow{}
	}
	if env.Validation.Errors == nil {
		env.Validation.Errors = []string{}
	}

	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return "", fmt.Errorf("output: marshal json: %w", err)
	}
	return string(b), nil
}

// renderCSV writes a flat two-section CSV: one invoice row, then a
// tax-breakup table. Numbers use the shortest exact decimal form.
func renderCSV(rec *domain.InvoiceRecord) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	rows := [][]string{
		{
			"Bill No", "Bill Date", "Seller Name", "Seller GSTIN",
			"Buyer GSTIN", "Total Taxable Value", "Total CGST",
			"Total SGST", "Total IGST", "Total Quantity", "Total Amount",
		},
		{
			rec.BillNo,
			rec.BillDate,
			rec.SellerName,
			rec.SellerGSTIN,
			rec.BuyerGSTIN,
			formatNumber(rec.TotalTaxableValue),
			formatNumber(rec.TotalCGST),
			formatNumber(rec.TotalSGST),
			formatNumber(rec.TotalIGST),
			formatNumber(rec.TotalQuantity),
			formatNumber(rec.TotalAmount),
		},
		{},
		{"Tax Breakup"},
		{"Rate %", "Taxable Value", "CGST", "SGST", "IGST", "Total with Tax"},
	}
	for _, row := range rec.TaxBreakup {
		rows = append(rows, []string{
			formatNumber(row.Rate),
			formatNumber(row.TaxableValue),
			formatNumber(row.CGSTAmount),
			formatNumber(row.SGSTAmount),
			formatNumber(row.IGSTAmount),
			formatNumber(row.TotalWithTax),
		})
	}

	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("output: write csv: %w", err)
	}
	return buf.String(), nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
