// Package xlsxexport writes a purchase register workbook from
// completed invoices, one row per invoice.
package xlsxexport

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"invoscan/internal/domain"
)

const sheetName = "Purchase Register"

// columns defines the register header row.
var columns = []string{
	"Bill No",
	"Bill Date",
	"Seller Name",
	"Seller GSTIN",
	"Buyer GSTIN",
	"Taxable Value",
	"CGST",
	"SGST",
	"IGST",
	"Quantity",
	"Total Amount",
	"Validation",
	"Uploaded At",
}

// WriteRegister writes the workbook to w. invoices and records are
// parallel slices; both come from the completed-invoice listing.
func WriteRegister(w io.Writer, invoices []domain.Invoice, records []domain.InvoiceRecord) error {
	if len(invoices) != len(records) {
		return fmt.Errorf("xlsxexport: %d invoices but %d records", len(invoices), len(records))
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("xlsxexport: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("xlsxexport: drop default sheet: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("xlsxexport: write header: %w", err)
	}

	for i := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("xlsxexport: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, recordToRow(&invoices[i], &records[i])); err != nil {
			return fmt.Errorf("xlsxexport: write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsxexport: write workbook: %w", err)
	}
	return nil
}

func recordToRow(inv *domain.Invoice, rec *domain.InvoiceRecord) *[]interface{} {
	validation := "passed"
	if !rec.ValidationPassed {
		validation = strconv.Itoa(len(rec.ValidationErrors)) + " error(s)"
	}
	row := []interface{}{
		rec.BillNo,
		rec.BillDate,
		rec.SellerName,
		rec.SellerGSTIN,
		rec.BuyerGSTIN,
		rec.TotalTaxableValue,
		rec.TotalCGST,
		rec.TotalSGST,
		rec.TotalIGST,
		rec.TotalQuantity,
		rec.TotalAmount,
		validation,
		inv.CreatedAt.Format(time.RFC3339),
	}
	return &row
}

// BuildFilename returns the register filename for Content-Disposition.
func BuildFilename() string {
	return fmt.Sprintf("purchase_register_%s.xlsx", time.Now().Format("2006-01-02"))
}
