package gst

import (
	"fmt"
	"math"
	"regexp"

	"invoscan/internal/domain"
)

const (
	// SymmetryTolerance bounds the CGST/SGST difference on intra-state
	// invoices. Tax law splits the rate exactly in half, so only float
	// noise is tolerated.
	SymmetryTolerance = 0.01

	// TotalTolerance bounds total and breakup reconciliation differences.
	// Looser than SymmetryTolerance: per-line tax rounding in the source
	// document accumulates.
	TotalTolerance = 0.50
)

var billDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Validator runs tax-consistency checks over an extracted invoice
// record. All checks run unconditionally and accumulate errors; nothing
// short-circuits, so one pass yields the full diagnostic picture.
type Validator struct {
	// TotalTolerance overrides the default reconciliation tolerance.
	// The default assumes INR's two-decimal minor unit.
	TotalTolerance float64
}

// NewValidator returns a Validator with the default tolerances.
func NewValidator() *Validator {
	return &Validator{TotalTolerance: TotalTolerance}
}

// ValidateInvoice runs all checks with default tolerances and returns
// whether the record is consistent plus the ordered error list.
func ValidateInvoice(rec *domain.InvoiceRecord) (bool, []string) {
	return NewValidator().Validate(rec)
}

// Validate checks rec against the GST accounting rules. It never
// faults: inapplicable checks (empty breakup, absent buyer GSTIN)
// simply produce no error.
func (v *Validator) Validate(rec *domain.InvoiceRecord) (bool, []string) {
	errs := []string{}

	errs = append(errs, v.checkRequired(rec)...)
	errs = append(errs, v.checkGSTINs(rec)...)
	errs = append(errs, v.checkBillDate(rec)...)
	errs = append(errs, v.checkTaxRegime(rec)...)
	errs = append(errs, v.checkTotal(rec)...)
	errs = append(errs, v.checkBreakup(rec)...)

	return len(errs) == 0, errs
}

func (v *Validator) checkRequired(rec *domain.InvoiceRecord) []string {
	var errs []string
	if rec.SellerName == "" {
		errs = append(errs, "Missing seller name")
	}
	if rec.SellerGSTIN == "" {
		errs = append(errs, "Missing seller GSTIN")
	}
	if rec.BillNo == "" {
		errs = append(errs, "Missing bill number")
	}
	if rec.BillDate == "" {
		errs = append(errs, "Missing bill date")
	}
	if rec.TotalAmount <= 0 {
		errs = append(errs, "Total amount must be positive")
	}
	return errs
}

// checkGSTINs validates present GSTINs without re-normalizing case:
// normalization is an ingestion concern, so a lowercase GSTIN reaching
// this layer is reported as an error.
func (v *Validator) checkGSTINs(rec *domain.InvoiceRecord) []string {
	var errs []string
	if rec.SellerGSTIN != "" && !IsValidGSTIN(rec.SellerGSTIN) {
		errs = append(errs, fmt.Sprintf("Invalid seller GSTIN format: %s", rec.SellerGSTIN))
	}
	if rec.BuyerGSTIN != "" && !IsValidGSTIN(rec.BuyerGSTIN) {
		errs = append(errs, fmt.Sprintf("Invalid buyer GSTIN format: %s", rec.BuyerGSTIN))
	}
	return errs
}

// checkBillDate re-checks the canonical form even though ingestion
// normalizes it: the record may have been edited after construction.
func (v *Validator) checkBillDate(rec *domain.InvoiceRecord) []string {
	if rec.BillDate != "" && !billDatePattern.MatchString(rec.BillDate) {
		return []string{fmt.Sprintf("Invalid date format: %s, expected YYYY-MM-DD", rec.BillDate)}
	}
	return nil
}

func (v *Validator) checkTaxRegime(rec *domain.InvoiceRecord) []string {
	hasCGSTSGST := rec.TotalCGST > 0 || rec.TotalSGST > 0
	hasIGST := rec.TotalIGST > 0

	var errs []string
	if hasCGSTSGST && hasIGST {
		errs = append(errs, "Cannot have both CGST/SGST and IGST non-zero")
	}
	if hasCGSTSGST && !hasIGST {
		if math.Abs(rec.TotalCGST-rec.TotalSGST) > SymmetryTolerance {
			errs = append(errs, fmt.Sprintf(
				"CGST (%g) and SGST (%g) should be equal for intra-state",
				rec.TotalCGST, rec.TotalSGST))
		}
	}
	return errs
}

func (v *Validator) checkTotal(rec *domain.InvoiceRecord) []string {
	if rec.TotalIGST > 0 {
		calculated := rec.TotalTaxableValue + rec.TotalIGST
		if math.Abs(calculated-rec.TotalAmount) > v.TotalTolerance {
			return []string{fmt.Sprintf(
				"Total mismatch (inter-state): taxable(%g) + igst(%g) = %g, expected %g",
				rec.TotalTaxableValue, rec.TotalIGST, calculated, rec.TotalAmount)}
		}
		return nil
	}

	calculated := rec.TotalTaxableValue + rec.TotalCGST + rec.TotalSGST
	if math.Abs(calculated-rec.TotalAmount) > v.TotalTolerance {
		return []string{fmt.Sprintf(
			"Total mismatch (intra-state): taxable(%g) + cgst(%g) + sgst(%g) = %g, expected %g",
			rec.TotalTaxableValue, rec.TotalCGST, rec.TotalSGST, calculated, rec.TotalAmount)}
	}
	return nil
}

func (v *Validator) checkBreakup(rec *domain.InvoiceRecord) []string {
	if len(rec.TaxBreakup) == 0 {
		return nil
	}

	var errs []string
	var sumTaxable, sumCGST, sumSGST, sumIGST float64
	for i := range rec.TaxBreakup {
		row := &rec.TaxBreakup[i]
		sumTaxable += row.TaxableValue
		sumCGST += row.CGSTAmount
		sumSGST += row.SGSTAmount
		sumIGST += row.IGSTAmount
	}

	if math.Abs(sumTaxable-rec.TotalTaxableValue) > v.TotalTolerance {
		errs = append(errs, fmt.Sprintf(
			"Tax breakup taxable sum (%g) doesn't match total taxable value (%g)",
			sumTaxable, rec.TotalTaxableValue))
	}
	if math.Abs(sumCGST-rec.TotalCGST) > v.TotalTolerance {
		errs = append(errs, fmt.Sprintf(
			"Tax breakup CGST sum (%g) doesn't match total CGST (%g)",
			sumCGST, rec.TotalCGST))
	}
	if math.Abs(sumSGST-rec.TotalSGST) > v.TotalTolerance {
		errs = append(errs, fmt.Sprintf(
			"Tax breakup SGST sum (%g) doesn't match total SGST (%g)",
			sumSGST, rec.TotalSGST))
	}
	if math.Abs(sumIGST-rec.TotalIGST) > v.TotalTolerance {
		errs = append(errs, fmt.Sprintf(
			"Tax breakup IGST sum (%g) doesn't match total IGST (%g)",
			sumIGST, rec.TotalIGST))
	}

	for i := range rec.TaxBreakup {
		row := &rec.TaxBreakup[i]
		expected := row.TaxableValue + row.CGSTAmount + row.SGSTAmount + row.IGSTAmount
		if math.Abs(expected-row.TotalWithTax) > v.TotalTolerance {
			errs = append(errs, fmt.Sprintf(
				"Tax breakup row %d (rate %g%%): calculated total %g != %g",
				i+1, row.Rate, expected, row.TotalWithTax))
		}
	}
	return errs
}
