package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaxBreakupRow is one tax-rate group within an invoice. For any row at
// most one of {CGST+SGST} and {IGST} is non-zero.
type TaxBreakupRow struct {
	Rate         float64 `json:"rate"`
	TaxableValue float64 `json:"taxable_value"`
	CGSTAmount   float64 `json:"cgst_amount"`
	SGSTAmount   float64 `json:"sgst_amount"`
	IGSTAmount   float64 `json:"igst_amount"`
	TotalWithTax float64 `json:"total_with_tax"`
}

// InvoiceRecord is the fully extracted invoice. ValidationPassed and
// ValidationErrors are computed by the tax-consistency validator, never
// supplied by the extraction step.
type InvoiceRecord struct {
	SellerName        string          `json:"seller_name"`
	SellerGSTIN       string          `json:"seller_gstin"`
	BuyerGSTIN        string          `json:"buyer_gstin,omitempty"`
	BillNo            string          `json:"bill_no"`
	BillDate          string          `json:"bill_date"`
	TaxBreakup        []TaxBreakupRow `json:"tax_breakup"`
	TotalTaxableValue float64         `json:"total_taxable_value"`
	TotalCGST         float64         `json:"total_cgst"`
	TotalSGST         float64         `json:"total_sgst"`
	TotalIGST         float64         `json:"total_igst"`
	TotalQuantity     float64         `json:"total_quantity"`
	TotalAmount       float64         `json:"total_amount"`
	ValidationPassed  bool            `json:"validation_passed"`
	ValidationErrors  []string        `json:"validation_errors"`
}

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dmyDatePattern   = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
)

// Normalize canonicalizes a freshly extracted record: GSTINs are
// upper-cased and trimmed (an empty buyer GSTIN stays absent), and the
// bill date is rewritten from DD/MM/YYYY-style forms to YYYY-MM-DD.
// The validator assumes this ran once at ingestion.
func (r *InvoiceRecord) Normalize() {
	r.SellerGSTIN = NormalizeGSTIN(r.SellerGSTIN)
	r.BuyerGSTIN = NormalizeGSTIN(r.BuyerGSTIN)
	r.BillDate = NormalizeBillDate(r.BillDate)
}

// NormalizeGSTIN trims whitespace and upper-cases a GSTIN. Empty input
// stays empty (absent).
func NormalizeGSTIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeBillDate converts DD/MM/YYYY, DD-MM-YYYY, and DD.MM.YYYY to
// YYYY-MM-DD. Dates already in canonical form, and unrecognized forms,
// are returned as-is for the validator to flag.
func NormalizeBillDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || isoDatePattern.MatchString(s) {
		return s
	}
	m := dmyDatePattern.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	day, month, year := m[1], m[2], m[3]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// PipelineError is the machine-readable failure recorded when the
// processing pipeline terminates in the failed state.
type PipelineError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// ProcessingResult is the terminal outcome of one invoice's pipeline run.
// Completed means the pipeline ran to the end; the record inside may
// still carry validation errors.
type ProcessingResult struct {
	InvoiceID        string         `json:"invoice_id,omitempty"`
	Status           InvoiceStatus  `json:"status"`
	Record           *InvoiceRecord `json:"invoice_data,omitempty"`
	Err              *PipelineError `json:"error,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
}

// OCRBlock is one text block recognized on a page.
type OCRBlock struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// OCRTable is a table recognized on a page.
type OCRTable struct {
	Headers [][]string `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// OCRKeyValue is a recognized form field.
type OCRKeyValue struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// OCRResult is the structured output of the OCR collaborator.
type OCRResult struct {
	FullText      string        `json:"full_text"`
	Blocks        []OCRBlock    `json:"blocks"`
	Tables        []OCRTable    `json:"tables"`
	KeyValuePairs []OCRKeyValue `json:"key_value_pairs"`
	Confidence    float64       `json:"confidence"`
}

// Invoice is the persisted invoice row. Record holds the extracted
// InvoiceRecord as JSONB once processing completes.
type Invoice struct {
	ID               uuid.UUID       `db:"id" json:"id"`
	UserID           uuid.UUID       `db:"user_id" json:"user_id"`
	OriginalFilename string          `db:"original_filename" json:"original_filename"`
	FilePath         string          `db:"file_path" json:"file_path"`
	FileHash         string          `db:"file_hash" json:"file_hash"`
	BuyerGSTINHint   string          `db:"buyer_gstin_hint" json:"buyer_gstin_hint,omitempty"`
	Status           InvoiceStatus   `db:"status" json:"status"`
	Record           json.RawMessage `db:"record" json:"record,omitempty"`
	ErrorCode        string          `db:"error_code" json:"error_code,omitempty"`
	ErrorMessage     string          `db:"error_message" json:"error_message,omitempty"`
	ErrorDetails     json.RawMessage `db:"error_details" json:"error_details,omitempty"`
	ProcessingTimeMs int64           `db:"processing_time_ms" json:"processing_time_ms"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
	DeletedAt        *time.Time      `db:"deleted_at" json:"-"`
}

// BuyerPreset is a saved buyer GSTIN a user can pick at upload time.
type BuyerPreset struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	GSTIN     string    `db:"gstin" json:"gstin"`
	BuyerName string    `db:"buyer_name" json:"buyer_name,omitempty"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Subscription tracks a user's plan.
type Subscription struct {
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Plan      Plan       `db:"plan" json:"plan"`
	Status    string     `db:"status" json:"status"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
}

// QuotaStatus reports monthly usage against the plan limit.
type QuotaStatus struct {
	Plan      Plan `json:"plan"`
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
	Allowed   bool `json:"allowed"`
}

// Remaining returns how many uploads the quota still allows this month.
func (q *QuotaStatus) Remaining() int {
	if q.Unlimited {
		return int(^uint(0) >> 1)
	}
	if q.Used >= q.Limit {
		return 0
	}
	return q.Limit - q.Used
}

// User is an authenticated account.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
