package domain

// InvoiceStatus is the processing lifecycle of an uploaded invoice.
// pending → processing → {completed | failed}; terminal states never
// transition again.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "pending"
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusCompleted  InvoiceStatus = "completed"
	InvoiceStatusFailed     InvoiceStatus = "failed"
)

// ValidInvoiceStatuses lists statuses accepted as list filters.
var ValidInvoiceStatuses = map[InvoiceStatus]bool{
	InvoiceStatusPending:    true,
	InvoiceStatusProcessing: true,
	InvoiceStatusCompleted:  true,
	InvoiceStatusFailed:     true,
}

// OutputFormat selects a download rendering of an invoice record.
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatXML  OutputFormat = "xml"
	FormatCSV  OutputFormat = "csv"
)

// ContentTypes maps output formats to their MIME types.
var ContentTypes = map[OutputFormat]string{
	FormatJSON: "application/json",
	FormatXML:  "application/xml",
	FormatCSV:  "text/csv",
}

// Plan is a subscription tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// PlanMonthlyLimits holds the per-plan monthly invoice allowance.
// Plans absent from the map are unlimited.
var PlanMonthlyLimits = map[Plan]int{
	PlanFree: 3,
}

// Pipeline failure codes, recorded on the invoice row when processing
// terminates in the failed state.
const (
	ErrCodeOCREmpty   = "OCR_EMPTY"
	ErrCodeProcessing = "PROCESSING_ERROR"
	ErrCodeExtraction = "EXTRACTION_ERROR"
)

// Pipeline stage names used in failure details.
const (
	StageOCR        = "ocr"
	StageExtraction = "extraction"
	StagePipeline   = "pipeline"
)
