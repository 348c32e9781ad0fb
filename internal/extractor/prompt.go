package extractor

import "fmt"

const systemPrompt = "You are a precise invoice data extraction assistant. Always return valid JSON only."

const extractionPromptFormat = `You are an expert invoice data extraction system. Extract the following information from the OCR text of an Indian GST invoice.

OCR TEXT:
%s

BUYER GSTIN HINT (if provided): %s

EXTRACTION REQUIREMENTS:

1. seller_name: Company name at the top of invoice (from header/letterhead)
2. seller_gstin: 15-character GST number (format: ##AAAAA####A#Z#)
3. buyer_gstin: Customer's GST number (look for "To:", "Customer:", "Bill To:", "Buyer")
   - If hint provided above, verify it matches what's on the invoice
   - If not found, return null
4. bill_no: Invoice/Bill number (look for "Bill #", "Invoice No", "Inv. No.", "B2B-", etc.)
5. bill_date: Date in YYYY-MM-DD format (convert from any format like DD/MM/YYYY, DD-Mon-YY, etc.)
6. tax_breakup: Array of tax rate groups. For EACH distinct GST rate on the invoice, create an entry:
   [
     {
       "rate": 18,
       "taxable_value": 3587.04,
       "cgst_amount": 322.83,
       "sgst_amount": 322.83,
       "igst_amount": 0,
       "total_with_tax": 4232.70
     }
   ]
   Note: total_with_tax = taxable_value + cgst_amount + sgst_amount + igst_amount
7. total_taxable_value: Sum of all taxable values (before tax)
8. total_cgst: Total CGST amount
9. total_sgst: Total SGST amount (should equal CGST for intra-state)
10. total_igst: Total IGST amount (for inter-state, mutually exclusive with CGST/SGST)
11. total_quantity: Sum of all item quantities
12. total_amount: Final invoice amount (net amount payable)

VALIDATION RULES (apply these checks):
- Verify: total_taxable_value + total_cgst + total_sgst = total_amount (if intra-state, i.e. IGST=0)
- Verify: total_taxable_value + total_igst = total_amount (if inter-state)
- Verify: total_cgst == total_sgst (for intra-state transactions)
- Never have both (CGST+SGST) and IGST non-zero
- Small rounding differences (<=0.10) are acceptable

Return ONLY valid JSON matching this exact schema. No explanation, no markdown, just the JSON:
{
  "seller_name": "string",
  "seller_gstin": "string",
  "buyer_gstin": "string or null",
  "bill_no": "string",
  "bill_date": "YYYY-MM-DD",
  "tax_breakup": [
    {
      "rate": float,
      "taxable_value": float,
      "cgst_amount": float,
      "sgst_amount": float,
      "igst_amount": float,
      "total_with_tax": float
    }
  ],
  "total_taxable_value": float,
  "total_cgst": float,
  "total_sgst": float,
  "total_igst": float,
  "total_quantity": float,
  "total_amount": float,
  "validation_passed": boolean,
  "validation_errors": ["string"]
}`

// SystemPrompt returns the system message sent with every extraction.
func SystemPrompt() string {
	return systemPrompt
}

// BuildExtractionPrompt renders the extraction instructions around the
// OCR text and optional buyer GSTIN hint.
func BuildExtractionPrompt(ocrFullText, buyerGSTINHint string) string {
	if buyerGSTINHint == "" {
		buyerGSTINHint = "Not provided"
	}
	return fmt.Sprintf(extractionPromptFormat, ocrFullText, buyerGSTINHint)
}
