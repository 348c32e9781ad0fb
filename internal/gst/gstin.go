package gst

import "regexp"

// 15-char GSTIN layout: 2-digit state code, 5-letter PAN prefix, 4-digit
// PAN serial, 1 letter, 1 entity code, literal Z, 1 check character.
var gstinPattern = regexp.MustCompile(`^\d{2}[A-Z]{5}\d{4}[A-Z][A-Z\d]Z[A-Z\d]$`)

// IsValidGSTIN reports whether s is a structurally valid GSTIN.
// Matching is case-sensitive; callers normalize case at ingestion.
// Malformed input of any kind, including the empty string, yields false.
func IsValidGSTIN(s string) bool {
	if len(s) != 15 {
		return false
	}
	return gstinPattern.MatchString(s)
}
