package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeGSTIN(t *testing.T) {
	assert.Equal(t, "32AAXFB6381L1ZU", NormalizeGSTIN(" 32aaxfb6381l1zu "))
	assert.Equal(t, "", NormalizeGSTIN("   "))
}

func TestNormalizeBillDate(t *testing.T) {
	cases := map[string]string{
		"2025-04-17":  "2025-04-17",
		"17/04/2025":  "2025-04-17",
		"17-04-2025":  "2025-04-17",
		"17.04.2025":  "2025-04-17",
		"5/4/2025":    "2025-04-05",
		" 17/04/2025": "2025-04-17",
		"":            "",
		"17 Apr 2025": "17 Apr 2025", // unrecognized, left for the validator
		"04/17/25":    "04/17/25",    // two-digit year, left for the validator
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBillDate(in), "input %q", in)
	}
}

func TestInvoiceRecord_Normalize(t *testing.T) {
	rec := &InvoiceRecord{
		SellerGSTIN: "32aaxfb6381l1zu",
		BuyerGSTIN:  " 32albpd9642b1zp ",
		BillDate:    "17/04/2025",
	}
	rec.Normalize()

	assert.Equal(t, "32AAXFB6381L1ZU", rec.SellerGSTIN)
	assert.Equal(t, "32ALBPD9642B1ZP", rec.BuyerGSTIN)
	assert.Equal(t, "2025-04-17", rec.BillDate)
}

func TestQuotaStatus_Remaining(t *testing.T) {
	assert.Equal(t, 2, (&QuotaStatus{Used: 1, Limit: 3}).Remaining())
	assert.Equal(t, 0, (&QuotaStatus{Used: 3, Limit: 3}).Remaining())
	assert.Equal(t, 0, (&QuotaStatus{Used: 5, Limit: 3}).Remaining())
	assert.Greater(t, (&QuotaStatus{Unlimited: true}).Remaining(), 1<<30)
}
