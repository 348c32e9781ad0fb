package output

import (
	"fmt"
	"strings"

	"invoscan/internal/domain"
)

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
)

// renderTallyXML builds a Tally "Import Data" envelope carrying a
// single purchase voucher. Tally's importer predates XML schemas, so
// the envelope is assembled as text: the party ledger is credited with
// the gross amount, and Purchase plus the input-tax ledgers are
// debited (negative amounts) per rate group. CGST and SGST ledgers are
// named at half the group rate, IGST at the full rate.
func renderTallyXML(rec *domain.InvoiceRecord) string {
	tallyDate := strings.ReplaceAll(rec.BillDate, "-", "")

	var tax strings.Builder
	for _, row := range rec.TaxBreakup {
		if row.CGSTAmount > 0 {
			writeLedgerEntry(&tax, fmt.Sprintf("Input CGST @ %.0f%%", row.Rate/2), row.CGSTAmount)
			writeLedgerEntry(&tax, fmt.Sprintf("Input SGST @ %.0f%%", row.Rate/2), row.SGSTAmount)
		}
		if row.IGSTAmount > 0 {
			writeLedgerEntry(&tax, fmt.Sprintf("Input IGST @ %.0f%%", row.Rate), row.IGSTAmount)
		}
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<ENVELOPE>
    <HEADER>
        <TALLYREQUEST>Import Data</TALLYREQUEST>
    </HEADER>
    <BODY>
        <IMPORTDATA>
            <REQUESTDESC>
                <REPORTNAME>Vouchers</REPORTNAME>
            </REQUESTDESC>
            <REQUESTDATA>
                <TALLYMESSAGE xmlns:UDF="TallyUDF">
                    <VOUCHER VCHTYPE="Purchase" ACTION="Create">
`)
	fmt.Fprintf(&b, "                        <DATE>%s</DATE>\n", tallyDate)
	b.WriteString("                        <VOUCHERTYPENAME>Purchase</VOUCHERTYPENAME>\n")
	fmt.Fprintf(&b, "                        <VOUCHERNUMBER>%s</VOUCHERNUMBER>\n", xmlEscaper.Replace(rec.BillNo))
	fmt.Fprintf(&b, "                        <PARTYLEDGERNAME>%s</PARTYLEDGERNAME>\n", xmlEscaper.Replace(rec.SellerName))
	fmt.Fprintf(&b, "                        <PARTYGSTIN>%s</PARTYGSTIN>\n", xmlEscaper.Replace(rec.SellerGSTIN))
	b.WriteString("                        <ALLLEDGERENTRIES.LIST>\n")
	fmt.Fprintf(&b, "                            <LEDGERNAME>%s</LEDGERNAME>\n", xmlEscaper.Replace(rec.SellerName))
	b.WriteString("                            <GSTCLASS/>\n")
	b.WriteString("                            <ISDEEMEDPOSITIVE>Yes</ISDEEMEDPOSITIVE>\n")
	fmt.Fprintf(&b, "                            <AMOUNT>%.2f</AMOUNT>\n", rec.TotalAmount)
	b.WriteString("                        </ALLLEDGERENTRIES.LIST>\n")
	b.WriteString(tax.String())
	b.WriteString("                        <ALLLEDGERENTRIES.LIST>\n")
	b.WriteString("                            <LEDGERNAME>Purchase</LEDGERNAME>\n")
	b.WriteString("                            <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>\n")
	fmt.Fprintf(&b, "                            <AMOUNT>-%.2f</AMOUNT>\n", rec.TotalTaxableValue)
	b.WriteString("                        </ALLLEDGERENTRIES.LIST>\n")
	b.WriteString(`                    </VOUCHER>
                </TALLYMESSAGE>
            </REQUESTDATA>
        </IMPORTDATA>
    </BODY>
</ENVELOPE>`)
	return b.String()
}

func writeLedgerEntry(b *strings.Builder, ledger string, amount float64) {
	b.WriteString("                        <ALLLEDGERENTRIES.LIST>\n")
	fmt.Fprintf(b, "                            <LEDGERNAME>%s</LEDGERNAME>\n", ledger)
	b.WriteString("                            <ISDEEMEDPOSITIVE>No</ISDEEMEDPOSITIVE>\n")
	fmt.Fprintf(b, "                            <AMOUNT>-%.2f</AMOUNT>\n", amount)
	b.WriteString("                        </ALLLEDGERENTRIES.LIST>\n")
}
