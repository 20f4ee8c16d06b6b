package ingest

import "github.com/opensource-finance/kestrel/internal/domain"

// SampleCSV is the canonical sample invoice in tabular form, used by the
// smoke-test surfaces. It decodes to the same record SampleRecord returns.
const SampleCSV = `supplierVat,customerVat,total,vat,date,currency,invoiceId
512345679,598765431,1000,170,2025-09-12,ILS,INV-2025-00123
`

// SampleRecord returns the canonical sample invoice: every field populated,
// total 1000, VAT 170.
func SampleRecord() domain.Record {
	return domain.Record{
		domain.FieldSupplierVAT: "512345679",
		domain.FieldCustomerVAT: "598765431",
		domain.FieldInvoiceID:   "INV-2025-00123",
		domain.FieldDate:        "2025-09-12",
		domain.FieldCurrency:    "ILS",
		domain.FieldVAT:         170.0,
		domain.FieldTotal:       1000.0,
	}
}
