package domain

// Severity is the ordinal weight of a finding, driving its score penalty.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Finding is one rule-evaluation result describing a specific compliance
// problem. Immutable once produced; message and fix are static per rule code.
type Finding struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Fix      string   `json:"fix"`
}

// Rule codes produced by the builtin battery and the ingestion boundary.
const (
	CodeSupplierVAT         = "SUPPLIER_VAT"
	CodeCustomerVAT         = "CUSTOMER_VAT"
	CodeDate                = "DATE"
	CodeTotal               = "TOTAL"
	CodeVAT                 = "VAT"
	CodeSupplierVATFormat   = "SUPPLIER_VAT_FMT"
	CodeCustomerVATFormat   = "CUSTOMER_VAT_FMT"
	CodeVATMismatch         = "VAT_MISMATCH"
	CodeSubtotalNegative    = "SUBTOTAL_NEG"
	CodeCurrencyUnsupported = "CURRENCY_UNSUPPORTED"
	CodeInvoiceIDWeak       = "INVOICE_ID_WEAK"
	CodeParser              = "PARSER"
)
