package rules

import (
	"fmt"
	"math"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Compliance policy constants. Fixed by the validation profile; there is no
// runtime tuning surface for these.
const (
	// VATRate is the applicable VAT rate used for arithmetic consistency.
	VATRate = 0.17

	// VATTolerance is the absolute tolerance, in currency units, allowed
	// between the declared VAT amount and the expected one.
	VATTolerance = 1.0

	// VATNumberDigits is the required length of a VAT registration number.
	VATNumberDigits = 9

	// MinInvoiceIDLen is the minimum length of a usable invoice identifier.
	MinInvoiceIDLen = 3
)

// SupportedCurrencies is the fixed currency allowlist.
var SupportedCurrencies = map[string]bool{
	"ILS": true,
	"USD": true,
	"EUR": true,
}

// Check is one entry of the rule battery: a precondition, a failure
// predicate, and the static finding it produces. Checks are independent and
// never short-circuit one another.
type Check struct {
	Code     string
	Severity domain.Severity
	Message  string
	Fix      string

	// Applies reports whether the check's precondition holds. A check whose
	// precondition does not hold is skipped, never failed. Nil means the
	// check always applies.
	Applies func(domain.Record) bool

	// Failed reports whether the check fires against the record.
	Failed func(domain.Record) bool
}

// Finding builds the static finding for this check.
func (c Check) Finding() domain.Finding {
	return domain.Finding{
		Code:     c.Code,
		Severity: c.Severity,
		Message:  c.Message,
		Fix:      c.Fix,
	}
}

// battery returns the builtin checks in evaluation order. Findings appear in
// the report in exactly this order.
func battery() []Check {
	return []Check{
		{
			Code:     domain.CodeSupplierVAT,
			Severity: domain.SeverityHigh,
			Message:  "Supplier VAT number is missing",
			Fix:      "Add the supplier's VAT registration number to the invoice",
			Failed:   func(r domain.Record) bool { return !hasText(r, domain.FieldSupplierVAT) },
		},
		{
			Code:     domain.CodeCustomerVAT,
			Severity: domain.SeverityMedium,
			Message:  "Customer VAT number is missing",
			Fix:      "Add the customer's VAT registration number to the invoice",
			Failed:   func(r domain.Record) bool { return !hasText(r, domain.FieldCustomerVAT) },
		},
		{
			Code:     domain.CodeDate,
			Severity: domain.SeverityMedium,
			Message:  "Invoice date is missing",
			Fix:      "Add the issue date in ISO format (YYYY-MM-DD)",
			Failed:   func(r domain.Record) bool { return !hasText(r, domain.FieldDate) },
		},
		{
			Code:     domain.CodeTotal,
			Severity: domain.SeverityHigh,
			Message:  "Invoice total is missing",
			Fix:      "Add the gross total amount",
			Failed:   func(r domain.Record) bool { return !r.Has(domain.FieldTotal) },
		},
		{
			Code:     domain.CodeVAT,
			Severity: domain.SeverityMedium,
			Message:  "VAT amount is missing",
			Fix:      "Add the VAT amount",
			Failed:   func(r domain.Record) bool { return !r.Has(domain.FieldVAT) },
		},
		{
			Code:     domain.CodeSupplierVATFormat,
			Severity: domain.SeverityHigh,
			Message:  fmt.Sprintf("Supplier VAT number is not %d digits", VATNumberDigits),
			Fix:      fmt.Sprintf("Use a %d-digit VAT registration number", VATNumberDigits),
			Applies:  func(r domain.Record) bool { return hasText(r, domain.FieldSupplierVAT) },
			Failed:   func(r domain.Record) bool { return !validVATNumber(r, domain.FieldSupplierVAT) },
		},
		{
			Code:     domain.CodeCustomerVATFormat,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("Customer VAT number is not %d digits", VATNumberDigits),
			Fix:      fmt.Sprintf("Use a %d-digit VAT registration number", VATNumberDigits),
			Applies:  func(r domain.Record) bool { return hasText(r, domain.FieldCustomerVAT) },
			Failed:   func(r domain.Record) bool { return !validVATNumber(r, domain.FieldCustomerVAT) },
		},
		{
			Code:     domain.CodeVATMismatch,
			Severity: domain.SeverityMedium,
			Message:  fmt.Sprintf("VAT amount does not match %.0f%% of the subtotal", VATRate*100),
			Fix:      fmt.Sprintf("Recalculate VAT as %.0f%% of (total - vat)", VATRate*100),
			Applies:  amountsPresent,
			Failed: func(r domain.Record) bool {
				total, _ := r.Num(domain.FieldTotal)
				vat, _ := r.Num(domain.FieldVAT)
				expected := Round2((total - vat) * VATRate)
				return math.Abs(expected-vat) > VATTolerance
			},
		},
		{
			Code:     domain.CodeSubtotalNegative,
			Severity: domain.SeverityHigh,
			Message:  "Subtotal (total minus VAT) is not positive",
			Fix:      "Check that the total is greater than the VAT amount",
			Applies:  amountsPresent,
			Failed: func(r domain.Record) bool {
				total, _ := r.Num(domain.FieldTotal)
				vat, _ := r.Num(domain.FieldVAT)
				return total-vat <= 0
			},
		},
		{
			Code:     domain.CodeCurrencyUnsupported,
			Severity: domain.SeverityLow,
			Message:  "Currency is not supported",
			Fix:      "Use one of the supported currencies: ILS, USD, EUR",
			Applies:  func(r domain.Record) bool { return hasText(r, domain.FieldCurrency) },
			Failed: func(r domain.Record) bool {
				cur, _ := r.Str(domain.FieldCurrency)
				return !SupportedCurrencies[cur]
			},
		},
		{
			Code:     domain.CodeInvoiceIDWeak,
			Severity: domain.SeverityLow,
			Message:  "Invoice identifier is too short",
			Fix:      fmt.Sprintf("Use an invoice identifier of at least %d characters", MinInvoiceIDLen),
			Applies:  func(r domain.Record) bool { return hasText(r, domain.FieldInvoiceID) },
			Failed: func(r domain.Record) bool {
				id, _ := r.Str(domain.FieldInvoiceID)
				return len(id) < MinInvoiceIDLen
			},
		},
	}
}

// hasText reports whether the field holds a non-empty string.
func hasText(r domain.Record, key string) bool {
	s, ok := r.Str(key)
	return ok && s != ""
}

// validVATNumber reports whether the field is exactly VATNumberDigits ASCII
// decimal digits.
func validVATNumber(r domain.Record, key string) bool {
	s, ok := r.Str(key)
	if !ok || len(s) != VATNumberDigits {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// amountsPresent is the shared precondition of the arithmetic checks: both
// total and vat must be numeric.
func amountsPresent(r domain.Record) bool {
	_, okTotal := r.Num(domain.FieldTotal)
	_, okVAT := r.Num(domain.FieldVAT)
	return okTotal && okVAT
}

// Round2 rounds to two decimal places, half away from zero: scale by 100,
// round to the nearest integer, scale back. Keeps the tolerance comparison
// reproducible across platforms.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
