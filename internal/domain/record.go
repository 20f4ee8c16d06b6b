// Package domain defines the core types for invoice compliance validation.
package domain

import "encoding/json"

// Record is one invoice as decoded from an external source: a loosely-typed
// key/value map with no enforced shape. Absent or malformed fields are valid
// inputs and degrade the report instead of failing the call.
type Record map[string]any

// Recognized record fields.
const (
	FieldSupplierVAT = "supplierVat"
	FieldCustomerVAT = "customerVat"
	FieldDate        = "date"
	FieldCurrency    = "currency"
	FieldTotal       = "total"
	FieldVAT         = "vat"
	FieldInvoiceID   = "invoiceId"
)

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Str returns the field as a string. ok is false when the field is absent,
// nil, or not a string.
func (r Record) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Num returns the field as a float64, accepting the numeric shapes the
// ingestion layer can produce (float64 from JSON, coerced CSV values,
// json.Number, plain Go ints from constructed fixtures).
func (r Record) Num(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
