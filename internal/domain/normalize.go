package domain

// DefaultCurrency is the display fallback when the record omits a currency.
const DefaultCurrency = "ILS"

// Normalize projects a record into its display metadata. Each tracked field
// falls back to the empty string when absent or nil, except currency which
// falls back to DefaultCurrency. Total and VAT pass through untransformed.
// Never fails.
func Normalize(r Record) Metadata {
	return Metadata{
		SupplierVAT: stringOr(r, FieldSupplierVAT, ""),
		CustomerVAT: stringOr(r, FieldCustomerVAT, ""),
		Date:        stringOr(r, FieldDate, ""),
		Currency:    stringOr(r, FieldCurrency, DefaultCurrency),
		VAT:         valueOr(r, FieldVAT),
		Total:       valueOr(r, FieldTotal),
	}
}

// stringOr returns the field as a string, or fallback when it is absent,
// nil, or not a string.
func stringOr(r Record, key, fallback string) string {
	if s, ok := r.Str(key); ok {
		return s
	}
	return fallback
}

// valueOr returns the raw field value, or the empty string when absent/nil.
func valueOr(r Record, key string) any {
	if v, ok := r[key]; ok && v != nil {
		return v
	}
	return ""
}
