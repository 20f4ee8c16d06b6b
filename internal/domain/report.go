package domain

// Level is the three-band qualitative classification derived from Score.
type Level string

const (
	LevelGreen  Level = "GREEN"
	LevelYellow Level = "YELLOW"
	LevelRed    Level = "RED"
)

// Report is the complete validation result for one invoice record. It is a
// value: fully determined by the input record, constructed once per call,
// compared structurally, never mutated.
type Report struct {
	Level  Level     `json:"level"`
	Score  int       `json:"score"`
	Issues []Finding `json:"issues"`
	Meta   Metadata  `json:"meta"`
}

// Metadata is the fallback-filled subset of invoice fields used for display.
// Total and VAT carry the record value untransformed (a number when the
// record supplied one, the empty string when it did not) so rendering can
// apply its own formatting.
type Metadata struct {
	SupplierVAT string `json:"supplierVat"`
	CustomerVAT string `json:"customerVat"`
	Date        string `json:"date"`
	Currency    string `json:"currency"`
	VAT         any    `json:"vat"`
	Total       any    `json:"total"`
}
