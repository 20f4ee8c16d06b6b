// Package ingest decodes raw invoice files into records and shields the rule
// engine from malformed input: a decode failure becomes a degenerate report,
// never an invocation of the engine.
package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// numericValue matches CSV cell values that should be coerced to numbers.
var numericValue = regexp.MustCompile(`^\d+(\.\d+)?$`)

// amountFields are the record fields whose CSV values are coerced to
// numbers. Identifier-like fields (VAT numbers, invoice ids) stay strings
// even when they look numeric.
var amountFields = map[string]bool{
	domain.FieldTotal: true,
	domain.FieldVAT:   true,
}

// DecodeJSON decodes a structured invoice object.
func DecodeJSON(data []byte) (domain.Record, error) {
	var rec domain.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("invalid JSON: expected an object")
	}
	return rec, nil
}

// DecodeCSV decodes a single-row tabular invoice: the first line names the
// fields, the second supplies the values. Amount fields matching the numeric
// pattern are coerced to float64; everything else stays a string.
func DecodeCSV(data []byte) (domain.Record, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	rows := make([][]string, 0, 2)
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		cells := strings.Split(line, ",")
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
		rows = append(rows, cells)
	}

	if len(rows) < 2 {
		return nil, fmt.Errorf("invalid CSV: expected a header line and a data line")
	}

	header, values := rows[0], rows[1]
	rec := make(domain.Record, len(header))
	for i, name := range header {
		if name == "" || i >= len(values) {
			continue
		}
		v := values[i]
		if amountFields[name] && numericValue.MatchString(v) {
			n, err := strconv.ParseFloat(v, 64)
			if err == nil {
				rec[name] = n
				continue
			}
		}
		rec[name] = v
	}

	return rec, nil
}

// Decode dispatches on the file extension. Unsupported types are a decode
// failure, to be converted into a degenerate report by the caller.
func Decode(name string, data []byte) (domain.Record, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return DecodeJSON(data)
	case ".csv":
		return DecodeCSV(data)
	default:
		return nil, fmt.Errorf("unsupported file type %q: expected .json or .csv", filepath.Ext(name))
	}
}

// FailureReport builds the degenerate report for input that could not be
// decoded: RED, score 0, a single HIGH PARSER finding carrying the decoder's
// message. The rule engine is never invoked for such input.
func FailureReport(msg string) *domain.Report {
	return &domain.Report{
		Level: domain.LevelRed,
		Score: 0,
		Issues: []domain.Finding{{
			Code:     domain.CodeParser,
			Severity: domain.SeverityHigh,
			Message:  msg,
			Fix:      "Upload a well-formed JSON or CSV invoice file",
		}},
		Meta: domain.Normalize(domain.Record{}),
	}
}
