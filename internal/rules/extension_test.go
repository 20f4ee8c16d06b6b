package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func TestLoadExtension(t *testing.T) {
	engine := newTestEngine(t)

	rule := &ExtensionRule{
		Code:       "TOTAL_TOO_HIGH",
		Severity:   domain.SeverityMedium,
		Message:    "Invoice total exceeds the review threshold",
		Fix:        "Split the invoice or request manual review",
		Expression: "has_total && total > 100000.0",
		Enabled:    true,
	}

	if err := engine.LoadExtensions([]*ExtensionRule{rule}); err != nil {
		t.Fatalf("failed to load extension: %v", err)
	}
	if engine.ExtensionCount() != 1 {
		t.Errorf("expected 1 extension, got %d", engine.ExtensionCount())
	}
}

func TestLoadInvalidExtension(t *testing.T) {
	engine := newTestEngine(t)

	t.Run("BadExpression", func(t *testing.T) {
		rule := &ExtensionRule{
			Code:       "BROKEN",
			Severity:   domain.SeverityLow,
			Expression: "this is not valid CEL !!!",
			Enabled:    true,
		}
		if err := engine.LoadExtensions([]*ExtensionRule{rule}); err == nil {
			t.Error("expected error for invalid CEL expression")
		}
	})

	t.Run("NonBoolExpression", func(t *testing.T) {
		rule := &ExtensionRule{
			Code:       "NON_BOOL",
			Severity:   domain.SeverityLow,
			Expression: "total * 2.0",
			Enabled:    true,
		}
		if err := engine.ValidateExtension(rule); err == nil {
			t.Error("expected error for non-bool expression")
		}
	})

	t.Run("UnknownSeverity", func(t *testing.T) {
		rule := &ExtensionRule{
			Code:       "BAD_SEV",
			Severity:   "CRITICAL",
			Expression: "true",
			Enabled:    true,
		}
		if err := engine.ValidateExtension(rule); err == nil {
			t.Error("expected error for unknown severity")
		}
	})
}

func TestExtensionEvaluation(t *testing.T) {
	engine := newTestEngine(t)

	rules := []*ExtensionRule{
		{
			Code:       "TOTAL_TOO_HIGH",
			Severity:   domain.SeverityMedium,
			Message:    "Invoice total exceeds the review threshold",
			Fix:        "Request manual review",
			Expression: "has_total && total > 100000.0",
			Enabled:    true,
		},
		{
			Code:       "FOREIGN_EUR",
			Severity:   domain.SeverityLow,
			Message:    "EUR invoices need a conversion note",
			Fix:        "Attach the exchange rate used",
			Expression: "currency == 'EUR'",
			Enabled:    true,
		},
		{
			Code:       "DISABLED_RULE",
			Severity:   domain.SeverityHigh,
			Expression: "true",
			Enabled:    false,
		},
	}
	if err := engine.LoadExtensions(rules); err != nil {
		t.Fatalf("failed to load extensions: %v", err)
	}
	if engine.ExtensionCount() != 2 {
		t.Fatalf("expected disabled rule to be skipped, got %d extensions", engine.ExtensionCount())
	}

	rec := validRecord()
	rec[domain.FieldTotal] = 250000.0
	rec[domain.FieldVAT] = 36324.79 // 17% of the subtotal, keeps the builtin battery quiet
	rec[domain.FieldCurrency] = "EUR"

	findings := engine.Evaluate(rec)
	codes := findingCodes(findings)

	// Extensions fire after the builtin battery, in load order.
	if len(codes) != 2 {
		t.Fatalf("expected 2 findings, got %v", codes)
	}
	if codes[0] != "TOTAL_TOO_HIGH" || codes[1] != "FOREIGN_EUR" {
		t.Errorf("expected extension findings in load order, got %v", codes)
	}
}

func TestExtensionAfterBuiltins(t *testing.T) {
	engine := newTestEngine(t)

	rule := &ExtensionRule{
		Code:       "ALWAYS",
		Severity:   domain.SeverityLow,
		Message:    "always fires",
		Fix:        "none",
		Expression: "true",
		Enabled:    true,
	}
	if err := engine.LoadExtensions([]*ExtensionRule{rule}); err != nil {
		t.Fatalf("failed to load extension: %v", err)
	}

	codes := findingCodes(engine.Evaluate(domain.Record{}))
	if len(codes) == 0 || codes[len(codes)-1] != "ALWAYS" {
		t.Errorf("expected extension finding last, got %v", codes)
	}
}

func TestLoadExtensionsFile(t *testing.T) {
	engine := newTestEngine(t)

	content := `rules:
  - code: TOTAL_TOO_HIGH
    severity: MEDIUM
    message: Invoice total exceeds the review threshold
    fix: Request manual review
    expression: "has_total && total > 100000.0"
    enabled: true
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write rule file: %v", err)
	}

	if err := engine.LoadExtensionsFile(path); err != nil {
		t.Fatalf("failed to load rule file: %v", err)
	}
	if engine.ExtensionCount() != 1 {
		t.Errorf("expected 1 extension, got %d", engine.ExtensionCount())
	}

	t.Run("MissingFile", func(t *testing.T) {
		if err := engine.LoadExtensionsFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		os.WriteFile(bad, []byte("rules: ["), 0o600)
		if err := engine.LoadExtensionsFile(bad); err == nil {
			t.Error("expected error for malformed YAML")
		}
	})
}
