package rules

import (
	"fmt"
	"os"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"gopkg.in/yaml.v3"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// ExtensionRule is an operator-defined compliance check expressed as a CEL
// expression over the invoice record. The expression must return bool; true
// means the rule fires and its finding is appended after the builtin
// battery, in load order.
type ExtensionRule struct {
	Code       string          `yaml:"code" json:"code"`
	Severity   domain.Severity `yaml:"severity" json:"severity"`
	Message    string          `yaml:"message" json:"message"`
	Fix        string          `yaml:"fix" json:"fix"`
	Expression string          `yaml:"expression" json:"expression"`
	Enabled    bool            `yaml:"enabled" json:"enabled"`
}

// ExtensionFile is the on-disk YAML layout for extension rules.
type ExtensionFile struct {
	Rules []*ExtensionRule `yaml:"rules"`
}

type compiledExtension struct {
	cfg     *ExtensionRule
	program cel.Program
}

// Finding builds the static finding for this extension rule.
func (x *compiledExtension) Finding() domain.Finding {
	return domain.Finding{
		Code:     x.cfg.Code,
		Severity: x.cfg.Severity,
		Message:  x.cfg.Message,
		Fix:      x.cfg.Fix,
	}
}

// Fired evaluates the rule. A rule that errors at evaluation time is treated
// as not fired: the engine degrades, it never throws.
func (x *compiledExtension) Fired(activation map[string]any) bool {
	out, _, err := x.program.Eval(activation)
	if err != nil {
		return false
	}
	fired, ok := out.(types.Bool)
	return ok && bool(fired)
}

// newExtensionEnv creates the CEL environment for extension expressions.
// Fields are exposed both through the raw record map and as typed
// convenience variables with zero-value fallbacks.
func newExtensionEnv() (*cel.Env, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("supplier_vat", cel.StringType),
		cel.Variable("customer_vat", cel.StringType),
		cel.Variable("invoice_id", cel.StringType),
		cel.Variable("date", cel.StringType),
		cel.Variable("currency", cel.StringType),
		cel.Variable("total", cel.DoubleType),
		cel.Variable("vat", cel.DoubleType),
		cel.Variable("has_total", cel.BoolType),
		cel.Variable("has_vat", cel.BoolType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return env, nil
}

// extensionActivation builds the CEL activation for one record.
func extensionActivation(r domain.Record) map[string]any {
	str := func(key string) string {
		s, _ := r.Str(key)
		return s
	}
	total, hasTotal := r.Num(domain.FieldTotal)
	vat, hasVAT := r.Num(domain.FieldVAT)

	return map[string]any{
		"record":       map[string]any(r),
		"supplier_vat": str(domain.FieldSupplierVAT),
		"customer_vat": str(domain.FieldCustomerVAT),
		"invoice_id":   str(domain.FieldInvoiceID),
		"date":         str(domain.FieldDate),
		"currency":     str(domain.FieldCurrency),
		"total":        total,
		"vat":          vat,
		"has_total":    hasTotal,
		"has_vat":      hasVAT,
	}
}

// ValidateExtension compiles a rule without loading it.
func (e *Engine) ValidateExtension(cfg *ExtensionRule) error {
	_, err := e.compileExtension(cfg)
	return err
}

// LoadExtensions compiles and loads extension rules, replacing any
// previously loaded set. Disabled rules are skipped.
func (e *Engine) LoadExtensions(configs []*ExtensionRule) error {
	compiled := make([]*compiledExtension, 0, len(configs))
	for _, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		ext, err := e.compileExtension(cfg)
		if err != nil {
			return err
		}
		compiled = append(compiled, ext)
	}

	e.mu.Lock()
	e.extensions = compiled
	e.mu.Unlock()

	return nil
}

// LoadExtensionsFile reads a YAML rule file and loads its rules.
func (e *Engine) LoadExtensionsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read extension rules: %w", err)
	}

	var file ExtensionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse extension rules: %w", err)
	}

	return e.LoadExtensions(file.Rules)
}

func (e *Engine) compileExtension(cfg *ExtensionRule) (*compiledExtension, error) {
	if cfg == nil {
		return nil, fmt.Errorf("extension rule is required")
	}
	if cfg.Code == "" {
		return nil, fmt.Errorf("extension rule code is required")
	}
	switch cfg.Severity {
	case domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow:
	default:
		return nil, fmt.Errorf("extension rule %s: unknown severity %q", cfg.Code, cfg.Severity)
	}

	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile extension rule %s: %w", cfg.Code, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("extension rule %s: expression must return bool, got %s", cfg.Code, ast.OutputType())
	}

	program, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for extension rule %s: %w", cfg.Code, err)
	}

	return &compiledExtension{cfg: cfg, program: program}, nil
}
