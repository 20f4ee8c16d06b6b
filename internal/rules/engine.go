// Package rules implements the invoice compliance rule engine: a fixed,
// ordered battery of builtin checks plus optional CEL extension rules.
package rules

import (
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Engine evaluates the rule battery against invoice records. Evaluation is
// pure and stateless per call; the mutex only guards extension hot-loading.
type Engine struct {
	mu         sync.RWMutex
	battery    []Check
	extensions []*compiledExtension
	env        *cel.Env
}

// NewEngine creates an engine with the builtin battery loaded and a CEL
// environment ready for extension rules.
func NewEngine() (*Engine, error) {
	env, err := newExtensionEnv()
	if err != nil {
		return nil, err
	}

	return &Engine{
		battery: battery(),
		env:     env,
	}, nil
}

// Evaluate runs every check against the raw record, in battery order, then
// any loaded extension rules in load order. Each check contributes at most
// one finding; checks whose precondition is unmet are skipped; checks never
// short-circuit one another. Never fails: malformed fields skip checks
// rather than erroring.
func (e *Engine) Evaluate(r domain.Record) []domain.Finding {
	e.mu.RLock()
	extensions := e.extensions
	e.mu.RUnlock()

	findings := make([]domain.Finding, 0, 4)

	for _, c := range e.battery {
		if c.Applies != nil && !c.Applies(r) {
			continue
		}
		if c.Failed(r) {
			findings = append(findings, c.Finding())
		}
	}

	if len(extensions) > 0 {
		activation := extensionActivation(r)
		for _, ext := range extensions {
			if ext.Fired(activation) {
				findings = append(findings, ext.Finding())
			}
		}
	}

	return findings
}

// CheckInfo describes one loaded check for listing surfaces.
type CheckInfo struct {
	Code     string          `json:"code"`
	Severity domain.Severity `json:"severity"`
	Message  string          `json:"message"`
	Fix      string          `json:"fix"`
	Builtin  bool            `json:"builtin"`
}

// Checks returns the loaded checks, builtin first, in evaluation order.
func (e *Engine) Checks() []CheckInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	infos := make([]CheckInfo, 0, len(e.battery)+len(e.extensions))
	for _, c := range e.battery {
		infos = append(infos, CheckInfo{
			Code:     c.Code,
			Severity: c.Severity,
			Message:  c.Message,
			Fix:      c.Fix,
			Builtin:  true,
		})
	}
	for _, ext := range e.extensions {
		infos = append(infos, CheckInfo{
			Code:     ext.cfg.Code,
			Severity: ext.cfg.Severity,
			Message:  ext.cfg.Message,
			Fix:      ext.cfg.Fix,
		})
	}
	return infos
}

// BatteryLen returns the number of builtin checks.
func (e *Engine) BatteryLen() int {
	return len(e.battery)
}

// ExtensionCount returns the number of loaded extension rules.
func (e *Engine) ExtensionCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.extensions)
}
