package validator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"facturas/internal/port"
)

// Report is the outcome of every check on one invoice.
type Report struct {
	Status    Status    `json:"status"`
	Errors    int       `json:"errors"`
	Warnings  int       `json:"warnings"`
	Results   []Result  `json:"results"`
	CheckedAt time.Time `json:"checked_at"`
}

// Engine runs the registered validators.
type Engine struct {
	registry *Registry
	now      func() time.Time
}

// NewEngine creates an Engine over registry.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry, now: time.Now}
}

// NewDefaultEngine registers the built-in checks. A nil finder disables
// duplicate detection.
func NewDefaultEngine(finder port.DuplicateInvoiceFinder) *Engine {
	r := NewRegistry()
	for _, v := range BuiltinValidators() {
		r.Register(v)
	}
	if finder != nil {
		r.Register(DuplicateInvoiceValidator(finder))
	}
	return NewEngine(r)
}

// Check runs every validator against t.
func (e *Engine) Check(ctx context.Context, t Target) *Report {
	report := &Report{Status: StatusValid, Results: []Result{}, CheckedAt: e.now().UTC()}
	if t.Data == nil {
		return report
	}

	for _, v := range e.registry.All() {
		for _, r := range v.Validate(ctx, t) {
			r.RuleKey = v.RuleKey()
			r.Severity = v.Severity()
			report.Results = append(report.Results, r)
			if r.Passed {
				continue
			}
			if r.Severity == SeverityError {
				report.Errors++
			} else {
				report.Warnings++
			}
		}
	}

	switch {
	case report.Errors > 0:
		report.Status = StatusInvalid
	case report.Warnings > 0:
		report.Status = StatusWarning
	}
	log.Debug().Str("invoice_id", t.InvoiceID.String()).Str("status", string(report.Status)).
		Int("results", len(report.Results)).Msg("validator.Engine: invoice checked")
	return report
}
