// Package validator runs consistency checks over extracted invoice data.
// Checks never change the data; they report what looks wrong.
package validator

import (
	"context"

	"github.com/google/uuid"

	"facturas/internal/domain"
)

// Severity ranks a failed check.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Status summarizes a report.
type Status string

const (
	StatusValid   Status = "valid"
	StatusWarning Status = "warning"
	StatusInvalid Status = "invalid"
)

// Target is the invoice under check.
type Target struct {
	UserID    uuid.UUID
	InvoiceID uuid.UUID
	Data      *domain.InvoiceData
}

// Result is the outcome of one check on one field.
type Result struct {
	RuleKey   string   `json:"rule_key"`
	Severity  Severity `json:"severity"`
	Passed    bool     `json:"passed"`
	FieldPath string   `json:"field_path"`
	Expected  string   `json:"expected,omitempty"`
	Actual    string   `json:"actual,omitempty"`
	Message   string   `json:"message"`
}

// Validator is a single check. A check whose inputs are missing reports
// nothing rather than passing.
type Validator interface {
	RuleKey() string
	Severity() Severity
	Validate(ctx context.Context, t Target) []Result
}

// Registry holds validators in registration order.
type Registry struct {
	order      []string
	validators map[string]Validator
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Validator)}
}

// Register adds v, replacing any validator with the same key.
func (r *Registry) Register(v Validator) {
	if _, ok := r.validators[v.RuleKey()]; !ok {
		r.order = append(r.order, v.RuleKey())
	}
	r.validators[v.RuleKey()] = v
}

// Get returns the validator for key, or nil.
func (r *Registry) Get(key string) Validator {
	return r.validators[key]
}

// All returns every validator in registration order.
func (r *Registry) All() []Validator {
	out := make([]Validator, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.validators[k])
	}
	return out
}
