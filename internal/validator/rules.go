package validator

import (
	"context"
	"fmt"
	"math"
	"time"
)

const mathTolerance = 1.00

// builtinValidator adapts a plain function to Validator.
type builtinValidator struct {
	key string
	sev Severity
	fn  func(context.Context, Target) []Result
}

func (v *builtinValidator) RuleKey() string    { return v.key }
func (v *builtinValidator) Severity() Severity { return v.sev }

func (v *builtinValidator) Validate(ctx context.Context, t Target) []Result {
	return v.fn(ctx, t)
}

// BuiltinValidators returns the arithmetic, date and completeness checks.
func BuiltinValidators() []Validator {
	return []Validator{
		&builtinValidator{key: "required.provider", sev: SeverityWarning, fn: requiredProvider},
		&builtinValidator{key: "required.total", sev: SeverityWarning, fn: requiredTotal},
		&builtinValidator{key: "required.issue_date", sev: SeverityWarning, fn: requiredIssueDate},
		&builtinValidator{key: "math.totals", sev: SeverityError, fn: mathTotals},
		&builtinValidator{key: "math.items_subtotal", sev: SeverityWarning, fn: mathItemsSubtotal},
		&builtinValidator{key: "math.item_subtotal", sev: SeverityWarning, fn: mathItemSubtotal},
		&builtinValidator{key: "logic.due_after_issue", sev: SeverityError, fn: dueAfterIssue},
		&builtinValidator{key: "logic.issue_not_future", sev: SeverityWarning, fn: issueNotFuture(time.Now)},
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= mathTolerance
}

func fmtf(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func mathResult(passed bool, fieldPath string, expected, actual float64) Result {
	msg := fieldPath + " matches"
	if !passed {
		msg = fmt.Sprintf("%s mismatch (expected %s, got %s)", fieldPath, fmtf(expected), fmtf(actual))
	}
	return Result{Passed: passed, FieldPath: fieldPath, Expected: fmtf(expected), Actual: fmtf(actual), Message: msg}
}

func present(passed bool, fieldPath string) []Result {
	if passed {
		return []Result{{Passed: true, FieldPath: fieldPath, Message: fieldPath + " is present"}}
	}
	return []Result{{Passed: false, FieldPath: fieldPath, Message: fieldPath + " was not found in the document"}}
}

func requiredProvider(_ context.Context, t Target) []Result {
	return present(t.Data.Provider != nil, "proveedor")
}

func requiredTotal(_ context.Context, t Target) []Result {
	return present(t.Data.TotalAmount != nil, "monto")
}

func requiredIssueDate(_ context.Context, t Target) []Result {
	return present(t.Data.IssueDate != nil, "fecha")
}

// mathTotals checks subtotal + taxes - discounts = total.
func mathTotals(_ context.Context, t Target) []Result {
	d := t.Data
	if d.TotalAmount == nil || d.SubtotalAmount == nil {
		return nil
	}
	expected := *d.SubtotalAmount
	if d.TaxAmount != nil {
		expected += *d.TaxAmount
	}
	if d.DiscountAmount != nil {
		expected -= *d.DiscountAmount
	}
	return []Result{mathResult(approxEqual(expected, *d.TotalAmount), "monto", expected, *d.TotalAmount)}
}

// mathItemsSubtotal checks that the line items add up to the subtotal.
func mathItemsSubtotal(_ context.Context, t Target) []Result {
	d := t.Data
	if d.SubtotalAmount == nil || len(d.Items) == 0 {
		return nil
	}
	var sum float64
	for _, it := range d.Items {
		switch {
		case it.Subtotal != nil:
			sum += *it.Subtotal
		case it.Quantity != nil && it.UnitPrice != nil:
			sum += *it.Quantity * *it.UnitPrice
		default:
			return nil
		}
	}
	return []Result{mathResult(approxEqual(sum, *d.SubtotalAmount), "subtotal", sum, *d.SubtotalAmount)}
}

// mathItemSubtotal checks quantity * unit price on each line that has all three.
func mathItemSubtotal(_ context.Context, t Target) []Result {
	var results []Result
	for i, it := range t.Data.Items {
		if it.Quantity == nil || it.UnitPrice == nil || it.Subtotal == nil {
			continue
		}
		expected := *it.Quantity * *it.UnitPrice
		results = append(results, mathResult(approxEqual(expected, *it.Subtotal),
			fmt.Sprintf("items[%d].subtotal", i), expected, *it.Subtotal))
	}
	return results
}

func parseDay(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	d, err := time.Parse("2006-01-02", *s)
	return d, err == nil
}

func dueAfterIssue(_ context.Context, t Target) []Result {
	issue, ok1 := parseDay(t.Data.IssueDate)
	due, ok2 := parseDay(t.Data.DueDate)
	if !ok1 || !ok2 {
		return nil
	}
	r := Result{
		Passed:    !due.Before(issue),
		FieldPath: "fechaVencimiento",
		Expected:  ">= " + *t.Data.IssueDate,
		Actual:    *t.Data.DueDate,
		Message:   "due date is on or after the issue date",
	}
	if !r.Passed {
		r.Message = "due date is before the issue date"
	}
	return []Result{r}
}

func issueNotFuture(now func() time.Time) func(context.Context, Target) []Result {
	return func(_ context.Context, t Target) []Result {
		issue, ok := parseDay(t.Data.IssueDate)
		if !ok {
			return nil
		}
		// One day of slack for time zones.
		limit := now().UTC().AddDate(0, 0, 1)
		r := Result{
			Passed:    !issue.After(limit),
			FieldPath: "fecha",
			Actual:    *t.Data.IssueDate,
			Message:   "issue date is not in the future",
		}
		if !r.Passed {
			r.Message = "issue date is in the future"
		}
		return []Result{r}
	}
}
