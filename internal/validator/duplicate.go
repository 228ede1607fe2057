package validator

import (
	"context"
	"fmt"
	"strings"

	"facturas/internal/port"
)

// DuplicateInvoiceValidator flags other invoices of the same user with the
// same provider and invoice number.
func DuplicateInvoiceValidator(finder port.DuplicateInvoiceFinder) Validator {
	return &builtinValidator{
		key: "logic.duplicate",
		sev: SeverityWarning,
		fn: func(ctx context.Context, t Target) []Result {
			if t.Data.Provider == nil || t.Data.InvoiceNumber == nil {
				return nil
			}
			provider, number := *t.Data.Provider, *t.Data.InvoiceNumber

			matches, err := finder.FindDuplicates(ctx, t.UserID, t.InvoiceID, provider, number)
			if err != nil {
				return []Result{{
					Passed:    true,
					FieldPath: "numeroFactura",
					Message:   "duplicate check unavailable",
				}}
			}
			if len(matches) == 0 {
				return []Result{{
					Passed:    true,
					FieldPath: "numeroFactura",
					Message:   "no duplicate invoices found",
				}}
			}

			names := make([]string, 0, len(matches))
			for _, m := range matches {
				names = append(names, fmt.Sprintf("%q (uploaded %s)", m.Name, m.CreatedAt.Format("2006-01-02")))
			}
			return []Result{{
				Passed:    false,
				FieldPath: "numeroFactura",
				Expected:  "no duplicate invoices",
				Actual:    fmt.Sprintf("%d duplicate(s) found", len(matches)),
				Message: fmt.Sprintf("invoice %s from %s already exists in: %s",
					number, provider, strings.Join(names, ", ")),
			}}
		},
	}
}
