package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DuplicateMatch identifies an invoice that shares provider and number with another.
type DuplicateMatch struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// DuplicateInvoiceFinder looks up a user's other invoices with the same
// provider and invoice number.
type DuplicateInvoiceFinder interface {
	FindDuplicates(ctx context.Context, userID, excludeID uuid.UUID, provider, invoiceNumber string) ([]DuplicateMatch, error)
}
