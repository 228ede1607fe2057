package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturas/internal/port"
)

type duplicateFinderRepo struct {
	db *sqlx.DB
}

// NewDuplicateFinderRepo creates a new PostgreSQL-backed DuplicateInvoiceFinder.
func NewDuplicateFinderRepo(db *sqlx.DB) port.DuplicateInvoiceFinder {
	return &duplicateFinderRepo{db: db}
}

// FindDuplicates compares provider names case-insensitively and ignores
// surrounding whitespace in invoice numbers.
func (r *duplicateFinderRepo) FindDuplicates(
	ctx context.Context,
	userID, excludeID uuid.UUID,
	provider, invoiceNumber string,
) ([]port.DuplicateMatch, error) {
	var matches []port.DuplicateMatch
	err := r.db.SelectContext(ctx, &matches, `
		SELECT id, name, created_at
		FROM invoices
		WHERE user_id = $1
		  AND id != $2
		  AND status = 'processed'
		  AND lower(proveedor) = lower($3)
		  AND btrim(numero_factura) = btrim($4)
		ORDER BY created_at DESC
		LIMIT 5`,
		userID, excludeID, provider, invoiceNumber,
	)
	if err != nil {
		return nil, fmt.Errorf("duplicateFinderRepo.FindDuplicates: %w", err)
	}
	return matches, nil
}
