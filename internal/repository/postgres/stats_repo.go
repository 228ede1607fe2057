package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturas/internal/domain"
	"facturas/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const totalsQuery = `SELECT
	COUNT(*) AS total_files,
	COUNT(CASE WHEN status = 'processed' THEN 1 END) AS processed_files,
	COUNT(CASE WHEN status IN ('pending', 'uploaded', 'processing') THEN 1 END) AS pending_files,
	COUNT(CASE WHEN status = 'error' THEN 1 END) AS error_files,
	COALESCE(SUM(CASE WHEN status = 'processed' THEN monto END), 0) AS total_amount,
	COALESCE(SUM(CASE WHEN status = 'processed' THEN impuestos END), 0) AS total_taxes,
	COALESCE(SUM(CASE WHEN status = 'processed' THEN descuentos END), 0) AS total_discounts
FROM invoices WHERE user_id = $1`

type totalsRow struct {
	TotalFiles     int     `db:"total_files"`
	ProcessedFiles int     `db:"processed_files"`
	PendingFiles   int     `db:"pending_files"`
	ErrorFiles     int     `db:"error_files"`
	TotalAmount    float64 `db:"total_amount"`
	TotalTaxes     float64 `db:"total_taxes"`
	TotalDiscounts float64 `db:"total_discounts"`
}

func (r *statsRepo) Totals(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	var row totalsRow
	if err := r.db.GetContext(ctx, &row, totalsQuery, userID); err != nil {
		return nil, fmt.Errorf("statsRepo.Totals: %w", err)
	}
	return &domain.DashboardStats{
		TotalFiles:     row.TotalFiles,
		ProcessedFiles: row.ProcessedFiles,
		PendingFiles:   row.PendingFiles,
		ErrorFiles:     row.ErrorFiles,
		TotalAmount:    row.TotalAmount,
		TotalTaxes:     row.TotalTaxes,
		TotalDiscounts: row.TotalDiscounts,
	}, nil
}

const topCategoriesQuery = `SELECT
	COALESCE(NULLIF(categoria, ''), $2) AS category,
	COALESCE(SUM(monto), 0) AS amount,
	COUNT(*) AS count
FROM invoices
WHERE user_id = $1 AND status = 'processed'
GROUP BY 1
ORDER BY count DESC, amount DESC, category
LIMIT $3`

type categoryRow struct {
	Category string  `db:"category"`
	Amount   float64 `db:"amount"`
	Count    int     `db:"count"`
}

func (r *statsRepo) TopCategories(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CategoryTotal, error) {
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, topCategoriesQuery, userID, domain.CategoryUncategorized, limit); err != nil {
		return nil, fmt.Errorf("statsRepo.TopCategories: %w", err)
	}
	out := make([]domain.CategoryTotal, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CategoryTotal(row))
	}
	return out, nil
}

// Months come from the first seven characters of the YYYY-MM-DD issue date.
const monthlyQuery = `WITH per_category AS (
	SELECT
		substr(fecha, 1, 7) AS month,
		COALESCE(NULLIF(categoria, ''), $2) AS category,
		COALESCE(SUM(monto), 0) AS amount,
		COUNT(*) AS n,
		COALESCE(SUM(impuestos), 0) AS taxes,
		COALESCE(SUM(descuentos), 0) AS discounts
	FROM invoices
	WHERE user_id = $1 AND status = 'processed' AND fecha IS NOT NULL AND fecha <> ''
	GROUP BY 1, 2
)
SELECT
	month,
	SUM(amount) AS total,
	SUM(n)::int AS count,
	SUM(taxes) AS taxes,
	SUM(discounts) AS discounts,
	(ARRAY_AGG(category ORDER BY amount DESC, category))[1] AS top_category
FROM per_category
GROUP BY month
ORDER BY month`

type monthlyRow struct {
	Month       string  `db:"month"`
	Total       float64 `db:"total"`
	Count       int     `db:"count"`
	Taxes       float64 `db:"taxes"`
	Discounts   float64 `db:"discounts"`
	TopCategory string  `db:"top_category"`
}

func (r *statsRepo) MonthlyExpenses(ctx context.Context, userID uuid.UUID) ([]domain.MonthlyExpense, error) {
	var rows []monthlyRow
	if err := r.db.SelectContext(ctx, &rows, monthlyQuery, userID, domain.CategoryOther); err != nil {
		return nil, fmt.Errorf("statsRepo.MonthlyExpenses: %w", err)
	}
	out := make([]domain.MonthlyExpense, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.MonthlyExpense{
			Month:       row.Month,
			Total:       row.Total,
			Count:       row.Count,
			Taxes:       row.Taxes,
			Discounts:   row.Discounts,
			TopCategory: row.TopCategory,
		})
	}
	return out, nil
}
