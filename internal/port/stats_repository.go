package port

import (
	"context"

	"github.com/google/uuid"

	"facturas/internal/domain"
)

// StatsRepository provides aggregate statistics queries over a user's invoices.
type StatsRepository interface {
	// Totals fills the file counts and the amount sums of processed invoices.
	Totals(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
	// TopCategories counts processed invoices per category, most used first.
	TopCategories(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CategoryTotal, error)
	// MonthlyExpenses buckets processed invoices by issue month, oldest first.
	// PrevTotal and ChangePct are left zero.
	MonthlyExpenses(ctx context.Context, userID uuid.UUID) ([]domain.MonthlyExpense, error)
}
