package service

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"facturas/internal/domain"
	"facturas/internal/money"
	"facturas/internal/port"
)

const (
	topCategoriesLimit = 5
	upcomingDays       = 30

	RangeSixMonths = "6m"
	RangeYear      = "year"
	RangeAll       = "all"
)

// StatsService provides the dashboard and expense evolution figures.
type StatsService interface {
	Dashboard(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error)
	Monthly(ctx context.Context, userID uuid.UUID, rng string) ([]domain.MonthlyExpense, error)
}

type statsService struct {
	statsRepo   port.StatsRepository
	invoiceRepo port.InvoiceRepository
	now         func() time.Time
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository, invoiceRepo port.InvoiceRepository) StatsService {
	return &statsService{statsRepo: statsRepo, invoiceRepo: invoiceRepo, now: time.Now}
}

func (s *statsService) Dashboard(ctx context.Context, userID uuid.UUID) (*domain.DashboardStats, error) {
	stats, err := s.statsRepo.Totals(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stats.ProcessedFiles > 0 {
		stats.AverageAmount = money.Round2(stats.TotalAmount / float64(stats.ProcessedFiles))
	}

	stats.TopCategories, err = s.statsRepo.TopCategories(ctx, userID, topCategoriesLimit)
	if err != nil {
		return nil, err
	}
	if stats.TopCategories == nil {
		stats.TopCategories = []domain.CategoryTotal{}
	}

	stats.UpcomingDue, err = upcoming(ctx, s.invoiceRepo, userID, s.now(), upcomingDays)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *statsService) Monthly(ctx context.Context, userID uuid.UUID, rng string) ([]domain.MonthlyExpense, error) {
	if rng == "" {
		rng = RangeSixMonths
	}
	if rng != RangeSixMonths && rng != RangeYear && rng != RangeAll {
		return nil, domain.ErrInvalidRange
	}

	months, err := s.statsRepo.MonthlyExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Previous totals come from the preceding bucket, before range filtering.
	for i := range months {
		if i == 0 {
			continue
		}
		prev := months[i-1].Total
		months[i].PrevTotal = prev
		if prev > 0 {
			months[i].ChangePct = money.Round2((months[i].Total - prev) / prev * 100)
		}
	}

	switch rng {
	case RangeSixMonths:
		if len(months) > 6 {
			months = months[len(months)-6:]
		}
	case RangeYear:
		year := strconv.Itoa(s.now().Year())
		filtered := months[:0]
		for _, m := range months {
			if len(m.Month) >= 4 && m.Month[:4] == year {
				filtered = append(filtered, m)
			}
		}
		months = filtered
	}
	if months == nil {
		months = []domain.MonthlyExpense{}
	}
	return months, nil
}

// upcoming lists processed invoices due between today and today+days.
func upcoming(ctx context.Context, repo port.InvoiceRepository, userID uuid.UUID, now time.Time, days int) ([]domain.UpcomingInvoice, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	from := today.Format("2006-01-02")
	to := today.AddDate(0, 0, days).Format("2006-01-02")

	invoices, err := repo.ListDueBetween(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]domain.UpcomingInvoice, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		if inv.DueDate == nil {
			continue
		}
		due, err := time.Parse("2006-01-02", *inv.DueDate)
		if err != nil {
			continue
		}
		u := domain.UpcomingInvoice{
			ID:       inv.ID,
			DueDate:  *inv.DueDate,
			DaysLeft: int(due.Sub(today).Hours() / 24),
		}
		if inv.Provider != nil {
			u.Provider = *inv.Provider
		}
		if inv.TotalAmount != nil {
			u.Amount = *inv.TotalAmount
		}
		if inv.Currency != nil {
			u.Currency = string(*inv.Currency)
		}
		out = append(out, u)
	}
	return out, nil
}
