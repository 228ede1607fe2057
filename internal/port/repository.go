package port

import (
	"context"

	"github.com/google/uuid"

	"facturas/internal/domain"
)

// UserRepository defines the contract for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
}

// InvoiceFilter narrows invoice listings. Zero values mean "no filter".
// Dates are YYYY-MM-DD and bound the issue date inclusively.
type InvoiceFilter struct {
	Search    string
	Status    domain.InvoiceStatus
	DateFrom  string
	DateTo    string
	AmountMin *float64
	AmountMax *float64
	Category  string
	Provider  string
}

// InvoiceRepository defines the contract for invoice persistence.
// Every read and write is scoped to the owning user.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	CreateBatch(ctx context.Context, invoices []domain.Invoice) error
	GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*domain.Invoice, error)
	List(ctx context.Context, userID uuid.UUID, filter InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error)
	ListAll(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]domain.Invoice, error)
	ListFilePaths(ctx context.Context, userID uuid.UUID) ([]string, error)
	ListDueBetween(ctx context.Context, userID uuid.UUID, from, to string) ([]domain.Invoice, error)
	UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, status domain.InvoiceStatus) error
	// MarkProcessing moves an invoice into processing unless it already is.
	// Returns domain.ErrInvoiceBusy when another run holds it.
	MarkProcessing(ctx context.Context, userID, invoiceID uuid.UUID) error
	SaveExtraction(ctx context.Context, userID, invoiceID uuid.UUID, text string, data domain.InvoiceData) error
	MarkError(ctx context.Context, userID, invoiceID uuid.UUID, message string) error
	// Requeue puts an invoice back to uploaded so the queue worker retries it.
	Requeue(ctx context.Context, userID, invoiceID uuid.UUID, message string) error
	UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, data domain.InvoiceData) error
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error
	// ClaimUploaded atomically moves up to limit uploaded invoices to
	// processing and returns them.
	ClaimUploaded(ctx context.Context, limit int) ([]domain.Invoice, error)
}
