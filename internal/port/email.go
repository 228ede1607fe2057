package port

import (
	"context"

	"facturas/internal/domain"
)

// EmailSender defines the contract for sending emails.
type EmailSender interface {
	SendDueReminder(ctx context.Context, toEmail, toName string, invoices []domain.UpcomingInvoice) error
}
