package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"facturas/internal/domain"
)

// MockEmailSender is a mock implementation of port.EmailSender.
type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendDueReminder(ctx context.Context, toEmail, toName string, invoices []domain.UpcomingInvoice) error {
	args := m.Called(ctx, toEmail, toName, invoices)
	return args.Error(0)
}
