package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/domain"
	"facturas/internal/port"
)

// MockInvoiceRepo is a mock implementation of port.InvoiceRepository.
type MockInvoiceRepo struct {
	mock.Mock
}

func (m *MockInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	args := m.Called(ctx, inv)
	return args.Error(0)
}

func (m *MockInvoiceRepo) CreateBatch(ctx context.Context, invoices []domain.Invoice) error {
	args := m.Called(ctx, invoices)
	return args.Error(0)
}

func (m *MockInvoiceRepo) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	args := m.Called(ctx, userID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, userID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceRepo) ListAll(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter) ([]domain.Invoice, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) ListFilePaths(ctx context.Context, userID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockInvoiceRepo) ListDueBetween(ctx context.Context, userID uuid.UUID, from, to string) ([]domain.Invoice, error) {
	args := m.Called(ctx, userID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, status domain.InvoiceStatus) error {
	args := m.Called(ctx, userID, invoiceID, status)
	return args.Error(0)
}

func (m *MockInvoiceRepo) MarkProcessing(ctx context.Context, userID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, userID, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceRepo) SaveExtraction(ctx context.Context, userID, invoiceID uuid.UUID, text string, data domain.InvoiceData) error {
	args := m.Called(ctx, userID, invoiceID, text, data)
	return args.Error(0)
}

func (m *MockInvoiceRepo) MarkError(ctx context.Context, userID, invoiceID uuid.UUID, message string) error {
	args := m.Called(ctx, userID, invoiceID, message)
	return args.Error(0)
}

func (m *MockInvoiceRepo) UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, data domain.InvoiceData) error {
	args := m.Called(ctx, userID, invoiceID, data)
	return args.Error(0)
}

func (m *MockInvoiceRepo) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, userID, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceRepo) ClaimUploaded(ctx context.Context, limit int) ([]domain.Invoice, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Invoice), args.Error(1)
}

func (m *MockInvoiceRepo) Requeue(ctx context.Context, userID, invoiceID uuid.UUID, message string) error {
	args := m.Called(ctx, userID, invoiceID, message)
	return args.Error(0)
}
