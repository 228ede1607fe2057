package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/domain"
	"facturas/internal/port"
	"facturas/internal/service"
)

// MockInvoiceService is a mock implementation of service.InvoiceService.
type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Upload(ctx context.Context, input service.UploadInvoiceInput) (*domain.Invoice, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*service.InvoiceDetail, error) {
	args := m.Called(ctx, userID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvoiceDetail), args.Error(1)
}

func (m *MockInvoiceService) List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	args := m.Called(ctx, userID, filter, offset, limit)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Int(1), args.Error(2)
}

func (m *MockInvoiceService) UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, raw []byte) (*domain.Invoice, error) {
	args := m.Called(ctx, userID, invoiceID, raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	args := m.Called(ctx, userID, invoiceID)
	return args.Error(0)
}

func (m *MockInvoiceService) Sync(ctx context.Context, userID uuid.UUID) (*service.SyncResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SyncResult), args.Error(1)
}

func (m *MockInvoiceService) Process(ctx context.Context, userID, invoiceID uuid.UUID, text string) (*domain.Invoice, error) {
	args := m.Called(ctx, userID, invoiceID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ProcessClaimed(ctx context.Context, inv *domain.Invoice) {
	m.Called(ctx, inv)
}

func (m *MockInvoiceService) ExtractText(ctx context.Context, text string) (*port.ExtractResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractResult), args.Error(1)
}

func (m *MockInvoiceService) CooldownUntil() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}
