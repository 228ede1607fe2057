package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"facturas/internal/port"
)

// MockInvoiceExtractor is a mock implementation of port.InvoiceExtractor.
type MockInvoiceExtractor struct {
	mock.Mock
}

func (m *MockInvoiceExtractor) Extract(ctx context.Context, text string) (*port.ExtractResult, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.ExtractResult), args.Error(1)
}

func (m *MockInvoiceExtractor) Classify(ctx context.Context, text, provider string) string {
	args := m.Called(ctx, text, provider)
	return args.String(0)
}

func (m *MockInvoiceExtractor) CooldownUntil() time.Time {
	args := m.Called()
	return args.Get(0).(time.Time)
}
