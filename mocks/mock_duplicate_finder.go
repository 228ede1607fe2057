package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/port"
)

// MockDuplicateFinder is a mock implementation of port.DuplicateInvoiceFinder.
type MockDuplicateFinder struct {
	mock.Mock
}

func (m *MockDuplicateFinder) FindDuplicates(ctx context.Context, userID, excludeID uuid.UUID, provider, invoiceNumber string) ([]port.DuplicateMatch, error) {
	args := m.Called(ctx, userID, excludeID, provider, invoiceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.DuplicateMatch), args.Error(1)
}
