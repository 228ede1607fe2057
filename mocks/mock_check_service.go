package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/validator"
)

// MockCheckService is a mock implementation of service.CheckService.
type MockCheckService struct {
	mock.Mock
}

func (m *MockCheckService) Check(ctx context.Context, userID, invoiceID uuid.UUID) (*validator.Report, error) {
	args := m.Called(ctx, userID, invoiceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*validator.Report), args.Error(1)
}
