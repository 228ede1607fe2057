package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/domain"
	"facturas/internal/service"
)

// MockCalculatorService is a mock implementation of service.CalculatorService.
type MockCalculatorService struct {
	mock.Mock
}

func (m *MockCalculatorService) Compute(input service.CalculatorInput) (*service.CalculatorTotals, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CalculatorTotals), args.Error(1)
}

func (m *MockCalculatorService) Save(ctx context.Context, userID uuid.UUID, input service.CalculatorInput) (*domain.Invoice, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}
