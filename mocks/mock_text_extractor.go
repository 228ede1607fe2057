package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"facturas/internal/port"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, content []byte, contentType string) (*port.OCRResult, error) {
	args := m.Called(ctx, content, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.OCRResult), args.Error(1)
}
