package mocks

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"facturas/internal/port"
)

// MockExportService is a mock implementation of service.ExportService.
// The optional Run hook can write to the writer argument.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, format string, w io.Writer) error {
	args := m.Called(ctx, userID, filter, format, w)
	return args.Error(0)
}
