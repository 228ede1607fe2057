package service

import (
	"context"

	"github.com/google/uuid"

	"facturas/internal/port"
	"facturas/internal/validator"
)

// CheckService runs consistency checks on a stored invoice.
type CheckService interface {
	Check(ctx context.Context, userID, invoiceID uuid.UUID) (*validator.Report, error)
}

type checkService struct {
	invoiceRepo port.InvoiceRepository
	engine      *validator.Engine
}

// NewCheckService creates a new CheckService implementation.
func NewCheckService(invoiceRepo port.InvoiceRepository, engine *validator.Engine) CheckService {
	return &checkService{invoiceRepo: invoiceRepo, engine: engine}
}

func (s *checkService) Check(ctx context.Context, userID, invoiceID uuid.UUID) (*validator.Report, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.engine.Check(ctx, validator.Target{
		UserID:    userID,
		InvoiceID: invoiceID,
		Data:      &inv.InvoiceData,
	}), nil
}
