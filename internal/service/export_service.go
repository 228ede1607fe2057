package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"facturas/internal/domain"
	"facturas/internal/export"
	"facturas/internal/money"
	"facturas/internal/port"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportContentTypes maps export formats to MIME types.
var ExportContentTypes = map[string]string{
	FormatCSV:  "text/csv; charset=utf-8",
	FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ExportService writes filtered invoice listings as spreadsheets.
type ExportService interface {
	Export(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, format string, w io.Writer) error
}

type exportService struct {
	invoiceRepo port.InvoiceRepository
	formatter   *money.Formatter
}

// NewExportService creates a new ExportService implementation.
func NewExportService(invoiceRepo port.InvoiceRepository, locale string) ExportService {
	return &exportService{invoiceRepo: invoiceRepo, formatter: money.NewFormatter(locale)}
}

// NormalizeExportFormat lowercases format and defaults it to csv. Unknown
// formats yield "".
func NormalizeExportFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return FormatCSV
	}
	if _, ok := ExportContentTypes[format]; !ok {
		return ""
	}
	return format
}

func (s *exportService) Export(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, format string, w io.Writer) error {
	format = NormalizeExportFormat(format)
	if format == "" {
		return fmt.Errorf("%w: format must be csv or xlsx", domain.ErrInvalidFilter)
	}

	invoices, err := s.invoiceRepo.ListAll(ctx, userID, filter)
	if err != nil {
		return err
	}
	log.Info().Str("user_id", userID.String()).Str("format", format).Int("rows", len(invoices)).
		Msg("exportService.Export: writing export")

	if format == FormatXLSX {
		return export.WriteXLSX(w, invoices, s.formatter)
	}
	return export.WriteCSV(w, invoices, s.formatter)
}
