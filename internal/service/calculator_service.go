package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"facturas/internal/config"
	"facturas/internal/domain"
	"facturas/internal/money"
	"facturas/internal/port"
)

const (
	defaultTaxRate       = 0.16
	manualPaymentMethod  = "Por definir"
	calculatorFileSuffix = "calculator.pdf"
)

// CalculatorItem is one line entered in the calculator.
type CalculatorItem struct {
	Description string  `json:"descripcion"`
	Quantity    float64 `json:"cantidad"`
	UnitPrice   float64 `json:"precioUnitario"`
}

// CalculatorInput is the DTO for calculator requests. A nil TaxRate means 16%.
type CalculatorInput struct {
	Provider string           `json:"proveedor"`
	Currency string           `json:"moneda"`
	TaxRate  *float64         `json:"tasaImpuesto"`
	Items    []CalculatorItem `json:"items"`
}

// CalculatorTotals is the computed breakdown.
type CalculatorTotals struct {
	Items    domain.InvoiceItems `json:"items"`
	Subtotal float64             `json:"subtotal"`
	TaxRate  float64             `json:"tasaImpuesto"`
	Taxes    float64             `json:"impuestos"`
	Total    float64             `json:"total"`
	Currency domain.Currency     `json:"moneda"`
}

// CalculatorService builds manual invoices from line items.
type CalculatorService interface {
	Compute(input CalculatorInput) (*CalculatorTotals, error)
	Save(ctx context.Context, userID uuid.UUID, input CalculatorInput) (*domain.Invoice, error)
}

type calculatorService struct {
	invoiceRepo port.InvoiceRepository
	storage     port.ObjectStorage
	cfg         *config.S3Config
	formatter   *money.Formatter
	now         func() time.Time
}

// NewCalculatorService creates a new CalculatorService implementation.
func NewCalculatorService(
	invoiceRepo port.InvoiceRepository,
	storage port.ObjectStorage,
	cfg *config.S3Config,
	locale string,
) CalculatorService {
	return &calculatorService{
		invoiceRepo: invoiceRepo,
		storage:     storage,
		cfg:         cfg,
		formatter:   money.NewFormatter(locale),
		now:         time.Now,
	}
}

func (s *calculatorService) Compute(input CalculatorInput) (*CalculatorTotals, error) {
	rate := defaultTaxRate
	if input.TaxRate != nil {
		rate = *input.TaxRate
	}
	if rate < 0 || rate > 1 {
		return nil, domain.ErrInvalidTaxRate
	}

	cur := domain.CurrencyMXN
	if c := strings.ToUpper(strings.TrimSpace(input.Currency)); c != "" {
		cur = domain.Currency(c)
		if !cur.Valid() {
			return nil, domain.ErrInvalidCurrency
		}
	}

	subtotal := decimal.Zero
	items := make(domain.InvoiceItems, 0, len(input.Items))
	for _, it := range input.Items {
		if it.Quantity < 0 || it.UnitPrice < 0 {
			return nil, fmt.Errorf("%w: quantity and unit price must not be negative", domain.ErrInvalidInvoiceData)
		}
		line := decimal.NewFromFloat(it.Quantity).Mul(decimal.NewFromFloat(it.UnitPrice))
		subtotal = subtotal.Add(line)

		qty, price := it.Quantity, it.UnitPrice
		lineTotal := line.Round(2).InexactFloat64()
		items = append(items, domain.InvoiceItem{
			Description: strings.TrimSpace(it.Description),
			Quantity:    &qty,
			UnitPrice:   &price,
			Subtotal:    &lineTotal,
		})
	}

	taxes := subtotal.Mul(decimal.NewFromFloat(rate))
	total := subtotal.Add(taxes)

	return &CalculatorTotals{
		Items:    items,
		Subtotal: subtotal.Round(2).InexactFloat64(),
		TaxRate:  rate,
		Taxes:    taxes.Round(2).InexactFloat64(),
		Total:    total.Round(2).InexactFloat64(),
		Currency: cur,
	}, nil
}

func (s *calculatorService) Save(ctx context.Context, userID uuid.UUID, input CalculatorInput) (*domain.Invoice, error) {
	provider := strings.Join(strings.Fields(input.Provider), " ")
	if provider == "" {
		return nil, domain.ErrProviderRequired
	}
	if len(input.Items) == 0 {
		return nil, domain.ErrNoItems
	}
	totals, err := s.Compute(input)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	today := now.Format("2006-01-02")

	pdfBytes, err := s.renderPDF(provider, today, totals)
	if err != nil {
		return nil, fmt.Errorf("rendering calculator pdf: %w", err)
	}

	key := fmt.Sprintf("%s/manual/%d_%s", userID, now.UnixMilli(), calculatorFileSuffix)
	_, err = s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		Body:        bytes.NewReader(pdfBytes),
		ContentType: domain.AllowedFileTypes[domain.FileTypePDF],
		Size:        int64(len(pdfBytes)),
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("calculatorService.Save: storage upload failed")
		return nil, domain.ErrUploadFailed
	}

	category := domain.CategoryManual
	method := manualPaymentMethod
	cur := totals.Currency
	subtotal, taxes, total := totals.Subtotal, totals.Taxes, totals.Total

	inv := &domain.Invoice{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        calculatorFileSuffix,
		FilePath:    key,
		ContentType: domain.AllowedFileTypes[domain.FileTypePDF],
		FileSize:    int64(len(pdfBytes)),
		Status:      domain.InvoiceStatusProcessed,
		ProcessedAt: &now,
		InvoiceData: domain.InvoiceData{
			Provider:       &provider,
			IssueDate:      &today,
			TotalAmount:    &total,
			Category:       &category,
			Currency:       &cur,
			TaxAmount:      &taxes,
			SubtotalAmount: &subtotal,
			PaymentMethod:  &method,
			Items:          totals.Items,
		},
	}
	if err := s.invoiceRepo.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("creating manual invoice: %w", err)
	}
	log.Info().Str("invoice_id", inv.ID.String()).Float64("total", total).Msg("calculatorService.Save: manual invoice stored")
	return inv, nil
}

func (s *calculatorService) renderPDF(provider, date string, t *CalculatorTotals) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	cur := string(t.Currency)

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr("Factura manual"))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr("Proveedor: "+provider))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr("Fecha: "+date))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 8, tr("Descripción"), "1", 0, "L", false, 0, "")
	pdf.CellFormat(25, 8, "Cantidad", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Precio", "1", 0, "R", false, 0, "")
	pdf.CellFormat(40, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, it := range t.Items {
		pdf.CellFormat(90, 7, tr(it.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 7, decimal.NewFromFloat(deref(it.Quantity)).String(), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 7, s.formatter.Format(deref(it.UnitPrice), cur), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, s.formatter.Format(deref(it.Subtotal), cur), "1", 1, "R", false, 0, "")
	}

	pdf.Ln(4)
	rate := decimal.NewFromFloat(t.TaxRate).Mul(decimal.NewFromInt(100)).Round(2).String()
	for _, row := range [][2]string{
		{"Subtotal", s.formatter.Format(t.Subtotal, cur)},
		{"IVA (" + rate + "%)", s.formatter.Format(t.Taxes, cur)},
		{"Total", s.formatter.Format(t.Total, cur)},
	} {
		pdf.CellFormat(150, 7, tr(row[0]), "", 0, "R", false, 0, "")
		pdf.CellFormat(40, 7, row[1], "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
