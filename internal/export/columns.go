// Package export writes invoice listings as CSV or XLSX.
package export

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"facturas/internal/domain"
	"facturas/internal/money"
)

// columns defines the header row shared by both formats.
var columns = []string{
	"Nombre",
	"Estado",
	"Proveedor",
	"RFC",
	"Número de factura",
	"Fecha",
	"Fecha de vencimiento",
	"Categoría",
	"Moneda",
	"Subtotal",
	"Impuestos",
	"Descuentos",
	"Monto",
	"Monto (formato)",
	"Método de pago",
	"Conceptos",
	"Procesada",
	"Creada",
}

const (
	colSubtotal  = 9
	colTaxes     = 10
	colDiscounts = 11
	colTotal     = 12
)

// invoiceToRow converts an invoice to one row. Missing values are empty.
func invoiceToRow(inv *domain.Invoice, f *money.Formatter) []string {
	row := make([]string, len(columns))
	row[0] = inv.Name
	row[1] = string(inv.Status)
	row[2] = str(inv.Provider)
	row[3] = str(inv.ProviderTaxID)
	row[4] = str(inv.InvoiceNumber)
	row[5] = str(inv.IssueDate)
	row[6] = str(inv.DueDate)
	row[7] = str(inv.Category)
	if inv.Currency != nil {
		row[8] = string(*inv.Currency)
	}
	row[colSubtotal] = formatMoney(inv.SubtotalAmount)
	row[colTaxes] = formatMoney(inv.TaxAmount)
	row[colDiscounts] = formatMoney(inv.DiscountAmount)
	row[colTotal] = formatMoney(inv.TotalAmount)
	if inv.TotalAmount != nil {
		row[13] = f.Format(*inv.TotalAmount, row[8])
	}
	row[14] = str(inv.PaymentMethod)
	row[15] = strconv.Itoa(len(inv.Items))
	row[16] = formatTime(inv.ProcessedAt)
	row[17] = inv.CreatedAt.Format(time.RFC3339)
	return row
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_name}_{YYYY-MM-DD}.{ext}.
func BuildFilename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(name), now.Format("2006-01-02"), ext)
}
