// Package normalize turns the loosely-typed object returned by a language
// model into a domain.InvoiceData. Every accessor tolerates missing or
// wrong-typed properties: a malformed field becomes nil, the record as a
// whole is never rejected.
package normalize

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"

	"facturas/internal/domain"
)

// MinTaxIDLength is the shortest provider tax id (RFC) that is kept.
// Mexican RFCs are 12 or 13 characters; 10 is a loose lower bound.
const MinTaxIDLength = 10

const dateLayout = "2006-01-02"

// maxEpochMillis bounds numeric dates to ±100,000,000 days around the epoch.
const maxEpochMillis = 8.64e15

var (
	nonNumeric   = regexp.MustCompile(`[^0-9.\-]`)
	leadingFloat = regexp.MustCompile(`^-?(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)`)
)

var currencyAliases = map[string]domain.Currency{
	"MXN":     domain.CurrencyMXN,
	"PESOS":   domain.CurrencyMXN,
	"PESO":    domain.CurrencyMXN,
	"USD":     domain.CurrencyUSD,
	"DOLARES": domain.CurrencyUSD,
	"DOLAR":   domain.CurrencyUSD,
	"$":       domain.CurrencyUSD,
	"EUR":     domain.CurrencyEUR,
	"EUROS":   domain.CurrencyEUR,
	"EURO":    domain.CurrencyEUR,
}

// Invoice normalizes a decoded JSON value. Anything other than an object
// yields a record where every field is nil and Items is empty.
func Invoice(raw any) domain.InvoiceData {
	obj, _ := raw.(map[string]any)

	return domain.InvoiceData{
		Provider:        String(obj["proveedor"]),
		IssueDate:       Date(obj["fecha"]),
		TotalAmount:     Number(obj["monto"]),
		InvoiceNumber:   String(obj["numeroFactura"]),
		Category:        String(obj["categoria"]),
		Currency:        Currency(obj["moneda"]),
		TaxAmount:       Number(obj["impuestos"]),
		SubtotalAmount:  Number(obj["subtotal"]),
		DiscountAmount:  Number(obj["descuentos"]),
		DueDate:         Date(obj["fechaVencimiento"]),
		PaymentMethod:   String(obj["metodoPago"]),
		ProviderAddress: String(obj["direccionProveedor"]),
		ProviderTaxID:   TaxID(obj["rfcProveedor"]),
		Items:           Items(obj["items"]),
	}
}

// HasBasicFields reports whether provider, issue date or total survived.
func HasBasicFields(d domain.InvoiceData) bool {
	return d.Provider != nil || d.IssueDate != nil || d.TotalAmount != nil
}

// String trims v and collapses inner whitespace runs. Non-strings and
// blank strings are nil.
func String(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return nil
	}
	return &s
}

// Number accepts finite non-negative numbers, or strings that still read
// as one after dropping everything but digits, '.' and '-'.
func Number(v any) *float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := strconv.ParseFloat(n.String(), 64)
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		parsed, ok := parseLeadingFloat(nonNumeric.ReplaceAllString(n, ""))
		if !ok {
			return nil
		}
		f = parsed
	default:
		return nil
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	if f == 0 {
		f = 0 // drop the sign of -0
	}
	return &f
}

// parseLeadingFloat reads the longest numeric prefix of s, so "1.234.5"
// is 1.234 and "5-3" is 5.
func parseLeadingFloat(s string) (float64, bool) {
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(m, "."), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Date parses ISO dates, RFC 3339 timestamps and common human formats and
// returns the calendar date as YYYY-MM-DD. Numbers are epoch milliseconds.
// Strings without an offset are read as UTC; strings with one keep their
// own calendar date.
func Date(v any) *string {
	var t time.Time
	switch d := v.(type) {
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return nil
		}
		parsed, err := dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return nil
		}
		t = parsed
	case float64:
		if d == 0 || math.IsNaN(d) || math.Abs(d) > maxEpochMillis {
			return nil
		}
		t = time.UnixMilli(int64(d)).UTC()
	case int64:
		if d == 0 || d > maxEpochMillis || d < -maxEpochMillis {
			return nil
		}
		t = time.UnixMilli(d).UTC()
	case int:
		if d == 0 || int64(d) > maxEpochMillis || int64(d) < -maxEpochMillis {
			return nil
		}
		t = time.UnixMilli(int64(d)).UTC()
	default:
		return nil
	}
	if y := t.Year(); y < 0 || y > 9999 {
		return nil
	}
	out := t.Format(dateLayout)
	return &out
}

// Currency maps the known spellings of MXN, USD and EUR.
func Currency(v any) *domain.Currency {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	c, ok := currencyAliases[strings.ToUpper(strings.TrimSpace(s))]
	if !ok {
		return nil
	}
	return &c
}

// TaxID is String plus a minimum length of MinTaxIDLength characters.
func TaxID(v any) *string {
	s := String(v)
	if s == nil || utf8.RuneCountInString(*s) < MinTaxIDLength {
		return nil
	}
	return s
}

// Items maps every element of an array in order. Anything else is an
// empty list.
func Items(v any) domain.InvoiceItems {
	arr, ok := v.([]any)
	if !ok {
		return domain.InvoiceItems{}
	}
	items := make(domain.InvoiceItems, 0, len(arr))
	for _, el := range arr {
		items = append(items, Item(el))
	}
	return items
}

// Item normalizes one invoice line. The description falls back to "".
func Item(v any) domain.InvoiceItem {
	obj, _ := v.(map[string]any)
	item := domain.InvoiceItem{
		Quantity:  Number(obj["cantidad"]),
		UnitPrice: Number(obj["precioUnitario"]),
		Subtotal:  Number(obj["subtotal"]),
	}
	if desc := String(obj["descripcion"]); desc != nil {
		item.Description = *desc
	}
	return item
}
