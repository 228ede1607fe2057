// Package money formats invoice amounts for people.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale is used when a locale tag cannot be parsed.
const DefaultLocale = "es-MX"

// Formatter renders amounts with locale digit grouping.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter creates a Formatter for a BCP 47 tag such as "es-MX".
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.MustParse(DefaultLocale)
	}
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format renders amount with two decimals, prefixed by the ISO code when
// code is a known currency.
func (f *Formatter) Format(amount float64, code string) string {
	num := f.printer.Sprintf("%.2f", Round2(amount))
	unit, err := currency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return num
	}
	return unit.String() + " " + num
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
