package export

import (
	"encoding/csv"
	"io"

	"facturas/internal/domain"
	"facturas/internal/money"
)

// BOM is the UTF-8 byte order mark Excel on Windows needs to read UTF-8 CSV.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter wraps csv.Writer for exporting invoices.
type CSVWriter struct {
	csv *csv.Writer
	fmt *money.Formatter
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer, f *money.Formatter) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w), fmt: f}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(columns)
}

// WriteInvoices converts a batch of invoices to rows and writes them.
func (w *CSVWriter) WriteInvoices(invoices []domain.Invoice) error {
	for i := range invoices {
		if err := w.csv.Write(invoiceToRow(&invoices[i], w.fmt)); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

// WriteCSV writes BOM, header and rows to w.
func WriteCSV(w io.Writer, invoices []domain.Invoice, f *money.Formatter) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := NewCSVWriter(w, f)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	if err := cw.WriteInvoices(invoices); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
