package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"facturas/internal/domain"
	"facturas/internal/money"
)

// SheetName is the worksheet holding the invoice rows.
const SheetName = "Facturas"

// WriteXLSX writes a single-sheet workbook. Amount columns are numeric cells.
func WriteXLSX(w io.Writer, invoices []domain.Invoice, f *money.Formatter) error {
	book := excelize.NewFile()
	defer func() { _ = book.Close() }()

	if err := book.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}

	sw, err := book.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("creating stream writer: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	for i := range invoices {
		row := invoiceToRow(&invoices[i], f)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
			if isAmountColumn(j) && v != "" {
				if n, err := strconv.ParseFloat(v, 64); err == nil {
					cells[j] = n
				}
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return err
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flushing sheet: %w", err)
	}
	if _, err := book.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func isAmountColumn(i int) bool {
	return i == colSubtotal || i == colTaxes || i == colDiscounts || i == colTotal
}
