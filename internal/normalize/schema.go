package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"facturas/internal/domain"
)

// invoiceSchema describes what a user may send when editing invoice data.
// It only rejects shapes the normalizer would silently drop; value
// cleaning is still left to Invoice.
const invoiceSchema = `{
  "type": "object",
  "properties": {
    "proveedor":          {"type": ["string", "null"], "maxLength": 500},
    "fecha":              {"type": ["string", "number", "null"]},
    "monto":              {"type": ["string", "number", "null"]},
    "numeroFactura":      {"type": ["string", "null"], "maxLength": 200},
    "categoria":          {"type": ["string", "null"], "maxLength": 100},
    "moneda":             {"type": ["string", "null"]},
    "impuestos":          {"type": ["string", "number", "null"]},
    "subtotal":           {"type": ["string", "number", "null"]},
    "descuentos":         {"type": ["string", "number", "null"]},
    "fechaVencimiento":   {"type": ["string", "number", "null"]},
    "metodoPago":         {"type": ["string", "null"], "maxLength": 200},
    "direccionProveedor": {"type": ["string", "null"], "maxLength": 1000},
    "rfcProveedor":       {"type": ["string", "null"], "maxLength": 20},
    "items": {
      "type": ["array", "null"],
      "maxItems": 500,
      "items": {
        "type": "object",
        "properties": {
          "descripcion":    {"type": ["string", "null"]},
          "cantidad":       {"type": ["string", "number", "null"]},
          "precioUnitario": {"type": ["string", "number", "null"]},
          "subtotal":       {"type": ["string", "number", "null"]}
        }
      }
    }
  }
}`

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("invoice.json", strings.NewReader(invoiceSchema)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile("invoice.json")
	})
	return schema, schemaErr
}

// Validate checks a JSON document against the edit schema. Failures wrap
// domain.ErrInvalidInvoiceData.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInvoiceData, err)
	}
	if err := s.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInvoiceData, err)
	}
	return nil
}

// FromJSON validates data and returns the normalized record.
func FromJSON(data []byte) (domain.InvoiceData, error) {
	if err := Validate(data); err != nil {
		return domain.InvoiceData{}, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return domain.InvoiceData{}, fmt.Errorf("%w: %v", domain.ErrInvalidInvoiceData, err)
	}
	return Invoice(v), nil
}
