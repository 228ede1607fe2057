package parser

import (
	"strings"

	"facturas/internal/domain"
)

// BuildInvoicePrompt returns the extraction prompt for the OCR text of an invoice.
func BuildInvoicePrompt(text string) string {
	return `Analiza el texto de esta factura y devuelve los datos que encuentres en formato JSON.

Reglas:
1. Incluye solo los datos que aparezcan claramente en la factura.
2. Si un dato no aparece o no es claro, usa null.
3. La factura puede ser sencilla (proveedor, fecha y monto) o detallada.
4. Los montos van como números, sin símbolo de moneda ni separadores de miles.
5. Las fechas van en formato YYYY-MM-DD.
6. En "items" incluye cada concepto con descripción, cantidad, precio unitario y subtotal.

Estructura:
{
  "proveedor": "razón social o nombre del proveedor",
  "fecha": "fecha de emisión (YYYY-MM-DD)",
  "monto": "total de la factura",
  "numeroFactura": "número o folio",
  "categoria": "categoría del gasto (servicios, productos, impuestos, etc.)",
  "moneda": "MXN, USD o EUR",
  "impuestos": "total de impuestos",
  "subtotal": "subtotal antes de impuestos",
  "descuentos": "total de descuentos",
  "fechaVencimiento": "fecha de vencimiento (YYYY-MM-DD)",
  "metodoPago": "efectivo, tarjeta, transferencia, etc.",
  "direccionProveedor": "domicilio del proveedor",
  "rfcProveedor": "RFC del proveedor",
  "items": [
    {
      "descripcion": "concepto",
      "cantidad": "cantidad",
      "precioUnitario": "precio unitario",
      "subtotal": "importe del concepto"
    }
  ]
}

Texto de la factura:
"""
` + text + `
"""

Responde únicamente con el objeto JSON, sin texto adicional ni bloques de código.`
}

// BuildCategoryPrompt asks for a single expense category.
func BuildCategoryPrompt(text, provider string) string {
	var b strings.Builder
	b.WriteString("Clasifica esta factura en una sola de estas categorías:\n")
	b.WriteString("- " + domain.CategoryServices + " (luz, agua, internet, teléfono)\n")
	b.WriteString("- " + domain.CategoryProducts + " (materia prima, inventario)\n")
	b.WriteString("- " + domain.CategoryTaxes + " (IVA, ISR)\n")
	b.WriteString("- " + domain.CategoryTransport + " (gasolina, mantenimiento)\n")
	b.WriteString("- " + domain.CategoryOffice + " (papelería, equipo)\n")
	b.WriteString("- " + domain.CategoryMarketing + " (publicidad, promociones)\n")
	b.WriteString("- " + domain.CategoryOther + "\n\n")
	b.WriteString("Proveedor: " + provider + "\n")
	b.WriteString("Texto de la factura: " + text + "\n\n")
	b.WriteString("Responde solo con el nombre de la categoría.")
	return b.String()
}
