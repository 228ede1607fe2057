package domain

// FileType represents the allowed file types for upload.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeJPG FileType = "jpg"
	FileTypePNG FileType = "png"
)

// AllowedFileTypes maps FileType to its MIME content type.
var AllowedFileTypes = map[FileType]string{
	FileTypePDF: "application/pdf",
	FileTypeJPG: "image/jpeg",
	FileTypePNG: "image/png",
}

// AllowedContentTypes maps MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
	"image/jpeg":      FileTypeJPG,
	"image/png":       FileTypePNG,
}

// AllowedExtensions maps file extensions (without dot) to FileType.
var AllowedExtensions = map[string]FileType{
	"pdf":  FileTypePDF,
	"jpg":  FileTypeJPG,
	"jpeg": FileTypeJPG,
	"png":  FileTypePNG,
}

// InvoiceStatus is the processing lifecycle of a stored invoice.
//
//	pending -> uploaded -> processing -> processed
//	                               \-> error
//
// pending rows come from storage sync; error is terminal until a user
// triggers processing again.
type InvoiceStatus string

const (
	InvoiceStatusPending    InvoiceStatus = "pending"
	InvoiceStatusUploaded   InvoiceStatus = "uploaded"
	InvoiceStatusProcessing InvoiceStatus = "processing"
	InvoiceStatusProcessed  InvoiceStatus = "processed"
	InvoiceStatusError      InvoiceStatus = "error"
)

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusUploaded, InvoiceStatusProcessing,
		InvoiceStatusProcessed, InvoiceStatusError:
		return true
	}
	return false
}

// Currency is one of the supported ISO 4217 codes.
type Currency string

const (
	CurrencyMXN Currency = "MXN"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// Valid reports whether c is a supported currency code.
func (c Currency) Valid() bool {
	return c == CurrencyMXN || c == CurrencyUSD || c == CurrencyEUR
}

// Expense categories used by the classifier and the dashboard.
const (
	CategoryServices  = "Servicios"
	CategoryProducts  = "Productos"
	CategoryTaxes     = "Impuestos"
	CategoryTransport = "Transporte"
	CategoryOffice    = "Oficina"
	CategoryMarketing = "Marketing"
	CategoryOther     = "Otros"

	// CategoryManual marks invoices created with the calculator.
	CategoryManual = "Manual"
	// CategoryUncategorized is the dashboard label for invoices without a category.
	CategoryUncategorized = "Sin categoría"
)

// ExpenseCategories lists the classifier categories in prompt order.
var ExpenseCategories = []string{
	CategoryServices, CategoryProducts, CategoryTaxes, CategoryTransport,
	CategoryOffice, CategoryMarketing, CategoryOther,
}
