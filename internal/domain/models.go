package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User represents an account that owns invoices.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// InvoiceItem is one line of an invoice. Numbers are nil when the source
// value was missing or could not be read as a non-negative number.
type InvoiceItem struct {
	Description string   `json:"descripcion"`
	Quantity    *float64 `json:"cantidad"`
	UnitPrice   *float64 `json:"precioUnitario"`
	Subtotal    *float64 `json:"subtotal"`
}

// InvoiceItems is the ordered list of invoice lines, stored as JSONB.
type InvoiceItems []InvoiceItem

// MarshalJSON always emits an array, never null.
func (it InvoiceItems) MarshalJSON() ([]byte, error) {
	if it == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]InvoiceItem(it))
}

// Value implements driver.Valuer.
func (it InvoiceItems) Value() (driver.Value, error) {
	b, err := it.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (it *InvoiceItems) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*it = InvoiceItems{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("InvoiceItems.Scan: unsupported type %T", src)
	}
	var items []InvoiceItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("InvoiceItems.Scan: %w", err)
	}
	if items == nil {
		items = []InvoiceItem{}
	}
	*it = items
	return nil
}

// InvoiceData is the canonical, cleaned invoice record. Every field is
// always present on the wire; missing values are null. Dates are
// YYYY-MM-DD strings.
type InvoiceData struct {
	Provider        *string      `db:"proveedor" json:"proveedor"`
	IssueDate       *string      `db:"fecha" json:"fecha"`
	TotalAmount     *float64     `db:"monto" json:"monto"`
	InvoiceNumber   *string      `db:"numero_factura" json:"numeroFactura"`
	Category        *string      `db:"categoria" json:"categoria"`
	Currency        *Currency    `db:"moneda" json:"moneda"`
	TaxAmount       *float64     `db:"impuestos" json:"impuestos"`
	SubtotalAmount  *float64     `db:"subtotal" json:"subtotal"`
	DiscountAmount  *float64     `db:"descuentos" json:"descuentos"`
	DueDate         *string      `db:"fecha_vencimiento" json:"fechaVencimiento"`
	PaymentMethod   *string      `db:"metodo_pago" json:"metodoPago"`
	ProviderAddress *string      `db:"direccion_proveedor" json:"direccionProveedor"`
	ProviderTaxID   *string      `db:"rfc_proveedor" json:"rfcProveedor"`
	Items           InvoiceItems `db:"items" json:"items"`
}

// Invoice is an uploaded (or manually created) invoice and its extracted data.
type Invoice struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	UserID          uuid.UUID     `db:"user_id" json:"user_id"`
	Name            string        `db:"name" json:"name"`
	FilePath        string        `db:"file_path" json:"file_path"`
	ContentType     string        `db:"content_type" json:"content_type"`
	FileSize        int64         `db:"file_size" json:"file_size"`
	Status          InvoiceStatus `db:"status" json:"status"`
	ExtractedText   string        `db:"extracted_text" json:"extracted_text"`
	ProcessingError string        `db:"processing_error" json:"processing_error"`
	ProcessAttempts int           `db:"process_attempts" json:"process_attempts"`
	ProcessedAt     *time.Time    `db:"processed_at" json:"processed_at"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
	InvoiceData
}

// CategoryTotal is the amount spent in one category.
type CategoryTotal struct {
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Count    int     `json:"count"`
}

// UpcomingInvoice is a processed invoice whose due date is close.
type UpcomingInvoice struct {
	ID       uuid.UUID `json:"id"`
	Provider string    `json:"proveedor"`
	Amount   float64   `json:"monto"`
	Currency string    `json:"moneda"`
	DueDate  string    `json:"fechaVencimiento"`
	DaysLeft int       `json:"days_left"`
}

// DashboardStats aggregates a user's invoices.
type DashboardStats struct {
	TotalFiles     int               `json:"total_files"`
	ProcessedFiles int               `json:"processed_files"`
	PendingFiles   int               `json:"pending_files"`
	ErrorFiles     int               `json:"error_files"`
	TotalAmount    float64           `json:"total_amount"`
	TotalTaxes     float64           `json:"total_taxes"`
	TotalDiscounts float64           `json:"total_discounts"`
	AverageAmount  float64           `json:"average_amount"`
	TopCategories  []CategoryTotal   `json:"top_categories"`
	UpcomingDue    []UpcomingInvoice `json:"upcoming_due"`
}

// MonthlyExpense is one YYYY-MM bucket of the expense evolution.
type MonthlyExpense struct {
	Month       string  `json:"month"`
	Total       float64 `json:"total"`
	Count       int     `json:"count"`
	Taxes       float64 `json:"taxes"`
	Discounts   float64 `json:"discounts"`
	TopCategory string  `json:"top_category"`
	PrevTotal   float64 `json:"prev_total"`
	ChangePct   float64 `json:"change_pct"`
}
