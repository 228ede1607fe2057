package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"facturas/internal/domain"
	"facturas/internal/port"
)

const invoiceColumns = `id, user_id, name, file_path, content_type, file_size, status,
	extracted_text, processing_error, process_attempts, processed_at,
	proveedor, fecha, monto, numero_factura, categoria, moneda, impuestos, subtotal,
	descuentos, fecha_vencimiento, metodo_pago, direccion_proveedor, rfc_proveedor, items,
	created_at, updated_at`

type invoiceRepo struct {
	db *sqlx.DB
}

// NewInvoiceRepo creates a new PostgreSQL-backed InvoiceRepository.
func NewInvoiceRepo(db *sqlx.DB) port.InvoiceRepository {
	return &invoiceRepo{db: db}
}

func (r *invoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	if err := r.insert(ctx, r.db, inv); err != nil {
		return fmt.Errorf("invoiceRepo.Create: %w", err)
	}
	return nil
}

func (r *invoiceRepo) CreateBatch(ctx context.Context, invoices []domain.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("invoiceRepo.CreateBatch begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i := range invoices {
		if err := r.insert(ctx, tx, &invoices[i]); err != nil {
			return fmt.Errorf("invoiceRepo.CreateBatch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("invoiceRepo.CreateBatch commit: %w", err)
	}
	return nil
}

func (r *invoiceRepo) insert(ctx context.Context, ext sqlx.ExtContext, inv *domain.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	now := time.Now().UTC()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if inv.Items == nil {
		inv.Items = domain.InvoiceItems{}
	}

	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (
		:id, :user_id, :name, :file_path, :content_type, :file_size, :status,
		:extracted_text, :processing_error, :process_attempts, :processed_at,
		:proveedor, :fecha, :monto, :numero_factura, :categoria, :moneda, :impuestos, :subtotal,
		:descuentos, :fecha_vencimiento, :metodo_pago, :direccion_proveedor, :rfc_proveedor, :items,
		:created_at, :updated_at)`

	_, err := sqlx.NamedExecContext(ctx, ext, query, inv)
	return err
}

func (r *invoiceRepo) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.db.GetContext(ctx, &inv,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id = $1 AND user_id = $2", invoiceID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("invoiceRepo.GetByID: %w", err)
	}
	return &inv, nil
}

// buildInvoiceWhere constructs the WHERE clause for invoice listings.
func buildInvoiceWhere(userID uuid.UUID, f port.InvoiceFilter) (clause string, args []interface{}) {
	args = []interface{}{userID}
	clause = "WHERE user_id = $1"
	argN := 2

	if f.Search != "" {
		clause += fmt.Sprintf(" AND (name ILIKE $%d OR proveedor ILIKE $%d OR numero_factura ILIKE $%d)", argN, argN, argN)
		args = append(args, "%"+escapeLike(f.Search)+"%")
		argN++
	}
	if f.Status != "" {
		clause += fmt.Sprintf(" AND status = $%d", argN)
		args = append(args, f.Status)
		argN++
	}
	if f.DateFrom != "" {
		clause += fmt.Sprintf(" AND fecha >= $%d", argN)
		args = append(args, f.DateFrom)
		argN++
	}
	if f.DateTo != "" {
		clause += fmt.Sprintf(" AND fecha <= $%d", argN)
		args = append(args, f.DateTo)
		argN++
	}
	if f.AmountMin != nil {
		clause += fmt.Sprintf(" AND monto >= $%d", argN)
		args = append(args, *f.AmountMin)
		argN++
	}
	if f.AmountMax != nil {
		clause += fmt.Sprintf(" AND monto <= $%d", argN)
		args = append(args, *f.AmountMax)
		argN++
	}
	if f.Category != "" {
		clause += fmt.Sprintf(" AND categoria = $%d", argN)
		args = append(args, f.Category)
		argN++
	}
	if f.Provider != "" {
		clause += fmt.Sprintf(" AND proveedor ILIKE $%d", argN)
		args = append(args, "%"+escapeLike(f.Provider)+"%")
		argN++ //nolint:ineffassign // argN kept incremented for consistency
	}
	return clause, args
}

func (r *invoiceRepo) List(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter, offset, limit int) ([]domain.Invoice, int, error) {
	where, args := buildInvoiceWhere(userID, filter)

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM invoices "+where, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List count: %w", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM invoices %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		invoiceColumns, where, n+1, n+2)
	args = append(args, limit, offset)

	var invoices []domain.Invoice
	if err := r.db.SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, 0, fmt.Errorf("invoiceRepo.List: %w", err)
	}
	return invoices, total, nil
}

func (r *invoiceRepo) ListAll(ctx context.Context, userID uuid.UUID, filter port.InvoiceFilter) ([]domain.Invoice, error) {
	where, args := buildInvoiceWhere(userID, filter)

	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT "+invoiceColumns+" FROM invoices "+where+" ORDER BY created_at DESC", args...)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListAll: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) ListFilePaths(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var paths []string
	err := r.db.SelectContext(ctx, &paths,
		"SELECT file_path FROM invoices WHERE user_id = $1 AND file_path <> ''", userID)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListFilePaths: %w", err)
	}
	return paths, nil
}

func (r *invoiceRepo) ListDueBetween(ctx context.Context, userID uuid.UUID, from, to string) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices,
		"SELECT "+invoiceColumns+` FROM invoices
		WHERE user_id = $1 AND status = $2 AND fecha_vencimiento >= $3 AND fecha_vencimiento <= $4
		ORDER BY fecha_vencimiento`,
		userID, domain.InvoiceStatusProcessed, from, to)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ListDueBetween: %w", err)
	}
	return invoices, nil
}

func (r *invoiceRepo) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, status domain.InvoiceStatus) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status = $1, updated_at = $2 WHERE id = $3 AND user_id = $4",
		status, time.Now().UTC(), invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateStatus: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) MarkProcessing(ctx context.Context, userID, invoiceID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `UPDATE invoices
		SET status = $1, process_attempts = process_attempts + 1, processing_error = '', updated_at = $2
		WHERE id = $3 AND user_id = $4 AND status <> $1`,
		domain.InvoiceStatusProcessing, time.Now().UTC(), invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkProcessing: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows > 0 {
		return nil
	}

	var exists bool
	err = r.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM invoices WHERE id = $1 AND user_id = $2)", invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkProcessing exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrInvoiceBusy
}

func (r *invoiceRepo) SaveExtraction(ctx context.Context, userID, invoiceID uuid.UUID, text string, data domain.InvoiceData) error {
	now := time.Now().UTC()
	if data.Items == nil {
		data.Items = domain.InvoiceItems{}
	}
	result, err := r.db.ExecContext(ctx, `UPDATE invoices SET
		status = $1, extracted_text = $2, processing_error = '', processed_at = $3, updated_at = $3,
		proveedor = $4, fecha = $5, monto = $6, numero_factura = $7, categoria = $8, moneda = $9,
		impuestos = $10, subtotal = $11, descuentos = $12, fecha_vencimiento = $13, metodo_pago = $14,
		direccion_proveedor = $15, rfc_proveedor = $16, items = $17
		WHERE id = $18 AND user_id = $19`,
		domain.InvoiceStatusProcessed, text, now,
		data.Provider, data.IssueDate, data.TotalAmount, data.InvoiceNumber, data.Category, data.Currency,
		data.TaxAmount, data.SubtotalAmount, data.DiscountAmount, data.DueDate, data.PaymentMethod,
		data.ProviderAddress, data.ProviderTaxID, data.Items,
		invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.SaveExtraction: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) MarkError(ctx context.Context, userID, invoiceID uuid.UUID, message string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status = $1, processing_error = $2, updated_at = $3 WHERE id = $4 AND user_id = $5",
		domain.InvoiceStatusError, message, time.Now().UTC(), invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.MarkError: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) Requeue(ctx context.Context, userID, invoiceID uuid.UUID, message string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE invoices SET status = $1, processing_error = $2, updated_at = $3 WHERE id = $4 AND user_id = $5",
		domain.InvoiceStatusUploaded, message, time.Now().UTC(), invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Requeue: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) UpdateData(ctx context.Context, userID, invoiceID uuid.UUID, data domain.InvoiceData) error {
	if data.Items == nil {
		data.Items = domain.InvoiceItems{}
	}
	result, err := r.db.ExecContext(ctx, `UPDATE invoices SET
		proveedor = $1, fecha = $2, monto = $3, numero_factura = $4, categoria = $5, moneda = $6,
		impuestos = $7, subtotal = $8, descuentos = $9, fecha_vencimiento = $10, metodo_pago = $11,
		direccion_proveedor = $12, rfc_proveedor = $13, items = $14, updated_at = $15
		WHERE id = $16 AND user_id = $17`,
		data.Provider, data.IssueDate, data.TotalAmount, data.InvoiceNumber, data.Category, data.Currency,
		data.TaxAmount, data.SubtotalAmount, data.DiscountAmount, data.DueDate, data.PaymentMethod,
		data.ProviderAddress, data.ProviderTaxID, data.Items, time.Now().UTC(),
		invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.UpdateData: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM invoices WHERE id = $1 AND user_id = $2", invoiceID, userID)
	if err != nil {
		return fmt.Errorf("invoiceRepo.Delete: %w", err)
	}
	return requireRow(result)
}

func (r *invoiceRepo) ClaimUploaded(ctx context.Context, limit int) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	err := r.db.SelectContext(ctx, &invoices, `UPDATE invoices
		SET status = $1, process_attempts = process_attempts + 1, updated_at = $2
		WHERE id IN (
			SELECT id FROM invoices
			WHERE status = $3
			ORDER BY created_at
			LIMIT $4
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+invoiceColumns,
		domain.InvoiceStatusProcessing, time.Now().UTC(), domain.InvoiceStatusUploaded, limit)
	if err != nil {
		return nil, fmt.Errorf("invoiceRepo.ClaimUploaded: %w", err)
	}
	return invoices, nil
}

func requireRow(result sql.Result) error {
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
