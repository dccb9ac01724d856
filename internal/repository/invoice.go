package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/extract"
)

// InvoiceRepo persists invoices and their line items.
type InvoiceRepo struct {
	pool *pgxpool.Pool
}

func NewInvoiceRepo(pool *pgxpool.Pool) *InvoiceRepo {
	return &InvoiceRepo{pool: pool}
}

// CreateUpload inserts the shell row for a freshly uploaded document.
func (r *InvoiceRepo) CreateUpload(ctx context.Context, filePath string) (*Invoice, error) {
	query := `
		INSERT INTO invoices (file_path, status)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	inv := &Invoice{FilePath: filePath, Status: constants.InvoiceStatusUploaded}
	err := r.pool.QueryRow(ctx, query, filePath, constants.InvoiceStatusUploaded).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return inv, nil
}

// SaveParseResult fills an uploaded invoice with extracted data and replaces
// its line items. Runs in one transaction so readers never see a half-saved
// invoice.
func (r *InvoiceRepo) SaveParseResult(ctx context.Context, id uuid.UUID, vendorID *uuid.UUID, parsed *extract.Invoice, rawText string, confidence float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	update := `
		UPDATE invoices
		SET vendor_id = $2, invoice_number = $3, invoice_date = $4, due_date = $5,
		    subtotal = $6, tax = $7, total = $8,
		    raw_text = $9, confidence_score = $10, status = $11, updated_at = now()
		WHERE id = $1`

	tag, err := tx.Exec(ctx, update,
		id, vendorID,
		parsed.InvoiceNumber, parsed.InvoiceDate, parsed.DueDate,
		decOf(parsed.Subtotal), decOf(parsed.Tax), decOf(parsed.Total),
		rawText, confidence, constants.InvoiceStatusParsed,
	)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice: %w", common.ErrNotFound)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id = $1`, id); err != nil {
		return fmt.Errorf("clear items: %w", err)
	}
	insert := `
		INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5)`
	for _, item := range parsed.Items {
		_, err := tx.Exec(ctx, insert, id, item.Description,
			decOf(item.Quantity), decOf(item.UnitPrice), decOf(item.Total))
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// MarkFailed flips the invoice to failed status after a pipeline abort.
func (r *InvoiceRepo) MarkFailed(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE invoices SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id, constants.InvoiceStatusFailed)
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice: %w", common.ErrNotFound)
	}
	return nil
}

// Get returns one invoice with its vendor name and line items.
func (r *InvoiceRepo) Get(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	query := `
		SELECT i.id, i.vendor_id, COALESCE(v.name, ''),
		       COALESCE(i.invoice_number, ''), COALESCE(i.invoice_date, ''), COALESCE(i.due_date, ''),
		       i.subtotal, i.tax, i.total, i.status, i.file_path, COALESCE(i.raw_text, ''),
		       i.confidence_score, i.created_at, i.updated_at
		FROM invoices i
		LEFT JOIN vendors v ON v.id = i.vendor_id
		WHERE i.id = $1`

	inv, err := scanInvoice(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapNotFound(err, "invoice")
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// List returns invoices newest-first.
func (r *InvoiceRepo) List(ctx context.Context, limit, offset int) ([]Invoice, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT i.id, i.vendor_id, COALESCE(v.name, ''),
		       COALESCE(i.invoice_number, ''), COALESCE(i.invoice_date, ''), COALESCE(i.due_date, ''),
		       i.subtotal, i.tax, i.total, i.status, i.file_path, COALESCE(i.raw_text, ''),
		       i.confidence_score, i.created_at, i.updated_at
		FROM invoices i
		LEFT JOIN vendors v ON v.id = i.vendor_id
		ORDER BY i.created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

func (r *InvoiceRepo) listItems(ctx context.Context, invoiceID uuid.UUID) ([]InvoiceItem, error) {
	query := `
		SELECT id, invoice_id, description, quantity, unit_price, total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`

	rows, err := r.pool.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity, &it.UnitPrice, &it.Total); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*Invoice, error) {
	inv := &Invoice{}
	err := row.Scan(
		&inv.ID, &inv.VendorID, &inv.VendorName, &inv.InvoiceNumber, &inv.InvoiceDate, &inv.DueDate,
		&inv.Subtotal, &inv.Tax, &inv.Total, &inv.Status, &inv.FilePath, &inv.RawText,
		&inv.ConfidenceScore, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// decOf unwraps the parsed decimal behind an extracted amount, nil when the
// amount is absent or never coerced.
func decOf(a *extract.Amount) *decimal.Decimal {
	if a == nil {
		return nil
	}
	return a.Dec
}
