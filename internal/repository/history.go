package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PriceHistory answers "what did this vendor last charge for this item" from
// stored invoice lines. Satisfies validate.PriceHistory.
type PriceHistory struct {
	pool *pgxpool.Pool
}

func NewPriceHistory(pool *pgxpool.Pool) *PriceHistory {
	return &PriceHistory{pool: pool}
}

func (h *PriceHistory) Lookup(ctx context.Context, vendor, description string) (decimal.Decimal, bool, error) {
	query := `
		SELECT ii.unit_price
		FROM invoice_items ii
		JOIN invoices i ON i.id = ii.invoice_id
		JOIN vendors v ON v.id = i.vendor_id
		WHERE v.name = $1 AND ii.description = $2 AND ii.unit_price IS NOT NULL
		ORDER BY i.created_at DESC
		LIMIT 1`

	var price decimal.Decimal
	err := h.pool.QueryRow(ctx, query, vendor, description).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("price history lookup: %w", err)
	}
	return price, true, nil
}

// InvoiceRegistry answers duplicate-number checks from stored invoices.
// Satisfies validate.Registry. Record is a no-op: persistence happens when
// the parse result is saved, so the registry only needs to read.
type InvoiceRegistry struct {
	pool *pgxpool.Pool
}

func NewInvoiceRegistry(pool *pgxpool.Pool) *InvoiceRegistry {
	return &InvoiceRegistry{pool: pool}
}

func (r *InvoiceRegistry) Seen(ctx context.Context, vendor, invoiceNumber string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM invoices i
			JOIN vendors v ON v.id = i.vendor_id
			WHERE v.name = $1 AND i.invoice_number = $2
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, vendor, invoiceNumber).Scan(&exists); err != nil {
		return false, fmt.Errorf("duplicate lookup: %w", err)
	}
	return exists, nil
}

func (r *InvoiceRegistry) Record(_ context.Context, _, _ string) error {
	return nil
}
