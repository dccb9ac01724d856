package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/validate"
)

// AlertRepo persists validation alerts.
type AlertRepo struct {
	pool *pgxpool.Pool
}

func NewAlertRepo(pool *pgxpool.Pool) *AlertRepo {
	return &AlertRepo{pool: pool}
}

// SaveAll stores the alerts produced by one pipeline run against an invoice.
func (r *AlertRepo) SaveAll(ctx context.Context, invoiceID uuid.UUID, alerts []validate.Alert) error {
	query := `
		INSERT INTO alerts (invoice_id, type, message, severity, details, status)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, a := range alerts {
		var details []byte
		if a.Details != nil {
			b, err := json.Marshal(a.Details)
			if err != nil {
				return fmt.Errorf("marshal alert details: %w", err)
			}
			details = b
		}
		_, err := r.pool.Exec(ctx, query, invoiceID, a.Type, a.Message, a.Severity, details, constants.AlertStatusActive)
		if err != nil {
			return fmt.Errorf("insert alert: %w", err)
		}
	}
	return nil
}

// AlertFilter narrows List. Zero values mean no filtering on that field.
type AlertFilter struct {
	InvoiceID *uuid.UUID
	Severity  string
	Status    string
	Limit     int
}

// List returns alerts newest-first, optionally filtered.
func (r *AlertRepo) List(ctx context.Context, f AlertFilter) ([]AlertRecord, error) {
	if f.Limit <= 0 || f.Limit > 500 {
		f.Limit = 100
	}

	query := `
		SELECT id, invoice_id, type, message, severity, details, status, created_at, resolved_at
		FROM alerts
		WHERE ($1::uuid IS NULL OR invoice_id = $1)
		  AND ($2 = '' OR severity = $2)
		  AND ($3 = '' OR status = $3)
		ORDER BY created_at DESC
		LIMIT $4`

	rows, err := r.pool.Query(ctx, query, f.InvoiceID, f.Severity, f.Status, f.Limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var out []AlertRecord
	for rows.Next() {
		var rec AlertRecord
		var details []byte
		if err := rows.Scan(&rec.ID, &rec.InvoiceID, &rec.Type, &rec.Message, &rec.Severity,
			&details, &rec.Status, &rec.CreatedAt, &rec.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &rec.Details); err != nil {
				return nil, fmt.Errorf("decode alert details: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Resolve marks an alert resolved. Resolving an already-resolved alert is a
// no-op that still succeeds.
func (r *AlertRepo) Resolve(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE alerts
		SET status = $2, resolved_at = COALESCE(resolved_at, now())
		WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, id, constants.AlertStatusResolved)
	if err != nil {
		return fmt.Errorf("resolve alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("alert: %w", common.ErrNotFound)
	}
	return nil
}
