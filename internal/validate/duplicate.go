package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/extract"
)

// Registry tracks (vendor, invoice_number) keys that were already processed.
type Registry interface {
	Seen(ctx context.Context, vendor, invoiceNumber string) (bool, error)
	Record(ctx context.Context, vendor, invoiceNumber string) error
}

// DuplicateValidator flags resubmitted invoice numbers. Similar-invoice
// detection (same vendor/date/approximate total) is deliberately absent;
// implementing it needs real historical data and a product decision on the
// matching tolerance.
type DuplicateValidator struct {
	registry Registry
	logger   *slog.Logger
}

func NewDuplicateValidator(registry Registry, logger *slog.Logger) *DuplicateValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DuplicateValidator{registry: registry, logger: logger}
}

func (v *DuplicateValidator) Name() string { return "duplicate_validator" }

func (v *DuplicateValidator) Validate(ctx context.Context, inv *extract.Invoice) ([]Alert, error) {
	vendor := inv.VendorName
	if vendor == "" {
		vendor = "Unknown"
	}

	// A missing invoice number short-circuits: nothing to key duplicates on.
	if inv.InvoiceNumber == "" {
		return []Alert{{
			Type:     constants.AlertMissingInvoiceNumber,
			Message:  "Invoice number is missing",
			Severity: constants.SeverityHigh,
		}}, nil
	}

	var alerts []Alert

	seen, err := v.registry.Seen(ctx, vendor, inv.InvoiceNumber)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}
	if seen {
		alerts = append(alerts, Alert{
			Type:     constants.AlertDuplicateInvoice,
			Message:  fmt.Sprintf("Duplicate invoice number detected: %s", inv.InvoiceNumber),
			Severity: constants.SeverityHigh,
			Details: map[string]any{
				"invoice_number": inv.InvoiceNumber,
				"vendor":         vendor,
			},
		})
	}

	// Recorded regardless of outcome so an identical resubmission is always
	// flagged.
	if err := v.registry.Record(ctx, vendor, inv.InvoiceNumber); err != nil {
		return nil, fmt.Errorf("duplicate record: %w", err)
	}

	v.logger.Info("validate.duplicate.done", "vendor", vendor, "alerts", len(alerts))
	return alerts, nil
}
