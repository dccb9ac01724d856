package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/extract"
)

// Absolute thresholds for the heuristic price checks.
var (
	unusualUnitPrice = decimal.NewFromInt(100)
	highInvoiceTotal = decimal.NewFromInt(10000)
	roundingSlack    = decimal.NewFromFloat(0.01)
	highChangeBound  = decimal.NewFromFloat(0.2)
)

// PriceHistory looks up the last known unit price for a vendor's item.
// Implementations may report no history, in which case no comparison fires.
type PriceHistory interface {
	Lookup(ctx context.Context, vendor, description string) (decimal.Decimal, bool, error)
}

// PriceValidator flags price discrepancies against historical data plus a
// set of absolute sanity checks on unit prices and the invoice total.
type PriceValidator struct {
	history   PriceHistory
	threshold decimal.Decimal // relative change that triggers a discrepancy
	logger    *slog.Logger
}

func NewPriceValidator(history PriceHistory, threshold float64, logger *slog.Logger) *PriceValidator {
	if threshold <= 0 {
		threshold = 0.05
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceValidator{
		history:   history,
		threshold: decimal.NewFromFloat(threshold),
		logger:    logger,
	}
}

func (v *PriceValidator) Name() string { return "price_validator" }

func (v *PriceValidator) Validate(ctx context.Context, inv *extract.Invoice) ([]Alert, error) {
	var alerts []Alert

	vendor := inv.VendorName
	if vendor == "" {
		vendor = "Unknown"
	}

	for _, item := range inv.Items {
		itemAlerts, err := v.validateItem(ctx, vendor, item)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, itemAlerts...)
	}

	alerts = append(alerts, v.validateTotal(inv)...)

	v.logger.Info("validate.price.done", "vendor", vendor, "alerts", len(alerts))
	return alerts, nil
}

func (v *PriceValidator) validateItem(ctx context.Context, vendor string, item extract.LineItem) ([]Alert, error) {
	var alerts []Alert

	description := item.Description
	if description == "" {
		description = "Unknown Item"
	}
	if item.UnitPrice == nil || item.UnitPrice.Dec == nil {
		return nil, nil
	}
	unitPrice := *item.UnitPrice.Dec

	old, found, err := v.history.Lookup(ctx, vendor, description)
	if err != nil {
		return nil, fmt.Errorf("price history lookup: %w", err)
	}
	if found && !old.IsZero() {
		change := unitPrice.Sub(old).Abs().Div(old)
		if change.GreaterThan(v.threshold) {
			severity := constants.SeverityMedium
			if change.GreaterThanOrEqual(highChangeBound) {
				severity = constants.SeverityHigh
			}
			pct, _ := change.Mul(decimal.NewFromInt(100)).Float64()
			alerts = append(alerts, Alert{
				Type: constants.AlertPriceDiscrepancy,
				Message: fmt.Sprintf("Price change detected for %s: $%s → $%s (%.1f%% change)",
					description, old.StringFixed(2), unitPrice.StringFixed(2), pct),
				Severity: severity,
				Details: map[string]any{
					"item":              description,
					"old_price":         old.InexactFloat64(),
					"new_price":         unitPrice.InexactFloat64(),
					"change_percentage": change.InexactFloat64(),
				},
			})
		}
	}

	// absolute threshold, independent of history
	if unitPrice.GreaterThan(unusualUnitPrice) {
		alerts = append(alerts, Alert{
			Type:     constants.AlertUnusualPrice,
			Message:  fmt.Sprintf("Unusually high unit price for %s: $%s", description, unitPrice.StringFixed(2)),
			Severity: constants.SeverityLow,
			Details: map[string]any{
				"item":      description,
				"price":     unitPrice.InexactFloat64(),
				"threshold": 100,
			},
		})
	}

	return alerts, nil
}

func (v *PriceValidator) validateTotal(inv *extract.Invoice) []Alert {
	var alerts []Alert

	if inv.Total == nil || inv.Total.Dec == nil {
		return nil
	}
	total := *inv.Total.Dec
	// a zero total means extraction produced nothing comparable; mismatch and
	// high-total checks would only produce noise
	if total.IsZero() {
		return nil
	}

	subtotal := decimal.Zero
	if inv.Subtotal != nil && inv.Subtotal.Dec != nil {
		subtotal = *inv.Subtotal.Dec
	}
	tax := decimal.Zero
	if inv.Tax != nil && inv.Tax.Dec != nil {
		tax = *inv.Tax.Dec
	}

	calculated := subtotal.Add(tax)
	if diff := total.Sub(calculated).Abs(); diff.GreaterThan(roundingSlack) {
		alerts = append(alerts, Alert{
			Type: constants.AlertTotalMismatch,
			Message: fmt.Sprintf("Total amount mismatch: calculated $%s vs $%s",
				calculated.StringFixed(2), total.StringFixed(2)),
			Severity: constants.SeverityMedium,
			Details: map[string]any{
				"calculated_total": calculated.InexactFloat64(),
				"invoice_total":    total.InexactFloat64(),
				"difference":       diff.InexactFloat64(),
			},
		})
	}

	if total.GreaterThan(highInvoiceTotal) {
		alerts = append(alerts, Alert{
			Type:     constants.AlertHighTotal,
			Message:  fmt.Sprintf("Unusually high invoice total: $%s", total.StringFixed(2)),
			Severity: constants.SeverityLow,
			Details: map[string]any{
				"total":     total.InexactFloat64(),
				"threshold": 10000,
			},
		})
	}

	return alerts
}
