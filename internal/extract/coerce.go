package extract

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

var defaultQuantity = decimal.NewFromFloat(1.0)

// Coerce converts the stringly-typed numeric fields of an extracted invoice
// into decimals. Money fields (total, subtotal, tax, per-item unit_price and
// total) are stripped of currency symbols and thousands separators; a field
// that still fails to parse stays raw, which downstream validators then skip.
// Quantity substitutes the fixed default 1.0 when unparseable — a missing or
// garbled quantity must not fail the pipeline.
//
// The stage is fail-open: it recovers from any panic and returns the input
// unmodified rather than aborting the run. The documented risk is that
// validators may then see uncoerced values.
func Coerce(inv *Invoice, logger *slog.Logger) (out *Invoice) {
	if logger == nil {
		logger = slog.Default()
	}
	if inv == nil {
		return nil
	}

	out = cloneInvoice(inv)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("coerce.recovered", "panic", r)
			out = cloneInvoice(inv)
		}
	}()

	out.Total = coerceMoney(out.Total)
	out.Subtotal = coerceMoney(out.Subtotal)
	out.Tax = coerceMoney(out.Tax)

	for i := range out.Items {
		item := &out.Items[i]
		item.UnitPrice = coerceMoney(item.UnitPrice)
		item.Total = coerceMoney(item.Total)
		item.Quantity = coerceQuantity(item.Quantity, logger)
	}
	return out
}

func coerceMoney(a *Amount) *Amount {
	if a.Empty() {
		return a
	}
	if a.Dec != nil {
		return a
	}
	if d, ok := parseMoney(a.Raw); ok {
		return &Amount{Raw: a.Raw, Dec: &d}
	}
	return a
}

func coerceQuantity(a *Amount, logger *slog.Logger) *Amount {
	if a != nil && a.Dec != nil {
		return a
	}
	raw := ""
	if a != nil {
		raw = a.Raw
	}
	if d, ok := parseNumber(raw); ok {
		return &Amount{Raw: raw, Dec: &d}
	}
	if raw != "" {
		logger.Warn("coerce.quantity_default", "raw", raw, "default", "1.0")
	}
	d := defaultQuantity
	return &Amount{Raw: raw, Dec: &d}
}

func cloneInvoice(inv *Invoice) *Invoice {
	c := *inv
	if inv.Items != nil {
		c.Items = make([]LineItem, len(inv.Items))
		copy(c.Items, inv.Items)
	}
	return &c
}
