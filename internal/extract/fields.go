package extract

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a numeric invoice field as the model returned it. Raw preserves
// the literal output (models emit strings and numbers interchangeably for
// OCR-noisy values); Dec is only set by the coercion stage. Validators must
// read Dec, never Raw.
type Amount struct {
	Raw string
	Dec *decimal.Decimal
}

// UnmarshalJSON accepts a JSON string, number or null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		a.Raw = s
		return nil
	}
	a.Raw = string(b)
	return nil
}

// MarshalJSON emits the coerced value as a number when present, otherwise
// the raw string, otherwise null.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Dec != nil {
		return []byte(a.Dec.String()), nil
	}
	if a.Raw != "" {
		return json.Marshal(a.Raw)
	}
	return []byte("null"), nil
}

// Empty reports whether the field carries neither a raw nor a coerced value.
func (a *Amount) Empty() bool {
	return a == nil || (a.Raw == "" && a.Dec == nil)
}

// Float returns the coerced value as float64, or 0 when unset.
func (a *Amount) Float() float64 {
	if a == nil || a.Dec == nil {
		return 0
	}
	f, _ := a.Dec.Float64()
	return f
}

func (a *Amount) String() string {
	if a == nil {
		return ""
	}
	if a.Dec != nil {
		return a.Dec.String()
	}
	return a.Raw
}

// LineItem is one invoice line. Quantity, UnitPrice and Total are numeric
// after coercion (quantity defaults to 1.0 when unparseable).
type LineItem struct {
	Description string  `json:"description"`
	Quantity    *Amount `json:"quantity,omitempty"`
	UnitPrice   *Amount `json:"unit_price,omitempty"`
	Total       *Amount `json:"total,omitempty"`
}

// Invoice is the structured record recovered from the LLM. Field names are
// part of the external schema contract and must not be renamed.
type Invoice struct {
	VendorName    string     `json:"vendor_name"`
	InvoiceNumber string     `json:"invoice_number"`
	InvoiceDate   string     `json:"invoice_date"` // YYYY-MM-DD
	DueDate       string     `json:"due_date,omitempty"`
	Items         []LineItem `json:"items,omitempty"`
	Subtotal      *Amount    `json:"subtotal,omitempty"`
	Tax           *Amount    `json:"tax,omitempty"`
	Total         *Amount    `json:"total,omitempty"`
}

// parseMoney strips currency symbols and thousands separators and parses the
// remainder as a decimal.
func parseMoney(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	s = moneyCleaner.Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

var moneyCleaner = strings.NewReplacer(
	"$", "",
	"£", "",
	"€", "",
	",", "",
	" ", "",
)

// parseNumber parses a plain numeric string (used for quantities).
func parseNumber(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
