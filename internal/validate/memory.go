package validate

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// MemoryRegistry is a mutex-guarded in-memory Registry. It is the default
// for single-process deployments and tests; production setups inject the
// database-backed registry so duplicates survive restarts.
type MemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{seen: make(map[string]struct{})}
}

func (r *MemoryRegistry) Seen(_ context.Context, vendor, invoiceNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[vendor+":"+invoiceNumber]
	return ok, nil
}

func (r *MemoryRegistry) Record(_ context.Context, vendor, invoiceNumber string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[vendor+":"+invoiceNumber] = struct{}{}
	return nil
}

// Clear drops all recorded keys (for tests).
func (r *MemoryRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = make(map[string]struct{})
}

// MemoryPriceHistory is a mutex-guarded in-memory PriceHistory keyed by
// vendor and item description.
type MemoryPriceHistory struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
}

func NewMemoryPriceHistory() *MemoryPriceHistory {
	return &MemoryPriceHistory{prices: make(map[string]decimal.Decimal)}
}

func (h *MemoryPriceHistory) Lookup(_ context.Context, vendor, description string) (decimal.Decimal, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	d, ok := h.prices[vendor+":"+description]
	return d, ok, nil
}

// Set records a price point for later lookups.
func (h *MemoryPriceHistory) Set(vendor, description string, price decimal.Decimal) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prices[vendor+":"+description] = price
}
