package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// VendorRepo persists vendors keyed by their unique name.
type VendorRepo struct {
	pool *pgxpool.Pool
}

func NewVendorRepo(pool *pgxpool.Pool) *VendorRepo {
	return &VendorRepo{pool: pool}
}

// GetOrCreate returns the vendor with the given name, inserting it on first
// sight. The upsert keeps concurrent first-sights from racing.
func (r *VendorRepo) GetOrCreate(ctx context.Context, name string) (*Vendor, error) {
	if name == "" {
		name = "Unknown"
	}

	query := `
		INSERT INTO vendors (name)
		VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, name, created_at`

	v := &Vendor{}
	if err := r.pool.QueryRow(ctx, query, name).Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		return nil, fmt.Errorf("get or create vendor: %w", err)
	}
	return v, nil
}

// Get returns a vendor by id.
func (r *VendorRepo) Get(ctx context.Context, id uuid.UUID) (*Vendor, error) {
	query := `SELECT id, name, created_at FROM vendors WHERE id = $1`

	v := &Vendor{}
	if err := r.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.Name, &v.CreatedAt); err != nil {
		return nil, mapNotFound(err, "vendor")
	}
	return v, nil
}
