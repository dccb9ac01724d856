package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bevscan/bevscan/constants"
)

// Vendor is a supplier row. Vendors are created lazily the first time an
// invoice names them.
type Vendor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Invoice is a persisted invoice row plus its line items.
type Invoice struct {
	ID              uuid.UUID               `json:"id"`
	VendorID        *uuid.UUID              `json:"vendor_id,omitempty"`
	VendorName      string                  `json:"vendor_name,omitempty"`
	InvoiceNumber   string                  `json:"invoice_number,omitempty"`
	InvoiceDate     string                  `json:"invoice_date,omitempty"`
	DueDate         string                  `json:"due_date,omitempty"`
	Subtotal        *decimal.Decimal        `json:"subtotal,omitempty"`
	Tax             *decimal.Decimal        `json:"tax,omitempty"`
	Total           *decimal.Decimal        `json:"total,omitempty"`
	Status          constants.InvoiceStatus `json:"status"`
	FilePath        string                  `json:"file_path"`
	RawText         string                  `json:"raw_text,omitempty"`
	ConfidenceScore *float64                `json:"confidence_score,omitempty"`
	Items           []InvoiceItem           `json:"items,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// InvoiceItem is one line of a persisted invoice.
type InvoiceItem struct {
	ID          uuid.UUID        `json:"id"`
	InvoiceID   uuid.UUID        `json:"invoice_id"`
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity,omitempty"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty"`
	Total       *decimal.Decimal `json:"total,omitempty"`
}

// AlertRecord is a persisted validation alert.
type AlertRecord struct {
	ID         uuid.UUID      `json:"id"`
	InvoiceID  *uuid.UUID     `json:"invoice_id,omitempty"`
	Type       string         `json:"type"`
	Message    string         `json:"message"`
	Severity   string         `json:"severity"`
	Details    map[string]any `json:"details,omitempty"`
	Status     string         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
}
