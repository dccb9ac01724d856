package constants

// Alert severities. Stable values, stored as-is in the alerts table.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Alert types emitted by the validation chain.
const (
	AlertPriceDiscrepancy     = "price_discrepancy"
	AlertUnusualPrice         = "unusual_price"
	AlertTotalMismatch        = "total_mismatch"
	AlertHighTotal            = "high_total"
	AlertMissingInvoiceNumber = "missing_invoice_number"
	AlertDuplicateInvoice     = "duplicate_invoice_number"
	AlertValidationError      = "validation_error"
)

// Alert lifecycle statuses.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
)

// InvoiceStatus is the canonical status for rows in invoices.
type InvoiceStatus string

// Stable values (store these exact strings in DB).
const (
	InvoiceStatusUploaded InvoiceStatus = "uploaded" // file stored, not parsed yet
	InvoiceStatusParsed   InvoiceStatus = "parsed"   // pipeline completed
	InvoiceStatusFailed   InvoiceStatus = "failed"   // pipeline aborted
)
