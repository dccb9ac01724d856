package validate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/extract"
)

func TestDuplicateFirstSightClean(t *testing.T) {
	v := NewDuplicateValidator(NewMemoryRegistry(), nil)

	inv := &extract.Invoice{VendorName: "ACME", InvoiceNumber: "INV-001"}
	alerts, err := v.Validate(context.Background(), inv)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDuplicateSecondSightFlagged(t *testing.T) {
	v := NewDuplicateValidator(NewMemoryRegistry(), nil)
	inv := &extract.Invoice{VendorName: "ACME", InvoiceNumber: "INV-001"}

	_, err := v.Validate(context.Background(), inv)
	require.NoError(t, err)

	alerts, err := v.Validate(context.Background(), inv)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, constants.AlertDuplicateInvoice, alerts[0].Type)
	assert.Equal(t, constants.SeverityHigh, alerts[0].Severity)
	assert.Equal(t, "INV-001", alerts[0].Details["invoice_number"])
}

func TestDuplicateScopedToVendor(t *testing.T) {
	v := NewDuplicateValidator(NewMemoryRegistry(), nil)

	_, err := v.Validate(context.Background(), &extract.Invoice{VendorName: "ACME", InvoiceNumber: "7"})
	require.NoError(t, err)

	alerts, err := v.Validate(context.Background(), &extract.Invoice{VendorName: "Globex", InvoiceNumber: "7"})
	require.NoError(t, err)
	assert.Empty(t, alerts, "same number from a different vendor is not a duplicate")
}

func TestMissingInvoiceNumber(t *testing.T) {
	reg := NewMemoryRegistry()
	v := NewDuplicateValidator(reg, nil)

	inv := &extract.Invoice{VendorName: "ACME"}
	alerts, err := v.Validate(context.Background(), inv)
	require.NoError(t, err)

	require.Len(t, alerts, 1)
	assert.Equal(t, constants.AlertMissingInvoiceNumber, alerts[0].Type)
	assert.Equal(t, constants.SeverityHigh, alerts[0].Severity)

	// nothing was recorded: a later invoice with a real number is clean
	alerts, err = v.Validate(context.Background(), &extract.Invoice{VendorName: "ACME", InvoiceNumber: "1"})
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestDuplicateUnknownVendorBucketed(t *testing.T) {
	v := NewDuplicateValidator(NewMemoryRegistry(), nil)

	_, err := v.Validate(context.Background(), &extract.Invoice{InvoiceNumber: "X-1"})
	require.NoError(t, err)

	alerts, err := v.Validate(context.Background(), &extract.Invoice{InvoiceNumber: "X-1"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Unknown", alerts[0].Details["vendor"])
}
