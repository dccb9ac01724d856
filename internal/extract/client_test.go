package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM scripts one Generate response (or error) per client.
type fakeLLM struct {
	response string
	err      error
	prompt   string
}

func (f *fakeLLM) Name() string  { return "fake" }
func (f *fakeLLM) Model() string { return "fake-model" }

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.response, f.err
}

func (f *fakeLLM) GenerateStructured(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
	return nil, errors.New("not used")
}

const completeInvoiceJSON = `{
	"vendor_name": "ACME Beverages",
	"invoice_number": "INV-001",
	"invoice_date": "2025-01-15",
	"items": [
		{"description": "Craft IPA Case", "quantity": "2", "unit_price": "45.00", "total": "90.00"}
	],
	"subtotal": "90.00",
	"tax": "7.20",
	"total": "97.20"
}`

func TestExtractHappyPath(t *testing.T) {
	backend := &fakeLLM{response: "Here is the data:\n" + completeInvoiceJSON + "\nHope that helps!"}
	c := NewClient(backend, nil)

	inv, conf, err := c.Extract(context.Background(), "INVOICE TEXT: ...")
	require.NoError(t, err)
	assert.Equal(t, ExtractionConfidence, conf)
	assert.Equal(t, "ACME Beverages", inv.VendorName)
	assert.Equal(t, "INV-001", inv.InvoiceNumber)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Craft IPA Case", inv.Items[0].Description)
	assert.Equal(t, "97.20", inv.Total.Raw)
}

func TestExtractPromptContainsTextAndSchema(t *testing.T) {
	backend := &fakeLLM{response: completeInvoiceJSON}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "the normalized invoice body")
	require.NoError(t, err)
	assert.Contains(t, backend.prompt, "the normalized invoice body")
	assert.Contains(t, backend.prompt, "vendor_name")
	assert.Contains(t, backend.prompt, "Respond only with valid JSON")
}

func TestExtractGenerateFailure(t *testing.T) {
	backend := &fakeLLM{err: errors.New("connection refused")}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "text")
	assert.ErrorContains(t, err, "connection refused")
}

func TestExtractNoJSON(t *testing.T) {
	backend := &fakeLLM{response: "I could not find any invoice data in this text."}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestExtractMissingRequiredField(t *testing.T) {
	backend := &fakeLLM{response: `{"vendor_name": "ACME", "invoice_number": "1", "invoice_date": "2025-01-01"}`}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrIncompleteSchema)
}

func TestExtractEmptyRequiredField(t *testing.T) {
	backend := &fakeLLM{response: `{"vendor_name": "  ", "invoice_number": "1", "invoice_date": "2025-01-01", "total": "10.00"}`}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrIncompleteSchema)
}

func TestExtractZeroTotalRejected(t *testing.T) {
	backend := &fakeLLM{response: `{"vendor_name": "ACME", "invoice_number": "1", "invoice_date": "2025-01-01", "total": 0}`}
	c := NewClient(backend, nil)

	_, _, err := c.Extract(context.Background(), "text")
	assert.ErrorIs(t, err, ErrIncompleteSchema)
}

func TestRecoverJSONCarvesProse(t *testing.T) {
	raw, err := RecoverJSON(`Sure! Here you go: {"a": 1} Let me know if you need anything else.`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, string(raw))
}

func TestRecoverJSONNoBraces(t *testing.T) {
	_, err := RecoverJSON("no json here")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestRecoverJSONReversedBraces(t *testing.T) {
	_, err := RecoverJSON("} backwards {")
	assert.ErrorIs(t, err, ErrNoJSONFound)
}

func TestRecoverJSONMalformed(t *testing.T) {
	_, err := RecoverJSON(`{"a": }`)
	assert.ErrorIs(t, err, ErrMalformedJSON)
}

func TestRecoverJSONNestedObjects(t *testing.T) {
	raw, err := RecoverJSON(`{"outer": {"inner": 2}}`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"outer": {"inner": 2}}`, string(raw))
}
