package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevscan/bevscan/internal/llm"
	"github.com/bevscan/bevscan/internal/ocr"
	"github.com/bevscan/bevscan/internal/validate"
)

type stubEngine struct {
	res ocr.Result
	err error
}

func (s *stubEngine) Name() string    { return "stub" }
func (s *stubEngine) Available() bool { return true }

func (s *stubEngine) Extract(_ context.Context, _ string) (ocr.Result, error) {
	return s.res, s.err
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Name() string  { return "stub-llm" }
func (s *stubLLM) Model() string { return "stub-model" }

func (s *stubLLM) Generate(_ context.Context, _ string) (string, error) {
	return s.response, s.err
}

func (s *stubLLM) GenerateStructured(_ context.Context, _ string, _ map[string]any) (map[string]any, error) {
	return nil, errors.New("not used")
}

const invoiceJSON = `{
	"vendor_name": "ACME Beverages",
	"invoice_number": "INV-42",
	"invoice_date": "2025-02-01",
	"items": [
		{"description": "Pale Ale Case", "quantity": "2", "unit_price": "$45.00", "total": "$90.00"}
	],
	"subtotal": "$90.00",
	"tax": "$7.20",
	"total": "$97.20"
}`

func newTestPipeline(t *testing.T, engine ocr.Engine, backend llm.Client) *Pipeline {
	t.Helper()
	manager := ocr.NewManager([]ocr.Engine{engine}, nil, nil)
	chain := validate.NewChain(nil,
		validate.NewPriceValidator(validate.NewMemoryPriceHistory(), 0.05, nil),
		validate.NewDuplicateValidator(validate.NewMemoryRegistry(), nil),
	)
	return New(manager, backend, chain, llm.Config{}, nil)
}

func tempInvoiceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "invoice.png")
	require.NoError(t, os.WriteFile(path, []byte("image bytes"), 0o644))
	return path
}

func TestParseInvoiceHappyPath(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "ACME invoice text", Confidence: 0.8}}
	backend := &stubLLM{response: "Here you go: " + invoiceJSON}
	p := newTestPipeline(t, engine, backend)

	res := p.ParseInvoice(context.Background(), Request{FilePath: tempInvoiceFile(t)})

	require.True(t, res.Success, "pipeline failed: %s / %s", res.Error, res.Details)
	assert.Equal(t, "ACME invoice text", res.RawText)
	assert.InDelta(t, 0.8, res.OCRConfidence, 1e-9)
	assert.InDelta(t, 0.9, res.LLMConfidence, 1e-9)
	assert.InDelta(t, 0.85, res.ConfidenceScore, 1e-9, "overall confidence averages OCR and extraction")

	require.NotNil(t, res.ParsedData)
	assert.Equal(t, "ACME Beverages", res.ParsedData.VendorName)
	require.NotNil(t, res.ParsedData.Total.Dec, "money fields are coerced")
	assert.True(t, res.ParsedData.Total.Dec.Equal(decimal.NewFromFloat(97.2)))
	require.Len(t, res.ParsedData.Items, 1)
	require.NotNil(t, res.ParsedData.Items[0].Quantity.Dec)

	assert.Empty(t, res.Alerts)
	assert.False(t, res.Timestamp.IsZero())
}

func TestParseInvoiceOCRFailure(t *testing.T) {
	engine := &stubEngine{err: errors.New("tesseract blew up")}
	p := newTestPipeline(t, engine, &stubLLM{response: invoiceJSON})

	res := p.ParseInvoice(context.Background(), Request{FilePath: tempInvoiceFile(t)})

	assert.False(t, res.Success)
	assert.Equal(t, "OCR extraction failed", res.Error)
	assert.Contains(t, res.Details, "tesseract blew up")
	assert.Nil(t, res.ParsedData)
}

func TestParseInvoiceUnsupportedFile(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "x", Confidence: 1}}
	p := newTestPipeline(t, engine, &stubLLM{response: invoiceJSON})

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("text"), 0o644))

	res := p.ParseInvoice(context.Background(), Request{FilePath: path})

	assert.False(t, res.Success)
	assert.Equal(t, "OCR extraction failed", res.Error)
}

func TestParseInvoiceExtractionFailure(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "text", Confidence: 0.9}}
	backend := &stubLLM{response: "I cannot read this invoice, sorry."}
	p := newTestPipeline(t, engine, backend)

	res := p.ParseInvoice(context.Background(), Request{FilePath: tempInvoiceFile(t)})

	assert.False(t, res.Success)
	assert.Equal(t, "LLM extraction failed", res.Error)
	assert.NotEmpty(t, res.Details)
}

func TestParseInvoiceIncompleteSchemaAborts(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "text", Confidence: 0.9}}
	backend := &stubLLM{response: `{"vendor_name": "ACME"}`}
	p := newTestPipeline(t, engine, backend)

	res := p.ParseInvoice(context.Background(), Request{FilePath: tempInvoiceFile(t)})

	assert.False(t, res.Success)
	assert.Equal(t, "LLM extraction failed", res.Error)
}

func TestParseInvoiceValidationNeverAborts(t *testing.T) {
	// total mismatch and a duplicate resubmission both produce alerts, yet the
	// run stays successful
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "text", Confidence: 0.8}}
	mismatched := `{
		"vendor_name": "ACME",
		"invoice_number": "INV-1",
		"invoice_date": "2025-01-01",
		"subtotal": "90.00",
		"tax": "5.00",
		"total": "99.00"
	}`
	p := newTestPipeline(t, engine, &stubLLM{response: mismatched})
	path := tempInvoiceFile(t)

	res := p.ParseInvoice(context.Background(), Request{FilePath: path})
	require.True(t, res.Success)
	assert.NotEmpty(t, res.Alerts)

	res = p.ParseInvoice(context.Background(), Request{FilePath: path})
	require.True(t, res.Success)

	var sawDuplicate bool
	for _, a := range res.Alerts {
		if a.Type == "duplicate_invoice_number" {
			sawDuplicate = true
		}
	}
	assert.True(t, sawDuplicate)
}

func TestParseInvoiceUnknownProviderOverride(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "text", Confidence: 0.8}}
	p := newTestPipeline(t, engine, &stubLLM{response: invoiceJSON})

	res := p.ParseInvoice(context.Background(), Request{
		FilePath: tempInvoiceFile(t),
		Provider: "acme-llm",
	})

	assert.False(t, res.Success)
	assert.Equal(t, "Pipeline processing failed", res.Error)
	assert.Contains(t, res.Details, "unsupported LLM provider")
}

func TestStats(t *testing.T) {
	engine := &stubEngine{res: ocr.Result{Success: true, Text: "text", Confidence: 0.8}}
	p := newTestPipeline(t, engine, &stubLLM{response: invoiceJSON})

	p.ParseInvoice(context.Background(), Request{FilePath: tempInvoiceFile(t)})

	stats := p.Stats()
	assert.Equal(t, 1, stats.OCR.TotalProcessed)
	assert.Equal(t, "stub-llm", stats.LLMProvider)
	assert.Equal(t, "stub-model", stats.LLMModel)
	assert.Equal(t, []string{"price_validator", "duplicate_validator"}, stats.Validators)
}
