package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/bevscan/bevscan/internal/llm"
)

// ExtractionConfidence is the fixed confidence reported for a successful
// structured extraction. It is a design constant, not a measured score;
// callers must not read graded reliability into it beyond "recovered a
// well-formed record".
const ExtractionConfidence = 0.9

// Failure taxonomy for structured extraction. All three abort the pipeline.
var (
	ErrNoJSONFound      = errors.New("no JSON found in response")
	ErrMalformedJSON    = errors.New("malformed JSON in response")
	ErrIncompleteSchema = errors.New("invalid data structure returned by LLM")
)

// Client turns normalized invoice text into a structured Invoice using a
// provider-agnostic LLM backend.
type Client struct {
	llm    llm.Client
	logger *slog.Logger
}

func NewClient(backend llm.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{llm: backend, logger: logger}
}

// Backend exposes the provider for telemetry.
func (c *Client) Backend() llm.Client { return c.llm }

// Extract sends the schema-annotated prompt, recovers the JSON object from
// the free-form response, checks structural completeness and decodes the
// invoice. On success the confidence is the fixed ExtractionConfidence.
func (c *Client) Extract(ctx context.Context, text string) (*Invoice, float64, error) {
	rid := uuid.New().String()
	start := time.Now()

	c.logger.Info("llm.extract.start",
		"req_id", rid,
		"provider", c.llm.Name(),
		"model", c.llm.Model(),
		"text_len", len(text),
	)

	prompt, err := BuildPrompt(text)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		c.logger.Error("llm.extract.generate_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, err
	}

	raw, err := RecoverJSON(resp)
	if err != nil {
		c.logger.Error("llm.extract.recover_failed",
			"req_id", rid, "error", err,
			"response_head", truncate(resp, 200),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, err
	}

	if err := checkCompleteness(raw); err != nil {
		c.logger.Error("llm.extract.incomplete",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, 0, err
	}

	var inv Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	c.logger.Info("llm.extract.ok",
		"req_id", rid,
		"vendor", inv.VendorName,
		"invoice_number", inv.InvoiceNumber,
		"items", len(inv.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &inv, ExtractionConfidence, nil
}

// BuildPrompt embeds the literal schema hints and the normalized text.
func BuildPrompt(text string) (string, error) {
	schemaJSON, err := json.MarshalIndent(PromptSchema(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("Extract the following information from this invoice text in valid JSON format:\n\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nInvoice text:\n")
	b.WriteString(text)
	b.WriteString("\n\nImportant: Respond only with valid JSON. Do not include any explanations or additional text.")
	return b.String(), nil
}

// RecoverJSON carves the JSON object out of a free-form model response:
// the substring from the first '{' to the last '}'. If the first parse
// fails, one repair pass re-trims around the braces and retries once.
func RecoverJSON(resp string) (json.RawMessage, error) {
	start := strings.Index(resp, "{")
	if start < 0 {
		return nil, ErrNoJSONFound
	}
	end := strings.LastIndex(resp, "}")
	if end < start {
		return nil, ErrNoJSONFound
	}

	candidate := resp[start : end+1]
	if json.Valid([]byte(candidate)) {
		return json.RawMessage(candidate), nil
	}

	// repair pass: strip anything outside the outermost braces and retry
	repaired := strings.TrimSpace(candidate)
	if i := strings.Index(repaired, "{"); i > 0 {
		repaired = repaired[i:]
	}
	if i := strings.LastIndex(repaired, "}"); i >= 0 {
		repaired = repaired[:i+1]
	}
	if json.Valid([]byte(repaired)) {
		return json.RawMessage(repaired), nil
	}
	return nil, ErrMalformedJSON
}

// checkCompleteness validates the recovered object's structure: the schema
// shape first, then non-emptiness of the required fields (jsonschema cannot
// express "present and non-empty" across string/number types).
func checkCompleteness(raw json.RawMessage) error {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	if err := invoiceStructure.Validate(m); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompleteSchema, err)
	}

	for _, field := range []string{"vendor_name", "invoice_number", "invoice_date", "total"} {
		v, ok := m[field]
		if !ok || v == nil {
			return fmt.Errorf("%w: missing %s", ErrIncompleteSchema, field)
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: empty %s", ErrIncompleteSchema, field)
		}
		// zero counts as absent for required numerics: a 0 total is an
		// extraction failure, not an invoice
		if f, isNum := v.(float64); isNum && f == 0 {
			return fmt.Errorf("%w: empty %s", ErrIncompleteSchema, field)
		}
	}
	return nil
}

var invoiceStructure = mustCompile()

func mustCompile() *jsonschema.Schema {
	s, err := compileSchema(structureSchema())
	if err != nil {
		panic(fmt.Sprintf("extract: compile structure schema: %v", err))
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
