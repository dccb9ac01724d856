package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Client is the capability surface the structured-extraction layer depends
// on. Provider adapters implement it; selection happens once at startup via
// Resolve.
type Client interface {
	// Name identifies the provider ("ollama", "openai", ...).
	Name() string
	// Model is the configured model identifier, for telemetry.
	Model() string
	// Generate produces a free-text completion for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStructured produces a JSON object following the schema hints.
	GenerateStructured(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error)
}

// structuredFromText is the shared provider implementation of
// GenerateStructured: append schema instructions, generate free text and
// carve the JSON object out of the response.
func structuredFromText(ctx context.Context, c Client, prompt string, schema map[string]any) (map[string]any, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nPlease respond with valid JSON following this schema:\n")
	b.Write(schemaJSON)
	b.WriteString("\n\nResponse:\n")

	text, err := c.Generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON found in response")
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	return out, nil
}
