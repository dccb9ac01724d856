package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PromptSchema is the literal field-to-type-hint mapping embedded in the
// extraction prompt. The "number (not string)" hints push models away from
// quoting numeric fields. Field names are an external contract.
func PromptSchema() map[string]any {
	return map[string]any{
		"vendor_name":    "string",
		"invoice_number": "string",
		"invoice_date":   "YYYY-MM-DD",
		"due_date":       "YYYY-MM-DD or null",
		"items": []any{
			map[string]any{
				"description": "string",
				"quantity":    "number (not string)",
				"unit_price":  "number (not string)",
				"total":       "number (not string)",
			},
		},
		"subtotal": "number (not string)",
		"tax":      "number (not string)",
		"total":    "number (not string)",
	}
}

// structureSchema is the JSON-Schema used to check structural completeness
// of a recovered object: required top-level fields present, items elements
// shaped as objects carrying at least description and total.
func structureSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"vendor_name", "invoice_number", "invoice_date", "total"},
		"properties": map[string]any{
			"vendor_name":    map[string]any{"type": "string", "minLength": 1},
			"invoice_number": map[string]any{},
			"invoice_date":   map[string]any{},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"description", "total"},
				},
			},
		},
	}
}

// compileSchema compiles a generic schema map with jsonschema.
func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
