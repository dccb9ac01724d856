package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// OpenAIConfig configures the hosted OpenAI adapter.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // default https://api.openai.com/v1
	Model       string // default "gpt-4o-mini"
	Temperature float32
	Timeout     time.Duration // default 120s
}

// OpenAI talks to the chat/completions endpoint with a JSON response format.
type OpenAI struct {
	cfg    OpenAIConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAI{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}, nil
}

func (c *OpenAI) Name() string  { return "openai" }
func (c *OpenAI) Model() string { return c.cfg.Model }

func (c *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":       c.cfg.Model,
		"temperature": c.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	}
	return c.chat(ctx, body)
}

func (c *OpenAI) GenerateStructured(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": "Return ONLY JSON that matches the provided schema."},
			{"role": "user", "content": prompt},
			{"role": "system", "content": "JSON Schema:\n" + string(schemaJSON)},
		},
	}
	content, err := c.chat(ctx, body)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("parse JSON response: %w", err)
	}
	return out, nil
}

func (c *OpenAI) chat(ctx context.Context, body map[string]any) (string, error) {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := SendJSON(ctx, c.http, url, body, headers, c.logger)
	if err != nil {
		return "", fmt.Errorf("openai api error: %w", err)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in openai response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}
