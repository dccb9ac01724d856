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

// OllamaConfig configures the local Ollama adapter.
type OllamaConfig struct {
	BaseURL string        // default http://localhost:11434
	Model   string        // default "llama3.2"
	Timeout time.Duration // default 120s; local models are slow on CPU
}

// Ollama talks to a local Ollama server over its /api/generate endpoint.
type Ollama struct {
	cfg    OllamaConfig
	http   *http.Client
	logger *slog.Logger
}

func NewOllama(cfg OllamaConfig, logger *slog.Logger) *Ollama {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ollama{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

func (o *Ollama) Name() string  { return "ollama" }
func (o *Ollama) Model() string { return o.cfg.Model }

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"model":  o.cfg.Model,
		"prompt": prompt,
		"stream": false,
	}
	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/api/generate"

	raw, _, err := SendJSON(ctx, o.http, url, body, nil, o.logger)
	if err != nil {
		return "", fmt.Errorf("ollama api error: %w", err)
	}

	var resp struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	return resp.Response, nil
}

func (o *Ollama) GenerateStructured(ctx context.Context, prompt string, schema map[string]any) (map[string]any, error) {
	return structuredFromText(ctx, o, prompt, schema)
}

// ListModels returns the model tags known to the local server.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	url := strings.TrimRight(o.cfg.BaseURL, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama api error: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("ollama api error: status %d", resp.StatusCode)
	}

	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama tags: %w", err)
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
