package llm

import (
	"fmt"
	"log/slog"
	"time"
)

// Config is the tagged provider selection resolved once at startup.
// A hosted provider without a credential resolves to the local Ollama
// fallback; the substitution is logged, never silent.
type Config struct {
	Provider string // "ollama" | "openai" | "anthropic" | "huggingface"
	Model    string // provider-specific model name; "" uses the provider default

	OpenAIKey     string
	AnthropicKey  string
	OpenAIBaseURL string
	OllamaBaseURL string
	Temperature   float32
	Timeout       time.Duration
}

// Resolve builds the provider client for the configuration. The decision is
// final for the returned client; callers wanting a different provider resolve
// again with a modified config.
func Resolve(cfg Config, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Provider {
	case "", "ollama":
		return newOllamaFrom(cfg, logger), nil

	case "openai":
		if cfg.OpenAIKey == "" {
			logger.Warn("llm.factory.fallback",
				"requested", "openai",
				"resolved", "ollama",
				"reason", "no API key configured",
			)
			return newOllamaFrom(cfg, logger), nil
		}
		return NewOpenAI(OpenAIConfig{
			APIKey:      cfg.OpenAIKey,
			BaseURL:     cfg.OpenAIBaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)

	case "anthropic", "huggingface":
		// No native adapter yet; resolve to the local fallback loudly so the
		// substitution shows up in telemetry.
		logger.Warn("llm.factory.fallback",
			"requested", cfg.Provider,
			"resolved", "ollama",
			"reason", "provider adapter not implemented",
		)
		return newOllamaFrom(cfg, logger), nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

func newOllamaFrom(cfg Config, logger *slog.Logger) *Ollama {
	model := cfg.Model
	if cfg.Provider != "" && cfg.Provider != "ollama" {
		// a hosted model name is meaningless to Ollama; use its default
		model = ""
	}
	return NewOllama(OllamaConfig{
		BaseURL: cfg.OllamaBaseURL,
		Model:   model,
		Timeout: cfg.Timeout,
	}, logger)
}
