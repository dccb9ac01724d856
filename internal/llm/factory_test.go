package llm

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDefaultIsOllama(t *testing.T) {
	client, err := Resolve(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ollama", client.Name())
}

func TestResolveOpenAIWithKey(t *testing.T) {
	client, err := Resolve(Config{Provider: "openai", OpenAIKey: "sk-test", Model: "gpt-4o-mini"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "openai", client.Name())
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestResolveOpenAIWithoutKeyFallsBackLoudly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	client, err := Resolve(Config{Provider: "openai", Model: "gpt-4o-mini"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "ollama", client.Name())
	assert.Contains(t, buf.String(), "llm.factory.fallback", "the substitution must be logged")
	assert.NotEqual(t, "gpt-4o-mini", client.Model(), "hosted model name is dropped on fallback")
}

func TestResolveAnthropicFallsBackLoudly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	client, err := Resolve(Config{Provider: "anthropic"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "ollama", client.Name())
	assert.Contains(t, buf.String(), "llm.factory.fallback")
}

func TestResolveUnknownProvider(t *testing.T) {
	_, err := Resolve(Config{Provider: "acme-llm"}, nil)
	assert.ErrorContains(t, err, "unsupported LLM provider")
}

func TestResolveOllamaKeepsModel(t *testing.T) {
	client, err := Resolve(Config{Provider: "ollama", Model: "mistral"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mistral", client.Model())
}
