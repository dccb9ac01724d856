package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "tesseract", cfg.OCR.PrimaryEngine)
	assert.Equal(t, "eng", cfg.OCR.TesseractLang)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.05, cfg.Validation.PriceChangeThreshold, 1e-9)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("OCR_DPI", "150")
	t.Setenv("LLM_TIMEOUT", "30s")
	t.Setenv("PRICE_CHANGE_THRESHOLD", "0.1")
	t.Setenv("OCR_TSV_CONFIDENCE", "false")

	cfg := LoadConfig()

	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, 150, cfg.OCR.DPI)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.InDelta(t, 0.1, cfg.Validation.PriceChangeThreshold, 1e-9)
	assert.False(t, cfg.OCR.EnableTSVConfidence)
}

func TestLoadConfigIgnoresGarbage(t *testing.T) {
	t.Setenv("OCR_DPI", "not-a-number")
	t.Setenv("LLM_TIMEOUT", "soon")

	cfg := LoadConfig()

	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 120*time.Second, cfg.LLM.Timeout)
}

func TestValidateRequiresDSN(t *testing.T) {
	cfg := LoadConfig()
	cfg.Database.DSN = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	cfg.Database.DSN = "postgres://localhost/bevscan"
	assert.NoError(t, cfg.Validate())
}
