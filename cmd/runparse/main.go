package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/llm"
	"github.com/bevscan/bevscan/internal/ocr"
	"github.com/bevscan/bevscan/internal/pipeline"
	"github.com/bevscan/bevscan/internal/validate"
)

// runparse runs the full extraction pipeline over a single file and prints
// the result as JSON. Validator state is in-memory, so price and duplicate
// checks only see what this invocation feeds them.
func main() {
	var (
		filePath = flag.String("file", "", "document to parse (required)")
		provider = flag.String("provider", "", "LLM provider override")
		model    = flag.String("model", "", "LLM model override")
		timeout  = flag.Duration("timeout", 5*time.Minute, "overall deadline")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if *filePath == "" {
		logger.Error("usage", "cmd", "runparse -file <path> [-provider ollama|openai] [-model name]")
		os.Exit(2)
	}

	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		Tesseract:            cfg.OCR.Tesseract,
		Pdftoppm:             cfg.OCR.Pdftoppm,
		Lang:                 cfg.OCR.TesseractLang,
		DPI:                  cfg.OCR.DPI,
		MaxPages:             cfg.OCR.MaxPages,
		TessdataDir:          cfg.OCR.TessdataDir,
		DisableTSVConfidence: !cfg.OCR.EnableTSVConfidence,
	}, logger)
	manager := ocr.NewManager(
		[]ocr.Engine{tesseract, ocr.NewEasyOCR(logger)},
		ocr.NewIdentityPreprocessor(),
		logger,
	)

	llmCfg := llm.Config{
		Provider:      cfg.LLM.Provider,
		Model:         cfg.LLM.Model,
		OpenAIKey:     cfg.LLM.OpenAIKey,
		AnthropicKey:  cfg.LLM.AnthropicKey,
		OpenAIBaseURL: cfg.LLM.OpenAIBaseURL,
		OllamaBaseURL: cfg.LLM.OllamaBaseURL,
		Temperature:   cfg.LLM.Temperature,
		Timeout:       cfg.LLM.Timeout,
	}
	backend, err := llm.Resolve(llmCfg, logger)
	if err != nil {
		logger.Error("resolve llm backend", "error", err)
		os.Exit(1)
	}

	chain := validate.NewChain(logger,
		validate.NewPriceValidator(validate.NewMemoryPriceHistory(), cfg.Validation.PriceChangeThreshold, logger),
		validate.NewDuplicateValidator(validate.NewMemoryRegistry(), logger),
	)

	pl := pipeline.New(manager, backend, chain, llmCfg, logger)
	result := pl.ParseInvoice(ctx, pipeline.Request{
		FilePath: *filePath,
		Provider: *provider,
		Model:    *model,
	})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		logger.Error("encode result", "error", err)
		os.Exit(1)
	}
	if !result.Success {
		os.Exit(1)
	}
}
