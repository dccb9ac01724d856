package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bevscan/bevscan/internal/common"
	"github.com/bevscan/bevscan/internal/export"
	"github.com/bevscan/bevscan/internal/llm"
	"github.com/bevscan/bevscan/internal/ocr"
	"github.com/bevscan/bevscan/internal/pipeline"
	"github.com/bevscan/bevscan/internal/repository"
	"github.com/bevscan/bevscan/internal/server"
	"github.com/bevscan/bevscan/internal/validate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.Server.UploadDir, 0o755); err != nil {
		logger.Error("create upload dir", "dir", cfg.Server.UploadDir, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := repository.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// OCR engines: tesseract primary, easyocr fallback slot.
	tesseract := ocr.NewTesseract(ocr.TesseractConfig{
		Tesseract:            cfg.OCR.Tesseract,
		Pdftoppm:             cfg.OCR.Pdftoppm,
		Lang:                 cfg.OCR.TesseractLang,
		DPI:                  cfg.OCR.DPI,
		MaxPages:             cfg.OCR.MaxPages,
		TessdataDir:          cfg.OCR.TessdataDir,
		DisableTSVConfidence: !cfg.OCR.EnableTSVConfidence,
	}, logger)
	easyocr := ocr.NewEasyOCR(logger)

	engines := []ocr.Engine{tesseract, easyocr}
	if cfg.OCR.PrimaryEngine == "easyocr" {
		engines = []ocr.Engine{easyocr, tesseract}
	}
	manager := ocr.NewManager(engines, ocr.NewIdentityPreprocessor(), logger)

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
	logger.Info("llm.ready", "provider", backend.Name(), "model", backend.Model())

	// Startup model check: surface an empty or unreachable Ollama install
	// before the first parse request hits it.
	if o, ok := backend.(*llm.Ollama); ok {
		if models, err := o.ListModels(ctx); err != nil {
			logger.Warn("llm.models.list_failed", "error", err)
		} else {
			logger.Info("llm.models", "count", len(models), "models", models)
		}
	}

	// Validator state is database-backed so history survives restarts.
	chain := validate.NewChain(logger,
		validate.NewPriceValidator(repository.NewPriceHistory(pool), cfg.Validation.PriceChangeThreshold, logger),
		validate.NewDuplicateValidator(repository.NewInvoiceRegistry(pool), logger),
	)

	pl := pipeline.New(manager, backend, chain, llmCfg, logger)

	invoices := repository.NewInvoiceRepo(pool)
	vendors := repository.NewVendorRepo(pool)
	alerts := repository.NewAlertRepo(pool)
	exporter := export.NewService(invoices, logger)

	router := server.SetupRouter(server.Dependencies{
		InvoiceHandler: server.NewInvoiceHandler(invoices, vendors, alerts, pl, exporter, cfg.Server.UploadDir, cfg.Server.MaxFileSize, logger),
		AlertHandler:   server.NewAlertHandler(alerts, logger),
		HealthHandler:  server.NewHealthHandler(pool, pl, logger),
		Logger:         logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.serving", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
