package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bevscan/bevscan/internal/extract"
	"github.com/bevscan/bevscan/internal/llm"
	"github.com/bevscan/bevscan/internal/ocr"
	"github.com/bevscan/bevscan/internal/validate"
)

// Stage abort messages. Only the OCR and structured-extraction stages are
// fatal to a run; everything downstream degrades into defaults or alerts.
const (
	errOCRFailed      = "OCR extraction failed"
	errExtractFailed  = "LLM extraction failed"
	errPipelineFailed = "Pipeline processing failed"
)

// Request identifies a document to parse. Provider and Model override the
// configured LLM backend for this run only; empty values use the default.
type Request struct {
	FilePath string
	Provider string
	Model    string
}

// Pipeline sequences OCR, normalization, structured extraction, type
// coercion and validation. Stages run strictly forward; no stage re-enters
// an earlier one.
type Pipeline struct {
	manager   *ocr.Manager
	extractor *extract.Client
	chain     *validate.Chain
	llmConfig llm.Config
	logger    *slog.Logger
}

func New(manager *ocr.Manager, backend llm.Client, chain *validate.Chain, llmConfig llm.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		manager:   manager,
		extractor: extract.NewClient(backend, logger),
		chain:     chain,
		llmConfig: llmConfig,
		logger:    logger,
	}
}

// ParseInvoice runs the full pipeline for one document. It always returns a
// Result; stage failures and internal panics are reported in it, never
// raised.
func (p *Pipeline) ParseInvoice(ctx context.Context, req Request) (res *Result) {
	start := time.Now()
	p.logger.Info("pipeline.start", "path", req.FilePath, "provider_override", req.Provider, "model_override", req.Model)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline.panic", "path", req.FilePath, "panic", r)
			res = failure(errPipelineFailed, fmt.Sprintf("%v", r))
		}
	}()

	extractor, err := p.resolveExtractor(req)
	if err != nil {
		return failure(errPipelineFailed, err.Error())
	}

	// Stage 1: OCR
	ocrRes := p.manager.Extract(ctx, req.FilePath)
	if !ocrRes.Success {
		p.logger.Error("pipeline.ocr.failed", "path", req.FilePath, "error", ocrRes.Err)
		return failure(errOCRFailed, ocrRes.Error())
	}
	p.logger.Info("pipeline.ocr.ok",
		"path", req.FilePath,
		"engine", ocrRes.Engine,
		"confidence", ocrRes.Confidence,
		"text_len", len(ocrRes.Text),
	)

	// Stage 2: normalization (deterministic, lossy)
	normalized := extract.Normalize(ocrRes.Text)

	// Stage 3: structured extraction
	parsed, llmConfidence, err := extractor.Extract(ctx, normalized)
	if err != nil {
		p.logger.Error("pipeline.extract.failed", "path", req.FilePath, "error", err)
		return failure(errExtractFailed, err.Error())
	}

	// Stage 4: type coercion (fail-open)
	coerced := extract.Coerce(parsed, p.logger)

	// Stage 5: validation — alerts, never aborts
	alerts := p.chain.Validate(ctx, coerced)

	// Stage 6: overall confidence
	overall := (ocrRes.Confidence + llmConfidence) / 2

	p.logger.Info("pipeline.done",
		"path", req.FilePath,
		"vendor", coerced.VendorName,
		"confidence", overall,
		"alerts", len(alerts),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	return &Result{
		Success:         true,
		RawText:         ocrRes.Text,
		ParsedData:      coerced,
		ConfidenceScore: overall,
		OCRConfidence:   ocrRes.Confidence,
		LLMConfidence:   llmConfidence,
		Alerts:          alerts,
		Timestamp:       time.Now().UTC(),
	}
}

// resolveExtractor returns the default extraction client, or one bound to an
// override provider/model resolved through the factory (the resolution is
// logged there, same as at startup).
func (p *Pipeline) resolveExtractor(req Request) (*extract.Client, error) {
	if req.Provider == "" && req.Model == "" {
		return p.extractor, nil
	}

	cfg := p.llmConfig
	if req.Provider != "" {
		cfg.Provider = req.Provider
	}
	if req.Model != "" {
		cfg.Model = req.Model
	}
	backend, err := llm.Resolve(cfg, p.logger)
	if err != nil {
		return nil, err
	}
	return extract.NewClient(backend, p.logger), nil
}

// Stats reports processing statistics for the stats endpoint.
func (p *Pipeline) Stats() Stats {
	backend := p.extractor.Backend()
	return Stats{
		OCR:         p.manager.Stats(),
		LLMProvider: backend.Name(),
		LLMModel:    backend.Model(),
		Validators:  p.chain.Names(),
	}
}
