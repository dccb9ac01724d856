package pipeline

import (
	"time"

	"github.com/bevscan/bevscan/internal/extract"
	"github.com/bevscan/bevscan/internal/ocr"
	"github.com/bevscan/bevscan/internal/validate"
)

// Result is the outcome of one pipeline run. On success the parsed invoice,
// confidences and validation alerts are populated; on failure Error names
// the failed stage and Details carries the cause. Callers always receive a
// Result — the pipeline never lets an internal failure escape uncaught.
type Result struct {
	Success         bool             `json:"success"`
	RawText         string           `json:"raw_text,omitempty"`
	ParsedData      *extract.Invoice `json:"parsed_data,omitempty"`
	ConfidenceScore float64          `json:"confidence_score,omitempty"`
	OCRConfidence   float64          `json:"ocr_confidence,omitempty"`
	LLMConfidence   float64          `json:"llm_confidence,omitempty"`
	Alerts          []validate.Alert `json:"validation_alerts,omitempty"`
	Timestamp       time.Time        `json:"processing_time"`

	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

func failure(stage, details string) *Result {
	return &Result{
		Success: false,
		Error:   stage,
		Details: details,
	}
}

// Stats summarizes the pipeline's components for the stats endpoint.
type Stats struct {
	OCR         ocr.Stats `json:"ocr_engine"`
	LLMProvider string    `json:"llm_provider"`
	LLMModel    string    `json:"llm_model"`
	Validators  []string  `json:"validators"`
}
