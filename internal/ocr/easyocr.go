package ocr

import (
	"context"
	"fmt"
	"log/slog"
)

// EasyOCR is a non-functional placeholder for a neural OCR backend. It is
// registered as the fallback engine so the manager's fallback path stays
// exercised, but it reports unavailable and fails every call.
type EasyOCR struct {
	logger *slog.Logger
}

func NewEasyOCR(logger *slog.Logger) *EasyOCR {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("easyocr engine not implemented yet")
	return &EasyOCR{logger: logger}
}

func (e *EasyOCR) Name() string    { return "easyocr" }
func (e *EasyOCR) Available() bool { return false }

func (e *EasyOCR) Extract(_ context.Context, _ string) (Result, error) {
	return Result{}, fmt.Errorf("easyocr not implemented yet")
}
