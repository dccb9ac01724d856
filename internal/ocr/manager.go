package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/bevscan/bevscan/constants"
)

// ErrInvalidFormat is reported when a document's extension is not in the
// supported set. No engine is invoked in that case.
var ErrInvalidFormat = fmt.Errorf("invalid file format or file not found")

// Stats are per-manager extraction counters. The average confidence is a
// running mean over successful extractions only.
type Stats struct {
	TotalProcessed        int     `json:"total_processed"`
	SuccessfulExtractions int     `json:"successful_extractions"`
	FailedExtractions     int     `json:"failed_extractions"`
	SuccessRate           float64 `json:"success_rate"`
	AverageConfidence     float64 `json:"average_confidence"`
}

// Manager owns an ordered list of engines (primary first) and falls back to
// the next engine when the primary reports failure. At most one fallback is
// attempted and no engine is retried.
type Manager struct {
	engines []Engine
	pre     Preprocessor
	logger  *slog.Logger

	mu    sync.Mutex
	stats Stats
}

func NewManager(engines []Engine, pre Preprocessor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if pre == nil {
		pre = NewIdentityPreprocessor()
	}
	return &Manager{engines: engines, pre: pre, logger: logger}
}

// Extract runs OCR for a document. Failures are reported in the Result and
// recorded in the stats; they never propagate as a Go error.
func (m *Manager) Extract(ctx context.Context, path string) Result {
	m.logger.Info("ocr.extract.start", "path", path)

	// Rejected inputs never reach an engine and are not counted in stats.
	if err := m.validateFile(path); err != nil {
		m.logger.Warn("ocr.extract.rejected", "path", path, "error", err)
		return Result{Err: err}
	}

	processed, err := m.pre.Preprocess(ctx, path)
	if err != nil {
		// preprocessing is best-effort; fall back to the original file
		m.logger.Warn("ocr.preprocess.failed", "path", path, "error", err)
		processed = path
	}

	res := m.extractWithFallback(ctx, processed)
	m.record(res)

	if res.Success {
		m.logger.Info("ocr.extract.ok", "path", path, "engine", res.Engine, "confidence", res.Confidence)
	} else {
		m.logger.Error("ocr.extract.failed", "path", path, "error", res.Err)
	}
	return res
}

func (m *Manager) extractWithFallback(ctx context.Context, path string) Result {
	if len(m.engines) == 0 {
		return Result{Err: fmt.Errorf("no ocr engines configured")}
	}

	primary := m.engines[0]
	res := m.tryEngine(ctx, primary, path)
	if res.Success {
		return res
	}

	// Exactly one fallback, and only when the primary was not already the
	// last-resort engine.
	if len(m.engines) > 1 {
		fallback := m.engines[1]
		m.logger.Info("ocr.extract.fallback",
			"primary", primary.Name(),
			"fallback", fallback.Name(),
			"primary_error", res.Err,
		)
		res = m.tryEngine(ctx, fallback, path)
	}
	return res
}

func (m *Manager) tryEngine(ctx context.Context, eng Engine, path string) Result {
	res, err := eng.Extract(ctx, path)
	if err != nil {
		return Result{Engine: eng.Name(), Err: fmt.Errorf("%s extraction failed: %w", eng.Name(), err)}
	}
	if res.Engine == "" {
		res.Engine = eng.Name()
	}
	return res
}

func (m *Manager) validateFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFormat, path)
	}
	if !constants.IsSupportedExt(filepath.Ext(path)) {
		return fmt.Errorf("%w: unsupported extension %q", ErrInvalidFormat, filepath.Ext(path))
	}
	return nil
}

func (m *Manager) record(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.TotalProcessed++
	if res.Success {
		m.stats.SuccessfulExtractions++
		n := float64(m.stats.SuccessfulExtractions)
		m.stats.AverageConfidence = (m.stats.AverageConfidence*(n-1) + res.Confidence) / n
	} else {
		m.stats.FailedExtractions++
	}
}

// Stats returns a snapshot of the manager's counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stats
	if s.TotalProcessed > 0 {
		s.SuccessRate = float64(s.SuccessfulExtractions) / float64(s.TotalProcessed)
	}
	return s
}

// AvailableEngines lists the names of engines whose availability probe passed.
func (m *Manager) AvailableEngines() []string {
	var names []string
	for _, e := range m.engines {
		if e.Available() {
			names = append(names, e.Name())
		}
	}
	return names
}
