package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bevscan/bevscan/constants"
)

// TesseractConfig configures the tesseract-backed engine.
type TesseractConfig struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"

	Lang        string // default "eng"
	DPI         int    // rasterization DPI for PDFs, default 300
	MaxPages    int    // 0 = no limit
	TessdataDir string

	// DisableTSVConfidence skips the second tesseract pass that derives a
	// word-confidence score; extractions then report confidence 0.
	DisableTSVConfidence bool
}

// Tesseract extracts text by shelling out to the tesseract binary, with
// pdftoppm rasterizing PDF pages first. Availability is probed once at
// construction; an unavailable engine fails every call with a fixed error.
type Tesseract struct {
	cfg       TesseractConfig
	runner    Runner
	logger    *slog.Logger
	available bool
}

func NewTesseract(cfg TesseractConfig, logger *slog.Logger) *Tesseract {
	return newTesseract(cfg, newExecRunner(logger), logger)
}

func newTesseract(cfg TesseractConfig, runner Runner, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}

	t := &Tesseract{cfg: cfg, runner: runner, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, _, err := t.runner.Run(ctx, t.cfg.Tesseract, "--version"); err != nil {
		logger.Warn("tesseract engine not available", "bin", t.cfg.Tesseract, "error", err)
	} else {
		t.available = true
		logger.Info("tesseract engine initialized", "bin", t.cfg.Tesseract, "lang", t.cfg.Lang)
	}
	return t
}

func (t *Tesseract) Name() string    { return "tesseract" }
func (t *Tesseract) Available() bool { return t.available }

// Extract picks a strategy based on file extension.
func (t *Tesseract) Extract(ctx context.Context, path string) (Result, error) {
	if !t.available {
		return Result{}, fmt.Errorf("tesseract not available")
	}

	switch constants.MapExtToFormat(filepath.Ext(path)) {
	case constants.PDF:
		return t.extractPDF(ctx, path)
	default:
		return t.extractImage(ctx, path)
	}
}

func (t *Tesseract) extractImage(ctx context.Context, path string) (Result, error) {
	text, err := t.tesseractText(ctx, path)
	if err != nil {
		return Result{}, err
	}

	var conf float64
	if !t.cfg.DisableTSVConfidence {
		conf, err = t.tesseractConfidence(ctx, path)
		if err != nil {
			// text came through; a broken TSV run only loses the confidence signal
			t.logger.Warn("tesseract tsv confidence failed", "path", path, "error", err)
			conf = 0
		}
	}

	return Result{
		Success:    true,
		Text:       strings.TrimSpace(text),
		Confidence: conf,
		Engine:     t.Name(),
		Metadata: map[string]any{
			"lang":  t.cfg.Lang,
			"pages": 1,
		},
	}, nil
}

// extractPDF rasterizes each page independently, runs per-page OCR and
// averages confidence over pages that yielded at least one confident token.
func (t *Tesseract) extractPDF(ctx context.Context, path string) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "bevscan-pp-*")
	if err != nil {
		return Result{}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			t.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	if _, errb, err := t.runner.Run(ctx, t.cfg.Pdftoppm, "-r", strconv.Itoa(t.cfg.DPI), "-png", path, prefix); err != nil {
		return Result{}, fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	pages, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(pages)
	if t.cfg.MaxPages > 0 && len(pages) > t.cfg.MaxPages {
		pages = pages[:t.cfg.MaxPages]
	}
	if len(pages) == 0 {
		return Result{}, fmt.Errorf("no pages found in PDF")
	}

	var b strings.Builder
	var confSum float64
	confPages := 0
	for i, img := range pages {
		text, err := t.tesseractText(ctx, img)
		if err != nil {
			return Result{}, fmt.Errorf("page %d: %w", i+1, err)
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- Page %d ---\n%s", i+1, text)

		if t.cfg.DisableTSVConfidence {
			continue
		}
		conf, err := t.tesseractConfidence(ctx, img)
		if err != nil {
			t.logger.Warn("tesseract tsv confidence failed", "page", i+1, "error", err)
			continue
		}
		if conf > 0 {
			confSum += conf
			confPages++
		}
	}

	var avg float64
	if confPages > 0 {
		avg = confSum / float64(confPages)
	}

	return Result{
		Success:    true,
		Text:       strings.TrimSpace(b.String()),
		Confidence: avg,
		Engine:     t.Name(),
		Metadata: map[string]any{
			"lang":  t.cfg.Lang,
			"pages": len(pages),
		},
	}, nil
}

func (t *Tesseract) tesseractText(ctx context.Context, path string) (string, error) {
	args := t.baseArgs(path)
	// tesseract <file> stdout -l <lang>
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// tesseractConfidence runs tesseract in TSV mode and returns the mean of
// positive word confidences scaled to 0..1. Returns 0 when no token carried
// a confidence.
func (t *Tesseract) tesseractConfidence(ctx context.Context, path string) (float64, error) {
	args := append(t.baseArgs(path), "tsv")
	out, errb, err := t.runner.Run(ctx, t.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w: %s", err, truncate(string(errb), 512))
	}
	return meanTSVConfidence(string(out)), nil
}

func (t *Tesseract) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", t.cfg.Lang}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	return args
}

// meanTSVConfidence averages the conf column (index 10) of tesseract TSV
// output over entries with a positive confidence. -1 marks non-word rows.
func meanTSVConfidence(tsv string) float64 {
	lines := strings.Split(tsv, "\n")
	var sum float64
	var n int
	for i, ln := range lines {
		if i == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		v, err := strconv.ParseFloat(cols[10], 64)
		if err != nil || v <= 0 {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n) / 100.0
}
