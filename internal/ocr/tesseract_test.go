package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner scripts subprocess outcomes keyed by a predicate over the args.
type fakeRunner struct {
	run func(name string, args []string) (string, string, error)
}

func (f fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	out, errOut, err := f.run(name, args)
	return []byte(out), []byte(errOut), err
}

func isTSVRun(args []string) bool {
	return len(args) > 0 && args[len(args)-1] == "tsv"
}

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"5\t1\t1\t1\t1\t1\t10\t10\t50\t20\t90\tACME\n" +
	"5\t1\t1\t1\t1\t2\t70\t10\t50\t20\t80\tCorp\n" +
	"4\t1\t1\t1\t1\t0\t10\t10\t110\t20\t-1\t\n"

func TestMeanTSVConfidence(t *testing.T) {
	// two confident words (90, 80), one -1 structural row
	assert.InDelta(t, 0.85, meanTSVConfidence(sampleTSV), 1e-9)
}

func TestMeanTSVConfidenceEmpty(t *testing.T) {
	assert.Equal(t, float64(0), meanTSVConfidence(""))
	assert.Equal(t, float64(0), meanTSVConfidence("conf\theader\n"))
}

func TestMeanTSVConfidenceSkipsShortRows(t *testing.T) {
	tsv := "header\nonly\tthree\tcols\n"
	assert.Equal(t, float64(0), meanTSVConfidence(tsv))
}

func TestTesseractExtractImage(t *testing.T) {
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		if len(args) == 1 && args[0] == "--version" {
			return "tesseract 5.3.0", "", nil
		}
		if isTSVRun(args) {
			return sampleTSV, "", nil
		}
		return "ACME Corp\nInvoice #123\n", "", nil
	}}

	eng := newTesseract(TesseractConfig{}, runner, nil)
	require.True(t, eng.Available())

	res, err := eng.Extract(context.Background(), "/tmp/invoice.png")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ACME Corp\nInvoice #123", res.Text)
	assert.InDelta(t, 0.85, res.Confidence, 1e-9)
	assert.Equal(t, "tesseract", res.Engine)
}

func TestTesseractTSVFailureOnlyLosesConfidence(t *testing.T) {
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		if len(args) == 1 && args[0] == "--version" {
			return "tesseract 5.3.0", "", nil
		}
		if isTSVRun(args) {
			return "", "tsv exploded", errors.New("exit status 1")
		}
		return "still readable", "", nil
	}}

	eng := newTesseract(TesseractConfig{}, runner, nil)
	res, err := eng.Extract(context.Background(), "/tmp/invoice.jpg")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "still readable", res.Text)
	assert.Equal(t, float64(0), res.Confidence)
}

func TestTesseractTextFailureFails(t *testing.T) {
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		if len(args) == 1 && args[0] == "--version" {
			return "tesseract 5.3.0", "", nil
		}
		return "", "cannot open input", errors.New("exit status 1")
	}}

	eng := newTesseract(TesseractConfig{}, runner, nil)
	_, err := eng.Extract(context.Background(), "/tmp/invoice.png")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open input")
}

func TestTesseractUnavailable(t *testing.T) {
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		return "", "", errors.New("executable file not found")
	}}

	eng := newTesseract(TesseractConfig{}, runner, nil)
	assert.False(t, eng.Available())

	_, err := eng.Extract(context.Background(), "/tmp/invoice.png")
	assert.Error(t, err)
}

func TestTesseractTSVDisabled(t *testing.T) {
	tsvRuns := 0
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		if len(args) == 1 && args[0] == "--version" {
			return "tesseract 5.3.0", "", nil
		}
		if isTSVRun(args) {
			tsvRuns++
			return sampleTSV, "", nil
		}
		return "text without confidence", "", nil
	}}

	eng := newTesseract(TesseractConfig{DisableTSVConfidence: true}, runner, nil)
	res, err := eng.Extract(context.Background(), "/tmp/invoice.png")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, float64(0), res.Confidence)
	assert.Equal(t, 0, tsvRuns, "no TSV pass when the toggle is off")
}

func TestTesseractLangArg(t *testing.T) {
	var seen []string
	runner := fakeRunner{run: func(name string, args []string) (string, string, error) {
		if len(args) == 1 && args[0] == "--version" {
			return "ok", "", nil
		}
		if !isTSVRun(args) {
			seen = args
		}
		return "text", "", nil
	}}

	eng := newTesseract(TesseractConfig{Lang: "deu"}, runner, nil)
	_, err := eng.Extract(context.Background(), "/tmp/invoice.png")
	require.NoError(t, err)

	joined := strings.Join(seen, " ")
	assert.Contains(t, joined, "-l deu")
}
