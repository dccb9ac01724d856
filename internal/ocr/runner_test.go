package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunnerCapturesOutput(t *testing.T) {
	r := newExecRunner(nil)

	out, errOut, err := r.Run(context.Background(), "echo", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(out))
	assert.Empty(t, errOut)
}

func TestExecRunnerReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	r := newExecRunner(slog.New(slog.NewJSONHandler(&buf, nil)))

	_, _, err := r.Run(context.Background(), "/nonexistent/bevscan-test-binary")
	require.Error(t, err)
	assert.Contains(t, buf.String(), "ocr.exec.failed")
}
