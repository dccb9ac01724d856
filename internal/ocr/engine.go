package ocr

import "context"

// Result is the outcome of one extraction attempt. Failure is reported in
// the value, never raised past the manager boundary.
type Result struct {
	Success    bool           `json:"success"`
	Text       string         `json:"text,omitempty"`
	Confidence float64        `json:"confidence,omitempty"` // 0..1
	Engine     string         `json:"engine,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Err        error          `json:"-"`
}

// Error returns the failure message, if any.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Engine is one text-extraction backend.
type Engine interface {
	Name() string
	// Available reports whether the backend probe at construction succeeded.
	// The manager treats unavailable identically to failed.
	Available() bool
	Extract(ctx context.Context, path string) (Result, error)
}

// Preprocessor is the image-preparation hook run before extraction.
// The default implementation is an identity transform; denoising and
// deskewing slot in here later.
type Preprocessor interface {
	Preprocess(ctx context.Context, path string) (string, error)
}

type identityPreprocessor struct{}

func (identityPreprocessor) Preprocess(_ context.Context, path string) (string, error) {
	return path, nil
}

// NewIdentityPreprocessor returns the pass-through preprocessing hook.
func NewIdentityPreprocessor() Preprocessor { return identityPreprocessor{} }
