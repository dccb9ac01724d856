package validate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/extract"
)

// Validator inspects a coerced invoice and emits zero or more alerts.
type Validator interface {
	Name() string
	Validate(ctx context.Context, inv *extract.Invoice) ([]Alert, error)
}

// Chain runs validators in fixed order. Each validator is isolated: an error
// or panic becomes a single high-severity validation_error alert instead of
// failing the pipeline.
type Chain struct {
	validators []Validator
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, validators ...Validator) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{validators: validators, logger: logger}
}

// Validate returns the concatenated alerts of all validators in order.
func (c *Chain) Validate(ctx context.Context, inv *extract.Invoice) []Alert {
	var alerts []Alert
	for _, v := range c.validators {
		alerts = append(alerts, c.runIsolated(ctx, v, inv)...)
	}
	return alerts
}

// Names lists the configured validators, for stats reporting.
func (c *Chain) Names() []string {
	names := make([]string, len(c.validators))
	for i, v := range c.validators {
		names[i] = v.Name()
	}
	return names
}

func (c *Chain) runIsolated(ctx context.Context, v Validator, inv *extract.Invoice) (alerts []Alert) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("validate.panic", "validator", v.Name(), "panic", r)
			alerts = []Alert{failureAlert(v.Name(), fmt.Errorf("%v", r))}
		}
	}()

	alerts, err := v.Validate(ctx, inv)
	if err != nil {
		c.logger.Error("validate.failed", "validator", v.Name(), "error", err)
		return []Alert{failureAlert(v.Name(), err)}
	}
	return alerts
}

func failureAlert(name string, err error) Alert {
	return Alert{
		Type:     constants.AlertValidationError,
		Message:  fmt.Sprintf("%s validation process failed: %v", name, err),
		Severity: constants.SeverityHigh,
	}
}
