package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bevscan/bevscan/constants"
	"github.com/bevscan/bevscan/internal/extract"
)

type scriptedValidator struct {
	name   string
	alerts []Alert
	err    error
	panics bool
}

func (s *scriptedValidator) Name() string { return s.name }

func (s *scriptedValidator) Validate(_ context.Context, _ *extract.Invoice) ([]Alert, error) {
	if s.panics {
		panic("validator exploded")
	}
	return s.alerts, s.err
}

func TestChainConcatenatesInOrder(t *testing.T) {
	first := &scriptedValidator{name: "first", alerts: []Alert{{Type: "a"}, {Type: "b"}}}
	second := &scriptedValidator{name: "second", alerts: []Alert{{Type: "c"}}}
	chain := NewChain(nil, first, second)

	alerts := chain.Validate(context.Background(), &extract.Invoice{})

	require.Len(t, alerts, 3)
	assert.Equal(t, "a", alerts[0].Type)
	assert.Equal(t, "b", alerts[1].Type)
	assert.Equal(t, "c", alerts[2].Type)
}

func TestChainIsolatesError(t *testing.T) {
	failing := &scriptedValidator{name: "price_validator", err: errors.New("db gone")}
	healthy := &scriptedValidator{name: "duplicate_validator", alerts: []Alert{{Type: "dup"}}}
	chain := NewChain(nil, failing, healthy)

	alerts := chain.Validate(context.Background(), &extract.Invoice{})

	require.Len(t, alerts, 2)
	assert.Equal(t, constants.AlertValidationError, alerts[0].Type)
	assert.Equal(t, constants.SeverityHigh, alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "price_validator validation process failed")
	assert.Equal(t, "dup", alerts[1].Type, "later validators still run")
}

func TestChainIsolatesPanic(t *testing.T) {
	panicking := &scriptedValidator{name: "price_validator", panics: true}
	chain := NewChain(nil, panicking)

	alerts := chain.Validate(context.Background(), &extract.Invoice{})

	require.Len(t, alerts, 1)
	assert.Equal(t, constants.AlertValidationError, alerts[0].Type)
	assert.Contains(t, alerts[0].Message, "validator exploded")
}

func TestChainNames(t *testing.T) {
	chain := NewChain(nil,
		&scriptedValidator{name: "price_validator"},
		&scriptedValidator{name: "duplicate_validator"},
	)
	assert.Equal(t, []string{"price_validator", "duplicate_validator"}, chain.Names())
}

func TestChainEmpty(t *testing.T) {
	chain := NewChain(nil)
	assert.Empty(t, chain.Validate(context.Background(), &extract.Invoice{}))
}
