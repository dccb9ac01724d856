package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCollapsesWhitespace(t *testing.T) {
	got := Normalize("ACME   Corp\n\n Invoice\t#123")
	assert.Contains(t, got, "ACME Corp Invoice #123")
}

func TestNormalizeFixesPipeGlyph(t *testing.T) {
	got := Normalize("|NVOICE from ACME")
	assert.Contains(t, got, "INVOICE from ACME")
	assert.NotContains(t, got, "|")
}

func TestNormalizeWrapsHeaderAndFooter(t *testing.T) {
	got := Normalize("hello")
	assert.True(t, strings.HasPrefix(got, "INVOICE TEXT:\n"))
	assert.True(t, strings.HasSuffix(got, "\n\nPlease extract structured data from this invoice."))
}

func TestNormalizeKeepsDigits(t *testing.T) {
	// the substitution table must not touch digit glyphs
	got := Normalize("Total: $1,024.00")
	assert.Contains(t, got, "$1,024.00")
}

func TestNormalizeDeterministic(t *testing.T) {
	in := "Some  |nvoice \t text"
	assert.Equal(t, Normalize(in), Normalize(in))
}
