package extract

import "strings"

const (
	textHeader = "INVOICE TEXT:\n"
	textFooter = "\n\nPlease extract structured data from this invoice."
)

// ocrFixes is the fixed substitution table for known OCR confusions.
// The set is deliberately small: digit/letter swaps like 0->O corrupt
// numeric fields, so only the stray separator glyph is mapped.
var ocrFixes = strings.NewReplacer(
	"|", "I",
)

// Normalize collapses whitespace runs, applies the OCR substitution table
// and wraps the text with the fixed instructional header and footer. The
// transform is deterministic and intentionally lossy; it carries no
// confidence weighting.
func Normalize(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	fixed := ocrFixes.Replace(collapsed)
	return textHeader + fixed + textFooter
}
