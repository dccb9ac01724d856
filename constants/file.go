package constants

import "strings"

// Document formats for the extraction pipeline.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
)

// SupportedExtensions holds the file extensions the extraction manager accepts.
// Anything else is rejected before an engine is invoked.
var SupportedExtensions = map[string]struct{}{
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tiff": {},
	"bmp":  {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsSupportedExt reports whether a (possibly dotted) extension is accepted.
func IsSupportedExt(ext string) bool {
	_, ok := SupportedExtensions[NormalizeExt(ext)]
	return ok
}

// MapExtToFormat maps a file extension to a document format.
// Returns "" for unsupported extensions.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "tiff", "bmp":
		return IMAGE
	default:
		return ""
	}
}
