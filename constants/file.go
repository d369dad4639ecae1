package constants

import "strings"

// Token-dump formats accepted by the scanner.
const (
	FormatTSV   = "TSV"
	FormatJSON  = "JSON"
	FormatImage = "IMAGE"
)

// AllowedExtensions holds the default allowed file extensions for
// prescription ingestion: raw images go through the tesseract adapter,
// tsv/json are pre-produced OCR token dumps.
var AllowedExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tsv":  {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToFormat returns the processing format for an extension, or "" if
// the extension is unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "tsv":
		return FormatTSV
	case "json":
		return FormatJSON
	case "jpg", "jpeg", "png":
		return FormatImage
	default:
		return ""
	}
}
