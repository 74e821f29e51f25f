package constants

import "strings"

// Input formats understood by the text reader.
const (
	FormatText     = "TXT"
	FormatMarkdown = "MD"
	FormatPDF      = "PDF"
	FormatDOCX     = "DOCX"
)

// AllowedExtensions holds the default file extensions picked up by batch scans.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"docx": {},
	"txt":  {},
	"md":   {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// MapExtToFormat returns the input format for an extension, or "" when unsupported.
func MapExtToFormat(ext string) string {
	switch NormalizeExt(ext) {
	case "pdf":
		return FormatPDF
	case "docx":
		return FormatDOCX
	case "txt":
		return FormatText
	case "md", "markdown":
		return FormatMarkdown
	default:
		return ""
	}
}
