// Package types provides shared types used across multiple packages.
// This package has no dependencies on other quire packages to avoid import cycles.
package types

import "strings"

// OutputFormat identifies an e-reader container format.
type OutputFormat string

const (
	// FormatEPUB is an OCF zip container.
	FormatEPUB OutputFormat = "epub"
	// FormatAZW3 is the two-record PDB/MOBI binary.
	FormatAZW3 OutputFormat = "azw3"
)

// OutputFormats lists every supported output format.
var OutputFormats = []OutputFormat{FormatEPUB, FormatAZW3}

// ParseOutputFormat converts a string to an OutputFormat.
// "mobi" is accepted as an alias for azw3. Returns false if the string is not recognized.
func ParseOutputFormat(s string) (OutputFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "epub":
		return FormatEPUB, true
	case "azw3", "mobi":
		return FormatAZW3, true
	default:
		return "", false
	}
}

// Extension returns the file extension for the format, including the dot.
func (f OutputFormat) Extension() string {
	return "." + string(f)
}

// MediaType returns the MIME type a download of this format is tagged with.
func (f OutputFormat) MediaType() string {
	switch f {
	case FormatAZW3:
		return "application/x-mobi8-ebook"
	default:
		return "application/epub+zip"
	}
}

// Artifact is a named binary ready for download.
type Artifact struct {
	Name      string // e.g. "My Book.epub"
	MediaType string
	Data      []byte
}

// Size returns the artifact length in bytes.
func (a Artifact) Size() int {
	return len(a.Data)
}
