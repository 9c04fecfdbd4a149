// Package pdftext extracts positioned text fragments from PDF pages.
//
// Two backends are available. TextLayer uses github.com/ledongthuc/pdf, which
// resolves fonts and reports one positioned glyph at a time; glyphs are merged
// back into runs per baseline. ContentStream uses pdfcpu to validate the file
// and fetch each page's content stream, then interprets the text operators
// itself, which tolerates files whose font resources the text layer rejects.
package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/jackzampolin/quire/internal/reflow"
)

// Backend names accepted by New.
const (
	BackendTextLayer     = "text-layer"
	BackendContentStream = "content-stream"
)

// Backends lists the known backend names.
var Backends = []string{BackendTextLayer, BackendContentStream}

// Parser walks the pages of a PDF in document order.
type Parser interface {
	ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error
}

// New returns the parser for backend. An empty name selects the text layer.
func New(backend string, logger *slog.Logger) (Parser, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendTextLayer:
		return &TextLayer{Logger: logger}, nil
	case BackendContentStream:
		return &ContentStream{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown pdf backend %q (expected one of %s)", backend, strings.Join(Backends, ", "))
	}
}

// cleanText returns s in NFC form, or "" if it holds no visible text.
func cleanText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return norm.NFC.String(s)
}
