// Package normalize turns classified document bytes into one HTML string.
//
// HTML passes through after charset decoding, DOCX is handed to a converter,
// and PDF pages are rebuilt one at a time by the reflow engine. The parsers
// and decoders are injected so the dispatch can be tested with fakes.
package normalize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/quire/internal/docx"
	"github.com/jackzampolin/quire/internal/reflow"
	"github.com/jackzampolin/quire/internal/types"
)

// PDFParser yields the positioned text fragments of each page in order.
type PDFParser interface {
	ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error
}

// DocxConverter converts word-processing documents to HTML.
type DocxConverter interface {
	Convert(ctx context.Context, data []byte) (*docx.Result, error)
}

// TextDecoder decodes raw HTML bytes to text.
type TextDecoder interface {
	Decode(data []byte, mediaType string) (string, error)
}

// Input is a document to normalize.
type Input struct {
	Name      string
	MediaType string
	Data      []byte
}

// Document is the normalized form of an input.
type Document struct {
	Kind     Kind
	Title    string
	HTML     string
	Pages    int
	Messages []docx.Message
}

// Normalizer dispatches inputs to the matching extractor.
type Normalizer struct {
	PDF    PDFParser
	Docx   DocxConverter
	Text   TextDecoder
	Reflow reflow.Options
	Logger *slog.Logger
}

// Normalize converts in to HTML. Title is derived from the document itself
// and falls back to the input name.
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Document, error) {
	kind, err := Detect(in.MediaType, in.Name)
	if err != nil {
		return nil, err
	}

	logger := n.logger().With("file", in.Name, "kind", kind)
	logger.Debug("normalizing", "bytes", len(in.Data))

	var doc *Document
	switch kind {
	case KindHTML:
		doc, err = n.normalizeHTML(in)
	case KindDOCX:
		doc, err = n.normalizeDocx(ctx, in, logger)
	case KindPDF:
		doc, err = n.normalizePDF(ctx, in, logger)
	}
	if err != nil {
		return nil, err
	}

	doc.Kind = kind
	doc.Title = FirstTitle(doc.Title, TitleFromFilename(in.Name))
	return doc, nil
}

func (n *Normalizer) normalizeHTML(in Input) (*Document, error) {
	if n.Text == nil {
		return nil, fmt.Errorf("%w: no text decoder for %s", types.ErrExtractorUnavailable, in.Name)
	}

	html, err := n.Text.Decode(in.Data, in.MediaType)
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", types.ErrDecodeFailure, in.Name, err)
	}

	return &Document{HTML: html, Title: TitleFromHTML(html)}, nil
}

func (n *Normalizer) normalizeDocx(ctx context.Context, in Input, logger *slog.Logger) (*Document, error) {
	if n.Docx == nil {
		return nil, fmt.Errorf("%w: no docx converter for %s", types.ErrExtractorUnavailable, in.Name)
	}

	res, err := n.Docx.Convert(ctx, in.Data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: convert %s: %v", types.ErrDecodeFailure, in.Name, err)
	}

	for _, m := range res.Messages {
		logger.Warn("docx conversion message", "type", m.Type, "message", m.Text)
	}

	return &Document{HTML: res.HTML, Title: res.Title, Messages: res.Messages}, nil
}

func (n *Normalizer) normalizePDF(ctx context.Context, in Input, logger *slog.Logger) (*Document, error) {
	if n.PDF == nil {
		return nil, fmt.Errorf("%w: no pdf parser for %s", types.ErrExtractorUnavailable, in.Name)
	}

	var sb strings.Builder
	pages := 0
	err := n.PDF.ForEachPage(ctx, in.Data, func(page int, frags []reflow.Fragment) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		pages++
		out := reflow.RenderPage(frags, n.Reflow)
		if out == "" {
			logger.Debug("page has no text", "page", page)
		}
		sb.WriteString(out)
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: parse %s: %v", types.ErrDecodeFailure, in.Name, err)
	}

	logger.Debug("pdf reflowed", "pages", pages, "bytes", sb.Len())
	return &Document{HTML: sb.String(), Pages: pages}, nil
}

func (n *Normalizer) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}
