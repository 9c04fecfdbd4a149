package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/jackzampolin/quire/internal/reflow"
)

// ContentStream reads page content streams through pdfcpu and interprets the
// text operators directly.
type ContentStream struct {
	Logger *slog.Logger
}

// ForEachPage implements Parser.
func (p *ContentStream) ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error {
	conf := model.NewDefaultConfiguration()
	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return fmt.Errorf("pdfcpu read: %w", err)
	}

	p.logger().Debug("reading pdf content streams", "pages", pctx.PageCount)

	for pageNr := 1; pageNr <= pctx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		content, err := pageContent(pctx, pageNr)
		if err != nil {
			return fmt.Errorf("page %d: %w", pageNr, err)
		}

		if err := fn(pageNr, ParseContent(content)); err != nil {
			return err
		}
	}
	return nil
}

func (p *ContentStream) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// pageContent returns the decoded content stream of a page. Pages without
// content yield nil.
func pageContent(pctx *model.Context, pageNr int) ([]byte, error) {
	r, err := pdfcpu.ExtractPageContent(pctx, pageNr)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, nil
	}
	return io.ReadAll(r)
}

// PageCount reports the number of pages pdfcpu finds in data.
func PageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), model.NewDefaultConfiguration())
}
