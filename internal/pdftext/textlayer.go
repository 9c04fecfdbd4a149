package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jackzampolin/quire/internal/reflow"
)

// DefaultWordGap is the horizontal gap, as a fraction of the font size, above
// which two glyphs on one baseline are separated by a space.
const DefaultWordGap = 0.2

// TextLayer reads the text layer with github.com/ledongthuc/pdf.
type TextLayer struct {
	WordGap float64
	Logger  *slog.Logger
}

// ForEachPage implements Parser. The reader panics on some malformed files;
// those panics are returned as errors. Panics raised by fn are not caught.
func (p *TextLayer) ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error {
	r, numPages, err := openTextLayer(data)
	if err != nil {
		return err
	}
	p.logger().Debug("reading pdf text layer", "pages", numPages)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		frags, err := p.pageFragments(r, i)
		if err != nil {
			return err
		}
		if err := fn(i, frags); err != nil {
			return err
		}
	}
	return nil
}

func openTextLayer(data []byte) (r *pdf.Reader, numPages int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf text layer: %v", rec)
		}
	}()

	r, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, 0, fmt.Errorf("open pdf: %w", err)
	}
	return r, r.NumPage(), nil
}

// pageFragments reads one page's glyphs. Pages without a dictionary yield nil.
func (p *TextLayer) pageFragments(r *pdf.Reader, pageNr int) (frags []reflow.Fragment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf text layer: page %d: %v", pageNr, rec)
		}
	}()

	page := r.Page(pageNr)
	if page.V.IsNull() {
		return nil, nil
	}
	return mergeGlyphs(page.Content().Text, p.wordGap()), nil
}

func (p *TextLayer) wordGap() float64 {
	if p.WordGap > 0 {
		return p.WordGap
	}
	return DefaultWordGap
}

func (p *TextLayer) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// glyphRun accumulates consecutive glyphs that share a baseline.
type glyphRun struct {
	text  strings.Builder
	x, y  float64
	right float64
	size  float64
}

// continues reports whether g sits on the run's baseline without jumping
// backwards or across a column gap.
func (r *glyphRun) continues(g pdf.Text) bool {
	size := math.Max(r.size, 1)
	if math.Abs(g.Y-r.y) > size*0.25 {
		return false
	}
	gap := g.X - r.right
	return gap >= -size*0.5 && gap <= size*3
}

// mergeGlyphs joins glyphs in content order into fragments, one per
// uninterrupted run on a baseline. Gaps wider than wordGap times the font
// size become spaces.
func mergeGlyphs(glyphs []pdf.Text, wordGap float64) []reflow.Fragment {
	var frags []reflow.Fragment
	var cur *glyphRun

	flush := func() {
		if cur == nil {
			return
		}
		if text := cleanText(cur.text.String()); text != "" {
			frags = append(frags, reflow.Fragment{
				Text:   text,
				X:      cur.x,
				Y:      cur.y,
				Height: cur.size,
			})
		}
		cur = nil
	}

	for _, g := range glyphs {
		if cur != nil && cur.continues(g) {
			gap := g.X - cur.right
			prev := cur.text.String()
			if gap > wordGap*math.Max(cur.size, 1) &&
				!strings.HasSuffix(prev, " ") && !strings.HasPrefix(g.S, " ") {
				cur.text.WriteByte(' ')
			}
			cur.text.WriteString(g.S)
			cur.right = math.Max(cur.right, g.X+g.W)
			if g.FontSize > cur.size {
				cur.size = g.FontSize
			}
			continue
		}

		flush()
		cur = &glyphRun{x: g.X, y: g.Y, right: g.X + g.W, size: g.FontSize}
		cur.text.WriteString(g.S)
	}
	flush()

	return frags
}
