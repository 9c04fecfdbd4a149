// Package reflow rebuilds paragraph-level HTML from the positioned text
// fragments of a single PDF page.
//
// Fragments are read top to bottom, left to right (PDF coordinates have their
// origin at the bottom-left, so larger Y is higher on the page). A vertical jump
// larger than GapFactor times the fragment height starts a new paragraph.
// There is no column, table or font-size analysis.
package reflow

import (
	"html"
	"math"
	"sort"
	"strings"
)

const (
	// DefaultGapFactor is the multiple of line height that separates paragraphs.
	DefaultGapFactor = 1.5

	// DefaultHeight replaces unknown or non-positive fragment heights.
	DefaultHeight = 10.0

	// PageClass is the class of the element wrapping one page of paragraphs.
	PageClass = "page"

	// PageBreak follows every non-empty page.
	PageBreak = `<hr class="page-break"/>`
)

// Fragment is one run of text as reported by a PDF page parser.
type Fragment struct {
	Text   string
	X      float64
	Y      float64
	Height float64
}

// PageFunc receives the fragments of one page. Pages are numbered from 1.
type PageFunc func(page int, frags []Fragment) error

// Options tunes the paragraph heuristic.
type Options struct {
	GapFactor     float64 `mapstructure:"gap_factor" yaml:"gap_factor" json:"gap_factor"`
	DefaultHeight float64 `mapstructure:"default_height" yaml:"default_height" json:"default_height"`
}

// DefaultOptions returns the 1.5x line-height policy.
func DefaultOptions() Options {
	return Options{
		GapFactor:     DefaultGapFactor,
		DefaultHeight: DefaultHeight,
	}
}

func (o Options) withDefaults() Options {
	if !finite(o.GapFactor) || o.GapFactor <= 0 {
		o.GapFactor = DefaultGapFactor
	}
	if !finite(o.DefaultHeight) || o.DefaultHeight <= 0 {
		o.DefaultHeight = DefaultHeight
	}
	return o
}

// height returns the fragment height, or the fallback when it is unusable.
func (o Options) height(f Fragment) float64 {
	if !finite(f.Height) || f.Height <= 0 {
		return o.DefaultHeight
	}
	return f.Height
}

// fold is the carry state of the paragraph walk.
type fold struct {
	paragraphs []string
	buf        strings.Builder
	lastY      float64
	hasLast    bool
}

func (s *fold) flush() {
	if text := strings.TrimSpace(s.buf.String()); text != "" {
		s.paragraphs = append(s.paragraphs, text)
	}
	s.buf.Reset()
}

func (s *fold) start(text string) {
	s.buf.Reset()
	s.buf.WriteString(text)
}

// join appends text to the open paragraph, adding one space unless either
// side already provides it.
func (s *fold) join(text string) {
	cur := s.buf.String()
	if !strings.HasSuffix(cur, " ") && !strings.HasPrefix(text, " ") {
		s.buf.WriteByte(' ')
	}
	s.buf.WriteString(text)
}

// Paragraphs groups fragments into trimmed paragraph texts in reading order.
// It never fails: an empty input yields no paragraphs, and a fragment with
// non-finite coordinates is isolated as its own paragraph.
func Paragraphs(frags []Fragment, opts Options) []string {
	if len(frags) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	var s fold
	for _, f := range sortReadingOrder(frags) {
		if !finite(f.X) || !finite(f.Y) {
			s.flush()
			s.start(f.Text)
			s.flush()
			s.hasLast = false
			continue
		}

		if !s.hasLast {
			s.flush()
			s.start(f.Text)
		} else if math.Abs(f.Y-s.lastY) > opts.height(f)*opts.GapFactor {
			s.flush()
			s.start(f.Text)
		} else {
			s.join(f.Text)
		}

		// Gaps are always measured against the previous fragment, not the
		// first line of the paragraph.
		s.lastY = f.Y
		s.hasLast = true
	}
	s.flush()

	return s.paragraphs
}

// RenderParagraphs returns the page's paragraphs as consecutive <p> elements.
func RenderParagraphs(frags []Fragment, opts Options) string {
	var sb strings.Builder
	for _, p := range Paragraphs(frags, opts) {
		sb.WriteString("<p>")
		sb.WriteString(html.EscapeString(p))
		sb.WriteString("</p>")
	}
	return sb.String()
}

// RenderPage wraps the page's paragraphs in a page container followed by a
// page break. A page without text renders as the empty string.
func RenderPage(frags []Fragment, opts Options) string {
	body := RenderParagraphs(frags, opts)
	if body == "" {
		return ""
	}
	return `<div class="` + PageClass + `">` + body + "</div>\n" + PageBreak + "\n"
}

// sortReadingOrder returns a copy of frags ordered top-to-bottom, then
// left-to-right. Fragments with a non-finite Y go last, and a non-finite X
// sorts after finite ones on the same line; ties keep input order.
func sortReadingOrder(frags []Fragment) []Fragment {
	sorted := make([]Fragment, len(frags))
	copy(sorted, frags)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		ay, by := finite(a.Y), finite(b.Y)
		if ay != by {
			return ay
		}
		if !ay {
			return false
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		ax, bx := finite(a.X), finite(b.X)
		if ax != bx {
			return ax
		}
		if !ax {
			return false
		}
		return a.X < b.X
	})

	return sorted
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
