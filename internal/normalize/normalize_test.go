package normalize

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/jackzampolin/quire/internal/docx"
	"github.com/jackzampolin/quire/internal/reflow"
	"github.com/jackzampolin/quire/internal/types"
)

type fakePDF struct {
	pages [][]reflow.Fragment
	err   error
}

func (f *fakePDF) ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error {
	if f.err != nil {
		return f.err
	}
	for i, frags := range f.pages {
		if err := fn(i+1, frags); err != nil {
			return err
		}
	}
	return nil
}

type fakeDocx struct {
	res *docx.Result
	err error
}

func (f *fakeDocx) Convert(ctx context.Context, data []byte) (*docx.Result, error) {
	return f.res, f.err
}

type failingDecoder struct{}

func (failingDecoder) Decode([]byte, string) (string, error) {
	return "", errors.New("bad bytes")
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		filename  string
		want      Kind
		wantErr   bool
	}{
		{"html media type", "text/html", "", KindHTML, false},
		{"html with charset", "text/html; charset=ISO-8859-1", "x.bin", KindHTML, false},
		{"xhtml media type", "application/xhtml+xml", "", KindHTML, false},
		{"docx media type", DOCXMediaType, "", KindDOCX, false},
		{"pdf media type", "application/pdf", "", KindPDF, false},
		{"media type wins over extension", "application/pdf", "report.docx", KindPDF, false},
		{"extension fallback", "application/octet-stream", "Book.HTM", KindHTML, false},
		{"docx extension", "", "notes.docx", KindDOCX, false},
		{"pdf extension", "", "/tmp/scan.pdf", KindPDF, false},
		{"unsupported", "image/png", "cover.png", "", true},
		{"nothing to go on", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.mediaType, tt.filename)
			if tt.wantErr {
				if !errors.Is(err, types.ErrUnsupportedFormat) {
					t.Errorf("expected ErrUnsupportedFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDetect_ErrorNamesInput(t *testing.T) {
	_, err := Detect("image/png", "cover.png")
	if err == nil || !strings.Contains(err.Error(), "image/png") || !strings.Contains(err.Error(), ".png") {
		t.Errorf("expected error naming media type and extension, got %v", err)
	}
}

func TestNormalize_HTML(t *testing.T) {
	n := &Normalizer{Text: CharsetDecoder{}}
	src := "<html><head><title> My  Page </title></head><body><p>hi</p></body></html>"

	doc, err := n.Normalize(context.Background(), Input{Name: "page.html", Data: []byte(src)})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.Kind != KindHTML {
		t.Errorf("expected html kind, got %s", doc.Kind)
	}
	if doc.HTML != src {
		t.Errorf("expected HTML passed through verbatim, got %q", doc.HTML)
	}
	if doc.Title != "My Page" {
		t.Errorf("expected title from <title>, got %q", doc.Title)
	}
}

func TestNormalize_HTMLCharset(t *testing.T) {
	n := &Normalizer{Text: CharsetDecoder{}}
	data := []byte("<p>caf\xe9</p>")

	doc, err := n.Normalize(context.Background(), Input{
		Name:      "latin.html",
		MediaType: "text/html; charset=iso-8859-1",
		Data:      data,
	})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.HTML != "<p>café</p>" {
		t.Errorf("expected decoded text, got %q", doc.HTML)
	}
	if doc.Title != "latin" {
		t.Errorf("expected filename title, got %q", doc.Title)
	}
}

func TestNormalize_EmptyHTML(t *testing.T) {
	n := &Normalizer{Text: CharsetDecoder{}}

	doc, err := n.Normalize(context.Background(), Input{Name: "empty.html"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.HTML != "" {
		t.Errorf("expected empty HTML, got %q", doc.HTML)
	}
	if doc.Title != "empty" {
		t.Errorf("expected title empty, got %q", doc.Title)
	}
}

func TestNormalize_PDF(t *testing.T) {
	pdf := &fakePDF{pages: [][]reflow.Fragment{
		{
			{Text: "Hello", Y: 700, Height: 12},
			{Text: "World", Y: 699, Height: 12},
			{Text: "New para", Y: 650, Height: 12},
		},
		nil,
		{{Text: "Last", Y: 100, Height: 12}},
	}}
	n := &Normalizer{PDF: pdf, Reflow: reflow.DefaultOptions()}

	doc, err := n.Normalize(context.Background(), Input{Name: "scan-3.pdf", Data: []byte("%PDF")})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := `<div class="page"><p>Hello World</p><p>New para</p></div>` + "\n" + reflow.PageBreak + "\n" +
		`<div class="page"><p>Last</p></div>` + "\n" + reflow.PageBreak + "\n"
	if doc.HTML != want {
		t.Errorf("expected %q, got %q", want, doc.HTML)
	}
	if doc.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", doc.Pages)
	}
	if doc.Title != "scan" {
		t.Errorf("expected title scan, got %q", doc.Title)
	}
}

func TestNormalize_DOCX(t *testing.T) {
	var logs bytes.Buffer
	conv := &fakeDocx{res: &docx.Result{
		HTML:     "<h1>Intro</h1><p>text</p>",
		Title:    "Intro",
		Messages: []docx.Message{{Type: docx.MessageWarning, Text: "image omitted"}},
	}}
	n := &Normalizer{
		Docx:   conv,
		Logger: slog.New(slog.NewTextHandler(&logs, nil)),
	}

	doc, err := n.Normalize(context.Background(), Input{Name: "notes.docx", Data: []byte("PK")})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if doc.HTML != conv.res.HTML {
		t.Errorf("expected converter HTML, got %q", doc.HTML)
	}
	if doc.Title != "Intro" {
		t.Errorf("expected heading title, got %q", doc.Title)
	}
	if len(doc.Messages) != 1 {
		t.Errorf("expected messages passed through, got %+v", doc.Messages)
	}
	if !strings.Contains(logs.String(), "level=WARN") || !strings.Contains(logs.String(), "image omitted") {
		t.Errorf("expected warning logged, got %q", logs.String())
	}
}

func TestNormalize_Errors(t *testing.T) {
	tests := []struct {
		name string
		n    *Normalizer
		in   Input
		want error
	}{
		{
			name: "unsupported",
			n:    &Normalizer{},
			in:   Input{Name: "a.txt"},
			want: types.ErrUnsupportedFormat,
		},
		{
			name: "missing pdf parser",
			n:    &Normalizer{},
			in:   Input{Name: "a.pdf"},
			want: types.ErrExtractorUnavailable,
		},
		{
			name: "missing docx converter",
			n:    &Normalizer{},
			in:   Input{Name: "a.docx"},
			want: types.ErrExtractorUnavailable,
		},
		{
			name: "missing text decoder",
			n:    &Normalizer{},
			in:   Input{Name: "a.html"},
			want: types.ErrExtractorUnavailable,
		},
		{
			name: "pdf parse failure",
			n:    &Normalizer{PDF: &fakePDF{err: errors.New("xref broken")}},
			in:   Input{Name: "a.pdf"},
			want: types.ErrDecodeFailure,
		},
		{
			name: "docx conversion failure",
			n:    &Normalizer{Docx: &fakeDocx{err: errors.New("not a zip")}},
			in:   Input{Name: "a.docx"},
			want: types.ErrDecodeFailure,
		},
		{
			name: "html decode failure",
			n:    &Normalizer{Text: failingDecoder{}},
			in:   Input{Name: "a.html"},
			want: types.ErrDecodeFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.n.Normalize(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestNormalize_CancelledBetweenPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	pdf := &fakePDF{pages: [][]reflow.Fragment{
		{{Text: "one", Y: 10, Height: 12}},
		{{Text: "two", Y: 10, Height: 12}},
	}}
	n := &Normalizer{PDF: &cancelAfterFirst{inner: pdf, cancel: cancel, calls: &calls}}

	_, err := n.Normalize(ctx, Input{Name: "a.pdf"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected a single page rendered, got %d", calls)
	}
}

// cancelAfterFirst cancels the context once the first page was delivered.
type cancelAfterFirst struct {
	inner  *fakePDF
	cancel context.CancelFunc
	calls  *int
}

func (c *cancelAfterFirst) ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error {
	return c.inner.ForEachPage(ctx, data, func(page int, frags []reflow.Fragment) error {
		if err := fn(page, frags); err != nil {
			return err
		}
		*c.calls++
		c.cancel()
		return nil
	})
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"book.pdf", "book"},
		{"/tmp/uploads/My Novel-2.docx", "My Novel"},
		{"chapter-12-3.html", "chapter-12"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := TitleFromFilename(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFirstTitle(t *testing.T) {
	if got := FirstTitle("", "  ", "Second"); got != "Second" {
		t.Errorf("expected Second, got %q", got)
	}
	if got := FirstTitle("", ""); got != DefaultTitle {
		t.Errorf("expected %s, got %q", DefaultTitle, got)
	}
}
