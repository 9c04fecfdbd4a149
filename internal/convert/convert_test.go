package convert

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/quire/internal/epub"
	"github.com/jackzampolin/quire/internal/mobi"
	"github.com/jackzampolin/quire/internal/normalize"
	"github.com/jackzampolin/quire/internal/reflow"
	"github.com/jackzampolin/quire/internal/types"
)

type fakeParser struct {
	pages [][]reflow.Fragment
}

func (f *fakeParser) ForEachPage(ctx context.Context, data []byte, fn reflow.PageFunc) error {
	for i, frags := range f.pages {
		if err := fn(i+1, frags); err != nil {
			return err
		}
	}
	return nil
}

type failingArchiver struct{}

func (failingArchiver) Archive([]epub.Entry) ([]byte, error) {
	return nil, errors.New("disk full")
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := New(Options{Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	svc.MOBI.Now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestNew_UnknownBackend(t *testing.T) {
	if _, err := New(Options{PDFBackend: "ocr"}); err == nil {
		t.Error("expected error for unknown pdf backend")
	}
}

func TestConvert_EmptyHTMLToEPUB(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Convert(context.Background(), Request{
		Input:  normalize.Input{Name: "blank.html"},
		Format: types.FormatEPUB,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if res.Artifact.Name != "blank.epub" {
		t.Errorf("expected blank.epub, got %q", res.Artifact.Name)
	}
	if res.Artifact.MediaType != epub.MediaType {
		t.Errorf("expected %s, got %s", epub.MediaType, res.Artifact.MediaType)
	}

	m, err := epub.Inspect(res.Artifact.Data)
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if m.Entries[0].Name != epub.MimetypePath || !m.Entries[0].Stored {
		t.Errorf("expected stored mimetype first, got %+v", m.Entries[0])
	}
	if m.Identifier == "" || m.Identifier != m.NCXUID {
		t.Errorf("expected matching identifiers, got %q and %q", m.Identifier, m.NCXUID)
	}
	if m.Title != "blank" {
		t.Errorf("expected title blank, got %q", m.Title)
	}
}

func TestConvert_EmptyHTMLToAZW3(t *testing.T) {
	svc := newTestService(t)

	res, err := svc.Convert(context.Background(), Request{
		Input:  normalize.Input{Name: "blank.html"},
		Title:  "Blank Book",
		Format: types.FormatAZW3,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	want := mobi.MinSize + len(mobi.WrapDocument("Blank Book", ""))
	if res.Artifact.Size() != want {
		t.Errorf("expected %d bytes, got %d", want, res.Artifact.Size())
	}
	if res.Artifact.Name != "Blank Book.azw3" {
		t.Errorf("expected Blank Book.azw3, got %q", res.Artifact.Name)
	}
	if res.Artifact.MediaType != mobi.MediaType {
		t.Errorf("expected %s, got %s", mobi.MediaType, res.Artifact.MediaType)
	}

	f, err := mobi.Decode(res.Artifact.Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if f.Name != "Blank Book" {
		t.Errorf("expected PDB name Blank Book, got %q", f.Name)
	}
}

func TestConvert_TitleSources(t *testing.T) {
	svc := newTestService(t)
	src := []byte("<html><head><title>From Head</title></head><body><p>x</p></body></html>")

	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"document title", "", "From Head"},
		{"override", "Chosen", "Chosen"},
		{"blank override ignored", "   ", "From Head"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Convert(context.Background(), Request{
				Input: normalize.Input{Name: "page.html", Data: src},
				Title: tt.title,
			})
			if err != nil {
				t.Fatalf("Convert failed: %v", err)
			}
			if res.Title != tt.want {
				t.Errorf("expected %q, got %q", tt.want, res.Title)
			}
			if res.Artifact.Name != tt.want+".epub" {
				t.Errorf("expected default epub artifact, got %q", res.Artifact.Name)
			}
			if res.Preview != string(src) {
				t.Errorf("expected normalized HTML as preview, got %q", res.Preview)
			}
		})
	}
}

func TestConvert_PDF(t *testing.T) {
	svc := newTestService(t)
	svc.Normalizer.PDF = &fakeParser{pages: [][]reflow.Fragment{{
		{Text: "Hello", Y: 700, Height: 12},
		{Text: "World", Y: 699, Height: 12},
		{Text: "New para", Y: 650, Height: 12},
	}}}

	res, err := svc.Convert(context.Background(), Request{
		Input:  normalize.Input{Name: "scan.pdf", MediaType: "application/pdf"},
		Format: types.FormatAZW3,
	})
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if res.Kind != normalize.KindPDF || res.Pages != 1 {
		t.Errorf("expected one pdf page, got kind %s pages %d", res.Kind, res.Pages)
	}

	f, err := mobi.Decode(res.Artifact.Data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !strings.Contains(string(f.Text), "<p>Hello World</p><p>New para</p>") {
		t.Errorf("expected reflowed paragraphs in text record, got %q", f.Text)
	}
}

func TestConvert_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Service)
		req    Request
		want   error
	}{
		{
			name: "unsupported input",
			req:  Request{Input: normalize.Input{Name: "cover.png"}},
			want: types.ErrUnsupportedFormat,
		},
		{
			name: "unsupported output",
			req:  Request{Input: normalize.Input{Name: "a.html"}, Format: "pdf"},
			want: types.ErrUnsupportedFormat,
		},
		{
			name:   "no epub builder",
			mutate: func(s *Service) { s.EPUB = nil },
			req:    Request{Input: normalize.Input{Name: "a.html"}},
			want:   types.ErrPackagingUnavailable,
		},
		{
			name:   "no mobi encoder",
			mutate: func(s *Service) { s.MOBI = nil },
			req:    Request{Input: normalize.Input{Name: "a.html"}, Format: types.FormatAZW3},
			want:   types.ErrPackagingFailure,
		},
		{
			name:   "archiver failure",
			mutate: func(s *Service) { s.EPUB = epub.NewBuilder(failingArchiver{}) },
			req:    Request{Input: normalize.Input{Name: "a.html"}},
			want:   types.ErrPackagingFailure,
		},
		{
			name:   "no normalizer",
			mutate: func(s *Service) { s.Normalizer = nil },
			req:    Request{Input: normalize.Input{Name: "a.html"}},
			want:   types.ErrExtractorUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t)
			if tt.mutate != nil {
				tt.mutate(svc)
			}
			res, err := svc.Convert(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if res != nil {
				t.Errorf("expected no result on error, got %+v", res)
			}
		})
	}
}

func TestArtifactName(t *testing.T) {
	tests := []struct {
		title  string
		format types.OutputFormat
		want   string
	}{
		{"My Book", types.FormatEPUB, "My Book.epub"},
		{"a/b:c?", types.FormatAZW3, "a_b_c_.azw3"},
		{" .hidden. ", types.FormatEPUB, "hidden.epub"},
		{"...", types.FormatEPUB, normalize.DefaultTitle + ".epub"},
		{strings.Repeat("x", 150), types.FormatEPUB, strings.Repeat("x", 100) + ".epub"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ArtifactName(tt.title, tt.format); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSanitizeFilename_MultibyteCut(t *testing.T) {
	name := strings.Repeat("a", 99) + "é"
	got := SanitizeFilename(name)
	if got != strings.Repeat("a", 99) {
		t.Errorf("expected split rune dropped, got %q", got)
	}
}

func TestPreview(t *testing.T) {
	svc := newTestService(t)
	src := `<h1>Intro</h1><p onclick="steal()">Some <b>bold</b> text</p><script>alert(1)</script>`
	in := normalize.Input{Name: "notes.html", Data: []byte(src)}

	t.Run("html passthrough", func(t *testing.T) {
		p, err := svc.Preview(context.Background(), Request{Input: in}, PreviewOptions{})
		if err != nil {
			t.Fatalf("Preview failed: %v", err)
		}
		if p.Format != PreviewHTML || p.Content != src {
			t.Errorf("expected verbatim html, got %s %q", p.Format, p.Content)
		}
		if p.Title != "notes" || p.Kind != normalize.KindHTML {
			t.Errorf("unexpected title/kind %q %s", p.Title, p.Kind)
		}
	})

	t.Run("sanitized", func(t *testing.T) {
		p, err := svc.Preview(context.Background(), Request{Input: in}, PreviewOptions{Sanitize: true})
		if err != nil {
			t.Fatalf("Preview failed: %v", err)
		}
		if strings.Contains(p.Content, "script") || strings.Contains(p.Content, "onclick") {
			t.Errorf("expected script and handlers removed, got %q", p.Content)
		}
		if !strings.Contains(p.Content, "<b>bold</b>") {
			t.Errorf("expected formatting kept, got %q", p.Content)
		}
	})

	t.Run("markdown", func(t *testing.T) {
		p, err := svc.Preview(context.Background(), Request{Input: in}, PreviewOptions{Markdown: true, Sanitize: true})
		if err != nil {
			t.Fatalf("Preview failed: %v", err)
		}
		if p.Format != PreviewMarkdown {
			t.Errorf("expected markdown format, got %s", p.Format)
		}
		if !strings.Contains(p.Content, "# Intro") || !strings.Contains(p.Content, "**bold**") {
			t.Errorf("expected markdown heading and emphasis, got %q", p.Content)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := svc.Preview(context.Background(), Request{Input: normalize.Input{Name: "x.gif"}}, PreviewOptions{})
		if !errors.Is(err, types.ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	})
}
