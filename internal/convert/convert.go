// Package convert is the library boundary of quire: document bytes in, a
// named EPUB or AZW3 artifact plus the intermediate HTML out.
package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackzampolin/quire/internal/docx"
	"github.com/jackzampolin/quire/internal/epub"
	"github.com/jackzampolin/quire/internal/mobi"
	"github.com/jackzampolin/quire/internal/normalize"
	"github.com/jackzampolin/quire/internal/pdftext"
	"github.com/jackzampolin/quire/internal/reflow"
	"github.com/jackzampolin/quire/internal/types"
)

// Request is one conversion.
type Request struct {
	Input  normalize.Input
	Title  string // overrides the derived title when set
	Format types.OutputFormat
}

// Result is a finished conversion.
type Result struct {
	Artifact types.Artifact
	Preview  string // normalized HTML
	Title    string
	Kind     normalize.Kind
	Pages    int
	Messages []docx.Message
}

// Options configures a Service.
type Options struct {
	PDFBackend string
	Reflow     reflow.Options
	Logger     *slog.Logger
}

// Service runs conversions. It holds no per-call state and is safe for
// concurrent use.
type Service struct {
	Normalizer *normalize.Normalizer
	EPUB       *epub.Builder
	MOBI       *mobi.Encoder
	Logger     *slog.Logger
}

// New creates a Service backed by the bundled parsers and packagers.
func New(opts Options) (*Service, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parser, err := pdftext.New(opts.PDFBackend, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		Normalizer: &normalize.Normalizer{
			PDF:    parser,
			Docx:   &docx.Converter{Logger: logger},
			Text:   normalize.CharsetDecoder{},
			Reflow: opts.Reflow,
			Logger: logger,
		},
		EPUB:   epub.NewBuilder(epub.ZipArchiver{}),
		MOBI:   mobi.NewEncoder(),
		Logger: logger,
	}, nil
}

// Convert normalizes the input and packages it in the requested format.
func (s *Service) Convert(ctx context.Context, req Request) (*Result, error) {
	doc, err := s.normalize(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	title := normalize.FirstTitle(req.Title, doc.Title)
	format := req.Format
	if format == "" {
		format = types.FormatEPUB
	}

	data, err := s.pack(format, title, doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("package %s as %s: %w", req.Input.Name, format, err)
	}

	s.logger().Info("converted",
		"file", req.Input.Name,
		"kind", doc.Kind,
		"format", format,
		"title", title,
		"bytes", len(data))

	return &Result{
		Artifact: types.Artifact{
			Name:      ArtifactName(title, format),
			MediaType: format.MediaType(),
			Data:      data,
		},
		Preview:  doc.HTML,
		Title:    title,
		Kind:     doc.Kind,
		Pages:    doc.Pages,
		Messages: doc.Messages,
	}, nil
}

func (s *Service) normalize(ctx context.Context, in normalize.Input) (*normalize.Document, error) {
	if s.Normalizer == nil {
		return nil, fmt.Errorf("%w: no normalizer configured", types.ErrExtractorUnavailable)
	}
	return s.Normalizer.Normalize(ctx, in)
}

func (s *Service) pack(format types.OutputFormat, title, body string) ([]byte, error) {
	switch format {
	case types.FormatEPUB:
		if s.EPUB == nil {
			return nil, types.ErrPackagingUnavailable
		}
		pkg, err := s.EPUB.Build(title, body)
		if err != nil {
			return nil, err
		}
		return pkg.Data, nil
	case types.FormatAZW3:
		if s.MOBI == nil {
			return nil, types.ErrPackagingUnavailable
		}
		return s.MOBI.Encode(title, body)
	default:
		return nil, fmt.Errorf("%w: output format %q", types.ErrUnsupportedFormat, format)
	}
}

func (s *Service) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// ArtifactName returns the download name for a title in format.
func ArtifactName(title string, format types.OutputFormat) string {
	name := SanitizeFilename(title)
	if name == "" {
		name = normalize.DefaultTitle
	}
	return name + format.Extension()
}

// SanitizeFilename makes a title safe to use as a file name.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		"\n", " ",
		"\r", " ",
		"\t", " ",
	)
	name = replacer.Replace(name)
	name = strings.Trim(name, " .")
	if len(name) > 100 {
		name = strings.ToValidUTF8(name[:100], "")
	}
	return name
}
