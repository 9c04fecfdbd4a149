package convert

import (
	"context"
	"fmt"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"

	"github.com/jackzampolin/quire/internal/docx"
	"github.com/jackzampolin/quire/internal/normalize"
)

// Preview content formats.
const (
	PreviewHTML     = "html"
	PreviewMarkdown = "markdown"
)

// PreviewOptions selects how normalized HTML is rendered for display.
type PreviewOptions struct {
	Markdown bool `mapstructure:"markdown" yaml:"markdown" json:"markdown"`
	Sanitize bool `mapstructure:"sanitize" yaml:"sanitize" json:"sanitize"`
}

// Preview is the normalized document rendered for display.
type Preview struct {
	Title    string         `json:"title" yaml:"title"`
	Kind     normalize.Kind `json:"kind" yaml:"kind"`
	Format   string         `json:"format" yaml:"format"`
	Pages    int            `json:"pages,omitempty" yaml:"pages,omitempty"`
	Content  string         `json:"content" yaml:"content"`
	Messages []docx.Message `json:"messages,omitempty" yaml:"messages,omitempty"`
}

// Preview normalizes the input without packaging it.
func (s *Service) Preview(ctx context.Context, req Request, opts PreviewOptions) (*Preview, error) {
	doc, err := s.normalize(ctx, req.Input)
	if err != nil {
		return nil, err
	}

	content, format, err := RenderPreview(doc.HTML, opts)
	if err != nil {
		return nil, fmt.Errorf("render preview of %s: %w", req.Input.Name, err)
	}

	return &Preview{
		Title:    normalize.FirstTitle(req.Title, doc.Title),
		Kind:     doc.Kind,
		Format:   format,
		Pages:    doc.Pages,
		Content:  content,
		Messages: doc.Messages,
	}, nil
}

// RenderPreview applies the preview options to normalized HTML and reports
// the resulting format. Sanitizing runs before Markdown conversion.
func RenderPreview(html string, opts PreviewOptions) (string, string, error) {
	if opts.Sanitize {
		html = bluemonday.UGCPolicy().Sanitize(html)
	}
	if !opts.Markdown {
		return html, PreviewHTML, nil
	}

	md, err := markdownConverter().ConvertString(html)
	if err != nil {
		return "", "", fmt.Errorf("html to markdown: %w", err)
	}
	return md, PreviewMarkdown, nil
}

func markdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
}
