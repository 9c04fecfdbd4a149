package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/config"
	"github.com/jackzampolin/quire/internal/convert"
	"github.com/jackzampolin/quire/internal/normalize"
	"github.com/jackzampolin/quire/internal/types"
)

var (
	convertFormat string
	convertTitle  string
	convertOut    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a document into an e-book",
	Long: `Convert a PDF, HTML or DOCX document into an EPUB or AZW3 e-book.

The book is written to --out, or to the exports directory of the quire
home when --out is not set.

Examples:
  quire convert report.pdf
  quire convert notes.docx --format azw3 --title "Field Notes"
  quire convert page.html --out page.epub`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}

		format, ok := types.ParseOutputFormat(convertFormat)
		if !ok {
			return fmt.Errorf("%w: output format %q", types.ErrUnsupportedFormat, convertFormat)
		}

		in, err := readInput(args[0])
		if err != nil {
			return err
		}

		svc, err := newConverter(mgr.Get())
		if err != nil {
			return err
		}
		res, err := svc.Convert(cmd.Context(), convert.Request{
			Input:  in,
			Title:  convertTitle,
			Format: format,
		})
		if err != nil {
			return err
		}
		for _, m := range res.Messages {
			slog.Warn("conversion message", "type", m.Type, "message", m.Text)
		}

		path := convertOut
		if path == "" {
			if err := h.EnsureExists(); err != nil {
				return err
			}
			path = h.ExportPath(res.Artifact.Name)
		}
		if err := os.WriteFile(path, res.Artifact.Data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		fmt.Printf("Wrote %s (%d bytes)\n", path, res.Artifact.Size())
		return nil
	},
}

// readInput loads a document from disk. The media type is left to
// detection by extension and content.
func readInput(path string) (normalize.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return normalize.Input{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return normalize.Input{Name: filepath.Base(path), Data: data}, nil
}

func newConverter(cfg *config.Config) (*convert.Service, error) {
	opts := cfg.ConvertOptions()
	opts.Logger = slog.Default()
	return convert.New(opts)
}

func init() {
	convertCmd.Flags().StringVarP(&convertFormat, "format", "f", string(types.FormatEPUB), "output format: epub or azw3")
	convertCmd.Flags().StringVarP(&convertTitle, "title", "t", "", "book title (derived from the document if not set)")
	convertCmd.Flags().StringVar(&convertOut, "out", "", "output file path (default: <home>/exports/<title>.<ext>)")

	rootCmd.AddCommand(convertCmd)
}
