package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/epub"
	"github.com/jackzampolin/quire/internal/mobi"
	"github.com/jackzampolin/quire/internal/pdftext"
	"github.com/jackzampolin/quire/internal/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.epub|file.azw3|file.pdf>",
	Short: "Print the structure of an EPUB or AZW3 book",
	Long: `Decode a book written by quire and print its structure.

EPUB archives list their entries, identifiers and spine. AZW3 books list
the PDB record table and the PalmDOC and MOBI header fields. PDF inputs
report the page count pdfcpu finds.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}

		if isPDF(args[0], data) {
			pages, err := pdftext.PageCount(data)
			if err != nil {
				return fmt.Errorf("%w: %s: %v", types.ErrDecodeFailure, args[0], err)
			}
			return api.Output(pdfInfo{Kind: "pdf", Pages: pages})
		}

		switch bookFormat(args[0], data) {
		case types.FormatEPUB:
			m, err := epub.Inspect(data)
			if err != nil {
				return err
			}
			return api.Output(m)
		case types.FormatAZW3:
			f, err := mobi.Decode(data)
			if err != nil {
				return err
			}
			return api.Output(f)
		default:
			return fmt.Errorf("%w: %s is neither EPUB nor AZW3", types.ErrUnsupportedFormat, args[0])
		}
	},
}

type pdfInfo struct {
	Kind  string `json:"kind" yaml:"kind"`
	Pages int    `json:"pages" yaml:"pages"`
}

func isPDF(name string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || bytes.HasPrefix(data, []byte("%PDF-"))
}

// bookFormat picks the decoder by extension, then by content.
func bookFormat(name string, data []byte) types.OutputFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".epub":
		return types.FormatEPUB
	case ".azw3", ".azw", ".mobi":
		return types.FormatAZW3
	}
	if bytes.HasPrefix(data, []byte("PK\x03\x04")) {
		return types.FormatEPUB
	}
	if len(data) >= 68 && string(data[60:68]) == "BOOKMOBI" {
		return types.FormatAZW3
	}
	return ""
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
