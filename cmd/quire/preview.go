package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/convert"
)

var (
	previewMarkdown   bool
	previewSanitize   bool
	previewStructured bool
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Print the normalized HTML of a document",
	Long: `Print the HTML a document normalizes to, before it is packaged.

--markdown renders the HTML as Markdown and --sanitize strips scripts and
unsafe attributes first. Both default to the preview section of the config.
--structured prints title, kind and page count alongside the content
using the --output format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, _, err := loadConfig()
		if err != nil {
			return err
		}
		cfg := mgr.Get()

		opts := cfg.Preview
		if cmd.Flags().Changed("markdown") {
			opts.Markdown = previewMarkdown
		}
		if cmd.Flags().Changed("sanitize") {
			opts.Sanitize = previewSanitize
		}

		in, err := readInput(args[0])
		if err != nil {
			return err
		}
		svc, err := newConverter(cfg)
		if err != nil {
			return err
		}
		p, err := svc.Preview(cmd.Context(), convert.Request{Input: in}, opts)
		if err != nil {
			return err
		}

		if previewStructured {
			return api.Output(p)
		}
		fmt.Println(p.Content)
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewMarkdown, "markdown", false, "render as Markdown")
	previewCmd.Flags().BoolVar(&previewSanitize, "sanitize", false, "sanitize the HTML")
	previewCmd.Flags().BoolVar(&previewStructured, "structured", false, "print the full preview record")

	rootCmd.AddCommand(previewCmd)
}
