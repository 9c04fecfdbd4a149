package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/config"
	"github.com/jackzampolin/quire/internal/home"
	"github.com/jackzampolin/quire/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "quire",
	Short: "Convert PDF, HTML and DOCX documents into EPUB and AZW3 e-books",
	Long: `Quire turns documents into e-books.

Every input is first normalized to HTML:
  - PDF text is extracted page by page and reflowed into paragraphs
  - DOCX is converted with its headings, lists and tables kept
  - HTML is decoded to UTF-8 and used as is

The HTML is then packaged as an EPUB 2 archive or a MOBI/AZW3 book.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.quire/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "quire home directory (default: ~/.quire)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "warn", "log level: debug, info, warn or error",
	)

	// Set output format and logger before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
		slog.SetDefault(newLogger(os.Stderr))
	}

	rootCmd.AddCommand(versionCmd)
}

// parseLevel maps the --log-level flag to a slog level.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelWarn
	}
	return level
}

func newLogger(w *os.File) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLevel(logLevel),
	}))
}

// loadConfig resolves the home directory and reads configuration from
// --config, the working directory or the home directory.
func loadConfig() (*config.Manager, *home.Dir, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, nil, err
	}
	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return mgr, h, nil
}
