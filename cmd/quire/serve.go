package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the quire server",
	Long: `Start the quire HTTP server.

The config file is watched while the server runs. Edits to the reflow,
pdf and preview sections apply to the next request; an invalid edit is
logged and the previous settings stay active.

The server provides:
  - /health       - Basic server health check
  - /ready        - Readiness check (conversion service loaded)
  - /api/formats  - Supported input and output formats
  - /api/convert  - Convert an uploaded document
  - /api/preview  - Normalized HTML or Markdown of an upload
  - /swagger.json - OpenAPI description

Examples:
  quire serve                    # Start on the configured port (8080)
  quire serve --port 3000        # Start on custom port
  quire serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := newLogger(os.Stdout)
		if !cmd.Flags().Changed("log-level") {
			logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}))
		}

		mgr, h, err := loadConfig()
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		if path := mgr.ConfigFile(); path != "" {
			logger.Info("loaded config", "path", path)
			mgr.OnError(func(err error) {
				logger.Error("config reload failed, keeping previous settings", "error", err)
			})
			mgr.WatchConfig()
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:          serveHost,
			Port:          servePort,
			ConfigManager: mgr,
			Home:          h,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default: server.host from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default: server.port from config)")

	rootCmd.AddCommand(serveCmd)
}
