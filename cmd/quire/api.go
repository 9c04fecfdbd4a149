package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/quire/internal/api"
	"github.com/jackzampolin/quire/internal/server/endpoints"
)

var serverURL string

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func newAPICmd() *cobra.Command {
	reg := api.NewRegistry()
	for _, ep := range endpoints.All() {
		reg.Register(ep)
	}

	cmd := reg.BuildCommands(getServerURL)
	// Persistent so all subcommands inherit it
	cmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)
	return cmd
}

func init() {
	rootCmd.AddCommand(newAPICmd())
}
