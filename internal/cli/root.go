package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/topplegame/topple/internal/config"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "topplectl",
		Short: "CLI tool for the Topple Towers server",
		Long: `topplectl is an operator CLI for the Topple Towers game server.

Health and diagnostics go over the HTTP API; game commands speak the
websocket wire protocol like any other client.`,
		Version: config.Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Create HTTP client
			client = NewClient(cfg.ServerURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: TOPPLE_SERVER)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newDiagCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		NewOutput(cfg.Output).PrintError(err)
		os.Exit(1)
	}
}
