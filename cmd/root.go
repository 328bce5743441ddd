// Package cmd implements the saturday CLI: an interactive console chat
// by default, plus serve, ingest, and version subcommands.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"saturday/internal/config"
	"saturday/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "saturday",
	Short: "Saturday - a local threat-intel assistant",
	Long: `Saturday answers questions over your own threat-intel documents.

It indexes local files (.txt, .md, .pdf, .json feeds such as CVE
records, the KEV catalog, and STIX bundles) into a vector store and
answers queries from that index, asking for permission before ever
touching the web.

Running saturday without a subcommand starts an interactive chat.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig loads configuration and builds the logger the commands
// share.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return cfg, log.New(log.Config{Level: level}), nil
}
