package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"saturday/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [dir]",
	Short: "Index documents into the vector store",
	Long: `Ingest reads every supported file (.txt, .md, .pdf, .json) in the
data directory, chunks it, and upserts the chunks into the vector
index. Chunk IDs are stable per file, so re-running over unchanged
files is a no-op.

An optional directory argument overrides the configured data_dir.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) == 1 {
			dir = args[0]
		}
		return runIngest(cmd.Context(), dir)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(parent context.Context, dir string) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if dir != "" {
		cfg.DataDir = dir
	}

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	result, err := a.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingesting documents: %w", err)
	}

	fmt.Println(result)
	return nil
}
