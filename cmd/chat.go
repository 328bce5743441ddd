package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"saturday/internal/app"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(parent context.Context) error {
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
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

	fmt.Printf("Saturday ready. %d chunks indexed. Type 'exit' to quit.\n\n", a.Knowledge.Count())

	session := a.NewAgent()
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if query == "exit" || query == "quit" {
			return nil
		}

		reply, err := session.Respond(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}

		failed := false
		for fragment, err := range reply.Stream {
			if err != nil {
				fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
				failed = true
				break
			}
			fmt.Print(fragment)
		}
		if failed {
			continue
		}
		fmt.Println()

		if len(reply.Sources) > 0 {
			fmt.Printf("[Sources: %s]\n", strings.Join(reply.Sources, ", "))
		}
		fmt.Println()
	}
}
