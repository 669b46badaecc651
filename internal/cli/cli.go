// Package cli provides the swapctl command-line interface: schema
// migrations, one-shot expiry sweeps, offline scoring and token minting.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/config"
	"github.com/skillswap/skillswap-hub/internal/bootstrap"
	"github.com/skillswap/skillswap-hub/pkg/logger"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "SkillSwap operations tool",
	Long: `SkillSwap operations tool

Runs maintenance tasks against the same stores the API uses.
Configuration is read from the environment (and .env), exactly as
the api and worker binaries read it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		log = bootstrap.NewLogger(cfg).With(logger.Component("swapctl"))
		slog.SetDefault(log.Slog())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
