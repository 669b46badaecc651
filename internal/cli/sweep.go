package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/bootstrap"
)

var (
	sweepTTL       time.Duration
	sweepBatchSize int
	sweepMaxRounds int
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Expire overdue pending swap requests once",
	Long: `Expire overdue pending swap requests once.

Runs the same sweep the worker schedules, then exits. Expiry
notifications are created for both participants.

Examples:
  # Sweep with configured TTL
  swapctl sweep

  # Expire anything pending longer than three days
  swapctl sweep --ttl 72h`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepTTL, "ttl", 0, "Pending lifetime (default: SWAP_REQUEST_TTL)")
	sweepCmd.Flags().IntVar(&sweepBatchSize, "batch", 0, "Requests per round (default: SWAP_SWEEP_BATCH)")
	sweepCmd.Flags().IntVar(&sweepMaxRounds, "rounds", 0, "Maximum rounds (0 = handler default)")
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	slogger := log.Slog()

	stores, err := bootstrap.OpenStores(ctx, cfg, slogger)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	bus, err := bootstrap.NewEventBus(cfg, stores, slogger)
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	defer func() {
		_ = bus.Close()
	}()

	if _, err := bootstrap.WireNotifications(bus, stores, log); err != nil {
		return err
	}

	ttl := sweepTTL
	if ttl <= 0 {
		ttl = cfg.Swap.RequestTTL
	}
	batch := sweepBatchSize
	if batch <= 0 {
		batch = cfg.Swap.SweepBatchSize
	}

	h := command.NewExpireSwapRequestsHandler(stores.Requests, bus, stores.Locker, nil)
	result, err := h.Handle(ctx, command.ExpireSwapRequestsCommand{
		TTL:       ttl,
		BatchSize: batch,
		MaxRounds: sweepMaxRounds,
	})
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	return printJSON(cmd.OutOrStdout(), map[string]any{
		"scanned":     result.Scanned,
		"expired":     result.Expired,
		"skipped":     result.Skipped,
		"failed":      result.Failed,
		"duration":    result.Duration.String(),
		"expired_ids": result.ExpiredIDs,
	})
}
