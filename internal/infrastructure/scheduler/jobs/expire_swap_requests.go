// Package jobs contains the scheduled jobs run by the worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/domain/swap"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE SWAP REQUESTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// SwapExpirer is the command the job drives.
type SwapExpirer interface {
	Handle(ctx context.Context, cmd command.ExpireSwapRequestsCommand) (*command.ExpireSwapRequestsResult, error)
}

// ExpireSwapRequestsConfig contains configuration for the sweep.
type ExpireSwapRequestsConfig struct {
	// TTL is how long a request may stay pending.
	TTL time.Duration

	// BatchSize is the page size of one sweep round.
	BatchSize int

	// Timeout bounds one run.
	Timeout time.Duration
}

// DefaultExpireSwapRequestsConfig returns the production defaults.
func DefaultExpireSwapRequestsConfig() ExpireSwapRequestsConfig {
	return ExpireSwapRequestsConfig{
		TTL:       swap.DefaultRequestTTL,
		BatchSize: 100,
		Timeout:   5 * time.Minute,
	}
}

// ExpireSwapRequestsJob moves overdue pending requests to expired.
// Re-running it is harmless: terminal requests are skipped.
type ExpireSwapRequestsJob struct {
	expirer SwapExpirer
	config  ExpireSwapRequestsConfig
	logger  *slog.Logger
}

// NewExpireSwapRequestsJob creates the job.
func NewExpireSwapRequestsJob(expirer SwapExpirer, config ExpireSwapRequestsConfig, logger *slog.Logger) *ExpireSwapRequestsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireSwapRequestsJob{
		expirer: expirer,
		config:  config,
		logger:  logger.With("job", "expire_swap_requests"),
	}
}

// Name returns the job name.
func (j *ExpireSwapRequestsJob) Name() string {
	return "expire_swap_requests"
}

// Description returns a human-readable description.
func (j *ExpireSwapRequestsJob) Description() string {
	return "Expires swap requests that stayed pending longer than the TTL"
}

// Run executes one sweep.
func (j *ExpireSwapRequestsJob) Run(ctx context.Context) error {
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	result, err := j.expirer.Handle(ctx, command.ExpireSwapRequestsCommand{
		TTL:       j.config.TTL,
		BatchSize: j.config.BatchSize,
	})
	if err != nil {
		return fmt.Errorf("expire swap requests: %w", err)
	}

	j.logger.Info("sweep finished",
		"scanned", result.Scanned,
		"expired", result.Expired,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"duration", result.Duration.String(),
	)

	if result.Failed > 0 {
		return fmt.Errorf("expire swap requests: %d requests failed", result.Failed)
	}
	return nil
}
