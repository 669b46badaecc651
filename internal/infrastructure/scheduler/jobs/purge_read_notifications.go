package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

// PurgeReadNotificationsJob deletes read notifications older than the
// retention period. Unread notifications are never purged.
type PurgeReadNotificationsJob struct {
	repo      notification.Repository
	clock     shared.Clock
	retention time.Duration
	logger    *slog.Logger
}

// DefaultNotificationRetention is how long read notifications are kept.
const DefaultNotificationRetention = 30 * 24 * time.Hour

// NewPurgeReadNotificationsJob creates the job.
func NewPurgeReadNotificationsJob(
	repo notification.Repository,
	clock shared.Clock,
	retention time.Duration,
	logger *slog.Logger,
) *PurgeReadNotificationsJob {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if retention <= 0 {
		retention = DefaultNotificationRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeReadNotificationsJob{
		repo:      repo,
		clock:     clock,
		retention: retention,
		logger:    logger.With("job", "purge_read_notifications"),
	}
}

// Name returns the job name.
func (j *PurgeReadNotificationsJob) Name() string {
	return "purge_read_notifications"
}

// Description returns a human-readable description.
func (j *PurgeReadNotificationsJob) Description() string {
	return "Deletes read notifications older than the retention period"
}

// Run executes the purge.
func (j *PurgeReadNotificationsJob) Run(ctx context.Context) error {
	before := j.clock.Now().Add(-j.retention)

	removed, err := j.repo.PurgeRead(ctx, before)
	if err != nil {
		return fmt.Errorf("purge read notifications: %w", err)
	}

	j.logger.Info("purge finished", "removed", removed, "before", before.Format(time.RFC3339))
	return nil
}
