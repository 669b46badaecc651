package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/application/command"
	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
	"github.com/skillswap/skillswap-hub/internal/infrastructure/persistence/memory"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type mockExpirer struct {
	mock.Mock
}

func (m *mockExpirer) Handle(ctx context.Context, cmd command.ExpireSwapRequestsCommand) (*command.ExpireSwapRequestsResult, error) {
	args := m.Called(ctx, cmd)
	res, _ := args.Get(0).(*command.ExpireSwapRequestsResult)
	return res, args.Error(1)
}

func TestExpireSwapRequestsJob(t *testing.T) {
	cfg := ExpireSwapRequestsConfig{TTL: 48 * time.Hour, BatchSize: 25}

	t.Run("passes ttl and batch", func(t *testing.T) {
		m := &mockExpirer{}
		m.On("Handle", mock.Anything, command.ExpireSwapRequestsCommand{TTL: 48 * time.Hour, BatchSize: 25}).
			Return(&command.ExpireSwapRequestsResult{Scanned: 3, Expired: 2, Skipped: 1}, nil).Once()

		job := NewExpireSwapRequestsJob(m, cfg, quiet)
		require.NoError(t, job.Run(context.Background()))
		assert.Equal(t, "expire_swap_requests", job.Name())
		m.AssertExpectations(t)
	})

	t.Run("failed requests fail the run", func(t *testing.T) {
		m := &mockExpirer{}
		m.On("Handle", mock.Anything, mock.Anything).
			Return(&command.ExpireSwapRequestsResult{Scanned: 2, Expired: 1, Failed: 1}, nil)

		err := NewExpireSwapRequestsJob(m, cfg, quiet).Run(context.Background())
		assert.ErrorContains(t, err, "1 requests failed")
	})

	t.Run("command error", func(t *testing.T) {
		m := &mockExpirer{}
		m.On("Handle", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

		err := NewExpireSwapRequestsJob(m, cfg, quiet).Run(context.Background())
		assert.ErrorContains(t, err, "db down")
	})
}

func TestPurgeReadNotificationsJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := memory.NewNotificationRepository()

	save := func(id string, age time.Duration, read bool) {
		n, err := notification.NewNotification(notification.NewNotificationParams{
			ID:     id,
			UserID: "bob",
			Type:   notification.TypeSwapRequestReceived,
			Title:  "New swap request",
			Now:    now.Add(-age),
		})
		require.NoError(t, err)
		if read {
			n.MarkRead(now.Add(-age).Add(time.Hour))
		}
		require.NoError(t, repo.Save(ctx, n))
	}

	save("old-read", 40*24*time.Hour, true)
	save("old-unread", 40*24*time.Hour, false)
	save("new-read", 2*24*time.Hour, true)

	job := NewPurgeReadNotificationsJob(repo, shared.FixedClock{At: now}, 30*24*time.Hour, quiet)
	require.NoError(t, job.Run(ctx))

	_, err := repo.GetByID(ctx, "old-read")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	for _, id := range []string{"old-unread", "new-read"} {
		_, err := repo.GetByID(ctx, id)
		assert.NoError(t, err, id)
	}
}
