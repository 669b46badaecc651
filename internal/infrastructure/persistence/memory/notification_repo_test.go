package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap-hub/internal/domain/notification"
	"github.com/skillswap/skillswap-hub/internal/domain/shared"
)

func seedNotification(t *testing.T, repo *NotificationRepository, id string, user shared.UserID, at time.Time) {
	t.Helper()
	n, err := notification.NewNotification(notification.NewNotificationParams{
		ID:     id,
		UserID: user,
		Type:   notification.TypeSwapRequestReceived,
		Title:  "New swap request",
		Now:    at,
	})
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), n))
}

func TestNotificationRepo_UnreadIsDerived(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository()

	seedNotification(t, repo, "n1", "bob", base)
	seedNotification(t, repo, "n2", "bob", base.Add(time.Minute))
	seedNotification(t, repo, "n3", "alice", base)

	unread, err := repo.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	// Another user's ID is ignored.
	updated, err := repo.MarkRead(ctx, "bob", []string{"n1", "n3"}, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	unread, err = repo.CountUnread(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	list, err := repo.ListByUser(ctx, "bob", notification.ListOptions{UnreadOnly: true, Pagination: shared.DefaultPagination()})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "n2", list[0].ID)

	updated, err = repo.MarkRead(ctx, "bob", nil, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, updated)

	removed, err := repo.PurgeRead(ctx, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = repo.GetByID(ctx, "n3")
	assert.NoError(t, err)
}
