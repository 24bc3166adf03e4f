//go:build integration

package notifications_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/internal/testutil/containers"
	"github.com/scribeworks/ordergate/pkg/notifications"
)

func TestMongoStorage(t *testing.T) {
	db := containers.NewMongoDatabase(t)
	ctx := context.Background()

	newStorage := func(t *testing.T, c *clock) *notifications.MongoStorage {
		t.Helper()
		s, err := notifications.NewMongoStorage(ctx, db,
			notifications.WithCollection("inbox_"+t.Name()[len("TestMongoStorage/"):]),
			notifications.WithMongoClock(c.Now),
		)
		require.NoError(t, err)
		return s
	}

	t.Run("create and get", func(t *testing.T) {
		c := newClock()
		s := newStorage(t, c)

		require.ErrorIs(t, s.Create(ctx, notifications.Notification{UserID: "u"}), notifications.ErrIDRequired)
		require.ErrorIs(t, s.Create(ctx, notifications.Notification{ID: "n"}), notifications.ErrUserIDRequired)

		n := notifications.Notification{
			ID:        "n-1",
			UserID:    "u-1",
			WebsiteID: "w-1",
			EventKey:  "order.status_changed",
			Type:      notifications.TypeSuccess,
			Title:     "Order approved",
			Data:      map[string]any{"order_id": "o-1"},
		}
		require.NoError(t, s.Create(ctx, n))
		require.ErrorIs(t, s.Create(ctx, n), notifications.ErrNotificationExists)

		got, err := s.Get(ctx, "u-1", "n-1")
		require.NoError(t, err)
		assert.Equal(t, "Order approved", got.Title)
		assert.Equal(t, notifications.TypeSuccess, got.Type)
		assert.Equal(t, "o-1", got.Data["order_id"])
		assert.True(t, c.Now().Equal(got.CreatedAt))

		_, err = s.Get(ctx, "u-2", "n-1")
		require.ErrorIs(t, err, notifications.ErrNotificationNotFound)
	})

	t.Run("list", func(t *testing.T) {
		c := newClock()
		s := newStorage(t, c)
		seedStorage(t, s, c)

		tests := []struct {
			name string
			opts notifications.ListOptions
			want []string
		}{
			{name: "all live", want: []string{"n-3", "n-2", "n-1"}},
			{name: "website", opts: notifications.ListOptions{WebsiteID: "w-1"}, want: []string{"n-2", "n-1"}},
			{name: "event", opts: notifications.ListOptions{EventKeys: []string{"order.created"}}, want: []string{"n-1"}},
			{name: "limit", opts: notifications.ListOptions{Limit: 2}, want: []string{"n-3", "n-2"}},
			{name: "offset", opts: notifications.ListOptions{Offset: 2, Limit: 5}, want: []string{"n-1"}},
			{name: "offset past end", opts: notifications.ListOptions{Offset: 10}, want: []string{}},
		}
		for _, tt := range tests {
			got, err := s.List(ctx, "u-1", tt.opts)
			require.NoError(t, err, tt.name)
			assert.Equal(t, tt.want, ids(got), tt.name)
		}

		since := c.Now().Add(90 * time.Second)
		got, err := s.List(ctx, "u-1", notifications.ListOptions{Since: &since})
		require.NoError(t, err)
		assert.Equal(t, []string{"n-3"}, ids(got))
	})

	t.Run("mark read and delete", func(t *testing.T) {
		c := newClock()
		s := newStorage(t, c)
		seedStorage(t, s, c)

		n, err := s.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		require.NoError(t, s.MarkRead(ctx, "u-1", "n-1", "missing"))
		read, err := s.Get(ctx, "u-1", "n-1")
		require.NoError(t, err)
		assert.True(t, read.Read)
		require.NotNil(t, read.ReadAt)
		assert.True(t, c.Now().Equal(*read.ReadAt))

		require.NoError(t, s.Delete(ctx, "u-1", "n-2"))
		require.NoError(t, s.Delete(ctx, "u-2", "n-3"))
		n, err = s.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		// Works through Inbox like any Storage.
		inbox := notifications.NewInbox(s)
		require.NoError(t, inbox.MarkAllRead(ctx, "u-1"))
		n, err = inbox.CountUnread(ctx, "u-1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}
