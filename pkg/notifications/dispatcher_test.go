package notifications_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/notifications"
)

func statusChanged() notifications.Notification {
	return notifications.Notification{
		WebsiteID: "w-1",
		UserID:    "client-1",
		EventKey:  "order.status_changed",
		Title:     "Order approved",
		Message:   "Your order is approved",
		Link:      "/orders/o-1",
	}
}

func newDispatcher(t *testing.T, c *clock, opts ...notifications.DispatcherOption) (*notifications.Dispatcher, *notifications.MemoryStorage) {
	t.Helper()
	forced := notifications.MustNewForcedChannels(map[string][]string{
		"order.status_changed": {notifications.ChannelInApp},
	})
	storage := notifications.NewMemoryStorage(notifications.WithStorageClock(c.Now))
	base := []notifications.DispatcherOption{
		notifications.WithDeliverer(notifications.ChannelInApp, notifications.NewInAppDeliverer(storage)),
		notifications.WithDispatcherClock(c.Now),
		notifications.WithDedupeTTL(time.Minute),
	}
	return notifications.NewDispatcher(notifications.MustNewGate(newStore(t, c), forced), append(base, opts...)...), storage
}

func TestDispatcher_Dispatch(t *testing.T) {
	t.Parallel()

	t.Run("delivered then suppressed then delivered after ttl", func(t *testing.T) {
		t.Parallel()
		c := newClock()
		ds, storage := newDispatcher(t, c)
		ctx := context.Background()

		report, err := ds.Dispatch(ctx, statusChanged(), nil)
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeDelivered, report.Outcome)
		assert.Equal(t, []string{notifications.ChannelInApp}, report.Delivered)
		assert.NotEmpty(t, report.NotificationID)

		stored, err := storage.Get(ctx, "client-1", report.NotificationID)
		require.NoError(t, err)
		assert.Equal(t, notifications.TypeInfo, stored.Type)
		assert.Equal(t, c.Now(), stored.CreatedAt)

		report, err = ds.Dispatch(ctx, statusChanged(), nil)
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeSuppressed, report.Outcome)
		assert.Empty(t, report.Delivered)

		c.Advance(time.Minute)
		report, err = ds.Dispatch(ctx, statusChanged(), nil)
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeDelivered, report.Outcome)

		n, err := storage.CountUnread(ctx, "client-1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})

	t.Run("partial and failed", func(t *testing.T) {
		t.Parallel()
		sendErr := errors.New("smtp down")
		var calls atomic.Int64
		failing := notifications.DelivererFunc(func(context.Context, notifications.Notification) error {
			calls.Add(1)
			return sendErr
		})
		c := newClock()
		ds, _ := newDispatcher(t, c, notifications.WithDeliverer(notifications.ChannelEmail, failing))

		report, err := ds.Dispatch(context.Background(), statusChanged(), notifications.Preferences{
			notifications.ChannelEmail: true,
		})
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeDeliveredPartial, report.Outcome)
		assert.Equal(t, []string{notifications.ChannelInApp}, report.Delivered)
		assert.ErrorIs(t, report.Failed[notifications.ChannelEmail], sendErr)
		assert.Equal(t, int64(1), calls.Load(), "failed channels are not retried")

		n := statusChanged()
		n.EventKey = "order.created"
		report, err = ds.Dispatch(context.Background(), n, notifications.Preferences{
			notifications.ChannelEmail: true,
			"sms":                      true,
		})
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeFailed, report.Outcome)
		assert.ErrorIs(t, report.Failed["sms"], notifications.ErrNoDeliverer)
	})

	t.Run("skipped without channels", func(t *testing.T) {
		t.Parallel()
		ds, _ := newDispatcher(t, newClock())
		n := statusChanged()
		n.EventKey = "order.created"

		report, err := ds.Dispatch(context.Background(), n, notifications.Preferences{notifications.ChannelEmail: false})
		require.NoError(t, err)
		assert.Equal(t, notifications.OutcomeSkipped, report.Outcome)
	})

	t.Run("dedupe store down sends anyway", func(t *testing.T) {
		t.Parallel()
		storage := notifications.NewMemoryStorage()
		ds := notifications.NewDispatcher(
			notifications.MustNewGate(downStore{}, notifications.MustNewForcedChannels(map[string][]string{
				"order.status_changed": {notifications.ChannelInApp},
			})),
			notifications.WithDeliverer(notifications.ChannelInApp, notifications.NewInAppDeliverer(storage)),
		)

		report, err := ds.Dispatch(context.Background(), statusChanged(), nil)
		require.NoError(t, err)
		assert.True(t, report.DedupeDegraded)
		assert.Equal(t, notifications.OutcomeDelivered, report.Outcome)
	})

	t.Run("invalid notification", func(t *testing.T) {
		t.Parallel()
		ds, _ := newDispatcher(t, newClock())

		_, err := ds.Dispatch(context.Background(), notifications.Notification{EventKey: "x"}, nil)
		require.ErrorIs(t, err, notifications.ErrUserIDRequired)
		_, err = ds.Dispatch(context.Background(), notifications.Notification{UserID: "u"}, nil)
		require.ErrorIs(t, err, notifications.ErrEventKeyRequired)

		assert.Panics(t, func() { notifications.NewDispatcher(nil) })
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		m := notifications.NewMetrics(prometheus.NewRegistry())
		ds, _ := newDispatcher(t, newClock(), notifications.WithDispatcherMetrics(m))

		_, err := ds.Dispatch(context.Background(), statusChanged(), nil)
		require.NoError(t, err)
		_, err = ds.Dispatch(context.Background(), statusChanged(), nil)
		require.NoError(t, err)

		assert.InDelta(t, 1, testutil.ToFloat64(m.Dispatched.WithLabelValues("delivered")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Dispatched.WithLabelValues("suppressed")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.Deliveries.WithLabelValues(notifications.ChannelInApp, "ok")), 0)
	})
}
