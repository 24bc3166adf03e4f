package notifications_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/feature"
	"github.com/scribeworks/ordergate/pkg/notifications"
)

func TestForcedChannels(t *testing.T) {
	t.Parallel()

	f, err := notifications.NewForcedChannels(map[string][]string{
		"order.status_changed": {notifications.ChannelInApp},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{notifications.ChannelInApp}, f.ForcedChannelsFor("order.status_changed"))
	assert.Equal(t, []string{}, f.ForcedChannelsFor("order.created"))

	// Registration only adds.
	require.NoError(t, f.Register("order.status_changed", notifications.ChannelEmail, notifications.ChannelInApp))
	assert.Equal(t, []string{notifications.ChannelEmail, notifications.ChannelInApp}, f.ForcedChannelsFor("order.status_changed"))

	got := f.ForcedChannelsFor("order.status_changed")
	got[0] = "mutated"
	assert.Equal(t, notifications.ChannelEmail, f.ForcedChannelsFor("order.status_changed")[0])

	require.ErrorIs(t, f.Register("", notifications.ChannelEmail), notifications.ErrEventKeyRequired)
	require.ErrorIs(t, f.Register("x", " "), notifications.ErrInvalidChannel)
	assert.Panics(t, func() {
		notifications.MustNewForcedChannels(map[string][]string{"": {"email"}})
	})

	var nilSet *notifications.ForcedChannels
	assert.Empty(t, nilSet.ForcedChannelsFor("any"))
}

func TestForcedChannels_ConcurrentRegister(t *testing.T) {
	t.Parallel()

	f := notifications.MustNewForcedChannels(nil)
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.Register("evt", []string{"a", "b", "c", "d"}[i%4])
		}()
		go func() {
			defer wg.Done()
			_ = f.ForcedChannelsFor("evt")
		}()
	}
	wg.Wait()
	assert.Equal(t, []string{"a", "b", "c", "d"}, f.ForcedChannelsFor("evt"))
}

func TestGate_ResolveChannels(t *testing.T) {
	t.Parallel()

	forced := notifications.MustNewForcedChannels(map[string][]string{
		"order.status_changed": {notifications.ChannelEmail},
	})

	t.Run("forced channel survives a disabled preference", func(t *testing.T) {
		t.Parallel()
		g := notifications.MustNewGate(counter.NewMemoryStore(counter.WithCleanupInterval(0)), forced)

		got := g.ResolveChannels(context.Background(), "order.status_changed", notifications.Preferences{
			notifications.ChannelEmail: false,
			notifications.ChannelInApp: true,
		})
		assert.Equal(t, []string{notifications.ChannelEmail, notifications.ChannelInApp}, got)
	})

	t.Run("preferences only for unforced events", func(t *testing.T) {
		t.Parallel()
		g := notifications.MustNewGate(counter.NewMemoryStore(counter.WithCleanupInterval(0)), forced)

		got := g.ResolveChannels(context.Background(), "order.created", notifications.Preferences{
			notifications.ChannelEmail:   false,
			notifications.ChannelWebhook: true,
		})
		assert.Equal(t, []string{notifications.ChannelWebhook}, got)
		assert.Empty(t, g.ResolveChannels(context.Background(), "order.created", nil))
	})

	t.Run("system flag removes even forced channels", func(t *testing.T) {
		t.Parallel()
		flags, err := feature.NewMemoryProvider(
			&feature.Flag{Name: notifications.ChannelFlagPrefix + notifications.ChannelEmail, Enabled: false},
			&feature.Flag{Name: notifications.ChannelFlagPrefix + notifications.ChannelInApp, Enabled: true},
		)
		require.NoError(t, err)
		g := notifications.MustNewGate(counter.NewMemoryStore(counter.WithCleanupInterval(0)), forced,
			notifications.WithFeatureFlags(flags),
		)

		got := g.ResolveChannels(context.Background(), "order.status_changed", notifications.Preferences{
			notifications.ChannelInApp:   true,
			notifications.ChannelWebhook: true,
		})
		assert.Equal(t, []string{notifications.ChannelInApp, notifications.ChannelWebhook}, got)
	})
}

func TestGate_AllowOnce(t *testing.T) {
	t.Parallel()

	payload := notifications.Payload{Title: "Order approved", Message: "Your order #12 was approved", Link: "/orders/12"}

	t.Run("once per signature within ttl", func(t *testing.T) {
		t.Parallel()
		c := newClock()
		g := notifications.MustNewGate(newStore(t, c), nil)
		ctx := context.Background()

		ok, err := g.AllowOnce(ctx, "u-1", "order.status_changed", "w-1", payload, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = g.AllowOnce(ctx, "u-1", "order.status_changed", "w-1", payload, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		// Any component of the tuple makes it distinct.
		for _, tc := range []struct{ user, event, website string }{
			{"u-2", "order.status_changed", "w-1"},
			{"u-1", "order.created", "w-1"},
			{"u-1", "order.status_changed", "w-2"},
		} {
			ok, err = g.AllowOnce(ctx, tc.user, tc.event, tc.website, payload, time.Minute)
			require.NoError(t, err)
			assert.True(t, ok, tc)
		}

		// Separators inside ids do not merge tuples across websites.
		ok, err = g.AllowOnce(ctx, "b:u1", "order.status_changed", "w", payload, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = g.AllowOnce(ctx, "u1", "order.status_changed", "w:b", payload, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		changed := payload
		changed.Message = "Your order #12 was rejected"
		ok, err = g.AllowOnce(ctx, "u-1", "order.status_changed", "w-1", changed, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		c.Advance(time.Minute)
		ok, err = g.AllowOnce(ctx, "u-1", "order.status_changed", "w-1", payload, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("concurrent claims admit one", func(t *testing.T) {
		t.Parallel()
		g := notifications.MustNewGate(newStore(t, newClock()), nil)

		var (
			wg      sync.WaitGroup
			allowed atomic.Int64
		)
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := g.AllowOnce(context.Background(), "u-1", "evt", "w-1", payload, time.Minute)
				if err == nil && ok {
					allowed.Add(1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int64(1), allowed.Load())
	})

	t.Run("store unavailable", func(t *testing.T) {
		t.Parallel()
		g := notifications.MustNewGate(downStore{}, nil)

		ok, err := g.AllowOnce(context.Background(), "u-1", "evt", "w-1", payload, time.Minute)
		assert.False(t, ok)
		assert.ErrorIs(t, err, counter.ErrStoreUnavailable)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		g := notifications.MustNewGate(newStore(t, newClock()), nil)
		ctx := context.Background()

		_, err := g.AllowOnce(ctx, "", "evt", "w", payload, time.Minute)
		require.ErrorIs(t, err, notifications.ErrUserIDRequired)
		_, err = g.AllowOnce(ctx, "u", "", "w", payload, time.Minute)
		require.ErrorIs(t, err, notifications.ErrEventKeyRequired)
		_, err = g.AllowOnce(ctx, "u", "evt", "w", payload, 0)
		require.ErrorIs(t, err, notifications.ErrInvalidTTL)

		_, err = notifications.NewGate(nil, nil)
		require.ErrorIs(t, err, notifications.ErrStoreRequired)
	})
}

func TestSignature(t *testing.T) {
	t.Parallel()

	base := notifications.Notification{
		ID:        "n-1",
		Title:     "Order approved",
		Message:   "Your order was approved",
		Link:      "/orders/1",
		CreatedAt: time.Now(),
		Data:      map[string]any{"attempt": 1},
	}
	other := base
	other.ID = "n-2"
	other.CreatedAt = base.CreatedAt.Add(time.Hour)
	other.Data = map[string]any{"attempt": 2}

	assert.Equal(t, notifications.Signature(base.Payload()), notifications.Signature(other.Payload()))
	assert.Len(t, notifications.Signature(base.Payload()), 64)

	shifted := notifications.Payload{Title: "Order approvedYour", Message: " order was approved", Link: "/orders/1"}
	assert.NotEqual(t, notifications.Signature(base.Payload()), notifications.Signature(shifted))

	assert.Equal(t, "dedupe:3:w-1:3:u-1:3:evt:abc", notifications.DedupeKey("w-1", "u-1", "evt", "abc"))
	assert.NotEqual(t,
		notifications.DedupeKey("w", "b:u1", "evt", "abc"),
		notifications.DedupeKey("w:b", "u1", "evt", "abc"),
	)
}
