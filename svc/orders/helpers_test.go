package orders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/notifications"
	"github.com/scribeworks/ordergate/pkg/ratelimit"
	"github.com/scribeworks/ordergate/pkg/rbac"
	"github.com/scribeworks/ordergate/pkg/statemachine"
	"github.com/scribeworks/ordergate/svc/orders"
)

const websiteID = "w-1"

var (
	client  = statemachine.Actor{ID: "client-1", Role: rbac.RoleClient, WebsiteID: websiteID}
	other   = statemachine.Actor{ID: "client-2", Role: rbac.RoleClient, WebsiteID: websiteID}
	writer  = statemachine.Actor{ID: "writer-1", Role: rbac.RoleWriter, WebsiteID: websiteID}
	writer2 = statemachine.Actor{ID: "writer-2", Role: rbac.RoleWriter, WebsiteID: websiteID}
	editor  = statemachine.Actor{ID: "editor-1", Role: rbac.RoleEditor, WebsiteID: websiteID}
	support = statemachine.Actor{ID: "support-1", Role: rbac.RoleSupport, WebsiteID: websiteID}
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *orders.Service
	repo  *orders.MemoryRepository
	inbox *notifications.MemoryStorage
	clock *clock
}

func newFixture(t *testing.T, opts ...orders.ServiceOption) *fixture {
	t.Helper()

	c := newClock()
	store := counter.NewMemoryStore(counter.WithClock(c.Now), counter.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })

	inbox := notifications.NewMemoryStorage(notifications.WithStorageClock(c.Now))
	forced := notifications.MustNewForcedChannels(map[string][]string{
		orders.EventStatusChanged: {notifications.ChannelInApp},
		orders.EventAssigned:      {notifications.ChannelInApp},
	})
	dispatcher := notifications.NewDispatcher(
		notifications.MustNewGate(store, forced),
		notifications.WithDeliverer(notifications.ChannelInApp, notifications.NewInAppDeliverer(inbox)),
		notifications.WithDispatcherClock(c.Now),
	)

	repo := orders.NewMemoryRepository()
	authz := rbac.MustNewAuthorizer(context.Background(), rbac.NewInMemRoleSource(rbac.DefaultRoles()))
	base := []orders.ServiceOption{
		orders.WithDispatcher(dispatcher),
		orders.WithClock(c.Now),
	}
	svc, err := orders.NewService(repo, authz, append(base, opts...)...)
	require.NoError(t, err)

	return &fixture{svc: svc, repo: repo, inbox: inbox, clock: c}
}

// placeOrder creates an order as client and moves it to status through the
// regular lifecycle.
func (f *fixture) placeOrder(t *testing.T, status statemachine.State) *orders.Order {
	t.Helper()
	ctx := context.Background()

	o, err := f.svc.Create(ctx, client, orders.NewOrder{Title: "Essay on Go"})
	require.NoError(t, err)

	if status == orders.StatusPending {
		return o
	}
	o, err = f.svc.Transition(ctx, editor, o.ID, orders.StatusApproved)
	require.NoError(t, err)
	if status == orders.StatusApproved {
		return o
	}

	_, err = f.svc.Assign(ctx, editor, o.ID, writer.ID)
	require.NoError(t, err)
	_, err = f.svc.RecordDeposit(ctx, support, o.ID)
	require.NoError(t, err)
	o, err = f.svc.Transition(ctx, writer, o.ID, orders.StatusInProgress)
	require.NoError(t, err)
	if status == orders.StatusInProgress {
		return o
	}

	o, err = f.svc.Transition(ctx, writer, o.ID, orders.StatusSubmitted)
	require.NoError(t, err)
	require.Equal(t, orders.StatusSubmitted, status, "unsupported fixture status")
	return o
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

type downStore struct{}

func (downStore) IncrementIfUnder(context.Context, string, int, time.Duration) (counter.Decision, error) {
	return counter.Decision{}, errConnRefused
}

func (downStore) ClaimIfAbsent(context.Context, string, time.Duration) (bool, error) {
	return false, errConnRefused
}

func (downStore) Reset(context.Context, string) error {
	return errConnRefused
}

func transitionLimiter(t *testing.T, store counter.Store, c *clock, max int, policy ratelimit.FailPolicy) *ratelimit.Limiter {
	t.Helper()
	lim, err := ratelimit.NewLimiter(store, ratelimit.MustNewRegistry(ratelimit.Rule{
		Scope:      orders.ScopeTransition,
		Path:       "/orders/{id}/transitions",
		Window:     time.Minute,
		MaxCount:   max,
		Bucket:     ratelimit.ByUser,
		FailPolicy: policy,
	}), ratelimit.WithClock(c.Now))
	require.NoError(t, err)
	return lim
}
