package notifications_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/scribeworks/ordergate/pkg/counter"
	"github.com/scribeworks/ordergate/pkg/email"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
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

func newStore(t *testing.T, c *clock) *counter.MemoryStore {
	t.Helper()
	s := counter.NewMemoryStore(counter.WithClock(c.Now), counter.WithCleanupInterval(0))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var errConnRefused = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// downStore fails every call as an unreachable Redis would.
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

type mockEmailSender struct {
	mock.Mock
}

func (m *mockEmailSender) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
