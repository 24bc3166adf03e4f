package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/svc/orders"
)

func TestMemoryRepository(t *testing.T) {
	t.Parallel()
	testRepository(t, orders.NewMemoryRepository())
}

// testRepository runs the Repository contract against repo.
func testRepository(t *testing.T, repo orders.Repository) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

	o := &orders.Order{
		ID:        "o-contract-1",
		WebsiteID: websiteID,
		ClientID:  client.ID,
		Title:     "Contract",
		State:     orders.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
		UpdatedBy: client.ID,
	}
	require.NoError(t, repo.Create(ctx, o))
	require.ErrorIs(t, repo.Create(ctx, o), orders.ErrOrderExists)

	_, err := repo.Get(ctx, "missing")
	require.ErrorIs(t, err, orders.ErrOrderNotFound)

	got, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Title, got.Title)
	assert.Equal(t, orders.StatusPending, got.State)
	assert.True(t, now.Equal(got.CreatedAt))

	// Field writes touch only their own column.
	stale, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	got, err = repo.SetWriter(ctx, o.ID, writer.ID, now.Add(time.Second), editor.ID)
	require.NoError(t, err)
	assert.Equal(t, writer.ID, got.WriterID)
	assert.Equal(t, editor.ID, got.UpdatedBy)
	assert.False(t, got.DepositPaid)

	got, err = repo.MarkDepositPaid(ctx, stale.ID, now.Add(2*time.Second), support.ID)
	require.NoError(t, err)
	assert.Equal(t, writer.ID, got.WriterID)
	assert.True(t, got.DepositPaid)
	assert.Equal(t, orders.StatusPending, got.State)

	got, err = repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, writer.ID, got.WriterID)
	assert.True(t, got.DepositPaid)
	assert.Equal(t, support.ID, got.UpdatedBy)
	assert.True(t, now.Add(2*time.Second).Equal(got.UpdatedAt))

	_, err = repo.SetWriter(ctx, "missing", writer.ID, now, editor.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
	_, err = repo.MarkDepositPaid(ctx, "missing", now, support.ID)
	require.ErrorIs(t, err, orders.ErrOrderNotFound)

	// Conditional status write.
	first, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)
	second, err := repo.Get(ctx, o.ID)
	require.NoError(t, err)

	first.SetStatus(orders.StatusApproved)
	first.UpdatedAt = now.Add(time.Minute)
	first.UpdatedBy = editor.ID
	require.NoError(t, repo.UpdateStatus(ctx, first))

	second.SetStatus(orders.StatusRejected)
	second.UpdatedBy = editor.ID
	require.ErrorIs(t, repo.UpdateStatus(ctx, second), orders.ErrStatusConflict)

	missing := &orders.Order{ID: "missing", State: orders.StatusPending}
	missing.SetStatus(orders.StatusApproved)
	require.ErrorIs(t, repo.UpdateStatus(ctx, missing), orders.ErrOrderNotFound)

	got, err = repo.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusApproved, got.State)
	assert.Equal(t, editor.ID, got.UpdatedBy)

	history, err := repo.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, orders.StatusPending, history[0].From)
	assert.Equal(t, orders.StatusApproved, history[0].To)
	assert.Equal(t, editor.ID, history[0].ActorID)
	assert.True(t, now.Add(time.Minute).Equal(history[0].At))

	_, err = repo.History(ctx, "missing")
	require.ErrorIs(t, err, orders.ErrOrderNotFound)
}
