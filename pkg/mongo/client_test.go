package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribeworks/ordergate/pkg/mongo"
)

func TestConnect_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := mongo.Connect(context.Background(), mongo.Config{})
	require.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
	assert.False(t, mongo.Config{}.Enabled())
	assert.True(t, mongo.Config{ConnectionURL: "mongodb://localhost:27017"}.Enabled())
}

func TestConnect_CancelledBetweenAttempts(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	_, err := mongo.Connect(ctx, mongo.Config{
		ConnectionURL:  "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100",
		ConnectTimeout: 100 * time.Millisecond,
		RetryAttempts:  5,
		RetryInterval:  time.Minute,
	})
	require.ErrorIs(t, err, mongo.ErrFailedToConnectToMongo)
}
