package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	store, err := NewRedisSessionStore(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer store.Close()

	id := uuid.NewString()
	expiresAt := time.Now().Add(time.Hour)

	_, err = store.CreateSession(ctx, id, 3, expiresAt)
	require.NoError(t, err)

	session, err := store.GetSession(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(3), session.UserID)
	require.True(t, session.ExpiresAt.Equal(expiresAt))

	require.NoError(t, store.DeleteExpiredSessions(ctx))
	require.NoError(t, store.DeleteSession(ctx, id))

	_, err = store.GetSession(ctx, id)
	require.ErrorIs(t, err, ErrNotFound)

	// expired sessions are never written
	stale := uuid.NewString()
	_, err = store.CreateSession(ctx, stale, 3, time.Now().Add(-time.Second))
	require.NoError(t, err)
	_, err = store.GetSession(ctx, stale)
	require.ErrorIs(t, err, ErrNotFound)
}
