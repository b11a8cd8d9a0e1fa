package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLockStore(t *testing.T) (*LockStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewLockStore(client), mr
}

func TestLockStore_AcquireIsExclusive(t *testing.T) {
	store, mr := newLockStore(t)
	ctx := context.Background()

	token, err := store.AcquireReferenceLock(ctx, "DEV-T0001", time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.True(t, mr.Exists("lock:transaction:DEV-T0001"))

	second, err := store.AcquireReferenceLock(ctx, "DEV-T0001", time.Minute)
	require.NoError(t, err)
	assert.Empty(t, second)

	other, err := store.AcquireReferenceLock(ctx, "DEV-T0002", time.Minute)
	require.NoError(t, err)
	assert.NotEmpty(t, other)
}

func TestLockStore_ReleaseRequiresToken(t *testing.T) {
	store, mr := newLockStore(t)
	ctx := context.Background()

	token, err := store.AcquireReferenceLock(ctx, "DEV-T0001", time.Minute)
	require.NoError(t, err)

	require.NoError(t, store.ReleaseReferenceLock(ctx, "DEV-T0001", "someone-else"))
	assert.True(t, mr.Exists("lock:transaction:DEV-T0001"))

	require.NoError(t, store.ReleaseReferenceLock(ctx, "DEV-T0001", token))
	assert.False(t, mr.Exists("lock:transaction:DEV-T0001"))
}

func TestLockStore_Expires(t *testing.T) {
	store, mr := newLockStore(t)
	ctx := context.Background()

	_, err := store.AcquireReferenceLock(ctx, "DEV-T0001", 30*time.Second)
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	token, err := store.AcquireReferenceLock(ctx, "DEV-T0001", 30*time.Second)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}
