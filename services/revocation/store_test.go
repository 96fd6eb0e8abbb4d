package revocation

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/parleychat/authkit/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, client := testutils.SetupTestRedis(t)
	return NewRedisStore(client, "authkit:family"), mr
}

func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("set then check head", func(t *testing.T) {
		require.NoError(t, store.SetHead(ctx, "family-a", "fp-1", time.Hour))

		head, err := store.IsHead(ctx, "family-a", "fp-1")
		require.NoError(t, err)
		assert.True(t, head)

		head, err = store.IsHead(ctx, "family-a", "fp-2")
		require.NoError(t, err)
		assert.False(t, head)
	})

	t.Run("absent family is never head", func(t *testing.T) {
		head, err := store.IsHead(ctx, "family-unknown", "fp-1")
		require.NoError(t, err)
		assert.False(t, head)
	})

	t.Run("rotate head", func(t *testing.T) {
		require.NoError(t, store.SetHead(ctx, "family-b", "fp-old", time.Hour))

		swapped, err := store.RotateHead(ctx, "family-b", "fp-old", "fp-new", time.Hour)
		require.NoError(t, err)
		assert.True(t, swapped)

		head, err := store.IsHead(ctx, "family-b", "fp-new")
		require.NoError(t, err)
		assert.True(t, head)

		head, err = store.IsHead(ctx, "family-b", "fp-old")
		require.NoError(t, err)
		assert.False(t, head)
	})

	t.Run("rotate rejects a superseded fingerprint", func(t *testing.T) {
		require.NoError(t, store.SetHead(ctx, "family-c", "fp-current", time.Hour))

		swapped, err := store.RotateHead(ctx, "family-c", "fp-stale", "fp-next", time.Hour)
		require.NoError(t, err)
		assert.False(t, swapped)

		head, err := store.IsHead(ctx, "family-c", "fp-current")
		require.NoError(t, err)
		assert.True(t, head)
	})

	t.Run("rotate rejects an absent family", func(t *testing.T) {
		swapped, err := store.RotateHead(ctx, "family-gone", "fp-a", "fp-b", time.Hour)
		require.NoError(t, err)
		assert.False(t, swapped)
	})

	t.Run("revoke clears every fingerprint", func(t *testing.T) {
		require.NoError(t, store.SetHead(ctx, "family-d", "fp-head", time.Hour))
		require.NoError(t, store.Revoke(ctx, "family-d"))

		head, err := store.IsHead(ctx, "family-d", "fp-head")
		require.NoError(t, err)
		assert.False(t, head)
	})

	t.Run("revoke of unknown family is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Revoke(ctx, "family-never-seen"))
	})
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestRedisStore_Contract(t *testing.T) {
	store, _ := setupRedisStore(t)
	runStoreContract(t, store)
}

func TestMemoryStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return base }

	require.NoError(t, store.SetHead(ctx, "family-a", "fp-1", time.Minute))

	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	head, err := store.IsHead(ctx, "family-a", "fp-1")
	require.NoError(t, err)
	assert.False(t, head)

	swapped, err := store.RotateHead(ctx, "family-a", "fp-1", "fp-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, swapped)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := setupRedisStore(t)

	require.NoError(t, store.SetHead(ctx, "family-a", "fp-1", time.Minute))

	mr.FastForward(2 * time.Minute)

	head, err := store.IsHead(ctx, "family-a", "fp-1")
	require.NoError(t, err)
	assert.False(t, head)
}

func TestMemoryStore_ConcurrentRotation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.SetHead(ctx, "family-a", "fp-original", time.Hour))

	const attempts = 16
	var wg sync.WaitGroup
	wins := make(chan int, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			swapped, err := store.RotateHead(ctx, "family-a", "fp-original", "fp-new", time.Hour)
			assert.NoError(t, err)
			if swapped {
				wins <- n
			}
		}(i)
	}

	wg.Wait()
	close(wins)

	winners := 0
	for range wins {
		winners++
	}
	assert.Equal(t, 1, winners)
}
