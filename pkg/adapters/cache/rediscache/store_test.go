package rediscache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-shortlinks/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/go-shortlinks/pkg/core/domain"
)

type countingStore struct {
	*memory.Store
	finds atomic.Int32
}

func (c *countingStore) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	c.finds.Add(1)
	return c.Store.FindByCode(ctx, code)
}

var now = time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Store, *countingStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	backing := &countingStore{Store: memory.NewStore()}
	cache := New(backing, client, 10*time.Minute, nil)
	cache.now = func() time.Time { return now }
	return cache, backing, mr
}

func seed(t *testing.T, store *memory.Store, code string, validity time.Duration) {
	t.Helper()
	_, err := store.TryCreate(context.Background(), &domain.Link{
		Code:        code,
		OriginalURL: "https://example.com/" + code,
		CreatedAt:   now,
		ExpiresAt:   now.Add(validity),
	})
	require.NoError(t, err)
}

func TestFindByCode_ReadThrough(t *testing.T) {
	cache, backing, mr := setup(t)
	seed(t, backing.Store, "cached", time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		link, err := cache.FindByCode(ctx, "cached")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/cached", link.OriginalURL)
		assert.True(t, link.ExpiresAt.Equal(now.Add(time.Hour)))
	}

	assert.Equal(t, int32(1), backing.finds.Load())
	assert.True(t, mr.Exists(keyPrefix+"cached"))
	assert.Equal(t, 10*time.Minute, mr.TTL(keyPrefix+"cached"))
}

func TestFindByCode_TTLBoundedByExpiry(t *testing.T) {
	cache, backing, mr := setup(t)
	seed(t, backing.Store, "short", 2*time.Minute)

	_, err := cache.FindByCode(context.Background(), "short")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute+expiredGrace, mr.TTL(keyPrefix+"short"))
}

func TestFindByCode_NotFoundIsNotCached(t *testing.T) {
	cache, backing, mr := setup(t)
	ctx := context.Background()

	_, err := cache.FindByCode(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	_, err = cache.FindByCode(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)

	assert.Equal(t, int32(2), backing.finds.Load())
	assert.False(t, mr.Exists(keyPrefix+"ghost"))
}

func TestFindByCode_RedisDown(t *testing.T) {
	cache, backing, mr := setup(t)
	seed(t, backing.Store, "fallback", time.Hour)
	mr.Close()

	link, err := cache.FindByCode(context.Background(), "fallback")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/fallback", link.OriginalURL)
}

func TestFindByCode_SharedLoadIgnoresCallerCancellation(t *testing.T) {
	cache, backing, mr := setup(t)
	seed(t, backing.Store, "shared", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	link, err := cache.FindByCode(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shared", link.OriginalURL)
	assert.True(t, mr.Exists(keyPrefix+"shared"))
}

func TestTryCreate_PopulatesCache(t *testing.T) {
	cache, backing, mr := setup(t)
	ctx := context.Background()
	link := &domain.Link{Code: "fresh", OriginalURL: "https://fresh.example", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	outcome, err := cache.TryCreate(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, domain.Created, outcome)
	assert.True(t, mr.Exists(keyPrefix+"fresh"))

	outcome, err = cache.TryCreate(ctx, link)
	require.NoError(t, err)
	assert.Equal(t, domain.Conflict, outcome)

	_, err = cache.FindByCode(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, int32(0), backing.finds.Load())
}

func TestClicksPassThrough(t *testing.T) {
	cache, backing, _ := setup(t)
	seed(t, backing.Store, "clicky", time.Hour)
	ctx := context.Background()

	require.NoError(t, cache.AppendClick(ctx, "clicky", &domain.Click{Timestamp: now, Source: "ref"}))
	clicks, err := cache.ListClicks(ctx, "clicky")
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "ref", clicks[0].Source)
}
