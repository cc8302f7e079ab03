package cache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Versioned {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewVersioned(client, "ledger", time.Minute)
}

func TestFetchJSONCachesLoaderResult(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	key, err := c.BuildKey(ctx, "account", "7")
	require.NoError(t, err)
	require.Equal(t, "ledger:account:7:v1", key)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return map[string]int{"n": calls}, nil
	}
	var first, second map[string]int
	require.NoError(t, c.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, c.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
}

func TestBumpChangesKeys(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t)
	before, err := c.BuildKey(ctx, "account", "7")
	require.NoError(t, err)
	require.NoError(t, c.Bump(ctx))
	after, err := c.BuildKey(ctx, "account", "7")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
	require.Equal(t, "ledger:account:7:v2", after)
}

func TestNilClientFallsThroughToLoader(t *testing.T) {
	ctx := context.Background()
	c := NewVersioned(nil, "ledger", time.Minute)
	key, err := c.BuildKey(ctx, "x")
	require.NoError(t, err)
	require.Equal(t, "ledger:x", key)
	var out []string
	require.NoError(t, c.FetchJSON(ctx, key, &out, func(context.Context) (any, error) {
		return []string{"a"}, nil
	}))
	require.Equal(t, []string{"a"}, out)
	require.NoError(t, c.Bump(ctx))
}
