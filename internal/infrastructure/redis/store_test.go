package redis_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	infraredis "github.com/kugather/signup-verification/internal/infrastructure/redis"
)

func newTestStore(t *testing.T) (*infraredis.Store, *miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, infraredis.LoadScripts(context.Background(), client))
	return infraredis.NewStore(client, "signup"), mr, client
}

func TestStore_SetGetDeleteWithPrefix(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestStore(t)

	require.NoError(t, store.SetWithTTL(ctx, "verified:a@konkuk.ac.kr", "1", time.Minute))
	require.True(t, mr.Exists("signup:verified:a@konkuk.ac.kr"))
	require.Equal(t, time.Minute, mr.TTL("signup:verified:a@konkuk.ac.kr"))

	v, ok, err := store.Get(ctx, "verified:a@konkuk.ac.kr")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.NoError(t, store.Delete(ctx, "verified:a@konkuk.ac.kr"))
	_, ok, err = store.Get(ctx, "verified:a@konkuk.ac.kr")
	require.NoError(t, err)
	require.False(t, ok)

	// deleting an absent key is not an error
	require.NoError(t, store.Delete(ctx, "verified:a@konkuk.ac.kr"))
}

func TestStore_RejectsNonPositiveTTL(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.Error(t, store.SetWithTTL(ctx, "k", "v", 0))
	require.Error(t, store.HashSetWithTTL(ctx, "h", map[string]string{"a": "b"}, -time.Second))
}

func TestStore_ExpiredKeysBehaveAsAbsent(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestStore(t)

	require.NoError(t, store.SetWithTTL(ctx, "wl:1", "a@konkuk.ac.kr", time.Minute))
	require.NoError(t, store.HashSetWithTTL(ctx, "session:s1", map[string]string{"email": "a@konkuk.ac.kr", "verified": "0"}, time.Minute))
	mr.FastForward(time.Minute + time.Second)

	_, ok, err := store.Get(ctx, "wl:1")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.GetAndDelete(ctx, "wl:1")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = store.HashGetAll(ctx, "session:s1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = store.HashSetIfExists(ctx, "session:s1", "verified", "1")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, mr.Exists("signup:session:s1"), "expired hash must not be recreated")
}

func TestStore_GetAndDeleteIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	require.NoError(t, store.SetWithTTL(ctx, "wl:42", "a@konkuk.ac.kr", time.Minute))

	v, ok, err := store.GetAndDelete(ctx, "wl:42")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@konkuk.ac.kr", v)

	_, ok, err = store.GetAndDelete(ctx, "wl:42")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStore_ConcurrentGetAndDeleteHasOneWinner(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)
	require.NoError(t, store.SetWithTTL(ctx, "wl:race", "a@konkuk.ac.kr", time.Minute))

	const workers = 16
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, ok, err := store.GetAndDelete(ctx, "wl:race")
			if err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Equal(t, int32(1), wins)
}

func TestStore_HashLifecycle(t *testing.T) {
	ctx := context.Background()
	store, mr, _ := newTestStore(t)

	require.NoError(t, store.HashSetWithTTL(ctx, "session:s1", map[string]string{"email": "a@konkuk.ac.kr", "verified": "0"}, 30*time.Minute))
	require.Equal(t, 30*time.Minute, mr.TTL("signup:session:s1"))

	ok, err := store.HashSetIfExists(ctx, "session:s1", "verified", "1")
	require.NoError(t, err)
	require.True(t, ok)

	fields, ok, err := store.HashGetAll(ctx, "session:s1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, map[string]string{"email": "a@konkuk.ac.kr", "verified": "1"}, fields)

	// updating a field keeps the original expiry
	require.Equal(t, 30*time.Minute, mr.TTL("signup:session:s1"))
}

func TestStore_ScriptsWorkWithoutPreload(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := infraredis.NewStore(client, "")

	require.NoError(t, store.SetWithTTL(ctx, "k", "v", time.Minute))
	v, ok, err := store.GetAndDelete(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", v)
}

func TestRedisCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	_, mr, client := newTestStore(t)
	cache := infraredis.NewRedisCache(client, "signup")

	_, ok, err := cache.Get(ctx, "user:exists:a@konkuk.ac.kr")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, cache.Set(ctx, "user:exists:a@konkuk.ac.kr", []byte("true"), time.Hour))
	require.True(t, mr.Exists("signup:cache:user:exists:a@konkuk.ac.kr"))

	b, ok, err := cache.Get(ctx, "user:exists:a@konkuk.ac.kr")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", string(b))

	require.NoError(t, cache.Delete(ctx, "user:exists:a@konkuk.ac.kr"))
	_, ok, err = cache.Get(ctx, "user:exists:a@konkuk.ac.kr")
	require.NoError(t, err)
	require.False(t, ok)
}
