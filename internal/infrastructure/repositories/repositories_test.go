package repositories_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kugather/signup-verification/internal/infrastructure/memory"
	"github.com/kugather/signup-verification/internal/infrastructure/repositories"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedStore() (*memory.Store, *clock) {
	c := &clock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return memory.NewStore(memory.WithClock(c.Now)), c
}

func TestWhitelist_PutConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store, _ := newClockedStore()
	wl := repositories.NewWhitelistRepository(store, nil)
	id := uuid.New()

	require.NoError(t, wl.Put(ctx, id, "a@konkuk.ac.kr", time.Minute))

	email, ok, err := wl.Consume(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@konkuk.ac.kr", email)

	_, ok, err = wl.Consume(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWhitelist_ExpiredEntryIsAbsent(t *testing.T) {
	ctx := context.Background()
	store, c := newClockedStore()
	wl := repositories.NewWhitelistRepository(store, nil)
	id := uuid.New()

	require.NoError(t, wl.Put(ctx, id, "a@konkuk.ac.kr", time.Minute))
	c.Advance(time.Minute)

	_, ok, err := wl.Consume(ctx, id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestWhitelist_ConcurrentConsumeSingleWinner(t *testing.T) {
	ctx := context.Background()
	wl := repositories.NewWhitelistRepository(memory.NewStore(), nil)
	id := uuid.New()
	require.NoError(t, wl.Put(ctx, id, "a@konkuk.ac.kr", time.Minute))

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok, err := wl.Consume(ctx, id); err == nil && ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), wins)
}

func TestVerifiedFlag_SetPeekClear(t *testing.T) {
	ctx := context.Background()
	store, c := newClockedStore()
	flag := repositories.NewVerifiedFlagRepository(store)

	present, err := flag.Peek(ctx, "a@konkuk.ac.kr")
	require.NoError(t, err)
	require.False(t, present)

	require.NoError(t, flag.Set(ctx, "a@konkuk.ac.kr", 30*time.Minute))
	present, err = flag.Peek(ctx, "a@konkuk.ac.kr")
	require.NoError(t, err)
	require.True(t, present)

	// peek is non-destructive
	present, _ = flag.Peek(ctx, "a@konkuk.ac.kr")
	require.True(t, present)

	require.NoError(t, flag.Clear(ctx, "a@konkuk.ac.kr"))
	present, _ = flag.Peek(ctx, "a@konkuk.ac.kr")
	require.False(t, present)

	require.NoError(t, flag.Set(ctx, "a@konkuk.ac.kr", 30*time.Minute))
	c.Advance(30 * time.Minute)
	present, _ = flag.Peek(ctx, "a@konkuk.ac.kr")
	require.False(t, present)
}

func TestSignupSession_CreateGetMarkVerified(t *testing.T) {
	ctx := context.Background()
	store, _ := newClockedStore()
	sessions := repositories.NewSignupSessionRepository(store, nil)

	require.NoError(t, sessions.Create(ctx, "sess-1", "a@konkuk.ac.kr", 30*time.Minute))

	email, ok, err := sessions.GetEmail(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a@konkuk.ac.kr", email)

	s, ok, err := sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, s.Verified)

	for i := 0; i < 2; i++ {
		ok, err = sessions.MarkVerified(ctx, "sess-1")
		require.NoError(t, err)
		require.True(t, ok)
	}

	s, ok, err = sessions.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, s.Verified)
	require.Equal(t, "a@konkuk.ac.kr", s.Email)
}

func TestSignupSession_ExpiredOrUnknown(t *testing.T) {
	ctx := context.Background()
	store, c := newClockedStore()
	sessions := repositories.NewSignupSessionRepository(store, nil)

	_, ok, err := sessions.GetEmail(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, sessions.Create(ctx, "sess-1", "a@konkuk.ac.kr", 30*time.Minute))
	c.Advance(30 * time.Minute)

	_, ok, err = sessions.GetEmail(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = sessions.MarkVerified(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, ok)
	_, ok, _ = sessions.Get(ctx, "sess-1")
	require.False(t, ok)
}

type directoryStub struct {
	calls  int32
	exists bool
	err    error
}

func (d *directoryStub) EmailExists(ctx context.Context, email string) (bool, error) {
	atomic.AddInt32(&d.calls, 1)
	return d.exists, d.err
}

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestCachingUserRepository_CachesPositiveAnswersOnly(t *testing.T) {
	ctx := context.Background()
	cache := &mapCache{data: map[string][]byte{}}

	absent := &directoryStub{exists: false}
	repo := repositories.NewCachingUserRepository(absent, cache, time.Hour)
	for i := 0; i < 3; i++ {
		exists, err := repo.EmailExists(ctx, "new@konkuk.ac.kr")
		require.NoError(t, err)
		require.False(t, exists)
	}
	require.Equal(t, int32(3), atomic.LoadInt32(&absent.calls))

	present := &directoryStub{exists: true}
	repo = repositories.NewCachingUserRepository(present, cache, time.Hour)
	for i := 0; i < 3; i++ {
		exists, err := repo.EmailExists(ctx, "Taken@konkuk.ac.kr")
		require.NoError(t, err)
		require.True(t, exists)
	}
	require.Equal(t, int32(1), atomic.LoadInt32(&present.calls))
}

func TestCachingUserRepository_PropagatesErrors(t *testing.T) {
	repo := repositories.NewCachingUserRepository(&directoryStub{err: errors.New("db down")}, nil, time.Hour)
	_, err := repo.EmailExists(context.Background(), "a@konkuk.ac.kr")
	require.Error(t, err)
}

// blockingDirectory holds the lookup until release is closed and fails if
// the context it was given has been cancelled by then.
type blockingDirectory struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *blockingDirectory) EmailExists(ctx context.Context, email string) (bool, error) {
	d.once.Do(func() { close(d.entered) })
	<-d.release
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}

func TestCachingUserRepository_CallerCancellationDoesNotFailSharedLookup(t *testing.T) {
	base := &blockingDirectory{entered: make(chan struct{}), release: make(chan struct{})}
	repo := repositories.NewCachingUserRepository(base, nil, time.Hour)

	firstCtx, cancel := context.WithCancel(context.Background())
	type result struct {
		exists bool
		err    error
	}
	first := make(chan result, 1)
	second := make(chan result, 1)

	go func() {
		exists, err := repo.EmailExists(firstCtx, "inflight@konkuk.ac.kr")
		first <- result{exists, err}
	}()
	<-base.entered
	go func() {
		exists, err := repo.EmailExists(context.Background(), "inflight@konkuk.ac.kr")
		second <- result{exists, err}
	}()

	cancel()
	close(base.release)

	for _, ch := range []chan result{first, second} {
		select {
		case r := <-ch:
			require.NoError(t, r.err)
			require.True(t, r.exists)
		case <-time.After(2 * time.Second):
			t.Fatal("lookup did not return")
		}
	}
}

func TestNoUserDirectory(t *testing.T) {
	exists, err := repositories.NoUserDirectory{}.EmailExists(context.Background(), "a@konkuk.ac.kr")
	require.NoError(t, err)
	require.False(t, exists)
}
