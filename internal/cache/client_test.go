package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/ecocollect/ecocollect/internal/cache"
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

func newClient(t *testing.T) (*cache.Client, *clock) {
	t.Helper()
	clk := &clock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	c, err := cache.NewClient(cache.Config{
		Size:   16,
		Logger: zerolog.Nop(),
		Meter:  noop.NewMeterProvider().Meter("test"),
		Now:    clk.Now,
	})
	require.NoError(t, err)
	return c, clk
}

func countingQuery(c *cache.Client, key cache.Key, stale time.Duration, calls *atomic.Int32) *cache.Query[int] {
	return cache.NewQuery(c, cache.QueryOptions[int]{
		Key:       key,
		StaleTime: stale,
		Fn: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})
}

func TestQuery_ServesFreshData(t *testing.T) {
	c, clk := newClient(t)
	var calls atomic.Int32
	q := countingQuery(c, cache.NewKey("auth", "profile"), 5*time.Minute, &calls)
	ctx := context.Background()

	v, err := q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clk.Advance(4 * time.Minute)
	v, err = q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.False(t, q.State().Stale)

	clk.Advance(time.Minute)
	assert.True(t, q.State().Stale)
	v, err = q.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestQuery_ZeroStaleAlwaysFetches(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	q := countingQuery(c, cache.NewKey("pickups", "tracking", "p1"), 0, &calls)

	_, _ = q.Get(context.Background())
	_, _ = q.Get(context.Background())
	assert.Equal(t, int32(2), calls.Load())
}

func TestQuery_Disabled(t *testing.T) {
	c, _ := newClient(t)
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:     cache.NewKey("pickups", "detail", ""),
		Enabled: func() bool { return false },
		Fn: func(context.Context) (int, error) {
			t.Fatal("disabled query must not fetch")
			return 0, nil
		},
	})

	_, err := q.Get(context.Background())
	assert.ErrorIs(t, err, cache.ErrDisabled)
	_, err = q.Refetch(context.Background())
	assert.ErrorIs(t, err, cache.ErrDisabled)
	assert.Equal(t, cache.StatusIdle, q.State().Status)
}

func TestQuery_DeduplicatesConcurrentFetches(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	release := make(chan struct{})
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:       cache.NewKey("pickups", "stats"),
		StaleTime: time.Minute,
		Fn: func(context.Context) (int, error) {
			calls.Add(1)
			<-release
			return 42, nil
		},
	})

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = q.Get(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return q.State().IsFetching }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []int{42, 42, 42, 42, 42}, results)
}

func TestQuery_CallerMayAbandonWait(t *testing.T) {
	c, _ := newClient(t)
	release := make(chan struct{})
	q := cache.NewQuery(c, cache.QueryOptions[string]{
		Key: cache.NewKey("admin", "drivers"),
		Fn: func(ctx context.Context) (string, error) {
			<-release
			return "drivers", ctx.Err()
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := q.Get(ctx)
		errc <- err
	}()
	require.Eventually(t, func() bool { return q.State().IsFetching }, time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	close(release)
	require.Eventually(t, func() bool { return q.State().HasData }, time.Second, time.Millisecond)
	assert.Equal(t, "drivers", q.State().Data)
}

func TestQuery_ErrorKeepsPreviousData(t *testing.T) {
	c, _ := newClient(t)
	fail := errors.New("boom")
	var broken atomic.Bool
	q := cache.NewQuery(c, cache.QueryOptions[string]{
		Key: cache.NewKey("pickups", "recurring"),
		Fn: func(context.Context) (string, error) {
			if broken.Load() {
				return "", fail
			}
			return "weekly", nil
		},
	})

	_, err := q.Get(context.Background())
	require.NoError(t, err)
	broken.Store(true)
	_, err = q.Refetch(context.Background())
	assert.ErrorIs(t, err, fail)

	st := q.State()
	assert.Equal(t, cache.StatusError, st.Status)
	assert.Equal(t, "weekly", st.Data)
	assert.ErrorIs(t, st.Err, fail)
}

func TestClient_InvalidatePrefix(t *testing.T) {
	c, _ := newClient(t)
	var myCalls, detailCalls, profileCalls atomic.Int32
	my := countingQuery(c, cache.NewKey("pickups", "my"), time.Hour, &myCalls)
	detail := countingQuery(c, cache.NewKey("pickups", "detail", "p1"), time.Hour, &detailCalls)
	profile := countingQuery(c, cache.NewKey("auth", "profile"), time.Hour, &profileCalls)
	ctx := context.Background()

	for _, q := range []*cache.Query[int]{my, detail, profile} {
		_, err := q.Get(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Invalidate(cache.NewKey("pickups")))
	assert.True(t, my.State().Stale)
	assert.True(t, detail.State().Stale)
	assert.False(t, profile.State().Stale)

	_, _ = my.Get(ctx)
	_, _ = profile.Get(ctx)
	assert.Equal(t, int32(2), myCalls.Load())
	assert.Equal(t, int32(1), profileCalls.Load())
}

func TestClient_ClearDropsInflightWrites(t *testing.T) {
	c, _ := newClient(t)
	release := make(chan struct{})
	q := cache.NewQuery(c, cache.QueryOptions[string]{
		Key:       cache.NewKey("auth", "profile"),
		StaleTime: time.Hour,
		Fn: func(context.Context) (string, error) {
			<-release
			return "alice", nil
		},
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := q.Get(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, "alice", v)
	}()
	require.Eventually(t, func() bool { return q.State().IsFetching }, time.Second, time.Millisecond)

	c.Clear()
	close(release)
	<-done

	assert.False(t, q.State().HasData)
	assert.Equal(t, 0, c.Len())
}

func TestClient_SetData(t *testing.T) {
	c, _ := newClient(t)
	key := cache.NewKey("auth", "profile")
	c.SetData(key, "seeded")

	q := cache.NewQuery(c, cache.QueryOptions[string]{
		Key:       key,
		StaleTime: time.Minute,
		Fn: func(context.Context) (string, error) {
			t.Fatal("seeded data is fresh")
			return "", nil
		},
	})
	v, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seeded", v)
}

// blockingQuery returns the call number; the first call waits for release.
func blockingQuery(c *cache.Client, calls *atomic.Int32, release <-chan struct{}) *cache.Query[int] {
	return cache.NewQuery(c, cache.QueryOptions[int]{
		Key:       cache.NewKey("pickups", "my"),
		StaleTime: time.Minute,
		Fn: func(context.Context) (int, error) {
			n := int(calls.Add(1))
			if n == 1 {
				<-release
			}
			return n, nil
		},
	})
}

func TestClient_InvalidateDuringFetchKeepsEntryStale(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	release := make(chan struct{})
	q := blockingQuery(c, &calls, release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		v, err := q.Get(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 1, v)
	}()
	require.Eventually(t, func() bool { return q.State().IsFetching }, time.Second, time.Millisecond)

	c.Invalidate(cache.NewKey("pickups"))
	close(release)
	<-done

	st := q.State()
	assert.Equal(t, 1, st.Data)
	assert.True(t, st.Stale)

	v, err := q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.False(t, q.State().Stale)
}

func TestClient_RefetchAfterInvalidateStartsNewFetch(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	release := make(chan struct{})
	q := blockingQuery(c, &calls, release)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := q.Get(context.Background())
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return q.State().IsFetching }, time.Second, time.Millisecond)

	c.Invalidate(cache.NewKey("pickups"))
	v, err := q.Refetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	close(release)
	<-done

	st := q.State()
	assert.Equal(t, 2, st.Data)
	assert.False(t, st.Stale)
	v, err = q.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	assert.Equal(t, int32(2), calls.Load())
}
