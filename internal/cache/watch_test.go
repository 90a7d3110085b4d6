package cache_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/cache"
)

func receive[T any](t *testing.T, w *cache.Watcher[T]) cache.Result[T] {
	t.Helper()
	select {
	case r, ok := <-w.Updates():
		require.True(t, ok, "watcher closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
		return cache.Result[T]{}
	}
}

func TestWatch_PollsAtInterval(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:             cache.NewKey("pickups", "tracking", "p1"),
		RefetchInterval: 20 * time.Millisecond,
		Fn: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})

	w := q.Watch(context.Background())
	assert.Equal(t, 1, receive(t, w).Data)
	assert.Equal(t, 2, receive(t, w).Data)
	assert.Equal(t, 3, receive(t, w).Data)

	w.Stop()
	stopped := calls.Load()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, stopped, calls.Load())

	_, open := <-w.Updates()
	assert.False(t, open)
}

func TestWatch_StopsWithContext(t *testing.T) {
	c, _ := newClient(t)
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:             cache.NewKey("admin", "stats"),
		RefetchInterval: 10 * time.Millisecond,
		Fn:              func(context.Context) (int, error) { return 1, nil },
	})

	ctx, cancel := context.WithCancel(context.Background())
	w := q.Watch(ctx)
	receive(t, w)
	cancel()

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatch_RefetchesOnInvalidate(t *testing.T) {
	c, _ := newClient(t)
	var calls atomic.Int32
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:       cache.NewKey("pickups", "my"),
		StaleTime: time.Hour,
		Fn: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})

	w := q.Watch(context.Background())
	defer w.Stop()
	assert.Equal(t, 1, receive(t, w).Data)

	c.Invalidate(cache.NewKey("pickups"))
	assert.Equal(t, 2, receive(t, w).Data)
}

func TestWatch_DisabledDoesNotFetch(t *testing.T) {
	c, _ := newClient(t)
	var enabled atomic.Bool
	var calls atomic.Int32
	q := cache.NewQuery(c, cache.QueryOptions[int]{
		Key:             cache.NewKey("pickups", "tracking", ""),
		Enabled:         enabled.Load,
		RefetchInterval: 10 * time.Millisecond,
		Fn: func(context.Context) (int, error) {
			return int(calls.Add(1)), nil
		},
	})

	w := q.Watch(context.Background())
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())

	enabled.Store(true)
	r := receive(t, w)
	assert.Equal(t, 1, r.Data)
	w.Stop()
}
