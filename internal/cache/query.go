package cache

import (
	"context"
	"time"
)

// Status is the lifecycle of a query entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// QueryOptions declares a query.
type QueryOptions[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)
	// Enabled gates fetching. Nil means always enabled.
	Enabled func() bool
	// StaleTime is how long fetched data is served without refetching.
	// Zero means data is always stale.
	StaleTime time.Duration
	// RefetchInterval polls while a watcher is running. Zero disables polling.
	RefetchInterval time.Duration
}

// State is a snapshot of a query's cache entry.
type State[T any] struct {
	Data       T
	HasData    bool
	Err        error
	Status     Status
	UpdatedAt  time.Time
	ErrorAt    time.Time
	Stale      bool
	IsFetching bool
}

// Query is a typed view of one cache entry.
type Query[T any] struct {
	c    *Client
	opts QueryOptions[T]
}

// NewQuery binds options to a client.
func NewQuery[T any](c *Client, opts QueryOptions[T]) *Query[T] {
	return &Query[T]{c: c, opts: opts}
}

func (q *Query[T]) Key() Key                 { return q.opts.Key }
func (q *Query[T]) Options() QueryOptions[T] { return q.opts }

// Enabled reports whether the query may fetch.
func (q *Query[T]) Enabled() bool {
	return q.opts.Enabled == nil || q.opts.Enabled()
}

// Get returns fresh cached data or fetches it.
func (q *Query[T]) Get(ctx context.Context) (T, error) {
	var zero T
	if !q.Enabled() {
		return zero, ErrDisabled
	}
	if e, ok := q.c.lookup(q.opts.Key); ok && e.hasData && !q.stale(e) {
		q.c.metrics.hits.Add(ctx, 1)
		data, _ := e.data.(T)
		return data, nil
	}
	q.c.metrics.misses.Add(ctx, 1)
	return q.run(ctx)
}

// Refetch fetches regardless of freshness.
func (q *Query[T]) Refetch(ctx context.Context) (T, error) {
	var zero T
	if !q.Enabled() {
		return zero, ErrDisabled
	}
	return q.run(ctx)
}

// Invalidate marks this query and every key nested under it stale.
func (q *Query[T]) Invalidate() int {
	return q.c.Invalidate(q.opts.Key)
}

// State returns a snapshot without fetching.
func (q *Query[T]) State() State[T] {
	st := State[T]{Status: StatusIdle, Stale: true, IsFetching: q.c.fetching(q.opts.Key)}
	e, ok := q.c.lookup(q.opts.Key)
	if !ok {
		return st
	}
	if e.hasData {
		st.Data, _ = e.data.(T)
		st.HasData = true
		st.Status = StatusSuccess
	}
	if e.err != nil {
		st.Err = e.err
		st.Status = StatusError
	}
	st.UpdatedAt = e.updatedAt
	st.ErrorAt = e.errorAt
	st.Stale = q.stale(e)
	return st
}

func (q *Query[T]) stale(e entry) bool {
	if e.invalidated || !e.hasData || q.opts.StaleTime <= 0 {
		return true
	}
	return q.c.now().Sub(e.updatedAt) >= q.opts.StaleTime
}

func (q *Query[T]) run(ctx context.Context) (T, error) {
	var zero T
	data, err := q.c.fetch(ctx, q.opts.Key, func(ctx context.Context) (any, error) {
		return q.opts.Fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	v, _ := data.(T)
	return v, nil
}
