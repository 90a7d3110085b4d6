package cache

import (
	"context"
	"sync"
	"time"
)

// Result is one observation delivered by a watcher.
type Result[T any] struct {
	Data T
	Err  error
	At   time.Time
}

// Watcher observes a query: it fetches on start, polls at the query's
// refetch interval while enabled and refetches when the key is
// invalidated. Results are delivered on Updates until Stop is called or
// the context ends, after which the channel is closed.
type Watcher[T any] struct {
	updates chan Result[T]
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Watch starts a watcher for q.
func (q *Query[T]) Watch(ctx context.Context) *Watcher[T] {
	ctx, cancel := context.WithCancel(ctx)
	w := &Watcher[T]{
		updates: make(chan Result[T], 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	invalidated, unsubscribe := q.c.subscribe(q.opts.Key)

	go func() {
		defer close(w.done)
		defer close(w.updates)
		defer unsubscribe()

		if q.Enabled() {
			data, err := q.Get(ctx)
			if !w.emit(ctx, q.c, data, err) {
				return
			}
		}

		var tick <-chan time.Time
		if q.opts.RefetchInterval > 0 {
			ticker := time.NewTicker(q.opts.RefetchInterval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			case <-invalidated:
			}
			if !q.Enabled() {
				continue
			}
			data, err := q.Refetch(ctx)
			if ctx.Err() != nil {
				return
			}
			if !w.emit(ctx, q.c, data, err) {
				return
			}
		}
	}()
	return w
}

func (w *Watcher[T]) emit(ctx context.Context, c *Client, data T, err error) bool {
	select {
	case w.updates <- Result[T]{Data: data, Err: err, At: c.now()}:
		return true
	case <-ctx.Done():
		return false
	}
}

// Updates delivers results in fetch order.
func (w *Watcher[T]) Updates() <-chan Result[T] { return w.updates }

// Stop ends the watcher and waits for its goroutine to exit.
func (w *Watcher[T]) Stop() {
	w.once.Do(w.cancel)
	<-w.done
}

// Done is closed once the watcher has exited.
func (w *Watcher[T]) Done() <-chan struct{} { return w.done }
