package cache

import (
	"context"
	"sync/atomic"
)

// MutationOptions declares a write and its side effects. Hooks are
// optional.
type MutationOptions[In, Out any] struct {
	Fn        func(ctx context.Context, in In) (Out, error)
	OnSuccess func(ctx context.Context, out Out, in In)
	OnError   func(ctx context.Context, err error, in In)
	OnSettled func(ctx context.Context, out Out, err error, in In)
}

// Mutation runs a write through its hooks. Concurrent calls are not
// serialized.
type Mutation[In, Out any] struct {
	opts    MutationOptions[In, Out]
	pending atomic.Int32
}

// NewMutation creates a mutation.
func NewMutation[In, Out any](opts MutationOptions[In, Out]) *Mutation[In, Out] {
	return &Mutation[In, Out]{opts: opts}
}

// Mutate runs Fn, then OnSuccess or OnError, then OnSettled, and returns
// Fn's result.
func (m *Mutation[In, Out]) Mutate(ctx context.Context, in In) (Out, error) {
	m.pending.Add(1)
	defer m.pending.Add(-1)

	out, err := m.opts.Fn(ctx, in)
	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(ctx, err, in)
		}
	} else if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(ctx, out, in)
	}
	if m.opts.OnSettled != nil {
		m.opts.OnSettled(ctx, out, err, in)
	}
	return out, err
}

// IsPending reports whether any call is in progress.
func (m *Mutation[In, Out]) IsPending() bool {
	return m.pending.Load() > 0
}
