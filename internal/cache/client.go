// Package cache is an in-process query cache: keyed entries with staleness
// windows, deduplicated fetches, prefix invalidation, polling observers and
// mutation hooks.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/ecocollect/ecocollect/internal/telemetry"
)

// DefaultSize is the number of entries kept when Config.Size is zero.
const DefaultSize = 256

// ErrDisabled is returned by queries whose enablement predicate is false.
var ErrDisabled = errors.New("cache: query disabled")

// Config holds configuration for a cache client.
type Config struct {
	Size   int
	Logger zerolog.Logger
	// Meter records hit, miss, fetch and invalidation counters. Defaults to
	// the global meter.
	Meter metric.Meter
	Now   func() time.Time
}

type entry struct {
	key         Key
	data        any
	hasData     bool
	err         error
	updatedAt   time.Time
	errorAt     time.Time
	invalidated bool
	// epoch is the invalidation count of the key when data was fetched.
	epoch uint64
}

type flight struct {
	key Key
	n   int
}

type subscriber struct {
	key Key
	ch  chan struct{}
}

type counters struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	fetches       metric.Int64Counter
	invalidations metric.Int64Counter
}

// Client owns the cache entries. It is safe for concurrent use.
type Client struct {
	logger zerolog.Logger
	now    func() time.Time

	mu         sync.Mutex
	entries    *lru.Cache[string, *entry]
	inflight   map[string]*flight
	epochs     map[string]uint64
	generation uint64
	subs       map[int]*subscriber
	nextSub    int

	group   singleflight.Group
	metrics counters
}

// NewClient creates a cache client.
func NewClient(cfg Config) (*Client, error) {
	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}
	entries, err := lru.New[string, *entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	meter := cfg.Meter
	if meter == nil {
		meter = telemetry.Meter("ecocollect/cache")
	}

	c := &Client{
		logger:   cfg.Logger,
		now:      now,
		entries:  entries,
		inflight: make(map[string]*flight),
		epochs:   make(map[string]uint64),
		subs:     make(map[int]*subscriber),
	}
	if err := c.initMetrics(meter); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) initMetrics(meter metric.Meter) error {
	var err error
	if c.metrics.hits, err = meter.Int64Counter("cache.hits",
		metric.WithDescription("Queries served from fresh cache entries")); err != nil {
		return fmt.Errorf("creating hits counter: %w", err)
	}
	if c.metrics.misses, err = meter.Int64Counter("cache.misses",
		metric.WithDescription("Queries that needed a fetch")); err != nil {
		return fmt.Errorf("creating misses counter: %w", err)
	}
	if c.metrics.fetches, err = meter.Int64Counter("cache.fetches",
		metric.WithDescription("Fetch functions executed")); err != nil {
		return fmt.Errorf("creating fetches counter: %w", err)
	}
	if c.metrics.invalidations, err = meter.Int64Counter("cache.invalidations",
		metric.WithDescription("Entries marked stale by invalidation")); err != nil {
		return fmt.Errorf("creating invalidations counter: %w", err)
	}
	return nil
}

// Invalidate marks every entry under prefix stale and wakes watchers of
// those keys. Fetches of those keys already in flight store their result
// as stale, and later fetches no longer join them. It returns the number
// of entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	n := 0
	bumped := make(map[string]bool)
	for _, h := range c.entries.Keys() {
		e, ok := c.entries.Peek(h)
		if !ok || !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		c.epochs[h]++
		bumped[h] = true
		n++
	}
	for h, f := range c.inflight {
		if !bumped[h] && f.key.HasPrefix(prefix) {
			c.epochs[h]++
		}
	}
	var wake []*subscriber
	for _, s := range c.subs {
		if s.key.HasPrefix(prefix) {
			wake = append(wake, s)
		}
	}
	c.mu.Unlock()

	for _, s := range wake {
		select {
		case s.ch <- struct{}{}:
		default:
		}
	}
	c.metrics.invalidations.Add(context.Background(), int64(n),
		metric.WithAttributes(attribute.String("prefix", prefix.String())))
	c.logger.Debug().Str("prefix", prefix.String()).Int("entries", n).Msg("cache invalidated")
	return n
}

// Clear drops every entry. Fetches started before the call do not write
// their results back.
func (c *Client) Clear() {
	c.mu.Lock()
	c.generation++
	c.entries.Purge()
	c.epochs = make(map[string]uint64)
	c.mu.Unlock()
	c.logger.Debug().Msg("cache cleared")
}

// Len returns the number of cached entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

// SetData stores data for key as if it had just been fetched.
func (c *Client) SetData(key Key, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := key.hash()
	c.entries.Add(h, &entry{key: key, data: data, hasData: true, updatedAt: c.now(), epoch: c.epochs[h]})
}

func (c *Client) lookup(key Key) (entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Get(key.hash())
	if !ok {
		return entry{}, false
	}
	return *e, true
}

func (c *Client) fetching(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key.hash()]
	return ok
}

func (c *Client) subscribe(key Key) (<-chan struct{}, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	s := &subscriber{key: key, ch: make(chan struct{}, 1)}
	c.subs[id] = s
	return s.ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

type fetchResult struct {
	data any
	err  error
}

// fetch runs fn once per key among concurrent callers. The shared call is
// detached from the caller's cancellation; a caller whose ctx ends stops
// waiting without aborting the others. Callers only share a call started
// after the key's latest invalidation.
func (c *Client) fetch(ctx context.Context, key Key, fn func(context.Context) (any, error)) (any, error) {
	h := key.hash()

	c.mu.Lock()
	gen := c.generation
	epoch := c.epochs[h]
	c.mu.Unlock()

	name := fmt.Sprintf("%d\x01%d\x01%s", gen, epoch, h)
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		c.mu.Lock()
		f, ok := c.inflight[h]
		if !ok {
			f = &flight{key: key}
			c.inflight[h] = f
		}
		f.n++
		c.mu.Unlock()

		c.metrics.fetches.Add(detached, 1, metric.WithAttributes(attribute.String("key", key.String())))
		data, err := fn(detached)

		c.mu.Lock()
		defer c.mu.Unlock()
		if f.n--; f.n <= 0 {
			delete(c.inflight, h)
		}
		if c.generation != gen {
			c.logger.Debug().Str("key", key.String()).Msg("discarding fetch started before clear")
			return fetchResult{data: data, err: err}, nil
		}
		e, ok := c.entries.Get(h)
		if !ok {
			e = &entry{key: key}
		}
		if e.hasData && e.epoch > epoch {
			c.logger.Debug().Str("key", key.String()).Msg("discarding fetch superseded by a newer one")
			return fetchResult{data: data, err: err}, nil
		}
		if err != nil {
			e.err = err
			e.errorAt = c.now()
		} else {
			e.data = data
			e.hasData = true
			e.err = nil
			e.updatedAt = c.now()
			e.epoch = epoch
			e.invalidated = c.epochs[h] != epoch
		}
		c.entries.Add(h, e)
		return fetchResult{data: data, err: err}, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		r := res.Val.(fetchResult)
		return r.data, r.err
	}
}
