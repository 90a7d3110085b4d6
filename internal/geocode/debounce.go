package geocode

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before searching.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer runs only the latest of a burst of calls. A new call cancels
// the pending one, and the context of a call that already started. The
// context passed to fn is canceled once fn returns.
type Debouncer struct {
	delay time.Duration

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewDebouncer creates a debouncer. A non-positive delay uses
// DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the delay, superseding earlier calls.
func (d *Debouncer) Trigger(ctx context.Context, fn func(ctx context.Context)) {
	ctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.cancel = cancel
	d.seq++
	seq := d.seq
	d.mu.Unlock()

	go func() {
		defer d.done(seq, cancel)
		timer := time.NewTimer(d.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		fn(ctx)
	}()
}

func (d *Debouncer) done(seq uint64, cancel context.CancelFunc) {
	cancel()
	d.mu.Lock()
	if d.seq == seq {
		d.cancel = nil
	}
	d.mu.Unlock()
}

// Stop cancels whatever is pending or running.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// SearchResult is delivered by DebouncedSearch.
type SearchResult struct {
	Query       string
	Suggestions []Suggestion
	Err         error
}

// DebouncedSearch runs address searches through a debouncer and delivers
// only results of searches that were not superseded.
type DebouncedSearch struct {
	client    *Client
	opts      *SearchOptions
	debouncer *Debouncer
	results   chan SearchResult
}

// NewDebouncedSearch creates a debounced search over client.
func NewDebouncedSearch(client *Client, opts *SearchOptions, delay time.Duration) *DebouncedSearch {
	return &DebouncedSearch{
		client:    client,
		opts:      opts,
		debouncer: NewDebouncer(delay),
		results:   make(chan SearchResult, 1),
	}
}

// Input records a change in the typed query.
func (s *DebouncedSearch) Input(ctx context.Context, query string) {
	s.debouncer.Trigger(ctx, func(ctx context.Context) {
		found, err := s.client.SearchAddresses(ctx, query, s.opts)
		if ctx.Err() != nil {
			return
		}
		select {
		case s.results <- SearchResult{Query: query, Suggestions: found, Err: err}:
		case <-ctx.Done():
		}
	})
}

// Results delivers completed searches.
func (s *DebouncedSearch) Results() <-chan SearchResult { return s.results }

// Stop cancels any pending search.
func (s *DebouncedSearch) Stop() { s.debouncer.Stop() }
