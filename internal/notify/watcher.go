package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// Change is one pickup whose status moved between two observations.
type Change struct {
	PickupID string
	Address  string
	From     pickup.Status
	To       pickup.Status
}

// Message is the text shown for the change.
func (c Change) Message() string {
	return fmt.Sprintf("Pickup at %s is now %s", c.Address, c.To.Label())
}

// Changes compares two pickup lists by id. Pickups missing from prev are
// not reported.
func Changes(prev, next []pickup.Pickup) []Change {
	before := make(map[string]pickup.Status, len(prev))
	for _, p := range prev {
		before[p.ID] = p.Status
	}
	var out []Change
	for _, p := range next {
		was, ok := before[p.ID]
		if !ok || was == p.Status {
			continue
		}
		out = append(out, Change{PickupID: p.ID, Address: p.Address, From: was, To: p.Status})
	}
	return out
}

// WatcherStats counts what a status watcher has seen.
type WatcherStats struct {
	Observations int64
	Changes      int64
	Errors       int64
	LastSeenAt   time.Time
}

// StatusWatcherConfig holds configuration for a status watcher.
type StatusWatcherConfig struct {
	Query    *cache.Query[[]pickup.Pickup]
	Notifier Notifier
	Logger   zerolog.Logger
}

// StatusWatcher observes the customer's pickup list and raises a
// notification for every status change.
type StatusWatcher struct {
	query    *cache.Query[[]pickup.Pickup]
	notifier Notifier
	logger   zerolog.Logger

	mu    sync.RWMutex
	stats WatcherStats
}

// NewStatusWatcher creates a status watcher.
func NewStatusWatcher(cfg StatusWatcherConfig) *StatusWatcher {
	n := cfg.Notifier
	if n == nil {
		n = Nop{}
	}
	return &StatusWatcher{query: cfg.Query, notifier: n, logger: cfg.Logger}
}

// Run blocks until ctx is cancelled. The first observation is the
// baseline; failed observations keep the previous baseline.
func (w *StatusWatcher) Run(ctx context.Context) error {
	watcher := w.query.Watch(ctx)
	defer watcher.Stop()

	w.logger.Info().Str("key", w.query.Key().String()).Msg("watching pickup statuses")

	var (
		baseline []pickup.Pickup
		primed   bool
	)
	for res := range watcher.Updates() {
		if res.Err != nil {
			w.record(func(s *WatcherStats) { s.Errors++ })
			w.logger.Warn().Err(res.Err).Msg("pickup status poll failed")
			continue
		}

		changes := Changes(baseline, res.Data)
		if !primed {
			changes = nil
			primed = true
		}
		baseline = res.Data

		w.record(func(s *WatcherStats) {
			s.Observations++
			s.Changes += int64(len(changes))
			s.LastSeenAt = res.At
		})

		for _, c := range changes {
			w.logger.Info().
				Str("pickup_id", c.PickupID).
				Str("from", string(c.From)).
				Str("to", string(c.To)).
				Msg("pickup status changed")
			if c.To == pickup.StatusCompleted {
				w.notifier.Success(ctx, c.Message())
			} else {
				w.notifier.Info(ctx, c.Message())
			}
		}
	}
	return ctx.Err()
}

func (w *StatusWatcher) record(fn func(*WatcherStats)) {
	w.mu.Lock()
	fn(&w.stats)
	w.mu.Unlock()
}

// Stats returns a copy of the counters.
func (w *StatusWatcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}
