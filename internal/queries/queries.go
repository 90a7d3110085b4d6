// Package queries binds the auth, pickup and admin services to the query
// cache: cached reads with their staleness and polling rules, and writes
// that invalidate the right keys and notify the user.
package queries

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/notify"
)

// Query timings.
const (
	ProfileStaleTime      = 5 * time.Minute
	PickupStaleTime       = 2 * time.Minute
	RecurringStaleTime    = 5 * time.Minute
	AdminPickupsStaleTime = time.Minute
	AdminDefaultStaleTime = 5 * time.Minute
	DashboardStaleTime    = 2 * time.Minute
	TrackingPollInterval  = 30 * time.Second
	DashboardPollInterval = 5 * time.Minute
)

// Invalidator is the part of the cache mutations touch.
type Invalidator interface {
	Invalidate(prefix cache.Key) int
	Clear()
}

// Config holds what every binding needs.
type Config struct {
	Cache *cache.Client
	// Invalidator receives mutation side effects. Defaults to Cache.
	Invalidator Invalidator
	Notifier    notify.Notifier
	Logger      zerolog.Logger
}

type bindings struct {
	cache    *cache.Client
	inv      Invalidator
	notifier notify.Notifier
	logger   zerolog.Logger
}

func newBindings(cfg Config) bindings {
	b := bindings{cache: cfg.Cache, inv: cfg.Invalidator, notifier: cfg.Notifier, logger: cfg.Logger}
	if b.inv == nil {
		b.inv = cfg.Cache
	}
	if b.notifier == nil {
		b.notifier = notify.Nop{}
	}
	return b
}

// fail reports err to the user, falling back to msg when err has no
// usable message.
func (b bindings) fail(ctx context.Context, err error, msg string) {
	b.logger.Error().Err(err).Str("kind", apierror.KindOf(err).String()).Msg(msg)
	b.notifier.Error(ctx, apierror.Message(err, msg))
}

func always() bool { return true }

func nonEmpty(id string) func() bool {
	return func() bool { return id != "" }
}
