package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/config"
	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/notify"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/queries"
	"github.com/ecocollect/ecocollect/internal/resilience"
	"github.com/ecocollect/ecocollect/internal/telemetry"
)

// app is everything a command needs.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *resilience.Registry
	cache    *cache.Client
	notifier notify.Notifier
	pubsub   *pubsub.Client

	authSvc   *auth.Service
	pickupSvc *pickup.Service
	auth      *queries.AuthQueries
	pickups   *queries.PickupQueries
	admin     *queries.AdminQueries
	geocoder  *geocode.Client

	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, registry: resilience.NewRegistry()}

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	a.onClose(func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tp.Shutdown(shutdownCtx)
	})

	tokens, err := config.OpenTokenStore(ctx, cfg, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening token store: %w", err)
	}
	a.onClose(tokens.Close)

	apiHTTP := resilience.DefaultConfig(httpclient.UpstreamName)
	apiHTTP.Timeout = cfg.Timeout
	apiHTTP.Registry = a.registry
	client := httpclient.New(httpclient.Config{
		BaseURL:    cfg.APIBaseURL,
		HTTPClient: resilience.NewClient(apiHTTP),
		Tokens:     auth.TokenSource(tokens),
		Dev:        cfg.Dev,
		Logger:     log,
	})

	a.cache, err = cache.NewClient(cache.Config{Size: cfg.CacheSize, Logger: log})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("creating cache: %w", err)
	}

	a.notifier = notify.LogNotifier{Logger: log}
	if cfg.PubSubProjectID != "" {
		if err := a.attachPubSub(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.authSvc = auth.NewService(auth.ServiceConfig{Client: client, Store: tokens, Logger: log})
	a.pickupSvc = pickup.NewService(pickup.ServiceConfig{Client: client, Logger: log})
	qcfg := queries.Config{Cache: a.cache, Notifier: a.notifier, Logger: log}
	a.auth = queries.NewAuthQueries(a.authSvc, qcfg)
	a.pickups = queries.NewPickupQueries(a.pickupSvc, qcfg)
	a.admin = queries.NewAdminQueries(admin.NewService(admin.ServiceConfig{Client: client, Logger: log}), qcfg)

	mapboxHTTP := resilience.DefaultConfig(geocode.ProviderName)
	mapboxHTTP.Registry = a.registry
	a.geocoder = geocode.NewClient(geocode.ClientConfig{
		AccessToken: cfg.MapboxToken,
		HTTPClient:  resilience.NewClient(mapboxHTTP),
		Logger:      log,
	})
	return a, nil
}

// attachPubSub fans notifications out to the configured topic as well.
func (a *app) attachPubSub(ctx context.Context) error {
	client, err := pubsub.NewClient(ctx, a.cfg.PubSubProjectID)
	if err != nil {
		return fmt.Errorf("creating pubsub client: %w", err)
	}
	a.pubsub = client
	a.onClose(client.Close)

	pub, err := notify.NewPublisher(ctx, notify.PublisherConfig{
		Client: client,
		Topic:  a.cfg.PubSubTopic,
		Logger: a.log,
	})
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	a.onClose(pub.Close)
	a.notifier = notify.Multi{a.notifier, pub}
	a.log.Info().Str("topic", a.cfg.PubSubTopic).Msg("publishing notifications")
	return nil
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// logHealth reports upstreams whose breaker is not closed.
func (a *app) logHealth() {
	for _, h := range a.registry.All() {
		if h.Healthy() {
			continue
		}
		a.log.Warn().
			Str("upstream", h.Name).
			Str("status", h.Status()).
			Str("last_error", h.LastError).
			Msg("upstream unhealthy")
	}
}
