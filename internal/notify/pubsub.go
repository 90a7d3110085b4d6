package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PublisherConfig holds configuration for the Pub/Sub notifier.
type PublisherConfig struct {
	// Client is used when set; otherwise one is created for ProjectID and
	// owned by the publisher.
	Client    *pubsub.Client
	ProjectID string
	Topic     string
	// Timeout bounds each publish. Default: 5 seconds.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// Publisher forwards notifications to a Pub/Sub topic so other devices of
// the same user can show them.
type Publisher struct {
	client    *pubsub.Client
	ownClient bool
	publisher *pubsub.Publisher
	topic     string
	timeout   time.Duration
	logger    zerolog.Logger
	now       func() time.Time
}

// NewPublisher creates a Pub/Sub notifier.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client := cfg.Client
	own := false
	if client == nil {
		var err error
		client, err = pubsub.NewClient(ctx, cfg.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("creating pubsub client: %w", err)
		}
		own = true
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &Publisher{
		client:    client,
		ownClient: own,
		publisher: client.Publisher(cfg.Topic),
		topic:     cfg.Topic,
		timeout:   timeout,
		logger:    cfg.Logger,
		now:       time.Now,
	}, nil
}

func (p *Publisher) Success(ctx context.Context, msg string) { p.send(ctx, LevelSuccess, msg) }
func (p *Publisher) Error(ctx context.Context, msg string)   { p.send(ctx, LevelError, msg) }
func (p *Publisher) Info(ctx context.Context, msg string)    { p.send(ctx, LevelInfo, msg) }

// Publish sends n and waits for the server to acknowledge it.
func (p *Publisher) Publish(ctx context.Context, n Notification) (string, error) {
	data, err := json.Marshal(n)
	if err != nil {
		return "", fmt.Errorf("encoding notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{"level": string(n.Level)},
	})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publishing notification: %w", err)
	}
	return id, nil
}

func (p *Publisher) send(ctx context.Context, level Level, msg string) {
	id, err := p.Publish(ctx, Notification{Level: level, Message: msg, At: p.now()})
	if err != nil {
		p.logger.Warn().Err(err).Str("topic", p.topic).Msg("notification not published")
		return
	}
	p.logger.Debug().Str("message_id", id).Str("level", string(level)).Msg("notification published")
}

// Close flushes pending messages and closes an owned client.
func (p *Publisher) Close() error {
	p.publisher.Stop()
	if p.ownClient {
		return p.client.Close()
	}
	return nil
}

// ListenerConfig holds configuration for a Pub/Sub notification listener.
type ListenerConfig struct {
	Client       *pubsub.Client
	Subscription string
	Target       Notifier
	Logger       zerolog.Logger
}

// Listener receives notifications published by other devices and hands
// them to a local notifier.
type Listener struct {
	subscriber   *pubsub.Subscriber
	subscription string
	target       Notifier
	logger       zerolog.Logger
}

// NewListener creates a listener on an existing subscription.
func NewListener(cfg ListenerConfig) *Listener {
	subscriber := cfg.Client.Subscriber(cfg.Subscription)
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10

	return &Listener{
		subscriber:   subscriber,
		subscription: cfg.Subscription,
		target:       cfg.Target,
		logger:       cfg.Logger,
	}
}

// Start blocks receiving messages until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	l.logger.Info().Str("subscription", l.subscription).Msg("starting notification listener")
	return l.subscriber.Receive(ctx, l.handle)
}

func (l *Listener) handle(ctx context.Context, msg *pubsub.Message) {
	logger := l.logger.With().Str("message_id", msg.ID).Logger()

	var n Notification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		// Ack so it is not redelivered.
		logger.Error().Err(err).Msg("dropping malformed notification")
		msg.Ack()
		return
	}
	if n.Message == "" {
		logger.Warn().Msg("dropping empty notification")
		msg.Ack()
		return
	}

	Deliver(ctx, l.target, n)
	msg.Ack()
}
