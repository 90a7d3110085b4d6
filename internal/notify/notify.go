// Package notify delivers transient user notifications ("toasts") raised by
// mutations and background watchers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Level is the kind of notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Notification is one message shown to the user.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier is a notification sink. Implementations must be safe for
// concurrent use and must not block for long.
type Notifier interface {
	Success(ctx context.Context, msg string)
	Error(ctx context.Context, msg string)
	Info(ctx context.Context, msg string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) Success(context.Context, string) {}
func (Nop) Error(context.Context, string)   {}
func (Nop) Info(context.Context, string)    {}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Success(_ context.Context, msg string) {
	n.Logger.Info().Str("level_hint", string(LevelSuccess)).Msg(msg)
}

func (n LogNotifier) Error(_ context.Context, msg string) {
	n.Logger.Error().Msg(msg)
}

func (n LogNotifier) Info(_ context.Context, msg string) {
	n.Logger.Info().Msg(msg)
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu   sync.Mutex
	list []Notification
	now  func() time.Time
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now
	if r.now != nil {
		now = r.now
	}
	r.list = append(r.list, Notification{Level: level, Message: msg, At: now()})
}

func (r *Recorder) Success(_ context.Context, msg string) { r.add(LevelSuccess, msg) }
func (r *Recorder) Error(_ context.Context, msg string)   { r.add(LevelError, msg) }
func (r *Recorder) Info(_ context.Context, msg string)    { r.add(LevelInfo, msg) }

// Notifications returns a copy of what was recorded.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notification, len(r.list))
	copy(out, r.list)
	return out
}

// Messages returns the recorded messages at level, in order.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, n := range r.Notifications() {
		if n.Level == level {
			out = append(out, n.Message)
		}
	}
	return out
}

// Reset drops everything recorded.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.list = nil
	r.mu.Unlock()
}

// Multi fans out to several notifiers in order.
type Multi []Notifier

func (m Multi) Success(ctx context.Context, msg string) {
	for _, n := range m {
		n.Success(ctx, msg)
	}
}

func (m Multi) Error(ctx context.Context, msg string) {
	for _, n := range m {
		n.Error(ctx, msg)
	}
}

func (m Multi) Info(ctx context.Context, msg string) {
	for _, n := range m {
		n.Info(ctx, msg)
	}
}

// Deliver routes n to the matching method of target.
func Deliver(ctx context.Context, target Notifier, n Notification) {
	switch n.Level {
	case LevelSuccess:
		target.Success(ctx, n.Message)
	case LevelError:
		target.Error(ctx, n.Message)
	default:
		target.Info(ctx, n.Message)
	}
}
