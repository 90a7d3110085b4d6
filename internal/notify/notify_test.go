package notify_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ecocollect/ecocollect/internal/notify"
)

func TestRecorder(t *testing.T) {
	r := notify.NewRecorder()
	ctx := context.Background()

	r.Success(ctx, "Login successful!")
	r.Error(ctx, "Login failed")
	r.Info(ctx, "Driver on the way")

	assert.Len(t, r.Notifications(), 3)
	assert.Equal(t, []string{"Login successful!"}, r.Messages(notify.LevelSuccess))
	assert.Equal(t, []string{"Login failed"}, r.Messages(notify.LevelError))

	r.Reset()
	assert.Empty(t, r.Notifications())
}

func TestMulti(t *testing.T) {
	a, b := notify.NewRecorder(), notify.NewRecorder()
	m := notify.Multi{a, b, notify.Nop{}}

	m.Error(context.Background(), "Failed to request pickup")

	assert.Equal(t, []string{"Failed to request pickup"}, a.Messages(notify.LevelError))
	assert.Equal(t, []string{"Failed to request pickup"}, b.Messages(notify.LevelError))
}

func TestDeliver(t *testing.T) {
	r := notify.NewRecorder()
	ctx := context.Background()

	notify.Deliver(ctx, r, notify.Notification{Level: notify.LevelSuccess, Message: "a"})
	notify.Deliver(ctx, r, notify.Notification{Level: notify.LevelError, Message: "b"})
	notify.Deliver(ctx, r, notify.Notification{Level: "weird", Message: "c"})

	assert.Equal(t, []string{"a"}, r.Messages(notify.LevelSuccess))
	assert.Equal(t, []string{"b"}, r.Messages(notify.LevelError))
	assert.Equal(t, []string{"c"}, r.Messages(notify.LevelInfo))
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.LogNotifier{Logger: zerolog.New(&buf)}

	n.Error(context.Background(), "Logout failed")

	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "Logout failed")
}
