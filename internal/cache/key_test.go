package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecocollect/ecocollect/internal/cache"
)

type filter struct {
	Status string `json:"status"`
}

func TestNewKey_DropsNil(t *testing.T) {
	var f *filter
	assert.Equal(t, cache.Key{"pickups", "my"}, cache.NewKey("pickups", "my", nil))
	assert.Equal(t, cache.Key{"pickups", "my"}, cache.NewKey("pickups", "my", f))
	assert.Equal(t, cache.Key{"a", "c"}, cache.NewKey("a", nil, "c"))
	assert.Equal(t, "pickups/my", cache.NewKey("pickups", nil, "my").String())
}

func TestKey_HasPrefix(t *testing.T) {
	detail := cache.NewKey("pickups", "detail", "p1")

	assert.True(t, detail.HasPrefix(cache.NewKey("pickups")))
	assert.True(t, detail.HasPrefix(cache.NewKey("pickups", "detail")))
	assert.True(t, detail.HasPrefix(detail))
	assert.False(t, detail.HasPrefix(cache.NewKey("pickups", "my")))
	assert.False(t, cache.NewKey("pickups").HasPrefix(detail))
}

func TestKey_StructParts(t *testing.T) {
	a := cache.NewKey("pickups", "my", &filter{Status: "pending"})
	b := cache.NewKey("pickups", "my", &filter{Status: "pending"})
	c := cache.NewKey("pickups", "my", &filter{Status: "completed"})

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, c.HasPrefix(cache.NewKey("pickups", "my")))
}

func TestKey_With(t *testing.T) {
	base := cache.NewKey("admin")
	k := base.With("pickups", nil, 2)
	assert.Equal(t, cache.Key{"admin", "pickups", 2}, k)
	assert.Equal(t, cache.Key{"admin"}, base)
}
