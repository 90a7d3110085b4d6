package auth_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/auth"
)

func exerciseStore(t *testing.T, store auth.TokenStore) {
	t.Helper()
	ctx := context.Background()

	tokens, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, tokens.Empty())

	require.NoError(t, store.Save(ctx, auth.Tokens{Access: "a1", Refresh: "r1"}))
	tokens, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.Tokens{Access: "a1", Refresh: "r1"}, tokens)

	require.NoError(t, store.Update(ctx, func(cur auth.Tokens) (auth.Tokens, bool) {
		cur.Access = "a2"
		return cur, true
	}))
	require.NoError(t, store.Update(ctx, func(cur auth.Tokens) (auth.Tokens, bool) {
		cur.Access = "ignored"
		return cur, false
	}))
	tokens, _ = store.Load(ctx)
	assert.Equal(t, auth.Tokens{Access: "a2", Refresh: "r1"}, tokens)

	require.NoError(t, store.Save(ctx, auth.Tokens{Access: "only-access"}))
	tokens, _ = store.Load(ctx)
	assert.Equal(t, auth.Tokens{Access: "only-access"}, tokens)

	require.NoError(t, store.Clear(ctx))
	tokens, _ = store.Load(ctx)
	assert.True(t, tokens.Empty())
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, auth.NewMemoryStore())
}

func TestMemoryStore_ConcurrentUpdates(t *testing.T) {
	store := auth.NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(context.Background(), func(cur auth.Tokens) (auth.Tokens, bool) {
				cur.Access += "x"
				return cur, true
			})
		}()
	}
	wg.Wait()

	tokens, _ := store.Load(context.Background())
	assert.Len(t, tokens.Access, 50)
}

func TestSQLiteStore(t *testing.T) {
	store, err := auth.OpenSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "tokens.db"))
	require.NoError(t, err)
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.db")
	ctx := context.Background()

	first, err := auth.OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, auth.Tokens{Access: "a", Refresh: "r"}))
	require.NoError(t, first.Close())

	second, err := auth.OpenSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	tokens, err := second.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, auth.Tokens{Access: "a", Refresh: "r"}, tokens)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("ECOCOLLECT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ECOCOLLECT_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	prefix := "ecocollect-test:" + t.Name() + ":"
	store := auth.NewRedisStore(client, prefix)
	require.NoError(t, store.Clear(context.Background()))

	exerciseStore(t, store)
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("any"))
	require.NoError(t, err)

	got, err := auth.TokenExpiry(token)
	require.NoError(t, err)
	assert.True(t, exp.Equal(got))

	_, err = auth.TokenExpiry("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenSource_ReadsStore(t *testing.T) {
	store := auth.NewMemoryStore()
	source := auth.TokenSource(store)

	token, err := source.AccessToken(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.Save(context.Background(), auth.Tokens{Access: "fresh"}))
	token, _ = source.AccessToken(context.Background())
	assert.Equal(t, "fresh", token)
}
