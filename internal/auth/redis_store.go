package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisUpdateAttempts = 5

// RedisStore shares one session between processes, e.g. a CLI and a
// background watcher on the same machine.
type RedisStore struct {
	client     *redis.Client
	accessKey  string
	refreshKey string
}

// NewRedisStore stores tokens under prefix+"accessToken" and
// prefix+"refreshToken".
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{
		client:     client,
		accessKey:  prefix + AccessTokenKey,
		refreshKey: prefix + RefreshTokenKey,
	}
}

func (s *RedisStore) Load(ctx context.Context) (Tokens, error) {
	return s.read(ctx, s.client)
}

func (s *RedisStore) Save(ctx context.Context, tokens Tokens) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		s.write(ctx, pipe, tokens)
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.accessKey, s.refreshKey).Err(); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// Update uses WATCH so a concurrent writer aborts and retries the update.
func (s *RedisStore) Update(ctx context.Context, fn func(Tokens) (Tokens, bool)) error {
	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx)
		if err != nil {
			return err
		}
		next, ok := fn(current)
		if !ok {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			s.write(ctx, pipe, next)
			return nil
		})
		return err
	}

	for i := 0; i < redisUpdateAttempts; i++ {
		err := s.client.Watch(ctx, txf, s.accessKey, s.refreshKey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("updating tokens: %w", err)
		}
		return nil
	}
	return fmt.Errorf("updating tokens: %w", redis.TxFailedErr)
}

type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

func (s *RedisStore) read(ctx context.Context, c mgetter) (Tokens, error) {
	vals, err := c.MGet(ctx, s.accessKey, s.refreshKey).Result()
	if err != nil {
		return Tokens{}, fmt.Errorf("reading tokens: %w", err)
	}
	var tokens Tokens
	if v, ok := vals[0].(string); ok {
		tokens.Access = v
	}
	if v, ok := vals[1].(string); ok {
		tokens.Refresh = v
	}
	return tokens, nil
}

func (s *RedisStore) write(ctx context.Context, pipe redis.Pipeliner, tokens Tokens) {
	for key, value := range map[string]string{s.accessKey: tokens.Access, s.refreshKey: tokens.Refresh} {
		if value == "" {
			pipe.Del(ctx, key)
			continue
		}
		pipe.Set(ctx, key, value, 0)
	}
}
