package config

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/auth"
)

// Store is an opened token store and the function that releases it.
type Store struct {
	auth.TokenStore
	Close func() error
}

// OpenTokenStore opens the backend named by cfg.TokenStore.
func OpenTokenStore(ctx context.Context, cfg Config, log zerolog.Logger) (*Store, error) {
	switch cfg.TokenStore {
	case "", StoreMemory:
		return &Store{TokenStore: auth.NewMemoryStore(), Close: func() error { return nil }}, nil

	case StoreSQLite:
		s, err := auth.OpenSQLiteStore(ctx, cfg.TokenDB)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.TokenDB).Msg("using sqlite token store")
		return &Store{TokenStore: s, Close: s.Close}, nil

	case StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis token store")
		return &Store{TokenStore: auth.NewRedisStore(client, cfg.RedisKey), Close: client.Close}, nil

	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
	}
}
