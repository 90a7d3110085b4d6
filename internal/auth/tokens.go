// Package auth talks to the authentication endpoints of the backend and
// keeps the resulting tokens in a TokenStore.
package auth

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ecocollect/ecocollect/internal/httpclient"
)

// Storage keys. The SQLite and Redis stores persist under these names.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Tokens is the pair issued at sign-in.
type Tokens struct {
	Access  string
	Refresh string
}

// Empty reports whether neither token is set.
func (t Tokens) Empty() bool {
	return t.Access == "" && t.Refresh == ""
}

// TokenStore persists the current token pair. Implementations are safe for
// concurrent use.
type TokenStore interface {
	Load(ctx context.Context) (Tokens, error)
	Save(ctx context.Context, tokens Tokens) error
	Clear(ctx context.Context) error
	// Update applies fn atomically. If fn returns false nothing is written.
	Update(ctx context.Context, fn func(current Tokens) (Tokens, bool)) error
}

// TokenSource exposes the store's access token to the HTTP client. The
// store is read on every call.
func TokenSource(store TokenStore) httpclient.TokenSource {
	return httpclient.TokenFunc(func(ctx context.Context) (string, error) {
		tokens, err := store.Load(ctx)
		if err != nil {
			return "", err
		}
		return tokens.Access, nil
	})
}

// MemoryStore keeps tokens in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	tokens Tokens
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (Tokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens, nil
}

func (s *MemoryStore) Save(_ context.Context, tokens Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = tokens
	return nil
}

func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = Tokens{}
	return nil
}

func (s *MemoryStore) Update(_ context.Context, fn func(Tokens) (Tokens, bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if next, ok := fn(s.tokens); ok {
		s.tokens = next
	}
	return nil
}

var errNoExpiry = errors.New("token carries no expiry")

// TokenExpiry reads the exp claim of a JWT access token without verifying
// its signature; the backend remains the authority on validity.
func TokenExpiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
