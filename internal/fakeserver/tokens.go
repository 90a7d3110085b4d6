package fakeserver

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenExpiry is how long issued access tokens are valid.
	AccessTokenExpiry = time.Hour
	// RefreshTokenExpiry is how long refresh tokens are valid.
	RefreshTokenExpiry = 30 * 24 * time.Hour

	issuer   = "ecocollect-devserver"
	audience = "ecocollect"
)

var (
	ErrInvalidAccessToken  = errors.New("invalid access token")
	ErrAccessTokenExpired  = errors.New("access token has expired")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

// Claims are the claims of an access token.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type refreshToken struct {
	userID    string
	expiresAt time.Time
}

// tokenIssuer signs HS256 access tokens and tracks opaque refresh tokens.
type tokenIssuer struct {
	key []byte
	now func() time.Time

	mu      sync.Mutex
	refresh map[string]refreshToken
}

func newTokenIssuer(key string, now func() time.Time) *tokenIssuer {
	return &tokenIssuer{key: []byte(key), now: now, refresh: make(map[string]refreshToken)}
}

// Access signs an access token for the user.
func (t *tokenIssuer) Access(userID, role string) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
			NotBefore: jwt.NewNumericDate(now),
			ID:        randomToken(16),
		},
		Role: role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("signing access token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies an access token.
func (t *tokenIssuer) Validate(token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrAccessTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccessToken, err.Error())
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidAccessToken
	}
	return claims, nil
}

// Refresh issues a new refresh token for the user.
func (t *tokenIssuer) Refresh(userID string) string {
	token := randomToken(32)
	t.mu.Lock()
	t.refresh[token] = refreshToken{userID: userID, expiresAt: t.now().Add(RefreshTokenExpiry)}
	t.mu.Unlock()
	return token
}

// Redeem returns the user a refresh token belongs to.
func (t *tokenIssuer) Redeem(token string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rt, ok := t.refresh[token]
	if !ok || t.now().After(rt.expiresAt) {
		delete(t.refresh, token)
		return "", ErrInvalidRefreshToken
	}
	return rt.userID, nil
}

// RevokeUser drops every refresh token of the user.
func (t *tokenIssuer) RevokeUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for token, rt := range t.refresh {
		if rt.userID == userID {
			delete(t.refresh, token)
		}
	}
}

func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
