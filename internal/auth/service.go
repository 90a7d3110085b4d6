package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/endpoints"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/validation"
)

var (
	// ErrNoRefreshToken is returned by RefreshToken when no session exists.
	ErrNoRefreshToken = errors.New("No refresh token available") //nolint:staticcheck // shown to users

	// ErrNoRedirectURL is returned when the backend did not supply a Google
	// consent URL.
	ErrNoRedirectURL = errors.New("Failed to get Google authentication URL") //nolint:staticcheck // shown to users
)

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	Client *httpclient.Client
	Store  TokenStore
	Logger zerolog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service wraps the authentication endpoints.
type Service struct {
	client *httpclient.Client
	store  TokenStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates an auth service. A nil store means an in-memory one.
func NewService(cfg ServiceConfig) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		client: cfg.Client,
		store:  store,
		logger: cfg.Logger,
		now:    now,
	}
}

// Store returns the token store.
func (s *Service) Store() TokenStore {
	return s.store
}

// Login signs in with email and password and persists the issued tokens.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := validation.Struct(req, nil); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, endpoints.Auth.Basic.Login, req)
}

// Register creates an account and persists the issued tokens.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if err := validation.Struct(req, validation.Messages{
		"ConfirmPassword": "Passwords don't match",
	}); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, endpoints.Auth.Basic.Register, req)
}

func (s *Service) authenticate(ctx context.Context, path string, body any) (*AuthResponse, error) {
	resp, err := httpclient.Data[AuthResponse](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("authentication failed")
		return nil, err
	}
	if err := s.persist(ctx, resp); err != nil {
		return nil, err
	}
	s.logger.Info().Str("user_id", resp.User.ID).Str("role", string(resp.User.Role)).Msg("signed in")
	return &resp, nil
}

// persist stores whichever tokens the response carries.
func (s *Service) persist(ctx context.Context, resp AuthResponse) error {
	err := s.store.Update(ctx, func(current Tokens) (Tokens, bool) {
		if resp.AccessToken != "" {
			current.Access = resp.AccessToken
		}
		if resp.RefreshToken != "" {
			current.Refresh = resp.RefreshToken
		}
		return current, true
	})
	if err != nil {
		return fmt.Errorf("saving tokens: %w", err)
	}
	return nil
}

// Logout tells the backend to end the session and clears the stored
// tokens even when that call fails.
func (s *Service) Logout(ctx context.Context) error {
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoints.Auth.Basic.Logout,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("logout call failed, clearing local tokens")
	}
	return s.clear(ctx)
}

func (s *Service) clear(ctx context.Context) error {
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// GetProfile returns the signed-in user's profile.
func (s *Service) GetProfile(ctx context.Context) (*UserProfile, error) {
	profile, err := httpclient.Data[UserProfile](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.Auth.Profile,
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile edits the signed-in user's profile.
func (s *Service) UpdateProfile(ctx context.Context, update ProfileUpdate) (*UserProfile, error) {
	if err := validation.Struct(update, nil); err != nil {
		return nil, err
	}
	profile, err := httpclient.Data[UserProfile](ctx, s.client, httpclient.Request{
		Method: http.MethodPatch,
		Path:   endpoints.Auth.Profile,
		Body:   update,
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// RefreshToken exchanges the stored refresh token for a new access token.
// The new token is only stored if the session was not ended while the
// request was in flight.
func (s *Service) RefreshToken(ctx context.Context) (*RefreshResponse, error) {
	tokens, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tokens: %w", err)
	}
	if tokens.Refresh == "" {
		return nil, ErrNoRefreshToken
	}

	resp, err := httpclient.Data[RefreshResponse](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoints.Auth.Token.Refresh,
		Body:   map[string]string{"refresh_token": tokens.Refresh},
	})
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return &resp, nil
	}

	var stale bool
	err = s.store.Update(ctx, func(current Tokens) (Tokens, bool) {
		if current.Refresh != tokens.Refresh {
			stale = true
			return current, false
		}
		current.Access = resp.AccessToken
		return current, true
	})
	if err != nil {
		return nil, fmt.Errorf("saving access token: %w", err)
	}
	if stale {
		s.logger.Info().Msg("session changed during refresh, discarding new access token")
	}
	return &resp, nil
}

// VerifyToken asks the backend whether the stored access token is valid.
func (s *Service) VerifyToken(ctx context.Context) error {
	tokens, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading tokens: %w", err)
	}
	return s.post(ctx, endpoints.Auth.Token.Verify, map[string]string{"token": tokens.Access})
}

// VerifyEmail confirms an email address with the token from the
// verification mail.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	return s.post(ctx, endpoints.Auth.Email.Verify, map[string]string{"token": token})
}

// ResendEmailVerification sends a new verification mail.
func (s *Service) ResendEmailVerification(ctx context.Context) error {
	return s.post(ctx, endpoints.Auth.Email.Resend, nil)
}

// ConfirmEmail completes an email change.
func (s *Service) ConfirmEmail(ctx context.Context, token string) error {
	return s.post(ctx, endpoints.Auth.Email.Confirm, map[string]string{"token": token})
}

// ResetPassword mails a reset link to email.
func (s *Service) ResetPassword(ctx context.Context, email string) error {
	if err := validation.Struct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}, nil); err != nil {
		return err
	}
	return s.post(ctx, endpoints.Auth.Password.Reset, map[string]string{"email": email})
}

// ConfirmPasswordReset sets a new password using the reset token.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	req := PasswordResetConfirm{Token: token, Password: password}
	if err := validation.Struct(req, nil); err != nil {
		return err
	}
	return s.post(ctx, endpoints.Auth.Password.Confirm, req)
}

// ChangePassword changes the signed-in user's password.
func (s *Service) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	req := PasswordChange{CurrentPassword: currentPassword, NewPassword: newPassword}
	if err := validation.Struct(req, validation.Messages{
		"new_password.nefield": "New password must differ from the current one",
	}); err != nil {
		return err
	}
	return s.post(ctx, endpoints.Auth.Password.Change, req)
}

// RequestPhoneVerification sends a verification code to phone.
func (s *Service) RequestPhoneVerification(ctx context.Context, phone string) error {
	return s.post(ctx, endpoints.Auth.Phone.Verify, map[string]string{"phone": phone})
}

// ResendPhoneVerification sends the code again.
func (s *Service) ResendPhoneVerification(ctx context.Context) error {
	return s.post(ctx, endpoints.Auth.Phone.Resend, nil)
}

// ConfirmPhone submits the received code.
func (s *Service) ConfirmPhone(ctx context.Context, code string) error {
	return s.post(ctx, endpoints.Auth.Phone.Confirm, map[string]string{"code": code})
}

// InitiateGoogleAuth returns the consent URL the user must open.
func (s *Service) InitiateGoogleAuth(ctx context.Context) (string, error) {
	resp, err := httpclient.Data[GoogleAuthResponse](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.Auth.Google.Init,
	})
	if err != nil {
		return "", err
	}
	if resp.RedirectURL == "" {
		return "", ErrNoRedirectURL
	}
	return resp.RedirectURL, nil
}

// HandleGoogleCallback exchanges the code returned by Google for tokens.
func (s *Service) HandleGoogleCallback(ctx context.Context, cb GoogleCallback) (*AuthResponse, error) {
	if err := validation.Struct(cb, nil); err != nil {
		return nil, err
	}
	return s.authenticate(ctx, endpoints.Auth.Google.Callback, cb)
}

// ExchangeGoogleToken signs in with a Google ID token obtained elsewhere.
func (s *Service) ExchangeGoogleToken(ctx context.Context, idToken string) (*AuthResponse, error) {
	return s.authenticate(ctx, endpoints.Auth.Google.Exchange, map[string]string{"id_token": idToken})
}

// RequestAccountDeletion asks the backend to mail a deletion confirmation.
func (s *Service) RequestAccountDeletion(ctx context.Context, reason string) error {
	return s.post(ctx, endpoints.Auth.Account.Request, map[string]string{"reason": reason})
}

// ConfirmAccountDeletion deletes the account and ends the local session.
func (s *Service) ConfirmAccountDeletion(ctx context.Context, token string) error {
	if err := s.post(ctx, endpoints.Auth.Account.Confirm, map[string]string{"token": token}); err != nil {
		return err
	}
	return s.clear(ctx)
}

// DeleteAccount deletes the account immediately after re-checking the
// password, then ends the local session.
func (s *Service) DeleteAccount(ctx context.Context, password string) error {
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodDelete,
		Path:   endpoints.Auth.Account.Delete,
		Body:   map[string]string{"password": password},
	})
	if err != nil {
		return err
	}
	return s.clear(ctx)
}

// IsAuthenticated reports whether an access token is stored and, when it
// is a JWT, has not expired.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	tokens, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("reading tokens")
		return false
	}
	if tokens.Access == "" {
		return false
	}
	exp, err := TokenExpiry(tokens.Access)
	if err != nil {
		return true
	}
	return s.now().Before(exp)
}

func (s *Service) post(ctx context.Context, path string, body any) error {
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
	return err
}
