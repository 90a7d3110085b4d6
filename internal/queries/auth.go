package queries

import (
	"context"

	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/cache"
)

// AuthQueries exposes the session queries and mutations.
type AuthQueries struct {
	bindings
	svc *auth.Service
}

// NewAuthQueries binds the auth service.
func NewAuthQueries(svc *auth.Service, cfg Config) *AuthQueries {
	return &AuthQueries{bindings: newBindings(cfg), svc: svc}
}

// Profile is the signed-in user's profile. It only fetches while a
// session exists.
func (a *AuthQueries) Profile() *cache.Query[*auth.UserProfile] {
	return cache.NewQuery(a.cache, cache.QueryOptions[*auth.UserProfile]{
		Key:       AuthKeys.Profile(),
		Fn:        a.svc.GetProfile,
		Enabled:   func() bool { return a.svc.IsAuthenticated(context.Background()) },
		StaleTime: ProfileStaleTime,
	})
}

func (a *AuthQueries) signedIn(success, failure string) (
	func(context.Context, *auth.AuthResponse),
	func(context.Context, error),
) {
	onSuccess := func(ctx context.Context, _ *auth.AuthResponse) {
		a.inv.Invalidate(AuthKeys.Profile())
		a.notifier.Success(ctx, success)
	}
	onError := func(ctx context.Context, err error) {
		a.fail(ctx, err, failure)
	}
	return onSuccess, onError
}

// Login signs in and refreshes the profile.
func (a *AuthQueries) Login() *cache.Mutation[auth.LoginRequest, *auth.AuthResponse] {
	onSuccess, onError := a.signedIn("Login successful!", "Login failed")
	return cache.NewMutation(cache.MutationOptions[auth.LoginRequest, *auth.AuthResponse]{
		Fn:        a.svc.Login,
		OnSuccess: func(ctx context.Context, out *auth.AuthResponse, _ auth.LoginRequest) { onSuccess(ctx, out) },
		OnError:   func(ctx context.Context, err error, _ auth.LoginRequest) { onError(ctx, err) },
		OnSettled: func(context.Context, *auth.AuthResponse, error, auth.LoginRequest) {
			a.logger.Debug().Msg("login mutation settled")
		},
	})
}

// Register creates an account and refreshes the profile.
func (a *AuthQueries) Register() *cache.Mutation[auth.RegisterRequest, *auth.AuthResponse] {
	onSuccess, onError := a.signedIn("Registration successful!", "Registration failed")
	return cache.NewMutation(cache.MutationOptions[auth.RegisterRequest, *auth.AuthResponse]{
		Fn:        a.svc.Register,
		OnSuccess: func(ctx context.Context, out *auth.AuthResponse, _ auth.RegisterRequest) { onSuccess(ctx, out) },
		OnError:   func(ctx context.Context, err error, _ auth.RegisterRequest) { onError(ctx, err) },
	})
}

// GoogleCallback completes a Google sign-in.
func (a *AuthQueries) GoogleCallback() *cache.Mutation[auth.GoogleCallback, *auth.AuthResponse] {
	onSuccess, onError := a.signedIn("Google authentication successful!", "Google authentication failed")
	return cache.NewMutation(cache.MutationOptions[auth.GoogleCallback, *auth.AuthResponse]{
		Fn:        a.svc.HandleGoogleCallback,
		OnSuccess: func(ctx context.Context, out *auth.AuthResponse, _ auth.GoogleCallback) { onSuccess(ctx, out) },
		OnError:   func(ctx context.Context, err error, _ auth.GoogleCallback) { onError(ctx, err) },
	})
}

// StartGoogleAuth returns the consent URL to open.
func (a *AuthQueries) StartGoogleAuth(ctx context.Context) (string, error) {
	url, err := a.svc.InitiateGoogleAuth(ctx)
	if err != nil {
		a.fail(ctx, err, "Failed to start Google authentication")
		return "", err
	}
	return url, nil
}

// Logout ends the session and drops every cached entry.
func (a *AuthQueries) Logout() *cache.Mutation[struct{}, struct{}] {
	return cache.NewMutation(cache.MutationOptions[struct{}, struct{}]{
		Fn: func(ctx context.Context, _ struct{}) (struct{}, error) {
			return struct{}{}, a.svc.Logout(ctx)
		},
		OnSuccess: func(ctx context.Context, _, _ struct{}) {
			a.inv.Clear()
			a.notifier.Success(ctx, "Logged out successfully!")
		},
		OnError: func(ctx context.Context, err error, _ struct{}) {
			a.fail(ctx, err, "Logout failed")
		},
	})
}

// RefreshToken renews the access token and refreshes the profile.
func (a *AuthQueries) RefreshToken() *cache.Mutation[struct{}, *auth.RefreshResponse] {
	return cache.NewMutation(cache.MutationOptions[struct{}, *auth.RefreshResponse]{
		Fn: func(ctx context.Context, _ struct{}) (*auth.RefreshResponse, error) {
			return a.svc.RefreshToken(ctx)
		},
		OnSuccess: func(context.Context, *auth.RefreshResponse, struct{}) {
			a.inv.Invalidate(AuthKeys.Profile())
		},
	})
}

// UpdateProfile edits the profile and seeds the cached copy.
func (a *AuthQueries) UpdateProfile() *cache.Mutation[auth.ProfileUpdate, *auth.UserProfile] {
	return cache.NewMutation(cache.MutationOptions[auth.ProfileUpdate, *auth.UserProfile]{
		Fn: a.svc.UpdateProfile,
		OnSuccess: func(ctx context.Context, profile *auth.UserProfile, _ auth.ProfileUpdate) {
			a.cache.SetData(AuthKeys.Profile(), profile)
			a.notifier.Success(ctx, "Profile updated")
		},
		OnError: func(ctx context.Context, err error, _ auth.ProfileUpdate) {
			a.fail(ctx, err, "Failed to update profile")
		},
	})
}

// ConfirmAccountDeletion deletes the account and drops every cached entry.
func (a *AuthQueries) ConfirmAccountDeletion() *cache.Mutation[string, struct{}] {
	return cache.NewMutation(cache.MutationOptions[string, struct{}]{
		Fn: func(ctx context.Context, token string) (struct{}, error) {
			return struct{}{}, a.svc.ConfirmAccountDeletion(ctx, token)
		},
		OnSuccess: func(ctx context.Context, _ struct{}, _ string) {
			a.inv.Clear()
			a.notifier.Success(ctx, "Account deleted")
		},
		OnError: func(ctx context.Context, err error, _ string) {
			a.fail(ctx, err, "Failed to delete account")
		},
	})
}

// Action wraps a plain auth call with no cache effects, such as email
// verification or password reset.
func Action[In any](fn func(context.Context, In) error) *cache.Mutation[In, struct{}] {
	return cache.NewMutation(cache.MutationOptions[In, struct{}]{
		Fn: func(ctx context.Context, in In) (struct{}, error) {
			return struct{}{}, fn(ctx, in)
		},
	})
}

// VerifyEmail submits an email verification token.
func (a *AuthQueries) VerifyEmail() *cache.Mutation[string, struct{}] {
	return Action(a.svc.VerifyEmail)
}

// ResetPassword requests a password reset email.
func (a *AuthQueries) ResetPassword() *cache.Mutation[string, struct{}] {
	return Action(a.svc.ResetPassword)
}

// PasswordReset pairs a reset token with the new password.
type PasswordReset struct {
	Token       string
	NewPassword string
}

// ConfirmPasswordReset sets a new password from a reset token.
func (a *AuthQueries) ConfirmPasswordReset() *cache.Mutation[PasswordReset, struct{}] {
	return Action(func(ctx context.Context, in PasswordReset) error {
		return a.svc.ConfirmPasswordReset(ctx, in.Token, in.NewPassword)
	})
}

// ChangePassword changes the password of the signed-in user.
func (a *AuthQueries) ChangePassword() *cache.Mutation[auth.PasswordChange, struct{}] {
	return Action(func(ctx context.Context, in auth.PasswordChange) error {
		return a.svc.ChangePassword(ctx, in.CurrentPassword, in.NewPassword)
	})
}
