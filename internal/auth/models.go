package auth

import "time"

// Role is a user's role.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleDriver Role = "driver"
)

// LoginRequest is the body of a basic login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=6"`
}

// RegisterRequest is the body of a sign-up. ConfirmPassword is checked
// locally and never sent.
type RegisterRequest struct {
	Name            string `json:"name" validate:"trimmed_min=2"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"min=6"`
	ConfirmPassword string `json:"-" validate:"omitempty,eqfield=Password"`
}

// AuthUser is the user summary returned with tokens.
type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// AuthResponse is returned by login, register and the Google flows.
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         AuthUser `json:"user"`
}

// UserProfile is the authenticated user's profile.
type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the profile belongs to an administrator.
func (p *UserProfile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// ProfileUpdate is a partial profile edit. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,trimmed_min=2"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// RefreshResponse carries a new access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// GoogleAuthResponse is returned when starting the Google flow.
type GoogleAuthResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
}

// GoogleCallback is the query the provider sends back to the application.
type GoogleCallback struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state,omitempty"`
}

// PasswordResetConfirm completes a reset started by ResetPassword.
type PasswordResetConfirm struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"min=6"`
}

// PasswordChange changes the password of the signed-in user.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"min=6,nefield=CurrentPassword"`
}
