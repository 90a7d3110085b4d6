package fakeserver

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/validation"
)

// signIn issues a token pair for the profile.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, status int, p auth.UserProfile) {
	access, err := s.tokens.Access(p.ID, string(p.Role))
	if err != nil {
		s.logger.Error().Err(err).Msg("issuing access token")
		internalError(w, r, "Could not sign in")
		return
	}
	writeData(w, r, status, auth.AuthResponse{
		AccessToken:  access,
		RefreshToken: s.tokens.Refresh(p.ID),
		User:         auth.AuthUser{ID: p.ID, Name: p.Name, Email: p.Email, Role: p.Role},
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validation.Struct(req, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p, err := s.store.login(req.Email, req.Password)
	if err != nil {
		unauthorized(w, r, err.Error())
		return
	}
	s.signIn(w, r, http.StatusOK, p)
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validation.Struct(req, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p, err := s.store.createUser(req.Name, req.Email, req.Password, auth.RoleUser)
	if errors.Is(err, errEmailTaken) {
		conflict(w, r, err.Error())
		return
	}
	if err != nil {
		internalError(w, r, "Could not create account")
		return
	}
	s.logger.Info().Str("user_id", p.ID).Msg("account registered")
	s.signIn(w, r, http.StatusCreated, p)
}

func (s *Server) googleInit(w http.ResponseWriter, r *http.Request) {
	q := url.Values{}
	q.Set("client_id", "ecocollect-devserver")
	q.Set("response_type", "code")
	q.Set("scope", "openid email profile")
	q.Set("state", randomToken(16))
	writeData(w, r, http.StatusOK, auth.GoogleAuthResponse{
		Success:     true,
		RedirectURL: "https://accounts.google.com/o/oauth2/v2/auth?" + q.Encode(),
	})
}

// googleCallback accepts any code and signs in the matching demo account.
func (s *Server) googleCallback(w http.ResponseWriter, r *http.Request) {
	var cb auth.GoogleCallback
	if !decode(w, r, &cb) {
		return
	}
	if strings.TrimSpace(cb.Code) == "" {
		badRequest(w, r, "Authorization code is required")
		return
	}
	s.googleSignIn(w, r, cb.Code)
}

func (s *Server) googleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDToken string `json:"id_token"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.IDToken) == "" {
		badRequest(w, r, "ID token is required")
		return
	}
	s.googleSignIn(w, r, body.IDToken)
}

func (s *Server) googleSignIn(w http.ResponseWriter, r *http.Request, credential string) {
	local := strings.ToLower(strings.Map(func(c rune) rune {
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			return c
		}
		return -1
	}, credential))
	if len(local) > 16 {
		local = local[:16]
	}
	if local == "" {
		local = "user"
	}
	p, err := s.store.userByEmail("Google User", "google."+local+"@ecocollect.cm")
	if err != nil {
		internalError(w, r, "Could not sign in")
		return
	}
	s.signIn(w, r, http.StatusOK, p)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if !decode(w, r, &body) {
		return
	}
	userID, err := s.tokens.Redeem(body.RefreshToken)
	if err != nil {
		unauthorized(w, r, "Invalid or expired refresh token")
		return
	}
	p, err := s.store.user(userID)
	if err != nil {
		unauthorized(w, r, "Invalid or expired refresh token")
		return
	}
	access, err := s.tokens.Access(p.ID, string(p.Role))
	if err != nil {
		internalError(w, r, "Could not refresh token")
		return
	}
	writeData(w, r, http.StatusOK, auth.RefreshResponse{AccessToken: access})
}

func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}
	if _, err := s.tokens.Validate(body.Token); err != nil {
		unauthorized(w, r, "Token is invalid or expired")
		return
	}
	writeMessage(w, r, "Token is valid")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.tokens.RevokeUser(sessionFrom(r.Context()).UserID)
	writeMessage(w, r, "Logged out")
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.user(sessionFrom(r.Context()).UserID)
	if err != nil {
		unauthorized(w, r, "User no longer exists")
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (s *Server) updateProfile(w http.ResponseWriter, r *http.Request) {
	var update auth.ProfileUpdate
	if !decode(w, r, &update) {
		return
	}
	if err := validation.Struct(update, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p, err := s.store.updateProfile(sessionFrom(r.Context()).UserID, update)
	if err != nil {
		notFound(w, r, "User not found")
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordChange
	if !decode(w, r, &req) {
		return
	}
	if err := validation.Struct(req, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	userID := sessionFrom(r.Context()).UserID
	if !s.store.checkPassword(userID, req.CurrentPassword) {
		badRequest(w, r, "Current password is incorrect")
		return
	}
	if err := s.store.setPassword(userID, req.NewPassword); err != nil {
		notFound(w, r, "User not found")
		return
	}
	writeMessage(w, r, "Password changed")
}

func (s *Server) confirmReset(w http.ResponseWriter, r *http.Request) {
	var req auth.PasswordResetConfirm
	if !decode(w, r, &req) {
		return
	}
	if err := validation.Struct(req, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	writeMessage(w, r, "Password has been reset")
}

func (s *Server) confirmPhone(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if !decode(w, r, &body) {
		return
	}
	if len(strings.TrimSpace(body.Code)) != 6 {
		badRequest(w, r, "Invalid verification code")
		return
	}
	writeMessage(w, r, "Phone number verified")
}

func (s *Server) confirmDeletion(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Token string `json:"token"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Token) == "" {
		badRequest(w, r, "Confirmation token is required")
		return
	}
	s.removeAccount(w, r)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !s.store.checkPassword(sessionFrom(r.Context()).UserID, body.Password) {
		badRequest(w, r, "Password is incorrect")
		return
	}
	s.removeAccount(w, r)
}

func (s *Server) removeAccount(w http.ResponseWriter, r *http.Request) {
	userID := sessionFrom(r.Context()).UserID
	s.tokens.RevokeUser(userID)
	s.store.deleteUser(userID)
	s.logger.Info().Str("user_id", userID).Msg("account deleted")
	writeMessage(w, r, "Account deleted")
}

// acknowledge answers with a fixed message.
func (s *Server) acknowledge(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, r, message)
	}
}

// requireToken answers with message when the body carries a token.
func (s *Server) requireToken(message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		if !decode(w, r, &body) {
			return
		}
		if strings.TrimSpace(body.Token) == "" {
			badRequest(w, r, "Token is required")
			return
		}
		writeMessage(w, r, message)
	}
}
