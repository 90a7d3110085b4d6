// Package fakeserver is an in-memory EcoCollect backend for development
// and tests. It serves the full API under /api, issues HS256 access
// tokens and answers with the same envelopes as the real backend.
package fakeserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultSigningKey signs tokens when Config.SigningKey is empty.
const DefaultSigningKey = "ecocollect-dev-secret"

// Config holds configuration for the fake backend.
type Config struct {
	SigningKey string
	Logger     zerolog.Logger

	// RateLimit is requests per minute per client on the auth routes.
	// Zero means 60; negative disables limiting.
	RateLimit int

	// Seed loads the demo accounts, drivers and pickups.
	Seed bool

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server is the fake backend.
type Server struct {
	store     *store
	tokens    *tokenIssuer
	logger    zerolog.Logger
	rateLimit int
	router    chi.Router
}

// New creates a server.
func New(cfg Config) *Server {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	key := cfg.SigningKey
	if key == "" {
		key = DefaultSigningKey
	}
	limit := cfg.RateLimit
	if limit == 0 {
		limit = 60
	}

	s := &Server{
		store:     newStore(now),
		tokens:    newTokenIssuer(key, now),
		logger:    cfg.Logger,
		rateLimit: limit,
	}
	if cfg.Seed {
		s.seed()
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(recovery(s.logger))
	r.Use(chimiddleware.RealIP)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		notFound(w, r, "Resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.rateLimit > 0 {
					r.Use(rateLimit(s.rateLimit, time.Minute))
				}
				r.Post("/login/", s.login)
				r.Post("/register/", s.register)
				r.Get("/google/init/", s.googleInit)
				r.Post("/google/callback/", s.googleCallback)
				r.Post("/google/token/", s.googleToken)
				r.Post("/token/refresh/", s.refresh)
				r.Post("/token/verify/", s.verify)
				r.Post("/password/reset/", s.acknowledge("If the address exists, a reset link has been sent"))
				r.Post("/password/reset/confirm/", s.confirmReset)
				r.Post("/email/verify/", s.requireToken("Email verified"))
				r.Post("/email/confirm/", s.requireToken("Email confirmed"))
			})

			r.Group(func(r chi.Router) {
				r.Use(s.authenticate)
				r.Post("/logout/", s.logout)
				r.Get("/profile/", s.profile)
				r.Patch("/profile/", s.updateProfile)
				r.Post("/password/change/", s.changePassword)
				r.Post("/email/resend/", s.acknowledge("Verification email sent"))
				r.Post("/phone/verify/", s.acknowledge("Verification code sent"))
				r.Post("/phone/resend/", s.acknowledge("Verification code sent"))
				r.Post("/phone/confirm/", s.confirmPhone)
				r.Post("/account/delete/request/", s.acknowledge("Confirmation email sent"))
				r.Post("/account/delete/confirm/", s.confirmDeletion)
				r.Delete("/account/delete/", s.deleteAccount)
			})
		})

		r.Route("/pickups", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Post("/request/", s.requestPickup)
			r.Get("/my/", s.myPickups)
			r.Get("/stats/", s.pickupStats)

			r.Get("/recurring/", s.listSchedules)
			r.Post("/recurring/", s.createSchedule)
			r.Patch("/recurring/{id}/", s.updateSchedule)
			r.Delete("/recurring/{id}/", s.deleteSchedule)

			r.Get("/{id}/", s.getPickup)
			r.Patch("/{id}/", s.editPickup)
			r.Patch("/{id}/cancel/", s.cancelPickup)
			r.Post("/{id}/photos/", s.uploadPhotos)
			r.Get("/{id}/tracking/", s.trackPickup)
			r.Post("/{id}/rate/", s.ratePickup)
			r.Post("/{id}/contact/", s.contactDriver)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authenticate)
			r.Use(requireAdmin)
			r.Get("/pickups/", s.adminPickups)
			r.Post("/pickups/assign/", s.adminAssign)
			r.Get("/pickups/{id}/", s.adminPickup)
			r.Patch("/pickups/{id}/status/", s.adminStatus)
			r.Get("/drivers/", s.adminDrivers)
			r.Get("/users/", s.adminUsers)
			r.Get("/dashboard/stats/", s.adminDashboard)
		})
	})
	return r
}
