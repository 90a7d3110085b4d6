package fakeserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

const defaultPageSize = 10

// page reads page and limit from the query and returns the bounds of
// the requested window over n items.
func page(r *http.Request, n int) (lo, hi int, p admin.Pagination) {
	current, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if current < 1 {
		current = 1
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = defaultPageSize
	}

	p = admin.Pagination{CurrentPage: current, Count: n, TotalPages: (n + limit - 1) / limit}
	lo = min((current-1)*limit, n)
	hi = min(lo+limit, n)
	return lo, hi, p
}

func matches(query string, fields ...string) bool {
	if query == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

func (s *Server) adminPickups(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var rows []admin.PickupWithUser
	for _, p := range s.store.pickupsOf("") {
		if status != "" && status != "all" && string(p.Status) != status {
			continue
		}
		row := s.store.withUser(p)
		if !matches(search, row.Address, row.User.Name, row.User.Email, row.DriverName) {
			continue
		}
		rows = append(rows, row)
	}

	lo, hi, pg := page(r, len(rows))
	writeData(w, r, http.StatusOK, admin.PaginatedPickups{
		Pickups:    append([]admin.PickupWithUser{}, rows[lo:hi]...),
		Pagination: pg,
	})
}

func (s *Server) adminPickup(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.pickup(sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	writeData(w, r, http.StatusOK, s.store.withUser(p))
}

func (s *Server) adminAssign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PickupID string `json:"pickup_id"`
		DriverID string `json:"driver_id"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.PickupID == "" || body.DriverID == "" {
		badRequest(w, r, "pickup_id and driver_id are required")
		return
	}

	p, d, err := s.store.assign(body.PickupID, body.DriverID)
	switch {
	case errors.Is(err, errNotFound):
		notFound(w, r, "Pickup or driver not found")
		return
	case err != nil:
		badRequest(w, r, err.Error())
		return
	}
	s.logger.Info().Str("pickup_id", p.ID).Str("driver_id", d.ID).Msg("driver assigned")
	writeData(w, r, http.StatusOK, admin.AssignDriverResponse{
		Message: "Driver assigned successfully",
		Pickup:  s.store.withUser(p),
		Driver:  d,
	})
}

func (s *Server) adminStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status pickup.Status `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if !body.Status.Valid() {
		badRequest(w, r, "Unknown status")
		return
	}
	p, err := s.store.setStatus(chi.URLParam(r, "id"), body.Status)
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	writeData(w, r, http.StatusOK, s.store.withUser(p))
}

func (s *Server) adminDrivers(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, s.store.listDrivers())
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	var rows []admin.User
	for _, u := range s.store.listUsers() {
		if role != "" && role != "all" && u.Role != role {
			continue
		}
		if !matches(search, u.Name, u.Email, u.Phone) {
			continue
		}
		rows = append(rows, u)
	}

	lo, hi, pg := page(r, len(rows))
	writeData(w, r, http.StatusOK, admin.PaginatedUsers{
		Users:      append([]admin.User{}, rows[lo:hi]...),
		Pagination: pg,
	})
}

func (s *Server) adminDashboard(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, s.store.dashboard())
}
