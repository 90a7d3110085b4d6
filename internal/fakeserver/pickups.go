package fakeserver

import (
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/validation"
)

const maxUploadBytes = 32 << 20

var (
	errNotCancellable = errors.New("This pickup can no longer be cancelled")    //nolint:staticcheck // shown to users
	errNotEditable    = errors.New("Only pending pickups can be edited")        //nolint:staticcheck // shown to users
	errNotRateable    = errors.New("Only completed pickups can be rated once") //nolint:staticcheck // shown to users
)

func (s *Server) requestPickup(w http.ResponseWriter, r *http.Request) {
	var req pickup.Request
	if !decode(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p := s.store.createPickup(sessionFrom(r.Context()).UserID, req)
	s.logger.Info().Str("pickup_id", p.ID).Str("waste_type", string(p.WasteType)).Msg("pickup requested")
	writeData(w, r, http.StatusCreated, pickup.Response{
		ID:      p.ID,
		Message: "Pickup requested successfully",
		Pickup:  p,
	})
}

// listFilter reads the query written by pickup.ListFilter.Values.
func listFilter(r *http.Request) pickup.ListFilter {
	q := r.URL.Query()
	return pickup.ListFilter{
		Status:        pickup.Status(q.Get("status")),
		WasteType:     pickup.WasteType(q.Get("waste_type")),
		DateRange:     pickup.DateRange(q.Get("date_range")),
		Search:        q.Get("search"),
		UrgentOnly:    q.Get("urgent") == "true",
		RecurringOnly: q.Get("recurring") == "true",
	}
}

func (s *Server) myPickups(w http.ResponseWriter, r *http.Request) {
	all := s.store.pickupsOf(sessionFrom(r.Context()).UserID)
	writeData(w, r, http.StatusOK, pickup.Filter(all, listFilter(r), s.store.now()))
}

func (s *Server) pickupStats(w http.ResponseWriter, r *http.Request) {
	var st pickup.Stats
	var rated, ratingSum int
	for _, p := range s.store.pickupsOf(sessionFrom(r.Context()).UserID) {
		st.TotalRequests++
		switch p.Status {
		case pickup.StatusPending:
			st.PendingRequests++
		case pickup.StatusAssigned, pickup.StatusInProgress:
			st.ScheduledRequests++
		case pickup.StatusCompleted:
			st.CompletedRequests++
			st.TotalWeightCollected += p.ActualWeight
			st.TotalCostSaved += p.EstimatedCost - p.ActualCost
		case pickup.StatusCancelled:
			st.CancelledRequests++
		}
		if p.Rating != nil {
			rated++
			ratingSum += *p.Rating
		}
	}
	if rated > 0 {
		st.AverageRating = float64(ratingSum) / float64(rated)
	}
	writeData(w, r, http.StatusOK, st)
}

func (s *Server) getPickup(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.pickup(sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	writeData(w, r, http.StatusOK, p)
}

func (s *Server) editPickup(w http.ResponseWriter, r *http.Request) {
	var u pickup.Update
	if !decode(w, r, &u) {
		return
	}
	if err := validation.Struct(u, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p, err := s.store.updatePickup(sessionFrom(r.Context()), chi.URLParam(r, "id"), func(p *pickup.Pickup) error {
		if p.Status != pickup.StatusPending {
			return errNotEditable
		}
		applyUpdate(p, u)
		return nil
	})
	s.writePickup(w, r, p, err)
}

func applyUpdate(p *pickup.Pickup, u pickup.Update) {
	if u.Address != nil {
		p.Address = strings.TrimSpace(*u.Address)
	}
	if u.Coordinates != nil {
		p.Coordinates = u.Coordinates
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	if u.PickupDate != nil {
		p.PickupDate = *u.PickupDate
	}
	if u.PickupTime != nil {
		p.PickupTime = *u.PickupTime
	}
	if u.WasteType != nil {
		p.WasteType = *u.WasteType
	}
	if u.EstimatedWeight != nil {
		p.EstimatedWeight = *u.EstimatedWeight
	}
	if u.UrgentPickup != nil {
		p.UrgentPickup = *u.UrgentPickup
	}
	if u.SpecialInstructions != nil {
		p.SpecialInstructions = *u.SpecialInstructions
	}
	p.EstimatedCost = pickup.CalculateEstimatedCost(p.WasteType, p.EstimatedWeight, p.UrgentPickup)
}

func (s *Server) cancelPickup(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.updatePickup(sessionFrom(r.Context()), chi.URLParam(r, "id"), func(p *pickup.Pickup) error {
		if !p.CanCancel() {
			return errNotCancellable
		}
		p.Status = pickup.StatusCancelled
		return nil
	})
	if err == nil {
		s.store.releaseDriver(p.AssignedDriverID)
	}
	s.writePickup(w, r, p, err)
}

func (s *Server) ratePickup(w http.ResponseWriter, r *http.Request) {
	var rating pickup.Rating
	if !decode(w, r, &rating) {
		return
	}
	if err := validation.Struct(rating, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	p, err := s.store.updatePickup(sessionFrom(r.Context()), chi.URLParam(r, "id"), func(p *pickup.Pickup) error {
		if !p.CanRate() {
			return errNotRateable
		}
		v := rating.Rating
		p.Rating = &v
		if rating.Feedback != "" {
			p.CompletionNotes = rating.Feedback
		}
		return nil
	})
	s.writePickup(w, r, p, err)
}

func (s *Server) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, r, "Invalid multipart body")
		return
	}
	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		badRequest(w, r, "No photos uploaded")
		return
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, "/media/pickups/"+id+"/"+path.Base(f.Filename))
	}
	_, err := s.store.updatePickup(sessionFrom(r.Context()), id, func(p *pickup.Pickup) error {
		p.Photos = append(p.Photos, urls...)
		return nil
	})
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	writeData(w, r, http.StatusOK, pickup.PhotoUploadResponse{Photos: urls})
}

func (s *Server) trackPickup(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.tracking(sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	writeData(w, r, http.StatusOK, t)
}

func (s *Server) contactDriver(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		badRequest(w, r, "Message is required")
		return
	}
	p, err := s.store.pickup(sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, r, "Pickup not found")
		return
	}
	if p.AssignedDriverID == "" {
		badRequest(w, r, "No driver has been assigned yet")
		return
	}
	s.logger.Info().Str("pickup_id", p.ID).Str("driver_id", p.AssignedDriverID).Msg("driver contacted")
	writeMessage(w, r, "Message sent to driver")
}

func (s *Server) writePickup(w http.ResponseWriter, r *http.Request, p pickup.Pickup, err error) {
	switch {
	case errors.Is(err, errNotFound):
		notFound(w, r, "Pickup not found")
	case err != nil:
		badRequest(w, r, err.Error())
	default:
		writeData(w, r, http.StatusOK, p)
	}
}

func (s *Server) listSchedules(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, s.store.schedulesOf(sessionFrom(r.Context()).UserID))
}

func (s *Server) createSchedule(w http.ResponseWriter, r *http.Request) {
	var req pickup.ScheduleRequest
	if !decode(w, r, &req) {
		return
	}
	if err := validation.Struct(req, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	writeData(w, r, http.StatusCreated, s.store.createSchedule(sessionFrom(r.Context()).UserID, req))
}

func (s *Server) updateSchedule(w http.ResponseWriter, r *http.Request) {
	var u pickup.ScheduleUpdate
	if !decode(w, r, &u) {
		return
	}
	if err := validation.Struct(u, nil); err != nil {
		badRequest(w, r, err.Error())
		return
	}
	rs, err := s.store.updateSchedule(sessionFrom(r.Context()).UserID, chi.URLParam(r, "id"), u)
	if err != nil {
		notFound(w, r, "Schedule not found")
		return
	}
	writeData(w, r, http.StatusOK, rs)
}

func (s *Server) deleteSchedule(w http.ResponseWriter, r *http.Request) {
	if err := s.store.deleteSchedule(sessionFrom(r.Context()).UserID, chi.URLParam(r, "id")); err != nil {
		notFound(w, r, "Schedule not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
