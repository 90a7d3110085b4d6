// Package pickup is the customer-facing pickup API: booking, listing,
// editing, tracking and rating pickups, plus recurring schedules.
package pickup

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/endpoints"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/validation"
)

var requestMessages = validation.Messages{
	"address":              "Address must be at least 10 characters",
	"pickup_date":          "Please select a pickup date",
	"estimated_weight.min": "Please estimate the weight",
	"estimated_weight.max": "Maximum 1000kg per pickup",
	"notes":                "Notes must be less than 500 characters",
	"rating":               "Rating must be between 1 and 5",
}

// ServiceConfig holds configuration for the pickup service.
type ServiceConfig struct {
	Client *httpclient.Client
	Logger zerolog.Logger
}

// Service wraps the pickup endpoints.
type Service struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewService creates a pickup service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{client: cfg.Client, logger: cfg.Logger}
}

// Validate checks a request before it is sent.
func (r Request) Validate() error {
	if err := validation.Struct(r, requestMessages); err != nil {
		return err
	}
	if r.RecurringPickup && r.RecurringFrequency == "" {
		return apierror.Validation("Please choose how often the pickup repeats")
	}
	return nil
}

// RequestPickup books a new pickup.
func (s *Service) RequestPickup(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	resp, err := httpclient.Data[Response](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoints.PickupRequest,
		Body:   req,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("waste_type", string(req.WasteType)).Msg("requesting pickup")
		return nil, err
	}
	s.logger.Info().Str("pickup_id", resp.Pickup.ID).Msg("pickup requested")
	return &resp, nil
}

// GetMyPickups lists the signed-in customer's pickups. A non-nil filter is
// sent as query parameters.
func (s *Service) GetMyPickups(ctx context.Context, filter *ListFilter) ([]Pickup, error) {
	req := httpclient.Request{Method: http.MethodGet, Path: endpoints.PickupMy}
	if filter != nil {
		req.Query = filter.Values()
	}
	pickups, err := httpclient.Data[[]Pickup](ctx, s.client, req)
	if err != nil {
		return nil, err
	}
	if pickups == nil {
		pickups = []Pickup{}
	}
	return pickups, nil
}

// GetPickupByID returns one pickup.
func (s *Service) GetPickupByID(ctx context.Context, id string) (*Pickup, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return s.pickup(ctx, http.MethodGet, endpoints.PickupDetail(id), nil)
}

// UpdatePickup edits a pending pickup.
func (s *Service) UpdatePickup(ctx context.Context, id string, update Update) (*Pickup, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(update, requestMessages); err != nil {
		return nil, err
	}
	return s.pickup(ctx, http.MethodPatch, endpoints.PickupUpdate(id), update)
}

// CancelPickup cancels a pickup.
func (s *Service) CancelPickup(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodPatch,
		Path:   endpoints.PickupCancel(id),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("pickup_id", id).Msg("cancelling pickup")
	}
	return err
}

// UploadPhotos attaches photos to a pickup and returns their URLs.
func (s *Service) UploadPhotos(ctx context.Context, id string, photos []Photo) ([]string, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, apierror.Validation("Please select at least one photo")
	}

	files := make([]httpclient.File, 0, len(photos))
	for _, p := range photos {
		files = append(files, httpclient.File{
			Field:       "photos",
			Name:        p.Name,
			ContentType: p.ContentType,
			Content:     p.Content,
		})
	}

	resp, err := httpclient.Upload[PhotoUploadResponse](ctx, s.client, endpoints.PickupPhotos(id), nil, files)
	if err != nil {
		return nil, err
	}
	return resp.Data.Photos, nil
}

// GetTracking returns the live tracking view of a pickup.
func (s *Service) GetTracking(ctx context.Context, id string) (*Tracking, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	tracking, err := httpclient.Data[Tracking](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.PickupTracking(id),
	})
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}

// RatePickup rates a completed pickup.
func (s *Service) RatePickup(ctx context.Context, id string, rating Rating) (*Pickup, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(rating, requestMessages); err != nil {
		return nil, err
	}
	return s.pickup(ctx, http.MethodPost, endpoints.PickupRate(id), rating)
}

// ContactDriver sends a message to the assigned driver.
func (s *Service) ContactDriver(ctx context.Context, id, message string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if strings.TrimSpace(message) == "" {
		return apierror.Validation("Please enter a message")
	}
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoints.PickupContact(id),
		Body:   map[string]string{"message": message},
	})
	return err
}

// GetStats returns the customer's pickup statistics.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	stats, err := httpclient.Data[Stats](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.PickupStats,
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListRecurringSchedules lists the customer's recurring schedules.
func (s *Service) ListRecurringSchedules(ctx context.Context) ([]RecurringSchedule, error) {
	schedules, err := httpclient.Data[[]RecurringSchedule](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.PickupRecurring,
	})
	if err != nil {
		return nil, err
	}
	if schedules == nil {
		schedules = []RecurringSchedule{}
	}
	return schedules, nil
}

// CreateRecurringSchedule creates a recurring schedule.
func (s *Service) CreateRecurringSchedule(ctx context.Context, req ScheduleRequest) (*RecurringSchedule, error) {
	if err := validation.Struct(req, requestMessages); err != nil {
		return nil, err
	}
	switch {
	case req.Frequency == FrequencyMonthly && req.DayOfMonth == nil:
		return nil, apierror.Validation("Please choose a day of the month")
	case req.Frequency != FrequencyMonthly && req.DayOfWeek == nil:
		return nil, apierror.Validation("Please choose a day of the week")
	}
	return s.schedule(ctx, http.MethodPost, endpoints.PickupRecurring, req)
}

// UpdateRecurringSchedule edits a recurring schedule.
func (s *Service) UpdateRecurringSchedule(ctx context.Context, id string, update ScheduleUpdate) (*RecurringSchedule, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := validation.Struct(update, nil); err != nil {
		return nil, err
	}
	return s.schedule(ctx, http.MethodPatch, endpoints.RecurringDetail(id), update)
}

// DeleteRecurringSchedule removes a recurring schedule.
func (s *Service) DeleteRecurringSchedule(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	_, err := httpclient.Do[struct{}](ctx, s.client, httpclient.Request{
		Method: http.MethodDelete,
		Path:   endpoints.RecurringDetail(id),
	})
	return err
}

func (s *Service) pickup(ctx context.Context, method, path string, body any) (*Pickup, error) {
	p, err := httpclient.Data[Pickup](ctx, s.client, httpclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) schedule(ctx context.Context, method, path string, body any) (*RecurringSchedule, error) {
	rs, err := httpclient.Data[RecurringSchedule](ctx, s.client, httpclient.Request{Method: method, Path: path, Body: body})
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierror.Validation("Pickup ID is required")
	}
	return nil
}
