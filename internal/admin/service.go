// Package admin wraps the administrator endpoints: pickup oversight,
// driver assignment, users and dashboard statistics.
package admin

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/endpoints"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// ServiceConfig holds configuration for the admin service.
type ServiceConfig struct {
	Client *httpclient.Client
	Logger zerolog.Logger
}

// Service wraps the admin endpoints. Every failure is logged before it is
// returned.
type Service struct {
	client *httpclient.Client
	logger zerolog.Logger
}

// NewService creates an admin service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{client: cfg.Client, logger: cfg.Logger}
}

// GetAllPickups lists pickups across all customers.
func (s *Service) GetAllPickups(ctx context.Context, params *PaginationParams) (*PaginatedPickups, error) {
	req := httpclient.Request{Method: http.MethodGet, Path: endpoints.AdminPickups}
	if params != nil {
		req.Query = params.Values()
	}
	page, err := httpclient.Data[PaginatedPickups](ctx, s.client, req)
	if err != nil {
		return nil, s.fail(err, "fetching all pickups")
	}
	return &page, nil
}

// GetPickupDetails returns one pickup with its requester.
func (s *Service) GetPickupDetails(ctx context.Context, id string) (*PickupWithUser, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apierror.Validation("Pickup ID is required")
	}
	p, err := httpclient.Data[PickupWithUser](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.AdminPickupDetail(id),
	})
	if err != nil {
		return nil, s.fail(err, "fetching pickup details", "pickup_id", id)
	}
	return &p, nil
}

// AssignDriver assigns a driver to a pickup.
func (s *Service) AssignDriver(ctx context.Context, pickupID, driverID string) (*AssignDriverResponse, error) {
	if strings.TrimSpace(pickupID) == "" || strings.TrimSpace(driverID) == "" {
		return nil, apierror.Validation("Pickup and driver are required")
	}
	resp, err := httpclient.Data[AssignDriverResponse](ctx, s.client, httpclient.Request{
		Method: http.MethodPost,
		Path:   endpoints.AdminAssign,
		Body:   map[string]string{"pickup_id": pickupID, "driver_id": driverID},
	})
	if err != nil {
		return nil, s.fail(err, "assigning driver", "pickup_id", pickupID, "driver_id", driverID)
	}
	s.logger.Info().Str("pickup_id", pickupID).Str("driver_id", driverID).Msg("driver assigned")
	return &resp, nil
}

// UpdatePickupStatus sets a pickup's status. The backend decides whether
// the transition is allowed.
func (s *Service) UpdatePickupStatus(ctx context.Context, id string, status pickup.Status) (*PickupWithUser, error) {
	if !status.Valid() {
		return nil, apierror.Validationf("Unknown status %q", status)
	}
	p, err := httpclient.Data[PickupWithUser](ctx, s.client, httpclient.Request{
		Method: http.MethodPatch,
		Path:   endpoints.AdminPickupStatus(id),
		Body:   map[string]pickup.Status{"status": status},
	})
	if err != nil {
		return nil, s.fail(err, "updating pickup status", "pickup_id", id)
	}
	return &p, nil
}

// GetAllDrivers lists drivers.
func (s *Service) GetAllDrivers(ctx context.Context) ([]Driver, error) {
	drivers, err := httpclient.Data[[]Driver](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.AdminDrivers,
	})
	if err != nil {
		return nil, s.fail(err, "fetching all drivers")
	}
	if drivers == nil {
		drivers = []Driver{}
	}
	return drivers, nil
}

// GetAllUsers lists users.
func (s *Service) GetAllUsers(ctx context.Context, params *PaginationParams) (*PaginatedUsers, error) {
	req := httpclient.Request{Method: http.MethodGet, Path: endpoints.AdminUsers}
	if params != nil {
		req.Query = params.Values()
	}
	page, err := httpclient.Data[PaginatedUsers](ctx, s.client, req)
	if err != nil {
		return nil, s.fail(err, "fetching all users")
	}
	return &page, nil
}

// GetDashboardStats returns the admin overview.
func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	stats, err := httpclient.Data[DashboardStats](ctx, s.client, httpclient.Request{
		Method: http.MethodGet,
		Path:   endpoints.AdminDashboardStats,
	})
	if err != nil {
		return nil, s.fail(err, "fetching dashboard stats")
	}
	return &stats, nil
}

func (s *Service) fail(err error, msg string, kv ...string) error {
	event := s.logger.Error().Err(err).Str("kind", apierror.KindOf(err).String())
	for i := 0; i+1 < len(kv); i += 2 {
		event = event.Str(kv[i], kv[i+1])
	}
	event.Msg(msg)
	return err
}
