package queries

import (
	"context"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// AdminQueries exposes the administrator queries and mutations.
type AdminQueries struct {
	bindings
	svc *admin.Service
}

// NewAdminQueries binds the admin service.
func NewAdminQueries(svc *admin.Service, cfg Config) *AdminQueries {
	return &AdminQueries{bindings: newBindings(cfg), svc: svc}
}

func (a *AdminQueries) AllPickups(params *admin.PaginationParams) *cache.Query[*admin.PaginatedPickups] {
	return cache.NewQuery(a.cache, cache.QueryOptions[*admin.PaginatedPickups]{
		Key: AdminKeys.Pickups(params),
		Fn: func(ctx context.Context) (*admin.PaginatedPickups, error) {
			return a.svc.GetAllPickups(ctx, params)
		},
		Enabled:   always,
		StaleTime: AdminPickupsStaleTime,
	})
}

func (a *AdminQueries) AllDrivers() *cache.Query[[]admin.Driver] {
	return cache.NewQuery(a.cache, cache.QueryOptions[[]admin.Driver]{
		Key:       AdminKeys.Drivers(),
		Fn:        a.svc.GetAllDrivers,
		Enabled:   always,
		StaleTime: AdminDefaultStaleTime,
	})
}

// DashboardStats polls every five minutes while watched.
func (a *AdminQueries) DashboardStats() *cache.Query[*admin.DashboardStats] {
	return cache.NewQuery(a.cache, cache.QueryOptions[*admin.DashboardStats]{
		Key:             AdminKeys.Stats(),
		Fn:              a.svc.GetDashboardStats,
		Enabled:         always,
		StaleTime:       DashboardStaleTime,
		RefetchInterval: DashboardPollInterval,
	})
}

func (a *AdminQueries) PickupDetails(id string) *cache.Query[*admin.PickupWithUser] {
	return cache.NewQuery(a.cache, cache.QueryOptions[*admin.PickupWithUser]{
		Key: AdminKeys.PickupDetail(id),
		Fn: func(ctx context.Context) (*admin.PickupWithUser, error) {
			return a.svc.GetPickupDetails(ctx, id)
		},
		Enabled:   nonEmpty(id),
		StaleTime: PickupStaleTime,
	})
}

func (a *AdminQueries) AllUsers(params *admin.PaginationParams) *cache.Query[*admin.PaginatedUsers] {
	return cache.NewQuery(a.cache, cache.QueryOptions[*admin.PaginatedUsers]{
		Key: AdminKeys.Users(params),
		Fn: func(ctx context.Context) (*admin.PaginatedUsers, error) {
			return a.svc.GetAllUsers(ctx, params)
		},
		Enabled:   always,
		StaleTime: AdminDefaultStaleTime,
	})
}

// Assignment pairs a pickup with a driver.
type Assignment struct {
	PickupID string
	DriverID string
}

// AssignDriver assigns a driver and refreshes every admin query.
func (a *AdminQueries) AssignDriver() *cache.Mutation[Assignment, *admin.AssignDriverResponse] {
	return cache.NewMutation(cache.MutationOptions[Assignment, *admin.AssignDriverResponse]{
		Fn: func(ctx context.Context, in Assignment) (*admin.AssignDriverResponse, error) {
			return a.svc.AssignDriver(ctx, in.PickupID, in.DriverID)
		},
		OnSuccess: func(ctx context.Context, _ *admin.AssignDriverResponse, _ Assignment) {
			a.inv.Invalidate(AdminKeys.All())
			a.notifier.Success(ctx, "Driver assigned successfully!")
		},
		OnError: func(ctx context.Context, err error, _ Assignment) {
			a.fail(ctx, err, "Failed to assign driver")
		},
	})
}

// StatusChange sets the status of one pickup.
type StatusChange struct {
	PickupID string
	Status   pickup.Status
}

// UpdatePickupStatus changes a status and refreshes every admin query.
func (a *AdminQueries) UpdatePickupStatus() *cache.Mutation[StatusChange, *admin.PickupWithUser] {
	return cache.NewMutation(cache.MutationOptions[StatusChange, *admin.PickupWithUser]{
		Fn: func(ctx context.Context, in StatusChange) (*admin.PickupWithUser, error) {
			return a.svc.UpdatePickupStatus(ctx, in.PickupID, in.Status)
		},
		OnSuccess: func(context.Context, *admin.PickupWithUser, StatusChange) {
			a.inv.Invalidate(AdminKeys.All())
		},
	})
}
