package queries

import (
	"context"

	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// PickupQueries exposes the customer pickup queries and mutations.
type PickupQueries struct {
	bindings
	svc *pickup.Service
}

// NewPickupQueries binds the pickup service.
func NewPickupQueries(svc *pickup.Service, cfg Config) *PickupQueries {
	return &PickupQueries{bindings: newBindings(cfg), svc: svc}
}

// MyPickups is the customer's pickup list, optionally filtered server-side.
func (p *PickupQueries) MyPickups(filter *pickup.ListFilter) *cache.Query[[]pickup.Pickup] {
	return cache.NewQuery(p.cache, cache.QueryOptions[[]pickup.Pickup]{
		Key: PickupKeys.My(filter),
		Fn: func(ctx context.Context) ([]pickup.Pickup, error) {
			return p.svc.GetMyPickups(ctx, filter)
		},
		Enabled:   always,
		StaleTime: PickupStaleTime,
	})
}

// PickupByID is one pickup; disabled for an empty id.
func (p *PickupQueries) PickupByID(id string) *cache.Query[*pickup.Pickup] {
	return cache.NewQuery(p.cache, cache.QueryOptions[*pickup.Pickup]{
		Key: PickupKeys.Detail(id),
		Fn: func(ctx context.Context) (*pickup.Pickup, error) {
			return p.svc.GetPickupByID(ctx, id)
		},
		Enabled:   nonEmpty(id),
		StaleTime: PickupStaleTime,
	})
}

// Tracking is the live position of a pickup's driver. It is always stale
// and polls every 30 seconds while watched.
func (p *PickupQueries) Tracking(id string) *cache.Query[*pickup.Tracking] {
	return cache.NewQuery(p.cache, cache.QueryOptions[*pickup.Tracking]{
		Key: PickupKeys.Tracking(id),
		Fn: func(ctx context.Context) (*pickup.Tracking, error) {
			return p.svc.GetTracking(ctx, id)
		},
		Enabled:         nonEmpty(id),
		RefetchInterval: TrackingPollInterval,
	})
}

func (p *PickupQueries) PickupStats() *cache.Query[*pickup.Stats] {
	return cache.NewQuery(p.cache, cache.QueryOptions[*pickup.Stats]{
		Key:       PickupKeys.Stats(),
		Fn:        p.svc.GetStats,
		Enabled:   always,
		StaleTime: PickupStaleTime,
	})
}

func (p *PickupQueries) RecurringSchedules() *cache.Query[[]pickup.RecurringSchedule] {
	return cache.NewQuery(p.cache, cache.QueryOptions[[]pickup.RecurringSchedule]{
		Key:       PickupKeys.Recurring(),
		Fn:        p.svc.ListRecurringSchedules,
		Enabled:   always,
		StaleTime: RecurringStaleTime,
	})
}

// RequestPickup books a pickup and refreshes the customer's list.
func (p *PickupQueries) RequestPickup() *cache.Mutation[pickup.Request, *pickup.Response] {
	return cache.NewMutation(cache.MutationOptions[pickup.Request, *pickup.Response]{
		Fn: p.svc.RequestPickup,
		OnSuccess: func(ctx context.Context, _ *pickup.Response, _ pickup.Request) {
			p.inv.Invalidate(PickupKeys.My(nil))
			p.notifier.Success(ctx, "Pickup requested successfully!")
		},
		OnError: func(ctx context.Context, err error, _ pickup.Request) {
			p.fail(ctx, err, "Failed to request pickup")
		},
	})
}

func (p *PickupQueries) touched(id string) {
	p.inv.Invalidate(PickupKeys.Detail(id))
	p.inv.Invalidate(PickupKeys.My(nil))
}

// CancelPickup cancels a pickup by id.
func (p *PickupQueries) CancelPickup() *cache.Mutation[string, struct{}] {
	return cache.NewMutation(cache.MutationOptions[string, struct{}]{
		Fn: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, p.svc.CancelPickup(ctx, id)
		},
		OnSuccess: func(_ context.Context, _ struct{}, id string) { p.touched(id) },
		OnError: func(ctx context.Context, err error, _ string) {
			p.fail(ctx, err, "Failed to cancel pickup")
		},
	})
}

// PickupEdit targets one pickup with a partial update.
type PickupEdit struct {
	ID     string
	Update pickup.Update
}

func (p *PickupQueries) UpdatePickup() *cache.Mutation[PickupEdit, *pickup.Pickup] {
	return cache.NewMutation(cache.MutationOptions[PickupEdit, *pickup.Pickup]{
		Fn: func(ctx context.Context, in PickupEdit) (*pickup.Pickup, error) {
			return p.svc.UpdatePickup(ctx, in.ID, in.Update)
		},
		OnSuccess: func(_ context.Context, _ *pickup.Pickup, in PickupEdit) { p.touched(in.ID) },
		OnError: func(ctx context.Context, err error, _ PickupEdit) {
			p.fail(ctx, err, "Failed to update pickup")
		},
	})
}

// PickupRating rates one completed pickup.
type PickupRating struct {
	ID     string
	Rating pickup.Rating
}

func (p *PickupQueries) RatePickup() *cache.Mutation[PickupRating, *pickup.Pickup] {
	return cache.NewMutation(cache.MutationOptions[PickupRating, *pickup.Pickup]{
		Fn: func(ctx context.Context, in PickupRating) (*pickup.Pickup, error) {
			return p.svc.RatePickup(ctx, in.ID, in.Rating)
		},
		OnSuccess: func(_ context.Context, _ *pickup.Pickup, in PickupRating) { p.touched(in.ID) },
		OnError: func(ctx context.Context, err error, _ PickupRating) {
			p.fail(ctx, err, "Failed to rate pickup")
		},
	})
}

// PhotoUpload attaches photos to one pickup.
type PhotoUpload struct {
	ID     string
	Photos []pickup.Photo
}

func (p *PickupQueries) UploadPhotos() *cache.Mutation[PhotoUpload, []string] {
	return cache.NewMutation(cache.MutationOptions[PhotoUpload, []string]{
		Fn: func(ctx context.Context, in PhotoUpload) ([]string, error) {
			return p.svc.UploadPhotos(ctx, in.ID, in.Photos)
		},
		OnSuccess: func(_ context.Context, _ []string, in PhotoUpload) {
			p.inv.Invalidate(PickupKeys.Detail(in.ID))
		},
		OnError: func(ctx context.Context, err error, _ PhotoUpload) {
			p.fail(ctx, err, "Failed to upload photos")
		},
	})
}

// DriverMessage is a message for the driver of one pickup.
type DriverMessage struct {
	ID      string
	Message string
}

func (p *PickupQueries) ContactDriver() *cache.Mutation[DriverMessage, struct{}] {
	return cache.NewMutation(cache.MutationOptions[DriverMessage, struct{}]{
		Fn: func(ctx context.Context, in DriverMessage) (struct{}, error) {
			return struct{}{}, p.svc.ContactDriver(ctx, in.ID, in.Message)
		},
		OnSuccess: func(ctx context.Context, _ struct{}, _ DriverMessage) {
			p.notifier.Success(ctx, "Message sent to driver")
		},
		OnError: func(ctx context.Context, err error, _ DriverMessage) {
			p.fail(ctx, err, "Failed to contact driver")
		},
	})
}

func (p *PickupQueries) schedulesChanged(context.Context) {
	p.inv.Invalidate(PickupKeys.Recurring())
}

func (p *PickupQueries) CreateRecurringSchedule() *cache.Mutation[pickup.ScheduleRequest, *pickup.RecurringSchedule] {
	return cache.NewMutation(cache.MutationOptions[pickup.ScheduleRequest, *pickup.RecurringSchedule]{
		Fn: p.svc.CreateRecurringSchedule,
		OnSuccess: func(ctx context.Context, _ *pickup.RecurringSchedule, _ pickup.ScheduleRequest) {
			p.schedulesChanged(ctx)
		},
		OnError: func(ctx context.Context, err error, _ pickup.ScheduleRequest) {
			p.fail(ctx, err, "Failed to create schedule")
		},
	})
}

// ScheduleEdit targets one recurring schedule.
type ScheduleEdit struct {
	ID     string
	Update pickup.ScheduleUpdate
}

func (p *PickupQueries) UpdateRecurringSchedule() *cache.Mutation[ScheduleEdit, *pickup.RecurringSchedule] {
	return cache.NewMutation(cache.MutationOptions[ScheduleEdit, *pickup.RecurringSchedule]{
		Fn: func(ctx context.Context, in ScheduleEdit) (*pickup.RecurringSchedule, error) {
			return p.svc.UpdateRecurringSchedule(ctx, in.ID, in.Update)
		},
		OnSuccess: func(ctx context.Context, _ *pickup.RecurringSchedule, _ ScheduleEdit) {
			p.schedulesChanged(ctx)
		},
		OnError: func(ctx context.Context, err error, _ ScheduleEdit) {
			p.fail(ctx, err, "Failed to update schedule")
		},
	})
}

func (p *PickupQueries) DeleteRecurringSchedule() *cache.Mutation[string, struct{}] {
	return cache.NewMutation(cache.MutationOptions[string, struct{}]{
		Fn: func(ctx context.Context, id string) (struct{}, error) {
			return struct{}{}, p.svc.DeleteRecurringSchedule(ctx, id)
		},
		OnSuccess: func(ctx context.Context, _ struct{}, _ string) { p.schedulesChanged(ctx) },
		OnError: func(ctx context.Context, err error, _ string) {
			p.fail(ctx, err, "Failed to delete schedule")
		},
	})
}
