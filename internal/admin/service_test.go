package admin_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/resilience"
)

func newService(t *testing.T, handler http.HandlerFunc) *admin.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := httpclient.New(httpclient.Config{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.Config{Name: "admin-test"}),
		Logger:     zerolog.Nop(),
	})
	return admin.NewService(admin.ServiceConfig{Client: client, Logger: zerolog.Nop()})
}

func reply(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}))
}

func TestPaginationParams_Values(t *testing.T) {
	v := admin.PaginationParams{Page: 2, Limit: 20, Status: "all", Search: "akwa"}.Values()
	assert.Equal(t, "2", v.Get("page"))
	assert.Equal(t, "20", v.Get("limit"))
	assert.Equal(t, "akwa", v.Get("search"))
	assert.False(t, v.Has("status"))

	assert.Empty(t, admin.PaginationParams{}.Values())
}

func TestGetAllPickups(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/pickups/", r.URL.Path)
		assert.Equal(t, "pending", r.URL.Query().Get("status"))
		reply(t, w, admin.PaginatedPickups{
			Pickups:    []admin.PickupWithUser{{ID: "p1", Status: pickup.StatusPending, User: admin.Customer{Name: "Ama"}}},
			Pagination: admin.Pagination{CurrentPage: 1, Count: 1, TotalPages: 3},
		})
	})

	page, err := svc.GetAllPickups(context.Background(), &admin.PaginationParams{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, page.Pickups, 1)
	assert.Equal(t, "Ama", page.Pickups[0].User.Name)
	assert.True(t, page.Pagination.HasNext())
}

func TestAssignDriver(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/admin/pickups/assign/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"pickup_id": "p1", "driver_id": "d1"}, body)
		reply(t, w, admin.AssignDriverResponse{
			Message: "assigned",
			Pickup:  admin.PickupWithUser{ID: "p1", Status: pickup.StatusAssigned, AssignedDriverID: "d1"},
			Driver:  admin.Driver{ID: "d1", Status: admin.DriverBusy},
		})
	})

	resp, err := svc.AssignDriver(context.Background(), "p1", "d1")
	require.NoError(t, err)
	assert.Equal(t, pickup.StatusAssigned, resp.Pickup.Status)
	assert.False(t, resp.Driver.Available())
}

func TestAssignDriver_RequiresIDs(t *testing.T) {
	svc := newService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("request must not be sent")
	})
	_, err := svc.AssignDriver(context.Background(), "p1", " ")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestUpdatePickupStatus(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/admin/pickups/p1/status/", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "completed", body["status"])
		reply(t, w, admin.PickupWithUser{ID: "p1", Status: pickup.StatusCompleted})
	})

	p, err := svc.UpdatePickupStatus(context.Background(), "p1", pickup.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, pickup.StatusCompleted, p.Status)

	_, err = svc.UpdatePickupStatus(context.Background(), "p1", "lost")
	assert.ErrorIs(t, err, apierror.ErrValidation)
}

func TestGetAllDrivers_EmptyList(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"data":null}`))
	})

	drivers, err := svc.GetAllDrivers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, drivers)
	assert.Empty(t, drivers)
}

func TestGetDashboardStats_Forbidden(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"message":"admins only","code":"forbidden"}}`))
	})

	_, err := svc.GetDashboardStats(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, apierror.ErrForbidden)
	assert.Equal(t, apierror.MsgForbidden, apierror.Message(err, "Failed to fetch dashboard stats"))
}

func TestGetAllUsers(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/users/", r.URL.Path)
		assert.Equal(t, "driver", r.URL.Query().Get("role"))
		reply(t, w, admin.PaginatedUsers{
			Users:      []admin.User{{ID: "u1", Role: "driver", SubscriptionStatus: admin.SubscriptionActive}},
			Pagination: admin.Pagination{CurrentPage: 1, Count: 1, TotalPages: 1},
		})
	})

	page, err := svc.GetAllUsers(context.Background(), &admin.PaginationParams{Role: "driver"})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.False(t, page.Pagination.HasNext())
}
