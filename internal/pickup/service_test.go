package pickup_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/apierror"
	"github.com/ecocollect/ecocollect/internal/httpclient"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/resilience"
)

func newService(t *testing.T, handler http.HandlerFunc) *pickup.Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := httpclient.New(httpclient.Config{
		BaseURL:    server.URL,
		HTTPClient: resilience.NewClient(resilience.Config{Name: "pickup-test"}),
		Logger:     zerolog.Nop(),
	})
	return pickup.NewService(pickup.ServiceConfig{Client: client, Logger: zerolog.Nop()})
}

func reply(t *testing.T, w http.ResponseWriter, data any) {
	t.Helper()
	require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data}))
}

func validRequest() pickup.Request {
	return pickup.Request{
		Address:         "Rue de la Joie, Akwa, Douala",
		PickupDate:      pickup.ScheduledDateTime("2025-03-22", pickup.SlotMorning),
		PickupTime:      pickup.SlotMorning,
		WasteType:       pickup.WasteRecyclable,
		EstimatedWeight: 12,
	}
}

func TestRequestPickup(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/pickups/request/", r.URL.Path)
		var body pickup.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2025-03-22T09:00:00", body.PickupDate)
		reply(t, w, pickup.Response{ID: "p1", Message: "created", Pickup: pickup.Pickup{ID: "p1", Status: pickup.StatusPending}})
	})

	resp, err := svc.RequestPickup(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "p1", resp.Pickup.ID)
	assert.Equal(t, pickup.StatusPending, resp.Pickup.Status)
}

func TestRequestPickup_Validation(t *testing.T) {
	svc := newService(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("request must not be sent")
	})

	tests := []struct {
		name    string
		mutate  func(*pickup.Request)
		message string
	}{
		{"short address", func(r *pickup.Request) { r.Address = "Akwa" }, "Address must be at least 10 characters"},
		{"missing date", func(r *pickup.Request) { r.PickupDate = "" }, "Please select a pickup date"},
		{"too heavy", func(r *pickup.Request) { r.EstimatedWeight = 1200 }, "Maximum 1000kg per pickup"},
		{"too light", func(r *pickup.Request) { r.EstimatedWeight = 0.5 }, "Please estimate the weight"},
		{"long notes", func(r *pickup.Request) { r.Notes = strings.Repeat("n", 501) }, "Notes must be less than 500 characters"},
		{"bad waste type", func(r *pickup.Request) { r.WasteType = "metal" }, "waste_type must be one of: general recyclable hazardous"},
		{"recurring without frequency", func(r *pickup.Request) { r.RecurringPickup = true }, "Please choose how often the pickup repeats"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := svc.RequestPickup(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestGetMyPickups_SendsFilter(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/my/", r.URL.Path)
		assert.Equal(t, "completed", r.URL.Query().Get("status"))
		reply(t, w, []pickup.Pickup{{ID: "p2", Status: pickup.StatusCompleted}})
	})

	got, err := svc.GetMyPickups(context.Background(), &pickup.ListFilter{Status: pickup.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)
}

func TestGetMyPickups_NullIsEmpty(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		reply(t, w, nil)
	})

	got, err := svc.GetMyPickups(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCancelPickup(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/pickups/p1/cancel/", r.URL.Path)
		reply(t, w, nil)
	})
	require.NoError(t, svc.CancelPickup(context.Background(), "p1"))

	err := svc.CancelPickup(context.Background(), " ")
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestGetPickupByID_NotFound(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"message":"Pickup not found","code":"NOT_FOUND"}}`))
	})

	_, err := svc.GetPickupByID(context.Background(), "missing")
	assert.ErrorIs(t, err, apierror.ErrNotFound)
	assert.Equal(t, apierror.MsgNotFound, err.Error())
}

func TestUpdatePickup(t *testing.T) {
	notes := "Ring twice"
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/pickups/p1/", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"notes": "Ring twice"}, body)
		reply(t, w, pickup.Pickup{ID: "p1", Notes: notes})
	})

	got, err := svc.UpdatePickup(context.Background(), "p1", pickup.Update{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
}

func TestUploadPhotos(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/p1/photos/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		files := r.MultipartForm.File["photos"]
		require.Len(t, files, 1)
		f, _ := files[0].Open()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "img", string(data))
		reply(t, w, pickup.PhotoUploadResponse{Photos: []string{"https://cdn.ecocollect.cm/p1/a.jpg"}})
	})

	urls, err := svc.UploadPhotos(context.Background(), "p1", []pickup.Photo{{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("img")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.ecocollect.cm/p1/a.jpg"}, urls)

	_, err = svc.UploadPhotos(context.Background(), "p1", nil)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestRatePickup(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/p2/rate/", r.URL.Path)
		var body pickup.Rating
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		rating := body.Rating
		reply(t, w, pickup.Pickup{ID: "p2", Status: pickup.StatusCompleted, Rating: &rating})
	})

	got, err := svc.RatePickup(context.Background(), "p2", pickup.Rating{Rating: 5, Feedback: "On time"})
	require.NoError(t, err)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 5, *got.Rating)

	_, err = svc.RatePickup(context.Background(), "p2", pickup.Rating{Rating: 6})
	assert.Equal(t, "Rating must be between 1 and 5", err.Error())
}

func TestGetTracking(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/p3/tracking/", r.URL.Path)
		_, _ = w.Write([]byte(`{"success":true,"data":{
			"pickup_id":"p3","driver_name":"Jean",
			"current_location":{"latitude":4.05,"longitude":9.7,"last_updated":"2025-03-20T11:58:00Z","speed":32},
			"status_updates":[{"id":"u1","pickup_id":"p3","status":"in_progress","message":"On the way","timestamp":"2025-03-20T11:30:00Z"}]}}`))
	})

	got, err := svc.GetTracking(context.Background(), "p3")
	require.NoError(t, err)
	assert.Equal(t, "Jean", got.DriverName)
	require.NotNil(t, got.CurrentLocation)
	require.NotNil(t, got.CurrentLocation.Speed)
	assert.InDelta(t, 32.0, *got.CurrentLocation.Speed, 0.001)
	require.Len(t, got.StatusUpdates, 1)
	assert.Equal(t, pickup.StatusInProgress, got.StatusUpdates[0].Status)
}

func TestContactDriver(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/p3/contact/", r.URL.Path)
		reply(t, w, nil)
	})
	require.NoError(t, svc.ContactDriver(context.Background(), "p3", "Gate code 1234"))
	assert.Error(t, svc.ContactDriver(context.Background(), "p3", "   "))
}

func TestRecurringSchedules(t *testing.T) {
	var calls []string
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			reply(t, w, []pickup.RecurringSchedule{{ID: "r1", Frequency: pickup.FrequencyWeekly}})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			reply(t, w, pickup.RecurringSchedule{ID: "r1", Frequency: pickup.FrequencyMonthly})
		}
	})
	ctx := context.Background()

	day := 15
	created, err := svc.CreateRecurringSchedule(ctx, pickup.ScheduleRequest{
		Frequency:  pickup.FrequencyMonthly,
		DayOfMonth: &day,
		TimeSlot:   pickup.SlotEvening,
		WasteType:  pickup.WasteGeneral,
		Address:    "Rue de la Joie, Akwa, Douala",
	})
	require.NoError(t, err)
	assert.Equal(t, "r1", created.ID)

	list, err := svc.ListRecurringSchedules(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	active := false
	_, err = svc.UpdateRecurringSchedule(ctx, "r1", pickup.ScheduleUpdate{IsActive: &active})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRecurringSchedule(ctx, "r1"))

	assert.Equal(t, []string{
		"POST /pickups/recurring/",
		"GET /pickups/recurring/",
		"PATCH /pickups/recurring/r1/",
		"DELETE /pickups/recurring/r1/",
	}, calls)

	_, err = svc.CreateRecurringSchedule(ctx, pickup.ScheduleRequest{
		Frequency: pickup.FrequencyWeekly, TimeSlot: pickup.SlotMorning, WasteType: pickup.WasteGeneral, Address: "Rue de la Joie, Akwa",
	})
	assert.Equal(t, "Please choose a day of the week", err.Error())
}

func TestGetStats(t *testing.T) {
	svc := newService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pickups/stats/", r.URL.Path)
		reply(t, w, pickup.Stats{TotalRequests: 7, AverageRating: 4.5})
	})

	stats, err := svc.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalRequests)
}
