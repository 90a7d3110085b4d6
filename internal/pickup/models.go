package pickup

import (
	"io"
	"time"
)

// Status is the lifecycle state of a pickup.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusAssigned:   "Assigned",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

// Label is the display name of the status.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transitions are expected.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive reports whether a driver is on the job and can be tracked.
func (s Status) IsActive() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// WasteType is the category of collected waste.
type WasteType string

const (
	WasteGeneral    WasteType = "general"
	WasteRecyclable WasteType = "recyclable"
	WasteHazardous  WasteType = "hazardous"
)

var wasteLabels = map[WasteType]string{
	WasteGeneral:    "General Waste",
	WasteRecyclable: "Recyclable",
	WasteHazardous:  "Hazardous",
}

// Label is the display name of the waste type.
func (w WasteType) Label() string {
	if l, ok := wasteLabels[w]; ok {
		return l
	}
	return string(w)
}

// TimeSlot is a part of the day a pickup can be booked for.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

// Frequency is the repeat interval of a recurring pickup.
type Frequency string

const (
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Coordinates is a [longitude, latitude] pair.
type Coordinates [2]float64

func (c Coordinates) Lng() float64 { return c[0] }
func (c Coordinates) Lat() float64 { return c[1] }

// Pickup is a collection request as stored by the backend.
type Pickup struct {
	ID                  string       `json:"id"`
	UserID              string       `json:"user_id"`
	Address             string       `json:"address"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Notes               string       `json:"notes,omitempty"`
	Status              Status       `json:"status"`
	WasteType           WasteType    `json:"waste_type"`
	PickupDate          string       `json:"pickup_date"`
	PickupTime          TimeSlot     `json:"pickup_time,omitempty"`
	EstimatedWeight     float64      `json:"estimated_weight,omitempty"`
	ActualWeight        float64      `json:"actual_weight,omitempty"`
	UrgentPickup        bool         `json:"urgent_pickup,omitempty"`
	RecurringPickup     bool         `json:"recurring_pickup,omitempty"`
	RecurringFrequency  Frequency    `json:"recurring_frequency,omitempty"`
	Photos              []string     `json:"photos,omitempty"`
	SpecialInstructions string       `json:"special_instructions,omitempty"`
	AssignedDriverID    string       `json:"assigned_driver_id,omitempty"`
	DriverName          string       `json:"driver_name,omitempty"`
	DriverPhone         string       `json:"driver_phone,omitempty"`
	EstimatedCost       int          `json:"estimated_cost,omitempty"`
	ActualCost          int          `json:"actual_cost,omitempty"`
	CompletionNotes     string       `json:"completion_notes,omitempty"`
	Rating              *int         `json:"rating,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// CanCancel reports whether the customer may still cancel.
func (p *Pickup) CanCancel() bool {
	return p.Status == StatusPending || p.Status == StatusAssigned
}

// CanRate reports whether the pickup is completed and not yet rated.
func (p *Pickup) CanRate() bool {
	return p.Status == StatusCompleted && p.Rating == nil
}

// ScheduledAt parses PickupDate.
func (p *Pickup) ScheduledAt() (time.Time, error) {
	return ParseDate(p.PickupDate)
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseDate accepts the date formats the backend and the booking form
// produce. Values without a zone are read as UTC.
func ParseDate(s string) (time.Time, error) {
	var err error
	for _, layout := range dateLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// Request is the payload of a new pickup request.
type Request struct {
	Address             string       `json:"address" validate:"trimmed_min=10"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Notes               string       `json:"notes,omitempty" validate:"max=500"`
	PickupDate          string       `json:"pickup_date" validate:"required"`
	PickupTime          TimeSlot     `json:"pickup_time,omitempty" validate:"omitempty,oneof=morning afternoon evening"`
	WasteType           WasteType    `json:"waste_type" validate:"oneof=general recyclable hazardous"`
	EstimatedWeight     float64      `json:"estimated_weight,omitempty" validate:"omitempty,min=1,max=1000"`
	UrgentPickup        bool         `json:"urgent_pickup,omitempty"`
	RecurringPickup     bool         `json:"recurring_pickup,omitempty"`
	RecurringFrequency  Frequency    `json:"recurring_frequency,omitempty" validate:"omitempty,oneof=weekly biweekly monthly"`
	Photos              []string     `json:"photos,omitempty"`
	SpecialInstructions string       `json:"special_instructions,omitempty" validate:"max=500"`
}

// Update is a partial edit of a pickup request. Nil fields are left as is.
type Update struct {
	Address             *string      `json:"address,omitempty" validate:"omitempty,trimmed_min=10"`
	Coordinates         *Coordinates `json:"coordinates,omitempty"`
	Notes               *string      `json:"notes,omitempty" validate:"omitempty,max=500"`
	PickupDate          *string      `json:"pickup_date,omitempty"`
	PickupTime          *TimeSlot    `json:"pickup_time,omitempty" validate:"omitempty,oneof=morning afternoon evening"`
	WasteType           *WasteType   `json:"waste_type,omitempty" validate:"omitempty,oneof=general recyclable hazardous"`
	EstimatedWeight     *float64     `json:"estimated_weight,omitempty" validate:"omitempty,min=1,max=1000"`
	UrgentPickup        *bool        `json:"urgent_pickup,omitempty"`
	SpecialInstructions *string      `json:"special_instructions,omitempty" validate:"omitempty,max=500"`
}

// Response is returned when a pickup is requested.
type Response struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Pickup  Pickup `json:"pickup"`
}

// DriverLocation is the last known position of the assigned driver.
type DriverLocation struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
	// Speed is in km/h.
	Speed *float64 `json:"speed,omitempty"`
	// Heading is in degrees.
	Heading *float64 `json:"heading,omitempty"`
}

// StatusUpdate is one event in a pickup's history.
type StatusUpdate struct {
	ID        string          `json:"id"`
	PickupID  string          `json:"pickup_id"`
	Status    Status          `json:"status"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
	Location  *DriverLocation `json:"location,omitempty"`
	Photos    []string        `json:"photos,omitempty"`
}

// Tracking is the live view of an active pickup.
type Tracking struct {
	PickupID         string          `json:"pickup_id"`
	DriverID         string          `json:"driver_id,omitempty"`
	DriverName       string          `json:"driver_name,omitempty"`
	DriverPhone      string          `json:"driver_phone,omitempty"`
	CurrentLocation  *DriverLocation `json:"current_location,omitempty"`
	EstimatedArrival *time.Time      `json:"estimated_arrival,omitempty"`
	StatusUpdates    []StatusUpdate  `json:"status_updates"`
}

// LatestUpdate returns the most recent status update, if any.
func (t *Tracking) LatestUpdate() (StatusUpdate, bool) {
	if len(t.StatusUpdates) == 0 {
		return StatusUpdate{}, false
	}
	latest := t.StatusUpdates[0]
	for _, u := range t.StatusUpdates[1:] {
		if u.Timestamp.After(latest.Timestamp) {
			latest = u
		}
	}
	return latest, true
}

// Stats is the server-side summary of a customer's pickups.
type Stats struct {
	TotalRequests        int     `json:"total_requests"`
	PendingRequests      int     `json:"pending_requests"`
	ScheduledRequests    int     `json:"scheduled_requests"`
	CompletedRequests    int     `json:"completed_requests"`
	CancelledRequests    int     `json:"cancelled_requests"`
	TotalWeightCollected float64 `json:"total_weight_collected"`
	TotalCostSaved       int     `json:"total_cost_saved"`
	AverageRating        float64 `json:"average_rating"`
}

// Rating is a customer's review of a completed pickup.
type Rating struct {
	Rating   int    `json:"rating" validate:"min=1,max=5"`
	Feedback string `json:"feedback,omitempty" validate:"max=1000"`
}

// Photo is one image attached to a pickup.
type Photo struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// PhotoUploadResponse lists the stored photo URLs.
type PhotoUploadResponse struct {
	Photos []string `json:"photos"`
}

// RecurringSchedule is a repeating pickup booking.
type RecurringSchedule struct {
	ID             string       `json:"id"`
	UserID         string       `json:"user_id"`
	Frequency      Frequency    `json:"frequency"`
	DayOfWeek      *int         `json:"day_of_week,omitempty"`
	DayOfMonth     *int         `json:"day_of_month,omitempty"`
	TimeSlot       TimeSlot     `json:"time_slot"`
	WasteType      WasteType    `json:"waste_type"`
	Address        string       `json:"address"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	IsActive       bool         `json:"is_active"`
	NextPickupDate string       `json:"next_pickup_date"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// ScheduleRequest creates a recurring schedule. Weekly and biweekly
// schedules need DayOfWeek (0 is Sunday); monthly ones need DayOfMonth.
type ScheduleRequest struct {
	Frequency   Frequency    `json:"frequency" validate:"oneof=weekly biweekly monthly"`
	DayOfWeek   *int         `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	DayOfMonth  *int         `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	TimeSlot    TimeSlot     `json:"time_slot" validate:"oneof=morning afternoon evening"`
	WasteType   WasteType    `json:"waste_type" validate:"oneof=general recyclable hazardous"`
	Address     string       `json:"address" validate:"trimmed_min=10"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// ScheduleUpdate edits a recurring schedule.
type ScheduleUpdate struct {
	Frequency  *Frequency `json:"frequency,omitempty" validate:"omitempty,oneof=weekly biweekly monthly"`
	DayOfWeek  *int       `json:"day_of_week,omitempty" validate:"omitempty,min=0,max=6"`
	DayOfMonth *int       `json:"day_of_month,omitempty" validate:"omitempty,min=1,max=31"`
	TimeSlot   *TimeSlot  `json:"time_slot,omitempty" validate:"omitempty,oneof=morning afternoon evening"`
	IsActive   *bool      `json:"is_active,omitempty"`
}
