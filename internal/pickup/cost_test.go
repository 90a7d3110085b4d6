package pickup_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ecocollect/ecocollect/internal/pickup"
)

func TestCalculateEstimatedCost(t *testing.T) {
	tests := []struct {
		name   string
		waste  pickup.WasteType
		weight float64
		urgent bool
		want   int
	}{
		{"general", pickup.WasteGeneral, 10, false, 10000},
		{"general urgent", pickup.WasteGeneral, 10, true, 15000},
		{"recyclable", pickup.WasteRecyclable, 12.5, false, 10000},
		{"hazardous urgent", pickup.WasteHazardous, 3, true, 9000},
		{"rounds half up", pickup.WasteGeneral, 0.3125, false, 313},
		{"fractional weight", pickup.WasteGeneral, 1.2346, false, 1235},
		{"unknown type", pickup.WasteType("metal"), 10, false, 0},
		{"zero weight", pickup.WasteGeneral, 0, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pickup.CalculateEstimatedCost(tt.waste, tt.weight, tt.urgent))
		})
	}
}

func TestFormatFCFA(t *testing.T) {
	assert.Equal(t, "0 FCFA", pickup.FormatFCFA(0))
	assert.Equal(t, "950 FCFA", pickup.FormatFCFA(950))
	assert.Equal(t, "15,000 FCFA", pickup.FormatFCFA(15000))
	assert.Equal(t, "1,234,567 FCFA", pickup.FormatFCFA(1234567))
	assert.Equal(t, "-2,000 FCFA", pickup.FormatFCFA(-2000))
}

func TestTimeSlots(t *testing.T) {
	assert.Equal(t, "09", pickup.SlotMorning.Hour())
	assert.Equal(t, "14", pickup.SlotAfternoon.Hour())
	assert.Equal(t, "17", pickup.SlotEvening.Hour())
	assert.Equal(t, "09", pickup.TimeSlot("night").Hour())
	assert.Equal(t, "2025-03-01T14:00:00", pickup.ScheduledDateTime("2025-03-01", pickup.SlotAfternoon))
}

func TestStatusPredicates(t *testing.T) {
	rating := 4
	tests := []struct {
		p         pickup.Pickup
		terminal  bool
		active    bool
		canCancel bool
		canRate   bool
	}{
		{pickup.Pickup{Status: pickup.StatusPending}, false, false, true, false},
		{pickup.Pickup{Status: pickup.StatusAssigned}, false, true, true, false},
		{pickup.Pickup{Status: pickup.StatusInProgress}, false, true, false, false},
		{pickup.Pickup{Status: pickup.StatusCompleted}, true, false, false, true},
		{pickup.Pickup{Status: pickup.StatusCompleted, Rating: &rating}, true, false, false, false},
		{pickup.Pickup{Status: pickup.StatusCancelled}, true, false, false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.p.Status), func(t *testing.T) {
			assert.Equal(t, tt.terminal, tt.p.Status.IsTerminal())
			assert.Equal(t, tt.active, tt.p.Status.IsActive())
			assert.Equal(t, tt.canCancel, tt.p.CanCancel())
			assert.Equal(t, tt.canRate, tt.p.CanRate())
		})
	}
	assert.Equal(t, "In Progress", pickup.StatusInProgress.Label())
	assert.False(t, pickup.Status("lost").Valid())
}
