package pickup

import (
	"strconv"
	"time"
)

// Hour returns the two-digit start hour of the slot. Unknown slots fall
// back to the morning.
func (s TimeSlot) Hour() string {
	switch s {
	case SlotAfternoon:
		return "14"
	case SlotEvening:
		return "17"
	default:
		return "09"
	}
}

// ScheduledDateTime combines a booking date ("2006-01-02") and slot into
// the pickup_date value the backend expects, e.g. "2025-03-01T14:00:00".
func ScheduledDateTime(date string, slot TimeSlot) string {
	return date + "T" + slot.Hour() + ":00:00"
}

// RelativeTime describes t relative to now in whole hours or days, like
// "3 hours ago", "In 5 hours" or "In 2 days".
func RelativeTime(t, now time.Time) string {
	hours := int(t.Sub(now).Hours())
	if t.Before(now) && t.Sub(now)%time.Hour != 0 {
		hours--
	}
	switch {
	case hours < 0:
		return strconv.Itoa(-hours) + " hours ago"
	case hours < 24:
		return "In " + strconv.Itoa(hours) + " hours"
	default:
		return "In " + strconv.Itoa(hours/24) + " days"
	}
}
