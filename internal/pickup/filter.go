package pickup

import (
	"net/url"
	"strings"
	"time"
)

// DateRange limits a listing to recent pickups.
type DateRange string

const (
	RangeAll   DateRange = "all"
	RangeWeek  DateRange = "week"
	RangeMonth DateRange = "month"
	RangeYear  DateRange = "year"
)

var rangeDays = map[DateRange]int{
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

// ListFilter narrows a customer's pickups. Zero values and "all" match
// everything.
type ListFilter struct {
	Status        Status    `json:"status,omitempty"`
	WasteType     WasteType `json:"waste_type,omitempty"`
	DateRange     DateRange `json:"date_range,omitempty"`
	Search        string    `json:"search_query,omitempty"`
	UrgentOnly    bool      `json:"urgent_only,omitempty"`
	RecurringOnly bool      `json:"recurring_only,omitempty"`
}

// IsZero reports whether the filter matches everything.
func (f ListFilter) IsZero() bool {
	return (f.Status == "" || f.Status == "all") &&
		(f.WasteType == "" || f.WasteType == "all") &&
		(f.DateRange == "" || f.DateRange == RangeAll) &&
		strings.TrimSpace(f.Search) == "" &&
		!f.UrgentOnly && !f.RecurringOnly
}

// Values encodes the filter as query parameters, omitting neutral fields.
func (f ListFilter) Values() url.Values {
	v := url.Values{}
	if f.Status != "" && f.Status != "all" {
		v.Set("status", string(f.Status))
	}
	if f.WasteType != "" && f.WasteType != "all" {
		v.Set("waste_type", string(f.WasteType))
	}
	if f.DateRange != "" && f.DateRange != RangeAll {
		v.Set("date_range", string(f.DateRange))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		v.Set("search", s)
	}
	if f.UrgentOnly {
		v.Set("urgent", "true")
	}
	if f.RecurringOnly {
		v.Set("recurring", "true")
	}
	return v
}

// Match reports whether p passes the filter at time now. Search is a
// case-insensitive substring match over the address, notes, driver name
// and waste type label. Date ranges count whole days since the pickup
// date; future pickups and unparseable dates always pass.
func (f ListFilter) Match(p *Pickup, now time.Time) bool {
	if f.Status != "" && f.Status != "all" && p.Status != f.Status {
		return false
	}
	if f.WasteType != "" && f.WasteType != "all" && p.WasteType != f.WasteType {
		return false
	}
	if f.UrgentOnly && !p.UrgentPickup {
		return false
	}
	if f.RecurringOnly && !p.RecurringPickup {
		return false
	}

	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		text := strings.ToLower(strings.Join([]string{p.Address, p.Notes, p.DriverName, p.WasteType.Label()}, " "))
		if !strings.Contains(text, q) {
			return false
		}
	}

	if limit, ok := rangeDays[f.DateRange]; ok {
		when, err := p.ScheduledAt()
		if err == nil && daysSince(when, now) > limit {
			return false
		}
	}
	return true
}

func daysSince(t, now time.Time) int {
	d := now.Sub(t)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}

// Filter returns the pickups matching f, preserving order.
func Filter(pickups []Pickup, f ListFilter, now time.Time) []Pickup {
	out := make([]Pickup, 0, len(pickups))
	for i := range pickups {
		if f.Match(&pickups[i], now) {
			out = append(out, pickups[i])
		}
	}
	return out
}

// ActivePickup returns the first pickup that is assigned or in progress.
func ActivePickup(pickups []Pickup) (*Pickup, bool) {
	for i := range pickups {
		if pickups[i].Status.IsActive() {
			return &pickups[i], true
		}
	}
	return nil, false
}

// Summary is the dashboard counter block.
type Summary struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	ThisMonth int `json:"this_month"`
}

// Summarize prefers the server statistics and falls back to counting the
// given pickups. In the fallback, Completed and ThisMonth only count
// pickups dated in the current calendar month.
func Summarize(stats *Stats, pickups []Pickup, now time.Time) Summary {
	if stats != nil {
		return Summary{
			Total:     stats.TotalRequests,
			Pending:   stats.PendingRequests,
			Scheduled: stats.ScheduledRequests,
			Completed: stats.CompletedRequests,
			ThisMonth: stats.CompletedRequests,
		}
	}

	s := Summary{Total: len(pickups)}
	for i := range pickups {
		p := &pickups[i]
		switch p.Status {
		case StatusPending:
			s.Pending++
		case StatusAssigned:
			s.Scheduled++
		}

		when, err := p.ScheduledAt()
		if err != nil || when.Year() != now.Year() || when.Month() != now.Month() {
			continue
		}
		s.ThisMonth++
		if p.Status == StatusCompleted {
			s.Completed++
		}
	}
	return s
}
