package fakeserver

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

var (
	errNotFound    = errors.New("not found")
	errEmailTaken  = errors.New("A user with this email already exists") //nolint:staticcheck // shown to users
	errBadPassword = errors.New("Invalid email or password")             //nolint:staticcheck // shown to users
)

// account is a stored user.
type account struct {
	profile      auth.UserProfile
	password     string
	subscription admin.SubscriptionStatus
}

// store is the in-memory backend state. All methods are safe for
// concurrent use.
type store struct {
	now func() time.Time

	mu        sync.RWMutex
	users     map[string]*account
	byEmail   map[string]string
	pickups   map[string]*pickup.Pickup
	order     []string
	updates   map[string][]pickup.StatusUpdate
	drivers   map[string]*admin.Driver
	schedules map[string]*pickup.RecurringSchedule
}

func newStore(now func() time.Time) *store {
	return &store{
		now:       now,
		users:     make(map[string]*account),
		byEmail:   make(map[string]string),
		pickups:   make(map[string]*pickup.Pickup),
		updates:   make(map[string][]pickup.StatusUpdate),
		drivers:   make(map[string]*admin.Driver),
		schedules: make(map[string]*pickup.RecurringSchedule),
	}
}

func newID() string {
	return uuid.NewString()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *store) createUser(name, email, password string, role auth.Role) (auth.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	if _, ok := s.byEmail[key]; ok {
		return auth.UserProfile{}, errEmailTaken
	}
	now := s.now()
	a := &account{
		profile: auth.UserProfile{
			ID:        newID(),
			Name:      strings.TrimSpace(name),
			Email:     key,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password:     password,
		subscription: admin.SubscriptionActive,
	}
	s.users[a.profile.ID] = a
	s.byEmail[key] = a.profile.ID
	return a.profile, nil
}

// login checks credentials and returns the matching profile.
func (s *store) login(email, password string) (auth.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[s.byEmail[normalizeEmail(email)]]
	if !ok || a.password != password {
		return auth.UserProfile{}, errBadPassword
	}
	return a.profile, nil
}

// userByEmail returns the user with the address, creating a customer
// account when none exists.
func (s *store) userByEmail(name, email string) (auth.UserProfile, error) {
	s.mu.RLock()
	a, ok := s.users[s.byEmail[normalizeEmail(email)]]
	s.mu.RUnlock()
	if ok {
		return a.profile, nil
	}
	return s.createUser(name, email, randomToken(12), auth.RoleUser)
}

func (s *store) user(id string) (auth.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[id]
	if !ok {
		return auth.UserProfile{}, errNotFound
	}
	return a.profile, nil
}

func (s *store) checkPassword(id, password string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[id]
	return ok && a.password == password
}

func (s *store) setPassword(id, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return errNotFound
	}
	a.password = password
	return nil
}

func (s *store) updateProfile(id string, u auth.ProfileUpdate) (auth.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.users[id]
	if !ok {
		return auth.UserProfile{}, errNotFound
	}
	if u.Name != nil {
		a.profile.Name = strings.TrimSpace(*u.Name)
	}
	if u.Phone != nil {
		a.profile.Phone = *u.Phone
	}
	if u.Address != nil {
		a.profile.Address = *u.Address
	}
	a.profile.UpdatedAt = s.now()
	return a.profile, nil
}

func (s *store) deleteUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.users[id]; ok {
		delete(s.byEmail, a.profile.Email)
		delete(s.users, id)
	}
}

func (s *store) createPickup(userID string, req pickup.Request) pickup.Pickup {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	p := &pickup.Pickup{
		ID:                  newID(),
		UserID:              userID,
		Address:             strings.TrimSpace(req.Address),
		Coordinates:         req.Coordinates,
		Notes:               req.Notes,
		Status:              pickup.StatusPending,
		WasteType:           req.WasteType,
		PickupDate:          req.PickupDate,
		PickupTime:          req.PickupTime,
		EstimatedWeight:     req.EstimatedWeight,
		UrgentPickup:        req.UrgentPickup,
		RecurringPickup:     req.RecurringPickup,
		RecurringFrequency:  req.RecurringFrequency,
		Photos:              req.Photos,
		SpecialInstructions: req.SpecialInstructions,
		EstimatedCost:       pickup.CalculateEstimatedCost(req.WasteType, req.EstimatedWeight, req.UrgentPickup),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.pickups[p.ID] = p
	s.order = append(s.order, p.ID)
	s.recordLocked(p, "Pickup requested", nil)
	return *p
}

// recordLocked appends a status update. s.mu must be held.
func (s *store) recordLocked(p *pickup.Pickup, message string, loc *pickup.DriverLocation) {
	s.updates[p.ID] = append(s.updates[p.ID], pickup.StatusUpdate{
		ID:        newID(),
		PickupID:  p.ID,
		Status:    p.Status,
		Message:   message,
		Timestamp: s.now(),
		Location:  loc,
	})
}

// pickupsOf returns a user's pickups, newest first. An empty userID
// returns every pickup.
func (s *store) pickupsOf(userID string) []pickup.Pickup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pickup.Pickup, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		p := s.pickups[s.order[i]]
		if userID == "" || p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out
}

// pickup returns one pickup visible to the caller. Admins see all.
func (s *store) pickup(caller session, id string) (pickup.Pickup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pickups[id]
	if !ok || (caller.Role != string(auth.RoleAdmin) && p.UserID != caller.UserID) {
		return pickup.Pickup{}, errNotFound
	}
	return *p, nil
}

// updatePickup applies fn to a pickup visible to the caller. An error from
// fn leaves the pickup unchanged.
func (s *store) updatePickup(caller session, id string, fn func(p *pickup.Pickup) error) (pickup.Pickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[id]
	if !ok || (caller.Role != string(auth.RoleAdmin) && p.UserID != caller.UserID) {
		return pickup.Pickup{}, errNotFound
	}
	next := *p
	if err := fn(&next); err != nil {
		return pickup.Pickup{}, err
	}
	statusChanged := next.Status != p.Status
	next.UpdatedAt = s.now()
	*p = next
	if statusChanged {
		s.recordLocked(p, "Status changed to "+p.Status.Label(), s.driverLocationLocked(p.AssignedDriverID))
	}
	return *p, nil
}

func (s *store) tracking(caller session, id string) (pickup.Tracking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.pickups[id]
	if !ok || (caller.Role != string(auth.RoleAdmin) && p.UserID != caller.UserID) {
		return pickup.Tracking{}, errNotFound
	}
	t := pickup.Tracking{
		PickupID:      p.ID,
		DriverID:      p.AssignedDriverID,
		DriverName:    p.DriverName,
		DriverPhone:   p.DriverPhone,
		StatusUpdates: append([]pickup.StatusUpdate{}, s.updates[p.ID]...),
	}
	if p.Status.IsActive() {
		t.CurrentLocation = s.driverLocationLocked(p.AssignedDriverID)
		if t.CurrentLocation != nil {
			eta := s.now().Add(20 * time.Minute)
			t.EstimatedArrival = &eta
		}
	}
	return t, nil
}

func (s *store) driverLocationLocked(driverID string) *pickup.DriverLocation {
	d, ok := s.drivers[driverID]
	if !ok || d.CurrentLocation == nil {
		return nil
	}
	return &pickup.DriverLocation{
		Latitude:    d.CurrentLocation.Lat,
		Longitude:   d.CurrentLocation.Lng,
		LastUpdated: s.now(),
	}
}

func (s *store) addDriver(d admin.Driver) admin.Driver {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == "" {
		d.ID = newID()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.drivers[d.ID] = &d
	return d
}

func (s *store) listDrivers() []admin.Driver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]admin.Driver, 0, len(s.drivers))
	for _, d := range s.drivers {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// assign puts a driver on a pickup and marks the driver busy.
func (s *store) assign(pickupID, driverID string) (pickup.Pickup, admin.Driver, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[pickupID]
	if !ok {
		return pickup.Pickup{}, admin.Driver{}, errNotFound
	}
	d, ok := s.drivers[driverID]
	if !ok {
		return pickup.Pickup{}, admin.Driver{}, errNotFound
	}
	if p.Status.IsTerminal() {
		return pickup.Pickup{}, admin.Driver{}, errors.New("Pickup is already closed") //nolint:staticcheck // shown to users
	}
	if d.Status == admin.DriverInactive {
		return pickup.Pickup{}, admin.Driver{}, errors.New("Driver is not available") //nolint:staticcheck // shown to users
	}

	if prev, ok := s.drivers[p.AssignedDriverID]; ok && prev.ID != d.ID {
		prev.Status = admin.DriverActive
	}
	p.AssignedDriverID = d.ID
	p.DriverName = d.Name
	p.DriverPhone = d.Phone
	p.Status = pickup.StatusAssigned
	p.UpdatedAt = s.now()
	d.Status = admin.DriverBusy
	s.recordLocked(p, "Driver "+d.Name+" assigned", s.driverLocationLocked(d.ID))
	return *p, *d, nil
}

func (s *store) releaseDriver(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drivers[id]; ok && d.Status == admin.DriverBusy {
		d.Status = admin.DriverActive
	}
}

// setStatus moves a pickup to status and frees its driver once closed.
func (s *store) setStatus(id string, status pickup.Status) (pickup.Pickup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[id]
	if !ok {
		return pickup.Pickup{}, errNotFound
	}
	if p.Status == status {
		return *p, nil
	}
	p.Status = status
	p.UpdatedAt = s.now()
	if status == pickup.StatusCompleted && p.ActualCost == 0 {
		p.ActualWeight = p.EstimatedWeight
		p.ActualCost = p.EstimatedCost
	}
	if status.IsTerminal() {
		if d, ok := s.drivers[p.AssignedDriverID]; ok {
			d.Status = admin.DriverActive
		}
	}
	s.recordLocked(p, "Status changed to "+status.Label(), s.driverLocationLocked(p.AssignedDriverID))
	return *p, nil
}

func (s *store) withUser(p pickup.Pickup) admin.PickupWithUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := admin.PickupWithUser{
		ID:               p.ID,
		UserID:           p.UserID,
		Address:          p.Address,
		Notes:            p.Notes,
		Status:           p.Status,
		WasteType:        p.WasteType,
		PickupDate:       p.PickupDate,
		AssignedDriverID: p.AssignedDriverID,
		DriverName:       p.DriverName,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if a, ok := s.users[p.UserID]; ok {
		out.User = admin.Customer{ID: a.profile.ID, Name: a.profile.Name, Email: a.profile.Email, Phone: a.profile.Phone}
	}
	return out
}

func (s *store) listUsers() []admin.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]admin.User, 0, len(s.users))
	for _, a := range s.users {
		out = append(out, admin.User{
			ID:                 a.profile.ID,
			Name:               a.profile.Name,
			Email:              a.profile.Email,
			Phone:              a.profile.Phone,
			Role:               string(a.profile.Role),
			SubscriptionStatus: a.subscription,
			CreatedAt:          a.profile.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *store) dashboard() admin.DashboardStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st admin.DashboardStats
	for _, p := range s.pickups {
		st.TotalPickups++
		switch p.Status {
		case pickup.StatusPending:
			st.PendingPickups++
		case pickup.StatusCompleted:
			st.CompletedPickups++
		}
	}
	for _, d := range s.drivers {
		if d.Status != admin.DriverInactive {
			st.ActiveDrivers++
		}
	}
	st.TotalUsers = len(s.users)
	return st
}

func (s *store) schedulesOf(userID string) []pickup.RecurringSchedule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]pickup.RecurringSchedule, 0)
	for _, rs := range s.schedules {
		if rs.UserID == userID {
			out = append(out, *rs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *store) createSchedule(userID string, req pickup.ScheduleRequest) pickup.RecurringSchedule {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	rs := &pickup.RecurringSchedule{
		ID:          newID(),
		UserID:      userID,
		Frequency:   req.Frequency,
		DayOfWeek:   req.DayOfWeek,
		DayOfMonth:  req.DayOfMonth,
		TimeSlot:    req.TimeSlot,
		WasteType:   req.WasteType,
		Address:     strings.TrimSpace(req.Address),
		Coordinates: req.Coordinates,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rs.NextPickupDate = nextOccurrence(rs, now)
	s.schedules[rs.ID] = rs
	return *rs
}

func (s *store) updateSchedule(userID, id string, u pickup.ScheduleUpdate) (pickup.RecurringSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.schedules[id]
	if !ok || rs.UserID != userID {
		return pickup.RecurringSchedule{}, errNotFound
	}
	if u.Frequency != nil {
		rs.Frequency = *u.Frequency
	}
	if u.DayOfWeek != nil {
		rs.DayOfWeek = u.DayOfWeek
	}
	if u.DayOfMonth != nil {
		rs.DayOfMonth = u.DayOfMonth
	}
	if u.TimeSlot != nil {
		rs.TimeSlot = *u.TimeSlot
	}
	if u.IsActive != nil {
		rs.IsActive = *u.IsActive
	}
	now := s.now()
	rs.UpdatedAt = now
	rs.NextPickupDate = nextOccurrence(rs, now)
	return *rs, nil
}

func (s *store) deleteSchedule(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.schedules[id]
	if !ok || rs.UserID != userID {
		return errNotFound
	}
	delete(s.schedules, id)
	return nil
}

// nextOccurrence is the first date after now matching the schedule, as
// YYYY-MM-DD.
func nextOccurrence(rs *pickup.RecurringSchedule, now time.Time) string {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	switch {
	case rs.Frequency == pickup.FrequencyMonthly && rs.DayOfMonth != nil:
		for i := 0; i < 62; i++ {
			if day.Day() == *rs.DayOfMonth {
				break
			}
			day = day.AddDate(0, 0, 1)
		}
	case rs.DayOfWeek != nil:
		for int(day.Weekday()) != *rs.DayOfWeek {
			day = day.AddDate(0, 0, 1)
		}
	}
	return day.Format("2006-01-02")
}
