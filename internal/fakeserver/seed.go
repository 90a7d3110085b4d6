package fakeserver

import (
	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// Demo accounts loaded by Config.Seed.
const (
	AdminEmail    = "admin@ecocollect.cm"
	AdminPassword = "admin123"
	DemoEmail     = "demo@ecocollect.cm"
	DemoPassword  = "demo123"
)

func (s *Server) seed() {
	if _, err := s.store.createUser("EcoCollect Admin", AdminEmail, AdminPassword, auth.RoleAdmin); err != nil {
		s.logger.Warn().Err(err).Msg("seeding admin")
	}
	demo, err := s.store.createUser("Demo Customer", DemoEmail, DemoPassword, auth.RoleUser)
	if err != nil {
		s.logger.Warn().Err(err).Msg("seeding demo customer")
		return
	}

	drivers := []admin.Driver{
		{Name: "Jean Mbarga", Email: "jean@ecocollect.cm", Phone: "+237670000001", Status: admin.DriverActive,
			CurrentLocation: &admin.Location{Lat: 4.0511, Lng: 9.7679}},
		{Name: "Aminatou Bello", Email: "aminatou@ecocollect.cm", Phone: "+237670000002", Status: admin.DriverActive,
			CurrentLocation: &admin.Location{Lat: 4.0614, Lng: 9.7862}},
		{Name: "Paul Nkodo", Email: "paul@ecocollect.cm", Phone: "+237670000003", Status: admin.DriverInactive},
	}
	var first admin.Driver
	for i, d := range drivers {
		d = s.store.addDriver(d)
		if i == 0 {
			first = d
		}
	}

	today := s.store.now().Format("2006-01-02")
	requests := []pickup.Request{
		{Address: "Rue Joss, Bonanjo, Douala", WasteType: pickup.WasteGeneral, PickupDate: today,
			PickupTime: pickup.SlotMorning, EstimatedWeight: 10},
		{Address: "Boulevard de la Liberté, Akwa, Douala", WasteType: pickup.WasteRecyclable, PickupDate: today,
			PickupTime: pickup.SlotAfternoon, EstimatedWeight: 25, UrgentPickup: true},
		{Address: "Carrefour Ndokoti, Douala", WasteType: pickup.WasteHazardous, PickupDate: today,
			PickupTime: pickup.SlotEvening, EstimatedWeight: 5},
	}
	var ids []string
	for _, req := range requests {
		ids = append(ids, s.store.createPickup(demo.ID, req).ID)
	}

	if _, _, err := s.store.assign(ids[1], first.ID); err != nil {
		s.logger.Warn().Err(err).Msg("seeding assignment")
	}
	if _, err := s.store.setStatus(ids[2], pickup.StatusCompleted); err != nil {
		s.logger.Warn().Err(err).Msg("seeding completed pickup")
	}
	s.logger.Info().Int("pickups", len(ids)).Int("drivers", len(drivers)).Msg("demo data loaded")
}
