package queries

import (
	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

type authKeys struct{}

// AuthKeys builds keys under "auth".
var AuthKeys authKeys

func (authKeys) All() cache.Key           { return cache.NewKey("auth") }
func (authKeys) Profile() cache.Key       { return cache.NewKey("auth", "profile") }
func (authKeys) User(id string) cache.Key { return cache.NewKey("auth", "user", id) }

type pickupKeys struct{}

// PickupKeys builds keys under "pickups".
var PickupKeys pickupKeys

func (pickupKeys) All() cache.Key { return cache.NewKey("pickups") }

// My is the customer's list. A nil or empty filter yields the bare list key,
// which is also the prefix of every filtered variant.
func (pickupKeys) My(filter *pickup.ListFilter) cache.Key {
	if filter != nil && filter.IsZero() {
		filter = nil
	}
	return cache.NewKey("pickups", "my", filter)
}

func (pickupKeys) Detail(id string) cache.Key       { return cache.NewKey("pickups", "detail", id) }
func (pickupKeys) Tracking(id string) cache.Key     { return cache.NewKey("pickups", "tracking", id) }
func (pickupKeys) ByStatus(status string) cache.Key { return cache.NewKey("pickups", "status", status) }
func (pickupKeys) ByUser(userID string) cache.Key   { return cache.NewKey("pickups", "user", userID) }
func (pickupKeys) Stats() cache.Key                 { return cache.NewKey("pickups", "stats") }
func (pickupKeys) Recurring() cache.Key             { return cache.NewKey("pickups", "recurring") }

type adminKeys struct{}

// AdminKeys builds keys under "admin".
var AdminKeys adminKeys

func (adminKeys) All() cache.Key { return cache.NewKey("admin") }

func (adminKeys) Pickups(params *admin.PaginationParams) cache.Key {
	return cache.NewKey("admin", "pickups", params)
}

func (adminKeys) Users(params *admin.PaginationParams) cache.Key {
	return cache.NewKey("admin", "users", params)
}

func (adminKeys) Drivers() cache.Key               { return cache.NewKey("admin", "drivers") }
func (adminKeys) Stats() cache.Key                 { return cache.NewKey("admin", "stats") }
func (adminKeys) PickupDetail(id string) cache.Key { return cache.NewKey("admin", "pickup", id) }
func (adminKeys) Dashboard() cache.Key             { return cache.NewKey("admin", "dashboard") }
