package admin

import (
	"net/url"
	"strconv"
	"time"

	"github.com/ecocollect/ecocollect/internal/pickup"
)

// DriverStatus is a driver's availability.
type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverInactive DriverStatus = "inactive"
	DriverBusy     DriverStatus = "busy"
)

// SubscriptionStatus is a customer's plan state.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionExpired  SubscriptionStatus = "expired"
)

// Location is a driver position.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Driver is a collection driver.
type Driver struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone"`
	Status          DriverStatus `json:"status"`
	CurrentLocation *Location    `json:"current_location,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// Available reports whether the driver can take a new pickup.
func (d *Driver) Available() bool {
	return d.Status == DriverActive
}

// User is a platform account as seen by administrators.
type User struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Email              string             `json:"email"`
	Phone              string             `json:"phone,omitempty"`
	Role               string             `json:"role"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status"`
	CreatedAt          time.Time          `json:"created_at"`
}

// Customer is the requester embedded in admin pickup views.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// PickupWithUser is a pickup together with its requester.
type PickupWithUser struct {
	ID               string           `json:"id"`
	UserID           string           `json:"user_id"`
	Address          string           `json:"address"`
	Notes            string           `json:"notes,omitempty"`
	Status           pickup.Status    `json:"status"`
	WasteType        pickup.WasteType `json:"waste_type"`
	PickupDate       string           `json:"pickup_date"`
	AssignedDriverID string           `json:"assigned_driver_id,omitempty"`
	DriverName       string           `json:"driver_name,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	User             Customer         `json:"user"`
}

// AssignDriverResponse is returned after an assignment.
type AssignDriverResponse struct {
	Message string         `json:"message"`
	Pickup  PickupWithUser `json:"pickup"`
	Driver  Driver         `json:"driver"`
}

// DashboardStats is the admin overview.
type DashboardStats struct {
	TotalPickups     int `json:"total_pickups"`
	PendingPickups   int `json:"pending_pickups"`
	CompletedPickups int `json:"completed_pickups"`
	ActiveDrivers    int `json:"active_drivers"`
	TotalUsers       int `json:"total_users"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	Count       int `json:"count"`
	TotalPages  int `json:"total_pages"`
}

// HasNext reports whether another page follows.
func (p Pagination) HasNext() bool {
	return p.CurrentPage < p.TotalPages
}

// PaginatedPickups is one page of pickups.
type PaginatedPickups struct {
	Pickups    []PickupWithUser `json:"pickups"`
	Pagination Pagination       `json:"pagination"`
}

// PaginatedUsers is one page of users.
type PaginatedUsers struct {
	Users      []User     `json:"users"`
	Pagination Pagination `json:"pagination"`
}

// PaginationParams selects a page and optional filters. Zero fields are
// omitted from the query.
type PaginationParams struct {
	Page   int    `json:"page,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Status string `json:"status,omitempty"`
	Search string `json:"search,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Values encodes the params as query parameters.
func (p PaginationParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Status != "" && p.Status != "all" {
		v.Set("status", p.Status)
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Role != "" && p.Role != "all" {
		v.Set("role", p.Role)
	}
	return v
}
