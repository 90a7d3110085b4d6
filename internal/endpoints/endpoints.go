// Package endpoints is the table of backend paths, relative to the API base
// URL. Paths with an identifier are functions; ids are path-escaped.
package endpoints

import "net/url"

// Auth paths.
var Auth = struct {
	Basic struct {
		Login, Logout, Register string
	}
	Google struct {
		Init, Callback, Exchange string
	}
	Email struct {
		Verify, Resend, Confirm string
	}
	Password struct {
		Change, Reset, Confirm string
	}
	Phone struct {
		Verify, Resend, Confirm string
	}
	Profile string
	Token   struct {
		Refresh, Verify string
	}
	Account struct {
		Delete, Confirm, Request string
	}
}{
	Basic: struct{ Login, Logout, Register string }{
		Login:    "/auth/login/",
		Logout:   "/auth/logout/",
		Register: "/auth/register/",
	},
	Google: struct{ Init, Callback, Exchange string }{
		Init:     "/auth/google/init/",
		Callback: "/auth/google/callback/",
		Exchange: "/auth/google/token/",
	},
	Email: struct{ Verify, Resend, Confirm string }{
		Verify:  "/auth/email/verify/",
		Resend:  "/auth/email/resend/",
		Confirm: "/auth/email/confirm/",
	},
	Password: struct{ Change, Reset, Confirm string }{
		Change:  "/auth/password/change/",
		Reset:   "/auth/password/reset/",
		Confirm: "/auth/password/reset/confirm/",
	},
	Phone: struct{ Verify, Resend, Confirm string }{
		Verify:  "/auth/phone/verify/",
		Resend:  "/auth/phone/resend/",
		Confirm: "/auth/phone/confirm/",
	},
	Profile: "/auth/profile/",
	Token: struct{ Refresh, Verify string }{
		Refresh: "/auth/token/refresh/",
		Verify:  "/auth/token/verify/",
	},
	Account: struct{ Delete, Confirm, Request string }{
		Delete:  "/auth/account/delete/",
		Confirm: "/auth/account/delete/confirm/",
		Request: "/auth/account/delete/request/",
	},
}

// Pickup paths.
const (
	PickupRequest   = "/pickups/request/"
	PickupMy        = "/pickups/my/"
	PickupStats     = "/pickups/stats/"
	PickupRecurring = "/pickups/recurring/"
)

// PickupDetail is the path of one pickup. Also used for updates.
func PickupDetail(id string) string {
	return "/pickups/" + url.PathEscape(id) + "/"
}

// PickupUpdate is the PATCH target for editing a pickup.
func PickupUpdate(id string) string {
	return PickupDetail(id)
}

func PickupCancel(id string) string {
	return PickupDetail(id) + "cancel/"
}

func PickupPhotos(id string) string {
	return PickupDetail(id) + "photos/"
}

func PickupTracking(id string) string {
	return PickupDetail(id) + "tracking/"
}

func PickupRate(id string) string {
	return PickupDetail(id) + "rate/"
}

func PickupContact(id string) string {
	return PickupDetail(id) + "contact/"
}

func RecurringDetail(id string) string {
	return PickupRecurring + url.PathEscape(id) + "/"
}

// Admin paths.
const (
	AdminPickups        = "/admin/pickups/"
	AdminAssign         = "/admin/pickups/assign/"
	AdminDrivers        = "/admin/drivers/"
	AdminUsers          = "/admin/users/"
	AdminDashboardStats = "/admin/dashboard/stats/"
)

func AdminPickupDetail(id string) string {
	return AdminPickups + url.PathEscape(id) + "/"
}

func AdminPickupStatus(id string) string {
	return AdminPickupDetail(id) + "status/"
}
