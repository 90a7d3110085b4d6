package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// out receives command output; logs and notifications go to stderr.
var out io.Writer = os.Stdout

func printJSON(v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func printPickups(pickups []pickup.Pickup) error {
	if len(pickups) == 0 {
		fmt.Fprintln(out, "No pickups found.")
		return nil
	}
	tw := table("ID", "STATUS", "WASTE", "DATE", "ADDRESS", "COST")
	for _, p := range pickups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Status.Label(), p.WasteType.Label(), p.PickupDate, p.Address,
			pickup.FormatFCFA(p.EstimatedCost))
	}
	return tw.Flush()
}

func printPickup(p *pickup.Pickup) {
	fmt.Fprintf(out, "Pickup %s\n", p.ID)
	fmt.Fprintf(out, "  Status:   %s\n", p.Status.Label())
	fmt.Fprintf(out, "  Waste:    %s\n", p.WasteType.Label())
	fmt.Fprintf(out, "  When:     %s %s\n", p.PickupDate, p.PickupTime)
	fmt.Fprintf(out, "  Address:  %s\n", p.Address)
	if p.Coordinates != nil {
		fmt.Fprintf(out, "  Location: %s\n", geocode.FormatCoordinates(*p.Coordinates, 5))
	}
	if p.DriverName != "" {
		fmt.Fprintf(out, "  Driver:   %s %s\n", p.DriverName, p.DriverPhone)
	}
	fmt.Fprintf(out, "  Cost:     %s\n", pickup.FormatFCFA(p.EstimatedCost))
	if p.Rating != nil {
		fmt.Fprintf(out, "  Rating:   %d/5\n", *p.Rating)
	}
	fmt.Fprintf(out, "  Updated:  %s\n", pickup.RelativeTime(p.UpdatedAt, time.Now()))
}

func printTracking(t *pickup.Tracking) {
	fmt.Fprintf(out, "[%s] pickup %s", time.Now().Format(time.Kitchen), t.PickupID)
	if t.DriverName != "" {
		fmt.Fprintf(out, ", driver %s", t.DriverName)
	}
	if loc := t.CurrentLocation; loc != nil {
		fmt.Fprintf(out, " at %s", geocode.FormatCoordinates(pickup.Coordinates{loc.Longitude, loc.Latitude}, 5))
	}
	if t.EstimatedArrival != nil {
		fmt.Fprintf(out, ", ETA %s", t.EstimatedArrival.Format(time.Kitchen))
	}
	if u, ok := t.LatestUpdate(); ok {
		fmt.Fprintf(out, ": %s (%s)", u.Message, u.Status.Label())
	}
	fmt.Fprintln(out)
}

func printAdminPickups(page *admin.PaginatedPickups) error {
	tw := table("ID", "STATUS", "CUSTOMER", "DRIVER", "DATE", "ADDRESS")
	for _, p := range page.Pickups {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Status.Label(), p.User.Name, p.DriverName, p.PickupDate, p.Address)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printPagination(page.Pagination)
	return nil
}

func printPagination(p admin.Pagination) {
	fmt.Fprintf(out, "Page %d of %d (%d total)", p.CurrentPage, p.TotalPages, p.Count)
	if p.HasNext() {
		fmt.Fprint(out, ", more with -page ", p.CurrentPage+1)
	}
	fmt.Fprintln(out)
}

func printDrivers(drivers []admin.Driver) error {
	tw := table("ID", "NAME", "STATUS", "PHONE", "AVAILABLE")
	for _, d := range drivers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\n", d.ID, d.Name, d.Status, d.Phone, d.Available())
	}
	return tw.Flush()
}

func printUsers(page *admin.PaginatedUsers) error {
	tw := table("ID", "NAME", "EMAIL", "ROLE", "SUBSCRIPTION")
	for _, u := range page.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.SubscriptionStatus)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	printPagination(page.Pagination)
	return nil
}

func printSuggestions(found []geocode.Suggestion) error {
	if len(found) == 0 {
		fmt.Fprintln(out, "No addresses found.")
		return nil
	}
	tw := table("ADDRESS", "COORDINATES", "CONFIDENCE")
	for _, s := range found {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.PlaceName, geocode.FormatCoordinates(s.Coordinates, 5), geocode.ConfidenceOf(s.Relevance))
	}
	return tw.Flush()
}
