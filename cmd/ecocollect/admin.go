package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/ecocollect/ecocollect/internal/admin"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/queries"
)

func pageFlags(fs *flag.FlagSet) *admin.PaginationParams {
	p := &admin.PaginationParams{}
	fs.IntVar(&p.Page, "page", 1, "page number")
	fs.IntVar(&p.Limit, "limit", 10, "page size")
	fs.StringVar(&p.Search, "search", "", "search text")
	return p
}

func adminPickupsCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-pickups")
	params := pageFlags(fs)
	fs.StringVar(&params.Status, "status", "", "filter by status")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	page, err := a.admin.AllPickups(params).Get(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(page)
	}
	return printAdminPickups(page)
}

func adminPickupCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-pickup")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := argN(fs, "<id>")
	if err != nil {
		return err
	}
	p, err := a.admin.PickupDetails(ids[0]).Get(ctx)
	if err != nil {
		return err
	}
	return printJSON(p)
}

func adminAssignCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-assign")
	if err := parse(fs, args); err != nil {
		return err
	}
	pos, err := argN(fs, "<pickup>", "<driver>")
	if err != nil {
		return err
	}
	resp, err := a.admin.AssignDriver().Mutate(ctx, queries.Assignment{PickupID: pos[0], DriverID: pos[1]})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s assigned to %s\n", resp.Driver.Name, resp.Pickup.Address)
	return nil
}

func adminStatusCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-status")
	if err := parse(fs, args); err != nil {
		return err
	}
	pos, err := argN(fs, "<pickup>", "<status>")
	if err != nil {
		return err
	}
	status := pickup.Status(pos[1])
	if !status.Valid() {
		return fmt.Errorf("admin-status: unknown status %q", pos[1])
	}
	p, err := a.admin.UpdatePickupStatus().Mutate(ctx, queries.StatusChange{PickupID: pos[0], Status: status})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pickup %s is now %s\n", p.ID, p.Status.Label())
	return nil
}

func adminDriversCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-drivers")
	available := fs.Bool("available", false, "only drivers who can take a pickup")
	if err := parse(fs, args); err != nil {
		return err
	}
	drivers, err := a.admin.AllDrivers().Get(ctx)
	if err != nil {
		return err
	}
	if *available {
		free := drivers[:0:0]
		for _, d := range drivers {
			if d.Available() {
				free = append(free, d)
			}
		}
		drivers = free
	}
	return printDrivers(drivers)
}

func adminUsersCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-users")
	params := pageFlags(fs)
	fs.StringVar(&params.Role, "role", "", "customer, admin or driver")
	if err := parse(fs, args); err != nil {
		return err
	}
	page, err := a.admin.AllUsers(params).Get(ctx)
	if err != nil {
		return err
	}
	return printUsers(page)
}

func adminStatsCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("admin-stats")
	if err := parse(fs, args); err != nil {
		return err
	}
	stats, err := a.admin.DashboardStats().Get(ctx)
	if err != nil {
		return err
	}
	tw := table("PICKUPS", "PENDING", "COMPLETED", "ACTIVE DRIVERS", "USERS")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n",
		stats.TotalPickups, stats.PendingPickups, stats.CompletedPickups, stats.ActiveDrivers, stats.TotalUsers)
	return tw.Flush()
}
