package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ecocollect/ecocollect/internal/cache"
	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/notify"
	"github.com/ecocollect/ecocollect/internal/pickup"
	"github.com/ecocollect/ecocollect/internal/queries"
)

func pickupsCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("pickups")
	var f pickup.ListFilter
	status := fs.String("status", "", "pending, assigned, in_progress, completed or cancelled")
	waste := fs.String("waste", "", "general, recyclable or hazardous")
	dateRange := fs.String("range", "", "week, month or year")
	fs.StringVar(&f.Search, "search", "", "match address or notes")
	fs.BoolVar(&f.UrgentOnly, "urgent", false, "urgent pickups only")
	fs.BoolVar(&f.RecurringOnly, "recurring", false, "recurring pickups only")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	f.Status = pickup.Status(*status)
	f.WasteType = pickup.WasteType(*waste)
	f.DateRange = pickup.DateRange(*dateRange)

	var filter *pickup.ListFilter
	if !f.IsZero() {
		filter = &f
	}
	list, err := a.pickups.MyPickups(filter).Get(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(list)
	}
	if active, ok := pickup.ActivePickup(list); ok {
		fmt.Fprintf(out, "Active: %s (%s)\n\n", active.Address, active.Status.Label())
	}
	return printPickups(list)
}

func pickupCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("pickup")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := argN(fs, "<id>")
	if err != nil {
		return err
	}
	p, err := a.pickups.PickupByID(ids[0]).Get(ctx)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(p)
	}
	printPickup(p)
	return nil
}

func requestCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("request")
	var req pickup.Request
	fs.StringVar(&req.Address, "address", "", "pickup address")
	date := fs.String("date", time.Now().AddDate(0, 0, 1).Format("2006-01-02"), "pickup day")
	slot := fs.String("time", string(pickup.SlotMorning), "morning, afternoon or evening")
	waste := fs.String("waste", string(pickup.WasteGeneral), "general, recyclable or hazardous")
	fs.Float64Var(&req.EstimatedWeight, "weight", 0, "estimated weight in kg")
	fs.StringVar(&req.Notes, "notes", "", "notes for the driver")
	fs.StringVar(&req.SpecialInstructions, "instructions", "", "special instructions")
	fs.BoolVar(&req.UrgentPickup, "urgent", false, "urgent pickup")
	frequency := fs.String("repeat", "", "weekly, biweekly or monthly")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	if err := parse(fs, args); err != nil {
		return err
	}

	req.PickupTime = pickup.TimeSlot(*slot)
	req.PickupDate = pickup.ScheduledDateTime(*date, req.PickupTime)
	req.WasteType = pickup.WasteType(*waste)
	if *frequency != "" {
		req.RecurringPickup = true
		req.RecurringFrequency = pickup.Frequency(*frequency)
	}
	if *lat != 0 || *lng != 0 {
		c := pickup.Coordinates{*lng, *lat}
		if !geocode.WithinCameroon(c) {
			return fmt.Errorf("%s is outside Cameroon", geocode.FormatCoordinates(c, 5))
		}
		req.Coordinates = &c
	}

	if cost := pickup.CalculateEstimatedCost(req.WasteType, req.EstimatedWeight, req.UrgentPickup); cost > 0 {
		fmt.Fprintf(out, "Estimated cost: %s\n", pickup.FormatFCFA(cost))
	}
	resp, err := a.pickups.RequestPickup().Mutate(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Pickup %s requested for %s\n", resp.ID, resp.Pickup.PickupDate)
	return nil
}

func editCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("edit")
	address := fs.String("address", "", "new address")
	notes := fs.String("notes", "", "new notes")
	date := fs.String("date", "", "new pickup day")
	slot := fs.String("time", "", "new time slot")
	weight := fs.Float64("weight", 0, "new estimated weight in kg")
	urgent := fs.Bool("urgent", false, "urgent pickup")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := argN(fs, "<id>")
	if err != nil {
		return err
	}

	var update pickup.Update
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			update.Address = address
		case "notes":
			update.Notes = notes
		case "time":
			ts := pickup.TimeSlot(*slot)
			update.PickupTime = &ts
		case "weight":
			update.EstimatedWeight = weight
		case "urgent":
			update.UrgentPickup = urgent
		}
	})
	if *date != "" {
		ts := pickup.SlotMorning
		if update.PickupTime != nil {
			ts = *update.PickupTime
		}
		when := pickup.ScheduledDateTime(*date, ts)
		update.PickupDate = &when
	}

	p, err := a.pickups.UpdatePickup().Mutate(ctx, queries.PickupEdit{ID: ids[0], Update: update})
	if err != nil {
		return err
	}
	printPickup(p)
	return nil
}

func cancelCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("cancel")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := argN(fs, "<id>")
	if err != nil {
		return err
	}
	_, err = a.pickups.CancelPickup().Mutate(ctx, ids[0])
	return err
}

func rateCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("rate")
	feedback := fs.String("feedback", "", "comments on the collection")
	if err := parse(fs, args); err != nil {
		return err
	}
	pos, err := argN(fs, "<id>", "<stars>")
	if err != nil {
		return err
	}
	stars, err := strconv.Atoi(pos[1])
	if err != nil {
		return fmt.Errorf("rate: stars must be a number: %w", err)
	}
	p, err := a.pickups.RatePickup().Mutate(ctx, queries.PickupRating{
		ID:     pos[0],
		Rating: pickup.Rating{Rating: stars, Feedback: *feedback},
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Rated pickup %s %d/5\n", p.ID, stars)
	return nil
}

func contactCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("contact")
	if err := parse(fs, args); err != nil {
		return err
	}
	pos, err := argN(fs, "<id>", "<message>")
	if err != nil {
		return err
	}
	_, err = a.pickups.ContactDriver().Mutate(ctx, queries.DriverMessage{ID: pos[0], Message: pos[1]})
	return err
}

func photosCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("photos")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("photos: expected <id> <file>...")
	}

	var photos []pickup.Photo
	for _, name := range fs.Args()[1:] {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		photos = append(photos, pickup.Photo{
			Name:        filepath.Base(name),
			ContentType: mime.TypeByExtension(filepath.Ext(name)),
			Content:     f,
		})
	}

	urls, err := a.pickups.UploadPhotos().Mutate(ctx, queries.PhotoUpload{ID: fs.Arg(0), Photos: photos})
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(out, u)
	}
	return nil
}

// trackCmd prints every tracking poll until the pickup closes or the
// command is interrupted.
func trackCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("track")
	every := fs.Duration("every", 0, "poll interval (default 30s)")
	if err := parse(fs, args); err != nil {
		return err
	}
	ids, err := argN(fs, "<id>")
	if err != nil {
		return err
	}

	query := a.pickups.Tracking(ids[0])
	if *every > 0 {
		opts := query.Options()
		opts.RefetchInterval = *every
		query = cache.NewQuery(a.cache, opts)
	}
	w := query.Watch(ctx)
	defer w.Stop()

	for res := range w.Updates() {
		if res.Err != nil {
			a.log.Warn().Err(res.Err).Msg("tracking poll failed")
			continue
		}
		printTracking(res.Data)
		if u, ok := res.Data.LatestUpdate(); ok && u.Status.IsTerminal() {
			return nil
		}
	}
	return nil
}

func statsCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("stats")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}

	stats, err := a.pickups.PickupStats().Get(ctx)
	if err != nil {
		a.log.Debug().Err(err).Msg("stats unavailable, counting pickups")
		stats = nil
	}
	var list []pickup.Pickup
	if stats == nil {
		if list, err = a.pickups.MyPickups(nil).Get(ctx); err != nil {
			return err
		}
	}
	summary := pickup.Summarize(stats, list, time.Now())
	if *asJSON {
		return printJSON(summary)
	}

	tw := table("TOTAL", "PENDING", "SCHEDULED", "COMPLETED", "THIS MONTH")
	fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\n", summary.Total, summary.Pending, summary.Scheduled, summary.Completed, summary.ThisMonth)
	if err := tw.Flush(); err != nil {
		return err
	}
	if stats != nil {
		fmt.Fprintf(out, "Collected %.1f kg, average rating %.1f\n", stats.TotalWeightCollected, stats.AverageRating)
	}
	return nil
}

func schedulesCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("schedules")
	create := fs.Bool("create", false, "create a schedule")
	del := fs.String("delete", "", "delete the schedule with this id")
	pause := fs.String("pause", "", "pause the schedule with this id")
	resume := fs.String("resume", "", "resume the schedule with this id")
	var req pickup.ScheduleRequest
	frequency := fs.String("frequency", string(pickup.FrequencyWeekly), "weekly, biweekly or monthly")
	weekday := fs.Int("weekday", -1, "day of week, 0 is Sunday")
	monthday := fs.Int("monthday", 0, "day of month")
	slot := fs.String("time", string(pickup.SlotMorning), "morning, afternoon or evening")
	waste := fs.String("waste", string(pickup.WasteGeneral), "general, recyclable or hazardous")
	fs.StringVar(&req.Address, "address", "", "pickup address")
	if err := parse(fs, args); err != nil {
		return err
	}

	switch {
	case *del != "":
		_, err := a.pickups.DeleteRecurringSchedule().Mutate(ctx, *del)
		return err
	case *pause != "" || *resume != "":
		id, active := *pause, false
		if *resume != "" {
			id, active = *resume, true
		}
		s, err := a.pickups.UpdateRecurringSchedule().Mutate(ctx, queries.ScheduleEdit{
			ID:     id,
			Update: pickup.ScheduleUpdate{IsActive: &active},
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Schedule %s active=%t\n", s.ID, s.IsActive)
		return nil
	case *create:
		req.Frequency = pickup.Frequency(*frequency)
		req.TimeSlot = pickup.TimeSlot(*slot)
		req.WasteType = pickup.WasteType(*waste)
		if *weekday >= 0 {
			req.DayOfWeek = weekday
		}
		if *monthday > 0 {
			req.DayOfMonth = monthday
		}
		s, err := a.pickups.CreateRecurringSchedule().Mutate(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Schedule %s created, next pickup %s\n", s.ID, s.NextPickupDate)
		return nil
	}

	list, err := a.pickups.RecurringSchedules().Get(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(out, "No recurring pickups.")
		return nil
	}
	tw := table("ID", "FREQUENCY", "SLOT", "WASTE", "NEXT", "ACTIVE", "ADDRESS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%t\t%s\n",
			s.ID, s.Frequency, s.TimeSlot, s.WasteType.Label(), s.NextPickupDate, s.IsActive, s.Address)
	}
	return tw.Flush()
}

// watchCmd polls the pickup list and raises a notification for every
// status change. With a Pub/Sub subscription configured it also prints
// notifications published by other devices.
func watchCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("watch")
	every := fs.Duration("every", time.Minute, "poll interval")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *every <= 0 {
		return errors.New("watch: -every must be positive")
	}

	opts := a.pickups.MyPickups(nil).Options()
	opts.RefetchInterval = *every
	watcher := notify.NewStatusWatcher(notify.StatusWatcherConfig{
		Query:    cache.NewQuery(a.cache, opts),
		Notifier: a.notifier,
		Logger:   a.log,
	})

	if a.pubsub != nil && a.cfg.PubSubSubscription != "" {
		listener := notify.NewListener(notify.ListenerConfig{
			Client:       a.pubsub,
			Subscription: a.cfg.PubSubSubscription,
			Target:       notify.LogNotifier{Logger: a.log.With().Str("source", "pubsub").Logger()},
			Logger:       a.log,
		})
		go func() {
			if err := listener.Start(ctx); err != nil && ctx.Err() == nil {
				a.log.Error().Err(err).Msg("notification listener stopped")
			}
		}()
	}

	err := watcher.Run(ctx)
	stats := watcher.Stats()
	a.log.Info().
		Int64("observations", stats.Observations).
		Int64("changes", stats.Changes).
		Int64("errors", stats.Errors).
		Msg("stopped watching")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
