package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecocollect/ecocollect/internal/geocode"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

const searchDebounce = 300 * time.Millisecond

func addressCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("address")
	reverse := fs.String("reverse", "", "resolve \"lat,lng\" to an address")
	validate := fs.Bool("validate", false, "check that the address resolves")
	interactive := fs.Bool("interactive", false, "search as lines are typed on stdin")
	near := fs.String("near", "", "bias results towards a city, e.g. Douala")
	if err := parse(fs, args); err != nil {
		return err
	}
	if a.cfg.MapboxToken == "" {
		return errors.New("address: MAPBOX_ACCESS_TOKEN is not set")
	}

	opts := &geocode.SearchOptions{}
	if *near != "" {
		for _, c := range geocode.CameroonCities() {
			if strings.EqualFold(c.Name, *near) {
				at := c.Coordinates
				opts.Proximity = &at
			}
		}
		if opts.Proximity == nil {
			return fmt.Errorf("address: unknown city %q", *near)
		}
	}

	query := strings.Join(fs.Args(), " ")
	switch {
	case *reverse != "":
		at, err := parseLatLng(*reverse)
		if err != nil {
			return err
		}
		return reverseGeocode(ctx, a, at)
	case *interactive:
		return interactiveSearch(ctx, a, opts)
	case *validate:
		check := a.geocoder.ValidateAddress(ctx, query)
		if !check.Valid {
			return fmt.Errorf("address %q did not resolve", query)
		}
		fmt.Fprintf(out, "%s (%s confidence) at %s\n",
			check.Suggestion, check.Confidence, geocode.FormatCoordinates(check.Coordinates, 5))
		return nil
	}

	found, err := a.geocoder.SearchAddresses(ctx, query, opts)
	if err != nil {
		return err
	}
	return printSuggestions(found)
}

func parseLatLng(s string) (pickup.Coordinates, error) {
	lat, lng, ok := strings.Cut(s, ",")
	if !ok {
		return pickup.Coordinates{}, fmt.Errorf("address: expected lat,lng, got %q", s)
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return pickup.Coordinates{}, fmt.Errorf("address: latitude: %w", err)
	}
	ln, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return pickup.Coordinates{}, fmt.Errorf("address: longitude: %w", err)
	}
	return pickup.Coordinates{ln, la}, nil
}

func reverseGeocode(ctx context.Context, a *app, at pickup.Coordinates) error {
	if !geocode.WithinCameroon(at) {
		a.log.Warn().Str("coordinates", geocode.FormatCoordinates(at, 5)).Msg("coordinates are outside Cameroon")
	}
	res, err := a.geocoder.ReverseGeocode(ctx, at)
	if err != nil {
		return err
	}
	city := geocode.NearestCity(at)
	if res == nil {
		fmt.Fprintf(out, "No address found, nearest city is %s (%.1f km)\n",
			city.Name, geocode.Distance(at, city.Coordinates))
		return nil
	}
	fmt.Fprintf(out, "%s (%s confidence)\n", res.Address, res.Confidence)
	fmt.Fprintf(out, "  Nearest city: %s\n", city.Name)
	return nil
}

// interactiveSearch treats every stdin line as the current search text.
// Lines typed in quick succession only search for the last one.
func interactiveSearch(ctx context.Context, a *app, opts *geocode.SearchOptions) error {
	search := geocode.NewDebouncedSearch(a.geocoder, opts, searchDebounce)
	defer search.Stop()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	fmt.Fprintln(out, "Type an address, Ctrl-D to quit.")
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			search.Input(ctx, line)
		case res := <-search.Results():
			if res.Err != nil {
				a.log.Warn().Err(res.Err).Str("query", res.Query).Msg("search failed")
				continue
			}
			fmt.Fprintf(out, "Results for %q:\n", res.Query)
			if err := printSuggestions(res.Suggestions); err != nil {
				return err
			}
		}
	}
}
