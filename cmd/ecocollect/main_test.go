package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecocollect/ecocollect/internal/fakeserver"
	"github.com/ecocollect/ecocollect/internal/pickup"
)

// setupEnv points the CLI at a seeded fake backend and keeps tokens in a
// SQLite file so they survive between runs.
func setupEnv(t *testing.T) {
	t.Helper()
	srv := httptest.NewServer(fakeserver.New(fakeserver.Config{Logger: zerolog.Nop(), Seed: true, RateLimit: -1}))
	t.Cleanup(srv.Close)

	t.Setenv("ECOCOLLECT_API_BASE_URL", srv.URL+"/api")
	t.Setenv("ECOCOLLECT_TOKEN_STORE", "sqlite")
	t.Setenv("ECOCOLLECT_TOKEN_DB", filepath.Join(t.TempDir(), "tokens.db"))
	t.Setenv("ECOCOLLECT_DEV", "false")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("MAPBOX_ACCESS_TOKEN", "")
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Help(t *testing.T) {
	stdout, err := runCLI(t, "help")
	require.NoError(t, err)
	assert.Contains(t, stdout, "admin-assign")
	assert.Contains(t, stdout, "request")
}

func TestRun_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "bogus")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_CustomerSession(t *testing.T) {
	setupEnv(t)

	stdout, err := runCLI(t, "login", "-email", fakeserver.DemoEmail, "-password", fakeserver.DemoPassword)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signed in as Demo Customer")

	stdout, err = runCLI(t, "pickups")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Rue Joss, Bonanjo, Douala")
	assert.Contains(t, stdout, "Active: Boulevard de la Liberté, Akwa, Douala (Assigned)")

	stdout, err = runCLI(t, "pickups", "-status", "completed")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Carrefour Ndokoti")
	assert.NotContains(t, stdout, "Rue Joss")

	stdout, err = runCLI(t, "request", "-address", "Rue de la Joie, Akwa, Douala", "-weight", "5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Estimated cost: 5,000 FCFA")
	assert.Contains(t, stdout, "requested for")

	stdout, err = runCLI(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TOTAL")

	_, err = runCLI(t, "admin-stats")
	require.Error(t, err)

	_, err = runCLI(t, "logout")
	require.NoError(t, err)
	_, err = runCLI(t, "profile")
	assert.Error(t, err)
}

func TestRun_CancelPickup(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "login", "-email", fakeserver.DemoEmail, "-password", fakeserver.DemoPassword)
	require.NoError(t, err)

	stdout, err := runCLI(t, "pickups", "-status", "pending", "-json")
	require.NoError(t, err)
	var list []pickup.Pickup
	require.NoError(t, json.Unmarshal([]byte(stdout), &list))
	require.Len(t, list, 1)
	id := list[0].ID

	_, err = runCLI(t, "cancel", id)
	require.NoError(t, err)

	stdout, err = runCLI(t, "pickup", id)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Status:   Cancelled")

	_, err = runCLI(t, "cancel", id)
	assert.ErrorContains(t, err, "can no longer be cancelled")
}

func TestRun_AdminSession(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "login", "-email", fakeserver.AdminEmail, "-password", fakeserver.AdminPassword)
	require.NoError(t, err)

	stdout, err := runCLI(t, "admin-stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "ACTIVE DRIVERS")

	stdout, err = runCLI(t, "admin-drivers", "-available")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Aminatou Bello")
	assert.NotContains(t, stdout, "Paul Nkodo")

	stdout, err = runCLI(t, "admin-users", "-limit", "1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Page 1 of 2")

	_, err = runCLI(t, "admin-status", "p1", "lost")
	assert.ErrorContains(t, err, "unknown status")
}

func TestRun_AddressNeedsToken(t *testing.T) {
	setupEnv(t)

	_, err := runCLI(t, "address", "Akwa")
	assert.ErrorContains(t, err, "MAPBOX_ACCESS_TOKEN")
}

func TestParseLatLng(t *testing.T) {
	c, err := parseLatLng("4.05, 9.76")
	require.NoError(t, err)
	assert.InDelta(t, 4.05, c.Lat(), 1e-9)
	assert.InDelta(t, 9.76, c.Lng(), 1e-9)

	_, err = parseLatLng("4.05")
	assert.Error(t, err)
}
