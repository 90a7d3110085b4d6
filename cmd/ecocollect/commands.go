package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ecocollect/ecocollect/internal/auth"
	"github.com/ecocollect/ecocollect/internal/queries"
)

var commands = map[string]command{
	"login":           {"sign in with email and password", loginCmd},
	"register":        {"create a customer account", registerCmd},
	"logout":          {"end the session", logoutCmd},
	"profile":         {"show or edit the signed-in profile", profileCmd},
	"refresh":         {"renew the access token", refreshCmd},
	"google-login":    {"print the Google consent URL", googleLoginCmd},
	"google-callback": {"finish a Google sign-in", googleCallbackCmd},
	"password":        {"change, reset or confirm a password reset", passwordCmd},

	"pickups":   {"list your pickups", pickupsCmd},
	"pickup":    {"show one pickup", pickupCmd},
	"request":   {"request a pickup", requestCmd},
	"edit":      {"edit a pending pickup", editCmd},
	"cancel":    {"cancel a pickup", cancelCmd},
	"rate":      {"rate a completed pickup", rateCmd},
	"contact":   {"message the assigned driver", contactCmd},
	"photos":    {"attach photos to a pickup", photosCmd},
	"track":     {"follow a pickup live", trackCmd},
	"stats":     {"show your pickup statistics", statsCmd},
	"schedules": {"list, create or delete recurring pickups", schedulesCmd},
	"watch":     {"notify on pickup status changes", watchCmd},
	"address":   {"search, validate or reverse geocode addresses", addressCmd},

	"admin-pickups": {"list all pickups", adminPickupsCmd},
	"admin-pickup":  {"show a pickup with its customer", adminPickupCmd},
	"admin-assign":  {"assign a driver: <pickup> <driver>", adminAssignCmd},
	"admin-status":  {"set a pickup status: <pickup> <status>", adminStatusCmd},
	"admin-drivers": {"list drivers", adminDriversCmd},
	"admin-users":   {"list users", adminUsersCmd},
	"admin-stats":   {"show the dashboard counters", adminStatsCmd},
}

// flags returns a subcommand flag set; parse errors are returned, not printed.
func flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

// argN returns the n positional arguments or a usage error naming them.
func argN(fs *flag.FlagSet, names ...string) ([]string, error) {
	if fs.NArg() != len(names) {
		return nil, fmt.Errorf("%s: expected %s", fs.Name(), strings.Join(names, " "))
	}
	return fs.Args(), nil
}

func loginCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}
	resp, err := a.auth.Login().Mutate(ctx, auth.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s (%s)\n", resp.User.Name, resp.User.Role)
	return nil
}

func registerCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	confirm := fs.String("confirm", "", "repeat the password")
	if err := parse(fs, args); err != nil {
		return err
	}
	resp, err := a.auth.Register().Mutate(ctx, auth.RegisterRequest{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *confirm,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Welcome, %s\n", resp.User.Name)
	return nil
}

func logoutCmd(ctx context.Context, a *app, _ []string) error {
	_, err := a.auth.Logout().Mutate(ctx, struct{}{})
	return err
}

func profileCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("profile")
	name := fs.String("name", "", "new name")
	phone := fs.String("phone", "", "new phone number")
	address := fs.String("address", "", "new address")
	asJSON := fs.Bool("json", false, "print JSON")
	if err := parse(fs, args); err != nil {
		return err
	}

	var update auth.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			update.Name = name
		case "phone":
			update.Phone = phone
		case "address":
			update.Address = address
		}
	})

	var (
		profile *auth.UserProfile
		err     error
	)
	if update.Name != nil || update.Phone != nil || update.Address != nil {
		profile, err = a.auth.UpdateProfile().Mutate(ctx, update)
	} else {
		if !a.authSvc.IsAuthenticated(ctx) {
			return fmt.Errorf("not signed in")
		}
		profile, err = a.auth.Profile().Get(ctx)
	}
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(profile)
	}
	fmt.Fprintf(out, "%s <%s>\n", profile.Name, profile.Email)
	fmt.Fprintf(out, "  Role:    %s\n", profile.Role)
	if profile.Phone != "" {
		fmt.Fprintf(out, "  Phone:   %s\n", profile.Phone)
	}
	if profile.Address != "" {
		fmt.Fprintf(out, "  Address: %s\n", profile.Address)
	}
	return nil
}

func refreshCmd(ctx context.Context, a *app, _ []string) error {
	if _, err := a.auth.RefreshToken().Mutate(ctx, struct{}{}); err != nil {
		return err
	}
	tokens, err := a.authSvc.Store().Load(ctx)
	if err != nil {
		return err
	}
	if exp, err := auth.TokenExpiry(tokens.Access); err == nil {
		fmt.Fprintf(out, "Access token valid until %s\n", exp.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func googleLoginCmd(ctx context.Context, a *app, _ []string) error {
	url, err := a.auth.StartGoogleAuth(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Open this URL to continue with Google:")
	fmt.Fprintln(out, url)
	return nil
}

func googleCallbackCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("google-callback")
	code := fs.String("code", "", "authorization code")
	state := fs.String("state", "", "state returned with the code")
	if err := parse(fs, args); err != nil {
		return err
	}
	resp, err := a.auth.GoogleCallback().Mutate(ctx, auth.GoogleCallback{Code: *code, State: *state})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s\n", resp.User.Email)
	return nil
}

func passwordCmd(ctx context.Context, a *app, args []string) error {
	fs := flags("password")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	reset := fs.String("reset", "", "email to send a reset link to")
	token := fs.String("token", "", "reset token to confirm with -new")
	if err := parse(fs, args); err != nil {
		return err
	}

	var err error
	switch {
	case *reset != "":
		_, err = a.auth.ResetPassword().Mutate(ctx, *reset)
		if err == nil {
			fmt.Fprintln(out, "If the address exists, a reset link is on its way.")
		}
	case *token != "":
		_, err = a.auth.ConfirmPasswordReset().Mutate(ctx, queries.PasswordReset{Token: *token, NewPassword: *next})
		if err == nil {
			fmt.Fprintln(out, "Password reset.")
		}
	default:
		_, err = a.auth.ChangePassword().Mutate(ctx, auth.PasswordChange{CurrentPassword: *current, NewPassword: *next})
		if err == nil {
			fmt.Fprintln(out, "Password changed.")
		}
	}
	return err
}
