package cli

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

// App holds what CLI commands need to reach the signed-in account.
type App struct {
	Auth     service.AuthService
	Trackers *service.Registry
	Location *time.Location
	Now      func() time.Time
	// IsInteractive reports whether forms and the live dashboard may be shown.
	IsInteractive func() bool
	// Serve runs the HTTP API until ctx is done. Nil disables "serve".
	Serve func(ctx context.Context) error
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) location() *time.Location {
	if a.Location != nil {
		return a.Location
	}
	return time.Local
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

var errNotSignedIn = errors.New("not signed in; run 'worktime login' or 'worktime register' first")

// withTracker opens the signed-in identity's tracker for the duration of fn
// and flushes it afterwards.
func withTracker(ctx context.Context, app *App, fn func(*service.Tracker) error) (err error) {
	id, err := app.Auth.Current(ctx)
	if err != nil {
		if errors.Is(err, identity.ErrNotSignedIn) || errors.Is(err, service.ErrSessionExpired) {
			return errNotSignedIn
		}
		return err
	}
	t, err := app.Trackers.Get(ctx, id)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := app.Trackers.Release(id.UserID); relErr != nil && err == nil {
			err = relErr
		}
	}()
	return fn(t)
}

// NewRootCmd creates the top-level "worktime" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "worktime",
		Short:         "Track work and lunch sessions against a daily billable maximum",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, app, false)
		},
	}

	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newWhoamiCmd(app),
		newResetPasswordCmd(app),
		newStartCmd(app),
		newStopCmd(app),
		newCheckoutCmd(app),
		newAddCmd(app),
		newListCmd(app),
		newStatusCmd(app),
		newHistoryCmd(app),
		newResetCmd(app),
		newTargetCmd(app),
		newSyncCmd(app),
		newWatchCmd(app),
		newServeCmd(app),
	)

	return root
}
