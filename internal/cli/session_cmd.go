package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newStartCmd(app *App) *cobra.Command {
	var at, date string

	cmd := &cobra.Command{
		Use:       "start [work|lunch]",
		Short:     "Check in to a new session",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"work", "lunch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := newSessionTypeValue(domain.SessionWork)
			if len(args) == 1 {
				if err := typ.Set(args[0]); err != nil {
					return err
				}
			}
			checkIn, err := parseAt(at, date, app.now(), app.location())
			if err != nil {
				return err
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				res, err := t.Execute(cmd.Context(), engine.StartSession{Type: typ.typ, At: checkIn})
				if err != nil {
					return err
				}
				for _, s := range res.Sessions {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession("Checked in", s, app.location()))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Check-in time (HH:MM), defaults to now")
	cmd.Flags().StringVar(&date, "date", "", "Day for --at (YYYY-MM-DD), defaults to today")

	return cmd
}

func newStopCmd(app *App) *cobra.Command {
	var at, date string
	var all bool

	cmd := &cobra.Command{
		Use:   "stop [SESSION_ID]",
		Short: "Check out of the active session",
		Long: `Check out of an active session. With a single active session no ID is
needed; IDs may be shortened to any unique prefix. --all checks out of every
active session at the same time.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseAt(at, date, app.now(), app.location())
			if err != nil {
				return err
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				var command engine.Command
				if all {
					command = engine.CompleteAll{At: end}
				} else {
					prefix := ""
					if len(args) == 1 {
						prefix = args[0]
					}
					id, err := resolveActiveID(t, prefix)
					if err != nil {
						return err
					}
					command = engine.CompleteSession{ID: id, At: end}
				}

				res, err := t.Execute(cmd.Context(), command)
				if err != nil {
					return err
				}
				if len(res.Sessions) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No active sessions."))
					return nil
				}
				for _, s := range res.Sessions {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession("Checked out", s, app.location()))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Check-out time (HH:MM), defaults to now")
	cmd.Flags().StringVar(&date, "date", "", "Day for --at (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&all, "all", false, "Check out of every active session")

	return cmd
}

func newCheckoutCmd(app *App) *cobra.Command {
	var at, date string

	cmd := &cobra.Command{
		Use:   "checkout SESSION_ID",
		Short: "Record a forgotten check-out at a given time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			end, err := parseAt(at, date, app.now(), app.location())
			if err != nil {
				return err
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				id, err := resolveActiveID(t, args[0])
				if err != nil {
					return err
				}
				res, err := t.Execute(cmd.Context(), engine.ManualCheckOut{ID: id, At: end})
				if err != nil {
					return err
				}
				for _, s := range res.Sessions {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession("Checked out", s, app.location()))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Check-out time (HH:MM)")
	cmd.Flags().StringVar(&date, "date", "", "Day for --at (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var entry manualEntry
	typ := newSessionTypeValue(domain.SessionWork)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a session by hand",
		Long: `Add a session by hand. Give --in with either --out or --hours for a
completed session; --in alone opens an active session. Without flags on a
terminal a form asks for the details.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry.Type = typ.String()
			if entry.CheckIn == "" {
				if !app.interactive() {
					return fmt.Errorf("--in is required")
				}
				if err := manualSessionForm(&entry).Run(); err != nil {
					return err
				}
			}

			manual, err := entry.command(app.now(), app.location())
			if err != nil {
				return err
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				res, err := t.Execute(cmd.Context(), manual)
				if err != nil {
					return err
				}
				for _, s := range res.Sessions {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSession("Added", s, app.location()))
				}
				return nil
			})
		},
	}

	cmd.Flags().Var(typ, "type", "Session type")
	cmd.Flags().StringVar(&entry.Date, "date", "", "Day of the session (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&entry.CheckIn, "in", "", "Check-in time (HH:MM)")
	cmd.Flags().StringVar(&entry.CheckOut, "out", "", "Check-out time (HH:MM)")
	cmd.Flags().StringVar(&entry.Hours, "hours", "", "Duration in hours (0.25-12)")

	return cmd
}

// command converts the text entry into an engine command.
func (e manualEntry) command(now time.Time, loc *time.Location) (engine.ManualNewSession, error) {
	typ, err := domain.ParseSessionType(e.Type)
	if err != nil {
		return engine.ManualNewSession{}, err
	}
	checkIn, err := parseAt(e.CheckIn, e.Date, now, loc)
	if err != nil {
		return engine.ManualNewSession{}, err
	}
	m := engine.ManualNewSession{Type: typ, CheckIn: checkIn}

	if strings.TrimSpace(e.CheckOut) != "" {
		out, err := parseAt(e.CheckOut, e.Date, now, loc)
		if err != nil {
			return engine.ManualNewSession{}, err
		}
		m.CheckOut = &out
	}
	if strings.TrimSpace(e.Hours) != "" {
		h, err := strconv.ParseFloat(strings.TrimSpace(e.Hours), 64)
		if err != nil {
			return engine.ManualNewSession{}, fmt.Errorf("invalid --hours %q", e.Hours)
		}
		m.DurationHours = &h
	}
	return m, nil
}

func newListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List today's sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				view, err := t.Today(cmd.Context(), contract.NewTodayRequest())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSessions(view, app.location()))
				return nil
			})
		},
	}
}

func newResetCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every session of today",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				if !app.interactive() {
					return fmt.Errorf("refusing to delete today's sessions without --yes")
				}
				if err := confirmForm("Delete all of today's sessions?", &yes).Run(); err != nil {
					return err
				}
				if !yes {
					fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("Nothing changed."))
					return nil
				}
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				res, err := t.Execute(cmd.Context(), engine.ResetToday{})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d session(s) from today.\n", res.Removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation")

	return cmd
}
