package cli

import (
	"fmt"
	"strconv"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/engine"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newTargetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Override the daily maximum",
	}

	cmd.AddCommand(
		newTargetSetCmd(app),
		newTargetClearCmd(app),
	)

	return cmd
}

func newTargetSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set HOURS",
		Short: "Set a custom daily maximum (0-24 hours)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hours, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid hours %q", args[0])
			}
			return setTarget(cmd, app, hours)
		},
	}
}

func newTargetClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Return to the default daily maximum",
		RunE: func(cmd *cobra.Command, args []string) error {
			return setTarget(cmd, app, 0)
		},
	}
}

func setTarget(cmd *cobra.Command, app *App, hours float64) error {
	return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
		if _, err := t.Execute(cmd.Context(), engine.SetCustomTarget{Hours: hours}); err != nil {
			return err
		}
		if hours == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Custom target cleared.")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Daily maximum set to %s.\n", formatter.Bold(formatter.FormatHours(hours)))
		return nil
	})
}
