package cli

import (
	"encoding/json"
	"fmt"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show today's totals, countdown and active sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the aggregate as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, app *App, asJSON bool) error {
	return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
		view, err := t.Today(cmd.Context(), contract.NewTodayRequest())
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatToday(view, app.location()))
		return nil
	})
}
