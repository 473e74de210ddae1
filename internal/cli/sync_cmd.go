package cli

import (
	"fmt"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Save the account to the backend now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				stop := func() {}
				if app.interactive() {
					stop = formatter.StartSpinner(cmd.ErrOrStderr(), "Syncing...")
				}
				err := t.SyncNow(cmd.Context())
				stop()

				view, viewErr := t.Today(cmd.Context(), contract.NewTodayRequest())
				if viewErr != nil {
					return viewErr
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.SyncPill(view.SyncStatus))
				return err
			})
		},
	}
}
