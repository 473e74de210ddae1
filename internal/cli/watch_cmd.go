package cli

import (
	"fmt"

	"github.com/alexanderramin/worktime/internal/service"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newWatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Open the live dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return fmt.Errorf("watch needs an interactive terminal; use 'worktime status' instead")
			}
			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				m := newWatchModel(cmd.Context(), t, app.location(), app.now)
				p := tea.NewProgram(m,
					tea.WithAltScreen(),
					tea.WithContext(cmd.Context()),
					tea.WithOutput(cmd.OutOrStdout()),
				)
				_, err := p.Run()
				return err
			})
		},
	}
}
