package cli

import (
	"fmt"

	"github.com/alexanderramin/worktime/internal/cli/formatter"
	"github.com/alexanderramin/worktime/internal/contract"
	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/spf13/cobra"
)

func newHistoryCmd(app *App) *cobra.Command {
	var from, to string
	var manual, allTime bool
	var limit uint64
	typ := newSessionTypeValue("")

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored sessions across days",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, loc := app.now(), app.location()
			fromDay, err := parseOptionalDay(from, now, loc)
			if err != nil {
				return err
			}
			toDay, err := parseOptionalDay(to, now, loc)
			if err != nil {
				return err
			}
			if toDay != nil {
				end := toDay.AddDate(0, 0, 1)
				toDay = &end
			}
			if fromDay == nil && toDay == nil && !allTime {
				weekAgo := domain.StartOfDay(now.In(loc).AddDate(0, 0, -6), loc)
				fromDay = &weekAgo
			}

			return withTracker(cmd.Context(), app, func(t *service.Tracker) error {
				sessions, err := t.History(cmd.Context(), contract.HistoryRequest{
					From:       fromDay,
					To:         toDay,
					Type:       typ.typ,
					ManualOnly: manual,
					Limit:      limit,
				})
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatHistory(sessions, t.Now(), loc))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD), defaults to a week ago")
	cmd.Flags().StringVar(&to, "to", "", "Last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().Var(typ, "type", "Only sessions of this type")
	cmd.Flags().BoolVar(&manual, "manual", false, "Only hand-entered sessions")
	cmd.Flags().BoolVar(&allTime, "all", false, "Include every stored session")
	cmd.Flags().Uint64Var(&limit, "limit", 0, "Maximum number of sessions")

	return cmd
}
