package cli

import (
	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/application/session"
	"github.com/studyquest/studyquest/internal/domain/calendar"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

func newCalendarCmd(r *runner) *cobra.Command {
	var next, prev int
	var today bool

	cmd := &cobra.Command{
		Use:     "calendar",
		Aliases: []string{"cal"},
		Short:   "Show the month grid; navigate with --next/--prev/--today",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			switch {
			case today:
				sc, err = app.Sessions.Today(ctx, sc.ID)
			case next != 0 || prev != 0:
				sc, err = app.Sessions.Navigate(ctx, sc.ID, next-prev)
			}
			if err != nil {
				return err
			}
			renderMonth(cmd, app, sc)
			return nil
		},
	}

	cmd.Flags().IntVarP(&next, "next", "n", 0, "Move forward N months")
	cmd.Flags().IntVarP(&prev, "prev", "p", 0, "Move back N months")
	cmd.Flags().BoolVarP(&today, "today", "t", false, "Jump back to the current month")
	cmd.AddCommand(newCalendarSelectCmd(r), newCalendarDayCmd(r))
	return cmd
}

func renderMonth(cmd *cobra.Command, app *App, sc *session.Context) {
	st := sc.Calendar
	m := app.Queries.Month.Handle(cmd.Context(), sc.Username, st.Year, st.Month)
	say(cmd, presenter.Month(m, st.Selected, app.Queries.Reader.Today()))
}

func newCalendarSelectCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "select <date>",
		Short: "Select a day and show its tasks and study logs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			d, err := timeutil.ParseDate(args[0])
			if err != nil {
				return err
			}
			sc, fresh, err := app.Sessions.Interact(cmd.Context(), sc.ID, calendar.Interaction{
				Kind: calendar.InteractionSelectDay,
				Date: d,
			})
			if err != nil {
				return err
			}
			if !fresh {
				say(cmd, presenter.Muted.Render(d.String()+" is already selected."))
				return nil
			}
			renderMonth(cmd, app, sc)
			say(cmd, presenter.Detail(app.Queries.DayDetail.Handle(cmd.Context(), sc.Username, d)))
			return nil
		},
	}
}

func newCalendarDayCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "day [date]",
		Short: "Show one day's records (default: the selected day, else today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			d := sc.Calendar.Selected
			if d.IsZero() {
				d = app.Queries.Reader.Today()
			}
			if len(args) == 1 {
				if d, err = timeutil.ParseDate(args[0]); err != nil {
					return err
				}
			}
			say(cmd, presenter.Detail(app.Queries.DayDetail.Handle(cmd.Context(), sc.Username, d)))
			return nil
		},
	}
}
