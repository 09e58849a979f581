package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
	"github.com/studyquest/studyquest/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDY LOGS
// ══════════════════════════════════════════════════════════════════════════════

func newStudyCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "study",
		Short: "Record and review study time",
	}
	cmd.AddCommand(newStudyAddCmd(r), newStudyListCmd(r), newStudyDeleteCmd(r))
	return cmd
}

func newStudyAddCmd(r *runner) *cobra.Command {
	var hours, minutes int
	var date string

	cmd := &cobra.Command{
		Use:   "add <subject>",
		Short: "Record study time by hand",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			total, err := studylog.ManualMinutes(hours, minutes)
			if err != nil {
				return err
			}
			res, err := app.Commands.AddStudyLog.Handle(cmd.Context(), command.AddStudyLogCommand{
				Username:  sc.Username,
				Subject:   args[0],
				Minutes:   total,
				StudyDate: date,
			})
			if err != nil {
				return err
			}
			printStudyResult(cmd, res)
			return nil
		},
	}

	cmd.Flags().IntVarP(&hours, "hours", "H", 0, "Hours studied")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "Minutes studied")
	cmd.Flags().StringVarP(&date, "date", "d", "", "Study date YYYY-MM-DD (default today)")
	return cmd
}

func printStudyResult(cmd *cobra.Command, res *command.AddStudyLogResult) {
	say(cmd, presenter.Good.Render(fmt.Sprintf("%s %s of %s recorded", presenter.IconBook,
		presenter.Minutes(res.Entry.DurationMinutes), res.Entry.Subject)))
	if res.GoalBonus > 0 {
		say(cmd, presenter.Gold.Render(fmt.Sprintf("%s Daily goal reached! +%d coins", presenter.IconTrophy, res.GoalBonus)))
	}
	say(cmd, presenter.Balance(res.Balance))
}

func newStudyListCmd(r *runner) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the study logs of one day",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			day := app.Queries.Reader.Today()
			if date != "" {
				if day, err = timeutil.ParseDate(date); err != nil {
					return err
				}
			}
			detail := app.Queries.DayDetail.Handle(cmd.Context(), sc.Username, day)
			say(cmd, presenter.Heading(presenter.IconBook, fmt.Sprintf("%s (%s)", day, presenter.Minutes(detail.TotalMinutes()))))
			say(cmd, presenter.Logs(detail.Logs))
			return nil
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day YYYY-MM-DD (default today)")
	return cmd
}

func newStudyDeleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a study log and reverse its reward",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			var known []string
			for _, e := range app.Queries.Reader.StudyLogs(cmd.Context(), sc.Username) {
				known = append(known, e.ID)
			}
			id, err := resolveID("studylog", args[0], known)
			if err != nil {
				return err
			}
			res, err := app.Commands.DeleteStudyLog.Handle(cmd.Context(), command.DeleteStudyLogCommand{
				Username: sc.Username,
				LogID:    id,
			})
			if err != nil {
				return err
			}
			if !res.Deleted {
				say(cmd, presenter.Muted.Render("Nothing deleted."))
				return nil
			}
			say(cmd, presenter.Warn.Render(fmt.Sprintf("Deleted, -%d XP, -%d coins", res.ReversedXP, res.ReversedCoins)), presenter.Balance(res.Balance))
			return nil
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// TIMER
// ══════════════════════════════════════════════════════════════════════════════

func newTimerCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Study stopwatch: start, pause, resume, stop",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			say(cmd, presenter.Timer(sc.Timer.State(), sc.Timer.Elapsed()))
			return nil
		},
	}

	cmd.AddCommand(
		timerAction(r, "start", "Start the stopwatch", func(app *App, cmd *cobra.Command, id string) error {
			_, err := app.Sessions.StartTimer(cmd.Context(), id)
			return err
		}),
		timerAction(r, "pause", "Pause the stopwatch", func(app *App, cmd *cobra.Command, id string) error {
			_, err := app.Sessions.PauseTimer(cmd.Context(), id)
			return err
		}),
		timerAction(r, "resume", "Resume a paused stopwatch", func(app *App, cmd *cobra.Command, id string) error {
			_, err := app.Sessions.ResumeTimer(cmd.Context(), id)
			return err
		}),
		newTimerStopCmd(r),
		newTimerWatchCmd(r),
	)
	return cmd
}

func timerAction(r *runner, use, short string, fn func(app *App, cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			if err := fn(app, cmd, sc.ID); err != nil {
				return err
			}
			sc, err = app.Sessions.Get(cmd.Context(), sc.ID)
			if err != nil {
				return err
			}
			say(cmd, presenter.Timer(sc.Timer.State(), sc.Timer.Elapsed()))
			return nil
		},
	}
}

func newTimerStopCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <subject>",
		Short: "Stop the stopwatch and record the time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			res, err := app.Sessions.StopTimer(cmd.Context(), sc.ID, args[0])
			if err != nil {
				return err
			}
			printStudyResult(cmd, res)
			return nil
		},
	}
}

// newTimerWatchCmd redraws the stopwatch every second until interrupted.
func newTimerWatchCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the running stopwatch until Ctrl-C",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()

			out := cmd.OutOrStdout()
			for {
				fmt.Fprintf(out, "\r%s   ", presenter.Timer(sc.Timer.State(), sc.Timer.Elapsed()))
				if sc.Timer.State() != studylog.StopwatchRunning {
					fmt.Fprintln(out)
					return nil
				}
				select {
				case <-cmd.Context().Done():
					fmt.Fprintln(out)
					return nil
				case <-ticker.C:
				}
			}
		},
	}
}
