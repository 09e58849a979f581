package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
)

func newRegisterCmd(r *runner) *cobra.Command {
	var password, nickname string

	cmd := &cobra.Command{
		Use:   "register <username>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.open(cmd)
			if err != nil {
				return err
			}
			pw, err := readSecret(cmd, password)
			if err != nil {
				return err
			}
			u, err := app.Commands.Register.Handle(cmd.Context(), command.RegisterCommand{
				Username: args[0],
				Password: pw,
				Nickname: nickname,
			})
			if err != nil {
				return err
			}
			say(cmd, presenter.Good.Render(presenter.IconSparkle+" Welcome, "+u.Nickname+"!"))
			say(cmd, presenter.Muted.Render("Log in with: studyquest login "+u.Username))
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	cmd.Flags().StringVarP(&nickname, "nickname", "n", "", "Display name (defaults to the username)")
	return cmd
}

func newLoginCmd(r *runner) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session and claim the daily login bonus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.open(cmd)
			if err != nil {
				return err
			}
			pw, err := readSecret(cmd, password)
			if err != nil {
				return err
			}

			if prev, _ := app.Pointer.Current(); prev != "" {
				_ = app.Sessions.Logout(cmd.Context(), prev)
			}

			res, err := app.Sessions.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			if err := app.Pointer.SetCurrent(res.Session.ID); err != nil {
				return err
			}

			say(cmd, presenter.Good.Render(presenter.IconDone+" Logged in as "+res.Session.Username))
			if res.Bonus != nil && res.Bonus.Granted {
				say(cmd, presenter.Gold.Render(fmt.Sprintf("%s Login bonus +%d coins", presenter.IconCoin, res.Bonus.Coins)),
					presenter.Balance(res.Bonus.Balance))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := r.open(cmd)
			if err != nil {
				return err
			}
			id, err := app.Pointer.Current()
			if err != nil {
				return err
			}
			if id == "" {
				say(cmd, presenter.Muted.Render("Not logged in."))
				return nil
			}
			if err := app.Sessions.Logout(cmd.Context(), id); err != nil && !shared.IsNotFound(err) {
				return err
			}
			if err := app.Pointer.SetCurrent(""); err != nil {
				return err
			}
			say(cmd, presenter.Muted.Render("Logged out."))
			return nil
		},
	}
}

func newStatusCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Aliases: []string{"me"},
		Short:   "Show level, coins, today's progress and equipped items",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			say(cmd, presenter.Status(app.Queries.Status.Handle(cmd.Context(), sc.Username)))
			if sc.Timer.State() != studylog.StopwatchIdle {
				say(cmd, presenter.Timer(sc.Timer.State(), sc.Timer.Elapsed()))
			}
			return nil
		},
	}
}

func newPrefsCmd(r *runner) *cobra.Command {
	var goal int
	var nickname, textColor, accentColor string

	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Change daily goal, nickname or colors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			c := command.UpdatePreferencesCommand{Username: sc.Username}
			flags := cmd.Flags()
			if flags.Changed("goal") {
				c.DailyGoal = &goal
			}
			if flags.Changed("nickname") {
				c.Nickname = &nickname
			}
			if flags.Changed("text-color") {
				c.MainTextColor = &textColor
			}
			if flags.Changed("accent-color") {
				c.AccentColor = &accentColor
			}
			if err := app.Commands.Preferences.Handle(cmd.Context(), c); err != nil {
				return err
			}
			say(cmd, presenter.Good.Render(presenter.IconDone+" Preferences saved"))
			return nil
		},
	}

	cmd.Flags().IntVarP(&goal, "goal", "g", 0, "Daily study goal in minutes")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name")
	cmd.Flags().StringVar(&textColor, "text-color", "", "Main text color (#RRGGBB)")
	cmd.Flags().StringVar(&accentColor, "accent-color", "", "Accent color (#RRGGBB)")
	return cmd
}
