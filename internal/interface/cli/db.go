package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/infrastructure/persistence/postgres"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
)

var errNotPostgres = errors.New("db commands need STORE_DRIVER=postgres; sqlite migrates itself on open")

func newDBCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "PostgreSQL maintenance",
	}

	migrator := func(cmd *cobra.Command) (*App, *postgres.Migrator, error) {
		app, err := r.open(cmd)
		if err != nil {
			return nil, nil, err
		}
		if app.Postgres == nil {
			return nil, nil, errNotPostgres
		}
		return app, postgres.NewMigrator(app.Postgres, app.Log), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, m, err := migrator(cmd)
				if err != nil {
					return err
				}
				ran, err := m.Migrate(cmd.Context())
				if err != nil {
					return err
				}
				if len(ran) == 0 {
					say(cmd, presenter.Muted.Render("Schema is up to date"))
					return nil
				}
				for _, mg := range ran {
					say(cmd, presenter.Good.Render(fmt.Sprintf("%s %03d %s", presenter.IconDone, mg.Version, mg.Name)))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Revert the latest migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, m, err := migrator(cmd)
				if err != nil {
					return err
				}
				mg, err := m.Rollback(cmd.Context())
				if err != nil {
					return err
				}
				if mg == nil {
					say(cmd, presenter.Muted.Render("Nothing to roll back"))
					return nil
				}
				say(cmd, presenter.Warn.Render(fmt.Sprintf("Rolled back %03d %s", mg.Version, mg.Name)))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, m, err := migrator(cmd)
				if err != nil {
					return err
				}
				list, err := m.Status(cmd.Context())
				if err != nil {
					return err
				}
				for _, mg := range list {
					state := presenter.Warn.Render("pending")
					if mg.IsApplied {
						state = presenter.Good.Render("applied " + mg.AppliedAt.Format(time.DateTime))
					}
					say(cmd, fmt.Sprintf("%03d %-32s %s", mg.Version, mg.Name, state))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Ping the database and show pool statistics",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				app, _, err := migrator(cmd)
				if err != nil {
					return err
				}
				h, err := app.Postgres.Health(cmd.Context())
				if err != nil {
					return err
				}
				if !h.Healthy {
					return fmt.Errorf("database unhealthy: %s", h.Error)
				}
				say(cmd, presenter.Good.Render("healthy"),
					presenter.Muted.Render(fmt.Sprintf("ping %s, conns %d/%d idle %d, users %d tasks %d logs %d",
						h.PingLatency, h.TotalConns, h.MaxConns, h.IdleConns, h.Users, h.Tasks, h.StudyLogs)))
				return nil
			},
		},
	)
	return cmd
}
