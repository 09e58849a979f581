package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
)

func newTaskCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(newTaskAddCmd(r), newTaskListCmd(r), newTaskDoneCmd(r), newTaskDeleteCmd(r))
	return cmd
}

func newTaskAddCmd(r *runner) *cobra.Command {
	var due, priority string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a pending task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			t, err := app.Commands.AddTask.Handle(cmd.Context(), command.AddTaskCommand{
				Username: sc.Username,
				Name:     args[0],
				DueDate:  due,
				Priority: priority,
			})
			if err != nil {
				return err
			}
			say(cmd, presenter.Good.Render(presenter.IconTask+" Added"), presenter.Tasks([]*task.Task{t}))
			return nil
		},
	}

	cmd.Flags().StringVarP(&due, "due", "d", "", "Due date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "high, medium or low (default medium)")
	return cmd
}

func newTaskListCmd(r *runner) *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, pending first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			say(cmd, presenter.Tasks(app.Queries.Tasks.Handle(cmd.Context(), sc.Username, pending)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "Only pending tasks")
	return cmd
}

func newTaskDoneCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>...",
		Short: "Complete tasks and collect the reward",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			ids, err := resolveTaskIDs(cmd.Context(), app, sc.Username, args)
			if err != nil {
				return err
			}
			res, err := app.Commands.CompleteTasks.Handle(cmd.Context(), command.CompleteTasksCommand{
				Username: sc.Username,
				TaskIDs:  ids,
			})
			if err != nil {
				return err
			}
			if res.Completed == 0 {
				say(cmd, presenter.Muted.Render("Nothing to complete."))
				return nil
			}
			say(cmd, presenter.Good.Render(fmt.Sprintf("%s %d done, +%d XP", presenter.IconDone, res.Completed, res.XPGained)),
				presenter.Balance(res.Balance))
			return nil
		},
	}
}

func newTaskDeleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, sc, err := r.session(cmd)
			if err != nil {
				return err
			}
			ids, err := resolveTaskIDs(cmd.Context(), app, sc.Username, args)
			if err != nil {
				return err
			}
			if err := app.Commands.DeleteTask.Handle(cmd.Context(), command.DeleteTaskCommand{
				Username: sc.Username,
				TaskID:   ids[0],
			}); err != nil {
				return err
			}
			say(cmd, presenter.Muted.Render("Deleted."))
			return nil
		},
	}
}

func resolveTaskIDs(ctx context.Context, app *App, username string, prefixes []string) ([]string, error) {
	var known []string
	for _, t := range app.Queries.Reader.Tasks(ctx, username) {
		known = append(known, t.ID)
	}
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		id, err := resolveID("task", p, known)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
