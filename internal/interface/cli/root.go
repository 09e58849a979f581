package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studyquest/studyquest/config"
	"github.com/studyquest/studyquest/internal/application/eventhandler"
	"github.com/studyquest/studyquest/internal/application/session"
	"github.com/studyquest/studyquest/internal/domain/shared"
	"github.com/studyquest/studyquest/internal/interface/cli/presenter"
)

// Version is stamped at build time.
var Version = "0.1.0"

// Options configures the command tree.
type Options struct {
	EnvFiles []string

	// Factory replaces Build. An app from a factory is not closed by the CLI.
	Factory func(ctx context.Context) (*App, error)
}

// runner holds the lazily built App for one invocation.
type runner struct {
	opts    Options
	app     *App
	owned   bool
	verbose bool
}

func (r *runner) open(cmd *cobra.Command) (*App, error) {
	if r.app != nil {
		return r.app, nil
	}
	ctx := cmd.Context()

	if r.opts.Factory != nil {
		app, err := r.opts.Factory(ctx)
		if err != nil {
			return nil, err
		}
		r.app = app
	} else {
		cfg, err := config.Load(r.opts.EnvFiles...)
		if err != nil {
			return nil, err
		}
		app, err := Build(ctx, cfg, NewLogger(cfg, cmd.ErrOrStderr(), r.verbose))
		if err != nil {
			return nil, err
		}
		r.app, r.owned = app, true
	}

	out := cmd.OutOrStdout()
	notices := eventhandler.NewOnLevelUpHandler(eventhandler.NotifierFunc(func(n eventhandler.LevelUpNotice) {
		fmt.Fprintln(out, presenter.LevelUp(n.OldLevel, n.NewLevel, n.Milestone))
	}), r.app.Log)
	if err := notices.Register(r.app.Bus); err != nil {
		return nil, err
	}
	return r.app, nil
}

func (r *runner) close() {
	if r.owned && r.app != nil {
		r.app.Close()
	}
	r.app = nil
}

// session returns the active session of this terminal.
func (r *runner) session(cmd *cobra.Command) (*App, *session.Context, error) {
	app, err := r.open(cmd)
	if err != nil {
		return nil, nil, err
	}
	id, err := app.Pointer.Current()
	if err != nil {
		return nil, nil, err
	}
	sc, err := app.Sessions.Get(cmd.Context(), id)
	if shared.IsNotFound(err) {
		return nil, nil, errNotLoggedIn
	}
	if err != nil {
		return nil, nil, err
	}
	return app, sc, nil
}

var errNotLoggedIn = errors.New("not logged in; run `studyquest login <username>` first")

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	root, _ := newRoot(opts)
	return root
}

func newRoot(opts Options) (*cobra.Command, *runner) {
	r := &runner{opts: opts}

	root := &cobra.Command{
		Use:           "studyquest",
		Short:         "Gamified study tracker: tasks, study time, XP and coins",
		Long:          "studyquest records tasks and study sessions and rewards them with XP and coins that unlock themes, titles, wallpapers and music.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("{{.Name}} v{{.Version}}\n")
	root.PersistentFlags().BoolVarP(&r.verbose, "verbose", "v", false, "Log at debug level")

	root.AddCommand(
		newRegisterCmd(r),
		newLoginCmd(r),
		newLogoutCmd(r),
		newStatusCmd(r),
		newPrefsCmd(r),
		newTaskCmd(r),
		newStudyCmd(r),
		newTimerCmd(r),
		newCalendarCmd(r),
		newShopCmd(r),
		newBuyCmd(r),
		newGachaCmd(r),
		newEquipCmd(r),
		newStatsCmd(r),
		newDBCmd(r),
	)
	return root, r
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, r := newRoot(Options{})
	defer r.close()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, presenter.Error(err))
		return 1
	}
	return 0
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers
// ─────────────────────────────────────────────────────────────────────────────

// readSecret returns flag when set, otherwise the first line of in.
func readSecret(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// resolveID finds the single id starting with prefix.
func resolveID(kind, prefix string, ids []string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", shared.Validationf(kind, "Resolve", "%s id is required", kind)
	}
	var match string
	for _, id := range ids {
		if id == prefix {
			return id, nil
		}
		if strings.HasPrefix(id, prefix) {
			if match != "" {
				return "", shared.Validationf(kind, "Resolve", "%s id %q is ambiguous", kind, prefix)
			}
			match = id
		}
	}
	if match == "" {
		return "", shared.NewDomainError(kind, "Resolve", shared.ErrNotFound, fmt.Sprintf("no %s matches %q", kind, prefix))
	}
	return match, nil
}

func say(cmd *cobra.Command, a ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), a...)
}
