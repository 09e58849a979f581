// Package cli is the terminal front end: a cobra command tree over the
// command, query and session handlers.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/studyquest/studyquest/config"
	"github.com/studyquest/studyquest/internal/application/command"
	"github.com/studyquest/studyquest/internal/application/query"
	"github.com/studyquest/studyquest/internal/application/session"
	"github.com/studyquest/studyquest/internal/domain/studylog"
	"github.com/studyquest/studyquest/internal/domain/task"
	"github.com/studyquest/studyquest/internal/domain/user"
	"github.com/studyquest/studyquest/internal/infrastructure/messaging"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/filesession"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/memory"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/postgres"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/redis"
	"github.com/studyquest/studyquest/internal/infrastructure/persistence/sqlite"
	"github.com/studyquest/studyquest/pkg/logger"
	"github.com/studyquest/studyquest/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION
// ══════════════════════════════════════════════════════════════════════════════

// Commands groups the write handlers.
type Commands struct {
	Register       *command.RegisterHandler
	Preferences    *command.UpdatePreferencesHandler
	AddTask        *command.AddTaskHandler
	DeleteTask     *command.DeleteTaskHandler
	CompleteTasks  *command.CompleteTasksHandler
	AddStudyLog    *command.AddStudyLogHandler
	DeleteStudyLog *command.DeleteStudyLogHandler
	Buy            *command.BuyCosmeticHandler
	Gacha          *command.DrawGachaHandler
	Equip          *command.EquipHandler
}

// Queries groups the read handlers.
type Queries struct {
	Reader    *query.Reader
	Status    *query.GetStatusHandler
	Shop      *query.ListShopHandler
	Month     *query.GetMonthHandler
	DayDetail *query.GetDayDetailHandler
	Tasks     *query.ListTasksHandler
	Stats     *query.GetStatsHandler
}

// Pointer remembers which session this terminal is using.
type Pointer interface {
	Current() (string, error)
	SetCurrent(id string) error
}

// App is the wired application.
type App struct {
	Config   *config.Config
	Log      *logger.Logger
	Bus      *messaging.InMemoryEventBus
	Commands Commands
	Queries  Queries
	Sessions *session.Manager
	Pointer  Pointer

	// Postgres is set only for STORE_DRIVER=postgres.
	Postgres *postgres.Connection

	closers []func()
}

// Close releases every connection in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// NewLogger builds the process logger from configuration.
func NewLogger(cfg *config.Config, out io.Writer, verbose bool) *logger.Logger {
	level := logger.ParseLevel(cfg.Observability.LogLevel)
	if verbose {
		level = logger.LevelDebug
	}
	return logger.New(logger.Options{
		Output: out,
		Level:  level,
		Format: logger.ParseFormat(cfg.Observability.LogFormat),
	})
}

// Rules maps configuration onto command.Rules.
func Rules(cfg *config.Config) command.Rules {
	p := cfg.Progression
	return command.Rules{
		LevelWidth:       p.LevelWidth,
		TaskReward:       p.TaskReward,
		GoalBonusCoins:   p.GoalBonusCoins,
		LoginBonusCoins:  p.LoginBonusCoins,
		GachaCost:        p.GachaCost,
		DefaultDailyGoal: p.DefaultDailyGoal,
		AtomicLedger:     p.AtomicLedger,
		Location:         cfg.App.Location,
	}
}

type repositories struct {
	users user.Repository
	tasks task.Repository
	logs  studylog.Repository
}

// Build connects the configured stores and wires every handler.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	app := &App{Config: cfg, Log: log}

	repos, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Events
	// ─────────────────────────────────────────────────────────────────────────
	app.Bus = messaging.NewInMemoryEventBus(log)
	_ = app.Bus.SubscribeAll(messaging.LoggingHandler(log.With(logger.Component("events"))))
	app.closers = append(app.closers, func() { _ = app.Bus.Close() })

	// ─────────────────────────────────────────────────────────────────────────
	// Commands & queries
	// ─────────────────────────────────────────────────────────────────────────
	rules := Rules(cfg)
	ledger := command.NewLedger(repos.users, app.Bus, rules, log)
	app.Commands = Commands{
		Register:       command.NewRegisterHandler(repos.users, app.Bus, rules, log),
		Preferences:    command.NewUpdatePreferencesHandler(repos.users, log),
		AddTask:        command.NewAddTaskHandler(repos.tasks, rules, log),
		DeleteTask:     command.NewDeleteTaskHandler(repos.tasks, log),
		CompleteTasks:  command.NewCompleteTasksHandler(repos.tasks, ledger, log),
		AddStudyLog:    command.NewAddStudyLogHandler(repos.logs, ledger, log),
		DeleteStudyLog: command.NewDeleteStudyLogHandler(repos.logs, ledger, log),
		Buy:            command.NewBuyCosmeticHandler(ledger, log),
		Gacha:          command.NewDrawGachaHandler(ledger, nil, log),
		Equip:          command.NewEquipHandler(ledger, log),
	}

	reader := query.NewReader(repos.users, repos.tasks, repos.logs, query.Clock{Location: cfg.App.Location}, log)
	app.Queries = Queries{
		Reader:    reader,
		Status:    query.NewGetStatusHandler(reader, rules.LevelWidth),
		Shop:      query.NewListShopHandler(reader, rules.GachaCost),
		Month:     query.NewGetMonthHandler(reader),
		DayDetail: query.NewGetDayDetailHandler(reader),
		Tasks:     query.NewListTasksHandler(reader),
		Stats:     query.NewGetStatsHandler(reader),
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Sessions
	// ─────────────────────────────────────────────────────────────────────────
	files, err := filesession.New(cfg.Session.Dir, cfg.Session.TTL, nil)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Pointer = files

	var store session.Store = files
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, redis.Options{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		app.closers = append(app.closers, func() { _ = client.Close() })
		store = redis.NewSessionStore(client, cfg.Redis.SessionTTL, nil)
		log.Debug("sessions stored in redis", logger.String("addr", client.Addr()))
	}

	app.Sessions = session.NewManager(store, session.Handlers{
		Authenticate: command.NewAuthenticateHandler(repos.users, log),
		LoginBonus:   command.NewClaimLoginBonusHandler(ledger, log),
		AddStudyLog:  app.Commands.AddStudyLog,
	}, rules, log)

	return app, nil
}

func (a *App) openStore(ctx context.Context) (repositories, error) {
	cfg := a.Config
	switch cfg.Store.Driver {
	case config.StoreMemory:
		s := memory.NewStore()
		a.Log.Warn("using in-memory store; data is lost on exit")
		return repositories{s.Users(), s.Tasks(), s.StudyLogs()}, nil

	case config.StorePostgres:
		opts := postgres.PoolOptions{
			MaxConns:        int32(cfg.Database.MaxConns),
			MinConns:        int32(cfg.Database.MinConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		}
		conn, err := retry.DoWithData(ctx, func(ctx context.Context) (*postgres.Connection, error) {
			return postgres.NewConnectionFromURL(ctx, cfg.Database.URL, opts)
		},
			retry.WithMaxAttempts(cfg.Database.ConnectAttempts),
			retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
				a.Log.Warn("database not reachable, retrying", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
			}),
		)
		if err != nil {
			return repositories{}, fmt.Errorf("postgres: %w", err)
		}
		a.Postgres = conn
		a.closers = append(a.closers, conn.Close)

		if cfg.Database.AutoMigrate {
			if _, err := postgres.NewMigrator(conn, a.Log).Migrate(ctx); err != nil {
				return repositories{}, err
			}
		}
		return repositories{
			users: postgres.NewUserRepository(conn),
			tasks: postgres.NewTaskRepository(conn),
			logs:  postgres.NewStudyLogRepository(conn),
		}, nil

	default:
		s, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return repositories{}, fmt.Errorf("sqlite: %w", err)
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return repositories{s.Users(), s.Tasks(), s.StudyLogs()}, nil
	}
}
