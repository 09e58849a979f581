package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/studyquest/studyquest/pkg/logger"
)

// ErrMigrationFailed wraps any failure to apply or revert a migration.
var ErrMigrationFailed = errors.New("postgres: migration failed")

// migrationsTable records applied versions.
const migrationsTable = "studyquest_migrations"

// migrationLockID serializes migrators of concurrent CLI invocations.
const migrationLockID = 0x5354_5144

// Migration is one schema step. AppliedAt is set by Status.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// GetMigrations returns the embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_users", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "create_tasks_and_study_logs", UpSQL: migration002Up, DownSQL: migration002Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migrator applies and reverts the embedded migrations. Each step runs in its
// own transaction under a transaction-scoped advisory lock.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	log        *logger.Logger
}

// NewMigrator creates a Migrator over the embedded migrations.
func NewMigrator(conn *Connection, log *logger.Logger) *Migrator {
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		log:        log.With(logger.Component("migrator")),
	}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS `+migrationsTable+` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrMigrationFailed, migrationsTable, err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.Query(ctx, "SELECT version, applied_at FROM "+migrationsTable)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMigrationFailed, migrationsTable, err)
	}
	defer rows.Close()

	out := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %v", ErrMigrationFailed, migrationsTable, err)
		}
		out[v] = at
	}
	return out, rows.Err()
}

// step runs sql and then the bookkeeping statement in one locked transaction.
// done reports whether another migrator already handled the version.
func (m *Migrator) step(ctx context.Context, version int, sql, check, record string, args ...any) (done bool, err error) {
	err = m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return err
		}
		var n int
		if err := tx.QueryRow(ctx, check, version).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			done = true
			return nil
		}
		if _, err := tx.Exec(ctx, sql); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, record, args...)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, version, err)
	}
	return done, nil
}

// Migrate applies every pending migration in order and returns the ones it
// applied.
func (m *Migrator) Migrate(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var ran []Migration
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		start := time.Now()
		skipped, err := m.step(ctx, mig.Version, mig.UpSQL,
			"SELECT 1 - count(*) FROM "+migrationsTable+" WHERE version = $1",
			"INSERT INTO "+migrationsTable+" (version, name) VALUES ($1, $2)", mig.Version, mig.Name)
		if err != nil {
			return ran, err
		}
		if skipped {
			continue
		}
		m.log.Info("migration applied", logger.Int("version", mig.Version), logger.String("name", mig.Name), logger.Latency(time.Since(start)))
		ran = append(ran, mig)
	}
	return ran, nil
}

// Rollback reverts the latest applied migration. It returns nil when nothing
// is applied.
func (m *Migrator) Rollback(ctx context.Context) (*Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	var latest int
	err := m.conn.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM "+migrationsTable).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrMigrationFailed, migrationsTable, err)
	}
	if latest == 0 {
		return nil, nil
	}

	var mig *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == latest {
			mig = &m.migrations[i]
		}
	}
	if mig == nil || mig.DownSQL == "" {
		return nil, fmt.Errorf("%w: no down SQL for version %d", ErrMigrationFailed, latest)
	}

	_, err = m.step(ctx, latest, mig.DownSQL,
		"SELECT count(*) FROM "+migrationsTable+" WHERE version = $1",
		"DELETE FROM "+migrationsTable+" WHERE version = $1", latest)
	if err != nil {
		return nil, err
	}
	m.log.Warn("migration reverted", logger.Int("version", mig.Version), logger.String("name", mig.Name))
	return mig, nil
}

// Status lists every embedded migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Migration, len(m.migrations))
	copy(out, m.migrations)
	for i := range out {
		if at, ok := applied[out[i].Version]; ok {
			out[i].IsApplied, out[i].AppliedAt = true, at
		}
	}
	return out, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE USERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Progression record, one row per account
CREATE TABLE IF NOT EXISTS users (
    username VARCHAR(64) PRIMARY KEY,
    password_hash TEXT NOT NULL DEFAULT '',
    nickname VARCHAR(100) NOT NULL DEFAULT '',

    xp INTEGER NOT NULL DEFAULT 0,
    coins INTEGER NOT NULL DEFAULT 0,

    -- Comma-separated unlock sets, always containing 'standard'
    unlocked_themes TEXT NOT NULL DEFAULT 'standard',
    unlocked_titles TEXT NOT NULL DEFAULT 'standard',
    unlocked_wallpapers TEXT NOT NULL DEFAULT 'standard',
    unlocked_bgms TEXT NOT NULL DEFAULT 'standard',

    current_theme TEXT NOT NULL DEFAULT 'standard',
    current_title TEXT NOT NULL DEFAULT 'standard',
    current_wallpaper TEXT NOT NULL DEFAULT 'standard',
    current_bgm TEXT NOT NULL DEFAULT 'standard',

    daily_goal INTEGER NOT NULL DEFAULT 60,
    last_goal_reward_date DATE,
    last_login_date DATE,

    main_text_color VARCHAR(7) NOT NULL DEFAULT '#31333F',
    accent_color VARCHAR(7) NOT NULL DEFAULT '#FF4B4B',

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_xp CHECK (xp >= 0),
    CONSTRAINT valid_coins CHECK (coins >= 0),
    CONSTRAINT valid_daily_goal CHECK (daily_goal > 0)
);

CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_users_updated_at ON users;
CREATE TRIGGER update_users_updated_at
    BEFORE UPDATE ON users
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_users_updated_at ON users;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS users;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE TASKS AND STUDY LOGS
// Dates are TEXT: rows written by other clients may carry full timestamps,
// which are normalized on read.
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    username VARCHAR(64) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    task_name TEXT NOT NULL,
    status VARCHAR(10) NOT NULL DEFAULT 'pending',
    due_date TEXT NOT NULL,
    priority VARCHAR(10) NOT NULL DEFAULT 'medium',
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_task_status CHECK (status IN ('pending', 'done')),
    CONSTRAINT valid_priority CHECK (priority IN ('high', 'medium', 'low'))
);

CREATE INDEX IF NOT EXISTS idx_tasks_username ON tasks(username);
CREATE INDEX IF NOT EXISTS idx_tasks_username_status ON tasks(username, status);

CREATE TABLE IF NOT EXISTS study_logs (
    id UUID PRIMARY KEY,
    username VARCHAR(64) NOT NULL REFERENCES users(username) ON DELETE CASCADE,
    subject TEXT NOT NULL,
    duration_minutes INTEGER NOT NULL,
    study_date TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_duration CHECK (duration_minutes > 0)
);

CREATE INDEX IF NOT EXISTS idx_study_logs_username ON study_logs(username);
CREATE INDEX IF NOT EXISTS idx_study_logs_username_date ON study_logs(username, study_date);
`

const migration002Down = `
DROP TABLE IF EXISTS study_logs;
DROP TABLE IF EXISTS tasks;
`
