// Package sqlite implements the application repository interfaces on top
// of a SQLite database (modernc.org/sqlite, pure Go).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/village-api/internal/application"
	"github.com/example/village-api/internal/persistence"
	_ "modernc.org/sqlite"
)

// Storage bundles the database handle behind every repository in this
// package. One Storage value satisfies all application repository
// interfaces.
type Storage struct {
	db *sql.DB
}

// Open opens (or creates) the database at the given DSN with foreign key
// enforcement enabled.
func Open(dsn string) (*Storage, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	return &Storage{db: db}, nil
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Storage) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	disabled INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS auth_sessions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL REFERENCES users(id),
	token TEXT NOT NULL UNIQUE,
	expires_at TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	revoked_at TEXT
);

CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	owner_player_id TEXT,
	winning_team TEXT,
	created_at TEXT NOT NULL,
	started_at TEXT,
	ended_at TEXT
);

CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL REFERENCES games(id),
	user_id TEXT NOT NULL REFERENCES users(id),
	is_owner INTEGER NOT NULL DEFAULT 0,
	team TEXT NOT NULL,
	position INTEGER NOT NULL,
	created_at TEXT NOT NULL,
	withdrawn_at TEXT,
	UNIQUE (game_id, user_id)
);

CREATE TABLE IF NOT EXISTS roles (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	kind TEXT NOT NULL UNIQUE,
	team TEXT NOT NULL,
	max_count INTEGER
);

CREATE TABLE IF NOT EXISTS residents (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL REFERENCES games(id),
	role_id TEXT NOT NULL REFERENCES roles(id),
	eliminated_at TEXT
);

CREATE TABLE IF NOT EXISTS huts (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL REFERENCES games(id),
	resident_id TEXT NOT NULL UNIQUE REFERENCES residents(id),
	position INTEGER NOT NULL,
	is_visited INTEGER NOT NULL DEFAULT 0,
	eliminated_at TEXT
);

CREATE TABLE IF NOT EXISTS turns (
	id TEXT PRIMARY KEY,
	game_id TEXT NOT NULL REFERENCES games(id),
	number INTEGER NOT NULL,
	phase INTEGER NOT NULL,
	is_active INTEGER NOT NULL DEFAULT 1,
	grand_inquisitor_id TEXT NOT NULL REFERENCES players(id),
	current_player_id TEXT REFERENCES players(id),
	created_at TEXT NOT NULL,
	UNIQUE (game_id, number)
);

CREATE UNIQUE INDEX IF NOT EXISTS turns_one_active
	ON turns (game_id) WHERE is_active = 1;

CREATE TABLE IF NOT EXISTS actions (
	id TEXT PRIMARY KEY,
	turn_id TEXT NOT NULL REFERENCES turns(id),
	player_id TEXT NOT NULL REFERENCES players(id),
	resident_id TEXT NOT NULL REFERENCES residents(id),
	created_at TEXT NOT NULL,
	UNIQUE (turn_id, player_id),
	UNIQUE (turn_id, resident_id)
);

CREATE TABLE IF NOT EXISTS action_targets (
	id TEXT PRIMARY KEY,
	action_id TEXT NOT NULL REFERENCES actions(id),
	player_id TEXT REFERENCES players(id),
	hut_id TEXT REFERENCES huts(id)
);

CREATE TABLE IF NOT EXISTS votes (
	id TEXT PRIMARY KEY,
	turn_id TEXT NOT NULL REFERENCES turns(id),
	player_id TEXT NOT NULL REFERENCES players(id),
	hut_id TEXT REFERENCES huts(id),
	created_at TEXT NOT NULL,
	removed_at TEXT
);
`

// Migrate creates the schema when absent and seeds the role catalog.
func (s *Storage) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return s.seedRoles(ctx)
}

// seedRoles inserts the static role catalog. Role IDs derive from the
// kind so reruns are no-ops and foreign keys stay stable across restarts.
func (s *Storage) seedRoles(ctx context.Context) error {
	for _, def := range application.RoleCatalog() {
		var maxCount sql.NullInt64
		if def.MaxCount != nil {
			maxCount = sql.NullInt64{Int64: int64(*def.MaxCount), Valid: true}
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO roles (id, name, kind, team, max_count)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (kind) DO NOTHING
		`, "role-"+string(def.Kind), def.Name, string(def.Kind), string(def.Team), maxCount)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", def.Kind, err)
		}
	}
	return nil
}

// withTx executes fn inside a transaction, rolling back on error.
func (s *Storage) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// mapError translates driver errors into persistence sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return persistence.ErrNotFound
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"),
		strings.Contains(msg, "CHECK constraint failed"):
		return fmt.Errorf("%w: %v", persistence.ErrConstraintViolation, err)
	}
	return err
}

// --- timestamp and null helpers ---

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}

func formatNullTime(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(value sql.NullString) (*time.Time, error) {
	if !value.Valid {
		return nil, nil
	}
	t, err := parseTime(value.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullString(value *string) sql.NullString {
	if value == nil || *value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func fromNullString(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
