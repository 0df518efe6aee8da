package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"helios-hq/mercury/pkg/race"
)

// Store persists race outcomes to SQLite. It implements race.Recorder, so it
// plugs straight into the coordinator; recording failures are logged and
// never propagate into request handling.
type Store struct {
	db        *sql.DB
	dbPath    string
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewStore opens (or creates) the race history database at the given path.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}

	// WAL keeps readers (the stats command) from blocking the recorder.
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		logger: slog.Default().With("component", "history"),
	}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the database schema if it doesn't exist.
func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS races (
		id TEXT PRIMARY KEY,
		method TEXT NOT NULL,
		path TEXT NOT NULL,
		result TEXT NOT NULL,
		winner_endpoint TEXT,
		started_at INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attempts (
		race_id TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		outcome TEXT NOT NULL,
		stage TEXT,
		status INTEGER,
		elapsed_ms INTEGER NOT NULL,
		won INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_races_started_at ON races(started_at);
	CREATE INDEX IF NOT EXISTS idx_attempts_race_id ON attempts(race_id);
	CREATE INDEX IF NOT EXISTS idx_attempts_endpoint ON attempts(endpoint);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRace implements race.Recorder.
func (s *Store) RecordRace(rec race.RaceRecord) {
	_, err := s.db.Exec(
		`INSERT INTO races (id, method, path, result, winner_endpoint, started_at, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Method,
		rec.Path,
		string(rec.Result),
		rec.WinnerEndpoint,
		rec.StartedAt.Unix(),
		rec.Elapsed.Milliseconds(),
	)
	if err != nil {
		s.logger.Warn("failed to record race", "race_id", rec.ID, "error", err)
	}
}

// RecordAttempt implements race.Recorder.
func (s *Store) RecordAttempt(rec race.AttemptRecord) {
	won := 0
	if rec.Won {
		won = 1
	}
	_, err := s.db.Exec(
		`INSERT INTO attempts (race_id, endpoint, outcome, stage, status, elapsed_ms, won)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RaceID,
		rec.Endpoint,
		rec.Outcome,
		rec.Stage,
		rec.Status,
		rec.Elapsed.Milliseconds(),
		won,
	)
	if err != nil {
		s.logger.Warn("failed to record attempt", "race_id", rec.RaceID, "error", err)
	}
}

// Prune deletes races (and their attempts) that started before the retention
// window. It returns the number of races deleted.
func (s *Store) Prune(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays).Unix()

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM attempts WHERE race_id IN (SELECT id FROM races WHERE started_at < ?)`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM races WHERE started_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune races: %w", err)
	}
	deleted, _ := res.RowsAffected()
	return deleted, nil
}

// Close closes the database.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.db.Close()
	})
	return err
}
