// Package dealiasdb persists dealiasing run summaries to sqlite so past
// runs can be inspected without rerunning the engine.
package dealiasdb

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/velocity.report/internal/dealias"
)

//go:embed schema.sql
var schemaSQL string

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a sqlite-backed database of dealiasing run summaries.
type Store struct {
	db *sql.DB
}

// applyPragmas sets the WAL/synchronous/busy-timeout PRAGMAs the engine
// relies on for safe concurrent access from a long-running process.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("failed to execute %q: %w", p, err)
		}
	}
	return nil
}

// Open opens (creating if necessary) a sqlite database at path, applies
// schema.sql on a fresh database, and migrates it to the latest version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dealiasdb: open %q: %w", path, err)
	}
	if err := applyPragmas(db); err != nil {
		return nil, err
	}

	var exists bool
	err = db.QueryRow(`SELECT COUNT(*) > 0 FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("dealiasdb: checking schema_migrations: %w", err)
	}
	if !exists {
		if _, err := db.Exec(schemaSQL); err != nil {
			return nil, fmt.Errorf("dealiasdb: initializing schema: %w", err)
		}
	}

	store := &Store{db: db}
	if err := store.migrateUp(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) migrateUp() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("dealiasdb: migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("dealiasdb: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("dealiasdb: migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("dealiasdb: migrate up: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Run is a persisted dealiasing run summary, keyed by a generated run ID.
type Run struct {
	RunID       string
	SweepLabel  string
	Nyquist     float64
	Stats       dealias.RunStats
	CreatedUnix int64
}

// SaveRun persists stats for one dealiasing run under the given run ID.
// Callers (internal/dealiasrun) are responsible for generating the ID.
func (s *Store) SaveRun(runID string, sweepLabel string, nyquist float64, stats dealias.RunStats, createdUnixNanos int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("dealiasdb: begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO dealias_runs (
			run_id, sweep_label, nyquist, region_count, masked_gate_count,
			edge_count, merge_count, centering_offset, residual_mean,
			residual_std_dev, duration_nanos, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, sweepLabel, nyquist, stats.RegionCount, stats.MaskedGateCount,
		stats.EdgeCount, stats.MergeCount, stats.CenteringOffset, stats.ResidualMean,
		stats.ResidualStdDev, int64(stats.Duration), createdUnixNanos,
	)
	if err != nil {
		return fmt.Errorf("dealiasdb: insert run: %w", err)
	}

	for r := 1; r <= stats.RegionCount; r++ {
		_, err = tx.Exec(`
			INSERT INTO dealias_run_regions (run_id, region_index, region_size, unwrap_number)
			VALUES (?, ?, ?, ?)`,
			runID, r, stats.RegionSizes[r], stats.UnwrapNumbers[r],
		)
		if err != nil {
			return fmt.Errorf("dealiasdb: insert region %d: %w", r, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("dealiasdb: commit: %w", err)
	}
	return nil
}

// ErrRunNotFound is returned by GetRun when no run matches the given ID.
var ErrRunNotFound = errors.New("dealiasdb: run not found")

// IsNotFound reports whether err is or wraps ErrRunNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// GetRun loads a previously persisted run by ID, including per-region
// size and unwrap number detail.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT sweep_label, nyquist, region_count, masked_gate_count, edge_count,
		       merge_count, centering_offset, residual_mean, residual_std_dev,
		       duration_nanos, created_unix_nanos
		FROM dealias_runs WHERE run_id = ?`, runID)

	run := &Run{RunID: runID}
	var durationNanos int64
	err := row.Scan(
		&run.SweepLabel, &run.Nyquist, &run.Stats.RegionCount, &run.Stats.MaskedGateCount,
		&run.Stats.EdgeCount, &run.Stats.MergeCount, &run.Stats.CenteringOffset,
		&run.Stats.ResidualMean, &run.Stats.ResidualStdDev, &durationNanos, &run.CreatedUnix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("dealiasdb: scan run: %w", err)
	}
	run.Stats.Duration = time.Duration(durationNanos)

	run.Stats.RegionSizes = make([]int, run.Stats.RegionCount+1)
	run.Stats.UnwrapNumbers = make([]int, run.Stats.RegionCount+1)

	rows, err := s.db.Query(`SELECT region_index, region_size, unwrap_number FROM dealias_run_regions WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("dealiasdb: query regions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idx, size, unwrap int
		if err := rows.Scan(&idx, &size, &unwrap); err != nil {
			return nil, fmt.Errorf("dealiasdb: scan region: %w", err)
		}
		if idx >= 0 && idx < len(run.Stats.RegionSizes) {
			run.Stats.RegionSizes[idx] = size
			run.Stats.UnwrapNumbers[idx] = unwrap
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dealiasdb: iterate regions: %w", err)
	}

	return run, nil
}

// ListRuns returns the most recently created runs, newest first, capped
// at limit.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(`
		SELECT run_id, sweep_label, nyquist, created_unix_nanos
		FROM dealias_runs ORDER BY created_unix_nanos DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("dealiasdb: list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.SweepLabel, &r.Nyquist, &r.CreatedUnix); err != nil {
			return nil, fmt.Errorf("dealiasdb: scan run summary: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dealiasdb: iterate run summaries: %w", err)
	}
	return runs, nil
}
