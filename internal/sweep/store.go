package sweep

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store keeps sweep results in a SQLite database.
type Store struct {
	db *sql.DB
}

// OpenStore opens (or creates) the database at path.
func OpenStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("sweep store: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			scenario TEXT NOT NULL,
			max_ticks INTEGER NOT NULL,
			started_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			min_flow REAL NOT NULL,
			max_compression REAL NOT NULL,
			flow_speed REAL NOT NULL,
			settle_tick INTEGER NOT NULL,
			ticks INTEGER NOT NULL,
			initial_liquid REAL NOT NULL,
			poured REAL NOT NULL,
			final_liquid REAL NOT NULL,
			drift REAL NOT NULL,
			wet INTEGER NOT NULL,
			settled INTEGER NOT NULL,
			elapsed_ms INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS results_run ON results(run_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// SaveRun records a sweep and its results, returning the run id.
func (s *Store) SaveRun(ctx context.Context, scenarioName string, maxTicks int, results []Result) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs(scenario, max_ticks, started_at) VALUES(?, ?, ?)`,
		scenarioName, maxTicks, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO results(
		run_id, min_flow, max_compression, flow_speed, settle_tick, ticks,
		initial_liquid, poured, final_liquid, drift, wet, settled, elapsed_ms
	) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()
	for _, r := range results {
		if _, err := stmt.ExecContext(ctx,
			runID, r.MinFlow, r.MaxCompression, r.FlowSpeed, r.SettleTick, r.Ticks,
			r.InitialLiquid, r.Poured, r.FinalLiquid, r.Drift, r.Wet, r.Settled, r.Elapsed.Milliseconds(),
		); err != nil {
			return 0, fmt.Errorf("insert result: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return runID, nil
}

// Best returns up to limit results of a run in rank order.
func (s *Store) Best(ctx context.Context, runID int64, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT
		min_flow, max_compression, flow_speed, settle_tick, ticks,
		initial_liquid, poured, final_liquid, drift, wet, settled, elapsed_ms
		FROM results WHERE run_id = ?
		ORDER BY (settle_tick < 0), settle_tick, abs(drift)
		LIMIT ?`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		var r Result
		var elapsedMS int64
		if err := rows.Scan(&r.MinFlow, &r.MaxCompression, &r.FlowSpeed, &r.SettleTick, &r.Ticks,
			&r.InitialLiquid, &r.Poured, &r.FinalLiquid, &r.Drift, &r.Wet, &r.Settled, &elapsedMS); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
