package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS decisions (
	id TEXT PRIMARY KEY,
	cycle INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	line INTEGER NOT NULL,
	clause TEXT NOT NULL,
	functor TEXT NOT NULL,
	action INTEGER NOT NULL DEFAULT 0,
	params TEXT NOT NULL DEFAULT '[]',
	actor TEXT,
	resource TEXT,
	target TEXT,
	decided_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_decisions_cycle ON decisions(cycle, seq);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// RecordDecision inserts a decision row.
func (s *sqliteStore) RecordDecision(ctx context.Context, d store.Decision) error {
	if d.ID == "" {
		return internalerr.ErrInvalidInput
	}
	params := d.Params
	if params == nil {
		params = []string{}
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	const stmt = `
INSERT INTO decisions (id, cycle, seq, line, clause, functor, action, params, actor, resource, target, decided_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO NOTHING;
`
	res, err := s.db.ExecContext(ctx, stmt,
		d.ID,
		d.Cycle,
		d.Seq,
		d.Line,
		d.Clause,
		d.Functor,
		boolToInt(d.Action),
		string(paramsJSON),
		nullString(d.Actor),
		nullString(d.Resource),
		nullString(d.Target),
		d.DecidedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return internalerr.ErrDuplicate
	}
	return nil
}

// Decisions returns a cycle's decisions ordered by sequence.
func (s *sqliteStore) Decisions(ctx context.Context, cycle int64) ([]store.Decision, error) {
	rows, err := s.db.QueryContext(ctx, selectDecisions+`
WHERE cycle = ?
ORDER BY seq ASC;
`, cycle)
	if err != nil {
		return nil, err
	}
	return scanDecisions(rows)
}

// Recent returns up to limit decisions, newest first.
func (s *sqliteStore) Recent(ctx context.Context, limit int) ([]store.Decision, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, selectDecisions+`
ORDER BY cycle DESC, seq DESC
LIMIT ?;
`, limit)
	if err != nil {
		return nil, err
	}
	return scanDecisions(rows)
}

// LastCycle returns the highest recorded cycle number.
func (s *sqliteStore) LastCycle(ctx context.Context) (int64, bool, error) {
	var last sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(cycle) FROM decisions`).Scan(&last); err != nil {
		return 0, false, err
	}
	return last.Int64, last.Valid, nil
}

// DeleteBefore removes decisions from cycles older than cycle.
func (s *sqliteStore) DeleteBefore(ctx context.Context, cycle int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decisions WHERE cycle < ?`, cycle)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const selectDecisions = `
SELECT id, cycle, seq, line, clause, functor, action, params, actor, resource, target, decided_at
FROM decisions`

func scanDecisions(rows *sql.Rows) ([]store.Decision, error) {
	defer rows.Close()

	var out []store.Decision
	for rows.Next() {
		var (
			d                       store.Decision
			action                  int
			paramsJSON, decidedAt   string
			actor, resource, target sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Cycle, &d.Seq, &d.Line, &d.Clause, &d.Functor,
			&action, &paramsJSON, &actor, &resource, &target, &decidedAt); err != nil {
			return nil, err
		}
		d.Action = action != 0
		d.Actor, d.Resource, d.Target = actor.String, resource.String, target.String
		if err := json.Unmarshal([]byte(paramsJSON), &d.Params); err != nil {
			return nil, fmt.Errorf("decode params for %s: %w", d.ID, err)
		}
		if t, err := time.Parse(time.RFC3339Nano, decidedAt); err == nil {
			d.DecidedAt = t
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
