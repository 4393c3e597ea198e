package store

import (
	"context"
	"time"
)

// Store persists the decisions an agent derives, one record per successful
// rule line per cycle.
type Store interface {
	Close() error

	RecordDecision(ctx context.Context, d Decision) error
	Decisions(ctx context.Context, cycle int64) ([]Decision, error)
	Recent(ctx context.Context, limit int) ([]Decision, error)
	LastCycle(ctx context.Context) (int64, bool, error)

	// DeleteBefore removes every decision from cycles older than cycle and
	// returns how many were removed.
	DeleteBefore(ctx context.Context, cycle int64) (int64, error)
}

// Decision is a derived rule as recorded in the trace.
type Decision struct {
	ID        string // ULID, sortable by creation time
	Cycle     int64
	Seq       int // position within the cycle
	Line      int // source line of the clause
	Clause    string
	Functor   string
	Action    bool
	Params    []string
	Actor     string
	Resource  string
	Target    string
	DecidedAt time.Time
}
