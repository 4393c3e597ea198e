package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu      sync.RWMutex
	byCycle map[int64][]store.Decision
	ids     map[string]struct{}
	closed  bool
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		byCycle: make(map[int64][]store.Decision),
		ids:     make(map[string]struct{}),
	}
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// RecordDecision appends a decision. IDs must be unique.
func (s *Store) RecordDecision(ctx context.Context, d store.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return internalerr.ErrStoreUnavailable
	}
	if d.ID == "" {
		return internalerr.ErrInvalidInput
	}
	if _, ok := s.ids[d.ID]; ok {
		return internalerr.ErrDuplicate
	}
	s.ids[d.ID] = struct{}{}
	s.byCycle[d.Cycle] = append(s.byCycle[d.Cycle], copyDecision(d))
	return nil
}

// Decisions returns a cycle's decisions ordered by sequence.
func (s *Store) Decisions(ctx context.Context, cycle int64) ([]store.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	src := s.byCycle[cycle]
	out := make([]store.Decision, len(src))
	for i, d := range src {
		out[i] = copyDecision(d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Recent returns up to limit decisions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]store.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, internalerr.ErrStoreUnavailable
	}
	if limit <= 0 {
		limit = 20
	}

	var all []store.Decision
	for _, ds := range s.byCycle {
		all = append(all, ds...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Cycle != all[j].Cycle {
			return all[i].Cycle > all[j].Cycle
		}
		return all[i].Seq > all[j].Seq
	})
	if len(all) > limit {
		all = all[:limit]
	}

	out := make([]store.Decision, len(all))
	for i, d := range all {
		out[i] = copyDecision(d)
	}
	return out, nil
}

// LastCycle returns the highest recorded cycle number.
func (s *Store) LastCycle(ctx context.Context) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, false, internalerr.ErrStoreUnavailable
	}
	var (
		last  int64
		found bool
	)
	for c := range s.byCycle {
		if !found || c > last {
			last, found = c, true
		}
	}
	return last, found, nil
}

// DeleteBefore drops decisions from cycles older than cycle.
func (s *Store) DeleteBefore(ctx context.Context, cycle int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, internalerr.ErrStoreUnavailable
	}
	var removed int64
	for c, ds := range s.byCycle {
		if c >= cycle {
			continue
		}
		for _, d := range ds {
			delete(s.ids, d.ID)
		}
		removed += int64(len(ds))
		delete(s.byCycle, c)
	}
	return removed, nil
}

func copyDecision(d store.Decision) store.Decision {
	if d.Params != nil {
		params := make([]string, len(d.Params))
		copy(params, d.Params)
		d.Params = params
	}
	return d
}
