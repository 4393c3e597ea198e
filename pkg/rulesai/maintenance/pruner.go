package maintenance

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/rulesai/pkg/rulesai/store"
)

// Pruner drops decision traces older than the most recent Keep cycles.
type Pruner struct {
	Store  store.Store
	Keep   int
	Logger *zap.Logger
}

// PruneResult summarizes a pruning run.
type PruneResult struct {
	LastCycle int64
	Cutoff    int64
	Deleted   int64
}

// Prune deletes every decision recorded before the retained window. Keep <= 0
// retains everything.
func (p *Pruner) Prune(ctx context.Context) (PruneResult, error) {
	var res PruneResult
	if p.Store == nil {
		return res, errors.New("pruner: invalid configuration")
	}
	if p.Keep <= 0 {
		return res, nil
	}

	last, ok, err := p.Store.LastCycle(ctx)
	if err != nil {
		return res, fmt.Errorf("pruner: last cycle: %w", err)
	}
	if !ok {
		return res, nil
	}
	res.LastCycle = last
	res.Cutoff = last - int64(p.Keep) + 1
	if res.Cutoff <= 0 {
		res.Cutoff = 0
		return res, nil
	}

	n, err := p.Store.DeleteBefore(ctx, res.Cutoff)
	if err != nil {
		return res, fmt.Errorf("pruner: delete before %d: %w", res.Cutoff, err)
	}
	res.Deleted = n
	if p.Logger != nil && n > 0 {
		p.Logger.Debug("pruned decisions", zap.Int64("before_cycle", res.Cutoff), zap.Int64("deleted", n))
	}
	return res, nil
}
