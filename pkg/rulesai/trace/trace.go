package trace

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/rules"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
)

// Builder turns derived rules into trace records with ULID identifiers.
type Builder struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// New creates a new decision builder
func New() *Builder {
	return &Builder{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// Build records rule, derived by clause as the seq-th decision of cycle.
func (b *Builder) Build(cycle int64, seq int, clause rules.Clause, rule inference.Rule) store.Decision {
	b.mu.Lock()
	at := b.now()
	id := ulid.MustNew(ulid.Timestamp(at), b.entropy).String()
	b.mu.Unlock()

	params := make([]string, len(rule.Params))
	for i, p := range rule.Params {
		params[i] = string(p)
	}

	return store.Decision{
		ID:        id,
		Cycle:     cycle,
		Seq:       seq,
		Line:      clause.Line,
		Clause:    clause.Text,
		Functor:   string(rule.Functor),
		Action:    rule.IsAction(),
		Params:    params,
		Actor:     inference.RefString(rule.Actor),
		Resource:  inference.RefString(rule.Resource),
		Target:    inference.RefString(rule.Target),
		DecidedAt: at,
	}
}
