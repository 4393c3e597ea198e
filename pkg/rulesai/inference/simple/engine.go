package simple

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

// FactSource supplies the facts a rule body is matched against. Facts must
// return a copy the engine is free to reorder.
type FactSource interface {
	Facts() []inference.Fact
}

// Scoping selects how bindings made by a rejected candidate are rolled back.
type Scoping int

const (
	// ScopeAllVariables undoes exactly the bindings a candidate introduced,
	// including when a negated predicate matches.
	ScopeAllVariables Scoping = iota
	// ScopeLastVariable removes the last variable scanned in the predicate
	// after a failed descent, even when it was bound by an earlier
	// predicate, and keeps the binding made by a matching negated predicate.
	ScopeLastVariable
)

func (s Scoping) String() string {
	switch s {
	case ScopeAllVariables:
		return "all"
	case ScopeLastVariable:
		return "last"
	}
	return "unknown"
}

// ParseScoping resolves "all" or "last". The empty string means
// ScopeAllVariables.
func ParseScoping(s string) (Scoping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return ScopeAllVariables, nil
	case "last":
		return ScopeLastVariable, nil
	}
	return 0, fmt.Errorf("%w: scoping %q", internalerr.ErrInvalidInput, s)
}

// Stats counts engine work since creation or the last ResetStats.
type Stats struct {
	Solves           int
	Derivations      int
	Candidates       int
	Backtracks       int
	NegationFailures int
}

// Engine solves rule bodies against a fact set by randomized backtracking
// unification. An Engine is not safe for concurrent use.
type Engine struct {
	rng     *rand.Rand
	scoping Scoping
	logger  *zap.Logger
	stats   Stats
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the source of fact-order permutations.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSeed seeds the permutation source for reproducible runs.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithScoping selects the rollback discipline.
func WithScoping(s Scoping) Option {
	return func(e *Engine) { e.scoping = s }
}

// WithLogger attaches a logger for per-solve debug output.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an engine. Without WithRand or WithSeed it is seeded from the
// clock.
func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	return e
}

// Scoping reports the configured rollback discipline.
func (e *Engine) Scoping() Scoping { return e.scoping }

// Stats returns the work counters.
func (e *Engine) Stats() Stats { return e.stats }

// ResetStats zeroes the work counters.
func (e *Engine) ResetStats() { e.stats = Stats{} }

// Solve searches for bindings that satisfy body and materializes head with
// them. The second result is false when no derivation exists; that is the
// normal outcome for a rule that does not currently apply.
func (e *Engine) Solve(head inference.Atom, body []inference.Predicate, facts FactSource) (inference.Rule, bool) {
	e.stats.Solves++
	rule, ok := e.solve(head, body, facts, Bindings{})
	if ok {
		e.stats.Derivations++
		e.logger.Debug("derived", zap.Stringer("rule", rule))
	} else {
		e.logger.Debug("no derivation", zap.Stringer("head", head))
	}
	return rule, ok
}

func (e *Engine) solve(head inference.Atom, body []inference.Predicate, facts FactSource, b Bindings) (inference.Rule, bool) {
	if len(body) == 0 {
		return Materialize(head, b), true
	}
	pred, rest := body[0], body[1:]

	// A fresh permutation per step keeps every predicate position unbiased.
	candidates := facts.Facts()
	e.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	for _, fact := range candidates {
		if fact.Functor != pred.Functor {
			continue
		}
		e.stats.Candidates++

		variable, ok := match(pred, fact, b)
		if !ok {
			continue
		}

		undo := e.bind(b, variable, fact.Actor)
		if pred.Negated {
			e.stats.NegationFailures++
			if e.scoping == ScopeAllVariables {
				undo()
			}
			return inference.Rule{}, false
		}

		if rule, ok := e.solve(head, rest, facts, b); ok {
			return rule, true
		}
		e.stats.Backtracks++
		undo()
	}

	if pred.Negated {
		return e.solve(head, rest, facts, b)
	}
	return inference.Rule{}, false
}

// match checks one candidate fact against a predicate. Constants must be
// contained in the fact; variables already bound must point at the fact's
// actor. It returns the last variable scanned.
func match(pred inference.Predicate, fact inference.Fact, b Bindings) (inference.Term, bool) {
	var last inference.Term
	for _, t := range pred.Terms {
		if t.IsConstant() {
			if !fact.HasConstant(t) {
				return "", false
			}
			continue
		}
		last = t
		if bound, ok := b[t]; ok && bound != fact.Actor {
			return "", false
		}
	}
	return last, true
}

// bind records actor under v and returns the matching rollback.
func (e *Engine) bind(b Bindings, v inference.Term, actor inference.Entity) func() {
	if v == "" {
		return func() {}
	}
	_, existed := b[v]
	if actor != nil {
		b[v] = actor
	}
	return func() {
		if e.scoping == ScopeLastVariable || (!existed && actor != nil) {
			delete(b, v)
		}
	}
}
