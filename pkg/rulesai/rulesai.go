package rulesai

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/inference/simple"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
	"github.com/cognicore/rulesai/pkg/rulesai/knowledge"
	"github.com/cognicore/rulesai/pkg/rulesai/rules"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
	"github.com/cognicore/rulesai/pkg/rulesai/trace"
)

// Host supplies the current state of the world as facts.
type Host interface {
	Observe(ctx context.Context) ([]inference.Fact, error)
}

// Agent is the decision-cycle facade: it refreshes the knowledge store from
// the host and runs every program clause through the engine once.
type Agent struct {
	mu      sync.Mutex
	program *rules.Program
	host    Host
	engine  *simple.Engine
	store   store.Store
	kb      *knowledge.Base
	trace   *trace.Builder
	logger  *zap.Logger
	cycle   int64
}

// Options configures an Agent instance
type Options struct {
	Program *rules.Program
	Host    Host
	Engine  *simple.Engine // defaults to a clock-seeded engine
	Store   store.Store    // optional decision trace
	Logger  *zap.Logger
}

// Cycle is the outcome of one Decide call.
type Cycle struct {
	Number   int64
	Observed int              // facts supplied by the host
	Actions  []inference.Rule // in program order
	Derived  []inference.Rule // relational rules asserted back into the store
}

// New creates an Agent with the given dependencies
func New(opts Options) (*Agent, error) {
	if opts.Program == nil {
		return nil, fmt.Errorf("rulesai: %w: nil program", internalerr.ErrInvalidInput)
	}
	if opts.Host == nil {
		return nil, fmt.Errorf("rulesai: %w: nil host", internalerr.ErrInvalidInput)
	}
	if opts.Engine == nil {
		opts.Engine = simple.New(simple.WithLogger(opts.Logger))
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Agent{
		program: opts.Program,
		host:    opts.Host,
		engine:  opts.Engine,
		store:   opts.Store,
		kb:      knowledge.New(opts.Program.Lines()),
		trace:   trace.New(),
		logger:  opts.Logger,
	}, nil
}

// Resume continues cycle numbering after the last cycle in the trace store.
func (a *Agent) Resume(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.store == nil {
		return nil
	}
	last, ok, err := a.store.LastCycle(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	if ok && last > a.cycle {
		a.cycle = last
	}
	return nil
}

// Decide runs one decision cycle. The host is observed exactly once; facts
// derived by earlier clauses and idle facts pruned by earlier actions are
// visible to later clauses of the same cycle.
func (a *Agent) Decide(ctx context.Context) (Cycle, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	facts, err := a.host.Observe(ctx)
	if err != nil {
		return Cycle{}, fmt.Errorf("observe: %w", err)
	}
	a.kb.Replace(facts)
	a.cycle++

	c := Cycle{Number: a.cycle, Observed: len(facts)}
	seq := 0
	for _, clause := range a.program.Clauses() {
		if err := ctx.Err(); err != nil {
			return c, err
		}

		rule, ok := a.engine.Solve(clause.Head, clause.Body, a.kb)
		if !ok {
			continue
		}

		if rule.IsAction() {
			c.Actions = append(c.Actions, rule)
			a.kb.RemoveIdle(rule.Actor)
		} else {
			c.Derived = append(c.Derived, rule)
			a.kb.AddFact(rule.Fact())
		}

		if a.store != nil {
			d := a.trace.Build(c.Number, seq, clause, rule)
			if err := a.store.RecordDecision(ctx, d); err != nil {
				return c, fmt.Errorf("record decision: %w", err)
			}
		}
		seq++
	}

	a.logger.Debug("cycle decided",
		zap.Int64("cycle", c.Number),
		zap.Int("observed", c.Observed),
		zap.Int("actions", len(c.Actions)),
		zap.Int("derived", len(c.Derived)),
	)
	return c, nil
}

// Cycle returns the number of the last completed cycle.
func (a *Agent) Cycle() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cycle
}

// Knowledge exposes the knowledge store as left by the last cycle. It must
// not be used while Decide runs.
func (a *Agent) Knowledge() *knowledge.Base {
	return a.kb
}

// Engine returns the engine, e.g. to read its Stats.
func (a *Agent) Engine() *simple.Engine {
	return a.engine
}
