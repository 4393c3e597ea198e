package config

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cognicore/rulesai/pkg/rulesai/inference/simple"
	"github.com/cognicore/rulesai/pkg/rulesai/rules"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
	"github.com/cognicore/rulesai/pkg/rulesai/store/memstore"
	"github.com/cognicore/rulesai/pkg/rulesai/store/sqlite"
	"github.com/cognicore/rulesai/pkg/rulesai/world"
)

// Loader loads the files a configuration names and constructs components
type Loader struct {
	Config *Config
	Logger *zap.Logger
	Store  store.Store // reused instead of opening the configured trace store
}

// Components holds all loaded components. The caller owns Store and must
// close it.
type Components struct {
	Program *rules.Program
	Host    *world.Host
	Engine  *simple.Engine
	Store   store.Store
}

// Load reads the rule program and world snapshot, then builds the engine
// and trace store.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	cfg := l.Config
	if cfg == nil {
		cfg = Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	comp := &Components{}

	// Load rules
	prog, err := rules.LoadProgramFile(cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	comp.Program = prog

	// Load world
	snap, err := world.LoadSnapshot(cfg.World)
	if err != nil {
		return nil, fmt.Errorf("load world: %w", err)
	}
	comp.Host = world.NewHost(snap, cfg.UnitCosts())

	// Engine
	scoping, _ := simple.ParseScoping(cfg.Scoping)
	opts := []simple.Option{simple.WithScoping(scoping), simple.WithLogger(logger.Named("engine"))}
	if cfg.Seed != 0 {
		opts = append(opts, simple.WithSeed(cfg.Seed))
	}
	comp.Engine = simple.New(opts...)

	// Trace store
	switch {
	case l.Store != nil:
		comp.Store = l.Store
	case cfg.Trace.Path != "":
		st, err := sqlite.OpenSQLite(ctx, cfg.Trace.Path)
		if err != nil {
			return nil, fmt.Errorf("open trace store: %w", err)
		}
		comp.Store = st
	default:
		comp.Store = memstore.New()
	}

	logger.Debug("components loaded",
		zap.String("rules", cfg.Rules),
		zap.Int("clauses", prog.Len()),
		zap.String("world", cfg.World),
		zap.Int("units", len(snap.Units)),
		zap.Stringer("scoping", scoping),
	)
	return comp, nil
}
