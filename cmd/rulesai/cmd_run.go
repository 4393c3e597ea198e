package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/rulesai/pkg/rulesai"
	"github.com/cognicore/rulesai/pkg/rulesai/config"
	"github.com/cognicore/rulesai/pkg/rulesai/maintenance"
	"github.com/cognicore/rulesai/pkg/rulesai/world"
)

var (
	cycles       int
	saveWorld    string
	observedOnly bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run decision cycles and print the actions",
	Long: `Runs --cycles decision cycles against the world snapshot. Units given an
action become busy for the following cycles. Use --save-world to write the
resulting snapshot.`,
	RunE: runRun,
}

var factsCmd = &cobra.Command{
	Use:   "facts",
	Short: "Print the knowledge store after one decision cycle",
	RunE:  runFacts,
}

func init() {
	runCmd.Flags().IntVarP(&cycles, "cycles", "n", 0, "number of cycles (default from config, else 1)")
	runCmd.Flags().StringVar(&saveWorld, "save-world", "", "write the final snapshot to this file")
	factsCmd.Flags().BoolVar(&observedOnly, "observed", false, "print the host observation without deciding")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	if cycles > 0 {
		cfg.Cycles = cycles
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Store.Close()

	if _, err := runCycles(ctx, cmd.OutOrStdout(), cfg, comp); err != nil {
		return err
	}

	if saveWorld != "" {
		if err := world.WriteSnapshot(saveWorld, comp.Host.Snapshot()); err != nil {
			return fmt.Errorf("save world: %w", err)
		}
		logger.Info("world saved", zap.String("path", saveWorld))
	}
	return nil
}

func runFacts(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	comp, err := (&config.Loader{Config: cfg, Logger: logger}).Load(ctx)
	if err != nil {
		return err
	}
	defer comp.Store.Close()

	exporter := maintenance.FactExporter{Writer: maintenance.StreamWriter{W: cmd.OutOrStdout()}}
	if observedOnly {
		facts, err := comp.Host.Observe(ctx)
		if err != nil {
			return err
		}
		return exporter.Export(ctx, facts)
	}

	cfg.Cycles = 1
	agent, err := runCycles(ctx, io.Discard, cfg, comp)
	if err != nil {
		return err
	}
	return exporter.Export(ctx, agent.Knowledge().Facts())
}

// runCycles drives cfg.Cycles decision cycles, marks acting units busy
// between cycles and prunes the trace after each one.
func runCycles(ctx context.Context, out io.Writer, cfg *config.Config, comp *config.Components) (*rulesai.Agent, error) {
	agent, err := rulesai.New(rulesai.Options{
		Program: comp.Program,
		Host:    comp.Host,
		Engine:  comp.Engine,
		Store:   comp.Store,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	if err := agent.Resume(ctx); err != nil {
		return nil, err
	}

	pruner := &maintenance.Pruner{Store: comp.Store, Keep: cfg.Trace.KeepCycles, Logger: logger}
	for i := 0; i < cfg.Cycles; i++ {
		c, err := agent.Decide(ctx)
		if err != nil {
			return agent, fmt.Errorf("cycle %d: %w", i+1, err)
		}
		printCycle(out, c)
		comp.Host.Apply(c.Actions)

		if _, err := pruner.Prune(ctx); err != nil {
			logger.Warn("prune failed", zap.Error(err))
		}
	}

	stats := comp.Engine.Stats()
	logger.Debug("engine stats",
		zap.Int("solves", stats.Solves),
		zap.Int("derivations", stats.Derivations),
		zap.Int("candidates", stats.Candidates),
		zap.Int("backtracks", stats.Backtracks),
		zap.Int("negation_failures", stats.NegationFailures),
	)
	return agent, nil
}

func printCycle(out io.Writer, c rulesai.Cycle) {
	fmt.Fprintf(out, "cycle %d: %d actions, %d derived (%d facts observed)\n",
		c.Number, len(c.Actions), len(c.Derived), c.Observed)
	for _, r := range c.Derived {
		fmt.Fprintf(out, "  derived %s\n", r)
	}
	for _, r := range c.Actions {
		fmt.Fprintf(out, "  action  %s\n", r)
	}
}
