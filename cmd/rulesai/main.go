// Command rulesai runs rule programs against world snapshots and inspects
// the decisions they produce.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cognicore/rulesai/pkg/rulesai/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
	rulesPath  string
	worldPath  string
	tracePath  string
	scoping    string
	seed       int64

	logger  = zap.NewNop()
	logSink = "stderr"
)

var rootCmd = &cobra.Command{
	Use:   "rulesai",
	Short: "Rule-based decision agent",
	Long: `rulesai evaluates a rule program against a world snapshot.

Each decision cycle observes the world, then solves every rule line in order
by randomized backtracking unification. Action rules are reported to the
caller; relational rules are asserted back so later lines can use them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger(config.Default().Log.Level)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	pf.StringVarP(&configPath, "config", "c", "", "agent configuration file (YAML)")
	pf.StringVar(&rulesPath, "rules", "", "rule program file")
	pf.StringVar(&worldPath, "world", "", "world snapshot (.yaml, .json, optionally .zst)")
	pf.StringVar(&tracePath, "trace", "", "SQLite decision trace database")
	pf.StringVar(&scoping, "scoping", "", "binding rollback: all or last")
	pf.Int64Var(&seed, "seed", 0, "random seed (0 = clock)")

	rootCmd.AddCommand(checkCmd, runCmd, factsCmd, traceCmd, watchCmd)
}

// setupLogger replaces the global logger with a production logger at level.
// --verbose always selects debug.
func setupLogger(level string) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	zcfg.OutputPaths = []string{logSink}
	zcfg.ErrorOutputPaths = []string{logSink}
	l, err := zcfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	_ = logger.Sync()
	logger = l
	return nil
}

// resolveConfig loads --config when given, applies the flag overrides and
// sets the log level from the result.
func resolveConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if rulesPath != "" {
		cfg.Rules = rulesPath
	}
	if worldPath != "" {
		cfg.World = worldPath
	}
	if tracePath != "" {
		cfg.Trace.Path = tracePath
	}
	if scoping != "" {
		cfg.Scoping = scoping
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := setupLogger(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
