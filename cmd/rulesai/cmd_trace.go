package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cognicore/rulesai/pkg/rulesai/config"
	"github.com/cognicore/rulesai/pkg/rulesai/store"
	"github.com/cognicore/rulesai/pkg/rulesai/store/sqlite"
)

var (
	traceCycle int64
	traceLimit int
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "List recorded decisions",
	Long: `Lists decisions from the SQLite trace (--trace or trace.path in --config).
With --cycle, prints that cycle in order; otherwise the most recent decisions.`,
	RunE: runTrace,
}

func init() {
	traceCmd.Flags().Int64Var(&traceCycle, "cycle", 0, "show a single cycle")
	traceCmd.Flags().IntVar(&traceLimit, "limit", 20, "number of recent decisions")
}

func runTrace(cmd *cobra.Command, args []string) error {
	path := tracePath
	if path == "" && configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		path = cfg.Trace.Path
	}
	if path == "" {
		return errors.New("no trace database: set --trace or trace.path")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := sqlite.OpenSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer st.Close()

	var rows []store.Decision
	if traceCycle > 0 {
		rows, err = st.Decisions(ctx, traceCycle)
	} else {
		rows, err = st.Recent(ctx, traceLimit)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No decisions recorded")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CYCLE\tSEQ\tLINE\tKIND\tFUNCTOR\tPARAMS\tACTOR\tRESOURCE\tTARGET\tID")
	for _, d := range rows {
		kind := "fact"
		if d.Action {
			kind = "action"
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Cycle, d.Seq, d.Line, kind, d.Functor, strings.Join(d.Params, ","),
			dash(d.Actor), dash(d.Resource), dash(d.Target), d.ID)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
