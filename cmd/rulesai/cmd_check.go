package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/rulesai/pkg/rulesai/rules"
)

var checkCmd = &cobra.Command{
	Use:   "check [file...]",
	Short: "Parse rule files and report every malformed line",
	Long: `Parses each rule file (or --rules when no file is given) and prints one
line per parse error. Exits non-zero when any file fails.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		if rulesPath == "" {
			return errors.New("no rule files given")
		}
		files = []string{rulesPath}
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, file := range files {
		prog, err := rules.LoadProgramFile(file)
		if err != nil {
			failed++
			for _, e := range flatten(err) {
				fmt.Fprintf(out, "ERROR %s: %v\n", file, e)
			}
			continue
		}
		fmt.Fprintf(out, "OK: %s (%d rules)\n", file, prog.Len())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(files))
	}
	return nil
}

// flatten expands errors.Join trees into their leaves so each parse error
// prints on its own line.
func flatten(err error) []error {
	var pe *rules.ParseError
	if errors.As(err, &pe) {
		if joined, ok := unwrapJoin(err); ok {
			var out []error
			for _, e := range joined {
				out = append(out, flatten(e)...)
			}
			return out
		}
		return []error{pe}
	}
	return []error{err}
}

func unwrapJoin(err error) ([]error, bool) {
	for err != nil {
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			if _, isParse := err.(*rules.ParseError); !isParse {
				return j.Unwrap(), true
			}
			return nil, false
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}
