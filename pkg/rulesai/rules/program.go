package rules

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CommentPrefix marks a line the loader ignores.
const CommentPrefix = "#"

// Program is an ordered, immutable list of parsed rule lines. Line order is
// significant: later clauses observe facts derived by earlier ones.
type Program struct {
	clauses []Clause
}

// LoadProgram reads a rule program. Blank lines and comment lines are
// skipped. Every malformed line is reported; if any line fails the whole
// program is rejected.
func LoadProgram(r io.Reader) (*Program, error) {
	scanner := bufio.NewScanner(r)
	lineNum := 0

	var (
		clauses []Clause
		errs    []error
	)
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || strings.HasPrefix(trimmed, CommentPrefix) {
			continue
		}

		clause, err := parseLine(lineNum, trimmed)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		clauses = append(clauses, clause)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Program{clauses: clauses}, nil
}

// LoadProgramFile loads a rule program from disk.
func LoadProgramFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := LoadProgram(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// MustParse builds a program from literal lines and panics on error.
func MustParse(lines ...string) *Program {
	p, err := LoadProgram(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		panic(err)
	}
	return p
}

// Clauses returns the parsed clauses in program order.
func (p *Program) Clauses() []Clause {
	out := make([]Clause, len(p.clauses))
	copy(out, p.clauses)
	return out
}

// Lines returns the raw text of each clause in program order.
func (p *Program) Lines() []string {
	out := make([]string, len(p.clauses))
	for i, c := range p.clauses {
		out[i] = c.Text
	}
	return out
}

// Len is the number of clauses.
func (p *Program) Len() int { return len(p.clauses) }
