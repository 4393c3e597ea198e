package rules

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

// Separators of the rule grammar:
//
//	HEAD :- PRED1 ; PRED2 ; ... ; PREDn
const (
	HeadSeparator = ":-"
	Conjunction   = ";"
	Negation      = "~"
)

// Clause is one parsed program line.
type Clause struct {
	Line int // 1-based source line, 0 when parsed standalone
	Text string
	Head inference.Atom
	Body []inference.Predicate
}

func (c Clause) String() string {
	parts := make([]string, len(c.Body))
	for i, p := range c.Body {
		parts[i] = p.String()
	}
	return c.Head.String() + " " + HeadSeparator + " " + strings.Join(parts, Conjunction+" ")
}

// ParseError reports a malformed program line. It matches
// internalerr.ErrParse with errors.Is.
type ParseError struct {
	Line   int
	Text   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Text)
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{internalerr.ErrParse, e.Err}
	}
	return []error{internalerr.ErrParse}
}

// ParseLine parses a single rule line.
func ParseLine(line string) (Clause, error) {
	return parseLine(0, line)
}

func parseLine(n int, line string) (Clause, error) {
	fail := func(reason string, err error) (Clause, error) {
		return Clause{}, &ParseError{Line: n, Text: line, Reason: reason, Err: err}
	}

	text := strings.TrimSpace(line)
	if text == "" {
		return fail("empty rule", nil)
	}
	parts := strings.Split(text, HeadSeparator)
	switch {
	case len(parts) < 2:
		return fail("missing "+HeadSeparator+" separator", nil)
	case len(parts) > 2:
		return fail("more than one "+HeadSeparator+" separator", nil)
	}

	head, err := parseAtom(parts[0], true)
	if err != nil {
		return fail("head: "+err.Error(), errors.Unwrap(err))
	}

	segments := strings.Split(parts[1], Conjunction)
	body := make([]inference.Predicate, 0, len(segments))
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return fail(fmt.Sprintf("predicate %d: empty", i+1), nil)
		}
		negated := strings.HasPrefix(seg, Negation)
		if negated {
			seg = strings.TrimSpace(seg[len(Negation):])
		}
		atom, err := parseAtom(seg, false)
		if err != nil {
			return fail(fmt.Sprintf("predicate %d: %v", i+1, err), errors.Unwrap(err))
		}
		body = append(body, inference.Predicate{Atom: atom, Negated: negated})
	}

	return Clause{Line: n, Text: line, Head: head, Body: body}, nil
}

// parseAtom parses functor(arg1,arg2,...). Heads may have an empty argument
// list; body predicates may not.
func parseAtom(seg string, allowEmpty bool) (inference.Atom, error) {
	seg = strings.TrimSpace(seg)
	open := strings.Index(seg, "(")
	if open == -1 {
		return inference.Atom{}, errors.New("missing '('")
	}
	closing := strings.Index(seg[open:], ")")
	if closing == -1 {
		return inference.Atom{}, errors.New("missing ')'")
	}
	closing += open

	functor, err := inference.ParseFunctor(seg[:open])
	if err != nil {
		return inference.Atom{}, fmt.Errorf("functor %q: %w", strings.TrimSpace(seg[:open]), internalerr.ErrUnknownFunctor)
	}

	if tail := seg[closing+1:]; !trailingPunct(tail) {
		return inference.Atom{}, fmt.Errorf("unexpected text after ')': %q", tail)
	}

	args := strings.TrimSpace(seg[open+1 : closing])
	if args == "" {
		if !allowEmpty {
			return inference.Atom{}, errors.New("empty argument list")
		}
		return inference.Atom{Functor: functor}, nil
	}

	fields := strings.Split(args, ",")
	terms := make([]inference.Term, 0, len(fields))
	for i, field := range fields {
		t, err := parseTerm(strings.TrimSpace(field))
		if err != nil {
			return inference.Atom{}, fmt.Errorf("argument %d: %w", i+1, err)
		}
		terms = append(terms, t)
	}
	return inference.Atom{Functor: functor, Terms: terms}, nil
}

// parseTerm classifies a single argument: quoted literals are constants,
// bare tokens are variables.
func parseTerm(tok string) (inference.Term, error) {
	if tok == "" {
		return "", errors.New("empty argument")
	}
	if tok[0] != '"' {
		if strings.ContainsRune(tok, '"') {
			return "", fmt.Errorf("stray quote in %s", tok)
		}
		return inference.Var(tok), nil
	}
	if len(tok) < 2 || tok[len(tok)-1] != '"' {
		return "", fmt.Errorf("unterminated literal %s", tok)
	}
	inner := tok[1 : len(tok)-1]
	if strings.ContainsRune(inner, '"') {
		return "", fmt.Errorf("stray quote in %s", tok)
	}
	t := inference.Const(inner)
	if !t.IsConstant() {
		return "", fmt.Errorf("literal %s must start with a letter", tok)
	}
	return t, nil
}

func trailingPunct(s string) bool {
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		if r == '(' || r == ')' || r == '"' || !unicode.IsPunct(r) {
			return false
		}
	}
	return true
}
