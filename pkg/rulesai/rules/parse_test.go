package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

func TestParseLineRoundTrip(t *testing.T) {
	c, err := ParseLine(`own(A,"x") :- idle(A,"x")`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}

	wantHead := inference.Atom{Functor: inference.Own, Terms: []inference.Term{"A", "x"}}
	if diff := cmp.Diff(wantHead, c.Head); diff != "" {
		t.Errorf("head mismatch (-want +got):\n%s", diff)
	}
	if !c.Head.Terms[0].IsVariable() || !c.Head.Terms[1].IsConstant() {
		t.Errorf("head term kinds wrong: %v", c.Head.Terms)
	}

	wantBody := []inference.Predicate{
		{Atom: inference.Atom{Functor: inference.Idle, Terms: []inference.Term{"A", "x"}}},
	}
	if diff := cmp.Diff(wantBody, c.Body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineCaseFolding(t *testing.T) {
	c, err := ParseLine(`doTrainWorker(x) :- enoughResourcesFor("WORKER"); ~ idle(x, "Base").`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}

	want := Clause{
		Text: `doTrainWorker(x) :- enoughResourcesFor("WORKER"); ~ idle(x, "Base").`,
		Head: inference.Atom{Functor: inference.DoTrainWorker, Terms: []inference.Term{"X"}},
		Body: []inference.Predicate{
			{Atom: inference.Atom{Functor: inference.EnoughResourcesFor, Terms: []inference.Term{"worker"}}},
			{Atom: inference.Atom{Functor: inference.Idle, Terms: []inference.Term{"X", "base"}}, Negated: true},
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("clause mismatch (-want +got):\n%s", diff)
	}
}

func TestParseLineEmptyHead(t *testing.T) {
	c, err := ParseLine(`doAttack() :- ~idle("worker")`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if len(c.Head.Terms) != 0 {
		t.Errorf("expected zero-arity head, got %v", c.Head)
	}
	if !c.Body[0].Negated {
		t.Error("expected negated predicate")
	}
}

func TestParseLineErrors(t *testing.T) {
	cases := map[string]string{
		"missing separator":   `doAttack(U) idle(U,"light")`,
		"double separator":    `doAttack(U) :- idle(U) :- own(U)`,
		"missing open paren":  `doAttack(U) :- idle`,
		"missing close paren": `doAttack(U) :- idle(U,"light"`,
		"unknown functor":     `doDance(U) :- idle(U,"light")`,
		"empty body":          `doAttack(U) :- `,
		"empty segment":       `doAttack(U) :- idle(U,"light");;own(U,"light")`,
		"empty body args":     `doAttack(U) :- idle()`,
		"empty argument":      `doAttack(U) :- idle(U,,"light")`,
		"unterminated quote":  `doAttack(U) :- idle(U,"light)`,
		"numeric literal":     `doAttack(U) :- idle(U,"42")`,
		"trailing text":       `doAttack(U) :- idle(U,"light") own`,
		"negated head":        `~doAttack(U) :- idle(U,"light")`,
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLine(line)
			if err == nil {
				t.Fatalf("expected error for %q", line)
			}
			if !errors.Is(err, internalerr.ErrParse) {
				t.Errorf("expected ErrParse, got %v", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if pe.Text != line {
				t.Errorf("error text = %q, want %q", pe.Text, line)
			}
		})
	}
}

func TestParseLineUnknownFunctorIsTyped(t *testing.T) {
	_, err := ParseLine(`doAttack(U) :- flying(U)`)
	if !errors.Is(err, internalerr.ErrUnknownFunctor) {
		t.Errorf("expected ErrUnknownFunctor in chain, got %v", err)
	}
}

func TestLoadProgram(t *testing.T) {
	src := `
# train a worker whenever a base is idle
doTrainWorker(X) :- enoughResourcesFor("worker"); idle(X,"base")

   # indented comment
doAttack(U) :- own(U,"light"); idle(U,"light").
`
	p, err := LoadProgram(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadProgram: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("expected 2 clauses, got %d", p.Len())
	}

	clauses := p.Clauses()
	if clauses[0].Line != 3 || clauses[1].Line != 6 {
		t.Errorf("line numbers = %d, %d", clauses[0].Line, clauses[1].Line)
	}
	if clauses[1].Head.Functor != inference.DoAttack {
		t.Errorf("second clause head = %v", clauses[1].Head)
	}

	lines := p.Lines()
	if lines[0] != `doTrainWorker(X) :- enoughResourcesFor("worker"); idle(X,"base")` {
		t.Errorf("unexpected raw line %q", lines[0])
	}
}

func TestLoadProgramReportsEveryBadLine(t *testing.T) {
	src := `doAttack(U) :- own(U,"light")
doAttack(U) own(U,"light")
idle(U) :-
doTrainWorker(X) :- idle(X,"base")`

	p, err := LoadProgram(strings.NewReader(src))
	if err == nil {
		t.Fatal("expected error")
	}
	if p != nil {
		t.Error("a program with malformed lines must be rejected")
	}
	for _, want := range []string{"line 2", "line 3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %s", err, want)
		}
	}
	if !errors.Is(err, internalerr.ErrParse) {
		t.Errorf("expected ErrParse, got %v", err)
	}
}

func TestClauseString(t *testing.T) {
	c, err := ParseLine(`doHarvest(W) :- idle(W,"worker"); ~enemy("base")`)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	again, err := ParseLine(c.String())
	if err != nil {
		t.Fatalf("reparse %q: %v", c.String(), err)
	}
	if diff := cmp.Diff(c.Body, again.Body); diff != "" {
		t.Errorf("String() does not round-trip (-first +second):\n%s", diff)
	}
}
