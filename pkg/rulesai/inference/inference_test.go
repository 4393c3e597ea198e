package inference

import (
	"errors"
	"testing"

	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

type unit string

func (u *unit) Ref() string { return string(*u) }

func newUnit(id string) *unit {
	u := unit(id)
	return &u
}

func TestTermClassification(t *testing.T) {
	cases := []struct {
		term     Term
		constant bool
	}{
		{Const("Worker"), true},
		{Var("x"), false},
		{Term("base"), true},
		{Term("U"), false},
		{Term("_"), false},
		{Term("1"), false},
		{Term(""), false},
	}
	for _, tc := range cases {
		if got := tc.term.IsConstant(); got != tc.constant {
			t.Errorf("%q.IsConstant() = %v, want %v", tc.term, got, tc.constant)
		}
		if tc.term.IsVariable() == tc.constant {
			t.Errorf("%q.IsVariable() disagrees with IsConstant()", tc.term)
		}
	}
}

func TestParseFunctor(t *testing.T) {
	for _, f := range Functors() {
		got, err := ParseFunctor(string(f))
		if err != nil {
			t.Fatalf("ParseFunctor(%q): %v", f, err)
		}
		if got != f {
			t.Errorf("ParseFunctor(%q) = %q", f, got)
		}
	}

	if _, err := ParseFunctor("doDance"); !errors.Is(err, internalerr.ErrUnknownFunctor) {
		t.Errorf("expected ErrUnknownFunctor, got %v", err)
	}
	if _, err := ParseFunctor("Idle"); err == nil {
		t.Error("functor names should be case-sensitive")
	}
}

func TestActionSubset(t *testing.T) {
	actions := 0
	for _, f := range Functors() {
		if f.IsAction() {
			actions++
		}
	}
	if actions != 8 {
		t.Errorf("expected 8 action functors, got %d", actions)
	}
	if Idle.IsAction() || EnoughResourcesFor.IsAction() {
		t.Error("relational functors must not be actions")
	}
	if !DoHarvest.IsAction() {
		t.Error("doHarvest should be an action")
	}
}

func TestSlotLayouts(t *testing.T) {
	if n := DoHarvest.Slots().Len(); n != 3 {
		t.Errorf("doHarvest slots = %d, want 3", n)
	}
	if n := DoAttack.Slots().Len(); n != 1 {
		t.Errorf("doAttack slots = %d, want 1", n)
	}
	if n := Idle.Slots().Len(); n != 1 {
		t.Errorf("idle slots = %d, want 1", n)
	}

	a := newUnit("a")
	refs := DoAttack.Slots().Fill([]Entity{a})
	if refs.Actor != a || refs.Target != a {
		t.Errorf("doAttack should bind one reference as actor and target: %+v", refs)
	}

	w, r, b := newUnit("w"), newUnit("r"), newUnit("b")
	refs = DoHarvest.Slots().Fill([]Entity{w, r, b})
	if refs.Actor != w || refs.Resource != r || refs.Target != b {
		t.Errorf("doHarvest order wrong: %+v", refs)
	}

	refs = DoHarvest.Slots().Fill([]Entity{w})
	if refs.Actor != w || refs.Resource != nil || refs.Target != nil {
		t.Errorf("partial fill should only set the actor: %+v", refs)
	}
}

func TestNewFact(t *testing.T) {
	u := newUnit("u1")
	f, err := NewFact(Idle, []string{"Worker"}, u)
	if err != nil {
		t.Fatalf("NewFact: %v", err)
	}
	if f.Functor != Idle || len(f.Terms) != 1 || f.Terms[0] != "worker" {
		t.Errorf("unexpected fact: %v", f)
	}
	if f.Actor != u || !f.Bound() {
		t.Errorf("expected actor %v, got %v", u, f.Actor)
	}

	unbound, err := NewFact(EnoughResourcesFor, []string{"worker"})
	if err != nil {
		t.Fatalf("NewFact unbound: %v", err)
	}
	if unbound.Bound() {
		t.Error("fact without references should be unbound")
	}

	if _, err := NewFact(DoHarvest, []string{"x"}, u); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected slot count error, got %v", err)
	}
	if _, err := NewFact(Idle, []string{"42"}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected non-constant param error, got %v", err)
	}
	if _, err := NewFact("dance", nil); !errors.Is(err, internalerr.ErrUnknownFunctor) {
		t.Errorf("expected unknown functor error, got %v", err)
	}
}

func TestAtomHasConstant(t *testing.T) {
	a := Atom{Functor: Own, Terms: []Term{"U", "worker"}}
	if !a.HasConstant("worker") {
		t.Error("expected containment of worker")
	}
	if a.HasConstant("base") {
		t.Error("base should not be contained")
	}
	if vars := a.Variables(); len(vars) != 1 || vars[0] != "U" {
		t.Errorf("Variables() = %v", vars)
	}
}

func TestStringForms(t *testing.T) {
	p := Predicate{Atom: Atom{Functor: Idle, Terms: []Term{"X", "base"}}, Negated: true}
	if got := p.String(); got != `~idle(X,"base")` {
		t.Errorf("Predicate.String() = %s", got)
	}

	u := newUnit("b1")
	r := Rule{Functor: DoTrainWorker, Refs: Refs{Actor: u}}
	if got := r.String(); got != "doTrainWorker() actor=b1" {
		t.Errorf("Rule.String() = %s", got)
	}
	if !r.IsAction() {
		t.Error("doTrainWorker rule should be an action")
	}

	derived := Rule{Functor: EnoughResourcesFor, Params: []Term{"WORKER"}}.Fact()
	if derived.Functor != EnoughResourcesFor || derived.Bound() {
		t.Errorf("unexpected derived fact: %v", derived)
	}
}
