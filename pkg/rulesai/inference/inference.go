package inference

import (
	"fmt"
	"strings"

	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

// Functor names the relation or action an Atom describes.
// The vocabulary is closed; see Functors.
type Functor string

// Relational functors describe the world or facts derived from it.
const (
	Type               Functor = "type"
	Own                Functor = "own"
	OwnBarrack         Functor = "ownBarrack"
	OwnBase            Functor = "ownBase"
	OwnWorker          Functor = "ownWorker"
	Enemy              Functor = "enemy"
	Idle               Functor = "idle"
	IdleWorker         Functor = "idleWorker"
	IdleLight          Functor = "idleLight"
	IdleHeavy          Functor = "idleHeavy"
	IdleRanged         Functor = "idleRanged"
	EnoughResourcesFor Functor = "enoughResourcesFor"
)

// Action functors are routed to the host for execution.
const (
	DoTrainWorker   Functor = "doTrainWorker"
	DoBuildBase     Functor = "doBuildBase"
	DoBuildBarracks Functor = "doBuildBarracks"
	DoHarvest       Functor = "doHarvest"
	DoTrainLight    Functor = "doTrainLight"
	DoTrainHeavy    Functor = "doTrainHeavy"
	DoTrainRanged   Functor = "doTrainRanged"
	DoAttack        Functor = "doAttack"
)

var vocabulary = map[Functor]bool{
	Type: false, Own: false, OwnBarrack: false, OwnBase: false, OwnWorker: false,
	Enemy: false, Idle: false, IdleWorker: false, IdleLight: false, IdleHeavy: false,
	IdleRanged: false, EnoughResourcesFor: false,

	DoTrainWorker: true, DoBuildBase: true, DoBuildBarracks: true, DoHarvest: true,
	DoTrainLight: true, DoTrainHeavy: true, DoTrainRanged: true, DoAttack: true,
}

// Functors returns the whole vocabulary, relational functors first.
func Functors() []Functor {
	return []Functor{
		Type, Own, OwnBarrack, OwnBase, OwnWorker, Enemy, Idle, IdleWorker,
		IdleLight, IdleHeavy, IdleRanged, EnoughResourcesFor,
		DoTrainWorker, DoBuildBase, DoBuildBarracks, DoHarvest,
		DoTrainLight, DoTrainHeavy, DoTrainRanged, DoAttack,
	}
}

// ParseFunctor resolves a functor name. Names are case-sensitive.
func ParseFunctor(name string) (Functor, error) {
	f := Functor(strings.TrimSpace(name))
	if _, ok := vocabulary[f]; !ok {
		return "", fmt.Errorf("%w: %q", internalerr.ErrUnknownFunctor, name)
	}
	return f, nil
}

// Valid reports whether f belongs to the vocabulary.
func (f Functor) Valid() bool {
	_, ok := vocabulary[f]
	return ok
}

// IsAction reports whether f belongs to the action subset.
func (f Functor) IsAction() bool {
	return vocabulary[f]
}

// Role is the part an entity reference plays in a Fact or Rule.
type Role int

const (
	RoleActor Role = iota
	RoleResource
	RoleTarget
)

func (r Role) String() string {
	switch r {
	case RoleActor:
		return "actor"
	case RoleResource:
		return "resource"
	case RoleTarget:
		return "target"
	}
	return fmt.Sprintf("role(%d)", int(r))
}

// SlotLayout lists, per bound reference slot, the roles that reference fills.
type SlotLayout [][]Role

var slotTable = map[Functor]SlotLayout{
	DoAttack:  {{RoleActor, RoleTarget}},
	DoHarvest: {{RoleActor}, {RoleResource}, {RoleTarget}},
}

var actorOnly = SlotLayout{{RoleActor}}

// Slots returns the reference layout for f. Functors without an explicit
// entry bind a single actor.
func (f Functor) Slots() SlotLayout {
	if l, ok := slotTable[f]; ok {
		return l
	}
	return actorOnly
}

// Len is the number of reference slots.
func (l SlotLayout) Len() int { return len(l) }

// Fill assigns refs to slots in order. Missing trailing refs leave their
// roles empty and refs beyond the layout are ignored.
func (l SlotLayout) Fill(refs []Entity) Refs {
	var out Refs
	for i, roles := range l {
		if i >= len(refs) {
			break
		}
		for _, role := range roles {
			out.set(role, refs[i])
		}
	}
	return out
}

// Entity is an opaque handle to a host object. The engine only compares
// entities with ==, so implementations must be comparable (pointers are
// the usual choice). Ref is used for logging and persistence.
type Entity interface {
	Ref() string
}

// Refs holds the entity references bound to a Fact or Rule.
type Refs struct {
	Actor    Entity
	Resource Entity
	Target   Entity
}

func (r *Refs) set(role Role, e Entity) {
	switch role {
	case RoleActor:
		r.Actor = e
	case RoleResource:
		r.Resource = e
	case RoleTarget:
		r.Target = e
	}
}

// Get returns the reference playing role.
func (r Refs) Get(role Role) Entity {
	switch role {
	case RoleActor:
		return r.Actor
	case RoleResource:
		return r.Resource
	case RoleTarget:
		return r.Target
	}
	return nil
}

// Bound reports whether an actor reference is attached.
func (r Refs) Bound() bool { return r.Actor != nil }

func (r Refs) describe(b *strings.Builder) {
	for _, role := range []Role{RoleActor, RoleResource, RoleTarget} {
		if e := r.Get(role); e != nil {
			fmt.Fprintf(b, " %s=%s", role, e.Ref())
		}
	}
}

// RefString renders an optional entity for logs and persistence.
func RefString(e Entity) string {
	if e == nil {
		return ""
	}
	return e.Ref()
}

// Atom is a functor applied to an ordered list of terms.
type Atom struct {
	Functor Functor
	Terms   []Term
}

// HasConstant reports whether c appears anywhere among the atom's terms.
func (a Atom) HasConstant(c Term) bool {
	for _, t := range a.Terms {
		if t == c {
			return true
		}
	}
	return false
}

// Variables returns the variable terms in scan order.
func (a Atom) Variables() []Term {
	var vars []Term
	for _, t := range a.Terms {
		if t.IsVariable() {
			vars = append(vars, t)
		}
	}
	return vars
}

func (a Atom) String() string {
	var b strings.Builder
	b.WriteString(string(a.Functor))
	b.WriteByte('(')
	for i, t := range a.Terms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Fact is a ground atom, optionally bound to host entities.
type Fact struct {
	Atom
	Refs
}

// NewFact builds a ground fact. Params are case-folded to constants and must
// start with a lowercase letter once folded. refs must be empty or match the
// functor's slot count.
func NewFact(f Functor, params []string, refs ...Entity) (Fact, error) {
	if !f.Valid() {
		return Fact{}, fmt.Errorf("%w: %q", internalerr.ErrUnknownFunctor, string(f))
	}
	terms := make([]Term, len(params))
	for i, p := range params {
		t := Const(p)
		if !t.IsConstant() {
			return Fact{}, fmt.Errorf("%w: fact %s param %q is not a constant", internalerr.ErrInvalidInput, f, p)
		}
		terms[i] = t
	}
	layout := f.Slots()
	if len(refs) != 0 && len(refs) != layout.Len() {
		return Fact{}, fmt.Errorf("%w: fact %s takes %d references, got %d", internalerr.ErrInvalidInput, f, layout.Len(), len(refs))
	}
	for _, e := range refs {
		if e == nil {
			return Fact{}, fmt.Errorf("%w: fact %s has a nil reference", internalerr.ErrInvalidInput, f)
		}
	}
	return Fact{Atom: Atom{Functor: f, Terms: terms}, Refs: layout.Fill(refs)}, nil
}

// MustFact is NewFact for hosts and tests that build facts from literals.
func MustFact(f Functor, params []string, refs ...Entity) Fact {
	fact, err := NewFact(f, params, refs...)
	if err != nil {
		panic(err)
	}
	return fact
}

func (f Fact) String() string {
	var b strings.Builder
	b.WriteString(f.Atom.String())
	f.Refs.describe(&b)
	return b.String()
}

// Predicate is a rule-body atom that may be negated.
type Predicate struct {
	Atom
	Negated bool
}

func (p Predicate) String() string {
	if p.Negated {
		return "~" + p.Atom.String()
	}
	return p.Atom.String()
}

// Rule is a solved rule head: its remaining literal params plus the entity
// references bound during unification.
type Rule struct {
	Functor Functor
	Params  []Term
	Refs
}

// IsAction reports whether the rule should be executed by the host rather
// than asserted back into the knowledge store.
func (r Rule) IsAction() bool { return r.Functor.IsAction() }

// Fact converts a derived rule into a fact for re-assertion.
func (r Rule) Fact() Fact {
	terms := make([]Term, len(r.Params))
	copy(terms, r.Params)
	return Fact{Atom: Atom{Functor: r.Functor, Terms: terms}, Refs: r.Refs}
}

func (r Rule) String() string {
	var b strings.Builder
	b.WriteString(Atom{Functor: r.Functor, Terms: r.Params}.String())
	r.Refs.describe(&b)
	return b.String()
}
