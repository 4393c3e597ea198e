// Package knowledge holds the fact set an agent reasons over and the rule
// program lines it was built with.
//
// A Base is owned by a single decision cycle at a time and is not safe for
// concurrent use.
package knowledge

import (
	"math/rand"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
)

// Base is the knowledge store: a mutable multiset of facts plus the
// immutable program lines.
type Base struct {
	facts   []inference.Fact
	program []string
}

// New creates a store for the given program lines.
func New(program []string) *Base {
	lines := make([]string, len(program))
	copy(lines, program)
	return &Base{program: lines}
}

// Program returns a copy of the rule program lines.
func (b *Base) Program() []string {
	out := make([]string, len(b.program))
	copy(out, b.program)
	return out
}

// AddFact appends a fact. Duplicates are allowed.
func (b *Base) AddFact(f inference.Fact) {
	b.facts = append(b.facts, f)
}

// AddFacts appends facts in order.
func (b *Base) AddFacts(facts ...inference.Fact) {
	b.facts = append(b.facts, facts...)
}

// ClearFacts drops every fact.
func (b *Base) ClearFacts() {
	clear(b.facts)
	b.facts = b.facts[:0]
}

// Replace clears the store and repopulates it with facts.
func (b *Base) Replace(facts []inference.Fact) {
	b.ClearFacts()
	b.AddFacts(facts...)
}

// Len is the number of facts.
func (b *Base) Len() int { return len(b.facts) }

// Facts returns a copy of the facts in insertion order.
func (b *Base) Facts() []inference.Fact {
	out := make([]inference.Fact, len(b.facts))
	copy(out, b.facts)
	return out
}

// Shuffled returns an order-randomized copy of the facts without touching
// the canonical order.
func (b *Base) Shuffled(rng *rand.Rand) []inference.Fact {
	out := b.Facts()
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Shuffle randomizes the canonical order in place.
func (b *Base) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(b.facts), func(i, j int) { b.facts[i], b.facts[j] = b.facts[j], b.facts[i] })
}

// RemoveFirstMatching removes the first fact with the given functor whose
// actor is e. It reports whether a fact was removed.
func (b *Base) RemoveFirstMatching(functor inference.Functor, e inference.Entity) bool {
	if e == nil {
		return false
	}
	for i, f := range b.facts {
		if f.Functor == functor && f.Actor == e {
			b.facts = append(b.facts[:i], b.facts[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveIdle retracts the idle fact of an actor that was just given work.
func (b *Base) RemoveIdle(e inference.Entity) bool {
	return b.RemoveFirstMatching(inference.Idle, e)
}

// Count returns how many facts carry functor.
func (b *Base) Count(functor inference.Functor) int {
	n := 0
	for _, f := range b.facts {
		if f.Functor == functor {
			n++
		}
	}
	return n
}
