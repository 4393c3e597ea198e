package simple

import "github.com/cognicore/rulesai/pkg/rulesai/inference"

// Bindings maps variable names to the entities they were unified with.
type Bindings map[inference.Term]inference.Entity

// Materialize grounds a rule head. Bound variables are replaced by their
// entities, which fill the functor's reference slots in head order; unbound
// variables and constants stay in the parameter list verbatim.
func Materialize(head inference.Atom, b Bindings) inference.Rule {
	var (
		refs   []inference.Entity
		params []inference.Term
	)
	for _, t := range head.Terms {
		if t.IsVariable() {
			if e, ok := b[t]; ok {
				refs = append(refs, e)
				continue
			}
		}
		params = append(params, t)
	}
	return inference.Rule{
		Functor: head.Functor,
		Params:  params,
		Refs:    head.Functor.Slots().Fill(refs),
	}
}
