// Package world is a reference host for the rule engine: it describes a
// real-time strategy snapshot (a player, its resources and every unit on
// the map) and turns it into the facts a rule program reasons over.
package world

import (
	"context"
	"fmt"
	"sync"

	"github.com/cognicore/rulesai/pkg/rulesai/inference"
	"github.com/cognicore/rulesai/pkg/rulesai/internalerr"
)

// Unit kinds, as they appear in fact constants.
const (
	KindWorker   = "worker"
	KindBase     = "base"
	KindBarracks = "barracks"
	KindLight    = "light"
	KindHeavy    = "heavy"
	KindRanged   = "ranged"
	KindResource = "resource"
)

// Kinds lists every unit kind.
func Kinds() []string {
	return []string{KindWorker, KindBase, KindBarracks, KindLight, KindHeavy, KindRanged, KindResource}
}

// Neutral is the owner of map objects such as resource fields.
const Neutral = -1

// Unit is one object on the map. *Unit is the entity handle bound into
// facts and derived actions.
type Unit struct {
	ID    string `yaml:"id" json:"id"`
	Type  string `yaml:"type" json:"type"`
	Owner int    `yaml:"owner" json:"owner"`
	X     int    `yaml:"x" json:"x"`
	Y     int    `yaml:"y" json:"y"`
	Busy  bool   `yaml:"busy,omitempty" json:"busy,omitempty"`
}

// Ref implements inference.Entity.
func (u *Unit) Ref() string { return u.ID }

// Snapshot is the world as seen by one player at one decision point.
type Snapshot struct {
	Player    int     `yaml:"player" json:"player"`
	Resources int     `yaml:"resources" json:"resources"`
	Units     []*Unit `yaml:"units" json:"units"`
}

// Validate checks unit kinds and id uniqueness.
func (s *Snapshot) Validate() error {
	if s.Player < 0 {
		return fmt.Errorf("%w: player %d", internalerr.ErrInvalidInput, s.Player)
	}
	known := make(map[string]bool)
	for _, k := range Kinds() {
		known[k] = true
	}
	seen := make(map[string]bool, len(s.Units))
	for i, u := range s.Units {
		if u == nil || u.ID == "" {
			return fmt.Errorf("%w: unit %d has no id", internalerr.ErrInvalidInput, i)
		}
		if seen[u.ID] {
			return fmt.Errorf("%w: duplicate unit id %q", internalerr.ErrInvalidInput, u.ID)
		}
		seen[u.ID] = true
		if !known[u.Type] {
			return fmt.Errorf("%w: unit %q has unknown type %q", internalerr.ErrInvalidInput, u.ID, u.Type)
		}
	}
	return nil
}

// Unit returns the unit with the given id.
func (s *Snapshot) Unit(id string) (*Unit, bool) {
	for _, u := range s.Units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Clone deep-copies the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	out := &Snapshot{Player: s.Player, Resources: s.Resources, Units: make([]*Unit, len(s.Units))}
	for i, u := range s.Units {
		cp := *u
		out.Units[i] = &cp
	}
	return out
}

// Costs is the resource price of each buildable kind.
type Costs map[string]int

// DefaultCosts returns the standard unit prices.
func DefaultCosts() Costs {
	return Costs{
		KindWorker:   1,
		KindBase:     10,
		KindBarracks: 5,
		KindLight:    2,
		KindHeavy:    2,
		KindRanged:   2,
	}
}

// reserve is how many units of each kind the player must be able to afford
// before enoughResourcesFor holds. Order matches fact emission.
var reserve = []struct {
	kind  string
	times int
}{
	{KindBarracks, 1},
	{KindBase, 2},
	{KindLight, 1},
	{KindHeavy, 1},
	{KindRanged, 1},
	{KindWorker, 5},
}

// Facts describes snap: enoughResourcesFor facts for every kind the player
// can afford, then per unit type, own or enemy, and idle for units without
// an assignment.
func Facts(snap *Snapshot, costs Costs) ([]inference.Fact, error) {
	if err := snap.Validate(); err != nil {
		return nil, err
	}

	var facts []inference.Fact
	for _, r := range reserve {
		cost, ok := costs[r.kind]
		if !ok {
			continue
		}
		if snap.Resources-cost*r.times >= 0 {
			facts = append(facts, inference.MustFact(inference.EnoughResourcesFor, []string{r.kind}))
		}
	}

	for _, u := range snap.Units {
		kind := []string{u.Type}
		facts = append(facts, inference.MustFact(inference.Type, kind, u))
		switch {
		case u.Owner == snap.Player:
			facts = append(facts, inference.MustFact(inference.Own, kind, u))
		case u.Owner >= 0:
			facts = append(facts, inference.MustFact(inference.Enemy, kind, u))
		}
		if !u.Busy && u.Type != KindResource {
			facts = append(facts, inference.MustFact(inference.Idle, kind, u))
		}
	}
	return facts, nil
}

// Host serves facts for the current snapshot. It is safe for concurrent use
// so a watcher can swap snapshots while an agent observes.
type Host struct {
	mu    sync.RWMutex
	snap  *Snapshot
	costs Costs
}

// NewHost creates a host for snap. A nil costs table uses DefaultCosts.
func NewHost(snap *Snapshot, costs Costs) *Host {
	if costs == nil {
		costs = DefaultCosts()
	}
	return &Host{snap: snap, costs: costs}
}

// Observe returns the facts describing the current snapshot.
func (h *Host) Observe(ctx context.Context) ([]inference.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.snap == nil {
		return nil, fmt.Errorf("world: %w: no snapshot", internalerr.ErrNotFound)
	}
	return Facts(h.snap, h.costs)
}

// Snapshot returns the current snapshot.
func (h *Host) Snapshot() *Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.snap
}

// SetSnapshot replaces the current snapshot.
func (h *Host) SetSnapshot(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = snap
}

// Apply marks the actors of actions as busy so the next observation no
// longer reports them idle. It returns how many units changed.
func (h *Host) Apply(actions []inference.Rule) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.snap == nil {
		return 0
	}
	n := 0
	for _, a := range actions {
		u, ok := a.Actor.(*Unit)
		if !ok || u.Busy {
			continue
		}
		if cur, ok := h.snap.Unit(u.ID); ok && cur == u {
			u.Busy = true
			n++
		}
	}
	return n
}
