package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
	"github.com/talgya/idle-economy/internal/economy"
)

type mapState struct {
	defs     []config.MapNode
	index    map[string]config.MapNode
	unlocked map[string]bool
}

func newMapState(defs []config.MapNode) *mapState {
	m := &mapState{
		defs:     defs,
		index:    make(map[string]config.MapNode, len(defs)),
		unlocked: make(map[string]bool),
	}
	for _, d := range defs {
		m.index[d.ID] = d
	}
	m.reset()
	return m
}

// reset re-derives the starting set of unlocked nodes.
func (m *mapState) reset() {
	clear(m.unlocked)
	for _, d := range m.defs {
		if d.StartUnlocked {
			m.unlocked[d.ID] = true
		}
	}
}

func (m *mapState) ids() []string {
	var out []string
	for _, d := range m.defs {
		if m.unlocked[d.ID] {
			out = append(out, d.ID)
		}
	}
	return out
}

// NodeUnlocked reports whether map node id is unlocked.
func (s *Simulation) NodeUnlocked(id string) bool {
	return s.nodes.unlocked[id]
}

// MapMultiplier is the product of every unlocked node's multiplier.
// Non-positive multipliers count as 1.
func (s *Simulation) MapMultiplier() bignum.Number {
	out := bignum.One
	for _, d := range s.nodes.defs {
		if s.nodes.unlocked[d.ID] && d.Multiplier > 0 {
			out = out.MulFloat(d.Multiplier)
		}
	}
	return out
}

// checkMapNode returns nil if id could be unlocked right now, ignoring cost.
func (s *Simulation) checkMapNode(def config.MapNode) error {
	if s.nodes.unlocked[def.ID] {
		return fmt.Errorf("%w: map node %s", ErrAlreadyUnlocked, def.ID)
	}
	if economy.Gated(def.Unlock) && !economy.Satisfied(def.Unlock, s, s) {
		return fmt.Errorf("%w: map node %s", ErrLocked, def.ID)
	}
	if len(def.Requires) > 0 && !slices.ContainsFunc(def.Requires, s.NodeUnlocked) {
		return fmt.Errorf("%w: map node %s requires one of %s", ErrLocked, def.ID, strings.Join(def.Requires, ", "))
	}
	return nil
}

// UnlockMapNode unlocks id if its gate and prerequisites hold and its cost
// can be paid. The cost is spent atomically.
func (s *Simulation) UnlockMapNode(id string) ([]Event, error) {
	def, ok := s.nodes.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMapNode, id)
	}
	if err := s.checkMapNode(def); err != nil {
		return nil, err
	}
	meta := map[string]any{"multiplier": def.Multiplier}
	if def.Cost != nil {
		if !s.wallet(def.Cost.Resource).Spend(def.Cost.Resource, def.Cost.Amount) {
			return nil, fmt.Errorf("%w: map node %s costs %s %s", economy.ErrInsufficientFunds, id, def.Cost.Amount, def.Cost.Resource)
		}
		meta["cost"] = def.Cost.Amount.String()
		meta["resource"] = def.Cost.Resource
	}

	s.nodes.unlocked[id] = true
	s.refreshRates()
	slog.Info("map node unlocked", "node", id, "multiplier", def.Multiplier)

	events := []Event{s.newEvent(KindMapNodeUnlocked, id, def.Name+" unlocked", meta)}
	s.record(events)
	return events, nil
}
