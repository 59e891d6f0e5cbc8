package engine

import (
	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/economy"
)

func (s *Simulation) modifiers() []economy.Modifier {
	mods := make([]economy.Modifier, 0, len(s.Upgrades))
	for _, u := range s.Upgrades {
		if u.Level > 0 {
			mods = append(mods, u.Modifier())
		}
	}
	return mods
}

// ExternalMultiplier is the map-node factor times the event factor.
func (s *Simulation) ExternalMultiplier() bignum.Number {
	return s.MapMultiplier().Mul(s.EventMultiplier())
}

// rate is the per-second output of g at level under mods.
func (s *Simulation) rate(g *economy.Generator, level int, mods []economy.Modifier, external bignum.Number) bignum.Number {
	if level <= 0 {
		return bignum.Zero
	}
	return g.Output(level, economy.Aggregate(mods, g.Tags()...), external)
}

// refreshRates recomputes the cached Rate of every generator.
func (s *Simulation) refreshRates() {
	mods := s.modifiers()
	external := s.ExternalMultiplier()
	for _, g := range s.Generators {
		g.Rate = s.rate(g, g.Level, mods, external)
	}
}

// ratesByResource sums the cached generator rates per produced resource.
func (s *Simulation) ratesByResource() map[string]bignum.Number {
	out := make(map[string]bignum.Number)
	for _, g := range s.Generators {
		if g.Rate.Sign() > 0 {
			out[g.Def.Produces] = out[g.Def.Produces].Add(g.Rate)
		}
	}
	return out
}

// produce credits dt seconds of output at freshly computed rates. Each
// generator's output is credited on its own, in catalog order, so soft caps
// see the balance left by the generators before it.
func (s *Simulation) produce(dt float64) map[string]bignum.Number {
	s.refreshRates()
	credited := make(map[string]bignum.Number)
	if dt <= 0 {
		return credited
	}
	for _, g := range s.Generators {
		if g.Rate.Sign() <= 0 {
			continue
		}
		id := g.Def.Produces
		gain := s.wallet(id).Credit(id, g.Rate.MulFloat(dt))
		if !gain.IsZero() {
			credited[id] = credited[id].Add(gain)
		}
	}
	return credited
}
