package engine

import (
	"slices"
	"time"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// ResourceView is one row of the resources query.
type ResourceView struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Amount    bignum.Number `json:"amount"`
	Lifetime  bignum.Number `json:"lifetime"`
	PerSecond bignum.Number `json:"per_second"`
	Meta      bool          `json:"meta,omitempty"`
}

type GeneratorView struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Level         int           `json:"level"`
	Unlocked      bool          `json:"unlocked"`
	Rate          bignum.Number `json:"rate"`
	Produces      string        `json:"produces"`
	CostResource  string        `json:"cost_resource"`
	NextCost      bignum.Number `json:"next_cost"`
	NextRate      bignum.Number `json:"next_rate"`
	MaxAffordable int           `json:"max_affordable"`
}

type UpgradeView struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Level         int               `json:"level"`
	MaxLevel      int               `json:"max_level"`
	Unlocked      bool              `json:"unlocked"`
	Effect        config.EffectType `json:"effect"`
	Value         float64           `json:"value"`
	Targets       []string          `json:"targets"`
	CostResource  string            `json:"cost_resource"`
	NextCost      bignum.Number     `json:"next_cost"`
	MaxAffordable int               `json:"max_affordable"`
}

type PrestigeView struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Tier        int           `json:"tier"`
	Eligible    bool          `json:"eligible"`
	Metric      string        `json:"metric"`
	Progress    bignum.Number `json:"progress"`
	Requirement bignum.Number `json:"requirement"`
	Currency    string        `json:"currency"`
	Reward      bignum.Number `json:"reward"`
	Count       int           `json:"count"`
}

type MapNodeView struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Multiplier float64      `json:"multiplier"`
	Unlocked   bool         `json:"unlocked"`
	Available  bool         `json:"available"` // gate and prerequisites hold
	Cost       *config.Cost `json:"cost,omitempty"`
}

// Status is the headline state of the simulation.
type Status struct {
	Tick           uint64           `json:"tick"`
	LastTickAt     time.Time        `json:"last_tick_at"`
	MapMultiplier  bignum.Number    `json:"map_multiplier"`
	External       bignum.Number    `json:"external_multiplier"`
	Event          *ActiveEventView `json:"event,omitempty"`
	PrestigeReady  []string         `json:"prestige_ready,omitempty"`
	RecentEventLen int              `json:"recent_events"`
}

// Lifetime returns the total ever produced of a resource or currency.
func (s *Simulation) Lifetime(id string) bignum.Number {
	return s.wallet(id).Lifetime(id)
}

// ProductionPerSecond sums the cached rates of generators producing id.
func (s *Simulation) ProductionPerSecond(id string) bignum.Number {
	return s.ratesByResource()[id]
}

// GeneratorRate is the cached output per second of generator id.
func (s *Simulation) GeneratorRate(id string) bignum.Number {
	if g, ok := s.genIndex[id]; ok {
		return g.Rate
	}
	return bignum.Zero
}

func (s *Simulation) GeneratorLevel(id string) int {
	if g, ok := s.genIndex[id]; ok {
		return g.Level
	}
	return 0
}

func (s *Simulation) GeneratorUnlocked(id string) bool {
	g, ok := s.genIndex[id]
	return ok && g.Unlocked
}

func (s *Simulation) UpgradeLevel(id string) int {
	if u, ok := s.upgIndex[id]; ok {
		return u.Level
	}
	return 0
}

func (s *Simulation) UpgradeUnlocked(id string) bool {
	u, ok := s.upgIndex[id]
	return ok && u.Unlocked
}

// PrestigeCount is how many times tier id has been executed.
func (s *Simulation) PrestigeCount(id string) int {
	if t, ok := s.tierIndex[id]; ok {
		return t.count
	}
	return 0
}

// Resources lists base resources in catalog order, then prestige currencies.
func (s *Simulation) Resources() []ResourceView {
	rates := s.ratesByResource()
	var out []ResourceView
	for _, r := range s.Config.Resources {
		out = append(out, ResourceView{
			ID:        r.ID,
			Name:      r.Name,
			Amount:    s.Ledger.Get(r.ID),
			Lifetime:  s.Ledger.Lifetime(r.ID),
			PerSecond: rates[r.ID],
		})
	}
	for _, id := range s.Config.Currencies() {
		out = append(out, ResourceView{
			ID:        id,
			Name:      id,
			Amount:    s.Meta.Get(id),
			Lifetime:  s.Meta.Lifetime(id),
			PerSecond: rates[id],
			Meta:      true,
		})
	}
	return out
}

func (s *Simulation) GeneratorViews() []GeneratorView {
	mods := s.modifiers()
	external := s.ExternalMultiplier()
	out := make([]GeneratorView, 0, len(s.Generators))
	for _, g := range s.Generators {
		out = append(out, GeneratorView{
			ID:            g.Def.ID,
			Name:          g.Def.Name,
			Level:         g.Level,
			Unlocked:      g.Unlocked,
			Rate:          g.Rate,
			Produces:      g.Def.Produces,
			CostResource:  g.Def.CostResource,
			NextCost:      g.Curve().StartCost(g.Level),
			NextRate:      s.rate(g, g.Level+1, mods, external),
			MaxAffordable: s.GeneratorMaxAffordable(g.Def.ID),
		})
	}
	return out
}

func (s *Simulation) UpgradeViews() []UpgradeView {
	out := make([]UpgradeView, 0, len(s.Upgrades))
	for _, u := range s.Upgrades {
		v := UpgradeView{
			ID:            u.Def.ID,
			Name:          u.Def.Name,
			Level:         u.Level,
			MaxLevel:      u.Def.MaxLevel,
			Unlocked:      u.Unlocked,
			Effect:        u.Def.Effect,
			Value:         u.Def.Value,
			Targets:       u.Def.Targets,
			CostResource:  u.Def.CostResource,
			MaxAffordable: s.UpgradeMaxAffordable(u.Def.ID),
		}
		if u.Remaining() > 0 {
			v.NextCost = u.Curve().StartCost(u.Level)
		}
		out = append(out, v)
	}
	return out
}

func (s *Simulation) PrestigeViews() []PrestigeView {
	out := make([]PrestigeView, 0, len(s.tiers))
	for _, t := range s.tiers {
		out = append(out, PrestigeView{
			ID:          t.def.ID,
			Name:        t.def.Name,
			Tier:        t.def.Tier,
			Eligible:    s.eligible(t.def),
			Metric:      t.def.Metric,
			Progress:    s.metric(t.def),
			Requirement: s.requirement(t.def),
			Currency:    t.def.RewardCurrency,
			Reward:      Reward(t.def, s.Config.Balance, s.metric(t.def)),
			Count:       t.count,
		})
	}
	return out
}

func (s *Simulation) MapNodeViews() []MapNodeView {
	out := make([]MapNodeView, 0, len(s.nodes.defs))
	for _, d := range s.nodes.defs {
		out = append(out, MapNodeView{
			ID:         d.ID,
			Name:       d.Name,
			Multiplier: d.Multiplier,
			Unlocked:   s.nodes.unlocked[d.ID],
			Available:  s.checkMapNode(d) == nil,
			Cost:       d.Cost,
		})
	}
	return out
}

// RecentEvents returns up to n of the newest events, oldest first.
func (s *Simulation) RecentEvents(n int) []Event {
	if n <= 0 || n > len(s.Events) {
		n = len(s.Events)
	}
	return slices.Clone(s.Events[len(s.Events)-n:])
}

func (s *Simulation) Status() Status {
	st := Status{
		Tick:           s.LastTick,
		LastTickAt:     s.LastTickAt,
		MapMultiplier:  s.MapMultiplier(),
		External:       s.ExternalMultiplier(),
		RecentEventLen: len(s.Events),
	}
	if ev, ok := s.ActiveEvent(); ok {
		st.Event = &ev
	}
	for _, t := range s.tiers {
		if s.eligible(t.def) {
			st.PrestigeReady = append(st.PrestigeReady, t.def.ID)
		}
	}
	return st
}
