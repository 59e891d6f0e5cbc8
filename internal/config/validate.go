package config

import (
	"errors"
	"fmt"
)

// Validate checks ids and cross references. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	resources := make(map[string]bool)
	for _, r := range c.Resources {
		if r.ID == "" {
			add("resource with empty id")
			continue
		}
		if resources[r.ID] {
			add("duplicate resource %q", r.ID)
		}
		resources[r.ID] = true
	}

	currencies := make(map[string]bool)
	for _, id := range c.Currencies() {
		if resources[id] {
			add("reward currency %q is also a base resource; it would be reset by prestige", id)
		}
		currencies[id] = true
	}
	knownAmount := func(id string) bool { return resources[id] || currencies[id] }

	nodes := make(map[string]bool)
	for _, n := range c.MapNodes {
		if n.ID == "" {
			add("map node with empty id")
			continue
		}
		if nodes[n.ID] {
			add("duplicate map node %q", n.ID)
		}
		nodes[n.ID] = true
	}

	checkUnlock := func(owner string, u Unlock) {
		if u.Resource != "" && !knownAmount(u.Resource) {
			add("%s: unlock references unknown resource %q", owner, u.Resource)
		}
		if u.MapNode != "" && !nodes[u.MapNode] {
			add("%s: unlock references unknown map node %q", owner, u.MapNode)
		}
	}

	gens := make(map[string]bool)
	for _, g := range c.Generators {
		owner := fmt.Sprintf("generator %q", g.ID)
		if g.ID == "" {
			add("generator with empty id")
			continue
		}
		if gens[g.ID] {
			add("duplicate generator %q", g.ID)
		}
		gens[g.ID] = true
		if !resources[g.Produces] {
			add("%s: produces unknown resource %q", owner, g.Produces)
		}
		if !knownAmount(g.CostResource) {
			add("%s: costs unknown resource %q", owner, g.CostResource)
		}
		if g.CostMultiplier <= 0 {
			add("%s: cost_multiplier must be positive", owner)
		}
		if g.BaseCost.Sign() < 0 || g.BaseProduction.Sign() < 0 {
			add("%s: base_cost and base_production must not be negative", owner)
		}
		checkUnlock(owner, g.Unlock)
	}

	upgrades := make(map[string]bool)
	for _, u := range c.Upgrades {
		owner := fmt.Sprintf("upgrade %q", u.ID)
		if u.ID == "" {
			add("upgrade with empty id")
			continue
		}
		if upgrades[u.ID] {
			add("duplicate upgrade %q", u.ID)
		}
		upgrades[u.ID] = true
		if !knownAmount(u.CostResource) {
			add("%s: costs unknown resource %q", owner, u.CostResource)
		}
		if u.CostMultiplier <= 0 {
			add("%s: cost_multiplier must be positive", owner)
		}
		switch u.Effect {
		case EffectAdditive, EffectMultiplicative, EffectExponential:
		default:
			add("%s: unknown effect %q", owner, u.Effect)
		}
		if u.MaxLevel == 0 {
			add("%s: max_level must be -1 (unbounded) or positive", owner)
		}
		if len(u.Targets) == 0 {
			add("%s: no target tags", owner)
		}
		checkUnlock(owner, u.Unlock)
	}

	tiers := make(map[string]bool)
	for _, p := range c.Prestige {
		owner := fmt.Sprintf("prestige %q", p.ID)
		if p.ID == "" {
			add("prestige tier with empty id")
			continue
		}
		if tiers[p.ID] {
			add("duplicate prestige tier %q", p.ID)
		}
		tiers[p.ID] = true
		if !resources[p.Metric] {
			add("%s: metric must be a base resource, got %q", owner, p.Metric)
		}
		if p.RewardCurrency == "" {
			add("%s: missing reward_currency", owner)
		}
	}

	events := make(map[string]bool)
	for _, e := range c.Events {
		if e.ID == "" {
			add("event with empty id")
			continue
		}
		if events[e.ID] {
			add("duplicate event %q", e.ID)
		}
		events[e.ID] = true
		if e.DurationSeconds <= 0 {
			add("event %q: duration_seconds must be positive", e.ID)
		}
	}

	for _, n := range c.MapNodes {
		owner := fmt.Sprintf("map node %q", n.ID)
		for _, req := range n.Requires {
			if !nodes[req] {
				add("%s: requires unknown node %q", owner, req)
			}
		}
		if n.Cost != nil && !knownAmount(n.Cost.Resource) {
			add("%s: costs unknown resource %q", owner, n.Cost.Resource)
		}
		checkUnlock(owner, n.Unlock)
	}

	b := c.Balance
	if b.OfflineEfficiency <= 0 || b.OfflineEfficiency > 1 {
		add("balance: offline_efficiency must be in (0, 1], got %v", b.OfflineEfficiency)
	}
	if b.MaxOfflineHours < 0 {
		add("balance: max_offline_hours must not be negative")
	}
	if b.EventRatePerHour < 0 {
		add("balance: event_rate_per_hour must not be negative")
	}

	return errors.Join(errs...)
}
