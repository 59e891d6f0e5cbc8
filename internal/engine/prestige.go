package engine

import (
	"fmt"
	"log/slog"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// PreservePolicy decides whether upgrade u keeps its level when tier p resets.
type PreservePolicy func(u config.Upgrade, p config.Prestige) bool

// PreserveRewardCurrency keeps upgrades bought with the tier's own reward currency.
func PreserveRewardCurrency(u config.Upgrade, p config.Prestige) bool {
	return u.CostResource == p.RewardCurrency
}

type prestigeTier struct {
	def      config.Prestige
	eligible bool
	count    int
}

// PrestigeResult describes a completed prestige reset.
type PrestigeResult struct {
	ID       string        `json:"id"`
	Currency string        `json:"currency"`
	Reward   bignum.Number `json:"reward"`
	Count    int           `json:"count"`
	Events   []Event       `json:"events,omitempty"`
}

// requirement is the larger of the tier's own and the global requirement.
func (s *Simulation) requirement(def config.Prestige) bignum.Number {
	return bignum.Max(def.Requirement, s.Config.Balance.GlobalPrestigeRequirement)
}

func (s *Simulation) metric(def config.Prestige) bignum.Number {
	return s.Ledger.Lifetime(def.Metric)
}

func (s *Simulation) eligible(def config.Prestige) bool {
	return s.metric(def).Gte(s.requirement(def))
}

// Reward computes floor(A · max(1, metric/B)^E) for a metric value. A, B and
// E fall back to the balance defaults when non-positive.
func Reward(def config.Prestige, bal config.Balance, metric bignum.Number) bignum.Number {
	a := def.RewardA
	if a <= 0 {
		a = bal.DefaultRewardA
	}
	b := def.RewardB
	if b.Sign() <= 0 {
		b = bal.DefaultRewardB
	}
	e := def.RewardExponent
	if e <= 0 {
		e = bal.DefaultRewardExponent
	}
	if a <= 0 || e <= 0 {
		return bignum.Zero
	}

	ratio := bignum.One
	if b.Sign() > 0 {
		ratio, _ = metric.Div(b)
	}
	return bignum.Max(bignum.One, ratio).Pow(e).MulFloat(a).Floor()
}

// PrestigeReward is the reward tier id would pay right now. It does not
// mutate state and ignores eligibility.
func (s *Simulation) PrestigeReward(id string) bignum.Number {
	t, ok := s.tierIndex[id]
	if !ok {
		return bignum.Zero
	}
	return Reward(t.def, s.Config.Balance, s.metric(t.def))
}

// PrestigeEligible reports the current eligibility of tier id.
func (s *Simulation) PrestigeEligible(id string) bool {
	t, ok := s.tierIndex[id]
	return ok && s.eligible(t.def)
}

// evaluatePrestige refreshes every tier's eligibility, emitting an event on
// each transition, or for every tier when force is set.
func (s *Simulation) evaluatePrestige(force bool) []Event {
	var events []Event
	for _, t := range s.tiers {
		now := s.eligible(t.def)
		if now == t.eligible && !force {
			continue
		}
		prev := t.eligible
		t.eligible = now
		desc := t.def.Name + " is no longer available"
		if now {
			desc = t.def.Name + " is available"
		}
		events = append(events, s.newEvent(KindPrestigeEligibility, t.def.ID, desc, map[string]any{
			"eligible": now,
			"previous": prev,
			"reward":   Reward(t.def, s.Config.Balance, s.metric(t.def)).String(),
		}))
	}
	return events
}

// Prestige resets the base economy in exchange for tier id's reward:
// balances return to their starting amounts, generators to level 0,
// non-preserved upgrades to level 0 and map nodes to the starting set.
// Lifetime totals and the meta wallet are kept.
func (s *Simulation) Prestige(id string) (PrestigeResult, error) {
	t, ok := s.tierIndex[id]
	if !ok {
		return PrestigeResult{}, fmt.Errorf("%w: %s", ErrUnknownPrestige, id)
	}
	if !s.eligible(t.def) {
		return PrestigeResult{}, fmt.Errorf("%w: %s needs %s lifetime %s", ErrNotEligible, id, s.requirement(t.def), t.def.Metric)
	}
	reward := Reward(t.def, s.Config.Balance, s.metric(t.def))
	if reward.Sign() <= 0 {
		return PrestigeResult{}, fmt.Errorf("%w: %s", ErrNoReward, id)
	}

	s.Ledger.ResetBalances()
	for _, g := range s.Generators {
		g.Reset()
	}
	preserve := s.Preserve
	if preserve == nil {
		preserve = PreserveRewardCurrency
	}
	kept := 0
	for _, u := range s.Upgrades {
		if preserve(u.Def, t.def) {
			kept++
			continue
		}
		u.Reset()
	}
	s.nodes.reset()
	s.Meta.Credit(t.def.RewardCurrency, reward)
	t.count++
	s.refreshRates()

	slog.Info("prestige executed",
		"tier", id,
		"reward", reward.String(),
		"currency", t.def.RewardCurrency,
		"count", t.count,
		"upgrades_kept", kept,
	)

	events := []Event{s.newEvent(KindPrestige, id, fmt.Sprintf("%s for %s %s", t.def.Name, reward, t.def.RewardCurrency), map[string]any{
		"reward":   reward.String(),
		"currency": t.def.RewardCurrency,
		"count":    t.count,
	})}
	events = append(events, s.evaluatePrestige(true)...)
	s.record(events)

	return PrestigeResult{
		ID:       id,
		Currency: t.def.RewardCurrency,
		Reward:   reward,
		Count:    t.count,
		Events:   events,
	}, nil
}
