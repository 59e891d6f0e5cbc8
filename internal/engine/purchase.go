package engine

import (
	"fmt"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/economy"
)

// Receipt describes a completed purchase.
type Receipt struct {
	ID       string        `json:"id"`
	Kind     string        `json:"kind"` // "generator" or "upgrade"
	Quantity int           `json:"quantity"`
	Cost     bignum.Number `json:"cost"`
	Resource string        `json:"resource"`
	Level    int           `json:"level"`
	Events   []Event       `json:"events,omitempty"`
}

// BuyGenerator buys levels of generator id. The total cost is computed once
// and spent atomically; on any error nothing changes.
func (s *Simulation) BuyGenerator(id string, mode economy.BuyMode) (Receipt, error) {
	g, ok := s.genIndex[id]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", ErrUnknownGenerator, id)
	}
	if !g.Unlocked {
		return Receipt{}, fmt.Errorf("%w: generator %s", ErrLocked, id)
	}
	res := g.Def.CostResource
	q, cost, err := s.spendLevels(g.Curve(), g.Level, economy.MaxQuantity, res, mode)
	if err != nil {
		return Receipt{}, fmt.Errorf("buy generator %s: %w", id, err)
	}
	g.Level += q
	return s.receipt("generator", id, g.Def.Name, q, cost, res, g.Level), nil
}

// BuyUpgrade buys levels of upgrade id, clamped to its max level.
func (s *Simulation) BuyUpgrade(id string, mode economy.BuyMode) (Receipt, error) {
	u, ok := s.upgIndex[id]
	if !ok {
		return Receipt{}, fmt.Errorf("%w: %s", ErrUnknownUpgrade, id)
	}
	if !u.Unlocked {
		return Receipt{}, fmt.Errorf("%w: upgrade %s", ErrLocked, id)
	}
	if u.Remaining() == 0 {
		return Receipt{}, fmt.Errorf("buy upgrade %s: %w", id, economy.ErrMaxLevel)
	}
	res := u.Def.CostResource
	q, cost, err := s.spendLevels(u.Curve(), u.Level, u.Remaining(), res, mode)
	if err != nil {
		return Receipt{}, fmt.Errorf("buy upgrade %s: %w", id, err)
	}
	u.Level += q
	return s.receipt("upgrade", id, u.Def.Name, q, cost, res, u.Level), nil
}

// spendLevels resolves the quantity for mode and pays for it.
func (s *Simulation) spendLevels(c economy.Curve, level, remaining int, res string, mode economy.BuyMode) (int, bignum.Number, error) {
	w := s.wallet(res)
	q := c.Quantity(mode, level, w.Get(res), remaining)
	if q <= 0 {
		return 0, bignum.Zero, economy.ErrInsufficientFunds
	}
	cost := c.TotalCost(level, q)
	if !w.Spend(res, cost) {
		return 0, bignum.Zero, fmt.Errorf("%w: need %s %s", economy.ErrInsufficientFunds, cost, res)
	}
	return q, cost, nil
}

func (s *Simulation) receipt(kind, id, name string, q int, cost bignum.Number, res string, level int) Receipt {
	s.refreshRates()
	events := []Event{s.newEvent(KindPurchase, id, fmt.Sprintf("Bought %d × %s", q, name), map[string]any{
		"type":     kind,
		"quantity": q,
		"cost":     cost.String(),
		"resource": res,
		"level":    level,
	})}
	s.record(events)
	return Receipt{
		ID:       id,
		Kind:     kind,
		Quantity: q,
		Cost:     cost,
		Resource: res,
		Level:    level,
		Events:   events,
	}
}

// GeneratorCost is the price of qty more levels of generator id.
func (s *Simulation) GeneratorCost(id string, qty int) bignum.Number {
	g, ok := s.genIndex[id]
	if !ok {
		return bignum.Zero
	}
	return g.Curve().TotalCost(g.Level, qty)
}

// UpgradeCost is the price of qty more levels of upgrade id, clamped to its cap.
func (s *Simulation) UpgradeCost(id string, qty int) bignum.Number {
	u, ok := s.upgIndex[id]
	if !ok {
		return bignum.Zero
	}
	return u.Curve().TotalCost(u.Level, min(qty, u.Remaining()))
}

// GeneratorMaxAffordable is how many levels of id the wallet covers now.
func (s *Simulation) GeneratorMaxAffordable(id string) int {
	g, ok := s.genIndex[id]
	if !ok {
		return 0
	}
	return g.Curve().MaxAffordable(g.Level, s.Balance(g.Def.CostResource))
}

// UpgradeMaxAffordable is how many levels of id the wallet covers now,
// clamped to its cap.
func (s *Simulation) UpgradeMaxAffordable(id string) int {
	u, ok := s.upgIndex[id]
	if !ok {
		return 0
	}
	return min(u.Curve().MaxAffordable(u.Level, s.Balance(u.Def.CostResource)), u.Remaining())
}

// ProjectedGeneratorRate is generator id's output per second after buying
// qty more levels.
func (s *Simulation) ProjectedGeneratorRate(id string, qty int) bignum.Number {
	g, ok := s.genIndex[id]
	if !ok {
		return bignum.Zero
	}
	return s.rate(g, g.Level+max(qty, 0), s.modifiers(), s.ExternalMultiplier())
}

// ProjectedUpgradeRates is the production per second of each resource after
// buying qty more levels of upgrade id.
func (s *Simulation) ProjectedUpgradeRates(id string, qty int) map[string]bignum.Number {
	u, ok := s.upgIndex[id]
	if !ok {
		return map[string]bignum.Number{}
	}
	mods := make([]economy.Modifier, 0, len(s.Upgrades))
	for _, other := range s.Upgrades {
		m := other.Modifier()
		if other == u {
			m.Level += min(max(qty, 0), u.Remaining())
		}
		if m.Level > 0 {
			mods = append(mods, m)
		}
	}

	external := s.ExternalMultiplier()
	out := make(map[string]bignum.Number)
	for _, g := range s.Generators {
		if r := s.rate(g, g.Level, mods, external); r.Sign() > 0 {
			out[g.Def.Produces] = out[g.Def.Produces].Add(r)
		}
	}
	return out
}
