// Package economy provides the resource ledger, soft caps, modifier
// aggregation, unlock conditions and the generator/upgrade cost model.
package economy

import (
	"errors"
	"slices"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
	"github.com/talgya/idle-economy/internal/snapshot"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMaxLevel          = errors.New("max level reached")
)

// Ledger maps resource ids to balances and lifetime-produced totals.
// Unknown ids read as zero.
type Ledger struct {
	defs     map[string]config.Resource
	balances map[string]bignum.Number
	lifetime map[string]bignum.Number
}

// NewLedger creates a ledger seeded with each resource's starting amount.
// Pass nil for a ledger without soft caps or starting amounts (e.g. meta-currency).
func NewLedger(resources []config.Resource) *Ledger {
	l := &Ledger{
		defs:     make(map[string]config.Resource, len(resources)),
		balances: make(map[string]bignum.Number),
		lifetime: make(map[string]bignum.Number),
	}
	for _, r := range resources {
		l.defs[r.ID] = r
	}
	l.ResetBalances()
	return l
}

// Get returns the balance of id.
func (l *Ledger) Get(id string) bignum.Number {
	return l.balances[id]
}

// Set overwrites the balance of id.
func (l *Ledger) Set(id string, amount bignum.Number) {
	l.balances[id] = amount
}

// Add adds amount to the balance of id. Zero amounts are a no-op.
// Lifetime totals are not touched; use Credit for produced gains.
func (l *Ledger) Add(id string, amount bignum.Number) {
	if amount.IsZero() {
		return
	}
	l.balances[id] = l.balances[id].Add(amount)
}

// CanAfford reports whether the balance of id covers cost.
func (l *Ledger) CanAfford(id string, cost bignum.Number) bool {
	if cost.Sign() < 0 {
		return false
	}
	return l.balances[id].Gte(cost)
}

// Spend deducts cost from id iff the balance covers it. On false the
// balance is unchanged.
func (l *Ledger) Spend(id string, cost bignum.Number) bool {
	if !l.CanAfford(id, cost) {
		return false
	}
	if cost.IsZero() {
		return true
	}
	l.balances[id] = l.balances[id].Sub(cost)
	return true
}

// Credit adds a produced gain to id after soft-cap dampening and records it in
// the lifetime total. It returns the amount actually credited.
func (l *Ledger) Credit(id string, delta bignum.Number) bignum.Number {
	if delta.Sign() <= 0 {
		return bignum.Zero
	}
	adjusted := ApplySoftCaps(l.balances[id], delta, l.defs[id].SoftCaps)
	if adjusted.IsZero() {
		return bignum.Zero
	}
	l.balances[id] = l.balances[id].Add(adjusted)
	l.lifetime[id] = l.lifetime[id].Add(adjusted)
	return adjusted
}

// Lifetime returns the total ever credited to id.
func (l *Ledger) Lifetime(id string) bignum.Number {
	return l.lifetime[id]
}

// ResetBalances restores every defined resource to its starting amount and
// drops balances of undefined ids. Lifetime totals are kept.
func (l *Ledger) ResetBalances() {
	clear(l.balances)
	for id, r := range l.defs {
		if !r.StartingAmount.IsZero() {
			l.balances[id] = r.StartingAmount
		}
	}
}

// IDs returns every id with a definition, balance or lifetime total, sorted.
func (l *Ledger) IDs() []string {
	seen := make(map[string]bool)
	var ids []string
	collect := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for id := range l.defs {
		collect(id)
	}
	for id := range l.balances {
		collect(id)
	}
	for id := range l.lifetime {
		collect(id)
	}
	slices.Sort(ids)
	return ids
}

// CaptureState returns the balances and lifetime totals.
func (l *Ledger) CaptureState() snapshot.LedgerRecord {
	rec := snapshot.LedgerRecord{
		Version:  snapshot.LedgerVersion,
		Balances: make(map[string]snapshot.Pair, len(l.balances)),
		Lifetime: make(map[string]snapshot.Pair, len(l.lifetime)),
	}
	for id, n := range l.balances {
		rec.Balances[id] = snapshot.PairOf(n)
	}
	for id, n := range l.lifetime {
		rec.Lifetime[id] = snapshot.PairOf(n)
	}
	return rec
}

// RestoreState replaces the ledger contents with rec. Pairs are
// re-normalized; defined resources missing from rec read as zero.
func (l *Ledger) RestoreState(rec snapshot.LedgerRecord) {
	clear(l.balances)
	clear(l.lifetime)
	for id, p := range rec.Balances {
		if n := p.Number(); !n.IsZero() {
			l.balances[id] = n
		}
	}
	for id, p := range rec.Lifetime {
		if n := p.Number(); n.Sign() > 0 {
			l.lifetime[id] = n
		}
	}
}
