package autobuy

import (
	"math"
	"slices"

	"github.com/talgya/idle-economy/internal/bignum"
)

// Candidate is one generator level the agent could buy next.
// Runs before any purchase; deterministic and free.
type Candidate struct {
	ID         string
	Produces   string
	Resource   string        // cost resource
	Gain       bignum.Number // extra output per second from one more level
	Cost       bignum.Number
	Score      bignum.Number // gain per unit of cost
	Affordable bool
	Wait       float64 // seconds of income until affordable; 0 when affordable, +Inf with no income
}

// Rank scores every unlocked generator that produces focus (any resource
// when focus is empty), best score first.
func Rank(snap *Snapshot, focus string) []Candidate {
	wallets := make(map[string]wallet, len(snap.Resources))
	for _, r := range snap.Resources {
		wallets[r.ID] = wallet{amount: r.Amount, income: r.PerSecond}
	}

	var out []Candidate
	for _, g := range snap.Generators {
		if !g.Unlocked || g.NextCost.Sign() <= 0 {
			continue
		}
		if focus != "" && g.Produces != focus {
			continue
		}
		gain := g.NextRate.Sub(g.Rate)
		if gain.Sign() <= 0 {
			continue
		}
		score, err := gain.Div(g.NextCost)
		if err != nil {
			continue
		}

		c := Candidate{
			ID:         g.ID,
			Produces:   g.Produces,
			Resource:   g.CostResource,
			Gain:       gain,
			Cost:       g.NextCost,
			Score:      score,
			Affordable: g.MaxAffordable > 0,
		}
		if !c.Affordable {
			c.Wait = waitSeconds(g.NextCost, wallets[g.CostResource])
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		if c := b.Score.Cmp(a.Score); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

type wallet struct {
	amount bignum.Number
	income bignum.Number // per second
}

func waitSeconds(cost bignum.Number, w wallet) float64 {
	short := cost.Sub(w.amount)
	if short.Sign() <= 0 {
		return 0
	}
	secs, err := short.Div(w.income)
	if err != nil || w.income.Sign() <= 0 {
		return math.Inf(1)
	}
	return secs.Float()
}
