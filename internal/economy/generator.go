package economy

import (
	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// Generator is the mutable state of one generator definition.
type Generator struct {
	Def      config.Generator
	Level    int
	Unlocked bool
	Rate     bignum.Number // last computed output per second; display only
}

func NewGenerator(def config.Generator) *Generator {
	return &Generator{Def: def, Unlocked: def.Unlock.Default}
}

// Reset returns the generator to level 0 and its default unlock flag.
func (g *Generator) Reset() {
	g.Level = 0
	g.Unlocked = g.Def.Unlock.Default
	g.Rate = bignum.Zero
}

// Curve prices the generator's levels.
func (g *Generator) Curve() Curve {
	return Curve{Base: g.Def.BaseCost, Mult: g.Def.CostMultiplier}
}

// Tags returns the author tags plus the implicit all-generators, id and
// produced-resource tags.
func (g *Generator) Tags() []string {
	tags := make([]string, 0, len(g.Def.Tags)+3)
	tags = append(tags, g.Def.Tags...)
	return append(tags, TagAllGenerators, g.Def.ID, g.Def.Produces)
}

// Output is the per-second production at level with the given upgrade
// factors and external multiplier.
func (g *Generator) Output(level int, f Factors, external bignum.Number) bignum.Number {
	if level <= 0 {
		return bignum.Zero
	}
	base := g.Def.BaseProduction.Mul(bignum.FromInt(level))
	return base.Mul(f.Scale()).Mul(external)
}

// Evaluate unlocks the generator if its condition holds and reports whether
// it changed. Unlocked generators stay unlocked.
func (g *Generator) Evaluate(balances BalanceReader, nodes NodeReader) bool {
	if g.Unlocked || !Satisfied(g.Def.Unlock, balances, nodes) {
		return false
	}
	g.Unlocked = true
	return true
}
