package economy

import (
	"strings"

	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// TagAllGenerators is implicitly carried by every generator.
const TagAllGenerators = "all_generators"

// Modifier is one upgrade as seen by the aggregator.
type Modifier struct {
	Targets []string
	Effect  config.EffectType
	Value   float64
	Level   int
}

// Factors are the combined upgrade effects for one set of tags.
type Factors struct {
	Additive       float64 // Σ level·value, may be negative
	Multiplicative bignum.Number
	Exponential    bignum.Number
}

// Neutral returns factors that leave production unchanged.
func Neutral() Factors {
	return Factors{Multiplicative: bignum.One, Exponential: bignum.One}
}

// Scale is exponential × (1 + additive) × multiplicative, with the
// additive factor floored at 0.
func (f Factors) Scale() bignum.Number {
	return f.Exponential.MulFloat(max(1+f.Additive, 0)).Mul(f.Multiplicative)
}

// Aggregate combines every modifier with level > 0 that targets any of tags.
// Tags compare case-insensitively and a modifier contributes at most once,
// however many of its targets match.
func Aggregate(mods []Modifier, tags ...string) Factors {
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[strings.ToLower(t)] = true
	}

	f := Neutral()
	for _, m := range mods {
		if m.Level <= 0 || !m.targets(want) {
			continue
		}
		switch m.Effect {
		case config.EffectAdditive:
			f.Additive += float64(m.Level) * m.Value
		case config.EffectMultiplicative:
			f.Multiplicative = f.Multiplicative.Mul(levelPow(1+m.Value, m.Level))
		case config.EffectExponential:
			f.Exponential = f.Exponential.Mul(levelPow(m.Value, m.Level))
		}
	}
	return f
}

// AggregateEffect returns the combined value of a single effect type for tag:
// the additive sum, or the multiplicative/exponential product.
func AggregateEffect(mods []Modifier, tag string, effect config.EffectType) bignum.Number {
	f := Aggregate(mods, tag)
	switch effect {
	case config.EffectAdditive:
		return bignum.FromFloat(f.Additive)
	case config.EffectMultiplicative:
		return f.Multiplicative
	case config.EffectExponential:
		return f.Exponential
	}
	return bignum.Zero
}

func (m Modifier) targets(want map[string]bool) bool {
	for _, t := range m.Targets {
		if want[strings.ToLower(t)] {
			return true
		}
	}
	return false
}

// levelPow is max(0, base)^level.
func levelPow(base float64, level int) bignum.Number {
	if base <= 0 {
		return bignum.Zero
	}
	return bignum.FromFloat(base).Pow(float64(level))
}
