package economy

import (
	"github.com/talgya/idle-economy/internal/config"
)

// Upgrade is the mutable state of one upgrade definition.
type Upgrade struct {
	Def      config.Upgrade
	Level    int
	Unlocked bool
}

func NewUpgrade(def config.Upgrade) *Upgrade {
	return &Upgrade{Def: def, Unlocked: def.Unlock.Default}
}

func (u *Upgrade) Reset() {
	u.Level = 0
	u.Unlocked = u.Def.Unlock.Default
}

func (u *Upgrade) Curve() Curve {
	return Curve{Base: u.Def.BaseCost, Mult: u.Def.CostMultiplier}
}

// Remaining is the number of levels left before the cap.
func (u *Upgrade) Remaining() int {
	if !u.Def.Capped() {
		return MaxQuantity
	}
	return max(u.Def.MaxLevel-u.Level, 0)
}

// Modifier exposes the upgrade's current effect.
func (u *Upgrade) Modifier() Modifier {
	return Modifier{
		Targets: u.Def.Targets,
		Effect:  u.Def.Effect,
		Value:   u.Def.Value,
		Level:   u.Level,
	}
}

func (u *Upgrade) Evaluate(balances BalanceReader, nodes NodeReader) bool {
	if u.Unlocked || !Satisfied(u.Def.Unlock, balances, nodes) {
		return false
	}
	u.Unlocked = true
	return true
}
