package economy

import (
	"github.com/talgya/idle-economy/internal/bignum"
	"github.com/talgya/idle-economy/internal/config"
)

// ApplySoftCaps dampens an incoming gain. Every threshold whose amount the
// current balance has reached raises the delta to its exponent, in order, so
// exponents compose multiplicatively. A threshold never amplifies the delta,
// and exponents outside (0, 1) are neutral. A delta below 1 is therefore
// never dampened, so at short tick intervals slow producers pass through
// the cap untouched.
func ApplySoftCaps(balance, delta bignum.Number, caps []config.SoftCap) bignum.Number {
	if delta.Sign() <= 0 {
		return delta
	}
	for _, c := range caps {
		if balance.Lt(c.Amount) {
			continue
		}
		if c.Exponent <= 0 || c.Exponent >= 1 {
			continue
		}
		delta = bignum.Min(delta, delta.Pow(c.Exponent))
	}
	return delta
}
