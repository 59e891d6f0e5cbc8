package economy

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/talgya/idle-economy/internal/bignum"
)

// MaxQuantity bounds a single purchase.
const MaxQuantity = math.MaxInt32

// linearTolerance is how close to 1 a multiplier must be to price linearly.
const linearTolerance = 1e-6

var ErrUnknownMode = errors.New("unknown buy mode")

// Curve prices level k at Base × Mult^k.
type Curve struct {
	Base bignum.Number
	Mult float64
}

func (c Curve) linear() bool {
	return math.Abs(c.Mult-1) < linearTolerance
}

// StartCost is the price of the next level when level levels are owned.
func (c Curve) StartCost(level int) bignum.Number {
	if c.linear() || level <= 0 {
		return c.Base
	}
	return c.Base.Mul(bignum.FromFloat(c.Mult).Pow(float64(level)))
}

// TotalCost is the price of qty levels bought on top of level:
// Base × Mult^level × (Mult^qty − 1) / (Mult − 1).
func (c Curve) TotalCost(level, qty int) bignum.Number {
	if qty <= 0 {
		return bignum.Zero
	}
	start := c.StartCost(level)
	if qty == 1 {
		return start
	}
	if c.linear() {
		return start.Mul(bignum.FromInt(qty))
	}
	growth := bignum.FromFloat(c.Mult).Pow(float64(qty)).Sub(bignum.One)
	total, err := start.Mul(growth).Div(bignum.FromFloat(c.Mult - 1))
	if err != nil {
		return bignum.Zero
	}
	return total
}

// MaxAffordable returns the largest q with TotalCost(level, q) <= avail,
// capped at MaxQuantity. A free curve is limited only by MaxQuantity.
func (c Curve) MaxAffordable(level int, avail bignum.Number) int {
	if avail.Sign() <= 0 {
		return 0
	}
	start := c.StartCost(level)
	if start.Sign() <= 0 {
		return MaxQuantity
	}

	var est float64
	if c.linear() {
		ratio, _ := avail.Div(start)
		est = math.Floor(ratio.Float())
	} else {
		// ratio = avail·(mult−1)/start + 1
		scaled, _ := avail.MulFloat(c.Mult - 1).Div(start)
		ratio := scaled.Add(bignum.One)
		if ratio.Sign() <= 0 {
			// Decaying curve whose whole series fits in avail.
			return MaxQuantity
		}
		est = math.Floor(ratio.Log10() / math.Log10(c.Mult))
	}

	q := clampQuantity(est)
	for q > 0 && c.TotalCost(level, q).Gt(avail) {
		q--
	}
	for q < MaxQuantity && c.TotalCost(level, q+1).Lte(avail) {
		q++
	}
	return q
}

func clampQuantity(f float64) int {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= MaxQuantity:
		return MaxQuantity
	}
	return int(f)
}

// BuyMode selects how many levels a purchase attempts.
type BuyMode int

const (
	BuyOne BuyMode = iota
	BuyTen
	BuyHundred
	BuyMax
)

func (m BuyMode) String() string {
	switch m {
	case BuyOne:
		return "1"
	case BuyTen:
		return "10"
	case BuyHundred:
		return "100"
	case BuyMax:
		return "max"
	}
	return fmt.Sprintf("BuyMode(%d)", int(m))
}

// ParseBuyMode accepts "1", "10", "100", "max" and the constant names.
func ParseBuyMode(s string) (BuyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "1", "one":
		return BuyOne, nil
	case "10", "ten":
		return BuyTen, nil
	case "100", "hundred":
		return BuyHundred, nil
	case "max":
		return BuyMax, nil
	}
	return BuyOne, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Quantity resolves the levels a purchase in mode m attempts. remaining is
// the number of levels left before the cap. Fixed modes are clamped to
// remaining; BuyMax solves against avail.
func (c Curve) Quantity(m BuyMode, level int, avail bignum.Number, remaining int) int {
	var q int
	switch m {
	case BuyOne:
		q = 1
	case BuyTen:
		q = 10
	case BuyHundred:
		q = 100
	case BuyMax:
		q = c.MaxAffordable(level, avail)
	}
	return min(q, max(remaining, 0))
}
