// Package bignum provides a normalized mantissa/exponent number for quantities
// that span far more orders of magnitude than a float64 can hold.
//
// A Number is either exactly zero (mantissa 0, exponent 0) or has
// 1 <= |mantissa| < 10. It is an approximation tool: additions between values
// more than MaxExponentGap orders of magnitude apart drop the smaller operand.
package bignum

import (
	"errors"
	"math"
)

// MaxExponentGap is the largest exponent difference at which Add still
// combines both operands. Beyond it the smaller operand contributes nothing.
const MaxExponentGap = 12

// ErrDivideByZero is returned by Div when the divisor is zero.
var ErrDivideByZero = errors.New("bignum: division by zero")

// Number is an immutable value m × 10^e.
type Number struct {
	m float64
	e int
}

// Common values.
var (
	Zero = Number{}
	One  = Number{m: 1}
	Ten  = Number{m: 1, e: 1}
)

// New builds a Number from an arbitrary (possibly unnormalized) pair,
// such as one read back from a save file.
func New(mantissa float64, exponent int) Number {
	return normalize(mantissa, exponent)
}

// FromFloat converts a float64. NaN and ±Inf become zero.
func FromFloat(v float64) Number {
	return normalize(v, 0)
}

// FromInt converts an int.
func FromInt(v int) Number {
	return normalize(float64(v), 0)
}

func normalize(m float64, e int) Number {
	if m == 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return Zero
	}
	shift := int(math.Floor(math.Log10(math.Abs(m))))
	if shift < -300 {
		// Subnormal mantissa: scale up first so 10^-shift stays finite.
		m *= 1e300
		e -= 300
		shift += 300
	}
	if shift != 0 {
		m /= math.Pow10(shift)
		e += shift
	}
	// Division by a power of ten can land a hair outside [1, 10).
	for math.Abs(m) >= 10 {
		m /= 10
		e++
	}
	for math.Abs(m) < 1 {
		m *= 10
		e--
	}
	return Number{m: m, e: e}
}

// pow10 splits very negative powers so results in the subnormal range
// are not flushed to zero.
func pow10(n int) float64 {
	if n < -300 {
		return math.Pow10(-300) * math.Pow10(n+300)
	}
	return math.Pow10(n)
}

// Mantissa returns the normalized mantissa.
func (n Number) Mantissa() float64 { return n.m }

// Exponent returns the base-10 exponent.
func (n Number) Exponent() int { return n.e }

// IsZero reports whether n is exactly zero.
func (n Number) IsZero() bool { return n.m == 0 }

// Sign returns -1, 0 or +1.
func (n Number) Sign() int {
	switch {
	case n.m > 0:
		return 1
	case n.m < 0:
		return -1
	}
	return 0
}

// Neg returns -n.
func (n Number) Neg() Number {
	if n.IsZero() {
		return Zero
	}
	return Number{m: -n.m, e: n.e}
}

// Abs returns |n|.
func (n Number) Abs() Number {
	if n.m < 0 {
		return Number{m: -n.m, e: n.e}
	}
	return n
}

// Add returns n + o.
func (n Number) Add(o Number) Number {
	if n.IsZero() {
		return o
	}
	if o.IsZero() {
		return n
	}
	big, small := n, o
	if small.e > big.e {
		big, small = small, big
	}
	gap := big.e - small.e
	if gap > MaxExponentGap {
		return big
	}
	return normalize(big.m+small.m/math.Pow10(gap), big.e)
}

// Sub returns n - o.
func (n Number) Sub(o Number) Number {
	return n.Add(o.Neg())
}

// Mul returns n × o.
func (n Number) Mul(o Number) Number {
	if n.IsZero() || o.IsZero() {
		return Zero
	}
	return normalize(n.m*o.m, n.e+o.e)
}

// MulFloat returns n × f.
func (n Number) MulFloat(f float64) Number {
	return n.Mul(FromFloat(f))
}

// Div returns n / o, or ErrDivideByZero when o is zero.
func (n Number) Div(o Number) (Number, error) {
	if o.IsZero() {
		return Zero, ErrDivideByZero
	}
	if n.IsZero() {
		return Zero, nil
	}
	return normalize(n.m/o.m, n.e-o.e), nil
}

// Cmp returns -1, 0 or +1 as n is less than, equal to, or greater than o.
// Values of equal sign compare by exponent first, then mantissa.
func (n Number) Cmp(o Number) int {
	sn, so := n.Sign(), o.Sign()
	if sn != so {
		return cmpInt(sn, so)
	}
	if sn == 0 {
		return 0
	}
	if n.e != o.e {
		return cmpInt(n.e, o.e) * sn
	}
	switch {
	case n.m < o.m:
		return -1
	case n.m > o.m:
		return 1
	}
	return 0
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Lt reports n < o.
func (n Number) Lt(o Number) bool { return n.Cmp(o) < 0 }

// Lte reports n <= o.
func (n Number) Lte(o Number) bool { return n.Cmp(o) <= 0 }

// Gt reports n > o.
func (n Number) Gt(o Number) bool { return n.Cmp(o) > 0 }

// Gte reports n >= o.
func (n Number) Gte(o Number) bool { return n.Cmp(o) >= 0 }

// Eq reports exact equality of the normalized representation.
func (n Number) Eq(o Number) bool { return n.Cmp(o) == 0 }

// Max returns the larger of a and b.
func Max(a, b Number) Number {
	if a.Gte(b) {
		return a
	}
	return b
}

// Min returns the smaller of a and b.
func Min(a, b Number) Number {
	if a.Lte(b) {
		return a
	}
	return b
}

// Log10 returns log10(n). Zero yields -Inf and negative values NaN.
func (n Number) Log10() float64 {
	if n.IsZero() {
		return math.Inf(-1)
	}
	if n.m < 0 {
		return math.NaN()
	}
	return math.Log10(n.m) + float64(n.e)
}

// maxDirectPow keeps |mantissa|^p within float range.
const maxDirectPow = 300

// Pow returns n^p computed as 10^(log10(|n|)·p). Small integer powers
// multiply the mantissa directly so exact results stay exact.
//
// For a negative base the sign is restored when p is an integer (by parity)
// or an odd root (1/p an odd integer). Other negative-base powers have no
// real result and yield zero.
func (n Number) Pow(p float64) Number {
	if p == 0 {
		return One
	}
	if p == 1 {
		return n
	}
	if n.IsZero() {
		return Zero
	}
	if p == math.Trunc(p) && math.Abs(p) <= maxDirectPow {
		return normalize(math.Pow(n.m, p), n.e*int(p))
	}
	l := (math.Log10(math.Abs(n.m)) + float64(n.e)) * p
	if math.IsNaN(l) || math.IsInf(l, 0) {
		return Zero
	}
	exp := math.Floor(l)
	r := normalize(math.Pow(10, l-exp), int(exp))
	if n.m > 0 {
		return r
	}
	if p == math.Trunc(p) {
		if math.Mod(math.Abs(p), 2) == 1 {
			return r.Neg()
		}
		return r
	}
	root := 1 / p
	if math.Abs(root-math.Round(root)) < 1e-9 && math.Mod(math.Abs(math.Round(root)), 2) == 1 {
		return r.Neg()
	}
	return Zero
}

// Floor rounds toward negative infinity.
func (n Number) Floor() Number {
	if n.IsZero() || n.e >= 15 {
		// Mantissa precision is exhausted; the value is already integral.
		return n
	}
	if n.e < 0 {
		if n.m > 0 {
			return Zero
		}
		return One.Neg()
	}
	return FromFloat(math.Floor(n.m * math.Pow10(n.e)))
}

// Float converts to float64; magnitudes beyond float range become ±Inf or 0.
func (n Number) Float() float64 {
	if n.IsZero() {
		return 0
	}
	if n.e > 308 {
		return math.Copysign(math.Inf(1), n.m)
	}
	if n.e < -340 {
		return 0
	}
	return n.m * pow10(n.e)
}

// Int converts to int, saturating at the int range. Fractions truncate.
func (n Number) Int() int {
	f := n.Float()
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int(f)
}

// ApproxEqual reports whether n and o agree within a relative tolerance.
func (n Number) ApproxEqual(o Number, relTol float64) bool {
	if n.IsZero() || o.IsZero() {
		return n.IsZero() && o.IsZero()
	}
	diff := n.Sub(o).Abs()
	scale := Max(n.Abs(), o.Abs())
	return diff.Lte(scale.MulFloat(relTol))
}
