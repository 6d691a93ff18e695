// Copyright © 2018 The ELPS authors

package lisp

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Int is a 64-bit integer.  Arithmetic which overflows an Int is an
// arithmetic error.
type Int int64

func (Int) Type() Type { return TInt }

func (x Int) String() string { return strconv.FormatInt(int64(x), 10) }

// Float is a 64-bit IEEE 754 number.
type Float float64

func (Float) Type() Type { return TFloat }

func (x Float) String() string {
	f := float64(x)
	switch {
	case math.IsNaN(f):
		return "##NaN"
	case math.IsInf(f, 1):
		return "##Inf"
	case math.IsInf(f, -1):
		return "##-Inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Ratio is an exact fraction.  Ratio values are always normalized and never
// integral; integral results of ratio arithmetic are Int values.
type Ratio struct {
	rat *big.Rat
}

func (*Ratio) Type() Type { return TRatio }

func (x *Ratio) String() string { return x.rat.String() }

// Rat returns a copy of the underlying fraction.
func (x *Ratio) Rat() *big.Rat { return new(big.Rat).Set(x.rat) }

// Float returns the closest float to x.
func (x *Ratio) Float() float64 {
	f, _ := x.rat.Float64()
	return f
}

// NewRatio returns num/den reduced to lowest terms.  The result is an Int when
// den divides num.
func NewRatio(num, den int64) (Value, error) {
	if den == 0 {
		return nil, divideByZero()
	}
	return ratValue(big.NewRat(num, den))
}

func ratValue(r *big.Rat) (Value, error) {
	if r.IsInt() {
		n := r.Num()
		if !n.IsInt64() {
			return nil, integerOverflow()
		}
		return Int(n.Int64()), nil
	}
	return &Ratio{rat: r}, nil
}

// IsNumber returns true if v is an Int, Float or Ratio.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int, Float, *Ratio:
		return true
	}
	return false
}

type numCategory int

const (
	catInt numCategory = iota
	catRatio
	catFloat
)

func category(v Value) (numCategory, error) {
	switch v.(type) {
	case Int:
		return catInt, nil
	case *Ratio:
		return catRatio, nil
	case Float:
		return catFloat, nil
	}
	return 0, Errorf(CastError, "cannot cast: %s -> SxNumber", TypeName(v))
}

func toRat(v Value) *big.Rat {
	switch v := v.(type) {
	case Int:
		return new(big.Rat).SetInt64(int64(v))
	case *Ratio:
		return v.rat
	}
	return new(big.Rat)
}

func toFloat(v Value) float64 {
	switch v := v.(type) {
	case Int:
		return float64(v)
	case *Ratio:
		return v.Float()
	case Float:
		return float64(v)
	}
	return math.NaN()
}

// ToFloat converts a number to a Go float64.
func ToFloat(v Value) (float64, error) {
	if _, err := category(v); err != nil {
		return 0, err
	}
	return toFloat(v), nil
}

func promote(a, b Value) (numCategory, error) {
	ca, err := category(a)
	if err != nil {
		return 0, err
	}
	cb, err := category(b)
	if err != nil {
		return 0, err
	}
	if cb > ca {
		return cb, nil
	}
	return ca, nil
}

func divideByZero() error {
	return Errorf(ArithmeticError, "divide by zero")
}

func integerOverflow() error {
	return Errorf(ArithmeticError, "integer overflow")
}

// Add returns a + b.
func Add(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	switch cat {
	case catInt:
		x, y := a.(Int), b.(Int)
		r := x + y
		if (x > 0 && y > 0 && r < 0) || (x < 0 && y < 0 && r >= 0) {
			return nil, integerOverflow()
		}
		return r, nil
	case catRatio:
		return ratValue(new(big.Rat).Add(toRat(a), toRat(b)))
	}
	return Float(toFloat(a) + toFloat(b)), nil
}

// Sub returns a - b.
func Sub(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	switch cat {
	case catInt:
		x, y := a.(Int), b.(Int)
		r := x - y
		if (x^y)&(x^r) < 0 {
			return nil, integerOverflow()
		}
		return r, nil
	case catRatio:
		return ratValue(new(big.Rat).Sub(toRat(a), toRat(b)))
	}
	return Float(toFloat(a) - toFloat(b)), nil
}

// Mul returns a * b.
func Mul(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	switch cat {
	case catInt:
		x, y := a.(Int), b.(Int)
		if x == 0 || y == 0 {
			return Int(0), nil
		}
		r := x * y
		if r/y != x || (x == -1 && y == math.MinInt64) || (y == -1 && x == math.MinInt64) {
			return nil, integerOverflow()
		}
		return r, nil
	case catRatio:
		return ratValue(new(big.Rat).Mul(toRat(a), toRat(b)))
	}
	return Float(toFloat(a) * toFloat(b)), nil
}

// Div returns a / b.  Dividing two integers produces a Ratio unless the
// division is exact.  Any zero divisor is an arithmetic error.
func Div(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	if isZero(b) {
		return nil, divideByZero()
	}
	switch cat {
	case catInt:
		x, y := a.(Int), b.(Int)
		if x == math.MinInt64 && y == -1 {
			return nil, integerOverflow()
		}
		if x%y == 0 {
			return x / y, nil
		}
		return ratValue(new(big.Rat).SetFrac64(int64(x), int64(y)))
	case catRatio:
		return ratValue(new(big.Rat).Quo(toRat(a), toRat(b)))
	}
	return Float(toFloat(a) / toFloat(b)), nil
}

func isZero(v Value) bool {
	switch v := v.(type) {
	case Int:
		return v == 0
	case Float:
		return v == 0
	case *Ratio:
		return v.rat.Sign() == 0
	}
	return false
}

// Quot returns the quotient of a and b truncated toward zero.
func Quot(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	if isZero(b) {
		return nil, divideByZero()
	}
	if cat == catInt {
		x, y := a.(Int), b.(Int)
		if x == math.MinInt64 && y == -1 {
			return nil, integerOverflow()
		}
		return x / y, nil
	}
	return Float(math.Trunc(toFloat(a) / toFloat(b))), nil
}

// Rem returns the remainder of truncated division; the result has the sign
// of a.
func Rem(a, b Value) (Value, error) {
	cat, err := promote(a, b)
	if err != nil {
		return nil, err
	}
	if isZero(b) {
		return nil, divideByZero()
	}
	if cat == catInt {
		x, y := a.(Int), b.(Int)
		if y == -1 {
			return Int(0), nil
		}
		return x % y, nil
	}
	return Float(math.Mod(toFloat(a), toFloat(b))), nil
}

// Mod returns the modulus of floored division; the result has the sign of b.
func Mod(a, b Value) (Value, error) {
	r, err := Rem(a, b)
	if err != nil {
		return nil, err
	}
	if !isZero(r) && (Sign(r) < 0) != (Sign(b) < 0) {
		return Add(r, b)
	}
	return r, nil
}

// Sign returns -1, 0 or 1 according to the sign of the number v.
func Sign(v Value) int {
	switch v := v.(type) {
	case Int:
		switch {
		case v < 0:
			return -1
		case v > 0:
			return 1
		}
		return 0
	case *Ratio:
		return v.rat.Sign()
	case Float:
		switch {
		case v < 0:
			return -1
		case v > 0:
			return 1
		}
	}
	return 0
}

// CompareNumbers returns -1, 0 or 1 when a is less than, equal to or greater
// than b.
func CompareNumbers(a, b Value) (int, error) {
	cat, err := promote(a, b)
	if err != nil {
		return 0, err
	}
	switch cat {
	case catInt:
		x, y := a.(Int), b.(Int)
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
		return 0, nil
	case catRatio:
		return toRat(a).Cmp(toRat(b)), nil
	}
	x, y := toFloat(a), toFloat(b)
	switch {
	case x < y:
		return -1, nil
	case x > y:
		return 1, nil
	}
	return 0, nil
}

// NumEquiv reports numeric equivalence across categories, so that
// (== 1 1.0) is true while (= 1 1.0) is false.
func NumEquiv(a, b Value) (bool, error) {
	c, err := CompareNumbers(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// numEqual is value equality within a category.
func numEqual(a, b Value) bool {
	ca, err := category(a)
	if err != nil {
		return false
	}
	cb, err := category(b)
	if err != nil || ca != cb {
		return false
	}
	c, err := CompareNumbers(a, b)
	return err == nil && c == 0
}
