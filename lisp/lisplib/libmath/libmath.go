// Copyright © 2018 The ELPS authors

package libmath

import (
	"math"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "math"

// LoadPackage adds the math namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	for _, c := range constants {
		v, err := ns.Def(c.name, lisp.Float(c.x))
		if err != nil {
			return err
		}
		meta, err := lisp.NewMap(lisp.KwDoc, lisp.String(c.doc))
		if err != nil {
			return err
		}
		v.SetMeta(meta)
	}
	return libutil.Define(ns, builtins)
}

var constants = []struct {
	name string
	x    float64
	doc  string
}{
	{"pi", math.Pi, "The ratio of a circle's circumference to its diameter."},
	{"e", math.E, "The base of the natural logarithm."},
	{"inf", math.Inf(1), "Positive infinity."},
	{"-inf", math.Inf(-1), "Negative infinity."},
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("nan?", 1, 1, builtinIsNaN,
		`Returns true if number is IEEE 754 NaN (not-a-number).  Integers
		and ratios always return false.`),
	libutil.FunctionDoc("abs", 1, 1, builtinAbs,
		`Returns the absolute value of number.  Preserves the type of the
		argument.  Raises SxArithmeticError when the absolute value of an
		integer overflows.`),
	libutil.FunctionDoc("ceil", 1, 1, builtinCeil,
		`Returns the smallest float not less than number.  Integers are
		returned unchanged.`),
	libutil.FunctionDoc("floor", 1, 1, builtinFloor,
		`Returns the largest float not greater than number.  Integers are
		returned unchanged.`),
	libutil.FunctionDoc("sqrt", 1, 1, builtinSqrt,
		`Returns the square root of number as a float.`),
	libutil.FunctionDoc("pow", 2, 2, builtinPow,
		`Returns x raised to the power y as a float.`),
	libutil.FunctionDoc("exp", 1, 1, builtinExp,
		`Returns e raised to the power of number as a float.`),
	libutil.FunctionDoc("ln", 1, 1, builtinLn,
		`Returns the natural logarithm of number as a float.`),
	libutil.FunctionDoc("log", 2, 2, builtinLog,
		`Returns the logarithm of number in the given base as a float.`),
	libutil.FunctionDoc("sin", 1, 1, builtinSin,
		`Returns the sine of radians as a float.`),
	libutil.FunctionDoc("cos", 1, 1, builtinCos,
		`Returns the cosine of radians as a float.`),
	libutil.FunctionDoc("tan", 1, 1, builtinTan,
		`Returns the tangent of radians as a float.`),
	libutil.FunctionDoc("atan", 1, 2, builtinAtan,
		`Returns the arctangent as a float.  With two arguments returns
		atan2(y, x), the angle in the correct quadrant.`),
}

func builtinIsNaN(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch x := args[0].(type) {
	case lisp.Float:
		return lisp.BoolValue(math.IsNaN(float64(x))), nil
	case lisp.Int, *lisp.Ratio:
		return lisp.False, nil
	}
	return nil, libutil.TypeError("nan?", "number", args[0])
}

func builtinAbs(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	x := args[0]
	if !lisp.IsNumber(x) {
		return nil, libutil.TypeError("abs", "number", x)
	}
	if lisp.Sign(x) >= 0 {
		return x, nil
	}
	if n, ok := x.(lisp.Int); ok && n == math.MinInt64 {
		return nil, lisp.Errorf(lisp.ArithmeticError, "integer overflow: absolute value overflows int")
	}
	return lisp.Sub(lisp.Int(0), x)
}

func rounding(name string, fn func(float64) float64) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		if n, ok := args[0].(lisp.Int); ok {
			return n, nil
		}
		f, err := number(name, args[0])
		if err != nil {
			return nil, err
		}
		return lisp.Float(fn(f)), nil
	}
}

var (
	builtinCeil  = rounding("ceil", math.Ceil)
	builtinFloor = rounding("floor", math.Floor)
)

func builtinPow(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	x, err := number("pow", args[0])
	if err != nil {
		return nil, err
	}
	y, err := number("pow", args[1])
	if err != nil {
		return nil, err
	}
	return lisp.Float(math.Pow(x, y)), nil
}

func builtinLog(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	b, err := number("log", args[0])
	if err != nil {
		return nil, err
	}
	x, err := number("log", args[1])
	if err != nil {
		return nil, err
	}
	return lisp.Float(math.Log(x) / math.Log(b)), nil
}

var builtinSqrt = realFunc(math.Sqrt).builtin

var builtinExp = realFunc(math.Exp).builtin

var builtinLn = realFunc(math.Log).builtin

var builtinSin = realFunc(math.Sin).builtin

var builtinCos = realFunc(math.Cos).builtin

var builtinTan = realFunc(math.Tan).builtin

// builtinAtan does not have the same signature as other trigonometric
// functions and must be implemented specially.
func builtinAtan(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	y, err := number("atan", args[0])
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return lisp.Float(math.Atan(y)), nil
	}
	x, err := number("atan", args[1])
	if err != nil {
		return nil, err
	}
	return lisp.Float(math.Atan2(y, x)), nil
}

// realFunc is a function of the real number line (potentially with special
// cases for NaN and -Inf/+Inf)
type realFunc func(float64) float64

func (fn realFunc) builtin(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	x, err := number("math", args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Float(fn(x)), nil
}

func number(name string, x lisp.Value) (float64, error) {
	if !lisp.IsNumber(x) {
		return 0, libutil.TypeError(name, "number", x)
	}
	return lisp.ToFloat(x)
}
