// Copyright © 2018 The ELPS authors

package libcore

import (
	"math"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

var numberBuiltins = []*libutil.Builtin{
	libutil.FunctionDoc("+", 0, libutil.VarArgs, builtinAdd,
		`Returns the sum of the arguments, 0 when there are none.`),
	libutil.FunctionDoc("-", 1, libutil.VarArgs, builtinSub,
		`Subtracts the remaining arguments from the first.  With one
		argument returns its negation.`),
	libutil.FunctionDoc("*", 0, libutil.VarArgs, builtinMul,
		`Returns the product of the arguments, 1 when there are none.`),
	libutil.FunctionDoc("/", 1, libutil.VarArgs, builtinDiv,
		`Divides the first argument by the remaining ones.  Integer
		division that is not exact produces a ratio.  With one argument
		returns its reciprocal.`),
	libutil.FunctionDoc("quot", 2, 2, binary(lisp.Quot),
		`Returns the quotient of dividing num by div, truncated.`),
	libutil.FunctionDoc("rem", 2, 2, binary(lisp.Rem),
		`Returns the remainder of dividing num by div, with the sign of
		num.`),
	libutil.FunctionDoc("mod", 2, 2, binary(lisp.Mod),
		`Returns the modulus of num and div, with the sign of div.`),
	libutil.FunctionDoc("inc", 1, 1, builtinInc,
		`Returns x + 1.`),
	libutil.FunctionDoc("dec", 1, 1, builtinDec,
		`Returns x - 1.`),
	libutil.FunctionDoc("<", 1, libutil.VarArgs, compare(func(c int) bool { return c < 0 }),
		`Returns true if the arguments are in monotonically increasing
		order.`),
	libutil.FunctionDoc(">", 1, libutil.VarArgs, compare(func(c int) bool { return c > 0 }),
		`Returns true if the arguments are in monotonically decreasing
		order.`),
	libutil.FunctionDoc("<=", 1, libutil.VarArgs, compare(func(c int) bool { return c <= 0 }),
		`Returns true if the arguments are in monotonically non-decreasing
		order.`),
	libutil.FunctionDoc(">=", 1, libutil.VarArgs, compare(func(c int) bool { return c >= 0 }),
		`Returns true if the arguments are in monotonically non-increasing
		order.`),
	libutil.FunctionDoc("==", 1, libutil.VarArgs, compare(func(c int) bool { return c == 0 }),
		`Returns true if the numbers are equivalent regardless of their
		type.`),
	libutil.FunctionDoc("max", 1, libutil.VarArgs, extreme(1),
		`Returns the greatest of the numbers.`),
	libutil.FunctionDoc("min", 1, libutil.VarArgs, extreme(-1),
		`Returns the least of the numbers.`),
	libutil.FunctionDoc("zero?", 1, 1, builtinIsZero,
		`Returns true if x is zero.`),
	libutil.FunctionDoc("int", 1, 1, builtinInt,
		`Coerces x to an integer, truncating toward zero.  Characters are
		converted to their code point.`),
	libutil.FunctionDoc("float", 1, 1, builtinFloat,
		`Coerces x to a float.`),
}

func fold(args []lisp.Value, init lisp.Value, op func(a, b lisp.Value) (lisp.Value, error)) (lisp.Value, error) {
	acc := init
	for _, x := range args {
		var err error
		if acc, err = op(acc, x); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func builtinAdd(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args) == 1 {
		return lisp.Add(lisp.Int(0), args[0])
	}
	if len(args) == 0 {
		return lisp.Int(0), nil
	}
	return fold(args[1:], args[0], lisp.Add)
}

func builtinSub(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args) == 1 {
		return lisp.Sub(lisp.Int(0), args[0])
	}
	return fold(args[1:], args[0], lisp.Sub)
}

func builtinMul(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return fold(args, lisp.Int(1), lisp.Mul)
}

func builtinDiv(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args) == 1 {
		return lisp.Div(lisp.Int(1), args[0])
	}
	return fold(args[1:], args[0], lisp.Div)
}

func binary(op func(a, b lisp.Value) (lisp.Value, error)) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		return op(args[0], args[1])
	}
}

func builtinInc(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Add(args[0], lisp.Int(1))
}

func builtinDec(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Sub(args[0], lisp.Int(1))
}

// compare returns a builtin testing ok against the comparison of each
// adjacent pair of arguments.
func compare(ok func(int) bool) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		if len(args) == 1 {
			if !lisp.IsNumber(args[0]) {
				return nil, libutil.TypeError("compare", "number", args[0])
			}
			return lisp.True, nil
		}
		result := true
		for i := 1; i < len(args); i++ {
			cmp, err := lisp.CompareNumbers(args[i-1], args[i])
			if err != nil {
				return nil, err
			}
			result = result && ok(cmp)
		}
		return lisp.BoolValue(result), nil
	}
}

func extreme(sign int) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		best := args[0]
		if !lisp.IsNumber(best) {
			return nil, libutil.TypeError("max", "number", best)
		}
		for _, x := range args[1:] {
			cmp, err := lisp.CompareNumbers(x, best)
			if err != nil {
				return nil, err
			}
			if cmp == sign {
				best = x
			}
		}
		return best, nil
	}
}

func builtinIsZero(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if !lisp.IsNumber(args[0]) {
		return nil, libutil.TypeError("zero?", "number", args[0])
	}
	return lisp.BoolValue(lisp.Sign(args[0]) == 0), nil
}

func builtinInt(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch x := args[0].(type) {
	case lisp.Int:
		return x, nil
	case lisp.Char:
		return lisp.Int(x), nil
	}
	f, err := lisp.ToFloat(args[0])
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return nil, lisp.Errorf(lisp.ArithmeticError, "integer overflow")
	}
	return lisp.Int(int64(f)), nil
}

func builtinFloat(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	f, err := lisp.ToFloat(args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Float(f), nil
}
