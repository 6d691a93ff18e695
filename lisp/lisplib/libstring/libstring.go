// Copyright © 2018 The ELPS authors

package libstring

import (
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "string"

// LoadPackage adds the string namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("lower", 1, 1, builtinLower,
		`Returns s with all letters mapped to lower case.`),
	libutil.FunctionDoc("upper", 1, 1, builtinUpper,
		`Returns s with all letters mapped to upper case.`),
	libutil.FunctionDoc("trim", 1, 1, builtinTrim,
		`Returns s without leading and trailing white space.`),
	libutil.FunctionDoc("split", 2, 2, builtinSplit,
		`Splits s around each occurrence of sep, which may be a string or
		a regex.  Returns a vector of strings.`),
	libutil.FunctionDoc("join", 1, 2, builtinJoin,
		`Returns the display forms of the elements of coll concatenated
		and separated by sep.  With one argument the separator is empty.`),
}

func stringFn(name string, fn func(string) string) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		s, err := libutil.String(name, args[0])
		if err != nil {
			return nil, err
		}
		return lisp.String(fn(s)), nil
	}
}

var (
	builtinLower = stringFn("lower", strings.ToLower)
	builtinUpper = stringFn("upper", strings.ToUpper)
	builtinTrim  = stringFn("trim", strings.TrimSpace)
)

func builtinSplit(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("split", args[0])
	if err != nil {
		return nil, err
	}
	var parts []string
	switch sep := args[1].(type) {
	case lisp.String:
		parts = strings.Split(s, string(sep))
	case *lisp.Regex:
		parts = sep.Regexp().Split(s, -1)
	default:
		return nil, libutil.TypeError("split", "string or regex", args[1])
	}
	vals := make([]lisp.Value, len(parts))
	for i, p := range parts {
		vals[i] = lisp.String(p)
	}
	return lisp.NewVector(vals), nil
}

func builtinJoin(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	coll, sep := args[len(args)-1], ""
	if len(args) == 2 {
		var err error
		if sep, err = libutil.String("join", args[0]); err != nil {
			return nil, err
		}
	}
	items, err := lisp.SeqSlice(coll)
	if err != nil {
		return nil, err
	}
	var b strings.Builder
	for i, x := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(lisp.Str(x))
	}
	return lisp.String(b.String()), nil
}
