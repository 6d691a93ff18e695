// Copyright © 2018 The ELPS authors

package libutil

import (
	"github.com/luthersystems/sxp/lisp"
)

// TypeError reports an argument of the wrong type.
func TypeError(fn string, want string, got lisp.Value) *lisp.Error {
	return lisp.Errorf(lisp.CastError, "%s: argument is not a %s: %s", fn, want, lisp.TypeName(got))
}

// String returns v as a Go string.
func String(fn string, v lisp.Value) (string, error) {
	s, ok := v.(lisp.String)
	if !ok {
		return "", TypeError(fn, "string", v)
	}
	return string(s), nil
}

// Int returns v as a Go int.
func Int(fn string, v lisp.Value) (int, error) {
	n, ok := v.(lisp.Int)
	if !ok {
		return 0, TypeError(fn, "integer", v)
	}
	return int(n), nil
}

// Symbol returns v as a symbol.
func Symbol(fn string, v lisp.Value) (*lisp.Symbol, error) {
	sym, ok := v.(*lisp.Symbol)
	if !ok {
		return nil, TypeError(fn, "symbol", v)
	}
	return sym, nil
}

// Strings returns the elements of the sequence v, which must be strings.
func Strings(fn string, v lisp.Value) ([]string, error) {
	vals, err := lisp.SeqSlice(v)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(vals))
	for i, x := range vals {
		if out[i], err = String(fn, x); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Call calls fn from a builtin.  Code runs on the active VM of the runtime
// when there is one.
func Call(rt *lisp.Runtime, fn lisp.Value, args ...lisp.Value) (lisp.Value, error) {
	if vm := rt.CurrentVM(); vm != nil {
		return vm.Call(fn, args...)
	}
	return rt.Call(fn, args...)
}
