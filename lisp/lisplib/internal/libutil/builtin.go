// Copyright © 2018 The ELPS authors

package libutil

import (
	"strings"

	"github.com/luthersystems/sxp/lisp"
)

// VarArgs is the maximum argument count of a builtin accepting any number
// of trailing arguments.
const VarArgs = -1

// Builtin describes a builtin or Go macro defined by a library namespace.
type Builtin struct {
	name  string
	min   int
	max   int
	fun   lisp.BuiltinFunc
	docs  string
	macro bool
}

func Function(name string, min, max int, fun lisp.BuiltinFunc) *Builtin {
	return &Builtin{name: name, min: min, max: max, fun: fun}
}

func FunctionDoc(name string, min, max int, fun lisp.BuiltinFunc, docs string) *Builtin {
	return &Builtin{name: name, min: min, max: max, fun: fun, docs: docs}
}

// Macro returns a builtin which receives its arguments unevaluated and
// returns the form replacing the call.
func Macro(name string, min, max int, fun lisp.BuiltinFunc, docs string) *Builtin {
	return &Builtin{name: name, min: min, max: max, fun: fun, docs: docs, macro: true}
}

func (fun *Builtin) Name() string {
	return fun.name
}

func (fun *Builtin) Docstring() string {
	return fun.docs
}

// Define interns each builtin in ns.
func Define(ns *lisp.Namespace, fns []*Builtin) error {
	for _, fn := range fns {
		ns.Exclude(fn.name)
		b := lisp.NewBuiltin(fn.name, fn.min, fn.max, fn.fun)
		b.NS = ns.Name()
		b.Docs = cleanDoc(fn.docs)
		v, err := ns.Def(fn.name, b)
		if err != nil {
			return err
		}
		if b.Docs != "" {
			meta, err := lisp.NewMap(lisp.KwDoc, lisp.String(b.Docs))
			if err != nil {
				return err
			}
			v.SetMeta(meta)
		}
		if fn.macro {
			v.SetMacro()
		}
	}
	return nil
}

// cleanDoc removes the indentation of continuation lines in a docstring
// written inside Go source.
func cleanDoc(doc string) string {
	lines := strings.Split(strings.TrimSpace(doc), "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}
