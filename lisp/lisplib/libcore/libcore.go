// Copyright © 2018 The ELPS authors

// Package libcore implements the builtin functions and macros of the sxp core
// namespace.
package libcore

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// LoadPackage defines the core library in the core namespace of rt.
func LoadPackage(rt *lisp.Runtime) error {
	core := rt.Core()
	groups := [][]*libutil.Builtin{
		macros,
		seqBuiltins,
		numberBuiltins,
		langBuiltins,
		predicateBuiltins(),
	}
	for _, fns := range groups {
		if err := libutil.Define(core, fns); err != nil {
			return err
		}
	}
	return nil
}
