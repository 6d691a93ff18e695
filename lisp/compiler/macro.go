// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/luthersystems/sxp/lisp/vm"
)

// macroVar returns the macro var named by the head of form, or nil when form
// is not a macro call.
func (c *Compiler) macroVar(form lisp.Value) (*lisp.Var, []lisp.Value) {
	l, ok := form.(*lisp.List)
	if !ok || l.Empty() {
		return nil, nil
	}
	sym, ok := l.First().(*lisp.Symbol)
	if !ok || IsSpecial(sym) || c.findLocal(sym) != nil {
		return nil, nil
	}
	val, err := c.resolve(sym)
	if err != nil {
		return nil, nil
	}
	v, ok := val.(*lisp.Var)
	if !ok || !v.IsMacro() {
		return nil, nil
	}
	return v, l.Slice()[1:]
}

// ExpandOne expands form once if it is a macro call.  Otherwise form is
// returned unchanged.
func (c *Compiler) ExpandOne(form lisp.Value) (lisp.Value, error) {
	x, _, err := c.expandOne(form)
	return x, err
}

func (c *Compiler) expandOne(form lisp.Value) (lisp.Value, bool, error) {
	v, args := c.macroVar(form)
	if v == nil {
		return form, false, nil
	}
	macro, err := v.Get()
	if err != nil {
		return nil, false, wrap(err, form)
	}
	thunk, err := expanderThunk(c.rt.GenSym("MACRO_EXPANDER_THUNK").Name, macro, args)
	if err != nil {
		return nil, false, wrap(err, form)
	}
	x, err := vm.New(c.rt).Run(thunk)
	if err != nil {
		return nil, false, wrap(err, form)
	}
	if l, ok := x.(*lisp.List); ok && !l.Empty() && l.Source == nil {
		x = l.WithSource(lisp.SourceOf(form))
	}
	return x, true, nil
}

// expanderThunk returns a function of no arguments calling macro with the
// unevaluated argument forms.
func expanderThunk(name string, macro lisp.Value, args []lisp.Value) (*bytecode.Function, error) {
	fn := bytecode.NewFunction(name)
	m, err := fn.AddMethod(false, 0)
	if err != nil {
		return nil, err
	}
	m.NextLocal()
	for _, x := range append([]lisp.Value{macro}, args...) {
		i, err := fn.AddConstant(x)
		if err != nil {
			return nil, err
		}
		if err := m.EmitFamily(bytecode.LoadConst, i); err != nil {
			return nil, err
		}
	}
	if err := m.EmitFamily(bytecode.Call, len(args)); err != nil {
		return nil, err
	}
	m.Emit(bytecode.OpReturn)
	return fn, m.CheckSize()
}

// Expand expands form until it is no longer a macro call.
func (c *Compiler) Expand(form lisp.Value) (lisp.Value, error) {
	limit := c.rt.MaxMacroExpansions
	for n := 0; ; n++ {
		if limit > 0 && n >= limit {
			return nil, compileErr(form, "macro expansion limit (%d) exceeded", limit)
		}
		x, expanded, err := c.expandOne(form)
		if err != nil {
			return nil, err
		}
		if !expanded {
			return x, nil
		}
		form = x
	}
}
