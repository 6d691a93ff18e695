// Copyright © 2018 The ELPS authors

// Package compiler translates sxp forms into bytecode functions and provides
// Env, the entrypoint for evaluating source code.
package compiler

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/sirupsen/logrus"
)

// context describes where a form's value goes.  Only forms compiled in tail
// context may recur.
type context int

const (
	ctxDefault context = iota
	ctxStatement
	ctxExpression
	ctxTail
)

// Compiler compiles forms in the current namespace of a runtime.  A Compiler
// compiles one top level form at a time and is not safe for concurrent use.
type Compiler struct {
	rt      *lisp.Runtime
	log     *logrus.Entry
	fn      *fnIR
	blocks  []block
	targets []*recurTarget
	// doc and defName describe the next function compiled by def.
	doc     string
	defName string
	// thunk names the wrapper compiled around a top-level form.  It is not
	// a recur target.
	thunk *lisp.Symbol
}

// New returns a compiler for rt.
func New(rt *lisp.Runtime) *Compiler {
	logger := rt.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Compiler{
		rt:  rt,
		log: logger.WithField("component", "compiler"),
	}
}

// Compile returns a function of no arguments which evaluates form.
func (c *Compiler) Compile(form lisp.Value) (*bytecode.Function, error) {
	c.fn, c.blocks, c.targets, c.doc, c.defName = nil, nil, nil, "", ""
	name := c.rt.GenSym("COMPILER_THUNK")
	c.thunk = name
	thunk := lisp.NewList(name, lisp.EmptyVector, form)
	fn, _, err := c.compileFn(form, thunk.Slice(), false, ctxDefault)
	if err != nil {
		return nil, err
	}
	if c.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		c.log.WithFields(logrus.Fields{
			"fn":        fn.Name,
			"methods":   len(fn.AllMethods()),
			"constants": len(fn.Consts),
		}).Debug("compiled")
	}
	return fn, nil
}

func compileErr(form lisp.Value, format string, args ...interface{}) *lisp.Error {
	return lisp.Errorf(lisp.CompilerError, format, args...).WithForm(form)
}

// wrap converts errors raised by collaborators into compile errors about
// form.  Errors which already belong to the language keep their kind.
func wrap(err error, form lisp.Value) error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*lisp.Error); ok {
		if e.Form == nil {
			e.WithForm(form)
		}
		return e
	}
	return compileErr(form, "%v", err)
}

func (c *Compiler) method() *bytecode.Method { return c.fn.method }

func (c *Compiler) emitOp(op bytecode.Opcode, operands ...byte) {
	c.method().Emit(op, operands...)
}

func (c *Compiler) emitFamily(f bytecode.Family, i int, form lisp.Value) error {
	return wrap(c.method().EmitFamily(f, i), form)
}

func (c *Compiler) emitConst(v lisp.Value, form lisp.Value) error {
	i, err := c.fn.fn.AddConstant(v)
	if err != nil {
		return wrap(err, form)
	}
	return c.emitFamily(bytecode.LoadConst, i, form)
}

func (c *Compiler) emitLoadFree(i int, form lisp.Value) error {
	if err := c.emitFamily(bytecode.LoadFree, i, form); err != nil {
		return err
	}
	if c.fn.once {
		c.emitOp(bytecode.OpLoadNil)
		return c.emitFamily(bytecode.StoreFree, i, form)
	}
	return nil
}

func (c *Compiler) emit(form lisp.Value, ctx context) error {
	switch x := form.(type) {
	case lisp.Bool:
		if x {
			c.emitOp(bytecode.OpLoadTrue)
		} else {
			c.emitOp(bytecode.OpLoadFalse)
		}
		return nil
	case *lisp.Symbol:
		return c.emitSymbol(x)
	case *lisp.List:
		if x.Empty() {
			c.emitOp(bytecode.OpLoadEmptyList)
			return nil
		}
		expanded, err := c.Expand(x)
		if err != nil {
			return err
		}
		if l, ok := expanded.(*lisp.List); ok && !l.Empty() {
			return c.emitList(l, ctx)
		}
		return c.emit(expanded, ctx)
	case *lisp.Vector:
		if x.Len() == 0 {
			c.emitOp(bytecode.OpLoadEmptyVector)
			return nil
		}
		return c.emitItems(bytecode.OpNewVector, x.Items(), x.Len(), form)
	case *lisp.Map:
		if x.Len() == 0 {
			c.emitOp(bytecode.OpLoadEmptyMap)
			return nil
		}
		var kvs []lisp.Value
		for _, e := range x.Entries() {
			kvs = append(kvs, e.Key, e.Val)
		}
		return c.emitItems(bytecode.OpNewMap, kvs, x.Len(), form)
	case *lisp.Set:
		if x.Len() == 0 {
			c.emitOp(bytecode.OpLoadEmptySet)
			return nil
		}
		return c.emitItems(bytecode.OpNewSet, x.Items(), x.Len(), form)
	case lisp.Seq, *lisp.LazySeq:
		// Forms produced by macros may be any kind of sequence.
		l, err := lisp.ListFromSeq(x)
		if err != nil {
			return wrap(err, form)
		}
		return c.emit(l, ctx)
	}
	if lisp.IsNil(form) {
		c.emitOp(bytecode.OpLoadNil)
		return nil
	}
	return c.emitConst(form, form)
}

// emitItems evaluates items left to right and collects them with op.
func (c *Compiler) emitItems(op bytecode.Opcode, items []lisp.Value, n int, form lisp.Value) error {
	if n > bytecode.MaxBytecodeAddress {
		return compileErr(form, "collection literal too large: %d items", n)
	}
	defer c.restoreDepth()()
	for _, item := range items {
		if err := c.emit(item, ctxExpression); err != nil {
			return err
		}
		c.fn.depth++
	}
	c.method().EmitU16(op, n)
	return nil
}

// restoreDepth returns a function resetting the operand depth once the values
// pushed by an instruction's operands have been consumed.
func (c *Compiler) restoreDepth() func() {
	depth := c.fn.depth
	return func() { c.fn.depth = depth }
}

// emitBody compiles a sequence of forms whose last value is the result.
func (c *Compiler) emitBody(forms []lisp.Value, ctx context) error {
	if len(forms) == 0 {
		c.emitOp(bytecode.OpLoadNil)
		return nil
	}
	for i, form := range forms {
		more := i+1 < len(forms)
		sub := ctx
		if ctx != ctxDefault && (ctx == ctxStatement || more) {
			sub = ctxStatement
		}
		if err := c.emit(form, sub); err != nil {
			return err
		}
		if more {
			c.emitOp(bytecode.OpPop)
		}
	}
	return nil
}

func (c *Compiler) emitSymbol(sym *lisp.Symbol) error {
	index, free, ok, err := c.resolveLocal(sym)
	if err != nil {
		return wrap(err, sym)
	}
	if ok {
		if free {
			return c.emitLoadFree(index, sym)
		}
		return c.emitFamily(bytecode.LoadLocal, index, sym)
	}
	val, err := c.resolve(sym)
	if err != nil {
		return err
	}
	v, isVar := val.(*lisp.Var)
	if !isVar {
		return c.emitConst(val, sym)
	}
	if v.IsMacro() {
		return compileErr(sym, "can't take the value of a macro: %s", v)
	}
	if err := c.emitConst(v, sym); err != nil {
		return err
	}
	c.emitOp(bytecode.OpVarGet)
	return nil
}

// resolve finds the global binding of sym: a var or a constant.
func (c *Compiler) resolve(sym *lisp.Symbol) (lisp.Value, error) {
	if !sym.HasNS() {
		if val := c.rt.NS.FindInterned(sym); val != nil {
			return val, nil
		}
		return nil, compileErr(sym, "unresolved symbol: %s", sym)
	}
	ns := c.rt.NS.LookupAlias(sym.NS)
	if ns == nil {
		return nil, compileErr(sym, "no such namespace: %s", sym.NS)
	}
	val := ns.FindInterned(sym)
	if val == nil {
		return nil, compileErr(sym, "no such var: %s", sym)
	}
	if v, ok := val.(*lisp.Var); ok && v.Namespace() != c.rt.NS && !v.IsPublic() {
		return nil, compileErr(sym, "var: %s is not public", v)
	}
	return val, nil
}

// lookupVar finds the var named by sym without interning it.
func (c *Compiler) lookupVar(sym *lisp.Symbol) (*lisp.Var, error) {
	ns := c.rt.NS
	if sym.HasNS() {
		if ns = c.rt.NS.LookupAlias(sym.NS); ns == nil {
			return nil, nil
		}
	}
	switch val := ns.FindInterned(sym).(type) {
	case nil:
		return nil, nil
	case *lisp.Var:
		return val, nil
	default:
		return nil, compileErr(sym, "expecting a var but %s is mapped to type: %s", sym, lisp.TypeName(val))
	}
}

func (c *Compiler) emitList(l *lisp.List, ctx context) error {
	items := l.Slice()
	if sym, ok := items[0].(*lisp.Symbol); ok && !sym.HasNS() {
		if special, ok := specialForms[sym.Name]; ok {
			return special(c, l, items[1:], ctx)
		}
	}
	return c.emitCall(l, items)
}

// emitCall pushes the callable and its arguments and calls it.
func (c *Compiler) emitCall(form lisp.Value, items []lisp.Value) error {
	defer c.restoreDepth()()
	for _, item := range items {
		if err := c.emit(item, ctxExpression); err != nil {
			return err
		}
		c.fn.depth++
	}
	return c.emitFamily(bytecode.Call, len(items)-1, form)
}
