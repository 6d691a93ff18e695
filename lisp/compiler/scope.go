// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
)

// local is a lexical binding.  It belongs to the method whose frame holds
// the slot.
type local struct {
	name   string
	index  int
	method *bytecode.Method
}

// block is a lexical scope, newest binding last.
type block []*local

// fnIR is the function being compiled along with the state needed to compile
// its methods.
type fnIR struct {
	fn     *bytecode.Function
	method *bytecode.Method
	free   []bytecode.Capture
	once   bool
	// depth counts the operand values pushed by enclosing expressions of the
	// method being compiled.
	depth  int
	parent *fnIR
}

type recurKind int

const (
	recurLoop recurKind = iota
	recurFn
)

// recurTarget is the destination of a recur: a loop body or a method entry.
type recurTarget struct {
	kind    recurKind
	addr    int
	reqArgs int
	rest    bool
	slots   []int
	// base is the lowest local slot assigned again on each pass through
	// the target.
	base int
}

func (c *Compiler) enterFn(name string, once bool) func() {
	ir := &fnIR{
		fn:     bytecode.NewFunction(name),
		once:   once,
		parent: c.fn,
	}
	ir.fn.NS = c.rt.NS.Name()
	ir.fn.Once = once
	c.fn = ir
	return func() { c.fn = ir.parent }
}

func (c *Compiler) enterBlock() func() {
	c.blocks = append(c.blocks, nil)
	n := len(c.blocks)
	return func() { c.blocks = c.blocks[:n-1] }
}

func (c *Compiler) enterRecur(t *recurTarget) func() {
	c.targets = append(c.targets, t)
	n := len(c.targets)
	return func() { c.targets = c.targets[:n-1] }
}

func (c *Compiler) recurTarget() *recurTarget {
	if len(c.targets) == 0 {
		return nil
	}
	return c.targets[len(c.targets)-1]
}

// registerLocal allocates the next slot of the current method and binds sym
// to it in the innermost block.
func (c *Compiler) registerLocal(sym *lisp.Symbol) int {
	m := c.fn.method
	loc := &local{name: sym.Name, index: m.NextLocal(), method: m}
	n := len(c.blocks) - 1
	c.blocks[n] = append(c.blocks[n], loc)
	return loc.index
}

func (c *Compiler) findLocal(sym *lisp.Symbol) *local {
	if sym.HasNS() {
		return nil
	}
	for i := len(c.blocks) - 1; i >= 0; i-- {
		b := c.blocks[i]
		for j := len(b) - 1; j >= 0; j-- {
			if b[j].name == sym.Name {
				return b[j]
			}
		}
	}
	return nil
}

// resolveLocal finds the lexical binding of sym.  Bindings of enclosing
// functions are captured and resolve to a free variable slot of the current
// function.
func (c *Compiler) resolveLocal(sym *lisp.Symbol) (index int, free bool, ok bool, err error) {
	loc := c.findLocal(sym)
	if loc == nil {
		return 0, false, false, nil
	}
	if loc.method == c.fn.method {
		return loc.index, false, true, nil
	}
	index, err = closeOver(loc, c.fn)
	if err != nil {
		return 0, false, false, err
	}
	return index, true, true, nil
}

// closeOver makes loc a free variable of ir, capturing it through every
// function between ir and the function owning loc.
func closeOver(loc *local, ir *fnIR) (int, error) {
	if ir.parent.method == loc.method {
		return registerFree(ir, bytecode.Capture{IsLocal: true, Index: loc.index})
	}
	i, err := closeOver(loc, ir.parent)
	if err != nil {
		return 0, err
	}
	return registerFree(ir, bytecode.Capture{Index: i})
}

func registerFree(ir *fnIR, capture bytecode.Capture) (int, error) {
	for i, fv := range ir.free {
		if fv == capture {
			return i, nil
		}
	}
	if len(ir.free) == bytecode.MaxFreeVars {
		return 0, lisp.Errorf(lisp.CompilerError, "maximum free variables per fn (%d) exceeded", bytecode.MaxFreeVars)
	}
	if capture.Index > 0xff {
		return 0, lisp.Errorf(lisp.CompilerError, "local slot %d cannot be captured by a closure", capture.Index)
	}
	ir.free = append(ir.free, capture)
	return len(ir.free) - 1, nil
}
