// Copyright © 2018 The ELPS authors

package vm

import (
	"fmt"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
)

// Upvalue is a variable captured by a closure.  While open it refers to a
// slot of its owning VM's stack.  Once the frame owning the slot returns the
// upvalue is closed and holds a private copy of the value.
type Upvalue struct {
	vm     *VM
	index  int
	value  lisp.Value
	closed bool
	next   *Upvalue
}

// Get returns the current value of u.
func (u *Upvalue) Get() lisp.Value {
	if u.closed {
		return u.value
	}
	return u.vm.stack[u.index]
}

// Set assigns the variable captured by u.
func (u *Upvalue) Set(v lisp.Value) {
	if u.closed {
		u.value = v
		return
	}
	u.vm.stack[u.index] = v
}

// IsOpen returns true while u refers to a live stack slot.
func (u *Upvalue) IsOpen() bool { return !u.closed }

func (u *Upvalue) close() {
	u.value = u.vm.stack[u.index]
	u.closed = true
	u.vm = nil
}

// Closure is a compiled function paired with its captured variables.
type Closure struct {
	Fn     *bytecode.Function
	Upvals []*Upvalue
}

// NewClosure returns a closure of fn with room for its upvalues.
func NewClosure(fn *bytecode.Function) *Closure {
	return &Closure{Fn: fn, Upvals: make([]*Upvalue, fn.NUpvals)}
}

func (*Closure) Type() lisp.Type { return lisp.TClosure }

func (c *Closure) String() string { return fmt.Sprintf("#<Closure %s>", c.Fn.Name) }

// FunInfo describes c to profilers.
func (c *Closure) FunInfo() *lisp.FunInfo { return c.Fn.FunInfo() }

// Doc returns the documentation of the closed function.
func (c *Closure) Doc() string { return c.Fn.Doc }
