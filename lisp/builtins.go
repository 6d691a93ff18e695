// Copyright © 2018 The ELPS authors

package lisp

import "fmt"

// Caller invokes callable values.  Builtins receive the Caller of the VM that
// called them so that they can call back into the language.
type Caller interface {
	Call(fn Value, args ...Value) (Value, error)
	Runtime() *Runtime
}

// Applicable is implemented by values that may be called without a VM frame:
// builtins, keywords, maps, sets, vectors and vars.
type Applicable interface {
	Value
	Apply(c Caller, args []Value) (Value, error)
}

// BuiltinFunc is the Go implementation of a builtin.
type BuiltinFunc func(c Caller, args []Value) (Value, error)

// Builtin is a function implemented in Go.  A negative MaxArgs accepts any
// number of arguments beyond MinArgs.
type Builtin struct {
	NS      string
	Name    string
	MinArgs int
	MaxArgs int
	Fn      BuiltinFunc
	Docs    string
}

// NewBuiltin returns a builtin taking between min and max arguments.
func NewBuiltin(name string, min, max int, fn BuiltinFunc) *Builtin {
	return &Builtin{Name: name, MinArgs: min, MaxArgs: max, Fn: fn}
}

func (*Builtin) Type() Type { return TBuiltin }

func (b *Builtin) String() string { return fmt.Sprintf("#<Builtin %s>", b.Name) }

// Doc returns the documentation of b.
func (b *Builtin) Doc() string { return b.Docs }

// Apply checks the argument count and calls b.
func (b *Builtin) Apply(c Caller, args []Value) (Value, error) {
	if len(args) < b.MinArgs || (b.MaxArgs >= 0 && len(args) > b.MaxArgs) {
		return nil, ArityError(len(args), b.Name)
	}
	v, err := b.Fn(c, args)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return Nil, nil
	}
	return v, nil
}

// IsFn returns true if v can be called.
func IsFn(v Value) bool {
	switch v.Type() {
	case TBuiltin, TFunction, TClosure:
		return true
	}
	return false
}
