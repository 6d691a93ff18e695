// Copyright © 2018 The ELPS authors

package lisp

import "strings"

// Vector is a persistent indexed sequence.  Modifying operations copy.
type Vector struct {
	items []Value
	meta  *Map
}

// EmptyVector is the shared empty vector.
var EmptyVector = &Vector{}

// NewVector returns a vector which takes ownership of items.
func NewVector(items []Value) *Vector {
	if len(items) == 0 {
		return EmptyVector
	}
	return &Vector{items: items}
}

// VectorOf returns a vector containing a copy of vals.
func VectorOf(vals ...Value) *Vector {
	items := make([]Value, len(vals))
	copy(items, vals)
	return NewVector(items)
}

func (*Vector) Type() Type { return TVector }

func (v *Vector) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v.items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(x.String())
	}
	b.WriteByte(']')
	return b.String()
}

// Len returns the number of elements in v.
func (v *Vector) Len() int { return len(v.items) }

// Items returns the elements of v.  The returned slice must not be modified.
func (v *Vector) Items() []Value { return v.items }

// Nth returns the element at index i.
func (v *Vector) Nth(i int) (Value, bool) {
	if i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Conj returns a copy of v with x appended.
func (v *Vector) Conj(x Value) *Vector {
	items := make([]Value, len(v.items), len(v.items)+1)
	copy(items, v.items)
	return &Vector{items: append(items, x), meta: v.meta}
}

// Assoc returns a copy of v with index i set to x.  Index len(v) appends.
func (v *Vector) Assoc(i int, x Value) (*Vector, error) {
	if i == len(v.items) {
		return v.Conj(x), nil
	}
	if i < 0 || i > len(v.items) {
		return nil, Errorf(OutOfBoundsError, "index out of bounds: %d", i)
	}
	items := make([]Value, len(v.items))
	copy(items, v.items)
	items[i] = x
	return &Vector{items: items, meta: v.meta}, nil
}

// Apply indexes into v.
func (v *Vector) Apply(c Caller, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, ArityError(len(args), "SxVector")
	}
	i, ok := args[0].(Int)
	if !ok {
		return nil, Errorf(IllegalArgumentError, "key must be integer")
	}
	x, ok := v.Nth(int(i))
	if !ok {
		return nil, Errorf(OutOfBoundsError, "index out of bounds: %d", i)
	}
	return x, nil
}

func (v *Vector) Meta() *Map { return v.meta }

func (v *Vector) WithMeta(m *Map) Value {
	cp := *v
	cp.meta = m
	return &cp
}
