// Copyright © 2018 The ELPS authors

package lisp

import (
	"strings"
)

// Seq is a non-empty sequence.  A nil Seq is the empty sequence.  Next may
// need to realize lazy sequences and so may fail.
type Seq interface {
	Value
	First() Value
	Next() (Seq, error)
}

// List is a persistent singly linked list.
type List struct {
	first  Value
	rest   *List
	count  int
	meta   *Map
	Source *Location
}

// EmptyList is the shared empty list.
var EmptyList = &List{}

// NewList returns a list of vals in order.
func NewList(vals ...Value) *List {
	l := EmptyList
	for i := len(vals) - 1; i >= 0; i-- {
		l = l.Cons(vals[i])
	}
	return l
}

func (*List) Type() Type { return TList }

func (l *List) String() string {
	if l.count == 0 {
		return "()"
	}
	return printSeq("(", ")", l)
}

// Cons returns a new list with v in front of l.
func (l *List) Cons(v Value) *List {
	return &List{first: v, rest: l, count: l.count + 1}
}

// Empty returns true if l has no elements.
func (l *List) Empty() bool { return l.count == 0 }

// Len returns the number of elements in l.
func (l *List) Len() int { return l.count }

// First returns the head of l, or Nil when l is empty.
func (l *List) First() Value {
	if l.count == 0 {
		return Nil
	}
	return l.first
}

// Rest returns the tail of l, never nil.
func (l *List) Rest() *List {
	if l.count <= 1 {
		return EmptyList
	}
	return l.rest
}

func (l *List) Next() (Seq, error) {
	if l.count <= 1 {
		return nil, nil
	}
	return l.rest, nil
}

// Slice returns the elements of l.
func (l *List) Slice() []Value {
	vals := make([]Value, 0, l.count)
	for c := l; c.count > 0; c = c.rest {
		vals = append(vals, c.first)
	}
	return vals
}

// Nth returns the element at index i.
func (l *List) Nth(i int) (Value, bool) {
	if i < 0 || i >= l.count {
		return nil, false
	}
	c := l
	for ; i > 0; i-- {
		c = c.rest
	}
	return c.first, true
}

func (l *List) Meta() *Map { return l.meta }

func (l *List) WithMeta(m *Map) Value {
	cp := *l
	cp.meta = m
	return &cp
}

func (l *List) Location() *Location { return l.Source }

// WithSource returns a copy of l that remembers loc.
func (l *List) WithSource(loc *Location) *List {
	cp := *l
	cp.Source = loc
	return &cp
}

// Cons is a sequence cell whose rest may be any seqable value, including a
// lazy sequence.
type Cons struct {
	first Value
	more  Value
	meta  *Map
}

// NewCons returns a cell holding first in front of the seqable more.
func NewCons(first, more Value) *Cons {
	return &Cons{first: first, more: more}
}

func (*Cons) Type() Type { return TSeq }

func (c *Cons) String() string { return printSeq("(", ")", c) }

func (c *Cons) First() Value { return c.first }

func (c *Cons) Next() (Seq, error) { return ToSeq(c.more) }

func (c *Cons) Meta() *Map { return c.meta }

func (c *Cons) WithMeta(m *Map) Value {
	cp := *c
	cp.meta = m
	return &cp
}

// sliceSeq walks a slice owned by an immutable collection.
type sliceSeq struct {
	items []Value
	i     int
}

func newSliceSeq(items []Value) Seq {
	if len(items) == 0 {
		return nil
	}
	return &sliceSeq{items: items}
}

func (*sliceSeq) Type() Type { return TSeq }

func (s *sliceSeq) String() string { return printSeq("(", ")", s) }

func (s *sliceSeq) First() Value { return s.items[s.i] }

func (s *sliceSeq) Next() (Seq, error) {
	if s.i+1 >= len(s.items) {
		return nil, nil
	}
	return &sliceSeq{items: s.items, i: s.i + 1}, nil
}

// ToSeq returns a sequence over the elements of v.  Nil and empty
// collections produce a nil Seq.
func ToSeq(v Value) (Seq, error) {
	switch v := v.(type) {
	case nil, nilValue:
		return nil, nil
	case *List:
		if v.count == 0 {
			return nil, nil
		}
		return v, nil
	case *LazySeq:
		return v.Seq()
	case *Vector:
		return newSliceSeq(v.items), nil
	case *Map:
		return newSliceSeq(v.entryValues()), nil
	case *Set:
		return newSliceSeq(v.m.keys), nil
	case *MapEntry:
		return newSliceSeq([]Value{v.Key, v.Val}), nil
	case String:
		if v == "" {
			return nil, nil
		}
		var chars []Value
		for _, r := range string(v) {
			chars = append(chars, Char(r))
		}
		return newSliceSeq(chars), nil
	case Seq:
		return v, nil
	}
	return nil, Errorf(IllegalArgumentError, "don't know how to create a seq from: %s", TypeName(v))
}

// IsSeqable returns true if ToSeq accepts v.
func IsSeqable(v Value) bool {
	switch v.(type) {
	case nil, nilValue, *List, *LazySeq, *Vector, *Map, *Set, *MapEntry, String, Seq:
		return true
	}
	return false
}

// IsSequential returns true for ordered collections that compare element-wise.
func IsSequential(v Value) bool {
	switch v.(type) {
	case *List, *Vector, *LazySeq, *MapEntry, Seq:
		return true
	}
	return false
}

// SeqSlice collects the elements of v.
func SeqSlice(v Value) ([]Value, error) {
	switch v := v.(type) {
	case *List:
		return v.Slice(), nil
	case *Vector:
		out := make([]Value, len(v.items))
		copy(out, v.items)
		return out, nil
	}
	var out []Value
	s, err := ToSeq(v)
	for ; err == nil && s != nil; s, err = s.Next() {
		out = append(out, s.First())
	}
	return out, err
}

// ListFromSeq realizes v into a list.
func ListFromSeq(v Value) (*List, error) {
	if l, ok := v.(*List); ok {
		return l, nil
	}
	vals, err := SeqSlice(v)
	if err != nil {
		return nil, err
	}
	return NewList(vals...), nil
}

func printSeq(open, close string, s Seq) string {
	var b strings.Builder
	b.WriteString(open)
	var err error
	for i := 0; s != nil; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.First().String())
		s, err = s.Next()
		if err != nil {
			b.WriteString(" #<error>")
			break
		}
	}
	b.WriteString(close)
	return b.String()
}
