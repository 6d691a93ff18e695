// Copyright © 2018 The ELPS authors

package lisp

import "unicode/utf8"

// First returns the first element of the seqable v, or Nil.
func First(v Value) (Value, error) {
	s, err := ToSeq(v)
	if err != nil || s == nil {
		return Nil, err
	}
	return s.First(), nil
}

// Next returns the seq after the first element of v, or Nil.
func Next(v Value) (Value, error) {
	s, err := ToSeq(v)
	if err != nil || s == nil {
		return Nil, err
	}
	n, err := s.Next()
	if err != nil || n == nil {
		return Nil, err
	}
	return n, nil
}

// Rest is like Next but returns an empty list instead of Nil.
func Rest(v Value) (Value, error) {
	n, err := Next(v)
	if err != nil {
		return nil, err
	}
	if IsNil(n) {
		return EmptyList, nil
	}
	return n, nil
}

// Count returns the number of elements in v.
func Count(v Value) (int, error) {
	switch v := v.(type) {
	case nil, nilValue:
		return 0, nil
	case *List:
		return v.count, nil
	case *Vector:
		return v.Len(), nil
	case *Map:
		return v.Len(), nil
	case *Set:
		return v.Len(), nil
	case *MapEntry:
		return 2, nil
	case String:
		return utf8.RuneCountInString(string(v)), nil
	}
	if !IsSeqable(v) {
		return 0, Errorf(IllegalArgumentError, "count not supported on: %s", TypeName(v))
	}
	n := 0
	s, err := ToSeq(v)
	for ; err == nil && s != nil; s, err = s.Next() {
		n++
	}
	return n, err
}

// Nth returns the element of v at index i.
func Nth(v Value, i int) (Value, error) {
	var x Value
	var ok bool
	switch v := v.(type) {
	case *Vector:
		x, ok = v.Nth(i)
	case *List:
		x, ok = v.Nth(i)
	case String:
		runes := []rune(string(v))
		if i >= 0 && i < len(runes) {
			x, ok = Char(runes[i]), true
		}
	default:
		if !IsSequential(v) {
			return nil, Errorf(IllegalArgumentError, "nth not supported on: %s", TypeName(v))
		}
		s, err := ToSeq(v)
		for j := 0; err == nil && s != nil && i >= 0; j++ {
			if j == i {
				return s.First(), nil
			}
			s, err = s.Next()
		}
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, Errorf(OutOfBoundsError, "index out of bounds: %d", i)
	}
	return x, nil
}

// Get looks k up in an associative collection, returning notFound when
// missing.  Non-associative values always produce notFound.
func Get(coll Value, k Value, notFound Value) (Value, error) {
	switch c := coll.(type) {
	case *Map:
		if v, ok := c.Get(k); ok {
			return v, nil
		}
	case *Set:
		if c.Contains(k) {
			return k, nil
		}
	case *Vector:
		if i, ok := k.(Int); ok {
			if v, ok := c.Nth(int(i)); ok {
				return v, nil
			}
		}
	case String:
		if i, ok := k.(Int); ok {
			runes := []rune(string(c))
			if i >= 0 && int(i) < len(runes) {
				return Char(runes[i]), nil
			}
		}
	}
	return notFound, nil
}

// Contains returns true if k is a key of coll.
func Contains(coll Value, k Value) (bool, error) {
	switch c := coll.(type) {
	case nil, nilValue:
		return false, nil
	case *Map:
		return c.Contains(k), nil
	case *Set:
		return c.Contains(k), nil
	case *Vector:
		i, ok := k.(Int)
		return ok && i >= 0 && int(i) < c.Len(), nil
	}
	return false, Errorf(IllegalArgumentError, "contains? not supported on: %s", TypeName(coll))
}

// Conj adds x to coll in the collection's natural position.
func Conj(coll Value, x Value) (Value, error) {
	switch c := coll.(type) {
	case nil, nilValue:
		return NewList(x), nil
	case *List:
		return c.Cons(x), nil
	case *Vector:
		return c.Conj(x), nil
	case *Set:
		return c.Conj(x), nil
	case *Map:
		switch e := x.(type) {
		case *MapEntry:
			return c.Assoc(e.Key, e.Val), nil
		case *Vector:
			if e.Len() == 2 {
				return c.Assoc(e.items[0], e.items[1]), nil
			}
		}
		return nil, Errorf(IllegalArgumentError, "conj on a map wants a map entry, got: %s", TypeName(x))
	}
	if IsSeqable(coll) {
		return NewCons(x, coll), nil
	}
	return nil, Errorf(IllegalArgumentError, "conj not supported on: %s", TypeName(coll))
}

// Assoc associates k with v in a map or vector.  Assoc on nil creates a map.
func Assoc(coll Value, k, v Value) (Value, error) {
	switch c := coll.(type) {
	case nil, nilValue:
		return EmptyMap.Assoc(k, v), nil
	case *Map:
		return c.Assoc(k, v), nil
	case *Vector:
		i, ok := k.(Int)
		if !ok {
			return nil, Errorf(IllegalArgumentError, "key must be integer")
		}
		return c.Assoc(int(i), v)
	}
	return nil, Errorf(IllegalArgumentError, "assoc not supported on: %s", TypeName(coll))
}

// Dissoc removes k from a map.
func Dissoc(coll Value, k Value) (Value, error) {
	switch c := coll.(type) {
	case nil, nilValue:
		return Nil, nil
	case *Map:
		return c.Dissoc(k), nil
	}
	return nil, Errorf(IllegalArgumentError, "dissoc not supported on: %s", TypeName(coll))
}
