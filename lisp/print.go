// Copyright © 2018 The ELPS authors

package lisp

import "strings"

// PrStr returns the readable representation of v, as printed by pr.
func PrStr(v Value) string {
	if v == nil {
		return "nil"
	}
	return v.String()
}

// Display returns the human oriented representation of v, as printed by
// print.  Strings and characters inside v are written without quoting.
func Display(v Value) string {
	var b strings.Builder
	display(&b, v)
	return b.String()
}

// Str converts v to a string the way the str builtin does.  Nil is the empty
// string.
func Str(v Value) string {
	if IsNil(v) {
		return ""
	}
	return Display(v)
}

func display(b *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case String:
		b.WriteString(string(v))
	case Char:
		b.WriteRune(rune(v))
	case *Vector:
		displayItems(b, "[", "]", v.items)
	case *Set:
		displayItems(b, "#{", "}", v.m.keys)
	case *MapEntry:
		displayItems(b, "[", "]", []Value{v.Key, v.Val})
	case *Map:
		b.WriteByte('{')
		for i := range v.keys {
			if i > 0 {
				b.WriteString(", ")
			}
			display(b, v.keys[i])
			b.WriteByte(' ')
			display(b, v.vals[i])
		}
		b.WriteByte('}')
	case *List, *Cons, *LazySeq, *sliceSeq:
		s, err := ToSeq(v)
		b.WriteByte('(')
		for i := 0; err == nil && s != nil; i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			display(b, s.First())
			s, err = s.Next()
		}
		if err != nil {
			b.WriteString(" #<error>")
		}
		b.WriteByte(')')
	default:
		b.WriteString(v.String())
	}
}

func displayItems(b *strings.Builder, open, close string, items []Value) {
	b.WriteString(open)
	for i, x := range items {
		if i > 0 {
			b.WriteByte(' ')
		}
		display(b, x)
	}
	b.WriteString(close)
}
