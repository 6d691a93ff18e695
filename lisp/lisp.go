// Copyright © 2018 The ELPS authors

// Package lisp implements the value model of the sxp language along with the
// namespace, var and runtime types shared by the compiler and the virtual
// machine.
package lisp

import (
	"fmt"
)

// Type is the runtime type tag of a Value.
type Type uint

// Possible Type values
const (
	// TNil is the type of the Nil singleton.
	TNil Type = iota
	// TBool is the type of True and False.
	TBool
	TInt
	TFloat
	// TRatio values are exact fractions whose denominator is not 1.
	TRatio
	TString
	TChar
	TKeyword
	TSymbol
	// TList values are persistent singly linked lists with a known count.
	TList
	// TSeq values are sequence views: cons cells and walks over the
	// elements of another collection.
	TSeq
	// TLazySeq values compute their sequence on first use.
	TLazySeq
	TVector
	TMap
	TSet
	TMapEntry
	TRegex
	TError
	// TErrorKind values name a class of errors and are used in catch
	// clauses.
	TErrorKind
	TVar
	TNamespace
	// TBuiltin values are functions implemented in Go.
	TBuiltin
	// TFunction values are compiled bytecode functions without captured
	// variables.
	TFunction
	// TClosure values pair a compiled function with captured variables.
	TClosure
	// TTypeMax is not a real type.  It is numerically greater than all valid
	// Type values.
	TTypeMax
)

var typeStrings = [TTypeMax]string{
	TNil:       "Nil",
	TBool:      "Bool",
	TInt:       "Integer",
	TFloat:     "Float",
	TRatio:     "Ratio",
	TString:    "String",
	TChar:      "Character",
	TKeyword:   "Keyword",
	TSymbol:    "Symbol",
	TList:      "List",
	TSeq:       "Seq",
	TLazySeq:   "LazySeq",
	TVector:    "Vector",
	TMap:       "HashMap",
	TSet:       "HashSet",
	TMapEntry:  "MapEntry",
	TRegex:     "Regex",
	TError:     "Error",
	TErrorKind: "ErrorKind",
	TVar:       "Var",
	TNamespace: "Namespace",
	TBuiltin:   "Builtin",
	TFunction:  "Function",
	TClosure:   "Closure",
}

func (t Type) String() string {
	if t >= TTypeMax {
		return "Invalid"
	}
	return "Sx" + typeStrings[t]
}

// Value is implemented by every sxp value.  String returns the readable
// printed representation of the value.
type Value interface {
	Type() Type
	String() string
}

// Named is implemented by values which carry a user visible name, such as
// functions and vars.
type Named interface {
	Name() string
}

// Documented is implemented by values which carry a docstring.
type Documented interface {
	Doc() string
}

type nilValue struct{}

func (nilValue) Type() Type     { return TNil }
func (nilValue) String() string { return "nil" }

// Bool is a boolean value.
type Bool bool

func (Bool) Type() Type { return TBool }

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

var (
	// Nil is the sole value of type TNil.
	Nil Value = nilValue{}
	// True is the boolean true value.
	True Value = Bool(true)
	// False is the boolean false value.
	False Value = Bool(false)
)

// IsNil returns true if v is Nil or an unset Go interface.
func IsNil(v Value) bool {
	return v == nil || v == Nil
}

// Truthy returns false for nil and false and true for every other value.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	switch v := v.(type) {
	case nilValue:
		return false
	case Bool:
		return bool(v)
	}
	return true
}

// BoolValue converts a Go bool into True or False.
func BoolValue(b bool) Value {
	if b {
		return True
	}
	return False
}

// Location is a position in a source stream.
type Location struct {
	File string // a name representing the source stream
	Line int    // line number (starting at 1 when tracked)
	Col  int    // line column number (starting at 1 when tracked)
}

func (loc *Location) String() string {
	if loc == nil {
		return "<unknown>"
	}
	switch {
	case loc.Line == 0:
		return loc.File
	case loc.Col == 0:
		return fmt.Sprintf("%s:%d", loc.File, loc.Line)
	default:
		return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Col)
	}
}

// Located is implemented by forms which remember where the reader found
// them.
type Located interface {
	Location() *Location
}

// SourceOf returns the source location of v when it has one.
func SourceOf(v Value) *Location {
	if l, ok := v.(Located); ok {
		return l.Location()
	}
	return nil
}

// TypeName returns the printed type name of v, e.g. "SxInteger".
func TypeName(v Value) string {
	if v == nil {
		return TNil.String()
	}
	return v.Type().String()
}
