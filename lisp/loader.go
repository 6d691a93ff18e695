// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"
)

// Reader abstracts a parser implementation so that it may be implemented in a
// separate package as an optional/swappable component.
type Reader interface {
	// Read the contents of r and return the sequence of forms that it
	// contains.  The returned forms should be evaluated in order.
	Read(name string, r io.Reader) ([]Value, error)
}

// ReaderFunc adapts a function to the Reader interface.
type ReaderFunc func(name string, r io.Reader) ([]Value, error)

func (fn ReaderFunc) Read(name string, r io.Reader) ([]Value, error) {
	return fn(name, r)
}
