// Copyright © 2018 The ELPS authors

// Package lisplib is used to conveniently load the standard library for the
// sxp environment
package lisplib

import (
	"bytes"
	"fmt"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib/libbase64"
	"github.com/luthersystems/sxp/lisp/lisplib/libcore"
	"github.com/luthersystems/sxp/lisp/lisplib/libhelp"
	"github.com/luthersystems/sxp/lisp/lisplib/libio"
	"github.com/luthersystems/sxp/lisp/lisplib/libjson"
	"github.com/luthersystems/sxp/lisp/lisplib/libmath"
	"github.com/luthersystems/sxp/lisp/lisplib/libregexp"
	"github.com/luthersystems/sxp/lisp/lisplib/libstring"
	"github.com/luthersystems/sxp/lisp/lisplib/libtesting"
)

// Loaders lists the namespace loaders run by LoadLibrary, core first.
var Loaders = []func(*lisp.Runtime) error{
	libcore.LoadPackage,
	libbase64.LoadPackage,
	libhelp.LoadPackage,
	libio.LoadPackage,
	libjson.LoadPackage,
	libmath.LoadPackage,
	libregexp.LoadPackage,
	libstring.LoadPackage,
	libtesting.LoadPackage,
}

// LoadLibrary loads the standard library into env.  Namespaces which existed
// before the core library was loaded, such as user, are made to refer to it.
// The current namespace is left unchanged.
func LoadLibrary(env *compiler.Env) error {
	rt := env.Runtime
	ns := rt.NS
	defer func() { rt.NS = ns }()
	for _, load := range Loaders {
		if err := load(rt); err != nil {
			return err
		}
	}
	core := rt.Core()
	for _, other := range rt.Registry.Namespaces() {
		if err := other.Refer(core); err != nil {
			return err
		}
	}
	rt.Logger.WithField("namespaces", len(rt.Registry.Namespaces())).Debug("library loaded")
	return nil
}

// NewEnv returns an environment with the standard library loaded, evaluating
// code in the user namespace.
func NewEnv(opts ...lisp.Config) (*compiler.Env, error) {
	env, err := compiler.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	if err := LoadLibrary(env); err != nil {
		return nil, fmt.Errorf("load-library: %w", err)
	}
	return env, nil
}

// NewDocEnv creates a standard environment with the stdlib loaded, suitable
// for documentation queries.  Output written by evaluated code is
// discarded.
func NewDocEnv() (*compiler.Env, error) {
	return NewEnv(lisp.WithStdout(&bytes.Buffer{}), lisp.WithStderr(&bytes.Buffer{}))
}
