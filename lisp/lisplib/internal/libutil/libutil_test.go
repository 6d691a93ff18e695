// Copyright © 2024 The ELPS authors

package libutil

import (
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefine(t *testing.T) {
	rt := lisp.StandardRuntime()
	ns := rt.Registry.Namespace("lib")
	noop := func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) { return lisp.Nil, nil }
	err := Define(ns, []*Builtin{
		FunctionDoc("f", 0, 1, noop, `Does
			nothing.`),
		Macro("m", 0, VarArgs, noop, ""),
	})
	require.NoError(t, err)

	f, ok := ns.Lookup("f").(*lisp.Var)
	require.True(t, ok)
	assert.Equal(t, "Does\nnothing.", f.Doc())
	assert.False(t, f.IsMacro())

	m, ok := ns.Lookup("m").(*lisp.Var)
	require.True(t, ok)
	assert.True(t, m.IsMacro())
	b, err := m.Get()
	require.NoError(t, err)
	assert.Equal(t, "lib", b.(*lisp.Builtin).NS)
}

func TestArgs(t *testing.T) {
	s, err := String("f", lisp.String("x"))
	require.NoError(t, err)
	assert.Equal(t, "x", s)
	_, err = String("f", lisp.Int(1))
	assert.Equal(t, lisp.CastError, lisp.AsError(err).Kind)

	ss, err := Strings("f", lisp.VectorOf(lisp.String("a"), lisp.String("b")))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ss)
	_, err = Strings("f", lisp.NewList(lisp.Int(1)))
	assert.Error(t, err)
}
