// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVM struct{ rt *lisp.Runtime }

func (vm *fakeVM) Runtime() *lisp.Runtime { return vm.rt }

func (vm *fakeVM) Call(fn lisp.Value, args ...lisp.Value) (lisp.Value, error) {
	return fn.(lisp.Applicable).Apply(vm, args)
}

func TestRuntime(t *testing.T) {
	var out bytes.Buffer
	rt, err := lisp.NewRuntime(
		lisp.WithStdout(&out),
		lisp.WithMaxStackSize(64),
		lisp.WithSpawner(func(rt *lisp.Runtime) lisp.Caller { return &fakeVM{rt} }),
	)
	require.NoError(t, err)
	assert.Equal(t, 64, rt.MaxStackSize)
	assert.Equal(t, lisp.UserNamespace, rt.NS.Name())

	_, err = lisp.NewRuntime(lisp.WithMaxFrameDepth(0))
	assert.Error(t, err)

	a, b := rt.GenSym("x"), rt.GenSym("x")
	assert.NotEqual(t, a.Name, b.Name)
	assert.Regexp(t, `^x__\d+__AUTO__$`, a.Name)

	assert.Nil(t, rt.CurrentVM())
	outer := &fakeVM{rt}
	popOuter := rt.PushVM(outer)
	inner := &fakeVM{rt}
	popInner := rt.PushVM(inner)
	assert.Same(t, inner, rt.CurrentVM())
	popInner()
	assert.Same(t, outer, rt.CurrentVM())
	popOuter()
	assert.Equal(t, 0, rt.VMDepth())

	add := lisp.NewBuiltin("add", 2, 2, func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		return lisp.Add(args[0], args[1])
	})
	sum, err := rt.Call(add, lisp.Int(1), lisp.Int(2))
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(3), sum)
	_, err = rt.Call(add, lisp.Int(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wrong number of args (1) passed to: add")
}
