// Copyright © 2018 The ELPS authors

package libcore_test

import (
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib/libcore"
	"github.com/luthersystems/sxp/sxptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackage(t *testing.T) {
	r := &sxptest.Runner{}
	r.RunTestFile(t, "libcore_test.sxp")
}

// newCoreEnv returns an environment holding only the core library, referred
// into the user namespace.
func newCoreEnv(t *testing.T, opts ...lisp.Config) *compiler.Env {
	t.Helper()
	env, err := compiler.NewEnv(opts...)
	require.NoError(t, err)
	require.NoError(t, libcore.LoadPackage(env.Runtime))
	user := env.Runtime.Registry.Find(lisp.UserNamespace)
	require.NotNil(t, user)
	require.NoError(t, user.Refer(env.Runtime.Core()))
	return env
}

func TestLoadPackage(t *testing.T) {
	env := newCoreEnv(t)

	core := env.Runtime.Core()
	for _, name := range []string{"map", "defn", "binding", "push-bindings", "error?", "vm-frame-depth"} {
		v, ok := core.Lookup(name).(*lisp.Var)
		if assert.True(t, ok, name) {
			assert.NotEmpty(t, v.Doc(), name)
		}
	}

	v, err := env.EvalString(`(defn sq [x] (* x x)) (map sq (range 4))`)
	require.NoError(t, err)
	assert.Equal(t, "(0 1 4 9)", lisp.PrStr(v))
}

func TestMacroexpand(t *testing.T) {
	env := newCoreEnv(t)

	v, err := env.EvalString(`(macroexpand-1 '(when x y z))`)
	require.NoError(t, err)
	assert.Equal(t, "(if x (do y z))", lisp.PrStr(v))

	v, err = env.EvalString(`(macroexpand '(-> a (b c) d))`)
	require.NoError(t, err)
	assert.Equal(t, "(d (b a c))", lisp.PrStr(v))
}

func TestFrameDepth(t *testing.T) {
	env := newCoreEnv(t, lisp.WithMaxFrameDepth(100))

	v, err := env.EvalString(`(vm-max-frame-depth)`)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(100), v)

	_, err = env.EvalString(`(defn down [n] (if (= n 0) 0 (+ 1 (down (dec n))))) (down 1000)`)
	require.Error(t, err)
	assert.Equal(t, lisp.RuntimeError, lisp.AsError(err).Kind)

	v, err = env.EvalString(`(down 50)`)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(50), v)
}
