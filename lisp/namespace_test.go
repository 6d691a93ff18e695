// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespaceIntern(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	reg := lisp.NewRegistry(logger)
	core := reg.Core()
	_, err := core.Def("inc", lisp.Int(0))
	require.NoError(t, err)

	user := reg.Namespace(lisp.UserNamespace)
	assert.IsType(t, &lisp.Var{}, user.Lookup("inc"), "new namespaces refer core vars")
	assert.Equal(t, lisp.CastError, user.Lookup("SxCastError"), "error kinds are default constants")

	v1, err := user.Intern(lisp.Sym("x"))
	require.NoError(t, err)
	v2, err := user.Intern(lisp.Sym("x"))
	require.NoError(t, err)
	assert.Same(t, v1, v2)
	assert.Equal(t, "#'user/x", v1.String())

	shadow, err := user.Intern(lisp.Sym("inc"))
	require.NoError(t, err)
	assert.Equal(t, user, shadow.Namespace())
	assert.Contains(t, logs.String(), "already refers to")

	other := reg.Namespace("other")
	_, err = other.Def("y", lisp.Int(1))
	require.NoError(t, err)
	require.NoError(t, user.Refer(other))
	_, err = user.Intern(lisp.Sym("y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "y already refers to: #'other/y in namespace: user")

	_, err = user.Intern(lisp.Sym("other/z"))
	assert.Error(t, err)
}

func TestNamespaceResolve(t *testing.T) {
	reg := lisp.NewRegistry(logrus.New())
	user := reg.Namespace(lisp.UserNamespace)
	str := reg.Namespace("string")
	join, err := str.Def("join", lisp.Nil)
	require.NoError(t, err)
	priv, err := str.Def("helper", lisp.Nil)
	require.NoError(t, err)
	priv.SetMeta(mustMap(t, lisp.KwPrivate, lisp.True))

	require.NoError(t, user.Alias("s", str))
	v, ns := reg.Resolve(user, lisp.Sym("s/join"))
	assert.Equal(t, join, v)
	assert.Equal(t, str, ns)
	v, _ = reg.Resolve(user, lisp.Sym("string/join"))
	assert.Equal(t, join, v)
	v, ns = reg.Resolve(user, lisp.Sym("nope/join"))
	assert.Nil(t, v)
	assert.Nil(t, ns)

	publics := str.Publics()
	require.Len(t, publics, 1)
	assert.Equal(t, "join", publics[0].Name())
}

func TestVar(t *testing.T) {
	reg := lisp.NewRegistry(logrus.New())
	user := reg.Namespace(lisp.UserNamespace)
	v, err := user.Intern(lisp.Sym("x"))
	require.NoError(t, err)
	_, err = v.Get()
	assert.Error(t, err, "unbound var")

	v.SetMacro()
	v.SetRoot(lisp.Int(1), true)
	assert.True(t, v.IsMacro())
	require.NoError(t, v.Set(lisp.Int(2)))
	assert.False(t, v.IsMacro(), "set! clears the macro flag")

	assert.Error(t, v.PushBinding(lisp.Int(3)), "non-dynamic vars cannot be bound")
	v.SetDynamic(true)
	require.NoError(t, v.PushBinding(lisp.Int(3)))
	require.NoError(t, v.Set(lisp.Int(4)))
	x, err := v.Get()
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(4), x)
	require.NoError(t, v.PopBinding())
	x, err = v.Get()
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(2), x)
	assert.Error(t, v.PopBinding())

	v.SetMeta(mustMap(t, lisp.KwDoc, lisp.String("docs")))
	assert.Equal(t, "docs", v.Doc())
	assert.True(t, v.IsDynamic(), "metadata merges")
}

func mustMap(t *testing.T, kvs ...lisp.Value) *lisp.Map {
	m, err := lisp.NewMap(kvs...)
	require.NoError(t, err)
	return m
}
