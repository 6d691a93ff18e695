// Copyright © 2024 The ELPS authors

package lisplib_test

import (
	"bytes"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/luthersystems/sxp/lisp/lisplib/libhelp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLibrary_RestoresNamespace(t *testing.T) {
	env, err := compiler.NewEnv()
	require.NoError(t, err)
	require.Equal(t, lisp.UserNamespace, env.Runtime.NS.Name())
	require.NoError(t, lisplib.LoadLibrary(env))
	assert.Equal(t, lisp.UserNamespace, env.Runtime.NS.Name())

	// The user namespace predates the core library and still sees it.
	v, err := env.EvalString(`(map inc [1 2 3])`)
	require.NoError(t, err)
	assert.Equal(t, "(2 3 4)", lisp.PrStr(v))
}

func TestNewDocEnv(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	require.NotNil(t, env)

	expected := []string{
		lisp.CoreNamespace, lisp.UserNamespace, "base64", "help", "io", "json", "math",
		"regex", "string", "testing",
	}
	for _, name := range expected {
		assert.NotNilf(t, env.Runtime.Registry.Find(name),
			"NewDocEnv should include namespace %q", name)
	}
	assert.Equal(t, lisp.UserNamespace, env.Runtime.NS.Name())
}

func TestLibraryShadowsCoreQuietly(t *testing.T) {
	var logs bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&logs)
	logger.SetLevel(logrus.WarnLevel)
	env, err := lisplib.NewEnv(lisp.WithLogger(logger), lisp.WithStderr(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.NotContains(t, logs.String(), "being replaced")

	json := env.Runtime.Registry.Find("json")
	require.NotNil(t, json)
	v, ok := json.Lookup("load-string").(*lisp.Var)
	require.True(t, ok)
	assert.Equal(t, json, v.Namespace(), "json defines its own load-string")
	assert.Equal(t, json, json.Lookup("dump-string").(*lisp.Var).Namespace())

	x, err := env.EvalString(`(json/load-string "{\"a\": 1}" true)`)
	require.NoError(t, err)
	assert.Equal(t, "{:a 1}", lisp.PrStr(x))
	x, err = env.EvalString(`(load-string "(+ 1 2)")`)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(3), x)
}

func TestLibraryDocumented(t *testing.T) {
	env, err := lisplib.NewDocEnv()
	require.NoError(t, err)
	for _, m := range libhelp.CheckMissing(env.Runtime) {
		t.Errorf("%s %s has no documentation", m.Kind, m.Name)
	}
}

func TestStdout(t *testing.T) {
	var out bytes.Buffer
	env, err := lisplib.NewEnv(lisp.WithStdout(&out))
	require.NoError(t, err)
	_, err = env.EvalString(`(io/println "a" 1 :b) (io/prn "a" \c)`)
	require.NoError(t, err)
	assert.Equal(t, "a 1 :b\n\"a\" \\c\n", out.String())
}
