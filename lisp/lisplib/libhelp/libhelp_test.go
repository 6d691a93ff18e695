// Copyright © 2021 The ELPS authors

package libhelp_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/luthersystems/sxp/lisp/lisplib/libhelp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T) (*compiler.Env, *bytes.Buffer) {
	t.Helper()
	var stderr bytes.Buffer
	env, err := lisplib.NewEnv(lisp.WithStderr(&stderr))
	require.NoError(t, err)
	return env, &stderr
}

func TestDocstring(t *testing.T) {
	env, _ := newTestEnv(t)

	// builtin function and macro
	for _, name := range []string{"map", "defn"} {
		v, err := env.EvalString(`(help/doc '` + name + `)`)
		require.NoError(t, err)
		if assert.IsType(t, lisp.String(""), v) {
			assert.NotEqual(t, "", string(v.(lisp.String)))
		}
	}

	_, err := env.LoadString("test.sxp", `
	(defn const-string1 [] "abc")
	(defn const-string2 "abc" [] "")
	`)
	require.NoError(t, err)

	v, err := env.EvalString(`(help/doc 'const-string1)`)
	require.NoError(t, err)
	assert.Equal(t, lisp.Nil, v)
	v, err = env.EvalString(`(help/doc (var const-string2))`)
	require.NoError(t, err)
	assert.Equal(t, lisp.String("  abc"), v)
}

func TestDocWraps(t *testing.T) {
	env, _ := newTestEnv(t)
	_, err := env.LoadString("test.sxp", `
	(defn long-doc
	  "Lorem ipsum dolor sit amet, consectetur adipiscing elit, sed do eiusmod tempor incididunt ut labore."
	  [] nil)
	`)
	require.NoError(t, err)
	v, err := env.EvalString(`(help/doc 'long-doc)`)
	require.NoError(t, err)
	lines := strings.Split(string(v.(lisp.String)), "\n")
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 74)
		assert.True(t, strings.HasPrefix(line, "  "))
	}
}

func TestRenderNamespace(t *testing.T) {
	env, _ := newTestEnv(t)

	var buf bytes.Buffer
	err := libhelp.RenderNamespace(&buf, env.Runtime, "math")
	require.NoError(t, err)
	output := buf.String()
	assert.True(t, strings.HasPrefix(output, "namespace math\n"),
		"output should start with namespace header, got: %s", output)
	assert.Contains(t, output, "function math/sqrt")
	assert.Contains(t, output, "SxFloat math/pi 3.14")

	err = libhelp.RenderNamespace(&buf, env.Runtime, "no-such-ns")
	assert.Error(t, err)
}

func TestHelpBuiltins(t *testing.T) {
	env, stderr := newTestEnv(t)
	_, err := env.EvalString(`(help/help 'when)`)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "macro sxp/when")

	stderr.Reset()
	_, err = env.EvalString(`(help/help-namespaces)`)
	require.NoError(t, err)
	assert.Contains(t, stderr.String(), "regex")

	_, err = env.EvalString(`(help/help 'no-such-var)`)
	assert.Error(t, err)
}

func TestCheckMissing(t *testing.T) {
	env, _ := newTestEnv(t)
	_, err := env.LoadString("test.sxp", `
	(in-ns 'undocumented)
	(defn f [] 1)
	`)
	require.NoError(t, err)
	missing := libhelp.CheckMissing(env.Runtime)
	assert.Equal(t, []libhelp.MissingDoc{{Kind: "var", Name: "undocumented/f"}}, missing)
}
