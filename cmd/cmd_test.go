// Copyright © 2018 The ELPS authors

package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--color", "never"))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunExpressions(t *testing.T) {
	out, _, err := execute(t, "run", "-e", "-p", "(def x 2)", "(* x 21)")
	require.NoError(t, err)
	assert.Equal(t, "#'user/x\n42\n", out)

	out, _, err = execute(t, "run", "-e", `(io/println "hi")`)
	require.NoError(t, err)
	assert.Equal(t, "hi\n", out)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "double.sxp")
	require.NoError(t, os.WriteFile(path, []byte("(defn double [x] (* x 2))\n(double 4)\n"), 0600))
	out, _, err := execute(t, "run", "-p", path)
	require.NoError(t, err)
	assert.Equal(t, "#'user/double\n8\n", out)

	_, _, err = execute(t, "run", filepath.Join(t.TempDir(), "missing.sxp"))
	assert.Error(t, err)
}

func TestRunErrors(t *testing.T) {
	_, stderr, err := execute(t, "run", "-e", `(throw "boom")`)
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, stderr, "error: SxError: boom")

	_, stderr, err = execute(t, "run", "-e", "(if)")
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, stderr, "error: SxCompilerError: ")
	assert.Contains(t, stderr, "--> <expr 1>:1:1")
	assert.Contains(t, stderr, " 1 |  (if)")

	_, stderr, err = execute(t, "run", "-e", "(+ 1")
	assert.True(t, errors.Is(err, errReported))
	assert.Contains(t, stderr, "SxReaderError")

	out, stderr, err := execute(t, "run", "-e", "-p", `(lazy-seq (cons 1 (lazy-seq (throw "deferred"))))`)
	assert.True(t, errors.Is(err, errReported))
	assert.Empty(t, out)
	assert.Contains(t, stderr, "error: SxError: deferred")
	assert.NotContains(t, stderr, "#<LazySeq error>")
}

func TestRunLimits(t *testing.T) {
	src := "(defn down [n] (if (= n 0) 0 (+ 1 (down (- n 1)))))"
	out, _, err := execute(t, "run", "-e", "-p", src, "(down 50)")
	require.NoError(t, err)
	assert.Equal(t, "#'user/down\n50\n", out)

	t.Setenv("SXP_MAX_FRAMES", "20")
	_, stderr, err := execute(t, "run", "-e", src, "(down 50)")
	assert.Error(t, err)
	assert.Contains(t, stderr, "max VM frame depth (20) exceeded")

	_, _, err = execute(t, "run", "--max-frames", "0", "-e", "1")
	assert.Error(t, err)
}

func TestRunConfigFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "sxp.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("max-frames: 20\n"), 0600))
	_, stderr, err := execute(t, "--config", cfg, "run", "-e",
		"(defn down [n] (if (= n 0) 0 (+ 1 (down (- n 1)))))", "(down 50)")
	assert.Error(t, err)
	assert.Contains(t, stderr, "max VM frame depth (20) exceeded")
}

func TestRunLogLevel(t *testing.T) {
	_, _, err := execute(t, "run", "--log-level", "loud", "-e", "1")
	assert.Error(t, err)

	_, stderr, err := execute(t, "run", "--trace", "-e", "(+ 1 2)")
	require.NoError(t, err)
	assert.Contains(t, stderr, "level=trace")
}

func TestRunCallgrind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.callgrind")
	_, _, err := execute(t, "run", "--callgrind", path, "-e", "(defn f [x] (+ x 1))", "(f 1)")
	require.NoError(t, err)
	b, err := os.ReadFile(path) //#nosec G304
	require.NoError(t, err)
	assert.Contains(t, string(b), ") user/f\n")
}

func TestDisasm(t *testing.T) {
	out, _, err := execute(t, "disasm", "-e", "(defn id [x] x)", "(id 1)")
	require.NoError(t, err)
	assert.Contains(t, out, ";; (defn id [x] x)\n")
	assert.Contains(t, out, ";; (id 1)\n")
	assert.Contains(t, out, "; === user/id ===")
	assert.Contains(t, out, "RETURN")

	out, _, err = execute(t, "disasm", "--yaml", "-e", "(fn [x] x)")
	require.NoError(t, err)
	var descs []bytecode.Description
	require.NoError(t, yaml.Unmarshal([]byte(out), &descs))
	require.Len(t, descs, 1)
	require.Len(t, descs[0].Functions, 1)
	assert.Equal(t, 1, descs[0].Functions[0].Methods[0].Required)
}

func TestExpand(t *testing.T) {
	out, _, err := execute(t, "expand", "-e", "(when x y)")
	require.NoError(t, err)
	assert.Equal(t, "(if x (do y))\n", out)

	out, _, err = execute(t, "expand", "--eval", "-e",
		"(defmacro unless [c x] `(if ~c nil ~x))", "(unless a b)")
	require.NoError(t, err)
	assert.Contains(t, out, "(if a nil b)\n")
}

func TestDoc(t *testing.T) {
	out, _, err := execute(t, "doc", "map")
	require.NoError(t, err)
	assert.Contains(t, out, "function sxp/map\n")

	out, _, err = execute(t, "doc", "-n", "math")
	require.NoError(t, err)
	assert.Contains(t, out, "namespace math\n")

	out, _, err = execute(t, "doc", "-l")
	require.NoError(t, err)
	assert.Contains(t, out, "  user")

	path := filepath.Join(t.TempDir(), "lib.sxp")
	require.NoError(t, os.WriteFile(path, []byte(`(defn greet "Says hello." [] "hello")`), 0600))
	out, _, err = execute(t, "doc", "-f", path, "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "function user/greet\n  Says hello.")

	_, _, err = execute(t, "doc", "no-such-var")
	assert.Error(t, err)

	out, _, err = execute(t, "doc", "--guide")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# SXP language guide\n"))

	out, _, err = execute(t, "doc", "--missing")
	require.NoError(t, err)
	assert.Empty(t, out)
}
