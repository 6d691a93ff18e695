// Copyright © 2018 The ELPS authors

package libio_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinters(t *testing.T) {
	var out bytes.Buffer
	env, err := lisplib.NewEnv(lisp.WithStdout(&out))
	require.NoError(t, err)

	tests := []struct {
		expr string
		out  string
	}{
		{`(io/pr "a" \b 1)`, `"a" \b 1`},
		{`(io/prn "a" [1 "b"])`, "\"a\" [1 \"b\"]\n"},
		{`(io/print "a" \b {:k "v"})`, `a b {:k v}`},
		{`(io/println)`, "\n"},
		{`(io/newline)`, "\n"},
	}
	for i, test := range tests {
		out.Reset()
		v, err := env.EvalString(test.expr)
		if assert.NoError(t, err, "test %d", i) {
			assert.Equal(t, lisp.Nil, v, "test %d", i)
			assert.Equal(t, test.out, out.String(), "test %d", i)
		}
	}
}

func TestSlurp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0600))

	env, err := lisplib.NewEnv()
	require.NoError(t, err)
	v, err := env.EvalString(`(io/slurp ` + strconv.Quote(path) + `)`)
	require.NoError(t, err)
	assert.Equal(t, lisp.String("line one\nline two\n"), v)

	_, err = env.EvalString(`(io/slurp ` + strconv.Quote(path+".missing") + `)`)
	require.Error(t, err)
	assert.Equal(t, lisp.IOError, lisp.AsError(err).Kind)
}

func TestYAML(t *testing.T) {
	env, err := lisplib.NewEnv()
	require.NoError(t, err)

	v, err := env.EvalString(`(io/yaml-read "name: sxp\ntags: [lisp, vm]\nsize: 3\n")`)
	require.NoError(t, err)
	assert.Equal(t, `{"name" "sxp", "size" 3, "tags" ["lisp" "vm"]}`, lisp.PrStr(sortedKeys(t, v)))

	v, err = env.EvalString(`(get (io/yaml-read "a: {b: 1.5}" true) :a)`)
	require.NoError(t, err)
	assert.Equal(t, `{:b 1.5}`, lisp.PrStr(v))

	v, err = env.EvalString(`(io/yaml-write {:a [1 2] :b nil})`)
	require.NoError(t, err)
	assert.Equal(t, lisp.String("a:\n  - 1\n  - 2\nb: null\n"), v)

	_, err = env.EvalString(`(io/yaml-read "a: [1")`)
	require.Error(t, err)
	assert.Equal(t, lisp.ReaderError, lisp.AsError(err).Kind)
}

// sortedKeys rebuilds the map m with its keys in sorted order so that it
// prints deterministically.
func sortedKeys(t *testing.T, m lisp.Value) lisp.Value {
	mm, ok := m.(*lisp.Map)
	require.True(t, ok, "not a map: %s", lisp.TypeName(m))
	out := lisp.EmptyMap
	for _, k := range []string{"name", "size", "tags"} {
		v, ok := mm.Get(lisp.String(k))
		require.True(t, ok, k)
		out = out.Assoc(lisp.String(k), v)
	}
	return out
}
