// Copyright © 2018 The ELPS authors

// NOTE:  This file uses package name suffixed with _test to avoid an import
// cycle.  packages outside the standard library shouldn't need to use a _test
// suffix in their test files.
package libjson_test

import (
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/libjson"
	"github.com/luthersystems/sxp/sxptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackage(t *testing.T) {
	r := &sxptest.Runner{}
	r.RunTestFile(t, "libjson_test.sxp")
}

func TestDump(t *testing.T) {
	m, err := lisp.NewMap(
		lisp.Kw("b"), lisp.VectorOf(lisp.Int(1), lisp.Float(2.5), lisp.Nil),
		lisp.String("a"), lisp.True,
	)
	require.NoError(t, err)
	b, err := libjson.Dump(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":true,"b":[1,2.5,null]}`, string(b))

	_, err = libjson.Dump(lisp.VectorOf(lisp.NewBuiltin("f", 0, 0, nil)))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	v, err := libjson.Load([]byte(`{"x": [1, 1.5, "s", false]}`), func(k string) lisp.Value { return lisp.Kw(k) })
	require.NoError(t, err)
	want, err := lisp.NewMap(lisp.Kw("x"), lisp.VectorOf(lisp.Int(1), lisp.Float(1.5), lisp.String("s"), lisp.False))
	require.NoError(t, err)
	assert.True(t, lisp.Equal(want, v), "got %s", v)

	_, err = libjson.Load([]byte(`{} {}`), nil)
	assert.Error(t, err)
	_, err = libjson.Load([]byte(`{`), nil)
	if assert.Error(t, err) {
		assert.Equal(t, lisp.ReaderError, lisp.AsError(err).Kind)
	}
}
