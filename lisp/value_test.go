// Copyright © 2018 The ELPS authors

package lisp_test

import (
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumbers(t *testing.T) {
	sum, err := lisp.Add(lisp.Int(1), lisp.Int(2))
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(3), sum)

	q, err := lisp.Div(lisp.Int(3), lisp.Int(4))
	require.NoError(t, err)
	assert.Equal(t, lisp.TRatio, q.Type())
	assert.Equal(t, "3/4", q.String())

	q, err = lisp.Div(lisp.Int(8), lisp.Int(4))
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(2), q)

	r, err := lisp.NewRatio(2, 4)
	require.NoError(t, err)
	x, err := lisp.Add(r, r)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(1), x, "integral ratios normalize to integers")

	f, err := lisp.Mul(lisp.Float(1.5), lisp.Int(2))
	require.NoError(t, err)
	assert.Equal(t, lisp.Float(3), f)
	assert.Equal(t, "3.0", f.String())

	_, err = lisp.Div(lisp.Int(1), lisp.Int(0))
	require.Error(t, err)
	assert.True(t, lisp.AsError(err).Kind.IsA(lisp.ArithmeticError))
	assert.Contains(t, err.Error(), "divide by zero")

	_, err = lisp.Add(lisp.Int(1<<62), lisp.Int(1<<62))
	assert.Error(t, err)

	_, err = lisp.Add(lisp.Int(1), lisp.String("a"))
	require.Error(t, err)
	assert.True(t, lisp.AsError(err).Kind.IsA(lisp.CastError))

	cmp, err := lisp.CompareNumbers(lisp.Int(1), lisp.Float(1.5))
	require.NoError(t, err)
	assert.Equal(t, -1, cmp)

	ok, err := lisp.NumEquiv(lisp.Int(1), lisp.Float(1))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, lisp.Equal(lisp.Int(1), lisp.Float(1)))
}

func TestEqualAndHash(t *testing.T) {
	l := lisp.NewList(lisp.Int(1), lisp.Int(2))
	v := lisp.VectorOf(lisp.Int(1), lisp.Int(2))
	assert.True(t, lisp.Equal(l, v))
	assert.Equal(t, lisp.Hash(l), lisp.Hash(v))
	assert.False(t, lisp.Equal(lisp.EmptyList, lisp.Nil))
	assert.True(t, lisp.Equal(lisp.EmptyList, lisp.EmptyVector))

	m1, err := lisp.NewMap(lisp.Kw("a"), lisp.Int(1), lisp.Kw("b"), lisp.Int(2))
	require.NoError(t, err)
	m2, err := lisp.NewMap(lisp.Kw("b"), lisp.Int(2), lisp.Kw("a"), lisp.Int(1))
	require.NoError(t, err)
	assert.True(t, lisp.Equal(m1, m2))
	assert.Equal(t, lisp.Hash(m1), lisp.Hash(m2))

	s := lisp.NewSet(l, lisp.Sym("x"))
	assert.True(t, s.Contains(v), "sets find equal sequential keys")
	assert.True(t, s.Contains(lisp.Sym("x")))
	assert.False(t, s.Contains(lisp.Sym("y")))

	_, err = lisp.NewMap(lisp.Kw("a"))
	assert.Error(t, err)
}

func TestCollections(t *testing.T) {
	m, err := lisp.NewMap(lisp.Kw("a"), lisp.Int(1))
	require.NoError(t, err)
	m2 := m.Assoc(lisp.Kw("b"), lisp.Int(2))
	assert.Equal(t, 1, m.Len(), "assoc does not modify the receiver")
	assert.Equal(t, `{:a 1, :b 2}`, m2.String())
	assert.Equal(t, `{:b 2}`, m2.Dissoc(lisp.Kw("a")).String())

	got, err := lisp.Get(m2, lisp.Kw("b"), lisp.Nil)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(2), got)
	got, err = lisp.Get(m2, lisp.Kw("c"), lisp.Kw("none"))
	require.NoError(t, err)
	assert.Equal(t, lisp.Kw("none"), got)

	v := lisp.VectorOf(lisp.Int(1), lisp.Int(2))
	v2, err := lisp.Conj(v, lisp.Int(3))
	require.NoError(t, err)
	assert.Equal(t, "[1 2 3]", v2.String())
	assert.Equal(t, "[1 2]", v.String())
	_, err = v.Assoc(5, lisp.Nil)
	require.Error(t, err)
	assert.True(t, lisp.AsError(err).Kind.IsA(lisp.OutOfBoundsError))

	l, err := lisp.Conj(lisp.NewList(lisp.Int(2)), lisp.Int(1))
	require.NoError(t, err)
	assert.Equal(t, "(1 2)", l.String())
	assert.Equal(t, "()", lisp.EmptyList.String())

	n, err := lisp.Count(lisp.String("héllo"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	x, err := lisp.Nth(lisp.NewList(lisp.Int(1), lisp.Int(2)), 1)
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(2), x)
	_, err = lisp.Nth(lisp.EmptyVector, 0)
	assert.Error(t, err)

	_, err = lisp.ToSeq(lisp.Int(1))
	assert.Error(t, err)

	cons := lisp.NewCons(lisp.Int(0), v)
	items, err := lisp.SeqSlice(cons)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestLazySeq(t *testing.T) {
	calls := 0
	lz := lisp.NewLazySeq(func() (lisp.Value, error) {
		calls++
		return lisp.NewList(lisp.Int(1), lisp.Int(2)), nil
	})
	assert.False(t, lz.Realized())
	n, err := lisp.Count(lz)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "(1 2)", lz.String())
	assert.True(t, lz.Realized())
	assert.Equal(t, 1, calls, "lazy sequences are computed once")
}

func TestRealize(t *testing.T) {
	boom := lisp.Errorf(lisp.IOError, "boom")
	failing := lisp.NewLazySeq(func() (lisp.Value, error) { return nil, boom })
	nested := lisp.VectorOf(lisp.Int(1), lisp.NewList(lisp.Int(2), failing))
	assert.Same(t, boom, lisp.Realize(nested))
	assert.Same(t, boom, lisp.Realize(lisp.NewCons(lisp.Int(0), failing)))

	m, err := lisp.NewMap(lisp.Kw("xs"), failing)
	require.NoError(t, err)
	assert.Same(t, boom, lisp.Realize(m))

	lz := lisp.NewLazySeq(func() (lisp.Value, error) {
		return lisp.NewList(lisp.Int(1), lisp.VectorOf(lisp.Int(2))), nil
	})
	require.NoError(t, lisp.Realize(lisp.VectorOf(lz)))
	assert.True(t, lz.Realized())
	assert.NoError(t, lisp.Realize(lisp.Int(3)))
}

func TestPrinting(t *testing.T) {
	v := lisp.VectorOf(lisp.String("a"), lisp.Char('b'), lisp.Nil)
	assert.Equal(t, `["a" \b nil]`, lisp.PrStr(v))
	assert.Equal(t, `[a b nil]`, lisp.Display(v))
	assert.Equal(t, "", lisp.Str(lisp.Nil))
	assert.Equal(t, `\newline`, lisp.Char('\n').String())
	assert.Equal(t, `"a\"b"`, lisp.String(`a"b`).String())
	assert.Equal(t, ":ns/k", lisp.Kw("ns/k").String())
	assert.Equal(t, "#{1}", lisp.NewSet(lisp.Int(1)).String())
}

func TestErrorValues(t *testing.T) {
	e := lisp.NewError(nil, "")
	assert.Equal(t, lisp.ErrorRoot, e.Kind)
	assert.Equal(t, `#<SxError "an unknown error occurred">`, e.String())

	long := lisp.Errorf(lisp.RuntimeError, "%s", "0123456789012345678901234567890123456789")
	assert.Equal(t, `#<SxRuntimeError "012345678901234567890123456789"...>`, long.String())

	assert.True(t, lisp.ErrorRoot.Matches(lisp.CastError))
	assert.True(t, lisp.AnyError.Matches(lisp.CastError))
	assert.True(t, lisp.CastError.Matches(lisp.CastError))
	assert.False(t, lisp.CastError.Matches(lisp.IOError))

	wrapped := lisp.AsError(assert.AnError)
	assert.Equal(t, lisp.RuntimeError, wrapped.Kind)
	assert.ErrorIs(t, wrapped, assert.AnError)

	arity := lisp.ArityError(3, "f")
	assert.Equal(t, "SxRuntimeError: wrong number of args (3) passed to: f", arity.Error())
}
