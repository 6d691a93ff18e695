// Copyright © 2024 The ELPS authors

package parser

import (
	"io"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func read(t *testing.T, src string) []lisp.Value {
	t.Helper()
	forms, err := NewReader().Read("test", strings.NewReader(src))
	require.NoError(t, err)
	return forms
}

func readOne(t *testing.T, src string) lisp.Value {
	t.Helper()
	forms := read(t, src)
	require.Len(t, forms, 1)
	return forms[0]
}

func TestReadTerms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"42", "42"},
		{"-7", "-7"},
		{"0x1F", "31"},
		{"3/4", "3/4"},
		{"4/2", "2"},
		{"1.5", "1.5"},
		{"1e3", "1000.0"},
		{`"a\nb"`, `"a\nb"`},
		{`\a`, `\a`},
		{`\newline`, `\newline`},
		{`\A`, `\A`},
		{":foo", ":foo"},
		{":ns/foo", ":ns/foo"},
		{"foo", "foo"},
		{"ns/foo", "ns/foo"},
		{"+", "+"},
		{"->>", "->>"},
		{"nil", "nil"},
		{"true", "true"},
		{"false", "false"},
		{`#"a+b"`, `#"a+b"`},
	}
	for _, test := range tests {
		form := readOne(t, test.src)
		assert.Equal(t, test.want, lisp.PrStr(form), test.src)
	}
}

func TestReadCollections(t *testing.T) {
	form := readOne(t, "(a [1 2] {:k 3} #{4})")
	l, ok := form.(*lisp.List)
	require.True(t, ok)
	require.Equal(t, 4, l.Len())
	v, _ := l.Nth(1)
	assert.IsType(t, &lisp.Vector{}, v)
	m, _ := l.Nth(2)
	require.IsType(t, &lisp.Map{}, m)
	assert.Equal(t, 1, m.(*lisp.Map).Len())
	s, _ := l.Nth(3)
	assert.IsType(t, &lisp.Set{}, s)
}

func TestReadCommentsAndCommas(t *testing.T) {
	forms := read(t, "; leading\n(a, b ; inner\n c)\n; trailing")
	require.Len(t, forms, 1)
	assert.Equal(t, "(a b c)", lisp.PrStr(forms[0]))
}

func TestReadDiscard(t *testing.T) {
	forms := read(t, "#_(ignored) (a #_b c) #_d")
	require.Len(t, forms, 1)
	assert.Equal(t, "(a c)", lisp.PrStr(forms[0]))
}

func TestReadQuoteForms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"'x", "(quote x)"},
		{"`(a ~b ~@c)", "(quasiquote (a (unquote b) (unquote-splicing c)))"},
		{"#'foo", "(var foo)"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, lisp.PrStr(readOne(t, test.src)), test.src)
	}
}

func TestReadMeta(t *testing.T) {
	form := readOne(t, "^:private ^{:doc \"d\"} foo")
	sym, ok := form.(*lisp.Symbol)
	require.True(t, ok)
	meta := sym.Meta()
	require.NotNil(t, meta)
	priv, _ := lisp.Get(meta, lisp.KwPrivate, lisp.Nil)
	assert.Equal(t, lisp.True, priv)
	doc, _ := lisp.Get(meta, lisp.KwDoc, lisp.Nil)
	assert.Equal(t, lisp.String("d"), doc)
}

func TestReadLocations(t *testing.T) {
	forms := read(t, "(a)\n  (b\n   c)")
	require.Len(t, forms, 2)
	l := forms[1].(*lisp.List)
	require.NotNil(t, l.Source)
	assert.Equal(t, "test:2:3", l.Source.String())
	c, _ := l.Nth(1)
	assert.Equal(t, "test:3:4", c.(*lisp.Symbol).Source.String())
}

func TestReadErrors(t *testing.T) {
	tests := []string{
		"(unclosed",
		"[1 2",
		"(a))",
		"{:a}",
		"12abc",
		`"bad \q escape"`,
		"^1 x",
	}
	for _, src := range tests {
		_, err := NewReader().Read("test", strings.NewReader(src))
		require.Error(t, err, src)
		e := lisp.AsError(err)
		assert.Equal(t, lisp.ReaderError, e.Kind, src)
		assert.NotNil(t, e.Source, src)
	}
}

func TestReadUnmatched(t *testing.T) {
	tests := []struct {
		src   string
		open  string
		where string
	}{
		{"(+ 1", `"("`, "test:1:1"},
		{"[1 2", `"["`, "test:1:1"},
		{"{:a 1", `"{"`, "test:1:1"},
		{"#{1", `"#{"`, "test:1:1"},
		{"1\n  (foo [1]", `"("`, "test:2:3"},
	}
	for _, test := range tests {
		_, err := NewReader().Read("test", strings.NewReader(test.src))
		require.Error(t, err, test.src)
		e := lisp.AsError(err)
		assert.Equal(t, lisp.ReaderError, e.Kind, test.src)
		assert.Contains(t, e.Message, "unmatched "+test.open, test.src)
		if assert.NotNil(t, e.Source, test.src) {
			assert.Equal(t, test.where, e.Source.String(), test.src)
		}
	}
}

func TestDecoderReadOne(t *testing.T) {
	d, err := NewDecoder("test", strings.NewReader("1 ; c\n(2) "))
	require.NoError(t, err)
	x, err := d.ReadOne()
	require.NoError(t, err)
	assert.Equal(t, lisp.Int(1), x)
	x, err = d.ReadOne()
	require.NoError(t, err)
	assert.Equal(t, "(2)", lisp.PrStr(x))
	_, err = d.ReadOne()
	assert.Equal(t, io.EOF, err)
}

func TestReadEmpty(t *testing.T) {
	assert.Empty(t, read(t, "  ; nothing here\n"))
}
