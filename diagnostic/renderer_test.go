// Copyright © 2024 The ELPS authors

package diagnostic

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRenderer returns a Renderer with colors disabled and in-memory sources.
func testRenderer(sources map[string]string) *Renderer {
	return &Renderer{
		Color:   ColorNever,
		Sources: sources,
		SourceReader: func(name string) ([]byte, error) {
			return nil, errors.New("not found: " + name)
		},
	}
}

func render(t *testing.T, r *Renderer, d Diagnostic) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, d))
	return buf.String()
}

func TestRenderError(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.sxp": "(def lib/x 42)",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "SxCompilerError: cannot def qualified symbol: lib/x",
		Spans: []Span{
			{File: "test.sxp", Line: 1, Col: 6, EndCol: 10, Label: "qualified name"},
		},
	})
	assert.Contains(t, got, "error: SxCompilerError: cannot def qualified symbol: lib/x")
	assert.Contains(t, got, "--> test.sxp:1:6")
	assert.Contains(t, got, "(def lib/x 42)")
	assert.Contains(t, got, "^^^^^ qualified name")
}

func TestRenderWarning(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.sxp": "(def x 1)\n(def x 2)",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityWarning,
		Message:  "redefined var: x",
		Spans:    []Span{{File: "test.sxp", Line: 2, Col: 1, EndCol: 9}},
	})
	assert.Contains(t, got, "warning: redefined var: x")
	assert.Contains(t, got, "--> test.sxp:2:1")
	assert.Contains(t, got, " 2 |  (def x 2)")
}

func TestRenderNoSource(t *testing.T) {
	r := testRenderer(nil)
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "some error",
		Spans:    []Span{{File: "<stdin>", Line: 5, Col: 3}},
	})
	assert.Contains(t, got, "error: some error")
	assert.Contains(t, got, "--> <stdin>:5:3")
	assert.Contains(t, got, "|")
	assert.NotContains(t, got, "^")
}

func TestRenderSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.sxp")
	require.NoError(t, os.WriteFile(path, []byte("(ns main)\n(boom)\n"), 0600))
	r := &Renderer{Color: ColorNever}
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "boom",
		Spans:    []Span{{File: path, Line: 2, Col: 2}},
	})
	assert.Contains(t, got, " 2 |  (boom)")
	assert.Contains(t, got, "|   ^^^^\n")
}

func TestRenderNotes(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.sxp": "(my-fn 1 2)",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "unable to resolve symbol: my-fn",
		Spans:    []Span{{File: "test.sxp", Line: 1, Col: 2, EndCol: 6}},
		Notes: []string{
			"in my-fn at test.sxp:1:1",
			"in main/run at main.sxp:10:5",
		},
	})
	assert.Contains(t, got, "= note: in my-fn at test.sxp:1:1")
	assert.Contains(t, got, "= note: in main/run at main.sxp:10:5")
}

func TestRenderWrapsNotes(t *testing.T) {
	r := testRenderer(nil)
	r.Width = 30
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "failed",
		Notes:    []string{"a note which is much too long to fit on one line"},
	})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Greater(t, len(lines), 2)
	assert.True(t, strings.HasPrefix(lines[1], "   = note: a note"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "           "), lines[2])
}

func TestRenderAutoDetectEndCol(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.sxp": "(def true-ish [1 2])",
	})
	got := render(t, r, Diagnostic{
		Severity: SeverityError,
		Message:  "bad name",
		Spans:    []Span{{File: "test.sxp", Line: 1, Col: 6}},
	})
	// "true-ish" starts at col 6 and is 8 chars
	assert.Contains(t, got, "     ^^^^^^^^\n")
	assert.NotContains(t, got, "^^^^^^^^^")
}

func TestRenderMultipleDiagnostics(t *testing.T) {
	r := testRenderer(map[string]string{
		"test.sxp": "(def x 1)\n(def x 2)\n(if true)",
	})
	diags := []Diagnostic{
		{
			Severity: SeverityWarning,
			Message:  "redefined var: x",
			Spans:    []Span{{File: "test.sxp", Line: 2, Col: 1, EndCol: 9}},
		},
		{
			Severity: SeverityError,
			Message:  "too few arguments to if",
			Spans:    []Span{{File: "test.sxp", Line: 3, Col: 1, EndCol: 9}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, r.RenderAll(&buf, diags))
	got := buf.String()
	assert.GreaterOrEqual(t, len(strings.Split(got, "\n\n")), 2, "diagnostics separated by blank line")
	assert.Contains(t, got, "redefined var: x")
	assert.Contains(t, got, "too few arguments to if")
}

func TestRenderNoSpans(t *testing.T) {
	got := render(t, testRenderer(nil), Diagnostic{
		Severity: SeverityError,
		Message:  "library error: file not found",
	})
	assert.Equal(t, "error: library error: file not found\n", got)
}

func TestColor(t *testing.T) {
	r := testRenderer(nil)
	r.Color = ColorAlways
	got := render(t, r, Diagnostic{Severity: SeverityNote, Message: "hello"})
	assert.Contains(t, got, "\033[1;36m")

	var buf bytes.Buffer
	assert.Equal(t, noPalette, choosePalette(ColorAuto, &buf))
	assert.Equal(t, ColorAlways, ParseColorMode("always"))
	assert.Equal(t, ColorNever, ParseColorMode("never"))
	assert.Equal(t, ColorAuto, ParseColorMode("auto"))
}

func TestFromError(t *testing.T) {
	d := FromError(errors.New("plain"))
	assert.Equal(t, "plain", d.Message)
	assert.Empty(t, d.Spans)

	lerr := lisp.Errorf(lisp.RuntimeError, "boom")
	lerr.Source = &lisp.Location{File: "main.sxp", Line: 3, Col: 4}
	lerr.Stack = &lisp.CallStack{}
	lerr.Stack.Push(lisp.CallFrame{Package: "user", Name: "outer", Source: &lisp.Location{File: "main.sxp", Line: 1, Col: 1}})
	lerr.Stack.Push(lisp.CallFrame{Package: "lib", Name: "inner"})
	d = FromError(lerr)
	assert.Equal(t, SeverityError, d.Severity)
	assert.Equal(t, "SxRuntimeError: boom", d.Message)
	assert.Equal(t, []Span{{File: "main.sxp", Line: 3, Col: 4}}, d.Spans)
	assert.Equal(t, []string{"in lib/inner at unknown", "in outer at main.sxp:1:1"}, d.Notes)
}

func TestFromErrorStackSource(t *testing.T) {
	lerr := lisp.Errorf(lisp.RuntimeError, "boom")
	lerr.Stack = &lisp.CallStack{}
	lerr.Stack.Push(lisp.CallFrame{Name: "f", Source: &lisp.Location{File: "f.sxp", Line: 7, Col: 1}})
	d := FromError(lerr)
	require.Len(t, d.Spans, 1)
	assert.Equal(t, 7, d.Spans[0].Line)
}
