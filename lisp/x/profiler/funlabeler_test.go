// Copyright © 2018 The ELPS authors

package profiler

import (
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/stretchr/testify/assert"
)

func TestCleanLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected string
	}{
		{
			name:     "empty",
			label:    "",
			expected: "",
		},
		{
			name:     "normal",
			label:    "@trace{ Add-It }",
			expected: "Add-It",
		},
		{
			name:     "set",
			label:    "@trace{ user-add! }",
			expected: "user-add!",
		},
		{
			name:     "predicate",
			label:    "@trace { user-exists? }",
			expected: "user-exists?",
		},
		{
			name:     "spaces",
			label:    "@trace{Add  It}",
			expected: "Add_It",
		},
		{
			name:     "no label",
			label:    "@trace",
			expected: "",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			actual := cleanLabel(tc.label)
			assert.Equal(t, tc.expected, actual, "cleanLabel(%s)", tc.label)
		})
	}
}

func TestPrettyFunName(t *testing.T) {
	p := &profiler{}
	pretty, name := p.prettyFunName(&lisp.FunInfo{Package: "user", Name: "fn__12__AUTO__"})
	assert.Equal(t, "user/fn", pretty)
	assert.Equal(t, "fn", name)

	p.funLabeler = docFunLabeler
	pretty, name = p.prettyFunName(&lisp.FunInfo{Package: "user", Name: "f", Doc: "@trace{Do It}"})
	assert.Equal(t, "Do_It", pretty)
	assert.Equal(t, "f", name)

	pretty, _ = p.prettyFunName(&lisp.FunInfo{Name: "g"})
	assert.Equal(t, "g", pretty)
}

func TestSkipTrace(t *testing.T) {
	p := &profiler{}
	fn := &lisp.FunInfo{Package: "user", Name: "f"}
	assert.True(t, p.skipTrace(fn), "disabled")
	p.enabled = true
	assert.False(t, p.skipTrace(fn))
	assert.True(t, p.skipTrace(&lisp.FunInfo{Name: "COMPILER_THUNK__1__AUTO__"}))

	WithDocFilter()(p)
	assert.True(t, p.skipTrace(fn))
	assert.False(t, p.skipTrace(&lisp.FunInfo{Name: "f", Doc: "traced @trace"}))

	WithBuiltinFilter()(p)
	assert.False(t, p.skipTrace(fn))
	assert.True(t, p.skipTrace(&lisp.FunInfo{Name: "+", Builtin: true}))
}
