// Copyright © 2018 The ELPS authors

package profiler

import (
	"regexp"
	"strings"

	"github.com/luthersystems/sxp/lisp"
)

type SkipFilter func(fn *lisp.FunInfo) bool

// defaultSkipFilter skips the thunks the compiler wraps around top-level
// forms and macro expansions.
func defaultSkipFilter(fn *lisp.FunInfo) bool {
	if fn == nil || fn.Name == "" {
		return true
	}
	return strings.HasPrefix(fn.Name, "COMPILER_THUNK") ||
		strings.HasPrefix(fn.Name, "MACRO_EXPANDER_THUNK")
}

// WithDocFilter filters to only include spans for functions with docstrings
// that denote tracing.
func WithDocFilter() Option {
	return WithSkipFilter(docSkipFilter)
}

// WithBuiltinFilter excludes builtin functions from the trace.
func WithBuiltinFilter() Option {
	return WithSkipFilter(func(fn *lisp.FunInfo) bool { return fn.Builtin })
}

// WithSkipFilter sets the filter for tracing spans.
func WithSkipFilter(skipFilter SkipFilter) Option {
	return func(p *profiler) {
		p.skipFilter = skipFilter
	}
}

// DocTrace is a magic string used to enable tracing in a profiler configured
// WithDocFilter. All functions with a docstring that contains this string
// will be traced.
const DocTrace = "@trace"

var docTraceRegExp = regexp.MustCompile(DocTrace)

func docSkipFilter(fn *lisp.FunInfo) bool {
	if fn.Doc == "" {
		return true
	}
	// do not skip docs that include trace constant
	return !docTraceRegExp.MatchString(fn.Doc)
}
