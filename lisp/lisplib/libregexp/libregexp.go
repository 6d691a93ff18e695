// Copyright © 2018 The ELPS authors

package libregexp

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "regex"

// LoadPackage adds the regex namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("re-pattern", 1, 1, BuiltinPattern,
		`Compiles a pattern string into a regex using Go RE2 syntax.  A
		regex argument is returned unchanged.  An invalid pattern raises
		SxRegexError.`),
	libutil.FunctionDoc("re-matches", 2, 2, BuiltinMatches,
		`Returns the match of re against the whole of s, or nil.  Without
		capture groups the match is the matched string.  With groups it
		is a vector of the match followed by each group, nil for groups
		that did not participate.`),
	libutil.FunctionDoc("re-find", 2, 2, BuiltinFind,
		`Returns the leftmost match of re in s, or nil.  The result has
		the same shape as for re-matches.`),
}

func BuiltinPattern(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return getRegex("re-pattern", args[0])
}

func BuiltinMatches(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	re, err := getRegex("re-matches", args[0])
	if err != nil {
		return nil, err
	}
	s, err := libutil.String("re-matches", args[1])
	if err != nil {
		return nil, err
	}
	loc := re.Regexp().FindStringSubmatchIndex(s)
	if loc == nil || loc[0] != 0 || loc[1] != len(s) {
		return lisp.Nil, nil
	}
	return matchValue(s, loc), nil
}

func BuiltinFind(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	re, err := getRegex("re-find", args[0])
	if err != nil {
		return nil, err
	}
	s, err := libutil.String("re-find", args[1])
	if err != nil {
		return nil, err
	}
	loc := re.Regexp().FindStringSubmatchIndex(s)
	if loc == nil {
		return lisp.Nil, nil
	}
	return matchValue(s, loc), nil
}

// matchValue converts submatch indices into the value returned to the
// program.
func matchValue(s string, loc []int) lisp.Value {
	if len(loc) == 2 {
		return lisp.String(s[loc[0]:loc[1]])
	}
	groups := make([]lisp.Value, len(loc)/2)
	for i := range groups {
		start, end := loc[2*i], loc[2*i+1]
		if start < 0 {
			groups[i] = lisp.Nil
			continue
		}
		groups[i] = lisp.String(s[start:end])
	}
	return lisp.NewVector(groups)
}

// getRegex returns the regex corresponding to v.  Strings are compiled.
func getRegex(fn string, v lisp.Value) (*lisp.Regex, error) {
	switch x := v.(type) {
	case *lisp.Regex:
		return x, nil
	case lisp.String:
		return lisp.NewRegex(string(x))
	}
	return nil, libutil.TypeError(fn, "regex", v)
}
