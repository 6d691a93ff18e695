// Copyright © 2018 The ELPS authors

package libtesting

import (
	"fmt"
	"sync"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "testing"

// AssertionError is the kind of errors raised by failed assertions.
var AssertionError = &lisp.ErrorKind{Name: "SxAssertionError", Parent: lisp.ErrorRoot}

var suites sync.Map

// LoadPackage adds the testing namespace to rt.  Tests defined in rt are
// collected in the suite returned by RuntimeTestSuite.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	ns.Constant(AssertionError.Name, AssertionError)
	suite := NewTestSuite()
	suites.Store(rt, suite)
	if err := libutil.Define(ns, suite.Macros()); err != nil {
		return err
	}
	return libutil.Define(ns, suite.Builtins())
}

// RuntimeTestSuite returns the suite of tests defined in rt, or nil if the
// testing namespace was never loaded into rt.
func RuntimeTestSuite(rt *lisp.Runtime) *TestSuite {
	s, ok := suites.Load(rt)
	if !ok {
		return nil
	}
	return s.(*TestSuite)
}

// Release forgets the suite of rt.
func Release(rt *lisp.Runtime) {
	suites.Delete(rt)
}

// Test is a named function of no arguments.
type Test struct {
	Name string
	Fun  lisp.Value
}

// TestSuite is an ordered set of named tests.
type TestSuite struct {
	tests  map[string]*Test
	torder []string
}

func NewTestSuite() *TestSuite {
	return &TestSuite{
		tests: make(map[string]*Test),
	}
}

func (s *TestSuite) Add(t *Test) error {
	if s.tests[t.Name] != nil {
		return fmt.Errorf("test with the same name already defined: %v", t.Name)
	}
	s.torder = append(s.torder, t.Name)
	s.tests[t.Name] = t
	return nil
}

func (s *TestSuite) Len() int {
	return len(s.torder)
}

func (s *TestSuite) Tests() []string {
	names := make([]string, len(s.torder))
	copy(names, s.torder)
	return names
}

func (s *TestSuite) Test(i int) *Test {
	return s.tests[s.torder[i]]
}

var (
	symAddTest     = lisp.QualifiedSym(DefaultNamespaceName, "add-test")
	symCheck       = lisp.QualifiedSym(DefaultNamespaceName, "check")
	symCheckEqual  = lisp.QualifiedSym(DefaultNamespaceName, "check-equal")
	symCheckThrows = lisp.QualifiedSym(DefaultNamespaceName, "check-throws")
	symFn          = lisp.Sym("fn")
	symQuote       = lisp.Sym("quote")
)

func (s *TestSuite) Macros() []*libutil.Builtin {
	return []*libutil.Builtin{
		libutil.Macro("deftest", 1, libutil.VarArgs, s.MacroDeftest,
			`Defines a named test case.  The body is wrapped in a function
			and registered with the test suite for later execution.  Use
			the assert macros inside the body to check conditions.`),
		libutil.Macro("assert", 1, 2, s.MacroAssert,
			`Asserts that expr is truthy.  An optional message is reported
			on failure along with the expression.`),
		libutil.Macro("assert-equal", 2, 2, s.MacroAssertEqual,
			`Asserts that two expressions are equal by =.  Reports the
			expected and actual values on failure.`),
		libutil.Macro("assert-throws", 1, libutil.VarArgs, s.MacroAssertThrows,
			`(assert-throws kind body...) asserts that evaluating body
			raises an error of the given kind or a kind descending from
			it.`),
	}
}

func (s *TestSuite) Builtins() []*libutil.Builtin {
	return []*libutil.Builtin{
		libutil.FunctionDoc("add-test", 2, 2, s.BuiltinAddTest,
			`Registers fn, a function of no arguments, as the test called
			name.`),
		libutil.FunctionDoc("check", 2, 3, s.BuiltinCheck,
			`Raises SxAssertionError unless value is truthy.  Used by
			assert.`),
		libutil.FunctionDoc("check-equal", 3, 3, s.BuiltinCheckEqual,
			`Raises SxAssertionError unless expect and actual are equal.
			Used by assert-equal.`),
		libutil.FunctionDoc("check-throws", 3, 3, s.BuiltinCheckThrows,
			`Calls fn and raises SxAssertionError unless it fails with an
			error of the given kind.  Used by assert-throws.`),
	}
}

func list(vals ...lisp.Value) *lisp.List { return lisp.NewList(vals...) }

func quote(form lisp.Value) lisp.Value { return list(symQuote, form) }

func (s *TestSuite) MacroDeftest(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	var name string
	switch x := args[0].(type) {
	case *lisp.Symbol:
		name = x.Name
	case lisp.String:
		name = string(x)
	default:
		return nil, libutil.TypeError("deftest", "symbol", args[0])
	}
	fn := append([]lisp.Value{symFn, lisp.EmptyVector}, args[1:]...)
	return list(symAddTest, lisp.String(name), lisp.NewList(fn...)), nil
}

func (s *TestSuite) MacroAssert(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	form := []lisp.Value{symCheck, quote(args[0]), args[0]}
	if len(args) > 1 {
		form = append(form, args[1])
	}
	return lisp.NewList(form...), nil
}

func (s *TestSuite) MacroAssertEqual(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return list(symCheckEqual, quote(args[1]), args[0], args[1]), nil
}

func (s *TestSuite) MacroAssertThrows(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	fn := append([]lisp.Value{symFn, lisp.EmptyVector}, args[1:]...)
	return list(symCheckThrows, quote(lisp.NewList(args[1:]...)), args[0], lisp.NewList(fn...)), nil
}

func (s *TestSuite) BuiltinAddTest(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	name, err := libutil.String("add-test", args[0])
	if err != nil {
		return nil, err
	}
	if !lisp.IsFn(args[1]) {
		return nil, libutil.TypeError("add-test", "function", args[1])
	}
	err = s.Add(&Test{Name: name, Fun: args[1]})
	if err != nil {
		return nil, lisp.Errorf(lisp.RuntimeError, "%v", err)
	}
	return lisp.Nil, nil
}

func (s *TestSuite) BuiltinCheck(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if lisp.Truthy(args[1]) {
		return lisp.Nil, nil
	}
	msg := fmt.Sprintf("assertion failed\n\texpression: %s", lisp.PrStr(args[0]))
	if len(args) > 2 {
		msg = fmt.Sprintf("%s: %s", lisp.Str(args[2]), msg)
	}
	return nil, lisp.NewError(AssertionError, msg)
}

func (s *TestSuite) BuiltinCheckEqual(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if lisp.Equal(args[1], args[2]) {
		return lisp.Nil, nil
	}
	return nil, lisp.Errorf(AssertionError, "values not equal\n\texpression: %s\n\t  expected: %s\n\t    actual: %s",
		lisp.PrStr(args[0]), lisp.PrStr(args[1]), lisp.PrStr(args[2]))
}

func (s *TestSuite) BuiltinCheckThrows(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	kind, ok := args[1].(*lisp.ErrorKind)
	if !ok {
		return nil, libutil.TypeError("assert-throws", "error kind", args[1])
	}
	v, err := c.Call(args[2])
	if err == nil {
		return nil, lisp.Errorf(AssertionError, "expression did not raise %s\n\texpression: %s\n\t    result: %s",
			kind, lisp.PrStr(args[0]), lisp.PrStr(v))
	}
	e := lisp.AsError(err)
	if !kind.Matches(e.Kind) {
		return nil, lisp.Errorf(AssertionError, "expression raised %s, not %s\n\texpression: %s\n\t   message: %s",
			e.Kind, kind, lisp.PrStr(args[0]), e.Message)
	}
	return lisp.Nil, nil
}
