// Copyright © 2018 The ELPS authors

// Package sxptest runs sxp test files and expression suites from Go tests.
package sxptest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/luthersystems/sxp/lisp/lisplib/libtesting"
	"github.com/luthersystems/sxp/parser"
	"gopkg.in/yaml.v3"
)

func BenchmarkParse(path string) func(*testing.B) {
	return func(b *testing.B) {
		buf, err := os.ReadFile(path) //#nosec G304
		if err != nil {
			b.Fatalf("Unable to read source file %v: %v", path, err)
		}
		b.SetBytes(int64(len(buf)))
		for i := 0; i < b.N; i++ {
			_, err := parser.NewReader().Read("test", bytes.NewReader(buf))
			if err != nil {
				b.Fatalf("Parse failure: %v", err)
			}
		}
	}
}

// Runner is a test runner.
type Runner struct {
	// Loader is the library loader used to initialize the test environment.
	// When Loader is nil lisplib.LoadLibrary is used.
	Loader func(*compiler.Env) error

	// Teardown runs code to teardown an environment after each test declared
	// with deftest has been run.  Any error returned by the teardown function
	// is reported as a test failure.
	Teardown func(*compiler.Env) error
}

func (r *Runner) NewEnv(t testing.TB) (*compiler.Env, error) {
	logger := NewLogger(t)
	env, err := compiler.NewEnv(
		lisp.WithStdout(logger),
		lisp.WithStderr(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize environment: %v", err)
	}
	loader := r.Loader
	if loader == nil {
		loader = lisplib.LoadLibrary
	}
	if err := loader(env); err != nil {
		return nil, fmt.Errorf("failed to load library: %v", err)
	}
	env.Runtime.InNS(lisp.UserNamespace)
	return env, nil
}

func flush(env *compiler.Env) {
	if logger, ok := env.Runtime.Stderr.(*Logger); ok {
		logger.Flush()
	}
}

func (r *Runner) loadTestSuite(t testing.TB, path string, source io.Reader) (*compiler.Env, *libtesting.TestSuite) {
	env, err := r.NewEnv(t)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer flush(env)

	_, err = env.Load(filepath.Base(path), source)
	if err != nil {
		r.SxpError(t, err)
		t.FailNow()
	}
	suite := libtesting.RuntimeTestSuite(env.Runtime)
	if suite == nil {
		t.Fatal("unable to locate test suite")
	}
	return env, suite
}

func (r *Runner) LoadTests(t *testing.T, path string, source io.Reader) []string {
	env, suite := r.loadTestSuite(t, path, source)
	defer libtesting.Release(env.Runtime)
	return suite.Tests()
}

// RunTest runs the test at index i read from source.  Path is only used to
// determine a file basename to use in Env.Load().
func (r *Runner) RunTest(t *testing.T, i int, path string, source io.Reader) {
	env, suite := r.loadTestSuite(t, path, source)
	defer libtesting.Release(env.Runtime)
	defer flush(env)
	if r.Teardown != nil {
		defer func() {
			if err := r.Teardown(env); err != nil {
				r.SxpError(t, err)
			}
		}()
	}
	test := suite.Test(i)
	if _, err := env.Runtime.Call(test.Fun); err != nil {
		r.SxpError(t, err)
	}
}

func (r *Runner) RunTestFile(t *testing.T, path string) {
	source, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		t.Errorf("Unable to read test file: %v", err)
		return
	}

	var names []string
	ok := t.Run("$load", func(t *testing.T) {
		names = r.LoadTests(t, path, bytes.NewReader(source))
	})
	if !ok {
		return
	}

	for i := range names {
		// We don't check the result of t.Run here because we want all
		// independent tests to run during a single run of the suite.  An
		// assertion failure within a tests prevents futher evaluation of
		// expressions in that test, but does not halt the execution of the
		// suite as a whole.
		t.Run(names[i], func(t *testing.T) {
			r.RunTest(t, i, path, bytes.NewReader(source))
		})
	}
}

// SxpError reports err as a test failure, with its stack trace when it has
// one.
func (r *Runner) SxpError(t testing.TB, err error) {
	var lerr *lisp.Error
	if !errors.As(err, &lerr) {
		t.Error(err)
		return
	}
	var buf bytes.Buffer
	_, ioerr := lerr.WriteTrace(&buf)
	if ioerr != nil {
		t.Errorf("io error: %v", ioerr)
		t.Error(err)
		return
	}
	t.Error(buf.String())
}

// TestSequence is a sequence of expressions which are evaluated sequentially
// in one environment.
type TestSequence []struct {
	Expr   string `yaml:"expr"`   // an expression
	Result string `yaml:"result"` // the printed result
	Error  string `yaml:"error"`  // the kind of the expected error
	Output string `yaml:"output"` // output written to Runtime.Stdout
}

// TestSuite is a set of named TestSequences
type TestSuite []struct {
	Name         string `yaml:"name"`
	TestSequence `yaml:"exprs"`
}

// LoadTestSuite reads a TestSuite from the YAML file at path.
func LoadTestSuite(path string) (TestSuite, error) {
	b, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, err
	}
	var suite TestSuite
	if err := yaml.Unmarshal(b, &suite); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return suite, nil
}

// RunTestSuite runs each TestSequence in tests on isolated environments.
func RunTestSuite(t *testing.T, tests TestSuite) {
	for i, test := range tests {
		var out bytes.Buffer
		env, err := lisplib.NewEnv(
			lisp.WithMaxFrameDepth(50000),
			lisp.WithStdout(&out),
			lisp.WithStderr(NewLogger(t)),
		)
		if err != nil {
			t.Errorf("test %d %q: %v", i, test.Name, err)
			continue
		}
		for j, expr := range test.TestSequence {
			out.Reset()
			v, err := env.Runtime.Reader.Read("test", strings.NewReader(expr.Expr))
			if err != nil {
				t.Errorf("test %d %q: expr %d: parse error: %v", i, test.Name, j, err)
				continue
			}
			if len(v) == 0 {
				t.Errorf("test %d %q: expr %d: no expression parsed", i, test.Name, j)
				continue
			}
			if len(v) != 1 {
				t.Errorf("test %d %q: expr %d: more than one expression parsed (%d)", i, test.Name, j, len(v))
				continue
			}
			result, err := env.Eval(v[0])
			if err == nil {
				err = lisp.Realize(result)
			}
			switch {
			case expr.Error != "":
				if err == nil {
					t.Errorf("test %d %q: expr %d: expected %s (got %s)", i, test.Name, j, expr.Error, lisp.PrStr(result))
				} else if kind := lisp.AsError(err).Kind.Name; kind != expr.Error {
					t.Errorf("test %d %q: expr %d: expected %s (got %v)", i, test.Name, j, expr.Error, err)
				}
			case err != nil:
				t.Errorf("test %d %q: expr %d: %v", i, test.Name, j, err)
			case lisp.PrStr(result) != expr.Result:
				t.Errorf("test %d %q: expr %d: expected result %s (got %s)", i, test.Name, j, expr.Result, lisp.PrStr(result))
			}
			if out.String() != expr.Output {
				t.Errorf("test %d %q: expr %d: expected output %q (got %q)", i, test.Name, j, expr.Output, out.String())
			}
		}
	}
}

// RunTestSuiteFile runs the TestSuite in the YAML file at path.
func RunTestSuiteFile(t *testing.T, path string) {
	suite, err := LoadTestSuite(path)
	if err != nil {
		t.Fatal(err)
	}
	RunTestSuite(t, suite)
}

// RunBenchmark runs a standard benchmark that executes expressions parsed from
// source.
func RunBenchmark(b *testing.B, source string) {
	b.StopTimer()
	exprs, err := parser.NewReader().Read("benchmark", strings.NewReader(source))
	if err != nil {
		b.Fatalf("parse error: %v", err)
	}
	for i := 0; i < b.N; i++ {
		env, err := lisplib.NewEnv(lisp.WithStdout(io.Discard), lisp.WithStderr(io.Discard))
		if err != nil {
			b.Fatal(err)
		}
		b.StartTimer()
		for i, expr := range exprs {
			if _, err := env.Eval(expr); err != nil {
				b.Fatalf("expr %d: %v", i, err)
			}
		}
		b.StopTimer()
	}
}
