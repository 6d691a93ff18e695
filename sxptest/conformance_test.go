// Copyright © 2018 The ELPS authors

package sxptest_test

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/sxptest"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConformance(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "conformance", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)
	for _, path := range paths {
		path := path
		name := strings.TrimSuffix(filepath.Base(path), ".yaml")
		t.Run(name, func(t *testing.T) {
			sxptest.RunTestSuiteFile(t, path)
		})
	}
}

func TestLoadTestSuite(t *testing.T) {
	suite, err := sxptest.LoadTestSuite(filepath.Join("testdata", "conformance", "special_forms.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, suite)
	require.Equal(t, "self evaluating", suite[0].Name)
	require.Equal(t, "42", suite[0].TestSequence[0].Expr)
	require.Equal(t, "42", suite[0].TestSequence[0].Result)

	_, err = sxptest.LoadTestSuite(filepath.Join("testdata", "missing.yaml"))
	require.Error(t, err)
}

func TestOutput(t *testing.T) {
	var suite sxptest.TestSuite
	src := `
- name: printing
  exprs:
    - expr: '(io/println "hello" 1 :k)'
      result: "nil"
      output: "hello 1 :k\n"
    - expr: '(io/prn "hello" [1 \a])'
      result: "nil"
      output: "\"hello\" [1 \\a]\n"
    - expr: "(+ 1 2)"
      result: "3"
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &suite))
	sxptest.RunTestSuite(t, suite)
}
