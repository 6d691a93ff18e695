// Copyright © 2018 The ELPS authors

package profiler_test

import (
	_ "embed"
	"io"
	"testing"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/trace.sxp
var traceSource string

func newEnv(t *testing.T) *compiler.Env {
	env, err := lisplib.NewEnv(lisp.WithStdout(io.Discard), lisp.WithStderr(io.Discard))
	require.NoError(t, err)
	return env
}

func runTraceSource(t *testing.T, env *compiler.Env) {
	v, err := env.LoadString("trace.sxp", traceSource)
	require.NoError(t, err)
	require.Equal(t, "8", lisp.PrStr(v))
}
