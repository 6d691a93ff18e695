// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"bytes"
	"runtime/pprof"
	"testing"

	"github.com/luthersystems/sxp/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPprofAnnotator(t *testing.T) {
	env := newEnv(t)
	ppa := profiler.NewPprofAnnotator(env.Runtime, nil)
	var buf bytes.Buffer
	require.NoError(t, pprof.StartCPUProfile(&buf))
	defer pprof.StopCPUProfile()
	require.NoError(t, ppa.Enable())
	assert.Error(t, ppa.Enable(), "enabled twice")
	assert.Error(t, ppa.SetFile("./pprofout"))
	assert.Same(t, ppa, env.Runtime.Profiler)

	_, err := env.LoadString("work.sxp", `
(defn spin [n acc]
  (if (= n 0)
    acc
    (spin (- n 1) (+ acc n))))
(reduce (fn [a x] (+ a (spin x 0))) 0 (range 200))`)
	require.NoError(t, err)
	runTraceSource(t, env)
	assert.NoError(t, ppa.Complete())
}
