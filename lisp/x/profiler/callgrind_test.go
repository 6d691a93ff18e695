// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luthersystems/sxp/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCallgrind(t *testing.T) {
	env := newEnv(t)
	prof := profiler.NewCallgrindProfiler(env.Runtime)
	assert.Error(t, prof.Enable(), "enabled without output")

	path := filepath.Join(t.TempDir(), "callgrind.test_prof")
	require.NoError(t, prof.SetFile(path))
	require.NoError(t, prof.Enable())
	assert.True(t, prof.IsEnabled())
	assert.Error(t, prof.SetFile(path), "output changed while enabled")

	runTraceSource(t, env)
	require.NoError(t, prof.Complete())

	b, err := os.ReadFile(path) //#nosec G304
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.HasPrefix(out, "version: 1\ncreator: sxp "), out)
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, ") user/add-it\n")
	assert.Contains(t, out, ") user/recurse-it\n")
	assert.Contains(t, out, ") sxp/+\n")
	assert.Contains(t, out, ") trace.sxp\n")
	assert.Contains(t, out, ") ENTRYPOINT\n")
	assert.Contains(t, out, "calls=1 0 0\n")
	assert.Contains(t, out, "\nsummary ")
}

func TestCallgrindBuiltinFilter(t *testing.T) {
	env := newEnv(t)
	prof := profiler.NewCallgrindProfiler(env.Runtime, profiler.WithBuiltinFilter())
	path := filepath.Join(t.TempDir(), "callgrind.test_prof")
	require.NoError(t, prof.SetFile(path))
	require.NoError(t, prof.Enable())
	runTraceSource(t, env)
	require.NoError(t, prof.Complete())

	b, err := os.ReadFile(path) //#nosec G304
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, ") user/add-it-again\n")
	assert.NotContains(t, out, "sxp/+")
	assert.NotContains(t, out, "COMPILER_THUNK")
}

func TestCallgrindSetFileWhileEnabled(t *testing.T) {
	env := newEnv(t)
	prof := profiler.NewCallgrindProfiler(env.Runtime)
	path := filepath.Join(t.TempDir(), "callgrind.test_prof")
	require.NoError(t, prof.SetFile(path))
	require.NoError(t, prof.Enable())

	err := prof.SetFile(path)
	assert.EqualError(t, err, "profiler already enabled")
	other := filepath.Join(t.TempDir(), "other.test_prof")
	assert.Error(t, prof.SetFile(other))
	_, err = os.Stat(other)
	assert.True(t, os.IsNotExist(err), "refused output file was created")

	runTraceSource(t, env)
	require.NoError(t, prof.Complete())

	b, err := os.ReadFile(path) //#nosec G304
	require.NoError(t, err)
	out := string(b)
	assert.True(t, strings.HasPrefix(out, "version: 1\ncreator: sxp "), out)
	assert.Contains(t, out, "events: Time_(ns) Memory_(bytes)")
	assert.Contains(t, out, ") ENTRYPOINT\n")
}
