// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"context"
	"sync"
	"testing"

	"github.com/luthersystems/sxp/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

func TestNewOpenCensusAnnotator(t *testing.T) {
	// Let's sample at 100% for the purposes of this test...
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	exporter := &recordingExporter{}
	trace.RegisterExporter(exporter)
	defer trace.UnregisterExporter(exporter)

	env := newEnv(t)
	ppa := profiler.NewOpenCensusAnnotator(env.Runtime, context.Background(),
		profiler.WithDocFilter(),
		profiler.WithDocLabeler())
	require.NoError(t, ppa.EnableWithContext(context.Background()))
	runTraceSource(t, env)
	assert.NoError(t, ppa.Complete())

	spans := exporter.Spans()
	require.Len(t, spans, 4)
	assert.Equal(t, "Add_It_Again", spans[2].Name)
	assert.Equal(t, spans[2].SpanID, spans[1].ParentSpanID)
	require.NotEmpty(t, spans[0].Annotations)
	assert.Equal(t, "source", spans[0].Annotations[0].Message)
	assert.Equal(t, "trace.sxp", spans[0].Annotations[0].Attributes["file"])
}

// recordingExporter keeps exported spans in memory.  In the real world,
// you'd go to one of the exporters supported by opencensus.
type recordingExporter struct {
	mut   sync.Mutex
	spans []*trace.SpanData
}

func (e *recordingExporter) ExportSpan(sd *trace.SpanData) {
	e.mut.Lock()
	defer e.mut.Unlock()
	e.spans = append(e.spans, sd)
}

func (e *recordingExporter) Spans() []*trace.SpanData {
	e.mut.Lock()
	defer e.mut.Unlock()
	return append([]*trace.SpanData(nil), e.spans...)
}
