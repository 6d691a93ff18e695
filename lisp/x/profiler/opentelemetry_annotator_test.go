// Copyright © 2018 The ELPS authors

package profiler_test

import (
	"context"
	"testing"

	"github.com/luthersystems/sxp/lisp/x/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newSpanExporter(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
		trace.WithSampler(trace.AlwaysSample()),
	)
	t.Cleanup(func() {
		err := tp.Shutdown(context.Background())
		assert.NoError(t, err, "TracerProvider shutdown")
	})
	otel.SetTracerProvider(tp)
	return exporter
}

func spanNames(spans tracetest.SpanStubs) []string {
	names := make([]string, len(spans))
	for i := range spans {
		names[i] = spans[i].Name
	}
	return names
}

func TestNewOpenTelemetryAnnotator(t *testing.T) {
	exporter := newSpanExporter(t)
	env := newEnv(t)
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, context.Background())
	require.NoError(t, ppa.Enable())
	runTraceSource(t, env)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	assert.GreaterOrEqual(t, len(spans), 3, "Expected at least three spans")
	names := spanNames(spans)
	assert.Contains(t, names, "user/add-it")
	assert.Contains(t, names, "user/recurse-it")
	assert.Contains(t, names, "sxp/+")
	for _, name := range names {
		assert.NotContains(t, name, "THUNK")
	}
}

func TestNewOpenTelemetryAnnotatorSkip(t *testing.T) {
	exporter := newSpanExporter(t)
	env := newEnv(t)
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, context.Background(),
		profiler.WithDocFilter(),
		profiler.WithDocLabeler())
	require.NoError(t, ppa.Enable())
	runTraceSource(t, env)
	assert.NoError(t, ppa.Complete())

	spans := exporter.GetSpans()
	require.Equal(t, []string{"Add_It", "Add_It", "Add_It_Again", "Add_It"}, spanNames(spans), "Expected selective spans")
	assert.False(t, spans[0].Parent.IsValid())
	assert.Equal(t, spans[2].SpanContext.SpanID(), spans[1].Parent.SpanID(), "Expected nested span")
	assert.False(t, spans[3].Parent.IsValid())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "user", attrs["code.namespace"].AsString())
	assert.Equal(t, "add-it", attrs["code.function"].AsString())
	assert.Equal(t, "trace.sxp", attrs["code.filepath"].AsString())
	assert.Equal(t, int64(1), attrs["code.lineno"].AsInt64())
}

func TestOpenTelemetryAnnotatorRequiresContext(t *testing.T) {
	env := newEnv(t)
	//nolint:staticcheck
	ppa := profiler.NewOpenTelemetryAnnotator(env.Runtime, nil)
	assert.Error(t, ppa.Enable())
}
