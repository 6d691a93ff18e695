// Copyright © 2018 The ELPS authors

package profiler

import (
	"context"
	"runtime/pprof"

	"github.com/luthersystems/sxp/lisp"
)

// pprofAnnotator appends labels to pprof samples while pprof is enabled.
// It does not start pprof itself.  Because pprof samples at a fixed 100Hz a
// meaningful profile needs a lot of work to be done.
type pprofAnnotator struct {
	profiler
	currentContext context.Context
}

var _ lisp.Profiler = &pprofAnnotator{}

// NewPprofAnnotator returns a profiler which labels the current goroutine
// with the function being called.
func NewPprofAnnotator(rt *lisp.Runtime, parentContext context.Context, opts ...Option) *pprofAnnotator {
	p := &pprofAnnotator{
		profiler: profiler{
			runtime: rt,
		},
		currentContext: parentContext,
	}
	p.profiler.applyConfigs(opts...)
	return p
}

func (p *pprofAnnotator) Enable() error {
	p.runtime.Profiler = p
	if p.currentContext == nil {
		p.currentContext = context.Background()
	}
	return p.profiler.Enable()
}

func (p *pprofAnnotator) Complete() error {
	pprof.SetGoroutineLabels(context.Background())
	return nil
}

func (p *pprofAnnotator) Start(fn *lisp.FunInfo) func() {
	if p.skipTrace(fn) {
		return func() {}
	}
	// Contexts are kept on a stack instead of using pprof.Do so that the VM
	// dispatch loop does not need to run inside a closure.
	oldContext := p.currentContext
	prettyLabel, _ := p.prettyFunName(fn)
	p.currentContext = pprof.WithLabels(p.currentContext, pprof.Labels("function", prettyLabel))
	// NB labels propagate to goroutines started below this call
	pprof.SetGoroutineLabels(p.currentContext)

	return func() {
		p.currentContext = oldContext
		pprof.SetGoroutineLabels(p.currentContext)
	}
}
