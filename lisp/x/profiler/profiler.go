// Copyright © 2018 The ELPS authors

// Package profiler provides lisp.Profiler implementations which write
// callgrind profiles, label pprof samples, or emit tracing spans for the
// functions called by the VM.
package profiler

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/luthersystems/sxp/lisp"
)

// profiler is a minimal lisp.Profiler
type profiler struct {
	runtime    *lisp.Runtime
	enabled    bool
	skipFilter SkipFilter
	funLabeler FunLabeler
}

var _ lisp.Profiler = &profiler{}

func (p *profiler) IsEnabled() bool {
	return p.enabled
}

type Option func(*profiler)

func (p *profiler) applyConfigs(opts ...Option) {
	for _, opt := range opts {
		opt(p)
	}
}

func (p *profiler) Enable() error {
	if p.enabled {
		return fmt.Errorf("profiler already enabled")
	}
	p.enabled = true
	return nil
}

func (p *profiler) SetFile(filename string) error {
	return errors.New("no need to set a file for this profiler type")
}

func (p *profiler) Complete() error {
	return nil
}

func (p *profiler) Start(fn *lisp.FunInfo) func() {
	return func() {}
}

// gensymRegex matches names generated by Runtime.GenSym.
var gensymRegex = regexp.MustCompile(`^(.+)__\d+__AUTO__$`)

// funName returns a canonical version of the function name suitable for
// human viewing.
func funName(fn *lisp.FunInfo) string {
	m := gensymRegex.FindStringSubmatch(fn.Name)
	if m == nil {
		return fn.Name
	}
	return m[1]
}

// prettyFunName returns a pretty name and original name for a fn. If there is
// no pretty name, then the pretty name is the qualified original name. The
// pretty name includes the namespace prefix, while the original name does
// not.
func (p *profiler) prettyFunName(fn *lisp.FunInfo) (string, string) {
	origLabel := funName(fn)
	if origLabel == "" {
		return "", ""
	}
	var prettyLabel string
	if p.funLabeler != nil {
		prettyLabel = p.funLabeler(fn)
	}
	if prettyLabel == "" {
		prettyLabel = origLabel
		if fn.Package != "" {
			prettyLabel = fn.Package + "/" + origLabel
		}
	}
	return prettyLabel, origLabel
}

// skipTrace is a helper function to decide whether to skip tracing.
func (p *profiler) skipTrace(fn *lisp.FunInfo) bool {
	return !p.enabled || defaultSkipFilter(fn) || p.skipFilter != nil && p.skipFilter(fn)
}

func getSource(fn *lisp.FunInfo) (string, int) {
	if fn.Source == nil || fn.Source.File == "" {
		return "no-source", 0
	}
	return fn.Source.File, fn.Source.Line
}
