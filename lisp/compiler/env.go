// Copyright © 2018 The ELPS authors

package compiler

import (
	"io"
	"os"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/luthersystems/sxp/lisp/vm"
	"github.com/luthersystems/sxp/parser"
	"github.com/sirupsen/logrus"
)

// Env couples a runtime with the compiler and virtual machine evaluating code
// for it.
type Env struct {
	Runtime *lisp.Runtime
}

// NewEnv returns an Env whose runtime is configured by opts.  The runtime
// reads source with the default parser and spawns VMs from package vm unless
// opts says otherwise.
func NewEnv(opts ...lisp.Config) (*Env, error) {
	opts = append([]lisp.Config{
		lisp.WithSpawner(vm.Spawn),
		lisp.WithReader(parser.NewReader()),
	}, opts...)
	rt, err := lisp.NewRuntime(opts...)
	if err != nil {
		return nil, err
	}
	return &Env{Runtime: rt}, nil
}

// Compile returns a function of no arguments which evaluates form in the
// current namespace.
func (env *Env) Compile(form lisp.Value) (*bytecode.Function, error) {
	return New(env.Runtime).Compile(form)
}

// Eval compiles and evaluates form.  When called from a builtin, form runs on
// the active VM.
func (env *Env) Eval(form lisp.Value) (lisp.Value, error) {
	return Eval(env.Runtime, form)
}

// Eval compiles form in the current namespace of rt and evaluates it.
func Eval(rt *lisp.Runtime, form lisp.Value) (lisp.Value, error) {
	fn, err := New(rt).Compile(form)
	if err != nil {
		return nil, err
	}
	caller := rt.CurrentVM()
	if caller == nil {
		caller = vm.New(rt)
	}
	return caller.Call(fn)
}

// EvalString evaluates each form in src and returns the value of the last
// one.
func (env *Env) EvalString(src string) (lisp.Value, error) {
	return env.eval("<string>", strings.NewReader(src))
}

// Load evaluates the forms read from r.  The current namespace is restored
// after loading so that in-ns within the stream does not leak.
func (env *Env) Load(name string, r io.Reader) (lisp.Value, error) {
	ns := env.Runtime.NS
	defer func() { env.Runtime.NS = ns }()
	return env.eval(name, r)
}

// LoadString evaluates the forms of src as if read from a stream called name.
func (env *Env) LoadString(name, src string) (lisp.Value, error) {
	return env.Load(name, strings.NewReader(src))
}

// LoadFile evaluates the forms in the file at path.
func (env *Env) LoadFile(path string) (lisp.Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lisp.Errorf(lisp.IOError, "%v", err)
	}
	defer f.Close()
	return env.Load(path, f)
}

func (env *Env) eval(name string, r io.Reader) (lisp.Value, error) {
	rt := env.Runtime
	if rt.Reader == nil {
		return nil, lisp.Errorf(lisp.RuntimeError, "no reader for runtime")
	}
	forms, err := rt.Reader.Read(name, r)
	if err != nil {
		return nil, err
	}
	var result lisp.Value = lisp.Nil
	for _, form := range forms {
		result, err = env.Eval(form)
		if err != nil {
			rt.Logger.WithFields(logrus.Fields{
				"stream": name,
				"error":  err,
			}).Debug("evaluation failed")
			return nil, err
		}
	}
	return result, nil
}

// ExpandOne expands form once if it is a macro call.
func (env *Env) ExpandOne(form lisp.Value) (lisp.Value, error) {
	return New(env.Runtime).ExpandOne(form)
}

// Expand expands form until its head is no longer a macro.
func (env *Env) Expand(form lisp.Value) (lisp.Value, error) {
	return New(env.Runtime).Expand(form)
}
