// Copyright © 2018 The ELPS authors

package lisp

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultMaxStackSize is the operand stack ceiling of a VM, in slots.
	DefaultMaxStackSize = 512000
	// DefaultMaxFrameDepth bounds the number of active frames of a VM.
	DefaultMaxFrameDepth = 50000
	// DefaultMaxMacroExpansions bounds the expansions of a single form.
	DefaultMaxMacroExpansions = 1000
)

// Runtime holds the state shared by the compiler and every VM evaluating code
// for it: the namespace registry, the current namespace, output streams and
// the stack of active VMs.
type Runtime struct {
	Registry *Registry
	NS       *Namespace
	Stdout   io.Writer
	Stderr   io.Writer
	Logger   *logrus.Logger
	Reader   Reader
	Profiler Profiler
	// Spawn returns a fresh VM.  It is installed by the package that
	// implements the VM.
	Spawn              func(rt *Runtime) Caller
	MaxStackSize       int
	MaxFrameDepth      int
	MaxMacroExpansions int
	vms                []Caller
	bindings           [][]*Var
	numsym             atomicCounter
	numid              atomicCounter
}

// StandardRuntime returns a new Runtime with a registry containing the core
// and user namespaces, writing to os.Stdout and os.Stderr.
func StandardRuntime() *Runtime {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(logrus.WarnLevel)
	reg := NewRegistry(logger)
	return &Runtime{
		Registry:           reg,
		NS:                 reg.Namespace(UserNamespace),
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Logger:             logger,
		MaxStackSize:       DefaultMaxStackSize,
		MaxFrameDepth:      DefaultMaxFrameDepth,
		MaxMacroExpansions: DefaultMaxMacroExpansions,
	}
}

// NewRuntime returns a StandardRuntime configured by opts.
func NewRuntime(opts ...Config) (*Runtime, error) {
	rt := StandardRuntime()
	for _, opt := range opts {
		if err := opt(rt); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

// Core returns the core namespace.
func (r *Runtime) Core() *Namespace { return r.Registry.Core() }

// InNS makes the namespace called name current, creating it when needed.
func (r *Runtime) InNS(name string) *Namespace {
	r.NS = r.Registry.Namespace(name)
	return r.NS
}

// PushVM makes vm the current VM.  The returned function restores the
// previous VM and must be called on every exit path.
func (r *Runtime) PushVM(vm Caller) func() {
	r.vms = append(r.vms, vm)
	n := len(r.vms)
	return func() {
		r.vms[n-1] = nil
		r.vms = r.vms[:n-1]
	}
}

// CurrentVM returns the innermost active VM, or nil.
func (r *Runtime) CurrentVM() Caller {
	if len(r.vms) == 0 {
		return nil
	}
	return r.vms[len(r.vms)-1]
}

// VMDepth returns the number of active VMs.
func (r *Runtime) VMDepth() int { return len(r.vms) }

// NewVM returns a fresh VM for r.
func (r *Runtime) NewVM() (Caller, error) {
	if r.Spawn == nil {
		return nil, Errorf(RuntimeError, "runtime has no virtual machine")
	}
	return r.Spawn(r), nil
}

// Call invokes fn with args on a fresh VM.  It is used to force lazy
// sequences and to expand macros outside of any running VM.
func (r *Runtime) Call(fn Value, args ...Value) (Value, error) {
	vm, err := r.NewVM()
	if err != nil {
		return nil, err
	}
	return vm.Call(fn, args...)
}

// PushBindings establishes a dynamic binding for each var key of m to its
// value.  Either every binding is established or none is.  The bindings are
// removed together by PopBindings.
func (r *Runtime) PushBindings(m *Map) error {
	var vars []*Var
	undo := func() {
		for _, v := range vars {
			_ = v.PopBinding()
		}
	}
	for _, e := range m.Entries() {
		v, ok := e.Key.(*Var)
		if !ok {
			undo()
			return Errorf(CastError, "push-bindings wants a map of vars, got key: %s", TypeName(e.Key))
		}
		if err := v.PushBinding(e.Val); err != nil {
			undo()
			return err
		}
		vars = append(vars, v)
	}
	r.bindings = append(r.bindings, vars)
	return nil
}

// PopBindings removes the bindings established by the matching call to
// PushBindings.
func (r *Runtime) PopBindings() error {
	n := len(r.bindings)
	if n == 0 {
		return Errorf(RuntimeError, "pop-bindings without matching push-bindings")
	}
	for _, v := range r.bindings[n-1] {
		if err := v.PopBinding(); err != nil {
			return err
		}
	}
	r.bindings[n-1] = nil
	r.bindings = r.bindings[:n-1]
	return nil
}

// GenSym returns a symbol which has not been produced before by r.
func (r *Runtime) GenSym(prefix string) *Symbol {
	if prefix == "" {
		prefix = "G"
	}
	return Sym(fmt.Sprintf("%s__%d__AUTO__", prefix, r.numsym.Add(1)))
}

// NextID returns a new identifier unique within r.
func (r *Runtime) NextID() uint {
	return r.numid.Add(1)
}

type atomicCounter uint64

func (c *atomicCounter) Add(n uint) uint {
	return uint(atomic.AddUint64((*uint64)(c), uint64(n)))
}
