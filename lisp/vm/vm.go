// Copyright © 2018 The ELPS authors

// Package vm executes compiled sxp functions on a stack machine.
package vm

import (
	"github.com/google/uuid"
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/sirupsen/logrus"
)

type frame struct {
	fn      *bytecode.Function
	method  *bytecode.Method
	closure *Closure
	code    []byte
	consts  []lisp.Value
	// base is the stack index of the called function, local slot 0.
	base int
	// retPC is the caller's pc to resume at when the frame returns.
	retPC   int
	profEnd func()
}

// VM is a bytecode interpreter.  A VM owns its operand stack, its frames and
// the open upvalues pointing into its stack.  It is not safe for concurrent
// use.
type VM struct {
	ID         uuid.UUID
	rt         *lisp.Runtime
	stack      []lisp.Value
	frames     []*frame
	fr         *frame
	pc         int
	openUpvals *Upvalue
	log        *logrus.Entry
	tracing    bool
}

// New returns a VM evaluating code for rt.
func New(rt *lisp.Runtime) *VM {
	id := uuid.New()
	logger := rt.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VM{
		ID:      id,
		rt:      rt,
		log:     logger.WithField("vm", id.String()),
		tracing: logger.IsLevelEnabled(logrus.TraceLevel),
	}
}

// Spawn creates a VM for rt.  It is installed as the runtime's spawner so
// that lazy sequences and macro expansion can run code outside of an active
// VM.
func Spawn(rt *lisp.Runtime) lisp.Caller {
	return New(rt)
}

// Runtime returns the runtime of vm.
func (vm *VM) Runtime() *lisp.Runtime { return vm.rt }

// FrameDepth returns the number of active frames.
func (vm *VM) FrameDepth() int { return len(vm.frames) }

// Run calls callable with no arguments and returns its result.
func (vm *VM) Run(callable lisp.Value) (lisp.Value, error) {
	return vm.Call(callable)
}

// Call calls fn with args.  Call may be used re-entrantly by builtins invoked
// from vm; frames pushed by the inner call are fully unwound before it
// returns.
func (vm *VM) Call(fn lisp.Value, args ...lisp.Value) (lisp.Value, error) {
	defer vm.rt.PushVM(vm)()
	if f, ok := fn.(lisp.Applicable); ok {
		return vm.applyNative(f, args)
	}
	boundary := len(vm.frames)
	sp := len(vm.stack)
	vm.push(fn)
	for _, arg := range args {
		vm.push(arg)
	}
	if err := vm.call(len(args)); err != nil {
		vm.truncate(sp)
		return nil, vm.annotate(lisp.AsError(err))
	}
	return vm.execute(boundary)
}

func (vm *VM) applyNative(f lisp.Applicable, args []lisp.Value) (lisp.Value, error) {
	if prof := vm.rt.Profiler; prof != nil && prof.IsEnabled() {
		defer prof.Start(lisp.FunInfoOf(f))()
	}
	v, err := f.Apply(vm, args)
	if err != nil {
		return nil, err
	}
	if v == nil {
		v = lisp.Nil
	}
	return v, nil
}

func (vm *VM) push(v lisp.Value) {
	vm.stack = append(vm.stack, v)
}

func (vm *VM) pop() lisp.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack[n] = nil
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(i int) lisp.Value {
	return vm.stack[len(vm.stack)-1-i]
}

func (vm *VM) truncate(n int) {
	for i := n; i < len(vm.stack); i++ {
		vm.stack[i] = nil
	}
	vm.stack = vm.stack[:n]
}

func (vm *VM) popN(n int) []lisp.Value {
	items := make([]lisp.Value, n)
	copy(items, vm.stack[len(vm.stack)-n:])
	vm.truncate(len(vm.stack) - n)
	return items
}

// call invokes the callable stacked below the top nArgs values.  Compiled
// functions get a new frame; native callables run immediately and leave
// their result in place of the callable and its arguments.
func (vm *VM) call(nArgs int) error {
	callee := vm.peek(nArgs)
	var fn *bytecode.Function
	var closure *Closure
	switch f := callee.(type) {
	case *bytecode.Function:
		fn = f
	case *Closure:
		fn, closure = f.Fn, f
	case lisp.Applicable:
		args := vm.popN(nArgs)
		vm.pop()
		v, err := vm.applyNative(f, args)
		if err != nil {
			return err
		}
		vm.push(v)
		return nil
	default:
		return lisp.Errorf(lisp.CastError, "%s cannot be called", lisp.TypeName(callee))
	}
	m := fn.GetMethod(nArgs)
	if m == nil {
		return lisp.ArityError(nArgs, fn.Name)
	}
	if m.Rest {
		nTail := nArgs - m.ReqArgs
		if nTail == 0 {
			vm.push(lisp.Nil)
		} else {
			vm.push(lisp.NewList(vm.popN(nTail)...))
		}
		nArgs = m.ReqArgs + 1
	}
	return vm.pushFrame(fn, m, closure, nArgs)
}

func (vm *VM) pushFrame(fn *bytecode.Function, m *bytecode.Method, closure *Closure, nArgs int) error {
	base := len(vm.stack) - nArgs - 1
	size := base + m.NLocals
	if max := vm.rt.MaxStackSize; max > 0 && size > max {
		return lisp.Errorf(lisp.RuntimeError, "max VM parameter stack size (%d) exceeded", vm.rt.MaxStackSize)
	}
	if max := vm.rt.MaxFrameDepth; max > 0 && len(vm.frames) >= max {
		return lisp.Errorf(lisp.RuntimeError, "max VM frame depth (%d) exceeded", vm.rt.MaxFrameDepth)
	}
	for len(vm.stack) < size {
		vm.push(lisp.Nil)
	}
	f := &frame{
		fn:      fn,
		method:  m,
		closure: closure,
		code:    m.Code,
		consts:  fn.Consts,
		base:    base,
		retPC:   vm.pc,
	}
	if prof := vm.rt.Profiler; prof != nil && prof.IsEnabled() {
		var callee lisp.Value = fn
		if closure != nil {
			callee = closure
		}
		f.profEnd = prof.Start(lisp.FunInfoOf(callee))
	}
	vm.frames = append(vm.frames, f)
	vm.fr = f
	vm.pc = 0
	if vm.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		vm.log.WithFields(logrus.Fields{
			"fn":    fn.Name,
			"depth": len(vm.frames),
			"base":  base,
		}).Debug("push frame")
	}
	return nil
}

// popFrame removes the current frame, closing the upvalues which refer to
// its locals, and restores the caller's frame and pc.
func (vm *VM) popFrame() *frame {
	f := vm.fr
	vm.closeUpvals(f.base)
	if f.profEnd != nil {
		f.profEnd()
	}
	n := len(vm.frames) - 1
	vm.frames[n] = nil
	vm.frames = vm.frames[:n]
	vm.pc = f.retPC
	if n > 0 {
		vm.fr = vm.frames[n-1]
	} else {
		vm.fr = nil
	}
	return f
}

// captureUpval returns the open upvalue for the stack slot at index,
// creating it when no closure has captured the slot yet.  Open upvalues are
// kept ordered by descending slot index.
func (vm *VM) captureUpval(index int) *Upvalue {
	var prev *Upvalue
	cur := vm.openUpvals
	for cur != nil && cur.index > index {
		prev, cur = cur, cur.next
	}
	if cur != nil && cur.index == index {
		return cur
	}
	u := &Upvalue{vm: vm, index: index, next: cur}
	if prev == nil {
		vm.openUpvals = u
	} else {
		prev.next = u
	}
	return u
}

// closeUpvals closes every open upvalue at or above the stack index last.
func (vm *VM) closeUpvals(last int) {
	for vm.openUpvals != nil && vm.openUpvals.index >= last {
		u := vm.openUpvals
		vm.openUpvals = u.next
		u.next = nil
		u.close()
	}
}

// unwind searches the active frames above boundary for a handler of err.
// When one is found the handler's frame becomes current with err pushed and
// unwind returns nil.  Otherwise every frame above boundary is popped and
// the error is returned.  The handler's frame keeps its locals and the
// operands pending when its protected code was entered.
func (vm *VM) unwind(err error, boundary int) error {
	e := vm.annotate(lisp.AsError(err))
	for len(vm.frames) > boundary {
		f := vm.fr
		if h, ok := f.method.FindHandler(vm.pc, e.Kind); ok {
			top := f.base + f.method.NLocals + h.Depth
			vm.closeUpvals(top)
			vm.truncate(top)
			vm.push(e)
			if vm.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
				vm.log.WithFields(logrus.Fields{
					"fn":      f.fn.Name,
					"pc":      vm.pc,
					"handler": h.Addr,
					"kind":    e.Kind.Name,
				}).Debug("handle error")
			}
			vm.pc = h.Addr
			return nil
		}
		popped := vm.popFrame()
		vm.truncate(popped.base)
	}
	return e
}

// annotate attaches a snapshot of the call stack to errors which do not
// have one yet.
func (vm *VM) annotate(e *lisp.Error) *lisp.Error {
	if e.Stack == nil && len(vm.frames) > 0 {
		e.Stack = vm.CallStack()
	}
	return e
}

// CallStack returns a snapshot of the active frames, entrypoint first.
func (vm *VM) CallStack() *lisp.CallStack {
	stack := &lisp.CallStack{}
	for i, f := range vm.frames {
		pc := vm.pc
		if i+1 < len(vm.frames) {
			pc = vm.frames[i+1].retPC
		}
		stack.Push(lisp.CallFrame{
			Source:  f.fn.Source,
			Package: f.fn.NS,
			Name:    f.fn.Name,
			PC:      pc,
		})
	}
	return stack
}
