// Copyright © 2018 The ELPS authors

package vm

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
	"github.com/sirupsen/logrus"
)

// execute runs instructions until the frame count drops back to boundary and
// returns the value returned by the frame which was current on entry.
func (vm *VM) execute(boundary int) (lisp.Value, error) {
	for {
		f := vm.fr
		op := bytecode.Opcode(f.code[vm.pc])
		if vm.tracing {
			vm.trace(f, op)
		}
		vm.pc++
		result, done, err := vm.step(f, op, boundary)
		if done {
			return result, nil
		}
		if err != nil {
			if err = vm.unwind(err, boundary); err != nil {
				return nil, err
			}
		}
	}
}

func (vm *VM) trace(f *frame, op bytecode.Opcode) {
	vm.log.WithFields(logrus.Fields{
		"fn": f.fn.Name,
		"pc": vm.pc,
		"op": op.String(),
		"sp": len(vm.stack),
	}).Trace("exec")
}

func (vm *VM) readU8(f *frame) int {
	n := int(f.code[vm.pc])
	vm.pc++
	return n
}

func (vm *VM) readU16(f *frame) int {
	n := bytecode.ReadU16(f.code, vm.pc)
	vm.pc += 2
	return n
}

func (vm *VM) upval(f *frame, i int) (*Upvalue, error) {
	if f.closure == nil || i >= len(f.closure.Upvals) {
		return nil, lisp.Errorf(lisp.RuntimeError, "free variable %d out of range in %s", i, f.fn.Name)
	}
	return f.closure.Upvals[i], nil
}

// step executes one instruction.  The pc has already moved past op.
func (vm *VM) step(f *frame, op bytecode.Opcode, boundary int) (lisp.Value, bool, error) {
	switch op {
	case bytecode.OpPop:
		vm.pop()
	case bytecode.OpDup:
		vm.push(vm.peek(0))

	case bytecode.OpLoadNil:
		vm.push(lisp.Nil)
	case bytecode.OpLoadTrue:
		vm.push(lisp.True)
	case bytecode.OpLoadFalse:
		vm.push(lisp.False)
	case bytecode.OpLoadEmptyList:
		vm.push(lisp.EmptyList)
	case bytecode.OpLoadEmptyVector:
		vm.push(lisp.EmptyVector)
	case bytecode.OpLoadEmptyMap:
		vm.push(lisp.EmptyMap)
	case bytecode.OpLoadEmptySet:
		vm.push(lisp.EmptySet)

	case bytecode.OpNewVector:
		n := vm.readU16(f)
		vm.push(lisp.NewVector(vm.popN(n)))
	case bytecode.OpNewMap:
		n := vm.readU16(f)
		m, err := lisp.NewMap(vm.popN(2 * n)...)
		if err != nil {
			return nil, false, err
		}
		vm.push(m)
	case bytecode.OpNewSet:
		n := vm.readU16(f)
		vm.push(lisp.NewSet(vm.popN(n)...))

	case bytecode.OpJump:
		vm.pc = bytecode.ReadU16(f.code, vm.pc)
	case bytecode.OpJumpIfFalse:
		if !lisp.Truthy(vm.pop()) {
			vm.pc = bytecode.ReadU16(f.code, vm.pc)
		} else {
			vm.pc += 2
		}

	case bytecode.OpLoadConst0, bytecode.OpLoadConst1, bytecode.OpLoadConst2,
		bytecode.OpLoadConst3, bytecode.OpLoadConst4:
		vm.push(f.consts[op-bytecode.OpLoadConst0])
	case bytecode.OpLoadConstB:
		vm.push(f.consts[vm.readU8(f)])
	case bytecode.OpLoadConstS:
		vm.push(f.consts[vm.readU16(f)])

	case bytecode.OpLoadLocal0, bytecode.OpLoadLocal1, bytecode.OpLoadLocal2,
		bytecode.OpLoadLocal3, bytecode.OpLoadLocal4:
		vm.push(vm.stack[f.base+int(op-bytecode.OpLoadLocal0)])
	case bytecode.OpLoadLocalB:
		vm.push(vm.stack[f.base+vm.readU8(f)])
	case bytecode.OpLoadLocalS:
		vm.push(vm.stack[f.base+vm.readU16(f)])

	case bytecode.OpStoreLocal0, bytecode.OpStoreLocal1, bytecode.OpStoreLocal2,
		bytecode.OpStoreLocal3, bytecode.OpStoreLocal4:
		vm.stack[f.base+int(op-bytecode.OpStoreLocal0)] = vm.pop()
	case bytecode.OpStoreLocalB:
		i := vm.readU8(f)
		vm.stack[f.base+i] = vm.pop()
	case bytecode.OpStoreLocalS:
		i := vm.readU16(f)
		vm.stack[f.base+i] = vm.pop()

	case bytecode.OpLoadFree0, bytecode.OpLoadFree1, bytecode.OpLoadFree2,
		bytecode.OpLoadFree3, bytecode.OpLoadFree4, bytecode.OpLoadFreeB:
		i := int(op - bytecode.OpLoadFree0)
		if op == bytecode.OpLoadFreeB {
			i = vm.readU8(f)
		}
		u, err := vm.upval(f, i)
		if err != nil {
			return nil, false, err
		}
		vm.push(u.Get())
	case bytecode.OpStoreFree0, bytecode.OpStoreFree1, bytecode.OpStoreFree2,
		bytecode.OpStoreFree3, bytecode.OpStoreFree4, bytecode.OpStoreFreeB:
		i := int(op - bytecode.OpStoreFree0)
		if op == bytecode.OpStoreFreeB {
			i = vm.readU8(f)
		}
		u, err := vm.upval(f, i)
		if err != nil {
			return nil, false, err
		}
		u.Set(vm.pop())

	case bytecode.OpNewClosure:
		fn, ok := vm.pop().(*bytecode.Function)
		if !ok {
			return nil, false, lisp.Errorf(lisp.RuntimeError, "NEW_CLOSURE wants a function")
		}
		c := NewClosure(fn)
		n := vm.readU8(f)
		for i := 0; i < n; i++ {
			isLocal := vm.readU8(f) != 0
			index := vm.readU8(f)
			if isLocal {
				c.Upvals[i] = vm.captureUpval(f.base + index)
				continue
			}
			u, err := vm.upval(f, index)
			if err != nil {
				return nil, false, err
			}
			c.Upvals[i] = u
		}
		vm.push(c)

	case bytecode.OpDef:
		val := vm.pop()
		v, err := vm.peekVar()
		if err != nil {
			return nil, false, err
		}
		v.SetRoot(val, true)
	case bytecode.OpVarGet:
		v, ok := vm.pop().(*lisp.Var)
		if !ok {
			return nil, false, lisp.Errorf(lisp.RuntimeError, "VAR_GET wants a var")
		}
		x, err := v.Get()
		if err != nil {
			return nil, false, err
		}
		vm.push(x)
	case bytecode.OpVarSet:
		v, ok := vm.pop().(*lisp.Var)
		if !ok {
			return nil, false, lisp.Errorf(lisp.RuntimeError, "VAR_SET wants a var")
		}
		if err := v.Set(vm.peek(0)); err != nil {
			return nil, false, err
		}
	case bytecode.OpSetMeta:
		m, ok := vm.pop().(*lisp.Map)
		if !ok {
			return nil, false, lisp.Errorf(lisp.RuntimeError, "SET_META wants a map")
		}
		switch x := vm.peek(0).(type) {
		case *lisp.Var:
			x.SetMeta(m)
		case lisp.Meta:
			vm.stack[len(vm.stack)-1] = x.WithMeta(m)
		default:
			return nil, false, lisp.Errorf(lisp.IllegalArgumentError, "can't set metadata on: %s", lisp.TypeName(x))
		}

	case bytecode.OpCall0, bytecode.OpCall1, bytecode.OpCall2, bytecode.OpCall3, bytecode.OpCall4:
		return nil, false, vm.call(int(op - bytecode.OpCall0))
	case bytecode.OpCallB:
		return nil, false, vm.call(vm.readU8(f))
	case bytecode.OpCallS:
		return nil, false, vm.call(vm.readU16(f))
	case bytecode.OpApply:
		n := vm.readU8(f)
		items, err := lisp.SeqSlice(vm.pop())
		if err != nil {
			return nil, false, err
		}
		for _, x := range items {
			vm.push(x)
		}
		return nil, false, vm.call(n - 1 + len(items))

	case bytecode.OpReturn:
		result := vm.pop()
		popped := vm.popFrame()
		vm.truncate(popped.base)
		if len(vm.frames) == boundary {
			return result, true, nil
		}
		vm.push(result)

	case bytecode.OpThrow:
		switch x := vm.pop().(type) {
		case lisp.String:
			return nil, false, lisp.NewError(lisp.ErrorRoot, string(x))
		case *lisp.Error:
			return nil, false, x
		case *lisp.ErrorKind:
			return nil, false, lisp.NewError(x, lisp.DefaultErrorMessage)
		default:
			return nil, false, lisp.Errorf(lisp.RuntimeError, "throw wants an SxError instance or a string, got: %s", lisp.TypeName(x))
		}
	case bytecode.OpCloseUpvals:
		vm.closeUpvals(f.base + vm.readU16(f))
	case bytecode.OpRethrow:
		e, ok := vm.pop().(*lisp.Error)
		if !ok {
			return nil, false, lisp.Errorf(lisp.RuntimeError, "RETHROW wants an error")
		}
		return nil, false, e

	default:
		return nil, false, lisp.Errorf(lisp.RuntimeError, "illegal instruction in VM: %02X", byte(op))
	}
	return nil, false, nil
}

func (vm *VM) peekVar() (*lisp.Var, error) {
	v, ok := vm.peek(0).(*lisp.Var)
	if !ok {
		return nil, lisp.Errorf(lisp.RuntimeError, "DEF wants a var")
	}
	return v, nil
}
