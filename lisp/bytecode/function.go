// Copyright © 2018 The ELPS authors

// Package bytecode defines the compiled form of sxp functions: the instruction
// set, functions with their constant pools and arity methods, and exception
// handler tables.  It also renders compiled functions for inspection.
package bytecode

import (
	"fmt"
	"sort"

	"github.com/luthersystems/sxp/lisp"
)

// Handler is one row of a method's exception handler table.  The program
// counter has already moved past the faulting instruction when the table is
// searched, so a row covers the pcs in (Start, End].  Depth is the number of
// operand values the enclosing expression had pushed above the locals when
// the protected code was entered.
type Handler struct {
	Start int
	End   int
	Addr  int
	Depth int
	Kind  *lisp.ErrorKind
}

// Covers returns true if h protects the instruction preceding pc.
func (h Handler) Covers(pc int) bool {
	return pc > h.Start && pc <= h.End
}

func (h Handler) String() string {
	s := fmt.Sprintf("start=%04X end=%04X addr=%04X %s", h.Start, h.End, h.Addr, h.Kind)
	if h.Depth > 0 {
		s += fmt.Sprintf(" depth=%d", h.Depth)
	}
	return s
}

// Method is one arity of a Function.  Slot 0 of the locals holds the called
// function itself.
type Method struct {
	Fn       *Function
	Code     []byte
	ReqArgs  int
	Rest     bool
	NLocals  int
	Handlers []Handler
}

// FindHandler returns the first handler covering pc which catches errors of
// the given kind.
func (m *Method) FindHandler(pc int, kind *lisp.ErrorKind) (Handler, bool) {
	for _, h := range m.Handlers {
		if h.Covers(pc) && h.Kind.Matches(kind) {
			return h, true
		}
	}
	return Handler{}, false
}

// HandlerAddr returns the address of the handler FindHandler selects, or -1.
func (m *Method) HandlerAddr(pc int, kind *lisp.ErrorKind) int {
	if h, ok := m.FindHandler(pc, kind); ok {
		return h.Addr
	}
	return -1
}

// AddHandler appends a row to the handler table of m.
func (m *Method) AddHandler(start, end, addr int, kind *lisp.ErrorKind) {
	m.AddHandlerDepth(start, end, addr, 0, kind)
}

// AddHandlerDepth appends a row whose protected code runs with depth operand
// values pending.
func (m *Method) AddHandlerDepth(start, end, addr, depth int, kind *lisp.ErrorKind) {
	m.Handlers = append(m.Handlers, Handler{Start: start, End: end, Addr: addr, Depth: depth, Kind: kind})
}

// NextLocal allocates a local slot.
func (m *Method) NextLocal() int {
	n := m.NLocals
	m.NLocals++
	return n
}

// Addr returns the address of the next emitted byte.
func (m *Method) Addr() int { return len(m.Code) }

// Emit appends an instruction to m.
func (m *Method) Emit(op Opcode, operands ...byte) {
	m.Code = append(m.Code, byte(op))
	m.Code = append(m.Code, operands...)
}

// EmitU16 appends op with a u16 operand.
func (m *Method) EmitU16(op Opcode, n int) {
	m.Emit(op, byte(n), byte(n>>8))
}

// EmitFamily appends the member of f addressing index i.
func (m *Method) EmitFamily(f Family, i int) error {
	b, err := f.Encode(i)
	if err != nil {
		return err
	}
	m.Code = append(m.Code, b...)
	return nil
}

// EmitJump appends a jump with a placeholder target and returns the address
// of the operand for Patch.
func (m *Method) EmitJump(op Opcode) int {
	m.EmitU16(op, 0)
	return len(m.Code) - 2
}

// Patch rewrites the u16 operand at addr to hold the current address.
func (m *Method) Patch(addr int) {
	m.PatchTo(addr, len(m.Code))
}

// PatchTo rewrites the u16 operand at addr to hold target.
func (m *Method) PatchTo(addr, target int) {
	m.Code[addr] = byte(target)
	m.Code[addr+1] = byte(target >> 8)
}

// CheckSize returns an error when the code of m exceeds the address space.
func (m *Method) CheckSize() error {
	if len(m.Code) > MaxBytecodeAddress {
		return fmt.Errorf("function %s exceeds the maximum bytecode size (%d)", m.Fn.Name, MaxBytecodeAddress)
	}
	return nil
}

// Function is a compiled function: a constant pool shared by a set of
// fixed-arity methods and at most one rest method.
type Function struct {
	Name    string
	NS      string
	Doc     string
	Source  *lisp.Location
	Consts  []lisp.Value
	Methods map[int]*Method
	// RestMethod accepts ReqArgs or more arguments.
	RestMethod *Method
	NUpvals    int
	// Once functions clear each free variable after loading it.
	Once bool
}

// NewFunction returns a function without methods.
func NewFunction(name string) *Function {
	return &Function{Name: name, Methods: make(map[int]*Method)}
}

func (*Function) Type() lisp.Type { return lisp.TFunction }

func (fn *Function) String() string { return fmt.Sprintf("#<Fn %s>", fn.Name) }

// FunInfo describes fn to profilers.
func (fn *Function) FunInfo() *lisp.FunInfo {
	return &lisp.FunInfo{Package: fn.NS, Name: fn.Name, Doc: fn.Doc, Source: fn.Source}
}

// AddMethod adds an arity to fn.
func (fn *Function) AddMethod(rest bool, reqArgs int) (*Method, error) {
	m := &Method{Fn: fn, ReqArgs: reqArgs, Rest: rest}
	if rest {
		if fn.RestMethod != nil {
			return nil, fmt.Errorf("FN cannot have multiple rest methods")
		}
		fn.RestMethod = m
		return m, nil
	}
	if _, ok := fn.Methods[reqArgs]; ok {
		return nil, fmt.Errorf("ambiguous FN method with %d parameters", reqArgs)
	}
	fn.Methods[reqArgs] = m
	return m, nil
}

// GetMethod selects the method for a call with nArgs arguments, or nil.
func (fn *Function) GetMethod(nArgs int) *Method {
	if m, ok := fn.Methods[nArgs]; ok {
		return m
	}
	if fn.RestMethod != nil && nArgs >= fn.RestMethod.ReqArgs {
		return fn.RestMethod
	}
	return nil
}

// AllMethods returns the methods of fn ordered by arity, the rest method
// last.
func (fn *Function) AllMethods() []*Method {
	ms := make([]*Method, 0, len(fn.Methods)+1)
	for _, m := range fn.Methods {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].ReqArgs < ms[j].ReqArgs })
	if fn.RestMethod != nil {
		ms = append(ms, fn.RestMethod)
	}
	return ms
}

// AddConstant returns the pool index of v, appending it when it is not
// already present.  Numbers are shared when they have the same numeric type
// and value, other values when they are identical.
func (fn *Function) AddConstant(v lisp.Value) (int, error) {
	for i, c := range fn.Consts {
		if sameConstant(c, v) {
			return i, nil
		}
	}
	if len(fn.Consts) > MaxBytecodeAddress {
		return 0, fmt.Errorf("function %s has too many constants", fn.Name)
	}
	fn.Consts = append(fn.Consts, v)
	return len(fn.Consts) - 1, nil
}

func sameConstant(a, b lisp.Value) bool {
	if lisp.IsNumber(a) {
		return lisp.IsNumber(b) && a.Type() == b.Type() && lisp.Equal(a, b)
	}
	return a == b
}
