// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
)

type specialForm func(c *Compiler, form *lisp.List, args []lisp.Value, ctx context) error

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote":      (*Compiler).emitQuote,
		"do":         (*Compiler).emitDo,
		"if":         (*Compiler).emitIf,
		"fn":         (*Compiler).emitFn,
		"def":        (*Compiler).emitDef,
		"let":        (*Compiler).emitLet,
		"let*":       (*Compiler).emitLet,
		"letfn":      (*Compiler).emitLetfn,
		"loop":       (*Compiler).emitLoop,
		"recur":      (*Compiler).emitRecur,
		"var":        (*Compiler).emitVar,
		"apply":      (*Compiler).emitApply,
		"throw":      (*Compiler).emitThrow,
		"try":        (*Compiler).emitTry,
		"set!":       (*Compiler).emitSetBang,
		"quasiquote": (*Compiler).emitQuasiquote,
	}
}

// IsSpecial returns true if name is compiled as a special form.  The clause
// keywords of try and the & of parameter vectors are reserved as well.
func IsSpecial(sym *lisp.Symbol) bool {
	if sym.HasNS() {
		return false
	}
	if _, ok := specialForms[sym.Name]; ok {
		return true
	}
	switch sym.Name {
	case "catch", "finally", "&":
		return true
	}
	return false
}

func isSym(v lisp.Value, name string) bool {
	sym, ok := v.(*lisp.Symbol)
	return ok && !sym.HasNS() && sym.Name == name
}

func (c *Compiler) emitQuote(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) != 1 {
		return compileErr(form, "QUOTE wants 1 arg")
	}
	switch x := args[0].(type) {
	case lisp.Bool:
		return c.emit(x, ctx)
	}
	if lisp.IsNil(args[0]) {
		c.emitOp(bytecode.OpLoadNil)
		return nil
	}
	return c.emitConst(args[0], form)
}

func (c *Compiler) emitDo(form *lisp.List, args []lisp.Value, ctx context) error {
	return c.emitBody(args, ctx)
}

func (c *Compiler) emitIf(form *lisp.List, args []lisp.Value, ctx context) error {
	switch {
	case len(args) == 0:
		return compileErr(form, "IF missing test form")
	case len(args) == 1:
		return compileErr(form, "IF missing then form")
	case len(args) > 3:
		return compileErr(form, "IF wants 3 args max")
	}
	if err := c.emit(args[0], ctxExpression); err != nil {
		return err
	}
	m := c.method()
	elseJump := m.EmitJump(bytecode.OpJumpIfFalse)
	if err := c.emit(args[1], ctx); err != nil {
		return err
	}
	endJump := m.EmitJump(bytecode.OpJump)
	m.Patch(elseJump)
	if len(args) == 3 {
		if err := c.emit(args[2], ctx); err != nil {
			return err
		}
	} else {
		c.emitOp(bytecode.OpLoadNil)
	}
	m.Patch(endJump)
	return nil
}

func (c *Compiler) emitFn(form *lisp.List, args []lisp.Value, ctx context) error {
	once := false
	if sym, ok := form.First().(*lisp.Symbol); ok && sym.Meta() != nil {
		if v, ok := sym.Meta().Get(lisp.KwOnce); ok {
			once = lisp.Truthy(v)
		}
	}
	fn, free, err := c.compileFn(form, args, once, ctx)
	if err != nil {
		return err
	}
	return c.emitClosure(fn, free, form)
}

// emitClosure loads fn in the current function, wrapping it in a closure
// when it has free variables.
func (c *Compiler) emitClosure(fn *bytecode.Function, free []bytecode.Capture, form lisp.Value) error {
	if err := c.emitConst(fn, form); err != nil {
		return err
	}
	if len(free) == 0 {
		return nil
	}
	operands := []byte{byte(len(free))}
	for _, fv := range free {
		isLocal := byte(0)
		if fv.IsLocal {
			isLocal = 1
		}
		operands = append(operands, isLocal, byte(fv.Index))
	}
	c.emitOp(bytecode.OpNewClosure, operands...)
	return nil
}

// compileFn compiles (fn name? [params] body*) or (fn name? ([params]
// body*)+) given the forms following fn.  It returns the function and the
// captures its closure needs.
func (c *Compiler) compileFn(form lisp.Value, args []lisp.Value, once bool, ctx context) (*bytecode.Function, []bytecode.Capture, error) {
	doc, defName := c.doc, c.defName
	c.doc, c.defName = "", ""
	var name *lisp.Symbol
	named := false
	if len(args) > 0 {
		if sym, ok := args[0].(*lisp.Symbol); ok {
			if sym.HasNS() {
				return nil, nil, compileErr(form, "FN name cannot be ns-qualified")
			}
			name, named = sym, true
			args = args[1:]
		}
	}
	switch {
	case named:
	case defName != "":
		name = lisp.Sym(defName)
	default:
		name = c.rt.GenSym("fn")
	}
	if len(args) == 0 {
		return nil, nil, compileErr(form, "FN wants a vector of parameters or an overloaded method, got: nil")
	}
	var methods [][]lisp.Value
	if _, ok := args[0].(*lisp.Vector); ok {
		methods = append(methods, args)
	} else {
		for _, arg := range args {
			l, ok := arg.(*lisp.List)
			if !ok || l.Empty() {
				return nil, nil, compileErr(form, "FN wants a vector of parameters or an overloaded method, got: %s", lisp.PrStr(arg))
			}
			methods = append(methods, l.Slice())
		}
	}

	defer c.enterFn(name.Name, once)()
	ir := c.fn
	ir.fn.Doc = doc
	ir.fn.Source = lisp.SourceOf(form)
	for _, m := range methods {
		if err := c.emitMethod(form, m, name, named); err != nil {
			return nil, nil, err
		}
	}
	ir.fn.NUpvals = len(ir.free)
	return ir.fn, ir.free, nil
}

func (c *Compiler) emitMethod(form lisp.Value, m []lisp.Value, name *lisp.Symbol, named bool) error {
	params, ok := m[0].(*lisp.Vector)
	if !ok {
		return compileErr(form, "FN wants a vector of parameters, got: %s", lisp.PrStr(m[0]))
	}
	const (
		stateReq = iota
		stateRest
		stateDone
	)
	state := stateReq
	reqArgs := 0
	rest := false
	var syms []*lisp.Symbol
	var last *lisp.Symbol
	for _, p := range params.Items() {
		sym, ok := p.(*lisp.Symbol)
		if !ok {
			return compileErr(form, "FN wants a symbol in parameter vector, got: %s", lisp.PrStr(p))
		}
		last = sym
		if isSym(sym, "&") {
			if state != stateReq {
				return compileErr(form, "extra & found in FN parameter vector")
			}
			state = stateRest
			continue
		}
		if sym.HasNS() {
			return compileErr(form, "FN parameter cannot be ns-qualified, got: %s", sym)
		}
		switch state {
		case stateReq:
			reqArgs++
		case stateRest:
			rest = true
			state = stateDone
		case stateDone:
			return compileErr(form, "unexpected FN parameter: %s", sym)
		}
		syms = append(syms, sym)
	}
	if last != nil && isSym(last, "&") {
		return compileErr(form, "FN missing parameter after the &")
	}
	method, err := c.fn.fn.AddMethod(rest, reqArgs)
	if err != nil {
		return compileErr(form, "%v", err)
	}
	c.fn.method = method
	c.fn.depth = 0
	defer c.enterBlock()()
	if named {
		c.registerLocal(name)
	} else {
		method.NextLocal()
	}
	slots := make([]int, len(syms))
	for i, sym := range syms {
		slots[i] = c.registerLocal(sym)
	}
	if name != c.thunk {
		defer c.enterRecur(&recurTarget{
			kind:    recurFn,
			addr:    method.Addr(),
			reqArgs: reqArgs,
			rest:    rest,
			slots:   slots,
		})()
	}
	if err := c.emitBody(m[1:], ctxTail); err != nil {
		return err
	}
	c.emitOp(bytecode.OpReturn)
	return wrap(method.CheckSize(), form)
}

// bindings checks the binding vector of a let-like form and returns its
// items.
func bindings(form *lisp.List, args []lisp.Value, op string) ([]lisp.Value, error) {
	if len(args) == 0 {
		return nil, compileErr(form, "%s wants a vector as first arg", op)
	}
	v, ok := args[0].(*lisp.Vector)
	if !ok {
		return nil, compileErr(form, "%s wants a vector as first arg", op)
	}
	items := v.Items()
	if len(items)%2 != 0 {
		return nil, compileErr(form, "%s vector missing final value", op)
	}
	for i := 0; i < len(items); i += 2 {
		sym, ok := items[i].(*lisp.Symbol)
		if !ok {
			return nil, compileErr(form, "%s wants a symbol in binding vector, got: %s", op, lisp.PrStr(items[i]))
		}
		if sym.HasNS() {
			return nil, compileErr(form, "%s binding symbols cannot be ns-qualified, got: %s", op, sym)
		}
	}
	return items, nil
}

// emitBindings evaluates each init and stores it in a new local which is
// visible to the following inits.
func (c *Compiler) emitBindings(items []lisp.Value) ([]int, error) {
	var slots []int
	for i := 0; i < len(items); i += 2 {
		if err := c.emit(items[i+1], ctxExpression); err != nil {
			return nil, err
		}
		sym := items[i].(*lisp.Symbol)
		slot := c.registerLocal(sym)
		if err := c.emitFamily(bytecode.StoreLocal, slot, sym); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (c *Compiler) emitLet(form *lisp.List, args []lisp.Value, ctx context) error {
	items, err := bindings(form, args, "LET")
	if err != nil {
		return err
	}
	defer c.enterBlock()()
	if _, err := c.emitBindings(items); err != nil {
		return err
	}
	return c.emitBody(args[1:], ctx)
}

func (c *Compiler) emitLoop(form *lisp.List, args []lisp.Value, ctx context) error {
	items, err := bindings(form, args, "LOOP")
	if err != nil {
		return err
	}
	defer c.enterBlock()()
	base := c.fn.method.NLocals
	slots, err := c.emitBindings(items)
	if err != nil {
		return err
	}
	defer c.enterRecur(&recurTarget{
		kind:    recurLoop,
		addr:    c.method().Addr(),
		reqArgs: len(slots),
		slots:   slots,
		base:    base,
	})()
	return c.emitBody(args[1:], ctxTail)
}

// letfnBinding is one function bound by letfn.
type letfnBinding struct {
	name *lisp.Symbol
	def  *lisp.List
	args []lisp.Value
}

// letfnBindings accepts bindings written as (name [params] body*) and as a
// name followed by (name? [params] body*).
func letfnBindings(form *lisp.List, items []lisp.Value) ([]letfnBinding, error) {
	var out []letfnBinding
	for i := 0; i < len(items); i++ {
		switch x := items[i].(type) {
		case *lisp.List:
			args := x.Slice()
			var sym *lisp.Symbol
			if len(args) >= 2 {
				sym, _ = args[0].(*lisp.Symbol)
			}
			if sym == nil || sym.HasNS() {
				return nil, compileErr(form, "LETFN binding must have the form: (name [<param>* <& param>?] <body>*), got: %s", lisp.PrStr(x))
			}
			out = append(out, letfnBinding{name: sym, def: x, args: args})
		case *lisp.Symbol:
			if x.HasNS() {
				return nil, compileErr(form, "LETFN wants a symbol in bindings, got: %s", x)
			}
			if i+1 == len(items) {
				return nil, compileErr(form, "LETFN vector missing final value")
			}
			i++
			def, ok := items[i].(*lisp.List)
			if !ok || def.Empty() {
				return nil, compileErr(form, "LETFN binding value must have the form: (name? [<param>* <& param>?] <body>?), got: %s", lisp.PrStr(items[i]))
			}
			args := def.Slice()
			if _, named := args[0].(*lisp.Symbol); !named {
				args = append([]lisp.Value{x}, args...)
			}
			out = append(out, letfnBinding{name: x, def: def, args: args})
		default:
			return nil, compileErr(form, "LETFN wants a symbol in bindings, got: %s", lisp.PrStr(x))
		}
	}
	return out, nil
}

func (c *Compiler) emitLetfn(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) == 0 {
		return compileErr(form, "LETFN wants a vector as first arg")
	}
	v, ok := args[0].(*lisp.Vector)
	if !ok {
		return compileErr(form, "LETFN wants a vector as first arg")
	}
	binds, err := letfnBindings(form, v.Items())
	if err != nil {
		return err
	}
	defer c.enterBlock()()
	slots := make([]int, len(binds))
	for i, b := range binds {
		slots[i] = c.registerLocal(b.name)
	}
	for i, b := range binds {
		fn, free, err := c.compileFn(b.def, b.args, false, ctxExpression)
		if err != nil {
			return err
		}
		if err := c.emitClosure(fn, free, b.def); err != nil {
			return err
		}
		if err := c.emitFamily(bytecode.StoreLocal, slots[i], b.def); err != nil {
			return err
		}
	}
	return c.emitBody(args[1:], ctx)
}

func (c *Compiler) emitRecur(form *lisp.List, args []lisp.Value, ctx context) error {
	t := c.recurTarget()
	if t == nil {
		return compileErr(form, "RECUR has no valid target (FN or LOOP) in scope")
	}
	if ctx != ctxTail {
		return compileErr(form, "RECUR not in tail position")
	}
	n := len(args)
	if t.kind == recurLoop {
		if n != t.reqArgs {
			return compileErr(form, "RECUR target (a LOOP) wants %d args", t.reqArgs)
		}
		restore := c.restoreDepth()
		for _, arg := range args {
			if err := c.emit(arg, ctxExpression); err != nil {
				return err
			}
			c.fn.depth++
		}
		restore()
		c.method().EmitU16(bytecode.OpCloseUpvals, t.base)
		for i := n - 1; i >= 0; i-- {
			if err := c.emitFamily(bytecode.StoreLocal, t.slots[i], form); err != nil {
				return err
			}
		}
		c.method().EmitU16(bytecode.OpJump, t.addr)
		return nil
	}

	name := c.fn.fn.Name
	switch {
	case n < t.reqArgs && t.rest:
		return compileErr(form, "RECUR target %s wants at least (%d) arg(s)", name, t.reqArgs)
	case n < t.reqArgs, n > t.reqArgs && !t.rest:
		return compileErr(form, "RECUR target %s wants (%d) arg(s)", name, t.reqArgs)
	case n > t.reqArgs+1:
		return compileErr(form, "RECUR target %s wants (%d or %d) arg(s)", name, t.reqArgs, t.reqArgs+1)
	}
	// The rest parameter is rebound to the extra argument itself, not to a
	// list holding it.
	slots := t.slots[:t.reqArgs]
	if t.rest {
		slots = t.slots[:t.reqArgs+1]
	}
	restore := c.restoreDepth()
	for i := range slots {
		if i < n {
			if err := c.emit(args[i], ctxExpression); err != nil {
				return err
			}
		} else {
			c.emitOp(bytecode.OpLoadNil)
		}
		c.fn.depth++
	}
	restore()
	c.method().EmitU16(bytecode.OpCloseUpvals, t.base)
	for i := len(slots) - 1; i >= 0; i-- {
		if err := c.emitFamily(bytecode.StoreLocal, slots[i], form); err != nil {
			return err
		}
	}
	c.method().EmitU16(bytecode.OpJump, t.addr)
	return nil
}

func (c *Compiler) emitDef(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) != 1 && len(args) != 2 {
		return compileErr(form, "DEF wants 1 or 2 args")
	}
	sym, ok := args[0].(*lisp.Symbol)
	if !ok {
		return compileErr(form, "DEF wants a symbol as first arg, got: %s", lisp.PrStr(args[0]))
	}
	v, err := c.internVar(form, sym)
	if err != nil {
		return err
	}
	defer c.restoreDepth()()
	if err := c.emitConst(v, form); err != nil {
		return err
	}
	c.fn.depth++
	meta := sym.Meta()
	if meta != nil && meta.Len() > 0 {
		if err := c.emit(meta, ctxExpression); err != nil {
			return err
		}
		c.emitOp(bytecode.OpSetMeta)
	}
	if len(args) == 1 {
		c.emitOp(bytecode.OpLoadNil)
	} else {
		if init, ok := args[1].(*lisp.List); ok && !init.Empty() && isSym(init.First(), "fn") {
			c.defName = sym.Name
			if meta != nil {
				if doc, ok := meta.Get(lisp.KwDoc); ok {
					c.doc = lisp.Str(doc)
				}
			}
		}
		if err := c.emit(args[1], ctxExpression); err != nil {
			return err
		}
	}
	c.emitOp(bytecode.OpDef)
	return nil
}

// internVar returns the var def binds.  Qualified names must refer to an
// existing var of the current namespace.
func (c *Compiler) internVar(form *lisp.List, sym *lisp.Symbol) (*lisp.Var, error) {
	ns := c.rt.NS
	if sym.HasNS() {
		other := ns.LookupAlias(sym.NS)
		if other != nil && other != ns {
			return nil, compileErr(form, "DEF cannot intern into another namespace")
		}
		v, _ := ns.FindInterned(sym).(*lisp.Var)
		if other == nil || v == nil || v.Namespace() != ns {
			return nil, compileErr(form, "DEF cannot refer to a qualified var that does not exist")
		}
		return v, nil
	}
	v, err := ns.Intern(sym)
	if err != nil {
		return nil, compileErr(form, "%s", lisp.AsError(err).Message)
	}
	return v, nil
}

func (c *Compiler) emitSetBang(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) != 2 {
		return compileErr(form, "SET! wants 2 args, a symbol and a value")
	}
	sym, ok := args[0].(*lisp.Symbol)
	if !ok {
		return compileErr(form, "SET! wants a symbol as first arg, got: %s", lisp.PrStr(args[0]))
	}
	index, free, ok, err := c.resolveLocal(sym)
	if err != nil {
		return wrap(err, form)
	}
	if ok {
		if err := c.emit(args[1], ctxExpression); err != nil {
			return err
		}
		c.emitOp(bytecode.OpDup)
		if free {
			return c.emitFamily(bytecode.StoreFree, index, form)
		}
		return c.emitFamily(bytecode.StoreLocal, index, form)
	}
	val, err := c.resolve(sym)
	if err != nil {
		return err
	}
	v, isVar := val.(*lisp.Var)
	if !isVar {
		return compileErr(form, "cannot rebind constant: %s", sym)
	}
	if err := c.emit(args[1], ctxExpression); err != nil {
		return err
	}
	if err := c.emitConst(v, form); err != nil {
		return err
	}
	c.emitOp(bytecode.OpVarSet)
	return nil
}

func (c *Compiler) emitVar(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) != 1 {
		return compileErr(form, "VAR wants 1 arg")
	}
	sym, ok := args[0].(*lisp.Symbol)
	if !ok {
		return compileErr(form, "VAR wants a symbol, got: %s", lisp.PrStr(args[0]))
	}
	v, err := c.lookupVar(sym)
	if err != nil {
		return err
	}
	if v == nil {
		return compileErr(form, "unable to resolve var: %s in this scope", sym)
	}
	return c.emitConst(v, form)
}

func (c *Compiler) emitApply(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) < 2 {
		return compileErr(form, "APPLY wants at least 2 args")
	}
	if len(args) > 0x100 {
		return compileErr(form, "APPLY wants at most 255 args")
	}
	defer c.restoreDepth()()
	for _, arg := range args {
		if err := c.emit(arg, ctxExpression); err != nil {
			return err
		}
		c.fn.depth++
	}
	c.emitOp(bytecode.OpApply, byte(len(args)-1))
	return nil
}

func (c *Compiler) emitThrow(form *lisp.List, args []lisp.Value, ctx context) error {
	switch len(args) {
	case 0:
		if err := c.emitConst(lisp.ErrorRoot, form); err != nil {
			return err
		}
	case 1:
		if err := c.emit(args[0], ctxExpression); err != nil {
			return err
		}
	default:
		return compileErr(form, "THROW wants 1 arg")
	}
	c.emitOp(bytecode.OpThrow)
	return nil
}

func (c *Compiler) emitQuasiquote(form *lisp.List, args []lisp.Value, ctx context) error {
	if len(args) != 1 {
		return compileErr(form, "QUASIQUOTE wants 1 arg")
	}
	x, err := c.syntaxQuote(args[0], map[string]*lisp.Symbol{})
	if err != nil {
		return err
	}
	return c.emit(x, ctx)
}
