// Copyright © 2018 The ELPS authors

package compiler

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/bytecode"
)

type catchClause struct {
	form *lisp.List
	kind *lisp.ErrorKind
	sym  *lisp.Symbol
	body []lisp.Value
}

// parseTry splits the forms of a try into the protected body, the catch
// clauses and the finally body.
func (c *Compiler) parseTry(form *lisp.List, args []lisp.Value) (body []lisp.Value, catches []*catchClause, finally []lisp.Value, err error) {
	hasFinally := false
	for i, arg := range args {
		clause, _ := arg.(*lisp.List)
		var head lisp.Value
		if clause != nil && !clause.Empty() {
			head = clause.First()
		}
		switch {
		case isSym(head, "catch"):
			cc, err := c.parseCatch(clause)
			if err != nil {
				return nil, nil, nil, err
			}
			catches = append(catches, cc)
		case isSym(head, "finally"):
			if i+1 < len(args) {
				return nil, nil, nil, compileErr(form, "FINALLY must occur once, at the tail of its enclosing TRY")
			}
			hasFinally = true
			finally = clause.Slice()[1:]
		default:
			if len(catches) > 0 {
				return nil, nil, nil, compileErr(form, "only CATCH and FINALLY may follow a CATCH in a TRY form")
			}
			body = append(body, arg)
		}
	}
	if hasFinally && finally == nil {
		finally = []lisp.Value{}
	}
	return body, catches, finally, nil
}

func (c *Compiler) parseCatch(clause *lisp.List) (*catchClause, error) {
	items := clause.Slice()
	if len(items) < 3 {
		return nil, compileErr(clause, "CATCH wants two symbols, minimum")
	}
	kindSym, ok := items[1].(*lisp.Symbol)
	if !ok {
		return nil, compileErr(clause, "CATCH wants a symbol as first arg, got: %s", lisp.PrStr(items[1]))
	}
	val, err := c.resolve(kindSym)
	if err != nil {
		return nil, err
	}
	kind, ok := val.(*lisp.ErrorKind)
	if !ok {
		return nil, compileErr(clause, "CATCH wants an SxError or subclass-of as first arg, got type: %s", lisp.TypeName(val))
	}
	sym, ok := items[2].(*lisp.Symbol)
	if !ok {
		return nil, compileErr(clause, "CATCH wants a symbol as second arg, got: %s", lisp.PrStr(items[2]))
	}
	if sym.HasNS() {
		return nil, compileErr(clause, "CATCH second symbol cannot be ns-qualified, got: %s", sym)
	}
	return &catchClause{form: clause, kind: kind, sym: sym, body: items[3:]}, nil
}

// emitTry lays out a try form as
//
//	protected body
//	finally body, popped          (with finally)
//	JUMP end                      (with catch or finally)
//	catch: STORE e; catch body; finally body, popped; JUMP end
//	...
//	any:   STORE x; finally body, popped; LOAD x; RETHROW (with finally)
//	end:
//
// The catch rows of the handler table cover the protected body.  The row of
// the finally handler covers the protected body and every catch body.
func (c *Compiler) emitTry(form *lisp.List, args []lisp.Value, ctx context) error {
	body, catches, finally, err := c.parseTry(form, args)
	if err != nil {
		return err
	}
	hasFinally := finally != nil
	bodyCtx := ctx
	if hasFinally && ctx == ctxTail {
		// A recur would skip the finally code.
		bodyCtx = ctxExpression
	}

	m := c.method()
	depth := c.fn.depth
	start := m.Addr()
	if err := c.emitBody(body, bodyCtx); err != nil {
		return err
	}
	end := m.Addr()
	if hasFinally {
		if err := c.emitFinally(finally); err != nil {
			return err
		}
	}
	if len(catches) == 0 && !hasFinally {
		return nil
	}
	var exits []int
	exits = append(exits, m.EmitJump(bytecode.OpJump))

	type span struct{ start, end int }
	var catchSpans []span
	for i, cc := range catches {
		addr, err := c.emitCatch(cc, bodyCtx)
		if err != nil {
			return err
		}
		catchSpans = append(catchSpans, span{addr, m.Addr()})
		if hasFinally {
			if err := c.emitFinally(finally); err != nil {
				return err
			}
		}
		if hasFinally || i+1 < len(catches) {
			exits = append(exits, m.EmitJump(bytecode.OpJump))
		}
		m.AddHandlerDepth(start, end, addr, depth, cc.kind)
	}

	if hasFinally {
		addr, err := c.emitRethrow(form, finally)
		if err != nil {
			return err
		}
		m.AddHandlerDepth(start, end, addr, depth, lisp.AnyError)
		for _, s := range catchSpans {
			m.AddHandlerDepth(s.start, s.end, addr, depth, lisp.AnyError)
		}
	}
	for _, exit := range exits {
		m.Patch(exit)
	}
	return nil
}

// emitCatch compiles a catch body which starts with the error on the stack.
// It returns the handler address.
func (c *Compiler) emitCatch(cc *catchClause, ctx context) (int, error) {
	defer c.enterBlock()()
	addr := c.method().Addr()
	slot := c.registerLocal(cc.sym)
	if err := c.emitFamily(bytecode.StoreLocal, slot, cc.form); err != nil {
		return 0, err
	}
	return addr, c.emitBody(cc.body, ctx)
}

// emitRethrow compiles the handler which runs the finally body for errors
// no catch clause handled.  It returns the handler address.
func (c *Compiler) emitRethrow(form *lisp.List, finally []lisp.Value) (int, error) {
	defer c.enterBlock()()
	slot := c.registerLocal(c.rt.GenSym("SxAny"))
	addr := c.method().Addr()
	if err := c.emitFamily(bytecode.StoreLocal, slot, form); err != nil {
		return 0, err
	}
	if err := c.emitFinally(finally); err != nil {
		return 0, err
	}
	if err := c.emitFamily(bytecode.LoadLocal, slot, form); err != nil {
		return 0, err
	}
	c.emitOp(bytecode.OpRethrow)
	return addr, nil
}

func (c *Compiler) emitFinally(body []lisp.Value) error {
	if err := c.emitBody(body, ctxStatement); err != nil {
		return err
	}
	c.emitOp(bytecode.OpPop)
	return nil
}
