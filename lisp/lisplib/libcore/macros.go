// Copyright © 2018 The ELPS authors

package libcore

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

var (
	symDo       = lisp.Sym("do")
	symIf       = lisp.Sym("if")
	symFn       = lisp.Sym("fn")
	symDef      = lisp.Sym("def")
	symLet      = lisp.Sym("let")
	symLoop     = lisp.Sym("loop")
	symRecur    = lisp.Sym("recur")
	symVar      = lisp.Sym("var")
	symTry      = lisp.Sym("try")
	symFinally  = lisp.Sym("finally")
	symLess     = lisp.QualifiedSym(lisp.CoreNamespace, "<")
	symInc      = lisp.QualifiedSym(lisp.CoreNamespace, "inc")
	symLazySeq  = lisp.QualifiedSym(lisp.CoreNamespace, "make-lazy-seq")
	symPushBind = lisp.QualifiedSym(lisp.CoreNamespace, "push-bindings")
	symPopBind  = lisp.QualifiedSym(lisp.CoreNamespace, "pop-bindings")
	symHashMap  = lisp.QualifiedSym(lisp.CoreNamespace, "hash-map")
)

var macros = []*libutil.Builtin{
	libutil.Macro("defn", 2, libutil.VarArgs, macroDefn,
		`Defines a named function in the current namespace.  An optional
		docstring and attribute map may precede the parameters.`),
	libutil.Macro("defn-", 2, libutil.VarArgs, macroDefnPrivate,
		`Like defn but the var is private to the current namespace.`),
	libutil.Macro("defmacro", 2, libutil.VarArgs, macroDefmacro,
		`Defines a macro.  The macro function receives its argument forms
		unevaluated and returns the form which replaces the call.`),
	libutil.Macro("when", 1, libutil.VarArgs, macroWhen,
		`Evaluates body when test is truthy.  Otherwise returns nil.`),
	libutil.Macro("when-not", 1, libutil.VarArgs, macroWhenNot,
		`Evaluates body when test is falsey.  Otherwise returns nil.`),
	libutil.Macro("cond", 0, libutil.VarArgs, macroCond,
		`Takes test/expression pairs and evaluates the expression of the
		first truthy test.  Returns nil when no test passes.`),
	libutil.Macro("and", 0, libutil.VarArgs, macroAnd,
		`Evaluates forms left to right, returning the first falsey value
		or the last value.`),
	libutil.Macro("or", 0, libutil.VarArgs, macroOr,
		`Evaluates forms left to right, returning the first truthy value
		or the last value.`),
	libutil.Macro("->", 1, libutil.VarArgs, macroThreadFirst,
		`Threads x through forms as their first argument.`),
	libutil.Macro("->>", 1, libutil.VarArgs, macroThreadLast,
		`Threads x through forms as their last argument.`),
	libutil.Macro("if-let", 2, 3, macroIfLet,
		`Binds the value of expr to sym and evaluates then when it is
		truthy, else evaluates else.`),
	libutil.Macro("when-let", 1, libutil.VarArgs, macroWhenLet,
		`Binds the value of expr to sym and evaluates body when it is
		truthy.`),
	libutil.Macro("dotimes", 1, libutil.VarArgs, macroDotimes,
		`Evaluates body with sym bound to each integer from 0 to n-1.`),
	libutil.Macro("binding", 1, libutil.VarArgs, macroBinding,
		`Evaluates body with dynamic vars bound to new values.  The
		bindings are removed when body exits, even with an error.`),
	libutil.Macro("lazy-seq", 0, libutil.VarArgs, macroLazySeq,
		`Returns a lazy sequence which evaluates body the first time it is
		used.`),
	libutil.Macro("declare", 0, libutil.VarArgs, macroDeclare,
		`Interns unbound vars in the current namespace so that they may be
		referenced before they are defined.`),
	libutil.Macro("defonce", 2, 2, macroDefonce,
		`Defines name unless it is already defined in the current
		namespace.`),
	libutil.Macro("comment", 0, libutil.VarArgs, macroComment,
		`Ignores its body and returns nil.`),
}

func list(vals ...lisp.Value) *lisp.List { return lisp.NewList(vals...) }

func bodyForm(body []lisp.Value) lisp.Value {
	if len(body) == 1 {
		return body[0]
	}
	return lisp.NewList(append([]lisp.Value{symDo}, body...)...)
}

// defnParts splits (defn name doc? attrs? fn-tail...) into a name carrying
// the var metadata and the tail of the fn form.
func defnParts(op string, args []lisp.Value, extra ...lisp.Value) (*lisp.Symbol, []lisp.Value, error) {
	name, err := libutil.Symbol(op, args[0])
	if err != nil {
		return nil, nil, err
	}
	meta := name.Meta()
	if meta == nil {
		meta = lisp.EmptyMap
	}
	tail := args[1:]
	if doc, ok := tail[0].(lisp.String); ok && len(tail) > 1 {
		meta = meta.Assoc(lisp.KwDoc, doc)
		tail = tail[1:]
	}
	if attrs, ok := tail[0].(*lisp.Map); ok && len(tail) > 1 {
		for _, e := range attrs.Entries() {
			meta = meta.Assoc(e.Key, e.Val)
		}
		tail = tail[1:]
	}
	for i := 0; i+1 < len(extra); i += 2 {
		meta = meta.Assoc(extra[i], extra[i+1])
	}
	fnName := lisp.Sym(name.Name)
	if meta.Len() > 0 {
		name = name.WithMeta(meta).(*lisp.Symbol)
	}
	return name, append([]lisp.Value{fnName}, tail...), nil
}

func defn(op string, args []lisp.Value, extra ...lisp.Value) (lisp.Value, error) {
	name, tail, err := defnParts(op, args, extra...)
	if err != nil {
		return nil, err
	}
	fn := lisp.NewList(append([]lisp.Value{symFn}, tail...)...).WithSource(lisp.SourceOf(args[0]))
	return list(symDef, name, fn), nil
}

func macroDefn(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return defn("defn", args)
}

func macroDefnPrivate(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return defn("defn-", args, lisp.KwPrivate, lisp.True)
}

func macroDefmacro(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return defn("defmacro", args, lisp.KwMacro, lisp.True)
}

func macroWhen(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return list(symIf, args[0], bodyForm(args[1:])), nil
}

func macroWhenNot(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return list(symIf, args[0], lisp.Nil, bodyForm(args[1:])), nil
}

func macroCond(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args)%2 != 0 {
		return nil, lisp.Errorf(lisp.IllegalArgumentError, "cond requires an even number of forms")
	}
	var form lisp.Value = lisp.Nil
	for i := len(args) - 2; i >= 0; i -= 2 {
		form = list(symIf, args[i], args[i+1], form)
	}
	return form, nil
}

func macroAnd(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch len(args) {
	case 0:
		return lisp.True, nil
	case 1:
		return args[0], nil
	}
	g := c.Runtime().GenSym("and")
	rest := lisp.NewList(append([]lisp.Value{lisp.QualifiedSym(lisp.CoreNamespace, "and")}, args[1:]...)...)
	return list(symLet, lisp.VectorOf(g, args[0]), list(symIf, g, rest, g)), nil
}

func macroOr(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch len(args) {
	case 0:
		return lisp.Nil, nil
	case 1:
		return args[0], nil
	}
	g := c.Runtime().GenSym("or")
	rest := lisp.NewList(append([]lisp.Value{lisp.QualifiedSym(lisp.CoreNamespace, "or")}, args[1:]...)...)
	return list(symLet, lisp.VectorOf(g, args[0]), list(symIf, g, g, rest)), nil
}

func thread(args []lisp.Value, last bool) lisp.Value {
	x := args[0]
	for _, form := range args[1:] {
		l, ok := form.(*lisp.List)
		if !ok || l.Empty() {
			x = list(form, x)
			continue
		}
		items := l.Slice()
		if last {
			x = lisp.NewList(append(items, x)...)
		} else {
			x = lisp.NewList(append([]lisp.Value{items[0], x}, items[1:]...)...)
		}
	}
	return x
}

func macroThreadFirst(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return thread(args, false), nil
}

func macroThreadLast(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return thread(args, true), nil
}

// binding1 checks the [sym expr] vector of if-let and friends.
func binding1(op string, v lisp.Value) (*lisp.Symbol, lisp.Value, error) {
	vec, ok := v.(*lisp.Vector)
	if !ok || vec.Len() != 2 {
		return nil, nil, lisp.Errorf(lisp.IllegalArgumentError, "%s requires a vector of two forms for its binding", op)
	}
	sym, err := libutil.Symbol(op, vec.Items()[0])
	if err != nil {
		return nil, nil, err
	}
	return sym, vec.Items()[1], nil
}

func macroIfLet(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, expr, err := binding1("if-let", args[0])
	if err != nil {
		return nil, err
	}
	var els lisp.Value = lisp.Nil
	if len(args) == 3 {
		els = args[2]
	}
	g := c.Runtime().GenSym("if-let")
	then := list(symLet, lisp.VectorOf(sym, g), args[1])
	return list(symLet, lisp.VectorOf(g, expr), list(symIf, g, then, els)), nil
}

func macroWhenLet(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, expr, err := binding1("when-let", args[0])
	if err != nil {
		return nil, err
	}
	g := c.Runtime().GenSym("when-let")
	then := lisp.NewList(append([]lisp.Value{symLet, lisp.VectorOf(sym, g)}, args[1:]...)...)
	return list(symLet, lisp.VectorOf(g, expr), list(symIf, g, then, lisp.Nil)), nil
}

func macroDotimes(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, n, err := binding1("dotimes", args[0])
	if err != nil {
		return nil, err
	}
	g := c.Runtime().GenSym("n")
	step := list(symRecur, list(symInc, sym))
	body := lisp.NewList(append(append([]lisp.Value{symDo}, args[1:]...), step)...)
	loop := list(symLoop, lisp.VectorOf(sym, lisp.Int(0)),
		list(symIf, list(symLess, sym, g), body, lisp.Nil))
	return list(symLet, lisp.VectorOf(g, n), loop), nil
}

func macroBinding(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	vec, ok := args[0].(*lisp.Vector)
	if !ok || vec.Len()%2 != 0 {
		return nil, lisp.Errorf(lisp.IllegalArgumentError, "binding requires a vector with an even number of forms")
	}
	pairs := []lisp.Value{symHashMap}
	items := vec.Items()
	for i := 0; i < len(items); i += 2 {
		sym, err := libutil.Symbol("binding", items[i])
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, list(symVar, sym), items[i+1])
	}
	try := append([]lisp.Value{symTry}, args[1:]...)
	try = append(try, list(symFinally, list(symPopBind)))
	return list(symDo, list(symPushBind, lisp.NewList(pairs...)), lisp.NewList(try...)), nil
}

func macroLazySeq(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	fn := lisp.NewList(append([]lisp.Value{symFn, lisp.EmptyVector}, args...)...)
	return list(symLazySeq, fn), nil
}

func macroDeclare(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	ns := c.Runtime().NS
	for _, arg := range args {
		sym, err := libutil.Symbol("declare", arg)
		if err != nil {
			return nil, err
		}
		if _, err := ns.Intern(sym); err != nil {
			return nil, err
		}
	}
	return lisp.Nil, nil
}

func macroDefonce(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, err := libutil.Symbol("defonce", args[0])
	if err != nil {
		return nil, err
	}
	ns := c.Runtime().NS
	if v, ok := ns.FindInterned(sym).(*lisp.Var); ok && v.Namespace() == ns && v.IsBound() {
		return list(symVar, sym), nil
	}
	return list(symDef, sym, args[1]), nil
}

func macroComment(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Nil, nil
}
