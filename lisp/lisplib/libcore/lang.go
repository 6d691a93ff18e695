// Copyright © 2018 The ELPS authors

package libcore

import (
	"errors"
	"io"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/compiler"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
	"github.com/luthersystems/sxp/parser"
)

var langBuiltins = []*libutil.Builtin{
	libutil.FunctionDoc("=", 1, libutil.VarArgs, builtinEqual,
		`Returns true if all arguments are equal.  Collections compare by
		value and numbers of different types are never equal.`),
	libutil.FunctionDoc("not=", 1, libutil.VarArgs, builtinNotEqual,
		`Same as (not (= x y ...)).`),
	libutil.FunctionDoc("identical?", 2, 2, builtinIdentical,
		`Returns true if x and y are the same object.`),
	libutil.FunctionDoc("not", 1, 1, builtinNot,
		`Returns true if x is nil or false.`),
	libutil.FunctionDoc("type", 1, 1, builtinType,
		`Returns a symbol naming the type of x, e.g. SxInteger.`),
	libutil.FunctionDoc("str", 0, libutil.VarArgs, builtinStr,
		`Concatenates the display forms of the arguments.  Nil contributes
		nothing.`),
	libutil.FunctionDoc("name", 1, 1, builtinName,
		`Returns the name of a keyword, symbol or var as a string.`),
	libutil.FunctionDoc("keyword", 1, 2, builtinKeyword,
		`Returns a keyword with the given name and optional namespace.`),
	libutil.FunctionDoc("symbol", 1, 2, builtinSymbol,
		`Returns a symbol with the given name and optional namespace.`),
	libutil.FunctionDoc("gensym", 0, 1, builtinGensym,
		`Returns a new symbol which has not been seen before.`),
	libutil.FunctionDoc("meta", 1, 1, builtinMeta,
		`Returns the metadata map of x, or nil.`),
	libutil.FunctionDoc("with-meta", 2, 2, builtinWithMeta,
		`Returns a copy of x with metadata m.`),
	libutil.FunctionDoc("compile", 1, 1, builtinCompile,
		`Compiles form into a function of no arguments.`),
	libutil.FunctionDoc("eval", 1, 1, builtinEval,
		`Evaluates form in the current namespace.`),
	libutil.FunctionDoc("macroexpand-1", 1, 1, builtinMacroexpand1,
		`Expands form once if it is a macro call.`),
	libutil.FunctionDoc("macroexpand", 1, 1, builtinMacroexpand,
		`Expands form until its head is no longer a macro.`),
	libutil.FunctionDoc("read-string", 1, 1, builtinReadString,
		`Reads the first form of s.`),
	libutil.FunctionDoc("load-string", 1, 1, builtinLoadString,
		`Evaluates every form of s and returns the value of the last.`),
	libutil.FunctionDoc("vm-frame-depth", 0, 0, builtinFrameDepth,
		`Returns the number of active frames of the calling VM.`),
	libutil.FunctionDoc("vm-max-frame-depth", 0, 0, builtinMaxFrameDepth,
		`Returns the frame limit of the runtime.`),

	libutil.FunctionDoc("error", 0, 2, builtinError,
		`Returns an error value.  With one argument it is the message.  With
		two the first is the error kind.`),
	libutil.FunctionDoc("err-msg", 1, 1, builtinErrMsg,
		`Returns the message of an error.`),
	libutil.FunctionDoc("err-kind", 1, 1, builtinErrKind,
		`Returns the kind of an error.`),

	libutil.FunctionDoc("in-ns", 1, 1, builtinInNS,
		`Makes the namespace named by sym current, creating it if needed.`),
	libutil.FunctionDoc("ns-name", 0, 1, builtinNSName,
		`Returns the name of ns as a symbol.  Without arguments returns the
		name of the current namespace.`),
	libutil.FunctionDoc("find-ns", 1, 1, builtinFindNS,
		`Returns the namespace named by sym, or nil.`),
	libutil.FunctionDoc("refer", 1, 1, builtinRefer,
		`Makes the public vars of the named namespace visible in the current
		namespace.`),
	libutil.FunctionDoc("alias", 2, 2, builtinAlias,
		`Makes the namespace named by ns reachable as alias/name.`),
	libutil.FunctionDoc("ns-publics", 1, 1, builtinNSPublics,
		`Returns a map of symbol to var for the public vars of ns.`),

	libutil.FunctionDoc("push-bindings", 1, 1, builtinPushBindings,
		`Establishes dynamic bindings from a map of var to value.`),
	libutil.FunctionDoc("pop-bindings", 0, 0, builtinPopBindings,
		`Removes the bindings of the matching push-bindings.`),
	libutil.FunctionDoc("set-dynamic!", 1, 2, builtinSetDynamic,
		`Marks var v as dynamic, or not dynamic when the second argument is
		false.`),
}

var predicates = []struct {
	name string
	doc  string
	test func(v lisp.Value) bool
}{
	{"nil?", "nil", lisp.IsNil},
	{"some?", "not nil", func(v lisp.Value) bool { return !lisp.IsNil(v) }},
	{"true?", "true", func(v lisp.Value) bool { return v == lisp.True }},
	{"false?", "false", func(v lisp.Value) bool { return v == lisp.False }},
	{"number?", "a number", lisp.IsNumber},
	{"integer?", "an integer", isType(lisp.TInt)},
	{"float?", "a float", isType(lisp.TFloat)},
	{"ratio?", "a ratio", isType(lisp.TRatio)},
	{"string?", "a string", isType(lisp.TString)},
	{"char?", "a character", isType(lisp.TChar)},
	{"keyword?", "a keyword", isType(lisp.TKeyword)},
	{"symbol?", "a symbol", isType(lisp.TSymbol)},
	{"list?", "a list", isType(lisp.TList)},
	{"vector?", "a vector", isType(lisp.TVector)},
	{"map?", "a map", isType(lisp.TMap)},
	{"set?", "a set", isType(lisp.TSet)},
	{"seq?", "a sequence", isType(lisp.TList, lisp.TSeq, lisp.TLazySeq)},
	{"fn?", "a function", lisp.IsFn},
	{"var?", "a var", isType(lisp.TVar)},
	{"error?", "an error", isType(lisp.TError)},
	{"coll?", "a collection", isType(lisp.TList, lisp.TSeq, lisp.TLazySeq, lisp.TVector, lisp.TMap, lisp.TSet)},
}

func isType(types ...lisp.Type) func(v lisp.Value) bool {
	return func(v lisp.Value) bool {
		if v == nil {
			return false
		}
		for _, t := range types {
			if v.Type() == t {
				return true
			}
		}
		return false
	}
}

func predicateBuiltins() []*libutil.Builtin {
	fns := make([]*libutil.Builtin, 0, len(predicates))
	for _, p := range predicates {
		test := p.test
		fns = append(fns, libutil.FunctionDoc(p.name, 1, 1,
			func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
				return lisp.BoolValue(test(args[0])), nil
			},
			"Returns true if x is "+p.doc+"."))
	}
	return fns
}

func builtinEqual(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	for i := 1; i < len(args); i++ {
		if !lisp.Equal(args[0], args[i]) {
			return lisp.False, nil
		}
	}
	return lisp.True, nil
}

func builtinNotEqual(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	eq, _ := builtinEqual(c, args)
	return lisp.BoolValue(eq == lisp.False), nil
}

func builtinIdentical(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.BoolValue(args[0] == args[1]), nil
}

func builtinNot(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.BoolValue(!lisp.Truthy(args[0])), nil
}

func builtinType(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Sym(lisp.TypeName(args[0])), nil
}

func builtinStr(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	var b strings.Builder
	for _, x := range args {
		if err := lisp.Realize(x); err != nil {
			return nil, err
		}
		b.WriteString(lisp.Str(x))
	}
	return lisp.String(b.String()), nil
}

func builtinName(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch x := args[0].(type) {
	case lisp.String:
		return x, nil
	case lisp.Keyword:
		return lisp.String(x.Name), nil
	case *lisp.Symbol:
		return lisp.String(x.Name), nil
	case lisp.Named:
		return lisp.String(x.Name()), nil
	}
	return nil, libutil.TypeError("name", "named value", args[0])
}

// nameParts returns the namespace and name given to keyword or symbol.
func nameParts(fn string, args []lisp.Value) (ns string, name string, err error) {
	if len(args) == 2 {
		if !lisp.IsNil(args[0]) {
			if ns, err = libutil.String(fn, args[0]); err != nil {
				return "", "", err
			}
		}
		name, err = libutil.String(fn, args[1])
		return ns, name, err
	}
	switch x := args[0].(type) {
	case lisp.Keyword:
		return x.NS, x.Name, nil
	case *lisp.Symbol:
		return x.NS, x.Name, nil
	case lisp.String:
		return "", string(x), nil
	}
	return "", "", libutil.TypeError(fn, "string", args[0])
}

func builtinKeyword(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args) == 1 && lisp.IsNil(args[0]) {
		return lisp.Nil, nil
	}
	ns, name, err := nameParts("keyword", args)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 && ns == "" {
		return lisp.Kw(name), nil
	}
	return lisp.Keyword{NS: ns, Name: name}, nil
}

func builtinSymbol(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	ns, name, err := nameParts("symbol", args)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 && ns == "" {
		return lisp.Sym(name), nil
	}
	return lisp.QualifiedSym(ns, name), nil
}

func builtinGensym(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	prefix := ""
	if len(args) > 0 {
		var err error
		if prefix, err = libutil.String("gensym", args[0]); err != nil {
			return nil, err
		}
	}
	return c.Runtime().GenSym(prefix), nil
}

func builtinMeta(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch x := args[0].(type) {
	case *lisp.Var:
		if m := x.Meta(); m != nil {
			return m, nil
		}
	case lisp.Meta:
		if m := x.Meta(); m != nil {
			return m, nil
		}
	}
	return lisp.Nil, nil
}

func builtinWithMeta(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	x, ok := args[0].(lisp.Meta)
	if !ok {
		return nil, libutil.TypeError("with-meta", "value supporting metadata", args[0])
	}
	if lisp.IsNil(args[1]) {
		return x.WithMeta(nil), nil
	}
	m, err := mapArg("with-meta", args[1])
	if err != nil {
		return nil, err
	}
	return x.WithMeta(m), nil
}

func builtinCompile(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	fn, err := compiler.New(c.Runtime()).Compile(args[0])
	if err != nil {
		return nil, err
	}
	return fn, nil
}

func builtinEval(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return compiler.Eval(c.Runtime(), args[0])
}

func builtinMacroexpand1(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return compiler.New(c.Runtime()).ExpandOne(args[0])
}

func builtinMacroexpand(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return compiler.New(c.Runtime()).Expand(args[0])
}

func builtinReadString(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("read-string", args[0])
	if err != nil {
		return nil, err
	}
	dec, err := parser.NewDecoder("<string>", strings.NewReader(s))
	if err != nil {
		return nil, err
	}
	form, err := dec.ReadOne()
	if errors.Is(err, io.EOF) {
		return nil, lisp.Errorf(lisp.ReaderError, "read-string: no form in input")
	}
	return form, err
}

func builtinLoadString(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("load-string", args[0])
	if err != nil {
		return nil, err
	}
	env := &compiler.Env{Runtime: c.Runtime()}
	return env.LoadString("<string>", s)
}

type frameDepther interface {
	FrameDepth() int
}

func builtinFrameDepth(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if d, ok := c.(frameDepther); ok {
		return lisp.Int(d.FrameDepth()), nil
	}
	return lisp.Int(0), nil
}

func builtinMaxFrameDepth(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Int(c.Runtime().MaxFrameDepth), nil
}

func builtinError(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	switch len(args) {
	case 0:
		return lisp.NewError(lisp.ErrorRoot, ""), nil
	case 1:
		return lisp.NewError(lisp.ErrorRoot, lisp.Str(args[0])), nil
	}
	kind, ok := args[0].(*lisp.ErrorKind)
	if !ok {
		return nil, libutil.TypeError("error", "error kind", args[0])
	}
	return lisp.NewError(kind, lisp.Str(args[1])), nil
}

func errArg(fn string, v lisp.Value) (*lisp.Error, error) {
	e, ok := v.(*lisp.Error)
	if !ok {
		return nil, libutil.TypeError(fn, "error", v)
	}
	return e, nil
}

func builtinErrMsg(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	e, err := errArg("err-msg", args[0])
	if err != nil {
		return nil, err
	}
	return lisp.String(e.Message), nil
}

func builtinErrKind(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	e, err := errArg("err-kind", args[0])
	if err != nil {
		return nil, err
	}
	if e.Kind == nil {
		return lisp.ErrorRoot, nil
	}
	return e.Kind, nil
}

// nsName accepts the ways a namespace may be named by an argument.
func nsName(fn string, v lisp.Value) (string, error) {
	switch x := v.(type) {
	case *lisp.Symbol:
		return x.Name, nil
	case lisp.String:
		return string(x), nil
	case *lisp.Namespace:
		return x.Name(), nil
	}
	return "", libutil.TypeError(fn, "symbol", v)
}

func findNS(fn string, rt *lisp.Runtime, v lisp.Value) (*lisp.Namespace, error) {
	name, err := nsName(fn, v)
	if err != nil {
		return nil, err
	}
	ns := rt.Registry.Find(name)
	if ns == nil {
		return nil, lisp.Errorf(lisp.RuntimeError, "%s: no namespace: %s", fn, name)
	}
	return ns, nil
}

func builtinInNS(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	name, err := nsName("in-ns", args[0])
	if err != nil {
		return nil, err
	}
	return c.Runtime().InNS(name), nil
}

func builtinNSName(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args) == 0 {
		return lisp.Sym(c.Runtime().NS.Name()), nil
	}
	ns, err := findNS("ns-name", c.Runtime(), args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Sym(ns.Name()), nil
}

func builtinFindNS(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	name, err := nsName("find-ns", args[0])
	if err != nil {
		return nil, err
	}
	if ns := c.Runtime().Registry.Find(name); ns != nil {
		return ns, nil
	}
	return lisp.Nil, nil
}

func builtinRefer(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	rt := c.Runtime()
	ns, err := findNS("refer", rt, args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Nil, rt.NS.Refer(ns)
}

func builtinAlias(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	rt := c.Runtime()
	alias, err := nsName("alias", args[0])
	if err != nil {
		return nil, err
	}
	ns, err := findNS("alias", rt, args[1])
	if err != nil {
		return nil, err
	}
	return lisp.Nil, rt.NS.Alias(alias, ns)
}

func builtinNSPublics(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	ns, err := findNS("ns-publics", c.Runtime(), args[0])
	if err != nil {
		return nil, err
	}
	m := lisp.EmptyMap
	for _, v := range ns.Publics() {
		m = m.Assoc(lisp.Sym(v.Name()), v)
	}
	return m, nil
}

func builtinPushBindings(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	m, err := mapArg("push-bindings", args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Nil, c.Runtime().PushBindings(m)
}

func builtinPopBindings(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Nil, c.Runtime().PopBindings()
}

func builtinSetDynamic(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	v, ok := args[0].(*lisp.Var)
	if !ok {
		return nil, libutil.TypeError("set-dynamic!", "var", args[0])
	}
	on := len(args) < 2 || lisp.Truthy(args[1])
	v.SetDynamic(on)
	return v, nil
}
