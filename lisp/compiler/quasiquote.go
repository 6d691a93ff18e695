// Copyright © 2018 The ELPS authors

package compiler

import (
	"strings"

	"github.com/luthersystems/sxp/lisp"
)

var (
	symQuote   = lisp.Sym("quote")
	symApply   = lisp.Sym("apply")
	symList    = lisp.QualifiedSym(lisp.CoreNamespace, "list")
	symSeq     = lisp.QualifiedSym(lisp.CoreNamespace, "seq")
	symConcat  = lisp.QualifiedSym(lisp.CoreNamespace, "concat")
	symVector  = lisp.QualifiedSym(lisp.CoreNamespace, "vector")
	symHashMap = lisp.QualifiedSym(lisp.CoreNamespace, "hash-map")
	symHashSet = lisp.QualifiedSym(lisp.CoreNamespace, "hash-set")
)

func isCall(form lisp.Value, name string) (lisp.Value, bool) {
	l, ok := form.(*lisp.List)
	if !ok || l.Len() != 2 || !isSym(l.First(), name) {
		return nil, false
	}
	x, _ := l.Nth(1)
	return x, true
}

// syntaxQuote rewrites the template x into code constructing it.  Symbols
// ending in # are replaced by generated symbols, consistently within one
// template.
func (c *Compiler) syntaxQuote(x lisp.Value, gensyms map[string]*lisp.Symbol) (lisp.Value, error) {
	if v, ok := isCall(x, "unquote"); ok {
		return v, nil
	}
	if _, ok := isCall(x, "unquote-splicing"); ok {
		return nil, compileErr(x, "quasi-quote splice not in list")
	}
	switch x := x.(type) {
	case *lisp.Symbol:
		return lisp.NewList(symQuote, c.qualify(x, gensyms)), nil
	case *lisp.List:
		if x.Empty() {
			return lisp.NewList(symList), nil
		}
		return c.concatItems(x.Slice(), gensyms)
	case *lisp.Vector:
		return c.applyItems(symVector, x.Items(), gensyms)
	case *lisp.Map:
		var kvs []lisp.Value
		for _, e := range x.Entries() {
			kvs = append(kvs, e.Key, e.Val)
		}
		return c.applyItems(symHashMap, kvs, gensyms)
	case *lisp.Set:
		return c.applyItems(symHashSet, x.Items(), gensyms)
	case lisp.Int, lisp.Float, *lisp.Ratio, lisp.String, lisp.Keyword, lisp.Char, lisp.Bool:
		return x, nil
	}
	if lisp.IsNil(x) {
		return x, nil
	}
	return lisp.NewList(symQuote, x), nil
}

// qualify resolves a template symbol.  Special form names and constants stay
// bare.
func (c *Compiler) qualify(sym *lisp.Symbol, gensyms map[string]*lisp.Symbol) *lisp.Symbol {
	if IsSpecial(sym) {
		return sym
	}
	if !sym.HasNS() && strings.HasSuffix(sym.Name, "#") && len(sym.Name) > 1 {
		gs, ok := gensyms[sym.Name]
		if !ok {
			gs = c.rt.GenSym(strings.TrimSuffix(sym.Name, "#"))
			gensyms[sym.Name] = gs
		}
		return gs
	}
	ns := c.rt.NS
	if sym.HasNS() {
		other := ns.LookupAlias(sym.NS)
		if other == nil || other.Name() == sym.NS {
			return sym
		}
		return lisp.QualifiedSym(other.Name(), sym.Name)
	}
	switch val := ns.FindInterned(sym).(type) {
	case nil:
		return lisp.QualifiedSym(ns.Name(), sym.Name)
	case *lisp.Var:
		return lisp.QualifiedSym(val.Namespace().Name(), sym.Name)
	default:
		return sym
	}
}

// concatItems builds (seq (concat ...)) where unquoted items contribute their
// value and spliced items contribute their elements.
func (c *Compiler) concatItems(items []lisp.Value, gensyms map[string]*lisp.Symbol) (lisp.Value, error) {
	parts := []lisp.Value{symConcat}
	for _, item := range items {
		if v, ok := isCall(item, "unquote"); ok {
			parts = append(parts, lisp.NewList(symList, v))
			continue
		}
		if v, ok := isCall(item, "unquote-splicing"); ok {
			parts = append(parts, v)
			continue
		}
		x, err := c.syntaxQuote(item, gensyms)
		if err != nil {
			return nil, err
		}
		parts = append(parts, lisp.NewList(symList, x))
	}
	return lisp.NewList(symSeq, lisp.NewList(parts...)), nil
}

func (c *Compiler) applyItems(ctor *lisp.Symbol, items []lisp.Value, gensyms map[string]*lisp.Symbol) (lisp.Value, error) {
	seq, err := c.concatItems(items, gensyms)
	if err != nil {
		return nil, err
	}
	return lisp.NewList(symApply, ctor, seq), nil
}
