// Copyright © 2021 The ELPS authors

package libhelp

import (
	"fmt"
	"io"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "help"

// MissingDoc describes a var with no documentation.
type MissingDoc struct {
	// Kind is "macro" or "var".
	Kind string

	// Name is the qualified name of the var (e.g. "math/sin").
	Name string
}

// CheckMissing reports the public vars of rt lacking documentation.  The
// user namespace is not checked.
func CheckMissing(rt *lisp.Runtime) []MissingDoc {
	var missing []MissingDoc
	for _, ns := range rt.Registry.Namespaces() {
		if ns.Name() == lisp.UserNamespace {
			continue
		}
		for _, v := range ns.Publics() {
			if v.Doc() != "" {
				continue
			}
			kind := "var"
			if v.IsMacro() {
				kind = "macro"
			}
			missing = append(missing, MissingDoc{Kind: kind, Name: ns.Name() + "/" + v.Name()})
		}
	}
	return missing
}

// LoadPackage adds the help namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("doc", 1, 1, builtinDoc,
		`Returns the docstring of a var or function, wrapped for display.
		A symbol is resolved in the current namespace.  Returns nil when
		there is no documentation.`),
	libutil.FunctionDoc("help", 1, 1, builtinHelp,
		`Prints documentation for the var named by sym.  Functions have
		their docstring rendered.  Other vars have their types and current
		values printed.`),
	libutil.FunctionDoc("help-namespace", 1, 1, builtinHelpNamespace,
		`Prints documentation for the public vars of the named namespace.`),
	libutil.FunctionDoc("help-namespaces", 0, 0, builtinHelpNamespaces,
		`Lists all namespaces loaded in the runtime.`),
}

func builtinDoc(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	rt := c.Runtime()
	x := args[0]
	if sym, ok := x.(*lisp.Symbol); ok {
		v, err := resolve(rt, sym)
		if err != nil {
			return nil, err
		}
		x = v
	}
	doc := docOf(x)
	if doc == "" {
		return lisp.Nil, nil
	}
	return lisp.String(cleanDocstring(doc)), nil
}

func docOf(x lisp.Value) string {
	switch x := x.(type) {
	case *lisp.Var:
		if doc := x.Doc(); doc != "" {
			return doc
		}
		if val, err := x.Get(); err == nil {
			return docOf(val)
		}
	case lisp.Documented:
		return x.Doc()
	}
	return ""
}

func resolve(rt *lisp.Runtime, sym *lisp.Symbol) (lisp.Value, error) {
	v, _ := rt.Registry.Resolve(rt.NS, sym)
	if v == nil {
		return nil, lisp.Errorf(lisp.RuntimeError, "unable to resolve symbol: %s", sym)
	}
	return v, nil
}

func builtinHelp(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, err := libutil.Symbol("help", args[0])
	if err != nil {
		return nil, err
	}
	rt := c.Runtime()
	if err := RenderVar(rt.Stderr, rt, sym); err != nil {
		return nil, lisp.AsError(err)
	}
	return lisp.Nil, nil
}

func builtinHelpNamespace(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	sym, err := libutil.Symbol("help-namespace", args[0])
	if err != nil {
		return nil, err
	}
	rt := c.Runtime()
	if err := RenderNamespace(rt.Stderr, rt, sym.Name); err != nil {
		return nil, lisp.AsError(err)
	}
	return lisp.Nil, nil
}

func builtinHelpNamespaces(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	rt := c.Runtime()
	if err := RenderNamespaceList(rt.Stderr, rt); err != nil {
		return nil, lisp.Errorf(lisp.IOError, "%v", err)
	}
	return lisp.Nil, nil
}

// RenderNamespaceList writes a summary of all loaded namespaces to w.
// Each namespace is listed with its name and the number of public vars.
func RenderNamespaceList(w io.Writer, rt *lisp.Runtime) error {
	for _, ns := range rt.Registry.Namespaces() {
		line := fmt.Sprintf("  %-12s", ns.Name())
		if n := len(ns.Publics()); n > 0 {
			line += fmt.Sprintf(" (%d public)", n)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderNamespace writes to w formatted documentation for the public vars of
// the namespace called name.  The exact formatting of the rendered
// documentation is subject to change.
func RenderNamespace(w io.Writer, rt *lisp.Runtime, name string) error {
	ns := rt.Registry.Find(name)
	if ns == nil {
		return fmt.Errorf("no namespace: %q", name)
	}
	if _, err := fmt.Fprintf(w, "namespace %s\n\n", ns.Name()); err != nil {
		return err
	}
	for i, v := range ns.Publics() {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		if err := renderVar(w, v); err != nil {
			return fmt.Errorf("var %s: %w", v.Name(), err)
		}
	}
	return nil
}

// RenderVar writes to w formatted documentation for the var named by sym in
// the current namespace of rt.
func RenderVar(w io.Writer, rt *lisp.Runtime, sym *lisp.Symbol) error {
	x, err := resolve(rt, sym)
	if err != nil {
		return err
	}
	v, ok := x.(*lisp.Var)
	if !ok {
		return renderVal(w, sym.String(), x, "")
	}
	return renderVar(w, v)
}

func renderVar(w io.Writer, v *lisp.Var) error {
	name := v.Namespace().Name() + "/" + v.Name()
	val, err := v.Get()
	if err != nil {
		return renderVal(w, name, lisp.Nil, v.Doc())
	}
	if !lisp.IsFn(val) {
		return renderVal(w, name, val, v.Doc())
	}
	kind := "function"
	if v.IsMacro() {
		kind = "macro"
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", kind, name); err != nil {
		return err
	}
	if doc := cleanDocstring(docOf(v)); doc != "" {
		_, err = fmt.Fprintln(w, doc)
		return err
	}
	return nil
}

func renderVal(w io.Writer, name string, v lisp.Value, doc string) error {
	_, err := fmt.Fprintf(w, "%s %s %s\n", lisp.TypeName(v), name, lisp.PrStr(v))
	if err != nil {
		return err
	}
	if doc != "" {
		_, err = fmt.Fprintln(w, cleanDocstring(doc))
	}
	return err
}

func cleanDocstring(doc string) string {
	if doc == "" {
		return ""
	}
	doc = strings.TrimPrefix(doc, "\n")
	doc = indent.String(wordwrap.String(dedentDoc(doc), 72), 2)
	doc = strings.TrimSuffix(doc, "\n")
	return doc
}

// dedentDoc removes common leading whitespace from all non-empty lines.
// The first line may have less indentation than continuation lines, as in
// docstrings written inside source code.
func dedentDoc(s string) string {
	s = strings.ReplaceAll(s, "\t", "    ")
	lines := strings.Split(s, "\n")

	minWS := -1
	start := 0
	if len(lines) > 1 {
		start = 1
	}
	for _, line := range lines[start:] {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" {
			continue
		}
		ws := len(line) - len(trimmed)
		if minWS < 0 || ws < minWS {
			minWS = ws
		}
	}
	lines[0] = strings.TrimLeft(lines[0], " ")
	if minWS <= 0 {
		return strings.Join(lines, "\n")
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "" {
			lines[i] = ""
		} else if len(lines[i]) >= minWS {
			lines[i] = lines[i][minWS:]
		}
	}
	return strings.Join(lines, "\n")
}
