// Copyright © 2018 The ELPS authors

package lisp

import (
	"sort"

	"github.com/sirupsen/logrus"
)

const (
	// CoreNamespace holds the language's builtins, macros and error kinds.
	CoreNamespace = "sxp"
	// UserNamespace is the namespace code is evaluated in by default.
	UserNamespace = "user"
)

// Namespace maps unqualified symbols to vars and constants.
type Namespace struct {
	name     string
	registry *Registry
	mappings map[string]Value
	aliases  map[string]*Namespace
}

func (*Namespace) Type() Type { return TNamespace }

func (ns *Namespace) String() string { return "#namespace[" + ns.name + "]" }

// Name returns the name of ns.
func (ns *Namespace) Name() string { return ns.name }

// Intern returns the var named sym in ns, creating it when needed.  A var
// referred from the core namespace or a constant binding is replaced.  A var
// referred from any other namespace cannot be replaced.
func (ns *Namespace) Intern(sym *Symbol) (*Var, error) {
	if sym.HasNS() && sym.NS != ns.name {
		return nil, Errorf(CompilerError, "can't intern namespace-qualified symbol: %s", sym)
	}
	existing, ok := ns.mappings[sym.Name]
	if ok {
		v, isVar := existing.(*Var)
		switch {
		case isVar && v.ns == ns:
			return v, nil
		case isVar && v.ns.name != CoreNamespace:
			return nil, Errorf(RuntimeError, "%s already refers to: %s in namespace: %s", sym.Name, v, ns.name)
		}
		ns.registry.logger().WithFields(logrus.Fields{
			"ns":   ns.name,
			"name": sym.Name,
			"old":  existing.String(),
		}).Warnf("%s already refers to: %s in namespace: %s, being replaced", sym.Name, existing, ns.name)
	}
	v := NewVar(ns, sym)
	ns.mappings[sym.Name] = v
	return v, nil
}

// Def interns name in ns and binds its root to val.
func (ns *Namespace) Def(name string, val Value) (*Var, error) {
	v, err := ns.Intern(Sym(name))
	if err != nil {
		return nil, err
	}
	v.SetRoot(val, false)
	return v, nil
}

// Constant binds name to val directly.  References to constants compile into
// constant loads and constants cannot be set.
func (ns *Namespace) Constant(name string, val Value) {
	ns.mappings[name] = val
}

// FindInterned returns the var or constant bound to the unqualified name of
// sym, or nil.
func (ns *Namespace) FindInterned(sym *Symbol) Value {
	return ns.mappings[sym.Name]
}

// Lookup is FindInterned for a plain name.
func (ns *Namespace) Lookup(name string) Value {
	return ns.mappings[name]
}

// Refer makes the public vars of other visible in ns.
func (ns *Namespace) Refer(other *Namespace) error {
	if other == ns {
		return nil
	}
	for _, v := range other.Publics() {
		if existing, ok := ns.mappings[v.Name()]; ok {
			if ev, ok := existing.(*Var); ok && ev.ns == ns {
				continue
			}
		}
		ns.mappings[v.Name()] = v
	}
	return nil
}

// Exclude removes the var referred from another namespace as name, so that
// ns may define its own name without replacing it.  Vars interned in ns and
// constants are kept.
func (ns *Namespace) Exclude(name string) {
	if v, ok := ns.mappings[name].(*Var); ok && v.ns != ns {
		delete(ns.mappings, name)
	}
}

// Alias makes other reachable from ns as alias/name.
func (ns *Namespace) Alias(alias string, other *Namespace) error {
	if cur, ok := ns.aliases[alias]; ok && cur != other {
		return Errorf(RuntimeError, "alias %s already exists in namespace %s, aliasing %s", alias, ns.name, cur.name)
	}
	ns.aliases[alias] = other
	return nil
}

// LookupAlias returns the namespace named by alias in ns.  Full namespace
// names are accepted as well.
func (ns *Namespace) LookupAlias(alias string) *Namespace {
	if other, ok := ns.aliases[alias]; ok {
		return other
	}
	return ns.registry.Find(alias)
}

// Publics returns the public vars interned in ns sorted by name.
func (ns *Namespace) Publics() []*Var {
	var vars []*Var
	for _, m := range ns.mappings {
		if v, ok := m.(*Var); ok && v.ns == ns && v.IsPublic() {
			vars = append(vars, v)
		}
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i].Name() < vars[j].Name() })
	return vars
}

// Registry holds the namespaces of a runtime.
type Registry struct {
	Logger     *logrus.Logger
	namespaces map[string]*Namespace
	defaults   []defaultImport
}

type defaultImport struct {
	name string
	val  Value
}

// NewRegistry returns a registry containing the core namespace.
func NewRegistry(logger *logrus.Logger) *Registry {
	r := &Registry{
		Logger:     logger,
		namespaces: make(map[string]*Namespace),
	}
	for _, kind := range ErrorKinds() {
		r.AddDefault(kind.Name, kind)
	}
	r.Namespace(CoreNamespace)
	return r
}

func (r *Registry) logger() *logrus.Logger {
	if r.Logger == nil {
		r.Logger = logrus.StandardLogger()
	}
	return r.Logger
}

// AddDefault binds a constant in every namespace of r, including those
// created later.
func (r *Registry) AddDefault(name string, val Value) {
	r.defaults = append(r.defaults, defaultImport{name, val})
	for _, ns := range r.namespaces {
		ns.Constant(name, val)
	}
}

// Find returns the namespace called name, or nil.
func (r *Registry) Find(name string) *Namespace {
	return r.namespaces[name]
}

// Core returns the core namespace.
func (r *Registry) Core() *Namespace {
	return r.Namespace(CoreNamespace)
}

// Namespace returns the namespace called name, creating it when needed.  New
// namespaces refer the public vars of the core namespace.
func (r *Registry) Namespace(name string) *Namespace {
	if ns, ok := r.namespaces[name]; ok {
		return ns
	}
	ns := &Namespace{
		name:     name,
		registry: r,
		mappings: make(map[string]Value),
		aliases:  make(map[string]*Namespace),
	}
	for _, d := range r.defaults {
		ns.Constant(d.name, d.val)
	}
	if core, ok := r.namespaces[CoreNamespace]; ok {
		_ = ns.Refer(core)
	}
	r.namespaces[name] = ns
	return ns
}

// Namespaces returns every namespace in r sorted by name.
func (r *Registry) Namespaces() []*Namespace {
	nss := make([]*Namespace, 0, len(r.namespaces))
	for _, ns := range r.namespaces {
		nss = append(nss, ns)
	}
	sort.Slice(nss, func(i, j int) bool { return nss[i].name < nss[j].name })
	return nss
}

// Resolve finds the var or constant named by sym as seen from ns.  Qualified
// symbols are looked up through the aliases of ns.
func (r *Registry) Resolve(ns *Namespace, sym *Symbol) (Value, *Namespace) {
	if !sym.HasNS() {
		return ns.FindInterned(sym), ns
	}
	other := ns.LookupAlias(sym.NS)
	if other == nil {
		return nil, nil
	}
	return other.FindInterned(sym), other
}
