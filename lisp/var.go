// Copyright © 2018 The ELPS authors

package lisp

// Var is a named mutable reference interned in a namespace.  A var has a root
// value and, when marked :dynamic, a stack of thread-local style bindings.
type Var struct {
	ns       *Namespace
	sym      *Symbol
	root     Value
	bound    bool
	bindings []Value
	meta     *Map
}

// NewVar returns an unbound var named sym in ns.
func NewVar(ns *Namespace, sym *Symbol) *Var {
	return &Var{ns: ns, sym: QualifiedSym(ns.Name(), sym.Name)}
}

func (*Var) Type() Type { return TVar }

func (v *Var) String() string { return "#'" + v.sym.String() }

// Name returns the unqualified name of v.
func (v *Var) Name() string { return v.sym.Name }

// Symbol returns the fully qualified symbol naming v.
func (v *Var) Symbol() *Symbol { return v.sym }

// Namespace returns the namespace v is interned in.
func (v *Var) Namespace() *Namespace { return v.ns }

// IsBound returns true when v has a root value or a dynamic binding.
func (v *Var) IsBound() bool { return v.bound || len(v.bindings) > 0 }

// Get returns the innermost dynamic binding of v, else its root value.
func (v *Var) Get() (Value, error) {
	if n := len(v.bindings); n > 0 {
		return v.bindings[n-1], nil
	}
	if !v.bound {
		return nil, Errorf(RuntimeError, "unbound var: %s", v)
	}
	return v.root, nil
}

// Root returns the root value of v, or nil when unbound.
func (v *Var) Root() Value {
	if !v.bound {
		return nil
	}
	return v.root
}

// Set replaces the innermost dynamic binding of v, else its root value.
// Setting the root clears the macro flag.
func (v *Var) Set(x Value) error {
	if n := len(v.bindings); n > 0 {
		v.bindings[n-1] = x
		return nil
	}
	v.SetRoot(x, false)
	return nil
}

// SetRoot binds the root value of v.  Unless keepMacro is true the var stops
// being a macro.
func (v *Var) SetRoot(x Value, keepMacro bool) {
	v.root = x
	v.bound = true
	if !keepMacro && v.IsMacro() {
		v.meta = v.meta.Dissoc(KwMacro)
	}
}

// PushBinding establishes a new dynamic binding of v.
func (v *Var) PushBinding(x Value) error {
	if !v.IsDynamic() {
		return Errorf(IllegalArgumentError, "can't dynamically bind non-dynamic var: %s", v)
	}
	v.bindings = append(v.bindings, x)
	return nil
}

// PopBinding removes the innermost dynamic binding of v.
func (v *Var) PopBinding() error {
	n := len(v.bindings)
	if n == 0 {
		return Errorf(RuntimeError, "no dynamic binding to pop for var: %s", v)
	}
	v.bindings[n-1] = nil
	v.bindings = v.bindings[:n-1]
	return nil
}

func (v *Var) flag(k Keyword) bool {
	x, ok := v.meta.Get(k)
	return ok && Truthy(x)
}

func (v *Var) setFlag(k Keyword, on bool) {
	if on {
		v.meta = v.meta.Assoc(k, True)
	} else {
		v.meta = v.meta.Dissoc(k)
	}
}

func (v *Var) IsMacro() bool   { return v.flag(KwMacro) }
func (v *Var) IsDynamic() bool { return v.flag(KwDynamic) }
func (v *Var) IsPublic() bool  { return !v.flag(KwPrivate) }

// SetMacro marks v as a macro.
func (v *Var) SetMacro() { v.setFlag(KwMacro, true) }

// SetDynamic marks whether v accepts dynamic bindings.
func (v *Var) SetDynamic(on bool) { v.setFlag(KwDynamic, on) }

// Meta returns the metadata map of v.
func (v *Var) Meta() *Map {
	if v.meta == nil {
		return EmptyMap
	}
	return v.meta
}

// SetMeta merges m into the metadata of v.
func (v *Var) SetMeta(m *Map) {
	if v.meta == nil {
		v.meta = EmptyMap
	}
	for i, k := range m.Keys() {
		v.meta = v.meta.Assoc(k, m.vals[i])
	}
}

// Doc returns the :doc metadata of v.
func (v *Var) Doc() string {
	if s, ok := v.meta.Get(KwDoc); ok {
		if s, ok := s.(String); ok {
			return string(s)
		}
	}
	return ""
}

// Apply calls the value of v.
func (v *Var) Apply(c Caller, args []Value) (Value, error) {
	fn, err := v.Get()
	if err != nil {
		return nil, err
	}
	return c.Call(fn, args...)
}
