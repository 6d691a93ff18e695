// Copyright © 2018 The ELPS authors

package lisp

import "strings"

// MapEntry is a key/value pair produced when walking a map.
type MapEntry struct {
	Key Value
	Val Value
}

func (*MapEntry) Type() Type { return TMapEntry }

func (e *MapEntry) String() string {
	return "[" + e.Key.String() + " " + e.Val.String() + "]"
}

// Map is a persistent hash map.  Entries print in insertion order.
// Modifying operations copy the receiver.
type Map struct {
	keys  []Value
	vals  []Value
	index map[uint64][]int
	meta  *Map
}

// EmptyMap is the shared empty map.
var EmptyMap = &Map{}

// NewMap returns a map built from alternating keys and values.  Later keys
// replace earlier equal keys.
func NewMap(kvs ...Value) (*Map, error) {
	if len(kvs)%2 != 0 {
		return nil, Errorf(IllegalArgumentError, "map literal must contain an even number of forms")
	}
	m := &Map{}
	for i := 0; i < len(kvs); i += 2 {
		m.put(kvs[i], kvs[i+1])
	}
	return m, nil
}

func (*Map) Type() Type { return TMap }

func (m *Map) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := range m.keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(m.keys[i].String())
		b.WriteByte(' ')
		b.WriteString(m.vals[i].String())
	}
	b.WriteByte('}')
	return b.String()
}

// Len returns the number of entries in m.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

func (m *Map) find(k Value) int {
	if m == nil || m.index == nil {
		return -1
	}
	for _, i := range m.index[Hash(k)] {
		if Equal(m.keys[i], k) {
			return i
		}
	}
	return -1
}

// Get returns the value stored under k.
func (m *Map) Get(k Value) (Value, bool) {
	i := m.find(k)
	if i < 0 {
		return nil, false
	}
	return m.vals[i], true
}

// Contains returns true if m has an entry for k.
func (m *Map) Contains(k Value) bool { return m.find(k) >= 0 }

// put mutates m and must only be used while building a new map.
func (m *Map) put(k, v Value) {
	if i := m.find(k); i >= 0 {
		m.vals[i] = v
		return
	}
	if m.index == nil {
		m.index = make(map[uint64][]int)
	}
	h := Hash(k)
	m.index[h] = append(m.index[h], len(m.keys))
	m.keys = append(m.keys, k)
	m.vals = append(m.vals, v)
}

func (m *Map) clone() *Map {
	cp := &Map{meta: m.Meta()}
	if m == nil {
		return cp
	}
	cp.keys = append([]Value(nil), m.keys...)
	cp.vals = append([]Value(nil), m.vals...)
	cp.index = make(map[uint64][]int, len(m.index))
	for h, is := range m.index {
		cp.index[h] = append([]int(nil), is...)
	}
	return cp
}

// Assoc returns a copy of m with k mapped to v.
func (m *Map) Assoc(k, v Value) *Map {
	cp := m.clone()
	cp.put(k, v)
	return cp
}

// Dissoc returns a copy of m without k.
func (m *Map) Dissoc(k Value) *Map {
	i := m.find(k)
	if i < 0 {
		return m
	}
	cp := &Map{meta: m.meta}
	for j := range m.keys {
		if j != i {
			cp.put(m.keys[j], m.vals[j])
		}
	}
	return cp
}

// Keys returns the keys of m in insertion order.
func (m *Map) Keys() []Value {
	if m == nil {
		return nil
	}
	return append([]Value(nil), m.keys...)
}

// Vals returns the values of m in insertion order.
func (m *Map) Vals() []Value {
	if m == nil {
		return nil
	}
	return append([]Value(nil), m.vals...)
}

// Entries returns the entries of m in insertion order.
func (m *Map) Entries() []*MapEntry {
	entries := make([]*MapEntry, m.Len())
	for i := range entries {
		entries[i] = &MapEntry{Key: m.keys[i], Val: m.vals[i]}
	}
	return entries
}

func (m *Map) entryValues() []Value {
	vals := make([]Value, m.Len())
	for i := range vals {
		vals[i] = &MapEntry{Key: m.keys[i], Val: m.vals[i]}
	}
	return vals
}

// Apply looks up its first argument in m.
func (m *Map) Apply(c Caller, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, ArityError(len(args), "SxHashMap")
	}
	if v, ok := m.Get(args[0]); ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return Nil, nil
}

func (m *Map) Meta() *Map {
	if m == nil {
		return nil
	}
	return m.meta
}

func (m *Map) WithMeta(meta *Map) Value {
	cp := *m
	cp.meta = meta
	return &cp
}

// Set is a persistent hash set.
type Set struct {
	m    *Map
	meta *Map
}

// EmptySet is the shared empty set.
var EmptySet = &Set{m: EmptyMap}

// NewSet returns a set of vals.
func NewSet(vals ...Value) *Set {
	m := &Map{}
	for _, v := range vals {
		m.put(v, v)
	}
	return &Set{m: m}
}

func (*Set) Type() Type { return TSet }

func (s *Set) String() string {
	var b strings.Builder
	b.WriteString("#{")
	for i, k := range s.m.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k.String())
	}
	b.WriteByte('}')
	return b.String()
}

// Len returns the number of members of s.
func (s *Set) Len() int { return s.m.Len() }

// Contains returns true if v is a member of s.
func (s *Set) Contains(v Value) bool { return s.m.Contains(v) }

// Items returns the members of s in insertion order.
func (s *Set) Items() []Value { return s.m.Keys() }

// Conj returns a copy of s including v.
func (s *Set) Conj(v Value) *Set {
	if s.Contains(v) {
		return s
	}
	return &Set{m: s.m.Assoc(v, v), meta: s.meta}
}

// Disj returns a copy of s without v.
func (s *Set) Disj(v Value) *Set {
	return &Set{m: s.m.Dissoc(v), meta: s.meta}
}

// Apply returns its argument when it is a member of s and nil otherwise.
func (s *Set) Apply(c Caller, args []Value) (Value, error) {
	if len(args) != 1 {
		return nil, ArityError(len(args), "SxHashSet")
	}
	if s.Contains(args[0]) {
		return args[0], nil
	}
	return Nil, nil
}

func (s *Set) Meta() *Map { return s.meta }

func (s *Set) WithMeta(m *Map) Value {
	cp := *s
	cp.meta = m
	return &cp
}
