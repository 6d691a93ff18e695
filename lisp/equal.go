// Copyright © 2018 The ELPS authors

package lisp

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Equal implements the language's = relation.  Numbers are equal only within
// a category (1 and 1.0 differ).  Sequential collections compare element-wise
// regardless of their concrete type.
func Equal(a, b Value) bool {
	if a == nil {
		a = Nil
	}
	if b == nil {
		b = Nil
	}
	if a == b {
		return true
	}
	switch a := a.(type) {
	case Int, Float, *Ratio:
		return numEqual(a, b)
	case *Symbol:
		b, ok := b.(*Symbol)
		return ok && a.NS == b.NS && a.Name == b.Name
	case *Map:
		b, ok := b.(*Map)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for i, k := range a.keys {
			v, ok := b.Get(k)
			if !ok || !Equal(a.vals[i], v) {
				return false
			}
		}
		return true
	case *Set:
		b, ok := b.(*Set)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, k := range a.m.keys {
			if !b.Contains(k) {
				return false
			}
		}
		return true
	}
	if IsSequential(a) && IsSequential(b) {
		return seqEqual(a, b)
	}
	return false
}

func seqEqual(a, b Value) bool {
	sa, err := ToSeq(a)
	if err != nil {
		return false
	}
	sb, err := ToSeq(b)
	if err != nil {
		return false
	}
	for sa != nil && sb != nil {
		if !Equal(sa.First(), sb.First()) {
			return false
		}
		if sa, err = sa.Next(); err != nil {
			return false
		}
		if sb, err = sb.Next(); err != nil {
			return false
		}
	}
	return sa == nil && sb == nil
}

// Hash returns a hash of v consistent with Equal.
func Hash(v Value) uint64 {
	h := fnv.New64a()
	writeHash(h, v)
	return h.Sum64()
}

type hashWriter interface {
	Write(p []byte) (int, error)
	Sum64() uint64
}

func writeHash(h hashWriter, v Value) {
	var buf [8]byte
	tag := func(t byte) { _, _ = h.Write([]byte{t}) }
	switch v := v.(type) {
	case nil, nilValue:
		tag(0)
	case Bool:
		if v {
			tag(1)
		} else {
			tag(2)
		}
	case Int:
		tag(3)
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = h.Write(buf[:])
	case Float:
		tag(4)
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(float64(v)))
		_, _ = h.Write(buf[:])
	case *Ratio:
		tag(5)
		_, _ = h.Write([]byte(v.String()))
	case String:
		tag(6)
		_, _ = h.Write([]byte(v))
	case Char:
		tag(7)
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		_, _ = h.Write(buf[:4])
	case Keyword:
		tag(8)
		_, _ = h.Write([]byte(v.String()))
	case *Symbol:
		tag(9)
		_, _ = h.Write([]byte(v.String()))
	case *Map:
		// Order independent: combine entry hashes by addition.
		var sum uint64
		for i := range v.keys {
			sum += Hash(v.keys[i])*31 ^ Hash(v.vals[i])
		}
		tag(10)
		binary.LittleEndian.PutUint64(buf[:], sum)
		_, _ = h.Write(buf[:])
	case *Set:
		var sum uint64
		for _, k := range v.m.keys {
			sum += Hash(k)
		}
		tag(11)
		binary.LittleEndian.PutUint64(buf[:], sum)
		_, _ = h.Write(buf[:])
	default:
		if IsSequential(v) {
			tag(12)
			s, err := ToSeq(v)
			for ; err == nil && s != nil; s, err = s.Next() {
				binary.LittleEndian.PutUint64(buf[:], Hash(s.First()))
				_, _ = h.Write(buf[:])
			}
			return
		}
		tag(13)
		_, _ = h.Write([]byte(v.Type().String()))
		_, _ = h.Write([]byte(v.String()))
	}
}
