// Copyright © 2018 The ELPS authors

package lisp

// LazySeq is a sequence computed on first use.  The computed sequence is
// memoized; a failed computation is retried on the next use.
type LazySeq struct {
	thunk    func() (Value, error)
	seq      Seq
	realized bool
	meta     *Map
}

// NewLazySeq returns a lazy sequence whose elements are the seq of the value
// returned by thunk.
func NewLazySeq(thunk func() (Value, error)) *LazySeq {
	return &LazySeq{thunk: thunk}
}

func (*LazySeq) Type() Type { return TLazySeq }

func (l *LazySeq) String() string {
	s, err := l.Seq()
	if err != nil {
		return "#<LazySeq error>"
	}
	if s == nil {
		return "()"
	}
	return printSeq("(", ")", s)
}

// Realized returns true once the sequence has been computed.
func (l *LazySeq) Realized() bool { return l.realized }

// Seq realizes l and returns its sequence.
func (l *LazySeq) Seq() (Seq, error) {
	if l.realized {
		return l.seq, nil
	}
	v, err := l.thunk()
	if err != nil {
		return nil, err
	}
	s, err := ToSeq(v)
	if err != nil {
		return nil, err
	}
	l.seq, l.realized, l.thunk = s, true, nil
	return s, nil
}

func (l *LazySeq) Meta() *Map { return l.meta }

func (l *LazySeq) WithMeta(m *Map) Value {
	cp := *l
	cp.meta = m
	return &cp
}

// Realize forces every lazy sequence reachable through the collections of
// v and returns the first error raised while doing so.  Printing a value
// which realized without error cannot fail.
func Realize(v Value) error {
	switch v := v.(type) {
	case *Vector:
		return realizeAll(v.items)
	case *Map:
		for _, e := range v.Entries() {
			if err := realizeAll([]Value{e.Key, e.Val}); err != nil {
				return err
			}
		}
		return nil
	case *Set:
		return realizeAll(v.Items())
	case *MapEntry:
		return realizeAll([]Value{v.Key, v.Val})
	case *List, *LazySeq, Seq:
		s, err := ToSeq(v)
		for ; err == nil && s != nil; s, err = s.Next() {
			if err := Realize(s.First()); err != nil {
				return err
			}
		}
		return err
	}
	return nil
}

func realizeAll(vals []Value) error {
	for _, x := range vals {
		if err := Realize(x); err != nil {
			return err
		}
	}
	return nil
}
