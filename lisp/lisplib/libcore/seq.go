// Copyright © 2018 The ELPS authors

package libcore

import (
	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

var seqBuiltins = []*libutil.Builtin{
	libutil.FunctionDoc("list", 0, libutil.VarArgs, builtinList,
		`Returns a list containing the arguments.`),
	libutil.FunctionDoc("cons", 2, 2, builtinCons,
		`Returns a sequence whose first element is x and whose rest is
		coll.`),
	libutil.FunctionDoc("first", 1, 1, builtinFirst,
		`Returns the first element of coll, or nil when it is empty.`),
	libutil.FunctionDoc("rest", 1, 1, builtinRest,
		`Returns the elements after the first, or an empty list.`),
	libutil.FunctionDoc("next", 1, 1, builtinNext,
		`Returns the elements after the first, or nil when there are none.`),
	libutil.FunctionDoc("seq", 1, 1, builtinSeq,
		`Returns a sequence over coll, or nil when coll is empty.`),
	libutil.FunctionDoc("conj", 1, libutil.VarArgs, builtinConj,
		`Adds xs to coll in the position natural for the collection: the
		front of lists and the end of vectors.`),
	libutil.FunctionDoc("concat", 0, libutil.VarArgs, builtinConcat,
		`Returns a lazy sequence of the elements of each argument in turn.`),
	libutil.FunctionDoc("count", 1, 1, builtinCount,
		`Returns the number of elements in coll.`),
	libutil.FunctionDoc("nth", 2, 3, builtinNth,
		`Returns the element of coll at index.  An optional third argument
		is returned when index is out of bounds.`),
	libutil.FunctionDoc("get", 2, 3, builtinGet,
		`Returns the value mapped to key, or the optional default.`),
	libutil.FunctionDoc("assoc", 3, libutil.VarArgs, builtinAssoc,
		`Returns coll with each key mapped to its value.`),
	libutil.FunctionDoc("dissoc", 1, libutil.VarArgs, builtinDissoc,
		`Returns the map without the given keys.`),
	libutil.FunctionDoc("contains?", 2, 2, builtinContains,
		`Returns true if key is present in coll.  For vectors key is an
		index.`),
	libutil.FunctionDoc("keys", 1, 1, builtinKeys,
		`Returns a sequence of the keys of a map, or nil.`),
	libutil.FunctionDoc("vals", 1, 1, builtinVals,
		`Returns a sequence of the values of a map, or nil.`),
	libutil.FunctionDoc("key", 1, 1, builtinKey,
		`Returns the key of a map entry.`),
	libutil.FunctionDoc("val", 1, 1, builtinVal,
		`Returns the value of a map entry.`),
	libutil.FunctionDoc("vector", 0, libutil.VarArgs, builtinVector,
		`Returns a vector containing the arguments.`),
	libutil.FunctionDoc("hash-map", 0, libutil.VarArgs, builtinHashMap,
		`Returns a map of the key/value pairs given as arguments.`),
	libutil.FunctionDoc("hash-set", 0, libutil.VarArgs, builtinHashSet,
		`Returns a set containing the arguments.`),
	libutil.FunctionDoc("make-lazy-seq", 1, 1, builtinMakeLazySeq,
		`Returns a lazy sequence realized by calling fn with no arguments
		the first time it is used.`),
	libutil.FunctionDoc("reverse", 1, 1, builtinReverse,
		`Returns a list of the elements of coll in reverse order.`),
	libutil.FunctionDoc("map", 2, libutil.VarArgs, builtinMap,
		`Returns a lazy sequence of the results of applying fn to the
		first elements of each coll, then the second, until any coll is
		exhausted.`),
	libutil.FunctionDoc("filter", 2, 2, builtinFilter,
		`Returns a lazy sequence of the elements of coll for which pred
		returns a truthy value.`),
	libutil.FunctionDoc("reduce", 2, 3, builtinReduce,
		`Combines the elements of coll with fn, starting from init when it
		is given and from the first element otherwise.`),
	libutil.FunctionDoc("range", 0, 3, builtinRange,
		`Returns a lazy sequence of integers from start (default 0) to end
		(exclusive, default infinity) by step (default 1).`),
	libutil.FunctionDoc("take", 2, 2, builtinTake,
		`Returns a lazy sequence of the first n elements of coll.`),
	libutil.FunctionDoc("drop", 2, 2, builtinDrop,
		`Returns a lazy sequence of the elements of coll after the first n.`),
	libutil.FunctionDoc("into", 2, 2, builtinInto,
		`Conjoins each element of from onto to.`),
	libutil.FunctionDoc("empty?", 1, 1, builtinIsEmpty,
		`Returns true if coll has no elements.`),
}

func builtinList(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.NewList(args...), nil
}

func builtinCons(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if !lisp.IsSeqable(args[1]) {
		return nil, libutil.TypeError("cons", "seqable collection", args[1])
	}
	if l, ok := args[1].(*lisp.List); ok {
		return l.Cons(args[0]), nil
	}
	if lisp.IsNil(args[1]) {
		return lisp.NewList(args[0]), nil
	}
	return lisp.NewCons(args[0], args[1]), nil
}

func builtinFirst(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.First(args[0])
}

func builtinRest(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Rest(args[0])
}

func builtinNext(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.Next(args[0])
}

func seqValue(s lisp.Seq) lisp.Value {
	if s == nil {
		return lisp.Nil
	}
	return s
}

func builtinSeq(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := lisp.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	return seqValue(s), nil
}

func builtinConj(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	coll := args[0]
	for _, x := range args[1:] {
		var err error
		if coll, err = lisp.Conj(coll, x); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

// concat returns the lazy concatenation of s and the colls that follow.
func concat(s lisp.Seq, colls []lisp.Value) lisp.Value {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		for s == nil {
			if len(colls) == 0 {
				return lisp.Nil, nil
			}
			var err error
			if s, err = lisp.ToSeq(colls[0]); err != nil {
				return nil, err
			}
			colls = colls[1:]
		}
		next, err := s.Next()
		if err != nil {
			return nil, err
		}
		return lisp.NewCons(s.First(), concat(next, colls)), nil
	})
}

func builtinConcat(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return concat(nil, args), nil
}

func builtinCount(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	n, err := lisp.Count(args[0])
	if err != nil {
		return nil, err
	}
	return lisp.Int(n), nil
}

func builtinNth(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	i, err := libutil.Int("nth", args[1])
	if err != nil {
		return nil, err
	}
	x, err := lisp.Nth(args[0], i)
	if err != nil && len(args) == 3 && lisp.AsError(err).Kind == lisp.OutOfBoundsError {
		return args[2], nil
	}
	return x, err
}

func builtinGet(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	var notFound lisp.Value = lisp.Nil
	if len(args) == 3 {
		notFound = args[2]
	}
	return lisp.Get(args[0], args[1], notFound)
}

func builtinAssoc(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if len(args)%2 != 1 {
		return nil, lisp.Errorf(lisp.IllegalArgumentError, "assoc expects even number of arguments after map/vector, found odd number")
	}
	coll := args[0]
	for i := 1; i < len(args); i += 2 {
		var err error
		if coll, err = lisp.Assoc(coll, args[i], args[i+1]); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func builtinDissoc(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	coll := args[0]
	for _, k := range args[1:] {
		var err error
		if coll, err = lisp.Dissoc(coll, k); err != nil {
			return nil, err
		}
	}
	return coll, nil
}

func builtinContains(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	ok, err := lisp.Contains(args[0], args[1])
	if err != nil {
		return nil, err
	}
	return lisp.BoolValue(ok), nil
}

func mapArg(fn string, v lisp.Value) (*lisp.Map, error) {
	if lisp.IsNil(v) {
		return lisp.EmptyMap, nil
	}
	m, ok := v.(*lisp.Map)
	if !ok {
		return nil, libutil.TypeError(fn, "map", v)
	}
	return m, nil
}

func builtinKeys(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	m, err := mapArg("keys", args[0])
	if err != nil || m.Len() == 0 {
		return lisp.Nil, err
	}
	return lisp.NewList(m.Keys()...), nil
}

func builtinVals(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	m, err := mapArg("vals", args[0])
	if err != nil || m.Len() == 0 {
		return lisp.Nil, err
	}
	return lisp.NewList(m.Vals()...), nil
}

func entry(fn string, v lisp.Value) (*lisp.MapEntry, error) {
	e, ok := v.(*lisp.MapEntry)
	if !ok {
		return nil, libutil.TypeError(fn, "map entry", v)
	}
	return e, nil
}

func builtinKey(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	e, err := entry("key", args[0])
	if err != nil {
		return nil, err
	}
	return e.Key, nil
}

func builtinVal(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	e, err := entry("val", args[0])
	if err != nil {
		return nil, err
	}
	return e.Val, nil
}

func builtinVector(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	items := make([]lisp.Value, len(args))
	copy(items, args)
	return lisp.NewVector(items), nil
}

func builtinHashMap(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.NewMap(args...)
}

func builtinHashSet(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lisp.NewSet(args...), nil
}

func builtinMakeLazySeq(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	fn := args[0]
	if !lisp.IsFn(fn) {
		return nil, libutil.TypeError("make-lazy-seq", "function", fn)
	}
	rt := c.Runtime()
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		return libutil.Call(rt, fn)
	}), nil
}

func builtinReverse(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	vals, err := lisp.SeqSlice(args[0])
	if err != nil {
		return nil, err
	}
	out := lisp.EmptyList
	for _, v := range vals {
		out = out.Cons(v)
	}
	return out, nil
}

func lazyMap(rt *lisp.Runtime, fn lisp.Value, colls []lisp.Value) lisp.Value {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		args := make([]lisp.Value, len(colls))
		rest := make([]lisp.Value, len(colls))
		for i, coll := range colls {
			s, err := lisp.ToSeq(coll)
			if err != nil || s == nil {
				return lisp.Nil, err
			}
			next, err := s.Next()
			if err != nil {
				return nil, err
			}
			args[i], rest[i] = s.First(), seqValue(next)
		}
		v, err := libutil.Call(rt, fn, args...)
		if err != nil {
			return nil, err
		}
		return lisp.NewCons(v, lazyMap(rt, fn, rest)), nil
	})
}

func builtinMap(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lazyMap(c.Runtime(), args[0], args[1:]), nil
}

func lazyFilter(rt *lisp.Runtime, pred lisp.Value, coll lisp.Value) lisp.Value {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		s, err := lisp.ToSeq(coll)
		for ; err == nil && s != nil; s, err = s.Next() {
			ok, err := libutil.Call(rt, pred, s.First())
			if err != nil {
				return nil, err
			}
			if lisp.Truthy(ok) {
				next, err := s.Next()
				if err != nil {
					return nil, err
				}
				return lisp.NewCons(s.First(), lazyFilter(rt, pred, seqValue(next))), nil
			}
		}
		return lisp.Nil, err
	})
}

func builtinFilter(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	return lazyFilter(c.Runtime(), args[0], args[1]), nil
}

func builtinReduce(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	fn := args[0]
	coll := args[len(args)-1]
	s, err := lisp.ToSeq(coll)
	if err != nil {
		return nil, err
	}
	var acc lisp.Value
	if len(args) == 3 {
		acc = args[1]
	} else {
		if s == nil {
			return c.Call(fn)
		}
		acc = s.First()
		if s, err = s.Next(); err != nil {
			return nil, err
		}
	}
	for ; s != nil; s, err = s.Next() {
		if acc, err = c.Call(fn, acc, s.First()); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func lazyRange(start, end, step lisp.Value) lisp.Value {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		if end != nil {
			cmp, err := lisp.CompareNumbers(start, end)
			if err != nil {
				return nil, err
			}
			if (lisp.Sign(step) > 0 && cmp >= 0) || (lisp.Sign(step) < 0 && cmp <= 0) || lisp.Sign(step) == 0 {
				return lisp.Nil, nil
			}
		}
		next, err := lisp.Add(start, step)
		if err != nil {
			return nil, err
		}
		return lisp.NewCons(start, lazyRange(next, end, step)), nil
	})
}

func builtinRange(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	for _, arg := range args {
		if !lisp.IsNumber(arg) {
			return nil, libutil.TypeError("range", "number", arg)
		}
	}
	var start, end, step lisp.Value = lisp.Int(0), nil, lisp.Int(1)
	switch len(args) {
	case 1:
		end = args[0]
	case 2:
		start, end = args[0], args[1]
	case 3:
		start, end, step = args[0], args[1], args[2]
	}
	return lazyRange(start, end, step), nil
}

func lazyTake(n int, coll lisp.Value) lisp.Value {
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		if n <= 0 {
			return lisp.Nil, nil
		}
		s, err := lisp.ToSeq(coll)
		if err != nil || s == nil {
			return lisp.Nil, err
		}
		if n == 1 {
			return lisp.NewList(s.First()), nil
		}
		next, err := s.Next()
		if err != nil {
			return nil, err
		}
		return lisp.NewCons(s.First(), lazyTake(n-1, seqValue(next))), nil
	})
}

func builtinTake(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	n, err := libutil.Int("take", args[0])
	if err != nil {
		return nil, err
	}
	return lazyTake(n, args[1]), nil
}

func builtinDrop(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	n, err := libutil.Int("drop", args[0])
	if err != nil {
		return nil, err
	}
	coll := args[1]
	return lisp.NewLazySeq(func() (lisp.Value, error) {
		s, err := lisp.ToSeq(coll)
		for i := 0; err == nil && s != nil && i < n; i++ {
			s, err = s.Next()
		}
		if err != nil {
			return nil, err
		}
		return seqValue(s), nil
	}), nil
}

func builtinInto(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	to := args[0]
	s, err := lisp.ToSeq(args[1])
	for ; err == nil && s != nil; s, err = s.Next() {
		if to, err = lisp.Conj(to, s.First()); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}
	return to, nil
}

func builtinIsEmpty(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := lisp.ToSeq(args[0])
	if err != nil {
		return nil, err
	}
	return lisp.BoolValue(s == nil), nil
}
