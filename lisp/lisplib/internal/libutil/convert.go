// Copyright © 2018 The ELPS authors

package libutil

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/luthersystems/sxp/lisp"
)

// KeyFunc converts decoded map keys into values.
type KeyFunc func(k string) lisp.Value

// StringKeys keeps decoded map keys as strings.
func StringKeys(k string) lisp.Value { return lisp.String(k) }

// KeywordKeys turns decoded map keys into keywords.
func KeywordKeys(k string) lisp.Value { return lisp.Kw(k) }

// FromGo converts data produced by a generic decoder, such as encoding/json
// or yaml.v3 decoding into an interface{}, into a value.
func FromGo(x interface{}, key KeyFunc) (lisp.Value, error) {
	switch x := x.(type) {
	case nil:
		return lisp.Nil, nil
	case bool:
		return lisp.BoolValue(x), nil
	case string:
		return lisp.String(x), nil
	case int:
		return lisp.Int(x), nil
	case int64:
		return lisp.Int(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return lisp.Float(float64(x)), nil
		}
		return lisp.Int(int64(x)), nil
	case float64:
		return lisp.Float(x), nil
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return lisp.Int(n), nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, lisp.Errorf(lisp.CastError, "invalid number: %s", x)
		}
		return lisp.Float(f), nil
	case []interface{}:
		items := make([]lisp.Value, len(x))
		for i := range x {
			var err error
			if items[i], err = FromGo(x[i], key); err != nil {
				return nil, err
			}
		}
		return lisp.NewVector(items), nil
	case map[string]interface{}:
		m := lisp.EmptyMap
		for k, v := range x {
			val, err := FromGo(v, key)
			if err != nil {
				return nil, err
			}
			m = m.Assoc(key(k), val)
		}
		return m, nil
	case map[interface{}]interface{}:
		m := lisp.EmptyMap
		for k, v := range x {
			kv, err := FromGo(k, key)
			if err != nil {
				return nil, err
			}
			if s, ok := kv.(lisp.String); ok {
				kv = key(string(s))
			}
			val, err := FromGo(v, key)
			if err != nil {
				return nil, err
			}
			m = m.Assoc(kv, val)
		}
		return m, nil
	}
	return nil, lisp.Errorf(lisp.CastError, "cannot convert %T to a value", x)
}

// ToGo converts v into data that encoding/json and yaml.v3 can encode.  Map
// keys become strings: keywords and symbols by name, other values by their
// printed form.
func ToGo(v lisp.Value) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case lisp.Bool:
		return bool(x), nil
	case lisp.Int:
		return int64(x), nil
	case lisp.Float:
		return float64(x), nil
	case *lisp.Ratio:
		return x.Float(), nil
	case lisp.String:
		return string(x), nil
	case lisp.Char:
		return string(rune(x)), nil
	case lisp.Keyword:
		return keyString(x), nil
	case *lisp.Symbol:
		return x.String(), nil
	case *lisp.Map:
		m := make(map[string]interface{}, x.Len())
		for _, e := range x.Entries() {
			val, err := ToGo(e.Val)
			if err != nil {
				return nil, err
			}
			m[keyString(e.Key)] = val
		}
		return m, nil
	case *lisp.Set:
		items := x.Items()
		sort.Slice(items, func(i, j int) bool { return lisp.PrStr(items[i]) < lisp.PrStr(items[j]) })
		return seqToGo(items)
	}
	if lisp.IsNil(v) {
		return nil, nil
	}
	if lisp.IsSeqable(v) {
		items, err := lisp.SeqSlice(v)
		if err != nil {
			return nil, err
		}
		return seqToGo(items)
	}
	return nil, lisp.Errorf(lisp.CastError, "cannot encode value of type %s", lisp.TypeName(v))
}

func seqToGo(items []lisp.Value) ([]interface{}, error) {
	out := make([]interface{}, len(items))
	for i, x := range items {
		var err error
		if out[i], err = ToGo(x); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func keyString(k lisp.Value) string {
	switch k := k.(type) {
	case lisp.Keyword:
		if k.NS != "" {
			return fmt.Sprintf("%s/%s", k.NS, k.Name)
		}
		return k.Name
	case lisp.String:
		return string(k)
	case *lisp.Symbol:
		return k.String()
	}
	return lisp.PrStr(k)
}
