// Copyright © 2018 The ELPS authors

package libjson

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "json"

// LoadPackage adds the json namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("dump-string", 1, 1, builtinDumpString,
		`Serializes v as JSON.  Maps become objects with keywords written
		by name, sequences become arrays and nil becomes null.`),
	libutil.FunctionDoc("load-string", 1, 2, builtinLoadString,
		`Parses the JSON document s.  Objects become maps with string
		keys, or keyword keys when the second argument is truthy.  Integral
		numbers become integers.`),
}

// Dump serializes the structure of v as a JSON formatted byte slice.
func Dump(v lisp.Value) ([]byte, error) {
	x, err := libutil.ToGo(v)
	if err != nil {
		return nil, err
	}
	b, err := json.Marshal(x)
	if err != nil {
		return nil, lisp.Errorf(lisp.CastError, "json: %v", err)
	}
	return b, nil
}

// Load parses b as JSON and returns an equivalent value.
func Load(b []byte, key libutil.KeyFunc) (lisp.Value, error) {
	d := json.NewDecoder(bytes.NewReader(b))
	d.UseNumber()
	var x interface{}
	if err := d.Decode(&x); err != nil {
		return nil, lisp.Errorf(lisp.ReaderError, "json: %v", err)
	}
	var rest json.RawMessage
	if err := d.Decode(&rest); !errors.Is(err, io.EOF) {
		return nil, lisp.Errorf(lisp.ReaderError, "json: not a valid json object")
	}
	return libutil.FromGo(x, key)
}

func builtinDumpString(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	b, err := Dump(args[0])
	if err != nil {
		return nil, err
	}
	return lisp.String(b), nil
}

func builtinLoadString(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("load-string", args[0])
	if err != nil {
		return nil, err
	}
	key := libutil.StringKeys
	if len(args) > 1 && lisp.Truthy(args[1]) {
		key = libutil.KeywordKeys
	}
	return Load([]byte(s), key)
}
