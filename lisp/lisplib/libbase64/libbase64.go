// Copyright © 2018 The ELPS authors

// Package libbase64 implements the base64 namespace.
package libbase64

import (
	"encoding/base64"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "base64"

// LoadPackage adds the base64 namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("encode", 1, 2, builtinEncode,
		`Encodes the bytes of string s using standard base64 encoding.  A
		truthy second argument selects the URL-safe alphabet.`),
	libutil.FunctionDoc("decode", 1, 2, builtinDecode,
		`Decodes the base64 string s and returns the decoded bytes as a
		string.  A truthy second argument selects the URL-safe alphabet.
		Raises SxIllegalArgumentError if s is not valid base64.`),
}

func encoding(args []lisp.Value) *base64.Encoding {
	if len(args) > 1 && lisp.Truthy(args[1]) {
		return base64.URLEncoding
	}
	return base64.StdEncoding
}

func builtinEncode(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("encode", args[0])
	if err != nil {
		return nil, err
	}
	return lisp.String(encoding(args).EncodeToString([]byte(s))), nil
}

func builtinDecode(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("decode", args[0])
	if err != nil {
		return nil, err
	}
	b, err := encoding(args).DecodeString(s)
	if err != nil {
		return nil, lisp.Errorf(lisp.IllegalArgumentError, "invalid base64: %v", err)
	}
	return lisp.String(b), nil
}
