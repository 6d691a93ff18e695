// Copyright © 2018 The ELPS authors

// Package libio implements printing, file input and YAML data exchange.
package libio

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"github.com/luthersystems/sxp/lisp/lisplib/internal/libutil"
	"gopkg.in/yaml.v3"
)

// DefaultNamespaceName is the namespace name used by LoadPackage.
const DefaultNamespaceName = "io"

// LoadPackage adds the io namespace to rt.
func LoadPackage(rt *lisp.Runtime) error {
	ns := rt.Registry.Namespace(DefaultNamespaceName)
	return libutil.Define(ns, builtins)
}

var builtins = []*libutil.Builtin{
	libutil.FunctionDoc("pr", 0, libutil.VarArgs, printer(lisp.PrStr, false),
		`Writes the readable forms of the arguments to standard output
		separated by spaces.`),
	libutil.FunctionDoc("prn", 0, libutil.VarArgs, printer(lisp.PrStr, true),
		`Like pr followed by a newline.`),
	libutil.FunctionDoc("print", 0, libutil.VarArgs, printer(lisp.Display, false),
		`Writes the display forms of the arguments to standard output
		separated by spaces.  Strings are written without quotes.`),
	libutil.FunctionDoc("println", 0, libutil.VarArgs, printer(lisp.Display, true),
		`Like print followed by a newline.`),
	libutil.FunctionDoc("newline", 0, 0, builtinNewline,
		`Writes a newline to standard output.`),
	libutil.FunctionDoc("slurp", 1, 1, builtinSlurp,
		`Returns the contents of the file at path as a string.`),
	libutil.FunctionDoc("yaml-read", 1, 2, builtinYAMLRead,
		`Decodes the YAML document in s.  Mappings become maps with string
		keys, or keyword keys when the second argument is truthy.
		Sequences become vectors.`),
	libutil.FunctionDoc("yaml-write", 1, 1, builtinYAMLWrite,
		`Encodes v as a YAML document and returns it as a string.`),
}

func stdout(c lisp.Caller) io.Writer {
	if w := c.Runtime().Stdout; w != nil {
		return w
	}
	return os.Stdout
}

func printer(format func(lisp.Value) string, newline bool) lisp.BuiltinFunc {
	return func(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
		parts := make([]string, len(args))
		for i, x := range args {
			if err := lisp.Realize(x); err != nil {
				return nil, err
			}
			parts[i] = format(x)
		}
		s := strings.Join(parts, " ")
		if newline {
			s += "\n"
		}
		if _, err := io.WriteString(stdout(c), s); err != nil {
			return nil, lisp.Errorf(lisp.IOError, "%v", err)
		}
		return lisp.Nil, nil
	}
}

func builtinNewline(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	if _, err := io.WriteString(stdout(c), "\n"); err != nil {
		return nil, lisp.Errorf(lisp.IOError, "%v", err)
	}
	return lisp.Nil, nil
}

func builtinSlurp(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	path, err := libutil.String("slurp", args[0])
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path) //#nosec G304
	if err != nil {
		return nil, lisp.Errorf(lisp.IOError, "%v", err)
	}
	return lisp.String(b), nil
}

func builtinYAMLRead(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	s, err := libutil.String("yaml-read", args[0])
	if err != nil {
		return nil, err
	}
	key := libutil.StringKeys
	if len(args) > 1 && lisp.Truthy(args[1]) {
		key = libutil.KeywordKeys
	}
	var x interface{}
	if err := yaml.Unmarshal([]byte(s), &x); err != nil {
		return nil, lisp.Errorf(lisp.ReaderError, "yaml-read: %v", err)
	}
	return libutil.FromGo(x, key)
}

func builtinYAMLWrite(c lisp.Caller, args []lisp.Value) (lisp.Value, error) {
	x, err := libutil.ToGo(args[0])
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(x); err != nil {
		return nil, lisp.Errorf(lisp.IOError, "yaml-write: %v", err)
	}
	if err := enc.Close(); err != nil {
		return nil, lisp.Errorf(lisp.IOError, "yaml-write: %v", err)
	}
	return lisp.String(buf.String()), nil
}

