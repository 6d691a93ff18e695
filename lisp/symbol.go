// Copyright © 2018 The ELPS authors

package lisp

import (
	"regexp"
	"strings"
)

// Meta is implemented by values that carry a metadata map.
type Meta interface {
	Value
	Meta() *Map
	// WithMeta returns a copy of the value using m as metadata.
	WithMeta(m *Map) Value
}

// Symbol is a possibly namespace-qualified name.  Symbols read from source
// remember their location.
type Symbol struct {
	NS     string
	Name   string
	meta   *Map
	Source *Location
}

// Sym parses a symbol name of the form "name" or "ns/name".
func Sym(s string) *Symbol {
	if i := strings.IndexByte(s, '/'); i > 0 && i < len(s)-1 {
		return &Symbol{NS: s[:i], Name: s[i+1:]}
	}
	return &Symbol{Name: s}
}

// QualifiedSym returns the symbol ns/name.
func QualifiedSym(ns, name string) *Symbol {
	return &Symbol{NS: ns, Name: name}
}

func (*Symbol) Type() Type { return TSymbol }

func (s *Symbol) String() string {
	if s.NS != "" {
		return s.NS + "/" + s.Name
	}
	return s.Name
}

// HasNS returns true if s is namespace-qualified.
func (s *Symbol) HasNS() bool { return s.NS != "" }

func (s *Symbol) Meta() *Map { return s.meta }

func (s *Symbol) WithMeta(m *Map) Value {
	cp := *s
	cp.meta = m
	return &cp
}

func (s *Symbol) Location() *Location { return s.Source }

// Is returns true if s is the unqualified symbol name.
func (s *Symbol) Is(name string) bool {
	return s.NS == "" && s.Name == name
}

// Keyword is a self-evaluating identifier such as :foo or :ns/foo.
type Keyword struct {
	NS   string
	Name string
}

// Kw parses a keyword name (without the leading colon).
func Kw(s string) Keyword {
	if i := strings.IndexByte(s, '/'); i > 0 && i < len(s)-1 {
		return Keyword{NS: s[:i], Name: s[i+1:]}
	}
	return Keyword{Name: s}
}

func (Keyword) Type() Type { return TKeyword }

func (k Keyword) String() string {
	if k.NS != "" {
		return ":" + k.NS + "/" + k.Name
	}
	return ":" + k.Name
}

// Apply looks k up in its first argument, returning the optional second
// argument when the key is missing.
func (k Keyword) Apply(c Caller, args []Value) (Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, ArityError(len(args), k.String())
	}
	var notFound Value = Nil
	if len(args) == 2 {
		notFound = args[1]
	}
	return Get(args[0], k, notFound)
}

// Metadata keys understood by the compiler and runtime.
var (
	KwMacro   = Keyword{Name: "macro"}
	KwPrivate = Keyword{Name: "private"}
	KwDynamic = Keyword{Name: "dynamic"}
	KwDoc     = Keyword{Name: "doc"}
	KwOnce    = Keyword{Name: "once"}
)

// String is an immutable string value.
type String string

func (String) Type() Type { return TString }

func (s String) String() string { return quoteString(string(s)) }

func quoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Char is a single unicode character.
type Char rune

func (Char) Type() Type { return TChar }

var charNames = map[Char]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
	'\b': "backspace",
	'\f': "formfeed",
}

func (c Char) String() string {
	if name, ok := charNames[c]; ok {
		return `\` + name
	}
	return `\` + string(rune(c))
}

// CharNamed returns the character for a name like "newline".
func CharNamed(name string) (Char, bool) {
	for c, n := range charNames {
		if n == name {
			return c, true
		}
	}
	return 0, false
}

// Regex is a compiled regular expression.
type Regex struct {
	re *regexp.Regexp
}

// NewRegex compiles pattern.
func NewRegex(pattern string) (*Regex, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, Errorf(RegexError, "%v", err)
	}
	return &Regex{re: re}, nil
}

func (*Regex) Type() Type { return TRegex }

func (r *Regex) String() string { return `#"` + r.re.String() + `"` }

// Regexp returns the compiled Go expression.
func (r *Regex) Regexp() *regexp.Regexp { return r.re }
