// Copyright © 2018 The ELPS authors

/*
Package parser provides the reader for sxp source text.

	form     := list | vector | map | set | macro | term
	list     := '(' item* ')'
	vector   := '[' item* ']'
	map      := '{' item* '}'
	set      := '#{' item* '}'
	macro    := "'" form | '`' form | '~@' form | '~' form | "#'" form
	          | '^' form form | '#_' form
	item     := form | comment | ','
	term     := regex | string | char | number | keyword | symbol
	comment  := ';' any* newline
*/
package parser

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/luthersystems/sxp/lisp"
	parsec "github.com/prataprc/goparsec"
)

// NewReader returns a lisp.Reader.
func NewReader() lisp.Reader {
	return &parsecReader{}
}

type parsecReader struct{}

func (p *parsecReader) Read(name string, r io.Reader) ([]lisp.Value, error) {
	d, err := NewDecoder(name, r)
	if err != nil {
		return nil, err
	}
	var forms []lisp.Value
	for {
		form, err := d.ReadOne()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return nil, err
		}
		forms = append(forms, form)
	}
}

// Decoder reads forms one at a time from a source stream.
type Decoder struct {
	src  *source
	scan parsec.Scanner
	item parsec.Parser
}

// NewDecoder reads the contents of r, which is named name in locations.
func NewDecoder(name string, r io.Reader) (*Decoder, error) {
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, lisp.Errorf(lisp.IOError, "%v", err)
	}
	src := newSource(name, text)
	return &Decoder{
		src:  src,
		scan: parsec.NewScanner(text),
		item: src.grammar(),
	}, nil
}

// ReadOne returns the next form in the stream.  At the end of the stream
// ReadOne returns io.EOF.
func (d *Decoder) ReadOne() (lisp.Value, error) {
	for {
		node, next := d.item(d.scan)
		if node == nil {
			return nil, d.atEnd()
		}
		d.scan = next
		nodes, err := cleanParsecNodeList([]parsec.ParsecNode{node})
		if err != nil {
			return nil, err
		}
		if len(nodes) > 0 {
			return nodes[0].(lisp.Value), nil
		}
	}
}

func (d *Decoder) atEnd() error {
	_, s := d.scan.SkipWS()
	if s.Endof() {
		return io.EOF
	}
	b, _ := s.Match(`.{1,16}`)
	if len(b) > 15 {
		b = append(b[:15:15], []byte("...")...)
	}
	return d.src.errorf(s.GetCursor(), "unexpected source text possibly starting: %s", b)
}

type nodeType uint

const (
	nodeList nodeType = iota
	nodeVector
	nodeMap
	nodeSet
)

var nodeTypeStrings = []string{
	nodeList:   "list",
	nodeVector: "vector",
	nodeMap:    "map",
	nodeSet:    "set",
}

func (t nodeType) String() string {
	if int(t) >= len(nodeTypeStrings) {
		return "INVALID"
	}
	return nodeTypeStrings[t]
}

// readError is the node of a malformed form.
type readError struct {
	err *lisp.Error
}

// discarded is the node of a form read after #_.
type discarded struct{}

// delimiters end numbers, keywords and symbols.
const delimiters = `\s,()\[\]{}"';@^~\\` + "`"

var (
	reHex   = regexp.MustCompile(`^[+-]?0[xX][0-9a-fA-F]+$`)
	reInt   = regexp.MustCompile(`^[+-]?[0-9]+$`)
	reRatio = regexp.MustCompile(`^([+-]?[0-9]+)/([0-9]+)$`)
	reFloat = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]*)?([eE][+-]?[0-9]+)?$`)
)

// source maps scanner offsets to locations within one stream.
type source struct {
	name  string
	text  []byte
	lines []int
}

func newSource(name string, text []byte) *source {
	lines := []int{0}
	for i, b := range text {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &source{name: name, text: text, lines: lines}
}

func (src *source) location(pos int) *lisp.Location {
	line := sort.Search(len(src.lines), func(i int) bool { return src.lines[i] > pos })
	start := src.lines[line-1]
	end := pos
	if end > len(src.text) {
		end = len(src.text)
	}
	return &lisp.Location{
		File: src.name,
		Line: line,
		Col:  utf8.RuneCount(src.text[start:end]) + 1,
	}
}

func (src *source) errorf(pos int, format string, args ...interface{}) *lisp.Error {
	err := lisp.Errorf(lisp.ReaderError, format, args...)
	err.Source = src.location(pos)
	return err
}

func (src *source) fail(t *parsec.Terminal, format string, args ...interface{}) parsec.ParsecNode {
	return &readError{src.errorf(t.Position, format, args...)}
}

func (src *source) grammar() parsec.Parser {
	openP := parsec.Atom("(", "OPENP")
	closeP := parsec.Atom(")", "CLOSEP")
	openB := parsec.Atom("[", "OPENB")
	closeB := parsec.Atom("]", "CLOSEB")
	openC := parsec.Atom("{", "OPENC")
	openS := parsec.Atom("#{", "OPENS")
	closeC := parsec.Atom("}", "CLOSEC")
	comment := parsec.Token(`;[^\n]*`, "COMMENT")
	comma := parsec.Atom(",", "COMMA")

	regex := parsec.Token(`#"(?:[^"\\]|\\(?s:.))*"`, "REGEX")
	str := parsec.Token(`"(?:[^"\\]|\\(?s:.))*"`, "STRING")
	char := parsec.Token(`\\(?:newline|space|tab|return|backspace|formfeed|u[0-9a-fA-F]{4}|(?s:.))`, "CHAR")
	number := parsec.Token(`[+-]?[0-9][^`+delimiters+`]*`, "NUMBER")
	keyword := parsec.Token(`:[^`+delimiters+`]+`, "KEYWORD")
	symbol := parsec.Token(`[^`+delimiters+`#:0-9][^`+delimiters+`]*`, "SYMBOL")
	term := parsec.OrdChoice(src.term, regex, str, char, number, keyword, symbol)

	var form parsec.Parser // forward declaration allows for recursive parsing
	item := parsec.OrdChoice(nil, comment, comma, &form)
	items := parsec.Kleene(nil, item)
	list := parsec.And(src.collection(nodeList), openP, items, closeP)
	vector := parsec.And(src.collection(nodeVector), openB, items, closeB)
	hashMap := parsec.And(src.collection(nodeMap), openC, items, closeC)
	set := parsec.And(src.collection(nodeSet), openS, items, closeC)
	unmatched := parsec.And(src.unmatched,
		parsec.OrdChoice(nil, openP, openB, openS, openC), items, parsec.End())

	quote := parsec.And(src.wrap("quote"), parsec.Atom("'", "QUOTE"), &form)
	syntaxQuote := parsec.And(src.wrap("quasiquote"), parsec.Atom("`", "SYNTAXQUOTE"), &form)
	splice := parsec.And(src.wrap("unquote-splicing"), parsec.Atom("~@", "SPLICE"), &form)
	unquote := parsec.And(src.wrap("unquote"), parsec.Atom("~", "UNQUOTE"), &form)
	varQuote := parsec.And(src.wrap("var"), parsec.Atom("#'", "VARQUOTE"), &form)
	meta := parsec.And(src.meta, parsec.Atom("^", "META"), &form, &form)
	discard := parsec.And(src.discard, parsec.Atom("#_", "DISCARD"), &form)

	form = parsec.OrdChoice(nil,
		list,
		vector,
		set,
		hashMap,
		quote,
		syntaxQuote,
		splice,
		unquote,
		varQuote,
		meta,
		discard,
		term,
		// Error matching cases come last because they have the lowest
		// precedence.
		unmatched,
	)
	return item
}

func (src *source) term(nodes []parsec.ParsecNode) parsec.ParsecNode {
	t := nodes[0].(*parsec.Terminal)
	switch t.Name {
	case "REGEX":
		pattern := strings.ReplaceAll(t.Value[2:len(t.Value)-1], `\"`, `"`)
		re, err := lisp.NewRegex(pattern)
		if err != nil {
			return src.fail(t, "invalid regular expression: %s", lisp.AsError(err).Message)
		}
		return re
	case "STRING":
		s, err := unquoteString(t.Value[1 : len(t.Value)-1])
		if err != nil {
			return src.fail(t, "%v", err)
		}
		return lisp.String(s)
	case "CHAR":
		return src.char(t)
	case "NUMBER":
		return src.number(t)
	case "KEYWORD":
		return lisp.Kw(t.Value[1:])
	case "SYMBOL":
		switch t.Value {
		case "nil":
			return lisp.Nil
		case "true":
			return lisp.True
		case "false":
			return lisp.False
		}
		sym := lisp.Sym(t.Value)
		sym.Source = src.location(t.Position)
		return sym
	}
	return src.fail(t, "unexpected token: %s", t.Value)
}

func (src *source) char(t *parsec.Terminal) parsec.ParsecNode {
	name := t.Value[1:]
	if c, ok := lisp.CharNamed(name); ok {
		return c
	}
	if len(name) == 5 && name[0] == 'u' {
		r, err := strconv.ParseUint(name[1:], 16, 32)
		if err != nil {
			return src.fail(t, "invalid character: %s", t.Value)
		}
		return lisp.Char(rune(r))
	}
	r, _ := utf8.DecodeRuneInString(name)
	return lisp.Char(r)
}

func (src *source) number(t *parsec.Terminal) parsec.ParsecNode {
	text := t.Value
	switch {
	case reHex.MatchString(text):
		x, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return src.fail(t, "bad number: %s", text)
		}
		return lisp.Int(x)
	case reInt.MatchString(text):
		x, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return src.fail(t, "bad number: %s", text)
		}
		return lisp.Int(x)
	case reRatio.MatchString(text):
		m := reRatio.FindStringSubmatch(text)
		num, err1 := strconv.ParseInt(m[1], 10, 64)
		den, err2 := strconv.ParseInt(m[2], 10, 64)
		if err1 != nil || err2 != nil {
			return src.fail(t, "bad number: %s", text)
		}
		x, err := lisp.NewRatio(num, den)
		if err != nil {
			return src.fail(t, "bad number: %s", text)
		}
		return x
	case reFloat.MatchString(text):
		x, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return src.fail(t, "bad number: %s", text)
		}
		return lisp.Float(x)
	}
	return src.fail(t, "invalid number: %s", text)
}

func (src *source) collection(typ nodeType) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		open := nodes[0].(*parsec.Terminal)
		items, err := cleanParsecNodeList(nodes[1 : len(nodes)-1])
		if err != nil {
			return &readError{err}
		}
		vals := make([]lisp.Value, len(items))
		for i := range items {
			vals[i] = items[i].(lisp.Value)
		}
		switch typ {
		case nodeList:
			return lisp.NewList(vals...).WithSource(src.location(open.Position))
		case nodeVector:
			return lisp.NewVector(vals)
		case nodeSet:
			return lisp.NewSet(vals...)
		default:
			m, err := lisp.NewMap(vals...)
			if err != nil {
				return src.fail(open, "map literal must contain an even number of forms")
			}
			return m
		}
	}
}

func (src *source) unmatched(nodes []parsec.ParsecNode) parsec.ParsecNode {
	open := terminal(nodes[0])
	if open == nil {
		return &readError{lisp.Errorf(lisp.ReaderError, "unmatched delimiter")}
	}
	rest := strings.TrimSpace(string(src.text[open.Position:]))
	if len(rest) > 10 {
		rest = rest[:10] + "..."
	}
	return src.fail(open, "unmatched %q starting: %v", open.Value, rest)
}

// wrap returns a Nodify building (name form).
func (src *source) wrap(name string) parsec.Nodify {
	return func(nodes []parsec.ParsecNode) parsec.ParsecNode {
		mark := nodes[0].(*parsec.Terminal)
		x, err := formNode(nodes[1])
		if err != nil {
			return &readError{err}
		}
		if x == nil {
			return src.fail(mark, "%s expects a form", mark.Value)
		}
		sym := lisp.Sym(name)
		loc := src.location(mark.Position)
		sym.Source = loc
		return lisp.NewList(sym, x).WithSource(loc)
	}
}

func (src *source) meta(nodes []parsec.ParsecNode) parsec.ParsecNode {
	mark := nodes[0].(*parsec.Terminal)
	m, err := formNode(nodes[1])
	if err != nil {
		return &readError{err}
	}
	x, err := formNode(nodes[2])
	if err != nil {
		return &readError{err}
	}
	if m == nil || x == nil {
		return src.fail(mark, "metadata expects two forms")
	}
	var meta *lisp.Map
	switch m := m.(type) {
	case lisp.Keyword:
		meta, _ = lisp.NewMap(m, lisp.True)
	case *lisp.Symbol, lisp.String:
		meta, _ = lisp.NewMap(lisp.Kw("tag"), m)
	case *lisp.Map:
		meta = m
	default:
		return src.fail(mark, "metadata must be a symbol, keyword, string or map")
	}
	target, ok := x.(lisp.Meta)
	if !ok {
		return src.fail(mark, "metadata can not be applied to %s", lisp.TypeName(x))
	}
	if old := target.Meta(); old != nil {
		for _, e := range meta.Entries() {
			old = old.Assoc(e.Key, e.Val)
		}
		meta = old
	}
	return target.WithMeta(meta)
}

func (src *source) discard(nodes []parsec.ParsecNode) parsec.ParsecNode {
	if _, err := formNode(nodes[1]); err != nil {
		return &readError{err}
	}
	return discarded{}
}

// terminal returns the first terminal in node, looking through the node
// lists built by combinators without a callback.
func terminal(node parsec.ParsecNode) *parsec.Terminal {
	switch node := node.(type) {
	case *parsec.Terminal:
		return node
	case []parsec.ParsecNode:
		if len(node) > 0 {
			return terminal(node[0])
		}
	}
	return nil
}

// formNode returns the value read by the form parser.  Discarded forms read
// as nil.
func formNode(node parsec.ParsecNode) (lisp.Value, *lisp.Error) {
	nodes, err := cleanParsecNodeList([]parsec.ParsecNode{node})
	if err != nil || len(nodes) == 0 {
		return nil, err
	}
	return nodes[0].(lisp.Value), nil
}

// cleanParsecNodeList flattens lis into the values it contains.  Comments,
// commas and discarded forms are dropped.  The first malformed form is
// returned as an error.
func cleanParsecNodeList(lis []parsec.ParsecNode) ([]parsec.ParsecNode, *lisp.Error) {
	var nodes []parsec.ParsecNode
	for _, n := range lis {
		switch node := n.(type) {
		case nil, discarded:
		case *parsec.Terminal:
		case *readError:
			return nil, node.err
		case []parsec.ParsecNode:
			clean, err := cleanParsecNodeList(node)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, clean...)
		case lisp.Value:
			nodes = append(nodes, node)
		default:
			return nil, lisp.Errorf(lisp.ReaderError, "unexpected parse node: %T", node)
		}
	}
	return nodes, nil
}

var stringEscapes = map[byte]string{
	'n':  "\n",
	't':  "\t",
	'r':  "\r",
	'b':  "\b",
	'f':  "\f",
	'0':  "\x00",
	'"':  `"`,
	'\\': `\`,
}

// unquoteString interprets the escape sequences of a string literal body.
func unquoteString(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' {
			b.WriteByte(s[i])
			continue
		}
		i++
		if esc, ok := stringEscapes[s[i]]; ok {
			b.WriteString(esc)
			continue
		}
		if s[i] == 'u' && i+4 < len(s) {
			r, err := strconv.ParseUint(s[i+1:i+5], 16, 32)
			if err == nil {
				b.WriteRune(rune(r))
				i += 4
				continue
			}
		}
		return "", fmt.Errorf("invalid escape sequence in string: \\%c", s[i])
	}
	return b.String(), nil
}
