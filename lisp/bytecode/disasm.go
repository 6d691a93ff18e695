// Copyright © 2018 The ELPS authors

package bytecode

import (
	"fmt"
	"strings"

	"github.com/luthersystems/sxp/lisp"
	"gopkg.in/yaml.v3"
)

// Disassemble returns a human-readable listing of fn and of every function in
// its constant pool.
func (fn *Function) Disassemble() string {
	var sb strings.Builder
	fn.disassemble(&sb, map[*Function]bool{})
	return sb.String()
}

func (fn *Function) disassemble(sb *strings.Builder, seen map[*Function]bool) {
	seen[fn] = true
	name := fn.Name
	if fn.NS != "" {
		name = fn.NS + "/" + fn.Name
	}
	fmt.Fprintf(sb, "; === %s ===\n", name)
	if fn.NUpvals > 0 {
		fmt.Fprintf(sb, "; Upvalues: %d\n", fn.NUpvals)
	}
	if fn.Once {
		sb.WriteString("; Once\n")
	}
	if len(fn.Consts) > 0 {
		sb.WriteString("; Constants:\n")
		for i, c := range fn.Consts {
			fmt.Fprintf(sb, ";   [%3d] %s\n", i, constString(c))
		}
	}
	for _, m := range fn.AllMethods() {
		sb.WriteString("\n")
		m.disassemble(sb)
	}
	for _, c := range fn.Consts {
		if nested, ok := c.(*Function); ok && !seen[nested] {
			sb.WriteString("\n")
			nested.disassemble(sb, seen)
		}
	}
}

func constString(v lisp.Value) string {
	s := lisp.PrStr(v)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}

func (m *Method) disassemble(sb *strings.Builder) {
	rest := ""
	if m.Rest {
		rest = " [REST]"
	}
	fmt.Fprintf(sb, "; Method: %d required%s, %d locals\n", m.ReqArgs, rest, m.NLocals)
	for _, line := range m.Lines() {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(m.Handlers) > 0 {
		sb.WriteString("; Handlers:\n")
		for _, h := range m.Handlers {
			fmt.Fprintf(sb, ";   %s\n", h)
		}
	}
}

// Lines returns the decoded instructions of m, one per line.
func (m *Method) Lines() []string {
	var lines []string
	for pc := 0; pc < len(m.Code); {
		in, err := Decode(m.Code, pc)
		if err != nil {
			lines = append(lines, fmt.Sprintf("%04X  ; %v", pc, err))
			break
		}
		lines = append(lines, fmt.Sprintf("%04X  %s", pc, m.Fn.FormatInstruction(in)))
		pc += in.Len
	}
	return lines
}

// FormatInstruction renders in with its operands and, for constant loads, the
// constant it refers to.
func (fn *Function) FormatInstruction(in Instruction) string {
	op := in.Op
	switch {
	case op == OpNewClosure:
		parts := make([]string, len(in.Captures))
		for i, c := range in.Captures {
			kind := "free"
			if c.IsLocal {
				kind = "local"
			}
			parts[i] = fmt.Sprintf("%s:%d", kind, c.Index)
		}
		return fmt.Sprintf("%s %d [%s]", op, in.Index, strings.Join(parts, " "))
	case op.IsJump():
		return fmt.Sprintf("%s -> %04X", op, in.Index)
	case op >= OpLoadConst0 && op <= OpLoadConstS:
		comment := ""
		if in.Index < len(fn.Consts) {
			comment = " ; " + constString(fn.Consts[in.Index])
		}
		if op.OperandLen() > 0 {
			return fmt.Sprintf("%s %d%s", op, in.Index, comment)
		}
		return fmt.Sprintf("%s%s", op, comment)
	case op.OperandLen() > 0:
		return fmt.Sprintf("%s %d", op, in.Index)
	}
	return op.String()
}

// Description is a serializable summary of a compiled function.
type Description struct {
	Name      string         `yaml:"name"`
	Namespace string         `yaml:"namespace,omitempty"`
	Upvalues  int            `yaml:"upvalues,omitempty"`
	Once      bool           `yaml:"once,omitempty"`
	Constants []string       `yaml:"constants,omitempty"`
	Methods   []MethodDesc   `yaml:"methods"`
	Functions []*Description `yaml:"functions,omitempty"`
}

// MethodDesc is the serializable summary of a Method.
type MethodDesc struct {
	Required int      `yaml:"required"`
	Rest     bool     `yaml:"rest,omitempty"`
	Locals   int      `yaml:"locals"`
	Code     []string `yaml:"code"`
	Handlers []string `yaml:"handlers,omitempty"`
}

// Describe returns a tree describing fn and the functions in its constant
// pool.
func (fn *Function) Describe() *Description {
	return fn.describe(map[*Function]bool{})
}

func (fn *Function) describe(seen map[*Function]bool) *Description {
	seen[fn] = true
	d := &Description{
		Name:      fn.Name,
		Namespace: fn.NS,
		Upvalues:  fn.NUpvals,
		Once:      fn.Once,
	}
	for _, c := range fn.Consts {
		d.Constants = append(d.Constants, constString(c))
	}
	for _, m := range fn.AllMethods() {
		md := MethodDesc{
			Required: m.ReqArgs,
			Rest:     m.Rest,
			Locals:   m.NLocals,
			Code:     m.Lines(),
		}
		for _, h := range m.Handlers {
			md.Handlers = append(md.Handlers, h.String())
		}
		d.Methods = append(d.Methods, md)
	}
	for _, c := range fn.Consts {
		if nested, ok := c.(*Function); ok && !seen[nested] {
			d.Functions = append(d.Functions, nested.describe(seen))
		}
	}
	return d
}

// MarshalYAML renders the description of fn as a YAML document.
func (fn *Function) MarshalYAML() (interface{}, error) {
	return fn.Describe(), nil
}

// YAML returns the YAML encoding of fn.Describe().
func (fn *Function) YAML() ([]byte, error) {
	return yaml.Marshal(fn)
}
