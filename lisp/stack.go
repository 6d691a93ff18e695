// Copyright © 2018 The ELPS authors

package lisp

import (
	"bytes"
	"fmt"
	"io"
)

// CallStack is a snapshot of the VM frames active when an error was raised.
type CallStack struct {
	Frames []CallFrame
}

// CallFrame is one frame in the CallStack
type CallFrame struct {
	Source  *Location
	Package string
	Name    string
	PC      int
}

// QualifiedFunName returns the qualified name for the function of f.  If
// ignore is non-empty QualifiedFunName returns unqualified names for
// functions in the given namespaces.
func (f *CallFrame) QualifiedFunName(ignore ...string) string {
	if f == nil {
		return ""
	}
	if f.Package == "" {
		return f.Name
	}
	for _, pkg := range ignore {
		if pkg == f.Package {
			return f.Name
		}
	}
	var buf bytes.Buffer
	buf.WriteString(f.Package)
	buf.WriteString("/")
	buf.WriteString(f.Name)
	return buf.String()
}

func (f *CallFrame) String() string {
	desc := fmt.Sprintf("%s [pc %d]", f.QualifiedFunName(), f.PC)
	if f.Source != nil {
		return fmt.Sprintf("%s: %s", f.Source, desc)
	}
	return desc
}

// Push appends a frame to s.
func (s *CallStack) Push(f CallFrame) {
	s.Frames = append(s.Frames, f)
}

// Copy creates a copy of the current stack so that it can be attach to a
// runtime error.
func (s *CallStack) Copy() *CallStack {
	frames := make([]CallFrame, len(s.Frames))
	copy(frames, s.Frames)
	return &CallStack{Frames: frames}
}

// Top returns the CallFrame at the top of the stack or nil if none exists.
func (s *CallStack) Top() *CallFrame {
	if s == nil || len(s.Frames) == 0 {
		return nil
	}
	return &s.Frames[len(s.Frames)-1]
}

// DebugPrint prints s
func (s *CallStack) DebugPrint(w io.Writer) (int, error) {
	n, err := fmt.Fprintf(w, "Stack Trace [%d frames -- entrypoint last]:\n", len(s.Frames))
	if err != nil {
		return n, err
	}
	indent := "  "
	for i := len(s.Frames) - 1; i >= 0; i-- {
		_n, err := fmt.Fprintf(w, "%sheight %d: %s\n", indent, i, s.Frames[i].String())
		n += _n
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
