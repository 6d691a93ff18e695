// Copyright © 2024 The ELPS authors

// Package diagnostic renders errors as annotated source snippets for the
// sxp command line.
package diagnostic

import (
	"errors"

	"github.com/luthersystems/sxp/lisp"
)

// Severity indicates the severity level of a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNote
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Span identifies a region of source code to highlight in the diagnostic.
type Span struct {
	File   string // path for reading source; display name if unreadable
	Line   int    // 1-based line number
	Col    int    // 1-based start column
	EndCol int    // 1-based end column (0 = auto-detect from source)
	Label  string // text shown under the underline
}

// Diagnostic represents a single error, warning, or note with optional
// source annotations and trailing notes.
type Diagnostic struct {
	Severity Severity
	Message  string
	Spans    []Span
	Notes    []string // "= note:" lines (stack trace frames, etc.)
}

// FromError converts err into an error diagnostic.  Language errors are
// annotated with their source location and the frames of their call stack,
// innermost first.
func FromError(err error) Diagnostic {
	d := Diagnostic{Severity: SeverityError}
	var lerr *lisp.Error
	if !errors.As(err, &lerr) {
		d.Message = err.Error()
		return d
	}
	kind := lisp.ErrorRoot.Name
	if lerr.Kind != nil {
		kind = lerr.Kind.Name
	}
	d.Message = kind + ": " + lerr.Message
	loc := lerr.Source
	if top := lerr.Stack.Top(); loc == nil && top != nil {
		loc = top.Source
	}
	if loc != nil && loc.Line > 0 {
		d.Spans = append(d.Spans, Span{File: loc.File, Line: loc.Line, Col: loc.Col})
	}
	if lerr.Stack == nil {
		return d
	}
	for i := len(lerr.Stack.Frames) - 1; i >= 0; i-- {
		frame := &lerr.Stack.Frames[i]
		name := frame.QualifiedFunName(lisp.UserNamespace)
		if name == "" {
			continue
		}
		where := "unknown"
		if frame.Source != nil {
			where = frame.Source.String()
		}
		d.Notes = append(d.Notes, "in "+name+" at "+where)
	}
	return d
}
