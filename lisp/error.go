// Copyright © 2018 The ELPS authors

package lisp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrorKind classifies errors.  Kinds form a tree rooted at ErrorRoot and
// catch clauses match an error when the error's kind descends from the
// clause's kind.
type ErrorKind struct {
	Name   string
	Parent *ErrorKind
}

func (*ErrorKind) Type() Type { return TErrorKind }

func (k *ErrorKind) String() string { return k.Name }

// IsA returns true if k is other or descends from it.
func (k *ErrorKind) IsA(other *ErrorKind) bool {
	for x := k; x != nil; x = x.Parent {
		if x == other {
			return true
		}
	}
	return false
}

// IsWildcard returns true for kinds that match every error.
func (k *ErrorKind) IsWildcard() bool {
	return k == nil || k == ErrorRoot || k == AnyError
}

// Matches returns true if a handler for kind k catches errors of kind e.
func (k *ErrorKind) Matches(e *ErrorKind) bool {
	return k.IsWildcard() || e.IsA(k)
}

func newKind(name string) *ErrorKind { return &ErrorKind{Name: name, Parent: ErrorRoot} }

// ErrorRoot is the kind every other kind descends from.
var ErrorRoot = &ErrorKind{Name: "SxError"}

var (
	AnyError             = newKind("SxAny")
	CastError            = newKind("SxCastError")
	IOError              = newKind("SxIOError")
	ReaderError          = newKind("SxReaderError")
	RuntimeError         = newKind("SxRuntimeError")
	CompilerError        = newKind("SxCompilerError")
	SyntaxError          = newKind("SxSyntaxError")
	ArithmeticError      = newKind("SxArithmeticError")
	OutOfBoundsError     = newKind("SxOutOfBoundsError")
	NotImplementedError  = newKind("SxNotImplementedError")
	IllegalArgumentError = newKind("SxIllegalArgumentError")
	SortError            = newKind("SxSortError")
	RegexError           = newKind("SxRegexError")
)

// ErrorKinds returns all predefined error kinds, root first.
func ErrorKinds() []*ErrorKind {
	return []*ErrorKind{
		ErrorRoot, AnyError, CastError, IOError, ReaderError, RuntimeError,
		CompilerError, SyntaxError, ArithmeticError, OutOfBoundsError,
		NotImplementedError, IllegalArgumentError, SortError, RegexError,
	}
}

// DefaultErrorMessage is used by errors created without a message.
const DefaultErrorMessage = "an unknown error occurred"

// Error is the language level error value.  It implements the error interface
// so that it flows through Go code unchanged.
type Error struct {
	Kind    *ErrorKind
	Message string
	// Form is the offending form of a compile error.
	Form   Value
	Source *Location
	// Stack is captured when the error first leaves a VM frame.
	Stack *CallStack
	cause error
}

// Errorf returns a new error of the given kind.
func Errorf(kind *ErrorKind, format string, args ...interface{}) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

// NewError returns an error with the given kind and message.  An empty
// message is replaced with DefaultErrorMessage.
func NewError(kind *ErrorKind, msg string) *Error {
	if kind == nil {
		kind = ErrorRoot
	}
	if msg == "" {
		msg = DefaultErrorMessage
	}
	return &Error{Kind: kind, Message: msg}
}

// AsError converts err into an *Error.  Errors which are not already language
// errors become SxRuntimeError values wrapping err.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: RuntimeError, Message: err.Error(), cause: err}
}

// ArityError reports a call with the wrong number of arguments.
func ArityError(n int, name string) *Error {
	return Errorf(RuntimeError, "wrong number of args (%d) passed to: %s", n, name)
}

// WithForm attaches the offending form and its location to e.
func (e *Error) WithForm(form Value) *Error {
	e.Form = form
	if e.Source == nil {
		e.Source = SourceOf(form)
	}
	return e
}

func (*Error) Type() Type { return TError }

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Source != nil {
		return fmt.Sprintf("%s: %s: %s", e.Source, e.kindName(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.kindName(), e.Message)
}

func (e *Error) kindName() string {
	if e.Kind == nil {
		return ErrorRoot.Name
	}
	return e.Kind.Name
}

// String prints e the way values are printed, truncating long messages.
func (e *Error) String() string {
	msg := e.Message
	if len(msg) > 30 {
		return fmt.Sprintf("#<%s %q...>", e.kindName(), msg[:30])
	}
	return fmt.Sprintf("#<%s %q>", e.kindName(), msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches errors of the same kind so that errors.Is can test kinds.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Kind != nil && e.Kind.IsA(t.Kind)
}

// WriteTrace writes the error and a stack trace to w
func (e *Error) WriteTrace(w io.Writer) (int, error) {
	bw := bufio.NewWriter(w)
	var n int
	var err error
	wrote := func(_n int, _err error) bool {
		n += _n
		err = _err
		return err == nil
	}
	if !wrote(bw.WriteString(e.Error())) {
		return n, err
	}
	if !wrote(bw.WriteString("\n")) {
		return n, err
	}
	if e.Form != nil {
		if !wrote(fmt.Fprintf(bw, "  in form: %s\n", truncate(e.Form.String(), 80))) {
			return n, err
		}
	}
	if e.Stack != nil {
		if !wrote(e.Stack.DebugPrint(bw)) {
			return n, err
		}
	}
	return n, bw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n]) + "..."
}
