// Copyright © 2018 The ELPS authors

package lisp

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Config is a function that configures a runtime.
type Config func(rt *Runtime) error

// WithStdout returns a Config that makes the io builtins write to w instead
// of the default, os.Stdout.
func WithStdout(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stdout = w
		return nil
	}
}

// WithStderr returns a Config that makes the runtime write debugging output
// to w instead of the default, os.Stderr.
func WithStderr(w io.Writer) Config {
	return func(rt *Runtime) error {
		rt.Stderr = w
		return nil
	}
}

// WithLogger returns a Config that replaces the runtime's logger.
func WithLogger(logger *logrus.Logger) Config {
	return func(rt *Runtime) error {
		rt.Logger = logger
		rt.Registry.Logger = logger
		return nil
	}
}

// WithReader returns a Config that makes the runtime use r to parse source
// streams.  There is no default Reader for a runtime.
func WithReader(r Reader) Config {
	return func(rt *Runtime) error {
		rt.Reader = r
		return nil
	}
}

// WithProfiler returns a Config that attaches p to every VM of the runtime.
func WithProfiler(p Profiler) Config {
	return func(rt *Runtime) error {
		rt.Profiler = p
		return nil
	}
}

// WithSpawner returns a Config that makes the runtime create VMs with fn.
func WithSpawner(fn func(rt *Runtime) Caller) Config {
	return func(rt *Runtime) error {
		rt.Spawn = fn
		return nil
	}
}

// WithMaxStackSize returns a Config that bounds the operand stack of each VM
// to n slots.
func WithMaxStackSize(n int) Config {
	return func(rt *Runtime) error {
		if n <= 0 {
			return Errorf(IllegalArgumentError, "maximum stack size must be positive: %d", n)
		}
		rt.MaxStackSize = n
		return nil
	}
}

// WithMaxFrameDepth returns a Config that bounds the number of active call
// frames.
func WithMaxFrameDepth(n int) Config {
	return func(rt *Runtime) error {
		if n <= 0 {
			return Errorf(IllegalArgumentError, "maximum frame depth must be positive: %d", n)
		}
		rt.MaxFrameDepth = n
		return nil
	}
}

// WithMaxMacroExpansions returns a Config that limits the number of
// successive macro expansions of a single form.  This prevents infinite macro
// expansion from hanging the compiler.
func WithMaxMacroExpansions(n int) Config {
	return func(rt *Runtime) error {
		rt.MaxMacroExpansions = n
		return nil
	}
}
