package lisp

const SxpVersion = "0.1"

// Interface for a profiler
type Profiler interface {
	// Is the profiler enabled?
	IsEnabled() bool
	// Enable the profiler
	Enable() error
	// Set the file to output to
	SetFile(filename string) error
	// End the profiling session and output summary lines
	Complete() error
	// Marks the start of a call.  The returned function marks its end.
	Start(fn *FunInfo) func()
}

// FunInfo describes a called function to a profiler.
type FunInfo struct {
	Package string
	Name    string
	Doc     string
	Source  *Location
	Builtin bool
}

// QualifiedName returns the namespace qualified name of the function.
func (f *FunInfo) QualifiedName() string {
	if f.Package == "" {
		return f.Name
	}
	return f.Package + "/" + f.Name
}

// FunInfoer is implemented by compiled functions and closures.
type FunInfoer interface {
	FunInfo() *FunInfo
}

// FunInfoOf describes fn, which may be any callable value.
func FunInfoOf(fn Value) *FunInfo {
	switch fn := fn.(type) {
	case FunInfoer:
		return fn.FunInfo()
	case *Builtin:
		pkg := fn.NS
		if pkg == "" {
			pkg = CoreNamespace
		}
		return &FunInfo{Package: pkg, Name: fn.Name, Doc: fn.Docs, Builtin: true}
	}
	return &FunInfo{Name: TypeName(fn)}
}
