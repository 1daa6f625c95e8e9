package interp

import "fmt"

// ErrorKind names one of the NSE error taxonomy symbols. The symbols
// themselves live in the error module of the runtime that raised them.
type ErrorKind string

const (
	outOfMemoryErrorName ErrorKind = "out-of-memory-error"
	domainErrorName      ErrorKind = "domain-error"
	patternErrorName     ErrorKind = "pattern-error"
	nameErrorName        ErrorKind = "name-error"
	syntaxErrorName      ErrorKind = "syntax-error"
	ioErrorName          ErrorKind = "io-error"
)

// Error is an NSE evaluation error: a kind symbol, a message, and the
// syntax form that was being evaluated when the error was raised. Only try
// consumes it; everything else propagates it unchanged.
type Error struct {
	Kind     ErrorKind
	Message  string
	Form     *Syntax
	ArgIndex int
}

func (e *Error) Error() string {
	if e.Form != nil {
		return fmt.Sprintf("error(%s): %s at %s", e.Kind, e.Message, e.Form.position())
	}
	return fmt.Sprintf("error(%s): %s", e.Kind, e.Message)
}

// raisef creates a new error of the given kind.
func raisef(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), ArgIndex: -1}
}

// withForm attributes err to form if it is a syntax wrapper, replacing any
// earlier form and argument index.
func withForm(err error, form Value) error {
	e, ok := err.(*Error)
	if !ok {
		return err
	}
	if s, ok := form.(*Syntax); ok {
		e.Form = s
		e.ArgIndex = -1
	}
	return e
}

// withArgIndex records which argument position produced err so the caller
// can re-attribute the error to that argument's source form.
func withArgIndex(err error, index int) error {
	if e, ok := err.(*Error); ok {
		e.ArgIndex = index
	}
	return err
}

// asError coerces any error into an *Error; foreign errors surface as
// io-error since only the stream boundary produces them.
func asError(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: ioErrorName, Message: err.Error(), ArgIndex: -1}
}

// traceFrame is one entry of the call-stack trace: the applied function,
// its arguments and the source form of the call.
type traceFrame struct {
	fn   Value
	args []Value
	form *Syntax
}

// pushTrace records an application on the runtime's call-stack trace. The
// trace only grows while a source form is known, mirroring the fact that
// synthetic applications have no position to report.
func (rt *Runtime) pushTrace(fn Value, args []Value) bool {
	if rt.debugForm == nil {
		return false
	}
	rt.trace = append(rt.trace, traceFrame{fn: fn, args: args, form: rt.debugForm})
	return true
}

func (rt *Runtime) popTrace() {
	if len(rt.trace) > 0 {
		rt.trace = rt.trace[:len(rt.trace)-1]
	}
}

// stackTrace snapshots the current call-stack trace as a list of
// (function args form) vectors, innermost call first.
func (rt *Runtime) stackTrace() *List {
	var list *List
	for _, f := range rt.trace {
		var form Value = unit
		if f.form != nil {
			form = f.form
		}
		entry := NewVector(f.fn, NewVector(f.args...), form)
		list = &List{Head: entry, Tail: list}
	}
	return list
}

func (rt *Runtime) clearTrace() {
	rt.trace = rt.trace[:0]
}

// pushDebugForm makes form the current debug form and returns the previous
// one for restoration.
func (rt *Runtime) pushDebugForm(form *Syntax) *Syntax {
	previous := rt.debugForm
	rt.debugForm = form
	return previous
}

// popDebugForm restores the previous debug form on success; on error the
// innermost form is kept so diagnostics point at the failure site.
func (rt *Runtime) popDebugForm(err error, previous *Syntax) {
	if err == nil {
		rt.debugForm = previous
	}
}
