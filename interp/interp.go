package interp

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Runtime contains the process-wide state of one interpreter: the module
// registry, the lang/keyword/error/system modules, the current debug
// form and the call-stack trace. Evaluation is synchronous and
// single-threaded; a Runtime must not be shared between goroutines.
type Runtime struct {
	opt

	modules genericHashMap[string, *Module]

	lang          *lang
	keywordModule *Module
	errorModule   *Module
	systemModule  *Module
	userModule    *Module
	currentModule *Module

	debugForm *Syntax
	trace     []traceFrame
}

// opt stores interpreter options.
type opt struct {
	stdin  io.Reader // standard input
	stdout io.Writer // standard output
	stderr io.Writer // standard error
	logger hclog.Logger
}

// Options are the interpreter options.
type Options struct {
	// Standard input, output and error streams.
	// They default to os.Stdin, os.Stdout and os.Stderr respectively.
	Stdin          io.Reader
	Stdout, Stderr io.Writer

	// Logger receives trace output about module and definition activity.
	// It defaults to a null logger.
	Logger hclog.Logger
}

// Interpreter evaluates NSE source. The zero value is not usable; use
// New.
type Interpreter struct {
	rt *Runtime
}

// New returns a new interpreter with the lang, keyword, error, system
// and user modules initialized.
func New(options Options) *Interpreter {
	initTypes()
	rt := &Runtime{
		modules: newHashMap[string, *Module](
			func(s string) uint64 { return hashString(hashInit, s) },
			func(a, b string) bool { return a == b },
		),
	}

	if rt.opt.stdin = options.Stdin; rt.opt.stdin == nil {
		rt.opt.stdin = os.Stdin
	}
	if rt.opt.stdout = options.Stdout; rt.opt.stdout == nil {
		rt.opt.stdout = os.Stdout
	}
	if rt.opt.stderr = options.Stderr; rt.opt.stderr == nil {
		rt.opt.stderr = os.Stderr
	}
	if rt.opt.logger = options.Logger; rt.opt.logger == nil {
		rt.opt.logger = hclog.NewNullLogger()
	}

	// Module initialization order matters: the error module interns the
	// error kind symbols, lang interns the special forms, system builds
	// on both.
	rt.errorModule, _ = rt.CreateModule("error")
	for _, kind := range []ErrorKind{
		outOfMemoryErrorName, domainErrorName, patternErrorName,
		nameErrorName, syntaxErrorName, ioErrorName,
	} {
		rt.errorModule.ExternSymbol(string(kind))
	}
	rt.keywordModule, _ = rt.CreateModule("keyword")
	if err := rt.initLang(); err != nil {
		panic(err)
	}
	if err := rt.initSystem(); err != nil {
		panic(err)
	}
	rt.userModule, _ = rt.CreateModule("user")
	rt.userModule.Import(rt.lang.module)
	rt.userModule.Import(rt.systemModule)
	rt.currentModule = rt.userModule

	return &Interpreter{rt: rt}
}

// Runtime exposes the interpreter's runtime for embedders that need
// direct access to modules and values.
func (i *Interpreter) Runtime() *Runtime { return i.rt }

// Module returns the module the interpreter currently evaluates in.
func (i *Interpreter) Module() *Module { return i.rt.currentModule }

// Eval reads and evaluates every expression in src and returns the value
// of the last one.
func (i *Interpreter) Eval(src string) (Value, error) {
	return i.EvalReader(strings.NewReader(src), "<eval>")
}

// EvalReader reads and evaluates expressions from r, attributing source
// positions to name.
func (i *Interpreter) EvalReader(r io.Reader, name string) (Value, error) {
	rt := i.rt
	reader := rt.NewReader(toByteReader(r), name, rt.currentModule)
	var result Value = unit
	for {
		reader.SetModule(rt.currentModule)
		reader.skip()
		if reader.peek() == eof {
			return result, nil
		}
		code, err := reader.Read()
		if err != nil {
			return nil, err
		}
		scope := UseModule(rt.currentModule)
		result, err = Eval(code, scope)
		if err != nil {
			rt.clearTrace()
			return nil, err
		}
	}
}

// LoadFile evaluates every expression in the file at path in the current
// module.
func (i *Interpreter) LoadFile(path string) error {
	return i.rt.loadFile(path, i.rt.currentModule)
}

// toByteReader adapts any reader to the byte reader the Reader consumes.
func toByteReader(r io.Reader) io.ByteReader {
	if br, ok := r.(io.ByteReader); ok {
		return br
	}
	return &byteReader{r: r}
}

type byteReader struct {
	r   io.Reader
	buf [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	_, err := io.ReadFull(b.r, b.buf[:])
	return b.buf[0], err
}
