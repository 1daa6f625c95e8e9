package interp

import (
	"bufio"
	"os"
	"strings"
)

// The system module: the named native callables the evaluator exposes to
// programs. Arithmetic and container access are generic functions with
// per-type methods so user methods can extend them.

func expectArity(args []Value, n int, form string) error {
	if len(args) != n {
		return raisef(domainErrorName, "expected %s", form)
	}
	return nil
}

func (rt *Runtime) boolValue(b bool) Value {
	if b {
		return rt.lang.trueValue
	}
	return rt.lang.falseValue
}

func i64Arg(args []Value, i int) (int64, error) {
	v, ok := args[i].(I64)
	if !ok {
		return 0, withArgIndex(raisef(domainErrorName, "expected i64"), i)
	}
	return int64(v), nil
}

// numArg widens an i64 or f64 argument to float.
func numArg(args []Value, i int) (float64, error) {
	switch v := args[i].(type) {
	case I64:
		return float64(v), nil
	case F64:
		return float64(v), nil
	default:
		return 0, withArgIndex(raisef(domainErrorName, "expected num"), i)
	}
}

func nothingSum(args []Value, _ *Scope) (Value, error) {
	return I64(0), nil
}

func i64Sum(args []Value, _ *Scope) (Value, error) {
	var sum int64
	for i := range args {
		v, err := i64Arg(args, i)
		if err != nil {
			return nil, err
		}
		sum += v
	}
	return I64(sum), nil
}

func numSum(args []Value, _ *Scope) (Value, error) {
	var sum float64
	for i := range args {
		v, err := numArg(args, i)
		if err != nil {
			return nil, err
		}
		sum += v
	}
	return F64(sum), nil
}

func i64Subtract(args []Value, _ *Scope) (Value, error) {
	first, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return I64(-first), nil
	}
	for i := 1; i < len(args); i++ {
		v, err := i64Arg(args, i)
		if err != nil {
			return nil, err
		}
		first -= v
	}
	return I64(first), nil
}

func numSubtract(args []Value, _ *Scope) (Value, error) {
	first, err := numArg(args, 0)
	if err != nil {
		return nil, err
	}
	if len(args) == 1 {
		return F64(-first), nil
	}
	for i := 1; i < len(args); i++ {
		v, err := numArg(args, i)
		if err != nil {
			return nil, err
		}
		first -= v
	}
	return F64(first), nil
}

func nothingProduct(args []Value, _ *Scope) (Value, error) {
	return I64(1), nil
}

func i64Product(args []Value, _ *Scope) (Value, error) {
	product := int64(1)
	for i := range args {
		v, err := i64Arg(args, i)
		if err != nil {
			return nil, err
		}
		product *= v
	}
	return I64(product), nil
}

func numProduct(args []Value, _ *Scope) (Value, error) {
	product := 1.0
	for i := range args {
		v, err := numArg(args, i)
		if err != nil {
			return nil, err
		}
		product *= v
	}
	return F64(product), nil
}

func i64Divide(args []Value, _ *Scope) (Value, error) {
	first, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		v, err := i64Arg(args, i)
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return nil, withArgIndex(raisef(domainErrorName, "division by zero"), i)
		}
		first /= v
	}
	return I64(first), nil
}

// numDivide divides in floating point; dividing by zero produces an
// infinity rather than an error.
func numDivide(args []Value, _ *Scope) (Value, error) {
	first, err := numArg(args, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		v, err := numArg(args, i)
		if err != nil {
			return nil, err
		}
		first /= v
	}
	return F64(first), nil
}

func anyEquals(args []Value, scope *Scope) (Value, error) {
	rt := scope.runtime()
	for i := 1; i < len(args); i++ {
		switch Equals(args[0], args[i]) {
		case EqError:
			return nil, withArgIndex(raisef(domainErrorName, "values cannot be compared"), i)
		case EqNotEqual:
			return rt.lang.falseValue, nil
		}
	}
	return rt.lang.trueValue, nil
}

func i64LessThan(args []Value, scope *Scope) (Value, error) {
	for i := 1; i < len(args); i++ {
		a, err := i64Arg(args, i-1)
		if err != nil {
			return nil, err
		}
		b, err := i64Arg(args, i)
		if err != nil {
			return nil, err
		}
		if a >= b {
			return scope.runtime().lang.falseValue, nil
		}
	}
	return scope.runtime().lang.trueValue, nil
}

func numLessThan(args []Value, scope *Scope) (Value, error) {
	for i := 1; i < len(args); i++ {
		a, err := numArg(args, i-1)
		if err != nil {
			return nil, err
		}
		b, err := numArg(args, i)
		if err != nil {
			return nil, err
		}
		if a >= b {
			return scope.runtime().lang.falseValue, nil
		}
	}
	return scope.runtime().lang.trueValue, nil
}

// listOf builds the compound form from its arguments; the core's
// compound form is the vector, the same shape the reader produces.
func listOf(args []Value, _ *Scope) (Value, error) {
	return &Vector{Cells: append([]Value(nil), args...)}, nil
}

func appendSequences(args []Value, _ *Scope) (Value, error) {
	var cells []Value
	for i, arg := range args {
		s, ok := toSlice(arg)
		if !ok {
			return nil, withArgIndex(raisef(domainErrorName, "expected vector"), i)
		}
		cells = append(cells, s...)
	}
	return &Vector{Cells: cells}, nil
}

func tabulate(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 2, "(tabulate N FUNC)"); err != nil {
		return nil, err
	}
	n, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	cells := make([]Value, n)
	for i := int64(0); i < n; i++ {
		v, err := apply(args[1], []Value{I64(i)}, scope)
		if err != nil {
			return nil, err
		}
		cells[i] = v
	}
	return &Vector{Cells: cells}, nil
}

func applyNative(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 2, "(apply FUNC VECTOR)"); err != nil {
		return nil, err
	}
	cells, ok := toSlice(args[1])
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected vector"), 1)
	}
	return apply(args[0], cells, scope)
}

func weakNative(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(weak ANY)"); err != nil {
		return nil, err
	}
	return &WeakRef{Value: args[0]}, nil
}

func typeOf(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(type-of ANY)"); err != nil {
		return nil, err
	}
	return TypeOf(args[0]), nil
}

func isA(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 2, "(is-a ANY TYPE)"); err != nil {
		return nil, err
	}
	t, ok := args[1].(*Type)
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected type"), 1)
	}
	return scope.runtime().boolValue(IsSubtypeOf(TypeOf(args[0]), t)), nil
}

func symbolName(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(symbol-name SYMBOL)"); err != nil {
		return nil, err
	}
	switch s := args[0].(type) {
	case *Symbol:
		return NewString(s.Name), nil
	case Keyword:
		return NewString(s.Sym.Name), nil
	default:
		return nil, withArgIndex(raisef(domainErrorName, "expected symbol"), 0)
	}
}

func symbolModule(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(symbol-module SYMBOL)"); err != nil {
		return nil, err
	}
	s, ok := args[0].(*Symbol)
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected symbol"), 0)
	}
	if s.Module == nil {
		return unit, nil
	}
	return NewString(s.Module.name), nil
}

func stringLength(args []Value, _ *Scope) (Value, error) {
	s := args[0].(*String)
	return I64(len(s.Bytes)), nil
}

func sequenceLength(args []Value, _ *Scope) (Value, error) {
	cells, ok := toSlice(args[0])
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected vector"), 0)
	}
	return I64(len(cells)), nil
}

func checkIndex(index int64, length int) error {
	if index < 0 || int(index) >= length {
		return withArgIndex(raisef(domainErrorName, "index out of bounds"), 1)
	}
	return nil
}

/* (get INDEX SEQ) */
func sequenceGet(args []Value, _ *Scope) (Value, error) {
	cells, ok := toSlice(args[1])
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected vector"), 1)
	}
	index, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(index, len(cells)); err != nil {
		return nil, err
	}
	return cells[index], nil
}

func stringGet(args []Value, _ *Scope) (Value, error) {
	s := args[1].(*String)
	index, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(index, len(s.Bytes)); err != nil {
		return nil, err
	}
	return I64(s.Bytes[index]), nil
}

/* (get KEY MAP) */
func hashMapGet(args []Value, _ *Scope) (Value, error) {
	m := args[1].(*HashMap)
	return m.Get(args[0]), nil
}

func mutableCells(v Value) ([]Value, bool) {
	switch tv := v.(type) {
	case *Array:
		return tv.Cells, true
	case *ArraySlice:
		return tv.Cells, true
	case *ArrayBuffer:
		return tv.Cells, true
	default:
		return nil, false
	}
}

/* (put INDEX VALUE ARRAY) */
func sequencePut(args []Value, _ *Scope) (Value, error) {
	cells, ok := mutableCells(args[2])
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected array"), 2)
	}
	index, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(index, len(cells)); err != nil {
		return nil, err
	}
	previous := cells[index]
	cells[index] = args[1]
	return previous, nil
}

/* (put KEY VALUE MAP) */
func hashMapPut(args []Value, _ *Scope) (Value, error) {
	m := args[2].(*HashMap)
	return m.Set(args[0], args[1]), nil
}

/* (delete KEY MAP) */
func hashMapDelete(args []Value, _ *Scope) (Value, error) {
	m := args[1].(*HashMap)
	return m.Unset(args[0]), nil
}

/* (delete INDEX BUFFER) */
func bufferDelete(args []Value, _ *Scope) (Value, error) {
	b := args[1].(*ArrayBuffer)
	index, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if err := checkIndex(index, len(b.Cells)); err != nil {
		return nil, err
	}
	previous := b.Cells[index]
	b.Cells = append(b.Cells[:index], b.Cells[index+1:]...)
	return previous, nil
}

/* (insert INDEX VALUE BUFFER) */
func bufferInsert(args []Value, _ *Scope) (Value, error) {
	b := args[2].(*ArrayBuffer)
	index, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	if index < 0 || int(index) > len(b.Cells) {
		return nil, withArgIndex(raisef(domainErrorName, "index out of bounds"), 0)
	}
	b.Cells = append(b.Cells[:index], append([]Value{args[1]}, b.Cells[index:]...)...)
	return args[2], nil
}

/* (push VALUE BUFFER) */
func bufferPush(args []Value, _ *Scope) (Value, error) {
	b := args[1].(*ArrayBuffer)
	b.Cells = append(b.Cells, args[0])
	return args[1], nil
}

func sequenceSlice(args []Value, _ *Scope) (Value, error) {
	offset, err := i64Arg(args, 0)
	if err != nil {
		return nil, err
	}
	length, err := i64Arg(args, 1)
	if err != nil {
		return nil, err
	}
	switch sv := args[2].(type) {
	case *Vector:
		if offset < 0 || length < 0 || int(offset+length) > len(sv.Cells) {
			return nil, withArgIndex(raisef(domainErrorName, "index out of bounds"), 0)
		}
		return &VectorSlice{Vector: sv, Cells: sv.Cells[offset : offset+length]}, nil
	case *VectorSlice:
		if offset < 0 || length < 0 || int(offset+length) > len(sv.Cells) {
			return nil, withArgIndex(raisef(domainErrorName, "index out of bounds"), 0)
		}
		return &VectorSlice{Vector: sv.Vector, Cells: sv.Cells[offset : offset+length]}, nil
	case *Array:
		if offset < 0 || length < 0 || int(offset+length) > len(sv.Cells) {
			return nil, withArgIndex(raisef(domainErrorName, "index out of bounds"), 0)
		}
		return &ArraySlice{Array: sv, Cells: sv.Cells[offset : offset+length]}, nil
	case *ArraySlice:
		if offset < 0 || length < 0 || int(offset+length) > len(sv.Cells) {
			return nil, withArgIndex(raisef(domainErrorName, "index out of bounds"), 0)
		}
		return &ArraySlice{Array: sv.Array, Cells: sv.Cells[offset : offset+length]}, nil
	default:
		return nil, withArgIndex(raisef(domainErrorName, "expected vector"), 2)
	}
}

func arrayBufferNative(args []Value, _ *Scope) (Value, error) {
	return &ArrayBuffer{Cells: append([]Value(nil), args...)}, nil
}

func hashMapNative(args []Value, _ *Scope) (Value, error) {
	m := NewHashMapValue()
	if len(args)%2 != 0 {
		return nil, raisef(domainErrorName, "expected an even number of parameters")
	}
	for i := 0; i < len(args); i += 2 {
		m.Set(args[i], args[i+1])
	}
	return m, nil
}

func hashOf(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(hash-of ANY)"); err != nil {
		return nil, err
	}
	return I64(HashValue(hashInit, args[0])), nil
}

func syntaxToDatumNative(args []Value, _ *Scope) (Value, error) {
	if err := expectArity(args, 1, "(syntax->datum ANY)"); err != nil {
		return nil, err
	}
	return SyntaxToDatum(args[0]), nil
}

func readNative(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(read STRING)"); err != nil {
		return nil, err
	}
	s, ok := args[0].(*String)
	if !ok {
		return nil, withArgIndex(raisef(domainErrorName, "expected string"), 0)
	}
	rt := scope.runtime()
	reader := rt.NewReader(strings.NewReader(s.String()), "<read>", scope.module)
	return reader.Read()
}

func evalNative(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(eval ANY)"); err != nil {
		return nil, err
	}
	return Eval(args[0], UseModule(scope.module))
}

func writeNative(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(write ANY)"); err != nil {
		return nil, err
	}
	rt := scope.runtime()
	if err := Write(args[0], rt.stdout, scope.module); err != nil {
		return nil, raisef(ioErrorName, "write failed: %v", err)
	}
	return unit, nil
}

func stringArg(args []Value, i int) (string, error) {
	s, ok := args[i].(*String)
	if !ok {
		return "", withArgIndex(raisef(domainErrorName, "expected string"), i)
	}
	return s.String(), nil
}

func defModule(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(def-module STRING)"); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	rt := scope.runtime()
	m, err := rt.CreateModule(name)
	if err != nil {
		return nil, err
	}
	m.Import(rt.lang.module)
	m.Import(rt.systemModule)
	return unit, nil
}

func inModule(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(in-module STRING)"); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	rt := scope.runtime()
	m := rt.FindModule(name)
	if m == nil {
		return nil, raisef(nameErrorName, "could not find module: %s", name)
	}
	rt.currentModule = m
	return unit, nil
}

func exportSymbols(args []Value, scope *Scope) (Value, error) {
	for i := range args {
		name, err := stringArg(args, i)
		if err != nil {
			return nil, err
		}
		scope.module.ExternSymbol(name)
	}
	return unit, nil
}

func importModule(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(import STRING)"); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	rt := scope.runtime()
	src := rt.FindModule(name)
	if src == nil {
		return nil, raisef(nameErrorName, "could not find module: %s", name)
	}
	scope.module.Import(src)
	return unit, nil
}

func loadNative(args []Value, scope *Scope) (Value, error) {
	if err := expectArity(args, 1, "(load STRING)"); err != nil {
		return nil, err
	}
	name, err := stringArg(args, 0)
	if err != nil {
		return nil, err
	}
	return unit, scope.runtime().loadFile(name, scope.module)
}

// loadFile reads expressions from path one by one and evaluates each in
// module. The load aborts on the first error.
func (rt *Runtime) loadFile(path string, module *Module) error {
	f, err := os.Open(path)
	if err != nil {
		return raisef(ioErrorName, "could not open file: %s", path)
	}
	defer f.Close()
	rt.logger.Debug("loading file", "path", path, "module", module.name)
	reader := rt.NewReader(bufio.NewReader(f), path, module)
	scope := UseModule(module)
	for {
		reader.skip()
		if reader.peek() == eof {
			return nil
		}
		code, err := reader.Read()
		if err != nil {
			return err
		}
		if _, err := Eval(code, scope); err != nil {
			return err
		}
	}
}

// initSystem creates the system module.
func (rt *Runtime) initSystem() error {
	system, err := rt.CreateModule("system")
	if err != nil {
		return err
	}
	rt.systemModule = system
	system.Import(rt.lang.module)

	system.extDefine("load", Func(loadNative))
	system.extDefine("read", Func(readNative))
	system.extDefine("eval", Func(evalNative))
	system.extDefine("write", Func(writeNative))
	system.extDefine("def-module", Func(defModule))
	system.extDefine("in-module", Func(inModule))
	system.extDefine("export", Func(exportSymbols))
	system.extDefine("import", Func(importModule))

	system.extDefine("symbol-name", Func(symbolName))
	system.extDefine("symbol-module", Func(symbolModule))

	system.extDefine("list", Func(listOf))
	system.extDefine("++", Func(appendSequences))
	system.extDefine("tabulate", Func(tabulate))
	system.extDefine("apply", Func(applyNative))
	system.extDefine("weak", Func(weakNative))
	system.extDefine("array-buffer", Func(arrayBufferNative))
	system.extDefine("hash-map", Func(hashMapNative))
	system.extDefine("hash-of", Func(hashOf))
	system.extDefine("syntax->datum", Func(syntaxToDatumNative))

	system.extDefine("type-of", Func(typeOf))
	system.extDefine("is-a", Func(isA))

	system.extDefineGeneric("+", 0, true, 1, []int{0})
	system.extDefineMethod("+", Func(nothingSum), nothingType)
	system.extDefineMethod("+", Func(i64Sum), i64Type)
	system.extDefineMethod("+", Func(numSum), numType)

	system.extDefineGeneric("-", 1, true, 1, []int{0, 0})
	system.extDefineMethod("-", Func(i64Subtract), i64Type)
	system.extDefineMethod("-", Func(numSubtract), numType)

	system.extDefineGeneric("*", 0, true, 1, []int{0})
	system.extDefineMethod("*", Func(nothingProduct), nothingType)
	system.extDefineMethod("*", Func(i64Product), i64Type)
	system.extDefineMethod("*", Func(numProduct), numType)

	system.extDefineGeneric("/", 1, true, 1, []int{0, 0})
	system.extDefineMethod("/", Func(i64Divide), i64Type)
	system.extDefineMethod("/", Func(numDivide), numType)

	system.extDefineGeneric("=", 1, true, 1, []int{0, 0})
	system.extDefineMethod("=", Func(anyEquals), anyType)

	system.extDefineGeneric("<", 1, true, 1, []int{0, 0})
	system.extDefineMethod("<", Func(i64LessThan), i64Type)
	system.extDefineMethod("<", Func(numLessThan), numType)

	system.extDefineGeneric("length", 1, false, 1, []int{0})
	system.extDefineMethod("length", Func(sequenceLength), getPolyInstance(vectorType))
	system.extDefineMethod("length", Func(sequenceLength), getPolyInstance(vectorSliceType))
	system.extDefineMethod("length", Func(sequenceLength), getPolyInstance(arrayType))
	system.extDefineMethod("length", Func(sequenceLength), getPolyInstance(arrayBufferType))
	system.extDefineMethod("length", Func(stringLength), stringType)

	system.extDefineGeneric("get", 2, false, 1, []int{-1, 0})
	system.extDefineMethod("get", Func(sequenceGet), getPolyInstance(vectorType))
	system.extDefineMethod("get", Func(sequenceGet), getPolyInstance(vectorSliceType))
	system.extDefineMethod("get", Func(sequenceGet), getPolyInstance(arrayType))
	system.extDefineMethod("get", Func(sequenceGet), getPolyInstance(arraySliceType))
	system.extDefineMethod("get", Func(sequenceGet), getPolyInstance(arrayBufferType))
	system.extDefineMethod("get", Func(stringGet), stringType)
	system.extDefineMethod("get", Func(hashMapGet), getPolyInstance(hashMapType))

	system.extDefineGeneric("slice", 3, false, 1, []int{-1, -1, 0})
	system.extDefineMethod("slice", Func(sequenceSlice), getPolyInstance(vectorType))
	system.extDefineMethod("slice", Func(sequenceSlice), getPolyInstance(vectorSliceType))
	system.extDefineMethod("slice", Func(sequenceSlice), getPolyInstance(arrayType))
	system.extDefineMethod("slice", Func(sequenceSlice), getPolyInstance(arraySliceType))

	system.extDefineGeneric("put", 3, false, 1, []int{-1, -1, 0})
	system.extDefineMethod("put", Func(sequencePut), getPolyInstance(arrayType))
	system.extDefineMethod("put", Func(sequencePut), getPolyInstance(arraySliceType))
	system.extDefineMethod("put", Func(sequencePut), getPolyInstance(arrayBufferType))
	system.extDefineMethod("put", Func(hashMapPut), getPolyInstance(hashMapType))

	system.extDefineGeneric("delete", 2, false, 1, []int{-1, 0})
	system.extDefineMethod("delete", Func(bufferDelete), getPolyInstance(arrayBufferType))
	system.extDefineMethod("delete", Func(hashMapDelete), getPolyInstance(hashMapType))

	system.extDefineGeneric("insert", 3, false, 1, []int{-1, -1, 0})
	system.extDefineMethod("insert", Func(bufferInsert), getPolyInstance(arrayBufferType))

	system.extDefineGeneric("push", 2, false, 1, []int{-1, 0})
	system.extDefineMethod("push", Func(bufferPush), getPolyInstance(arrayBufferType))

	system.extDefine("*stdin*", &Pointer{Type: streamType, Value: rt.stdin})
	system.extDefine("*stdout*", &Pointer{Type: streamType, Value: rt.stdout})
	system.extDefine("*stderr*", &Pointer{Type: streamType, Value: rt.stderr})
	return nil
}
