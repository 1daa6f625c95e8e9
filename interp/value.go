package interp

import (
	"bytes"
	"fmt"
	"reflect"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindUnit Kind = iota
	KindI64
	KindF64
	KindFunc
	KindVector
	KindVectorSlice
	KindArray
	KindArraySlice
	KindArrayBuffer
	KindList
	KindString
	KindQuote
	KindTypeQuote
	KindContinue
	KindWeakRef
	KindSymbol
	KindKeyword
	KindData
	KindSyntax
	KindClosure
	KindPointer
	KindType
	KindGenFunc
	KindHashMap
)

func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindI64:
		return "i64"
	case KindF64:
		return "f64"
	case KindFunc:
		return "func"
	case KindVector:
		return "vector"
	case KindVectorSlice:
		return "vector-slice"
	case KindArray:
		return "array"
	case KindArraySlice:
		return "array-slice"
	case KindArrayBuffer:
		return "array-buffer"
	case KindList:
		return "list"
	case KindString:
		return "string"
	case KindQuote:
		return "quote"
	case KindTypeQuote:
		return "type-quote"
	case KindContinue:
		return "continue"
	case KindWeakRef:
		return "weak-ref"
	case KindSymbol:
		return "symbol"
	case KindKeyword:
		return "keyword"
	case KindData:
		return "data"
	case KindSyntax:
		return "syntax"
	case KindClosure:
		return "closure"
	case KindPointer:
		return "pointer"
	case KindType:
		return "type"
	case KindGenFunc:
		return "generic-function"
	case KindHashMap:
		return "hash-map"
	default:
		return "???"
	}
}

// Value is an NSE value. Exactly one concrete type exists per Kind.
type Value interface {
	ValueKind() Kind
}

// Unit is the no-value value, distinct from the absence of a result.
type Unit struct{}

func (Unit) ValueKind() Kind { return KindUnit }

// The unit singleton.
var unit = Unit{}

// I64 is a 64-bit signed integer.
type I64 int64

func (I64) ValueKind() Kind { return KindI64 }

// F64 is a 64-bit float.
type F64 float64

func (F64) ValueKind() Kind { return KindF64 }

// Func is a native function value. Natives receive the evaluated argument
// slice and the dynamic scope of the call site.
type Func func(args []Value, scope *Scope) (Value, error)

func (Func) ValueKind() Kind { return KindFunc }

// String is an immutable byte sequence.
type String struct {
	Bytes []byte
}

func (*String) ValueKind() Kind { return KindString }

func NewString(s string) *String { return &String{Bytes: []byte(s)} }

func (s *String) String() string { return string(s.Bytes) }

// Symbol is pointer-equal within a (module, name) pair. Uninterned symbols
// have a nil module.
type Symbol struct {
	Module *Module
	Name   string
}

func (*Symbol) ValueKind() Kind { return KindSymbol }

// Keyword wraps a symbol interned in the keyword module. It shares the
// symbol's storage but carries its own tag.
type Keyword struct {
	Sym *Symbol
}

func (Keyword) ValueKind() Kind { return KindKeyword }

// Vector is an immutable indexed sequence.
type Vector struct {
	Cells []Value
	typ   *Type // computed lazily by TypeOf
}

func (*Vector) ValueKind() Kind { return KindVector }

func NewVector(cells ...Value) *Vector { return &Vector{Cells: cells} }

// VectorSlice is a shared view into a vector.
type VectorSlice struct {
	Vector *Vector
	Cells  []Value
}

func (*VectorSlice) ValueKind() Kind { return KindVectorSlice }

// Array is a mutable indexed sequence.
type Array struct {
	Cells []Value
}

func (*Array) ValueKind() Kind { return KindArray }

// ArraySlice is a shared view into an array.
type ArraySlice struct {
	Array *Array
	Cells []Value
}

func (*ArraySlice) ValueKind() Kind { return KindArraySlice }

// ArrayBuffer is a growable mutable sequence.
type ArrayBuffer struct {
	Cells []Value
}

func (*ArrayBuffer) ValueKind() Kind { return KindArrayBuffer }

// List is a singly-linked immutable list node.
type List struct {
	Head Value
	Tail *List
}

func (*List) ValueKind() Kind { return KindList }

// Quote wraps a value as a datum.
type Quote struct {
	Quoted Value
}

func (*Quote) ValueKind() Kind { return KindQuote }

// TypeQuote wraps a value to be evaluated in the type namespace.
type TypeQuote struct {
	Quoted Value
}

func (*TypeQuote) ValueKind() Kind { return KindTypeQuote }

// Continue wraps an argument vector used by tail-call rewriting. A loop
// re-enters its body when it observes one.
type Continue struct {
	Args *Vector
}

func (*Continue) ValueKind() Kind { return KindContinue }

// WeakRef is a non-owning reference box. Clear zeroes the target.
type WeakRef struct {
	Value Value
}

func (*WeakRef) ValueKind() Kind { return KindWeakRef }

func (w *WeakRef) Clear() { w.Value = unit }

// Data is an instance of a user-defined algebraic type.
type Data struct {
	Type   *Type
	Tag    *Symbol
	Fields []Value
}

func (*Data) ValueKind() Kind { return KindData }

// Syntax wraps a value with its source position.
type Syntax struct {
	File        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Quoted      Value
}

func (*Syntax) ValueKind() Kind { return KindSyntax }

// ClosureFunc is the implementation of a closure. It receives the evaluated
// arguments, the closure itself (for its environment) and the dynamic scope.
type ClosureFunc func(args []Value, cl *Closure, scope *Scope) (Value, error)

// Closure is a function together with a captured environment.
type Closure struct {
	fn  ClosureFunc
	typ *Type // function-arity type, nil for internal closures
	Env []Value
	Doc string
}

func (*Closure) ValueKind() Kind { return KindClosure }

func NewClosure(fn ClosureFunc, env []Value) *Closure {
	return &Closure{fn: fn, Env: env}
}

// GenFunc is a generic function: a name resolved through a per-module
// method registry. ParamIndices maps each argument position to the type
// parameter it contributes to, or -1 if the position does not dispatch.
type GenFunc struct {
	Name         *Symbol
	Context      *Module
	MinArity     int
	Variadic     bool
	TypeParams   int
	ParamIndices []int
}

func (*GenFunc) ValueKind() Kind { return KindGenFunc }

// Pointer is an opaque native value with a type descriptor.
type Pointer struct {
	Type  *Type
	Value any
}

func (*Pointer) ValueKind() Kind { return KindPointer }

// HashMap is a value-keyed map. Keys are hashed and compared by value
// equality.
type HashMap struct {
	typ *Type
	m   genericHashMap[Value, Value]
}

func (*HashMap) ValueKind() Kind { return KindHashMap }

// Equality is the tri-state result of comparing two values. Comparing
// against a missing value is an error, not an answer.
type Equality int

const (
	EqNotEqual Equality = iota
	EqEqual
	EqError
)

func boolToEq(b bool) Equality {
	if b {
		return EqEqual
	}
	return EqNotEqual
}

func cellsEqual(a, b []Value) Equality {
	if len(a) != len(b) {
		return EqNotEqual
	}
	for i := range a {
		if e := Equals(a[i], b[i]); e != EqEqual {
			return e
		}
	}
	return EqEqual
}

// Equals compares two values structurally. Syntax wrappers are peeked
// through on either side; closures and pointers compare by identity only,
// and natives never compare equal.
func Equals(a, b Value) Equality {
	if a == nil || b == nil {
		return EqError
	}
	if sa, ok := a.(*Syntax); ok {
		return Equals(sa.Quoted, b)
	}
	if sb, ok := b.(*Syntax); ok {
		return Equals(a, sb.Quoted)
	}
	if a.ValueKind() != b.ValueKind() {
		return EqNotEqual
	}
	if sameObject(a, b) {
		return EqEqual
	}
	switch av := a.(type) {
	case Unit:
		return EqEqual
	case I64:
		return boolToEq(av == b.(I64))
	case F64:
		return boolToEq(av == b.(F64))
	case *String:
		return boolToEq(bytes.Equal(av.Bytes, b.(*String).Bytes))
	case *Symbol:
		return boolToEq(av == b.(*Symbol))
	case Keyword:
		return boolToEq(av.Sym == b.(Keyword).Sym)
	case *Vector:
		return cellsEqual(av.Cells, b.(*Vector).Cells)
	case *VectorSlice:
		return cellsEqual(av.Cells, b.(*VectorSlice).Cells)
	case *List:
		bv := b.(*List)
		for av != nil || bv != nil {
			if av == nil || bv == nil {
				return EqNotEqual
			}
			if e := Equals(av.Head, bv.Head); e != EqEqual {
				return e
			}
			av, bv = av.Tail, bv.Tail
		}
		return EqEqual
	case *Quote:
		return Equals(av.Quoted, b.(*Quote).Quoted)
	case *TypeQuote:
		return Equals(av.Quoted, b.(*TypeQuote).Quoted)
	case *WeakRef:
		return Equals(av.Value, b.(*WeakRef).Value)
	case *Data:
		bv := b.(*Data)
		if av == bv {
			return EqEqual
		}
		if av.Type != bv.Type || av.Tag != bv.Tag {
			return EqNotEqual
		}
		return cellsEqual(av.Fields, bv.Fields)
	case *Type:
		return boolToEq(av == b.(*Type))
	default:
		// closures, pointers, mutable arrays: identity only, handled by
		// the sameObject shortcut above; natives never reach it
		return EqNotEqual
	}
}

// sameObject reports whether a and b reference the same object. Only
// reference values participate; primitives compare structurally and
// native functions are never comparable.
func sameObject(a, b Value) bool {
	ra := reflect.ValueOf(a)
	rb := reflect.ValueOf(b)
	return ra.Kind() == reflect.Ptr && rb.Kind() == reflect.Ptr && ra.Pointer() == rb.Pointer()
}

// ToSlice views a sequence value as a cell slice. The second result is
// false when the value is not sliceable.
func toSlice(v Value) ([]Value, bool) {
	switch sv := v.(type) {
	case *Vector:
		return sv.Cells, true
	case *VectorSlice:
		return sv.Cells, true
	case *Array:
		return sv.Cells, true
	case *ArraySlice:
		return sv.Cells, true
	case *ArrayBuffer:
		return sv.Cells, true
	default:
		return nil, false
	}
}

// SyntaxToDatum recursively strips syntax annotations.
func SyntaxToDatum(v Value) Value {
	switch sv := v.(type) {
	case *Syntax:
		return SyntaxToDatum(sv.Quoted)
	case *Vector:
		cells := make([]Value, len(sv.Cells))
		for i, c := range sv.Cells {
			cells[i] = SyntaxToDatum(c)
		}
		return &Vector{Cells: cells}
	case *VectorSlice:
		cells := make([]Value, len(sv.Cells))
		for i, c := range sv.Cells {
			cells[i] = SyntaxToDatum(c)
		}
		return &Vector{Cells: cells}
	case *Quote:
		return &Quote{Quoted: SyntaxToDatum(sv.Quoted)}
	case *TypeQuote:
		return &TypeQuote{Quoted: SyntaxToDatum(sv.Quoted)}
	default:
		return v
	}
}

// syntaxGet peeks through a single syntax wrapper.
func syntaxGet(v Value) Value {
	if s, ok := v.(*Syntax); ok {
		return s.Quoted
	}
	return v
}

// syntaxIs reports whether v, possibly under syntax, has the given kind.
func syntaxIs(v Value, k Kind) bool {
	return syntaxGet(v).ValueKind() == k
}

// syntaxSymbol returns the symbol under v, or nil.
func syntaxSymbol(v Value) *Symbol {
	if s, ok := syntaxGet(v).(*Symbol); ok {
		return s
	}
	return nil
}

// syntaxVector returns the vector under v, or nil.
func syntaxVector(v Value) *Vector {
	if vec, ok := syntaxGet(v).(*Vector); ok {
		return vec
	}
	return nil
}

// syntaxExact reports whether v, possibly under syntax, is the given symbol.
func syntaxExact(v Value, s *Symbol) bool {
	return syntaxSymbol(v) == s
}

// IsTruthy reports whether v is the true value. NSE has no implicit
// truthiness: only the bool data value true counts.
func IsTruthy(v Value) bool {
	d, ok := syntaxGet(v).(*Data)
	return ok && d.Type == boolType && d.Tag != nil && d.Tag.Name == "true"
}

func (s *Syntax) position() string {
	if s.File == "" {
		return fmt.Sprintf("%d:%d", s.StartLine, s.StartColumn)
	}
	return fmt.Sprintf("%s:%d:%d", s.File, s.StartLine, s.StartColumn)
}
