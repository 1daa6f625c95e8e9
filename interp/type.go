package interp

import "sync"

// TypeKind identifies the variant of a type descriptor.
type TypeKind int

const (
	TypeSimple TypeKind = iota
	TypeFunc
	TypeInstance
	TypePolyInstance
	TypePolyVar
)

// Type is a reified type descriptor. Types are interned: two types with
// identical structure are the same object, so identity comparison is type
// equality.
type Type struct {
	Kind  TypeKind
	Super *Type
	Name  *Symbol

	// TypeFunc
	MinArity int
	Variadic bool

	// TypeInstance, TypePolyInstance, TypePolyVar
	Generic *GType
	// TypeInstance
	Params []*Type
	// TypePolyVar
	Index int
}

func (*Type) ValueKind() Kind { return KindType }

// GType is a generic type of fixed arity. Its concrete instances and its
// polymorphic instance are interned per generic.
type GType struct {
	Arity     int
	Name      *Symbol
	Super     *Type
	instances genericHashMap[[]*Type, *Type]
	poly      *Type
}

func newGType(arity int, super *Type) *GType {
	return &GType{
		Arity: arity,
		Super: super,
		instances: newHashMap[[]*Type, *Type](
			func(params []*Type) uint64 {
				h := hashInit
				for _, p := range params {
					h = hashUint64(h, hashPointer(p))
				}
				return h
			},
			typeArrayEquals,
		),
	}
}

// typeArrayEquals compares two type vectors by element identity.
func typeArrayEquals(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Built-in types. Created once per process; the lattice itself is
// immutable after initialization (single-writer invariant).
var (
	nothingType *Type
	anyType     *Type
	unitType    *Type
	boolType    *Type
	numType     *Type
	intType     *Type
	floatType   *Type
	i64Type     *Type
	f64Type     *Type
	stringType  *Type
	symbolType  *Type
	keywordType *Type
	contType    *Type
	syntaxType  *Type
	typeType    *Type
	funcType    *Type
	scopeType   *Type
	streamType  *Type
	gtypeType   *Type

	resultType      *GType
	vectorType      *GType
	vectorSliceType *GType
	arrayType       *GType
	arraySliceType  *GType
	arrayBufferType *GType
	listType        *GType
	weakRefType     *GType
	hashMapType     *GType
	entryType       *GType

	funcTypes     genericHashMap[funcTypeKey, *Type]
	typesInitOnce sync.Once
)

type funcTypeKey struct {
	minArity int
	variadic bool
}

func initTypes() {
	typesInitOnce.Do(func() {
		funcTypes = newHashMap[funcTypeKey, *Type](
			func(k funcTypeKey) uint64 {
				h := hashUint64(hashInit, uint64(k.minArity))
				if k.variadic {
					h = hashUint64(h, 1)
				}
				return h
			},
			func(a, b funcTypeKey) bool { return a == b },
		)
		anyType = newSimpleType(nil)
		// nothing sits below every type; its supertype link keeps the
		// method-registry climb going, and IsSubtypeOf treats it as a
		// universal subtype.
		nothingType = newSimpleType(anyType)
		unitType = newSimpleType(anyType)
		boolType = newSimpleType(anyType)
		numType = newSimpleType(anyType)
		intType = newSimpleType(numType)
		floatType = newSimpleType(numType)
		i64Type = newSimpleType(intType)
		f64Type = newSimpleType(floatType)
		stringType = newSimpleType(anyType)
		symbolType = newSimpleType(anyType)
		keywordType = newSimpleType(anyType)
		contType = newSimpleType(anyType)
		syntaxType = newSimpleType(anyType)
		typeType = newSimpleType(anyType)
		funcType = newSimpleType(anyType)
		scopeType = newSimpleType(anyType)
		streamType = newSimpleType(anyType)
		gtypeType = newSimpleType(anyType)

		resultType = newGType(2, anyType)
		vectorType = newGType(1, anyType)
		vectorSliceType = newGType(1, anyType)
		arrayType = newGType(1, anyType)
		arraySliceType = newGType(1, anyType)
		arrayBufferType = newGType(1, anyType)
		listType = newGType(1, anyType)
		weakRefType = newGType(1, anyType)
		hashMapType = newGType(2, anyType)
		entryType = newGType(2, anyType)
	})
}

// newSimpleType creates a fresh simple type with the given supertype.
func newSimpleType(super *Type) *Type {
	return &Type{Kind: TypeSimple, Super: super}
}

// newPolyVar creates a placeholder for parameter index of generic g.
func newPolyVar(g *GType, index int) *Type {
	return &Type{Kind: TypePolyVar, Generic: g, Index: index}
}

// getInstance interns an application of g to the given parameter vector.
func getInstance(g *GType, params []*Type) (*Type, error) {
	if t, ok := g.instances.Get(params); ok {
		return t, nil
	}
	if g.Arity != len(params) {
		return nil, raisef(domainErrorName, "invalid number of generic parameters, expected %d, got %d", g.Arity, len(params))
	}
	t := &Type{
		Kind:    TypeInstance,
		Super:   g.Super,
		Generic: g,
		Params:  params,
	}
	g.instances.Set(params, t)
	return t, nil
}

// getUnaryInstance is getInstance for unary generics.
func getUnaryInstance(g *GType, param *Type) *Type {
	t, _ := getInstance(g, []*Type{param})
	return t
}

// getPolyInstance returns the singleton polymorphic instance of g, the
// supertype of every concrete instance of g.
func getPolyInstance(g *GType) *Type {
	if g.poly == nil {
		g.poly = &Type{Kind: TypePolyInstance, Super: g.Super, Generic: g}
	}
	return g.poly
}

// getFuncType interns the function-arity type for (minArity, variadic).
func getFuncType(minArity int, variadic bool) *Type {
	key := funcTypeKey{minArity: minArity, variadic: variadic}
	if t, ok := funcTypes.Get(key); ok {
		return t
	}
	t := &Type{Kind: TypeFunc, Super: funcType, MinArity: minArity, Variadic: variadic}
	funcTypes.Set(key, t)
	return t
}

// instantiateType substitutes poly vars of g with the corresponding
// parameter, descending into instance parameter vectors.
func instantiateType(t *Type, g *GType, params []*Type) *Type {
	switch t.Kind {
	case TypePolyVar:
		if t.Generic == g && t.Index < len(params) && params[t.Index] != nil {
			return params[t.Index]
		}
	case TypeInstance:
		sub := make([]*Type, len(t.Params))
		for i, p := range t.Params {
			sub[i] = instantiateType(p, g, params)
		}
		if instance, err := getInstance(t.Generic, sub); err == nil {
			return instance
		}
	}
	return t
}

// IsSubtypeOf reports whether a is a subtype of or equal to b. nothing
// is a subtype of every type. A polymorphic instance of G is related to
// every concrete instance of G in both directions.
func IsSubtypeOf(a, b *Type) bool {
	if a == nothingType {
		return true
	}
	for a != nil {
		if a == b {
			return true
		}
		if a.Kind == TypePolyInstance && b.Kind == TypeInstance && a.Generic == b.Generic {
			return true
		}
		if b.Kind == TypePolyInstance && a.Kind == TypeInstance && b.Generic == a.Generic {
			return true
		}
		a = a.Super
	}
	return false
}

// areSubtypesOf reports whether the types of a are pointwise subtypes of
// the types of b.
func areSubtypesOf(a, b []*Type) bool {
	if typeArrayEquals(a, b) {
		return true
	}
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !IsSubtypeOf(a[i], b[i]) {
			return false
		}
	}
	return true
}

// UnifyTypes returns the nearest common ancestor of a and b under the
// subtype order, falling back to any. A polymorphic and a concrete
// instance of the same generic unify to the concrete one.
func UnifyTypes(a, b *Type) *Type {
	for t1 := b; t1 != nil; t1 = t1.Super {
		for t2 := a; t2 != nil; t2 = t2.Super {
			if t1 == t2 {
				return t2
			}
			if t2.Kind == TypePolyInstance && t1.Kind == TypeInstance && t2.Generic == t1.Generic {
				return t1
			}
			if t1.Kind == TypePolyInstance && t2.Kind == TypeInstance && t1.Generic == t2.Generic {
				return t2
			}
		}
	}
	return anyType
}

// TypeOf returns the type of a value. Container types are computed lazily
// and cached where the container caches them.
func TypeOf(v Value) *Type {
	switch tv := v.(type) {
	case Unit:
		return unitType
	case I64:
		return i64Type
	case F64:
		return f64Type
	case Func:
		return funcType
	case *Vector:
		if tv.typ == nil {
			tv.typ = getUnaryInstance(vectorType, unifyCellTypes(tv.Cells))
		}
		return tv.typ
	case *VectorSlice:
		return getUnaryInstance(vectorSliceType, unifyCellTypes(tv.Cells))
	case *Array:
		return getUnaryInstance(arrayType, anyType)
	case *ArraySlice:
		return getUnaryInstance(arraySliceType, anyType)
	case *ArrayBuffer:
		return getUnaryInstance(arrayBufferType, anyType)
	case *List:
		return getUnaryInstance(listType, listElemType(tv))
	case *String:
		return stringType
	case *WeakRef:
		return getUnaryInstance(weakRefType, anyType)
	case *Symbol:
		return symbolType
	case Keyword:
		return keywordType
	case *Data:
		return tv.Type
	case *Syntax:
		return syntaxType
	case *Closure:
		if tv.typ != nil {
			return tv.typ
		}
		return funcType
	case *GenFunc:
		return funcType
	case *Pointer:
		return tv.Type
	case *Type:
		return typeType
	case *Continue:
		return contType
	case *HashMap:
		if tv.typ == nil {
			t, _ := getInstance(hashMapType, []*Type{anyType, anyType})
			tv.typ = t
		}
		return tv.typ
	case *Quote, *TypeQuote:
		return anyType
	default:
		return anyType
	}
}

// unifyCellTypes unifies element types for a container; an empty or
// mixed container widens to any.
func unifyCellTypes(cells []Value) *Type {
	if len(cells) == 0 {
		return anyType
	}
	t := TypeOf(cells[0])
	for _, c := range cells[1:] {
		if t == anyType {
			break
		}
		t = UnifyTypes(t, TypeOf(c))
	}
	return t
}

func listElemType(l *List) *Type {
	if l == nil {
		return anyType
	}
	t := TypeOf(l.Head)
	for n := l.Tail; n != nil && t != anyType; n = n.Tail {
		t = UnifyTypes(t, TypeOf(n.Head))
	}
	return t
}
