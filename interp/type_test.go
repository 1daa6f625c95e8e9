package interp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSubtypeReflexiveAndRooted(t *testing.T) {
	initTypes()
	for _, typ := range []*Type{
		anyType, unitType, boolType, numType, intType, floatType,
		i64Type, f64Type, stringType, symbolType, keywordType,
		syntaxType, typeType, funcType, scopeType, streamType,
	} {
		require.True(t, IsSubtypeOf(typ, typ))
		require.True(t, IsSubtypeOf(typ, anyType))
	}
	require.True(t, IsSubtypeOf(i64Type, intType))
	require.True(t, IsSubtypeOf(i64Type, numType))
	require.False(t, IsSubtypeOf(numType, i64Type))
	require.False(t, IsSubtypeOf(i64Type, f64Type))
}

func TestNothingIsSubtypeOfEverything(t *testing.T) {
	initTypes()
	for _, typ := range []*Type{
		nothingType, anyType, i64Type, stringType, funcType,
		getFuncType(1, false),
		getUnaryInstance(vectorType, i64Type),
		getPolyInstance(vectorType),
	} {
		require.True(t, IsSubtypeOf(nothingType, typ))
	}
	require.False(t, IsSubtypeOf(anyType, nothingType))
	require.False(t, IsSubtypeOf(i64Type, nothingType))
	require.True(t, areSubtypesOf([]*Type{nothingType}, []*Type{anyType}))
}

func TestInstanceInterning(t *testing.T) {
	initTypes()
	a, err := getInstance(resultType, []*Type{i64Type, stringType})
	require.NoError(t, err)
	b, err := getInstance(resultType, []*Type{i64Type, stringType})
	require.NoError(t, err)
	require.Same(t, a, b)

	c, err := getInstance(resultType, []*Type{i64Type, i64Type})
	require.NoError(t, err)
	require.NotSame(t, a, c)

	_, err = getInstance(resultType, []*Type{i64Type})
	require.Error(t, err)
	require.Equal(t, domainErrorName, err.(*Error).Kind)
}

func TestFuncTypeInterning(t *testing.T) {
	initTypes()
	require.Same(t, getFuncType(2, false), getFuncType(2, false))
	require.NotSame(t, getFuncType(2, false), getFuncType(2, true))
	require.NotSame(t, getFuncType(2, false), getFuncType(3, false))
	require.True(t, IsSubtypeOf(getFuncType(2, false), funcType))
}

func TestPolyInstanceSupertype(t *testing.T) {
	initTypes()
	poly := getPolyInstance(vectorType)
	require.Same(t, poly, getPolyInstance(vectorType))
	concrete := getUnaryInstance(vectorType, i64Type)
	require.True(t, IsSubtypeOf(concrete, poly))
	require.True(t, IsSubtypeOf(poly, concrete))
	other := getUnaryInstance(listType, i64Type)
	require.False(t, IsSubtypeOf(other, poly))
}

func TestUnifyTypes(t *testing.T) {
	initTypes()
	require.Same(t, numType, UnifyTypes(i64Type, f64Type))
	require.Same(t, intType, UnifyTypes(i64Type, intType))
	require.Same(t, i64Type, UnifyTypes(i64Type, i64Type))
	require.Same(t, anyType, UnifyTypes(i64Type, stringType))

	poly := getPolyInstance(vectorType)
	concrete := getUnaryInstance(vectorType, i64Type)
	require.Same(t, concrete, UnifyTypes(poly, concrete))
	require.Same(t, concrete, UnifyTypes(concrete, poly))
}

func TestInstantiateType(t *testing.T) {
	initTypes()
	g := newGType(1, anyType)
	v := newPolyVar(g, 0)
	require.Same(t, i64Type, instantiateType(v, g, []*Type{i64Type}))
	// A var of a different generic is left alone.
	other := newGType(1, anyType)
	require.Same(t, v, instantiateType(v, other, []*Type{i64Type}))

	// Substitution descends into instance parameters.
	nested := getUnaryInstance(listType, v)
	instantiated := instantiateType(nested, g, []*Type{stringType})
	require.Same(t, getUnaryInstance(listType, stringType), instantiated)
}

func TestAreSubtypesOf(t *testing.T) {
	initTypes()
	a := []*Type{i64Type, stringType}
	b := []*Type{numType, anyType}
	require.True(t, areSubtypesOf(a, b))
	require.False(t, areSubtypesOf(b, a))
	require.True(t, areSubtypesOf(a, a))
	require.False(t, areSubtypesOf(a, []*Type{numType}))
}

func TestTypeOfContainers(t *testing.T) {
	initTypes()
	v := NewVector(I64(1), I64(2))
	require.Same(t, getUnaryInstance(vectorType, i64Type), TypeOf(v))

	mixed := NewVector(I64(1), NewString("x"))
	require.Same(t, getUnaryInstance(vectorType, anyType), TypeOf(mixed))

	nums := NewVector(I64(1), F64(2))
	require.Same(t, getUnaryInstance(vectorType, numType), TypeOf(nums))

	list := &List{Head: I64(1), Tail: &List{Head: NewString("x")}}
	require.Same(t, getUnaryInstance(listType, anyType), TypeOf(list))
}
