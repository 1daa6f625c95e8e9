package interp

import (
	"testing"

	"github.com/shoenig/test/must"
	"github.com/stretchr/testify/require"
)

func TestInternIdempotent(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	a := m.InternSymbol("foo")
	b := m.InternSymbol("foo")
	require.Same(t, a, b)
	require.Same(t, m, a.Module)

	other, err := i.rt.CreateModule("other")
	require.NoError(t, err)
	c := other.InternSymbol("foo")
	require.NotSame(t, a, c)
}

func TestInternKeywordShared(t *testing.T) {
	i := New(Options{})
	a := i.rt.InternKeyword("k")
	b := i.rt.InternKeyword("k")
	require.Same(t, a.Sym, b.Sym)
	require.Same(t, i.rt.keywordModule, a.Sym.Module)
}

func TestCreateModuleDuplicate(t *testing.T) {
	i := New(Options{})
	_, err := i.rt.CreateModule("m")
	require.NoError(t, err)
	_, err = i.rt.CreateModule("m")
	require.Error(t, err)
	require.Equal(t, nameErrorName, err.(*Error).Kind)
}

func TestImportCopiesExternals(t *testing.T) {
	i := New(Options{})
	src, err := i.rt.CreateModule("src")
	require.NoError(t, err)
	dest, err := i.rt.CreateModule("dest")
	require.NoError(t, err)

	exported := src.ExternSymbol("exported")
	src.InternSymbol("hidden")
	dest.Import(src)

	require.Same(t, exported, dest.findInternal("exported"))
	require.Nil(t, dest.findInternal("hidden"))
}

func TestFindSymbolQualified(t *testing.T) {
	i := New(Options{})
	s, err := i.rt.FindSymbol("lang/true")
	require.NoError(t, err)
	require.Same(t, i.rt.lang.trueSymbol, s)

	_, err = i.rt.FindSymbol("lang/not-exported-name")
	require.Error(t, err)
	require.Equal(t, nameErrorName, err.(*Error).Kind)

	_, err = i.rt.FindSymbol("missing/x")
	require.Error(t, err)
	require.Equal(t, nameErrorName, err.(*Error).Kind)
}

func TestDefineReplacesBinding(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.InternSymbol("x")
	m.Define(s, I64(1))
	m.Define(s, I64(2))
	v, ok := m.defs.Get(s)
	require.True(t, ok)
	require.Equal(t, I64(2), v)
}

func TestMethodRegistryLookup(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	name := m.InternSymbol("f")

	anyImpl := Func(func([]Value, *Scope) (Value, error) { return NewString("any"), nil })
	i64Impl := Func(func([]Value, *Scope) (Value, error) { return NewString("i64"), nil })
	m.DefineMethod(name, []*Type{anyType}, anyImpl)
	m.DefineMethod(name, []*Type{i64Type}, i64Impl)

	// Exact match.
	found := m.FindMethod(name, []*Type{i64Type})
	require.NotNil(t, found)
	v, _ := found.(Func)(nil, nil)
	require.Equal(t, "i64", v.(*String).String())

	// Supertype walk.
	found = m.FindMethod(name, []*Type{stringType})
	require.NotNil(t, found)
	v, _ = found.(Func)(nil, nil)
	require.Equal(t, "any", v.(*String).String())

	// Monotonicity: pointwise more specific method wins when both match.
	numImpl := Func(func([]Value, *Scope) (Value, error) { return NewString("num"), nil })
	m.DefineMethod(name, []*Type{numType}, numImpl)
	found = m.FindMethod(name, []*Type{f64Type})
	require.NotNil(t, found)
	v, _ = found.(Func)(nil, nil)
	require.Equal(t, "num", v.(*String).String())

	// No method for an unrelated name.
	require.Nil(t, m.FindMethod(m.InternSymbol("g"), []*Type{i64Type}))
}

func TestMethodRegistryPolyInstanceKey(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	name := m.InternSymbol("len")
	impl := Func(func([]Value, *Scope) (Value, error) { return I64(0), nil })
	m.DefineMethod(name, []*Type{getPolyInstance(vectorType)}, impl)

	// A concrete instance resolves through its generic's poly instance.
	concrete := getUnaryInstance(vectorType, i64Type)
	require.NotNil(t, m.FindMethod(name, []*Type{concrete}))
}

func TestScopePushGetShadow(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.InternSymbol("x")
	sc := UseModule(m).Push(s, I64(1))

	v, err := sc.Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(1)))

	inner := sc.Push(s, I64(2))
	v, err = inner.Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(2)))

	// The outer scope is untouched after the inner frame goes away.
	v, err = sc.Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(1)))
}

func TestScopeFallsBackToModule(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.InternSymbol("x")
	m.Define(s, I64(9))
	v, err := UseModule(m).Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(9)))
}

func TestScopeDeclaredBindingRaises(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.InternSymbol("x")
	sc := UseModule(m).pushDeclared(s)
	_, err := sc.Get(s)
	must.Error(t, err)
	must.Eq(t, nameErrorName, err.(*Error).Kind)

	// A weak set makes the declared binding readable.
	must.True(t, sc.Set(s, I64(5), true))
	v, err := sc.Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(5)))
}

func TestScopeCopySharesBindings(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.InternSymbol("x")
	sc := UseModule(m).pushDeclared(s)
	cp := sc.Copy()
	sc.Set(s, I64(7), true)
	v, err := cp.Get(s)
	must.NoError(t, err)
	must.Eq(t, EqEqual, Equals(v, I64(7)))
}

func TestTypeScopeUsesTypeNamespace(t *testing.T) {
	i := New(Options{})
	m := i.rt.userModule
	s := m.findInternal("i64")
	require.NotNil(t, s)

	_, err := UseModule(m).Get(s)
	require.Error(t, err)

	v, err := useModuleTypes(m).Get(s)
	require.NoError(t, err)
	require.Same(t, i64Type, v.(*Type))
}
