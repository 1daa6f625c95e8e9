package interp

import (
	"testing"

	"github.com/shoenig/test/must"
)

func TestEqualsPrimitives(t *testing.T) {
	must.Eq(t, EqEqual, Equals(unit, unit))
	must.Eq(t, EqEqual, Equals(I64(1), I64(1)))
	must.Eq(t, EqNotEqual, Equals(I64(1), I64(2)))
	must.Eq(t, EqEqual, Equals(F64(1.5), F64(1.5)))
	must.Eq(t, EqNotEqual, Equals(I64(1), F64(1)))
	must.Eq(t, EqEqual, Equals(NewString("ab"), NewString("ab")))
	must.Eq(t, EqNotEqual, Equals(NewString("ab"), NewString("ac")))
}

func TestEqualsContainers(t *testing.T) {
	must.Eq(t, EqEqual, Equals(
		NewVector(I64(1), NewString("x")),
		NewVector(I64(1), NewString("x"))))
	must.Eq(t, EqNotEqual, Equals(
		NewVector(I64(1)),
		NewVector(I64(1), I64(2))))
	must.Eq(t, EqEqual, Equals(
		&Quote{Quoted: I64(1)},
		&Quote{Quoted: I64(1)}))
}

func TestEqualsPeeksThroughSyntax(t *testing.T) {
	wrapped := &Syntax{Quoted: I64(3)}
	must.Eq(t, EqEqual, Equals(wrapped, I64(3)))
	must.Eq(t, EqEqual, Equals(I64(3), wrapped))
	must.Eq(t, EqEqual, Equals(&Syntax{Quoted: wrapped}, I64(3)))
}

func TestEqualsIdentityOnly(t *testing.T) {
	f := Func(func([]Value, *Scope) (Value, error) { return unit, nil })
	g := Func(func([]Value, *Scope) (Value, error) { return unit, nil })
	must.Eq(t, EqNotEqual, Equals(f, g))

	// Same object compares equal; distinct objects never do.
	c := NewClosure(nil, nil)
	must.Eq(t, EqEqual, Equals(c, c))
	must.Eq(t, EqNotEqual, Equals(c, NewClosure(nil, nil)))

	p := &Pointer{Value: 1}
	must.Eq(t, EqEqual, Equals(p, p))
	must.Eq(t, EqNotEqual, Equals(p, &Pointer{Value: 1}))

	a := &Array{Cells: []Value{I64(1)}}
	must.Eq(t, EqEqual, Equals(a, a))
	must.Eq(t, EqNotEqual, Equals(a, &Array{Cells: []Value{I64(1)}}))

	b := &ArrayBuffer{Cells: []Value{I64(1)}}
	must.Eq(t, EqEqual, Equals(b, b))
	must.Eq(t, EqEqual, Equals(&Syntax{Quoted: c}, c))
}

func TestEqualsData(t *testing.T) {
	initTypes()
	typ := newSimpleType(anyType)
	tag := &Symbol{Name: "cons"}
	a := &Data{Type: typ, Tag: tag, Fields: []Value{I64(1)}}
	b := &Data{Type: typ, Tag: tag, Fields: []Value{I64(1)}}
	c := &Data{Type: typ, Tag: tag, Fields: []Value{I64(2)}}
	d := &Data{Type: typ, Tag: &Symbol{Name: "cons"}, Fields: []Value{I64(1)}}
	must.Eq(t, EqEqual, Equals(a, b))
	must.Eq(t, EqNotEqual, Equals(a, c))
	// Tag identity, not tag name.
	must.Eq(t, EqNotEqual, Equals(a, d))
}

func TestEqualsUndefinedIsError(t *testing.T) {
	must.Eq(t, EqError, Equals(nil, I64(1)))
	must.Eq(t, EqError, Equals(I64(1), nil))
}

func TestSyntaxToDatum(t *testing.T) {
	inner := &Syntax{Quoted: I64(1)}
	outer := &Syntax{Quoted: NewVector(inner, NewString("x"))}
	datum := SyntaxToDatum(outer)
	must.Eq(t, EqEqual, Equals(datum, NewVector(I64(1), NewString("x"))))

	// Idempotent on datum-representable values.
	must.Eq(t, EqEqual, Equals(SyntaxToDatum(datum), datum))
}

func TestIsTruthy(t *testing.T) {
	i := New(Options{})
	l := i.rt.lang
	must.True(t, IsTruthy(l.trueValue))
	must.False(t, IsTruthy(l.falseValue))
	must.False(t, IsTruthy(I64(1)))
	must.False(t, IsTruthy(unit))
	must.True(t, IsTruthy(&Syntax{Quoted: l.trueValue}))
}

func TestWeakRefClear(t *testing.T) {
	w := &WeakRef{Value: I64(1)}
	must.Eq(t, EqEqual, Equals(w.Value, I64(1)))
	w.Clear()
	must.Eq(t, EqEqual, Equals(w.Value, unit))
}
