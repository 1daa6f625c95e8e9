package interp

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashMapSetGetDelete(t *testing.T) {
	m := newSymbolMap()
	require.Equal(t, 0, m.Len())

	a := &Symbol{Name: "a"}
	b := &Symbol{Name: "b"}
	m.Set("a", a)
	m.Set("b", b)
	require.Equal(t, 2, m.Len())

	got, ok := m.Get("a")
	require.True(t, ok)
	require.Same(t, a, got)

	_, ok = m.Get("c")
	require.False(t, ok)

	removed, ok := m.Delete("a")
	require.True(t, ok)
	require.Same(t, a, removed)
	require.Equal(t, 1, m.Len())

	_, ok = m.Get("a")
	require.False(t, ok)

	// A tombstoned slot is reusable.
	m.Set("a", a)
	got, ok = m.Get("a")
	require.True(t, ok)
	require.Same(t, a, got)
}

func TestHashMapReplace(t *testing.T) {
	m := newSymbolMap()
	a1 := &Symbol{Name: "a"}
	a2 := &Symbol{Name: "a"}
	m.Set("a", a1)
	m.Set("a", a2)
	require.Equal(t, 1, m.Len())
	got, _ := m.Get("a")
	require.Same(t, a2, got)
}

func TestHashMapGrowth(t *testing.T) {
	m := newSymbolMap()
	symbols := make(map[string]*Symbol)
	for i := 0; i < 1000; i++ {
		name := fmt.Sprintf("sym%d", i)
		s := &Symbol{Name: name}
		symbols[name] = s
		m.Set(name, s)
	}
	require.Equal(t, 1000, m.Len())
	for name, s := range symbols {
		got, ok := m.Get(name)
		require.True(t, ok, "missing %s", name)
		require.Same(t, s, got)
	}
	count := 0
	m.Each(func(string, *Symbol) bool {
		count++
		return true
	})
	require.Equal(t, 1000, count)
}

func TestHashMapValueEquality(t *testing.T) {
	m := NewHashMapValue()
	key1 := NewVector(I64(1), NewString("x"))
	key2 := NewVector(I64(1), NewString("x"))

	m.Set(key1, I64(42))
	// A structurally equal key finds the same entry.
	require.Equal(t, I64(42), m.Get(key2))
	require.Equal(t, 1, m.Len())

	m.Set(key2, I64(43))
	require.Equal(t, I64(43), m.Get(key1))
	require.Equal(t, 1, m.Len())

	require.Equal(t, I64(43), m.Unset(key1))
	require.Equal(t, 0, m.Len())
	require.Equal(t, unit, m.Get(key1))
}

func TestHashValueConsistentWithEquals(t *testing.T) {
	pairs := [][2]Value{
		{I64(7), I64(7)},
		{NewString("abc"), NewString("abc")},
		{NewVector(I64(1), I64(2)), NewVector(I64(1), I64(2))},
		{&Quote{Quoted: I64(1)}, &Quote{Quoted: I64(1)}},
	}
	for _, p := range pairs {
		require.Equal(t, EqEqual, Equals(p[0], p[1]))
		require.Equal(t, HashValue(hashInit, p[0]), HashValue(hashInit, p[1]))
	}
}
