package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueTruthy(t *testing.T) {
	assert.False(t, Nil.Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.True(t, Bool(true).Truthy())
	assert.True(t, Number(0).Truthy())
	assert.True(t, Number(-1).Truthy())
}

func TestValueEqualPrimitives(t *testing.T) {
	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(Number(2)))
	assert.True(t, Bool(true).Equal(Bool(true)))
	assert.False(t, Bool(true).Equal(Bool(false)))
	assert.True(t, Nil.Equal(Nil))
	assert.False(t, Number(0).Equal(Nil))
}

func TestValueEqualInternedStrings(t *testing.T) {
	heap := NewHeap()
	interner := NewInterner(heap)
	defer interner.Close()

	a := ObjectOf(interner.Get("hello"))
	b := ObjectOf(interner.Get("hel" + "lo"))
	assert.True(t, a.Equal(b))
}

func TestValueStringRendering(t *testing.T) {
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "3", Number(3).String())
	assert.Equal(t, "3.5", Number(3.5).String())

	heap := NewHeap()
	interner := NewInterner(heap)
	defer interner.Close()
	assert.Equal(t, "hi", ObjectOf(interner.Get("hi")).String())
}
