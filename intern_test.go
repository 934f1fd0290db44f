package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInternerDeduplicatesIdenticalContents(t *testing.T) {
	h := NewHeap()
	in := NewInterner(h)
	defer in.Close()

	a := in.Get("hello")
	b := in.Get("hello")
	assert.True(t, Equal(a, b))
	assert.Equal(t, 1, h.Stats().LiveObjects)
}

func TestInternerDistinctContentsDistinctHandles(t *testing.T) {
	h := NewHeap()
	in := NewInterner(h)
	defer in.Close()

	a := in.Get("hello")
	b := in.Get("world")
	assert.False(t, Equal(a, b))
}

func TestInternerConcat(t *testing.T) {
	h := NewHeap()
	in := NewInterner(h)
	defer in.Close()

	a := in.Get("foo")
	b := in.Get("bar")
	c := in.Concat(a.Get(), b.Get())
	assert.Equal(t, "foobar", c.Get().chars)
}

func TestInternerSelfCleansOnCollect(t *testing.T) {
	h := NewHeap()
	in := NewInterner(h)
	defer in.Close()

	in.Get("ephemeral")
	h.Collect() // nothing roots it, so it's swept and the table entry removed

	again := in.Get("ephemeral")
	assert.Equal(t, "ephemeral", again.Get().chars)
	assert.Equal(t, 1, h.Stats().LiveObjects)
}
