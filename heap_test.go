package golox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapMakeAndGet(t *testing.T) {
	h := NewHeap()
	p := Make(h, &String{chars: "hi"})
	require.True(t, p.Valid())
	assert.Equal(t, "hi", p.Get().chars)
}

func TestHeapCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap()
	kept := Make(h, &String{chars: "kept"})
	_ = Make(h, &String{chars: "garbage"})

	h.OnMarkRoots(func() { h.Mark(kept.Obj()) })

	require.Equal(t, 2, h.Stats().LiveObjects)
	h.Collect()
	assert.Equal(t, 1, h.Stats().LiveObjects)
	assert.Equal(t, "kept", kept.Get().chars)
}

func TestHeapCollectTracesReferences(t *testing.T) {
	h := NewHeap()
	name := Make(h, &String{chars: "Greeter"})
	class := Make(h, NewClass(name))

	h.OnMarkRoots(func() { h.Mark(class.Obj()) })
	h.Collect()

	assert.Equal(t, 2, h.Stats().LiveObjects)
}

func TestHeapOnDestroyPtrFiresForSweptObjects(t *testing.T) {
	h := NewHeap()
	_ = Make(h, &String{chars: "gone"})

	var destroyed []string
	h.OnDestroyPtr(func(b *controlBlock) {
		if s, ok := b.obj.(*String); ok {
			destroyed = append(destroyed, s.chars)
		}
	})

	h.Collect()
	assert.Equal(t, []string{"gone"}, destroyed)
}

func TestHeapDetachStopsFutureCalls(t *testing.T) {
	h := NewHeap()
	kept := Make(h, &String{chars: "kept"})

	calls := 0
	detach := h.OnMarkRoots(func() { calls++; h.Mark(kept.Obj()) })
	h.Collect()
	assert.Equal(t, 1, calls)

	detach()
	h.Collect()
	assert.Equal(t, 1, calls)
	// with roots detached, kept should now be collected too
	assert.Equal(t, 0, h.Stats().LiveObjects)
}

func TestHeapShouldCollectHeuristic(t *testing.T) {
	h := NewHeap()
	assert.False(t, h.ShouldCollect())
	for i := 0; i < heapInitialThreshold; i++ {
		Make(h, &String{chars: "x"})
	}
	assert.True(t, h.ShouldCollect())
}

func TestGCPtrEqualAndAs(t *testing.T) {
	h := NewHeap()
	s := Make(h, &String{chars: "x"})
	o := s.Obj()

	narrowed, ok := As[*String](o)
	require.True(t, ok)
	assert.True(t, Equal(s, narrowed))

	_, ok = As[*Class](o)
	assert.False(t, ok)
}
