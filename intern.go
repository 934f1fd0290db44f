package golox

// Interner is a weak table over the heap, keyed by string contents. It
// canonicalizes strings so equality becomes pointer identity. It never
// roots the strings it holds; entries disappear when the heap sweeps
// their object, via the destroy callback registered in NewInterner.
type Interner struct {
	heap    *Heap
	byChars map[string]GCPtr[*String]
	detach  func()
}

// NewInterner attaches a new interner to heap, registering exactly one
// onDestroyPtr callback for the lifetime of the returned value. Call
// Close to deregister it.
func NewInterner(heap *Heap) *Interner {
	in := &Interner{heap: heap, byChars: make(map[string]GCPtr[*String])}
	in.detach = heap.OnDestroyPtr(func(block *controlBlock) {
		s, ok := block.obj.(*String)
		if !ok {
			return
		}
		if existing, found := in.byChars[s.chars]; found && existing.block == block {
			delete(in.byChars, s.chars)
		}
	})
	return in
}

// Close deregisters the interner's destroy callback. The interned-
// string table must either outlive the heap's final sweep or be closed
// first.
func (in *Interner) Close() { in.detach() }

// Get returns the canonical *String for chars, allocating a new heap
// string only on first sight of these exact contents.
func (in *Interner) Get(chars string) GCPtr[*String] {
	if existing, ok := in.byChars[chars]; ok {
		return existing
	}
	p := Make(in.heap, &String{chars: chars})
	in.byChars[chars] = p
	return p
}

// Concat interns the concatenation of two strings, used by OpAdd's
// string+string case.
func (in *Interner) Concat(a, b *String) GCPtr[*String] {
	return in.Get(a.chars + b.chars)
}
