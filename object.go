package golox

// String is an immutable, interned byte sequence. Two String handles
// compare equal (via Value.Equal) iff they are the same heap object;
// intern.go is what guarantees equal contents always share one.
type String struct {
	chars string
}

func (s *String) traceRefs(h *Heap) {}

// Function is a compiled function body: its arity, its chunk, an
// optional name (nil for the top-level script), and how many upvalues
// its closures must capture. Functions are produced by the compiler and
// are immutable once their enclosing declaration finishes compiling.
type Function struct {
	Name          GCPtr[*String]
	Arity         int
	UpvalueCount  int
	Chunk         Chunk
	IsInitializer bool
}

func (f *Function) traceRefs(h *Heap) {
	h.Mark(f.Name.Obj())
	for _, c := range f.Chunk.constants {
		markValue(h, c)
	}
}

func markValue(h *Heap, v Value) {
	if v.IsObject() {
		h.Mark(v.AsObject())
	}
}

// Upvalue is an indirection for a variable captured by a nested
// function. It is open while its stack slot is live (location points at
// a slice index via a pointer into the VM's value stack) and closed
// thereafter, at which point it owns its own copy of the value. The
// transition from open to closed happens at most once.
type Upvalue struct {
	// stack is the VM value stack this upvalue was opened against.
	// Upvalues track by index rather than by pointer so that the stack
	// can grow without invalidating open upvalues.
	stack *[]Value
	index int

	closed Value
	isOpen bool
}

func newOpenUpvalue(stack *[]Value, index int) *Upvalue {
	return &Upvalue{stack: stack, index: index, isOpen: true}
}

// Location returns the current value of the slot this upvalue refers
// to, open or closed.
func (u *Upvalue) Location() Value {
	if u.isOpen {
		return (*u.stack)[u.index]
	}
	return u.closed
}

// SetLocation writes through to the slot this upvalue refers to, open
// or closed.
func (u *Upvalue) SetLocation(v Value) {
	if u.isOpen {
		(*u.stack)[u.index] = v
		return
	}
	u.closed = v
}

// Close closes the upvalue, copying out its current value so it
// survives the stack slot it used to track being popped.
func (u *Upvalue) Close() {
	if !u.isOpen {
		return
	}
	u.closed = (*u.stack)[u.index]
	u.isOpen = false
}

func (u *Upvalue) traceRefs(h *Heap) {
	markValue(h, u.Location())
}

// Closure pairs a Function with the Upvalues it captured when it was
// created. len(Upvalues) always equals Function.UpvalueCount.
type Closure struct {
	Function GCPtr[*Function]
	Upvalues []GCPtr[*Upvalue]
}

func (c *Closure) traceRefs(h *Heap) {
	h.Mark(c.Function.Obj())
	for _, uv := range c.Upvalues {
		h.Mark(uv.Obj())
	}
}

// Class is a single-inheritance class: a name and an ordered map from
// method name to the Closure implementing it. Methods copied in from a
// superclass via OpInherit live in this same map, so method lookup
// never has to walk a parent chain at call time.
type Class struct {
	Name    GCPtr[*String]
	Methods map[*String]GCPtr[*Closure]
	// methodOrder preserves insertion order for deterministic
	// disassembly / debugging output, since Go maps do not.
	methodOrder []GCPtr[*String]
}

func NewClass(name GCPtr[*String]) *Class {
	return &Class{Name: name, Methods: make(map[*String]GCPtr[*Closure])}
}

// SetMethod assigns (or overwrites) a method on the class, the runtime
// behavior of OpMethod and OpInherit's method copy.
func (c *Class) SetMethod(name GCPtr[*String], closure GCPtr[*Closure]) {
	if _, exists := c.Methods[name.Get()]; !exists {
		c.methodOrder = append(c.methodOrder, name)
	}
	c.Methods[name.Get()] = closure
}

func (c *Class) Method(name *String) (GCPtr[*Closure], bool) {
	m, ok := c.Methods[name]
	return m, ok
}

func (c *Class) traceRefs(h *Heap) {
	h.Mark(c.Name.Obj())
	for _, n := range c.methodOrder {
		h.Mark(n.Obj())
		if m, ok := c.Methods[n.Get()]; ok {
			h.Mark(m.Obj())
		}
	}
}

// Instance is a live object of some Class: the class pointer plus a
// map from field name to value, populated lazily as fields are set.
type Instance struct {
	Class  GCPtr[*Class]
	Fields map[*String]Value
	// fieldOrder preserves insertion order, same rationale as
	// Class.methodOrder.
	fieldOrder []GCPtr[*String]
}

func NewInstance(class GCPtr[*Class]) *Instance {
	return &Instance{Class: class, Fields: make(map[*String]Value)}
}

func (i *Instance) SetField(name GCPtr[*String], v Value) {
	if _, exists := i.Fields[name.Get()]; !exists {
		i.fieldOrder = append(i.fieldOrder, name)
	}
	i.Fields[name.Get()] = v
}

func (i *Instance) Field(name *String) (Value, bool) {
	v, ok := i.Fields[name]
	return v, ok
}

func (i *Instance) traceRefs(h *Heap) {
	h.Mark(i.Class.Obj())
	for _, n := range i.fieldOrder {
		h.Mark(n.Obj())
		markValue(h, i.Fields[n.Get()])
	}
}

// BoundMethod pairs a receiver value with the Closure implementing the
// method it was bound from, produced by OpGetProperty when a property
// resolves to a method instead of a field.
type BoundMethod struct {
	Receiver Value
	Method   GCPtr[*Closure]
}

func (b *BoundMethod) traceRefs(h *Heap) {
	markValue(h, b.Receiver)
	h.Mark(b.Method.Obj())
}

// NativeFn is the Go function signature every native callable
// implements. It receives its arguments as a slice and returns a single
// Value or an error (surfaced as a runtime error).
type NativeFn func(args []Value) (Value, error)

// Native is an opaque callable implemented in Go rather than compiled
// Lox bytecode, e.g. the built-in clock().
type Native struct {
	Name string
	Fn   NativeFn
}

func (n *Native) traceRefs(h *Heap) {}
