package golox

const maxFrames = 64

// callFrame is one active call's view into the shared value stack: the
// closure it is executing, its instruction pointer, and the stack index
// its local slots start at (slot 0 is the callee itself).
type callFrame struct {
	closure GCPtr[*Closure]
	ip      int
	slots   int
}

func (vm *VM) frame() *callFrame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) chunk() *Chunk { return &vm.frame().closure.Get().Function.Get().Chunk }

func (vm *VM) readByte() byte {
	f := vm.frame()
	b := vm.chunk().Code()[f.ip]
	f.ip++
	return b
}

func (vm *VM) readShort() int {
	f := vm.frame()
	code := vm.chunk().Code()
	hi, lo := code[f.ip], code[f.ip+1]
	f.ip += 2
	return int(hi)<<8 | int(lo)
}

func (vm *VM) readConstant() Value { return vm.chunk().Constants()[vm.readByte()] }

func (vm *VM) readString() GCPtr[*String] {
	s, _ := vm.readConstant().AsString()
	return s
}

func (vm *VM) currentToken() Token { return vm.chunk().TokenAt(vm.frame().ip - 1) }

// push/pop/peek operate on the VM's single shared value stack, spanning
// every active call frame.

func (vm *VM) push(v Value) { vm.stack = append(vm.stack, v) }

func (vm *VM) pop() Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

func (vm *VM) peek(distance int) Value { return vm.stack[len(vm.stack)-1-distance] }

// call pushes a new frame for closure, checking arity and recursion
// depth. argCount values for the call are already on the stack,
// directly above the closure value itself at slot 0.
func (vm *VM) call(closure GCPtr[*Closure], argCount int) error {
	fn := closure.Get().Function.Get()
	if argCount != fn.Arity {
		return vm.runtimeError("Expected %d arguments but got %d.", fn.Arity, argCount)
	}
	if len(vm.frames) >= maxFrames {
		return vm.runtimeError("Stack overflow.")
	}
	vm.frames = append(vm.frames, callFrame{
		closure: closure,
		slots:   len(vm.stack) - argCount - 1,
	})
	return nil
}

// callValue dispatches a call expression's callee to whatever kind of
// callable it turns out to hold: a Lox closure, a native function, a
// class (construction), or a bound method.
func (vm *VM) callValue(callee Value, argCount int) error {
	if !callee.IsObject() {
		return vm.runtimeError("Can only call functions and classes.")
	}
	switch obj := callee.AsObject().block.obj.(type) {
	case *Closure:
		closure, _ := As[*Closure](callee.AsObject())
		return vm.call(closure, argCount)
	case *Native:
		args := vm.stack[len(vm.stack)-argCount:]
		result, err := obj.Fn(args)
		if err != nil {
			return vm.runtimeError("%s", err.Error())
		}
		vm.stack = vm.stack[:len(vm.stack)-argCount-1]
		vm.push(result)
		return nil
	case *Class:
		classPtr, _ := As[*Class](callee.AsObject())
		instance := Make(vm.heap, NewInstance(classPtr))
		vm.stack[len(vm.stack)-argCount-1] = ObjectOf(instance)
		if init, ok := obj.Method(vm.initString.Get()); ok {
			return vm.call(init, argCount)
		}
		if argCount != 0 {
			return vm.runtimeError("Expected 0 arguments but got %d.", argCount)
		}
		return nil
	case *BoundMethod:
		vm.stack[len(vm.stack)-argCount-1] = obj.Receiver
		return vm.call(obj.Method, argCount)
	default:
		return vm.runtimeError("Can only call functions and classes.")
	}
}

// invoke fuses a property lookup with a call, implementing OpInvoke:
// `receiver.name(args)` without first materializing a BoundMethod.
func (vm *VM) invoke(name GCPtr[*String], argCount int) error {
	receiver := vm.peek(argCount)
	if !receiver.IsObject() {
		return vm.runtimeError("Only instances have methods.")
	}
	instPtr, ok := As[*Instance](receiver.AsObject())
	if !ok {
		return vm.runtimeError("Only instances have methods.")
	}
	inst := instPtr.Get()
	if field, ok := inst.Field(name.Get()); ok {
		vm.stack[len(vm.stack)-argCount-1] = field
		return vm.callValue(field, argCount)
	}
	return vm.invokeFromClass(inst.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class GCPtr[*Class], name GCPtr[*String], argCount int) error {
	method, ok := class.Get().Method(name.Get())
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Get().chars)
	}
	return vm.call(method, argCount)
}

// bindMethod resolves name on class into a BoundMethod closing over the
// receiver currently on top of the stack, replacing it there. Used by
// OpGetProperty when a property name isn't a field.
func (vm *VM) bindMethod(class GCPtr[*Class], name GCPtr[*String]) error {
	method, ok := class.Get().Method(name.Get())
	if !ok {
		return vm.runtimeError("Undefined property '%s'.", name.Get().chars)
	}
	bound := Make(vm.heap, &BoundMethod{Receiver: vm.peek(0), Method: method})
	vm.pop()
	vm.push(ObjectOf(bound))
	return nil
}

// captureUpvalue returns the open upvalue already tracking stack index
// slot, or opens a new one, keeping vm.openUpvalues sorted by
// decreasing stack index.
func (vm *VM) captureUpvalue(slot int) GCPtr[*Upvalue] {
	insertAt := len(vm.openUpvalues)
	for i, uv := range vm.openUpvalues {
		if uv.Get().index == slot {
			return uv
		}
		if uv.Get().index < slot {
			insertAt = i
			break
		}
	}
	created := Make(vm.heap, newOpenUpvalue(&vm.stack, slot))
	vm.openUpvalues = append(vm.openUpvalues, GCPtr[*Upvalue]{})
	copy(vm.openUpvalues[insertAt+1:], vm.openUpvalues[insertAt:])
	vm.openUpvalues[insertAt] = created
	return created
}

// closeUpvalues closes every open upvalue at or above stack index last,
// called when a scope holding captured locals is about to be popped
// (the "close on scope exit" rule).
func (vm *VM) closeUpvalues(last int) {
	kept := vm.openUpvalues[:0]
	for _, uv := range vm.openUpvalues {
		if uv.Get().index >= last {
			uv.Get().Close()
		} else {
			kept = append(kept, uv)
		}
	}
	vm.openUpvalues = kept
}

// defineMethod pops the just-compiled method closure off the stack and
// installs it into the class sitting beneath it, implementing OpMethod.
func (vm *VM) defineMethod(name GCPtr[*String]) {
	method, _ := As[*Closure](vm.peek(0).AsObject())
	class, _ := As[*Class](vm.peek(1).AsObject())
	class.Get().SetMethod(name, method)
	vm.pop()
}
