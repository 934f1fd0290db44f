package golox

import (
	"fmt"
	"strings"
)

// VM is a stack-based bytecode interpreter: one shared value stack
// spanning every active call frame, a heap, an interned-string table,
// and the global variable table. One VM runs one script from start to
// finish; create a fresh one per Interpret call.
type VM struct {
	heap     *Heap
	interner *Interner
	natives  *NativeRegistry

	globals map[*String]Value
	// globalNames mirrors globals' keys as GCPtr handles so markRoots can
	// keep the interned name strings themselves alive; a bare *String map
	// key carries no control-block reference of its own.
	globalNames []GCPtr[*String]

	stack        []Value
	frames       []callFrame
	openUpvalues []GCPtr[*Upvalue]

	initString GCPtr[*String]

	opts        RunOptions
	detachRoots func()
}

// NewVM returns a VM with its native functions installed and its
// string-heap GC roots registered. Call Close when done with it to
// deregister those roots; the interner's destroy callback is
// deregistered separately by Interner.Close.
func NewVM(heap *Heap, interner *Interner, opts RunOptions) *VM {
	vm := &VM{
		heap:     heap,
		interner: interner,
		natives:  NewNativeRegistry(),
		globals:  make(map[*String]Value),
		opts:     opts,
	}
	vm.initString = interner.Get("init")
	vm.natives.Install(vm)
	vm.detachRoots = heap.OnMarkRoots(vm.markRoots)
	return vm
}

// detachRoots is set by NewVM; Close calls it to deregister the VM's
// root-marking callback once the VM is no longer going to run.
func (vm *VM) Close() {
	if vm.detachRoots != nil {
		vm.detachRoots()
	}
}

// markRoots marks every heap reference reachable from live VM state:
// the value stack, every active frame's closure, every open upvalue,
// the globals table, and the cached "init" string.
func (vm *VM) markRoots() {
	for _, v := range vm.stack {
		markValue(vm.heap, v)
	}
	for _, f := range vm.frames {
		vm.heap.Mark(f.closure.Obj())
	}
	for _, uv := range vm.openUpvalues {
		vm.heap.Mark(uv.Obj())
	}
	for _, name := range vm.globalNames {
		vm.heap.Mark(name.Obj())
		markValue(vm.heap, vm.globals[name.Get()])
	}
	vm.heap.Mark(vm.initString.Obj())
}

// Interpret compiles and runs source from scratch: a fresh top-level
// Function is compiled, wrapped in a Closure, and run to completion.
// A non-nil error is either CompileErrors (exit 65) or a RuntimeError
// (exit 70).
func (vm *VM) Interpret(source string) error {
	fn, err := Compile(source, vm.heap, vm.interner)
	if err != nil {
		return err
	}

	closure := Make(vm.heap, &Closure{Function: fn})
	vm.push(ObjectOf(closure))
	vm.frames = append(vm.frames, callFrame{closure: closure, slots: 0})

	err = vm.run()
	if err != nil {
		return err
	}
	return nil
}

// run executes call frames until the outermost one returns, implementing
// the fetch-decode-execute loop.
func (vm *VM) run() error {
	for {
		if vm.opts.Config != nil && vm.opts.Config.GetBool("vm.trace_execution") {
			vm.traceInstruction()
		}
		if vm.heap.ShouldCollect() || (vm.opts.Config != nil && vm.opts.Config.GetBool("vm.stress_gc")) {
			vm.heap.Collect()
		}

		op := OpCode(vm.readByte())
		switch op {
		case OpConstant:
			vm.push(vm.readConstant())
		case OpNil:
			vm.push(Nil)
		case OpTrue:
			vm.push(Bool(true))
		case OpFalse:
			vm.push(Bool(false))
		case OpPop:
			vm.pop()

		case OpGetLocal:
			slot := vm.frame().slots + int(vm.readByte())
			vm.push(vm.stack[slot])
		case OpSetLocal:
			slot := vm.frame().slots + int(vm.readByte())
			vm.stack[slot] = vm.peek(0)

		case OpGetGlobal:
			name := vm.readString()
			v, ok := vm.globals[name.Get()]
			if !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Get().chars)
			}
			vm.push(v)
		case OpDefineGlobal:
			name := vm.readString()
			if _, exists := vm.globals[name.Get()]; !exists {
				vm.globalNames = append(vm.globalNames, name)
			}
			vm.globals[name.Get()] = vm.peek(0)
			vm.pop()
		case OpSetGlobal:
			name := vm.readString()
			if _, ok := vm.globals[name.Get()]; !ok {
				return vm.runtimeError("Undefined variable '%s'.", name.Get().chars)
			}
			vm.globals[name.Get()] = vm.peek(0)

		case OpGetUpvalue:
			idx := vm.readByte()
			uv := vm.frame().closure.Get().Upvalues[idx]
			vm.push(uv.Get().Location())
		case OpSetUpvalue:
			idx := vm.readByte()
			uv := vm.frame().closure.Get().Upvalues[idx]
			uv.Get().SetLocation(vm.peek(0))

		case OpGetProperty:
			if err := vm.execGetProperty(); err != nil {
				return err
			}
		case OpSetProperty:
			if err := vm.execSetProperty(); err != nil {
				return err
			}
		case OpGetSuper:
			name := vm.readString()
			superclass, _ := As[*Class](vm.pop().AsObject())
			if err := vm.bindMethod(superclass, name); err != nil {
				return err
			}

		case OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(Bool(a.Equal(b)))
		case OpGreater, OpLess:
			if err := vm.execNumericCompare(op); err != nil {
				return err
			}

		case OpAdd:
			if err := vm.execAdd(); err != nil {
				return err
			}
		case OpSubtract, OpMultiply, OpDivide:
			if err := vm.execNumericBinary(op); err != nil {
				return err
			}
		case OpNot:
			vm.push(Bool(!vm.pop().Truthy()))
		case OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeError("Operand must be a number.")
			}
			vm.push(Number(-vm.pop().AsNumber()))

		case OpPrint:
			fmt.Fprintln(vm.opts.Out, vm.pop().String())

		case OpJump:
			offset := vm.readShort()
			vm.frame().ip += offset
		case OpJumpIfFalse:
			offset := vm.readShort()
			if !vm.peek(0).Truthy() {
				vm.frame().ip += offset
			}
		case OpLoop:
			offset := vm.readShort()
			vm.frame().ip -= offset

		case OpCall:
			argCount := int(vm.readByte())
			if err := vm.callValue(vm.peek(argCount), argCount); err != nil {
				return err
			}
		case OpInvoke:
			name := vm.readString()
			argCount := int(vm.readByte())
			if err := vm.invoke(name, argCount); err != nil {
				return err
			}
		case OpSuperInvoke:
			name := vm.readString()
			argCount := int(vm.readByte())
			superclass, _ := As[*Class](vm.pop().AsObject())
			if err := vm.invokeFromClass(superclass, name, argCount); err != nil {
				return err
			}
		case OpClosure:
			vm.execClosure()

		case OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.pop()

		case OpReturn:
			result := vm.pop()
			finishedFrame := vm.frames[len(vm.frames)-1]
			vm.closeUpvalues(finishedFrame.slots)
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				vm.pop()
				return nil
			}
			vm.stack = vm.stack[:finishedFrame.slots]
			vm.push(result)

		case OpClass:
			name := vm.readString()
			vm.push(ObjectOf(Make(vm.heap, NewClass(name))))
		case OpInherit:
			if err := vm.execInherit(); err != nil {
				return err
			}
		case OpMethod:
			name := vm.readString()
			vm.defineMethod(name)

		default:
			return vm.runtimeError("Unknown opcode %d.", op)
		}
	}
}

func (vm *VM) execGetProperty() error {
	receiver := vm.peek(0)
	if !receiver.IsObject() {
		return vm.runtimeError("Only instances have properties.")
	}
	instPtr, ok := As[*Instance](receiver.AsObject())
	if !ok {
		return vm.runtimeError("Only instances have properties.")
	}
	name := vm.readString()
	inst := instPtr.Get()
	if v, ok := inst.Field(name.Get()); ok {
		vm.pop()
		vm.push(v)
		return nil
	}
	return vm.bindMethod(inst.Class, name)
}

func (vm *VM) execSetProperty() error {
	receiver := vm.peek(1)
	if !receiver.IsObject() {
		return vm.runtimeError("Only instances have fields.")
	}
	instPtr, ok := As[*Instance](receiver.AsObject())
	if !ok {
		return vm.runtimeError("Only instances have fields.")
	}
	name := vm.readString()
	instPtr.Get().SetField(name, vm.peek(0))
	value := vm.pop()
	vm.pop()
	vm.push(value)
	return nil
}

func (vm *VM) execAdd() error {
	b, a := vm.peek(0), vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(Number(a.AsNumber() + b.AsNumber()))
		return nil
	case a.IsObject() && b.IsObject():
		as, aok := a.AsString()
		bs, bok := b.AsString()
		if aok && bok {
			vm.pop()
			vm.pop()
			vm.push(ObjectOf(vm.interner.Concat(as.Get(), bs.Get())))
			return nil
		}
		return vm.runtimeError("Operands must be two numbers or two strings.")
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

func (vm *VM) execNumericBinary(op OpCode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case OpSubtract:
		vm.push(Number(a - b))
	case OpMultiply:
		vm.push(Number(a * b))
	case OpDivide:
		vm.push(Number(a / b))
	}
	return nil
}

func (vm *VM) execNumericCompare(op OpCode) error {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		return vm.runtimeError("Operands must be numbers.")
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	switch op {
	case OpGreater:
		vm.push(Bool(a > b))
	case OpLess:
		vm.push(Bool(a < b))
	}
	return nil
}

func (vm *VM) execClosure() {
	fnPtr, _ := As[*Function](vm.readConstant().AsObject())
	fn := fnPtr.Get()
	closure := Make(vm.heap, &Closure{
		Function: fnPtr,
		Upvalues: make([]GCPtr[*Upvalue], fn.UpvalueCount),
	})
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := vm.readByte()
		index := int(vm.readByte())
		if isLocal != 0 {
			closure.Get().Upvalues[i] = vm.captureUpvalue(vm.frame().slots + index)
		} else {
			closure.Get().Upvalues[i] = vm.frame().closure.Get().Upvalues[index]
		}
	}
	vm.push(ObjectOf(closure))
}

func (vm *VM) execInherit() error {
	superVal := vm.peek(1)
	superPtr, ok := As[*Class](superVal.AsObject())
	if !superVal.IsObject() || !ok {
		return vm.runtimeError("Superclass must be a class.")
	}
	subPtr, _ := As[*Class](vm.peek(0).AsObject())
	sub := subPtr.Get()
	super := superPtr.Get()
	for _, name := range super.methodOrder {
		if m, ok := super.Method(name.Get()); ok {
			sub.SetMethod(name, m)
		}
	}
	vm.pop() // the subclass, leaving the superclass as the "super" local
	return nil
}

// runtimeError builds a RuntimeError at the currently executing
// instruction, with a call-stack trace attached for
// diagnostics.
func (vm *VM) runtimeError(format string, args ...interface{}) error {
	tok := vm.currentToken()
	return RuntimeError{
		Line:       tok.Line,
		Lexeme:     tok.Lexeme,
		Message:    fmt.Sprintf(format, args...),
		StackTrace: vm.stackTrace(),
	}
}

func (vm *VM) stackTrace() string {
	var b strings.Builder
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		fn := f.closure.Get().Function.Get()
		line := f.closure.Get().Function.Get().Chunk.TokenAt(f.ip - 1).Line
		if !fn.Name.Valid() {
			fmt.Fprintf(&b, "[line %d] in script\n", line)
		} else {
			fmt.Fprintf(&b, "[line %d] in %s()\n", line, fn.Name.Get().chars)
		}
	}
	return b.String()
}
