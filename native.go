package golox

import "time"

// NativeRegistry is the set of native functions installed into a VM's
// globals before it runs any user source. Its zero value has no
// entries; NewNativeRegistry wires in the language's builtin
// features call for.
type NativeRegistry struct {
	entries map[string]NativeFn
}

// NewNativeRegistry returns a registry carrying clock(), the one native
// function the original bytecode VM exposes.
func NewNativeRegistry() *NativeRegistry {
	return &NativeRegistry{entries: map[string]NativeFn{
		"clock": nativeClock,
	}}
}

// Install defines every registered native as a global in vm, each
// wrapped in a *Native object on the heap.
func (r *NativeRegistry) Install(vm *VM) {
	for name, fn := range r.entries {
		namePtr := vm.interner.Get(name)
		native := Make(vm.heap, &Native{Name: name, Fn: fn})
		vm.globals[namePtr.Get()] = ObjectOf(native)
		vm.globalNames = append(vm.globalNames, namePtr)
	}
}

func nativeClock(args []Value) (Value, error) {
	return Number(float64(time.Now().UnixNano()) / float64(time.Second)), nil
}
