package golox

import "os"

// Run compiles and executes source under opts, returning a
// CompileErrors or RuntimeError on failure. It is the single entry
// point both the CLI driver and the test suite use to execute a whole
// program end to end.
func Run(source string, opts RunOptions) error {
	heap := NewHeap()
	if opts.Config != nil {
		heap.nextCollectAt = opts.Config.GetInt("heap.initial_threshold")
	}
	interner := NewInterner(heap)
	defer interner.Close()

	vm := NewVM(heap, interner, opts)
	defer vm.Close()

	return vm.Interpret(source)
}

// RunFile reads path and runs it under opts.
func RunFile(path string, opts RunOptions) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return Run(string(source), opts)
}
