package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/motts-golox/golox"
)

type args struct {
	debug      *bool
	traceVM    *bool
	stressGC   *bool
	scriptPath *string
}

func readArgs() *args {
	a := &args{
		debug:    flag.Bool("debug", false, "Print disassembled bytecode before running"),
		traceVM:  flag.Bool("trace", false, "Trace every instruction and stack state as it executes"),
		stressGC: flag.Bool("stress-gc", false, "Collect garbage on every allocation"),
	}
	flag.Parse()
	if flag.NArg() > 0 {
		path := flag.Arg(0)
		a.scriptPath = &path
	}
	return a
}

func main() {
	a := readArgs()

	cfg := golox.NewConfig()
	cfg.SetBool("vm.trace_execution", *a.traceVM)
	cfg.SetBool("vm.stress_gc", *a.stressGC)
	opts := golox.RunOptions{Config: cfg, Out: os.Stdout, ErrOut: os.Stderr}

	if a.scriptPath != nil {
		source, err := os.ReadFile(*a.scriptPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(64)
		}
		if *a.debug {
			printDisassembly(string(source), opts)
		}
		err = golox.Run(string(source), opts)
		if err != nil {
			fmt.Fprintln(opts.ErrOut, err)
			if rerr, ok := err.(golox.RuntimeError); ok {
				fmt.Fprint(opts.ErrOut, rerr.StackTrace)
			}
		}
		os.Exit(golox.ExitCode(err))
	}

	os.Exit(golox.ExitCode(runRepl(opts)))
}

// runRepl reads one line at a time, compiling and running each as its
// own top-level script. A compile or runtime error
// in one line never ends the session.
func runRepl(opts golox.RunOptions) error {
	reader := bufio.NewReader(os.Stdin)
	prompt := opts.Config.GetString("repl.prompt")
	for {
		fmt.Fprint(opts.Out, prompt)
		line, err := reader.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			if runErr := golox.Run(line, opts); runErr != nil {
				fmt.Fprintln(opts.ErrOut, runErr)
			}
		}
		if err != nil {
			fmt.Fprintln(opts.Out)
			return nil
		}
	}
}

func printDisassembly(source string, opts golox.RunOptions) {
	heap := golox.NewHeap()
	interner := golox.NewInterner(heap)
	defer interner.Close()

	fn, err := golox.Compile(source, heap, interner)
	if err != nil {
		fmt.Fprintln(opts.ErrOut, err)
		return
	}
	fmt.Fprintln(opts.Out, golox.HighlightDisassembleChunk("script", &fn.Get().Chunk))
}
